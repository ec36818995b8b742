package charsearch

import "testing"

func TestMatchCaseInsensitive(t *testing.T) {
	m, err := Init("hello", "")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !m.Match([]byte("Hello, world")) {
		t.Fatal("expected match")
	}
	if m.Match([]byte("goodbye")) {
		t.Fatal("expected no match")
	}
}

func TestMatchEmptyNeedleAlwaysMatches(t *testing.T) {
	m, err := Init("", "US-ASCII")
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !m.Match([]byte("anything")) {
		t.Fatal("expected empty needle to match")
	}
}

func TestInitUnknownCharset(t *testing.T) {
	_, err := Init("x", "not-a-real-charset-xyz")
	if err == nil {
		t.Fatal("expected error for unknown charset")
	}
	var uc *ErrUnknownCharset
	if !asUnknownCharset(err, &uc) {
		t.Fatalf("expected ErrUnknownCharset, got %T: %v", err, err)
	}
}

func TestInitKnownNonUTF8Charset(t *testing.T) {
	m, err := Init("caf\xe9", "ISO-8859-1") // "café" in ISO-8859-1 bytes
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !m.Match([]byte("the café is open")) {
		t.Fatal("expected match")
	}
}

func asUnknownCharset(err error, target **ErrUnknownCharset) bool {
	if e, ok := err.(*ErrUnknownCharset); ok {
		*target = e
		return true
	}
	return false
}
