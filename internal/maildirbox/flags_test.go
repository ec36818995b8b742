package maildirbox

import (
	"testing"

	"github.com/kestrelmail/searchcore/internal/search"
)

func TestDecodeFlags(t *testing.T) {
	tests := []struct {
		name     string
		fname    string
		expected search.SystemFlag
	}{
		{"no info section", "1234.host", 0},
		{"seen only", "1234.host:2,S", search.FlagSeen},
		{"answered and deleted", "1234.host:2,RT", search.FlagAnswered | search.FlagDeleted},
		{"all known flags", "1234.host:2,DFRST", search.FlagDraft | search.FlagFlagged | search.FlagAnswered | search.FlagSeen | search.FlagDeleted},
		{"custom flag a", "1234.host:2,Sa", search.FlagSeen | search.CustomFlag(0)},
		{"unknown char ignored", "1234.host:2,SXZ", search.FlagSeen},
		{"trailing secondary flagset ignored", "1234.host:2,S,extra", search.FlagSeen},
		{"wrong version marker", "1234.host:1,S", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeFlags(tt.fname, 0)
			if got != tt.expected {
				t.Errorf("DecodeFlags(%q) = %v, want %v", tt.fname, got, tt.expected)
			}
		})
	}
}

func TestDecodeFlags_DefaultWhenNoInfoSection(t *testing.T) {
	got := DecodeFlags("1234.host", search.FlagSeen)
	if got != search.FlagSeen {
		t.Errorf("expected default flags to pass through, got %v", got)
	}
}

func TestEncodeFlags_SortedOutput(t *testing.T) {
	got := EncodeFlags("1234.host", search.FlagDeleted|search.FlagDraft|search.FlagSeen)
	want := "1234.host:2,DST"
	if got != want {
		t.Errorf("EncodeFlags() = %q, want %q", got, want)
	}
}

func TestEncodeFlags_PreservesUnknownChars(t *testing.T) {
	got := EncodeFlags("1234.host:2,SX9", search.FlagSeen)
	if got != "1234.host:2,SX9" {
		t.Errorf("EncodeFlags() = %q, want unknown chars preserved", got)
	}
}

func TestEncodeFlags_PreservesSecondaryFlagset(t *testing.T) {
	got := EncodeFlags("1234.host:2,S,W", search.FlagSeen|search.FlagDeleted)
	want := "1234.host:2,ST,W"
	if got != want {
		t.Errorf("EncodeFlags() = %q, want %q", got, want)
	}
}

func TestEncodeFlags_RemovesClearedFlags(t *testing.T) {
	got := EncodeFlags("1234.host:2,DRST", search.FlagSeen)
	want := "1234.host:2,S"
	if got != want {
		t.Errorf("EncodeFlags() = %q, want %q", got, want)
	}
}

func TestFlagsRoundTrip(t *testing.T) {
	flags := search.FlagSeen | search.FlagFlagged | search.CustomFlag(2)
	encoded := EncodeFlags("1234.host", flags)
	decoded := DecodeFlags(encoded, 0)
	if decoded != flags {
		t.Errorf("round trip: got %v, want %v", decoded, flags)
	}
}

func TestEncodeFlags_CustomFlagsSortAfterKnown(t *testing.T) {
	got := EncodeFlags("1234.host", search.FlagSeen|search.CustomFlag(0)|search.CustomFlag(1))
	want := "1234.host:2,Sab"
	if got != want {
		t.Errorf("EncodeFlags() = %q, want %q", got, want)
	}
}
