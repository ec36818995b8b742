// Package charsearch implements the §6 "Substring matcher" collaborator:
// a charset-aware, case-insensitive substring search over header values
// and body content, constructed lazily per predicate leaf and reset
// between messages (§4.2 "header-search-context caching"). Grounded on
// message_header_search_init / message_header_search / message_header_search_reset
// in original_source/src/lib-storage/index/index-search.c's calls.
package charsearch

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/kestrelmail/searchcore/internal/search"
)

// ErrUnknownCharset signals that charset could not be resolved to a
// decoder at all; the session maps this to "[BADCHARSET] Unknown
// charset" (§7).
type ErrUnknownCharset struct {
	Charset string
}

func (e *ErrUnknownCharset) Error() string {
	return fmt.Sprintf("charsearch: unknown charset %q", e.Charset)
}

// matcher is a compiled needle over one resolved charset. It decodes the
// needle to UTF-8 once at construction; haystacks are not decoded and are
// compared as UTF-8 bytes, case-insensitively.
type matcher struct {
	needleLower string
}

// Init resolves charset via the IANA MIME charset registry and returns a
// matcher that folds both needle and haystack to lowercase UTF-8 before
// comparing, mirroring message_header_search_init's unknown_charset
// out-parameter with a typed error instead (search.MatcherFactory).
func Init(needle, charset string) (search.SubstringMatcher, error) {
	enc, err := resolveCharset(charset)
	if err != nil {
		return nil, err
	}

	decodedNeedle, err := decode(enc, []byte(needle))
	if err != nil {
		return nil, fmt.Errorf("charsearch: invalid search key: %w", err)
	}

	return &matcher{needleLower: strings.ToLower(decodedNeedle)}, nil
}

// Match reports whether haystack, read as UTF-8, contains the needle
// case-insensitively. It never returns an error: invalid UTF-8 sequences
// in haystack are lowered as U+FFFD and the rest is still searched.
func (m *matcher) Match(haystack []byte) bool {
	if m.needleLower == "" {
		return true
	}
	return bytes.Contains(bytes.ToLower(haystack), []byte(m.needleLower))
}

// Reset is a no-op: the matcher holds no per-message state, only the
// compiled needle. It exists to satisfy search.SubstringMatcher, whose
// contract allows (but does not require) per-message state to be cleared
// between uses.
func (m *matcher) Reset() {}

func resolveCharset(charset string) (encoding.Encoding, error) {
	name := strings.TrimSpace(charset)
	if name == "" || strings.EqualFold(name, "us-ascii") || strings.EqualFold(name, "utf-8") {
		return nil, nil // nil encoding means "already UTF-8/ASCII, no transform needed"
	}
	enc, err := ianaindex.MIME.Encoding(name)
	if err != nil || enc == nil {
		return nil, &ErrUnknownCharset{Charset: charset}
	}
	return enc, nil
}

func decode(enc encoding.Encoding, raw []byte) (string, error) {
	if enc == nil {
		return string(raw), nil
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Factory adapts Init to the search.MatcherFactory interface.
type Factory struct{}

// Init builds a matcher for needle in charset, satisfying
// search.MatcherFactory.
func (Factory) Init(needle, charset string) (search.SubstringMatcher, error) {
	return Init(needle, charset)
}

var _ search.MatcherFactory = Factory{}
