package search

import (
	"io"
	"time"
)

// MailboxHeader is the subset of mailbox-wide counters the range planner and
// flag-based tightening rules consume (§4.1, §6 "Mailbox view").
type MailboxHeader struct {
	MessagesCount          uint32
	SeenCount              uint32
	DeletedCount           uint32
	FirstUnseenUIDLowwater uint32
	FirstDeletedUIDLowwater uint32
}

// Record is the message index record the core treats as read-only (§3).
// Flags is the full in-memory flags view, including RECENT; the persisted
// backing store never encodes RECENT itself.
type Record struct {
	Seq      uint32
	UID      uint32
	Flags    SystemFlag
	Keywords uint64 // bitset over custom flag bits, CustomFlagBase-relative
	Fields   map[string][]byte
}

// Field looks up an arbitrary typed field by symbolic key (e.g. "LOCATION").
func (r *Record) Field(key string) ([]byte, bool) {
	if r.Fields == nil {
		return nil, false
	}
	v, ok := r.Fields[key]
	return v, ok
}

// MailboxView is the §6 "Mailbox view" collaborator: mailbox-wide metadata
// plus per-sequence record lookup. Concrete storage formats (the on-disk
// index file format is explicitly out of scope, §1) implement this against
// whatever they actually persist.
type MailboxView interface {
	Header() (MailboxHeader, error)
	Lookup(seq uint32) (*Record, bool, error)
	LookupUIDRange(uidLo, uidHi uint32) (seqLo, seqHi uint32, err error)
}

// PerMailAccessor is the §6 "Per-mail accessor" collaborator: metadata and
// content reachable without assuming any particular on-disk message format.
type PerMailAccessor interface {
	ReceivedDate() (time.Time, bool)
	// SentDate returns the cached Date: header value and its timezone
	// offset in minutes, if the value is cached; ok is false if
	// unavailable (forcing Tier C to parse the header itself).
	SentDate() (t time.Time, tzOffsetMinutes int, ok bool)
	Size() (uint64, bool)
	// Stream returns the full message source along with header/body byte
	// boundaries in the source's own framing.
	Stream() (hdrSize, bodySize int64, src io.ReadSeeker, err error)
	// Headers returns a source of the message's headers; names lists the
	// headers the caller needs (nil means "all headers"). The maildirbox
	// implementation ignores names and returns the whole header block.
	Headers(names []string) (io.Reader, error)
	Flags() SystemFlag
}

// HeaderField is one parsed header line, mirroring the §6 header-parser
// callback shape re-expressed as a pull value rather than a C-style
// void*-context callback (§9 design note).
type HeaderField struct {
	Name        string
	Value       string
	FullValue   string // continuation-joined value, populated when UseFullValue was honored
	EOH         bool   // true on the synthetic end-of-headers marker
}

// HeaderSource yields header fields one at a time. UseFullValue, when set
// true by the caller before the next call, causes continuation lines to be
// joined into FullValue before it is returned (mirrors the
// use_full_value callback flag in §6).
type HeaderSource interface {
	Next(useFullValue bool) (HeaderField, error)
}

// SubstringMatcher is the §6 "Substring matcher" collaborator: a
// charset-aware compiled needle, lazily constructed and cached per leaf,
// reset between messages rather than freed (§4.2 "header-search-context
// caching").
type SubstringMatcher interface {
	Match(haystack []byte) bool
	Reset()
}

// MatcherFactory constructs a SubstringMatcher for a needle in a given
// charset. ErrUnknownCharset signals the charset itself was rejected;
// any other error is a search-key error.
type MatcherFactory interface {
	Init(needle, charset string) (SubstringMatcher, error)
}

// AddressParser is the §6 "Address parser" collaborator.
type AddressParser interface {
	Parse(raw string) ([]Address, error)
	Canonicalize(addrs []Address) string
}

// DateParser is the §6 date-parser collaborator: parses a raw RFC 5322
// Date header value, returning both the instant and the offset (minutes,
// east positive) the header's own timezone carried. Tier C needs the
// offset separately from the instant because the source this was
// distilled from folds it back in before comparing (search_sent): the
// sent-date comparison happens in the header's own local day, not UTC.
type DateParser interface {
	Parse(raw string) (t time.Time, tzOffsetMinutes int, ok bool)
}

// Address is a single RFC 5322 mailbox in an address list.
type Address struct {
	Name    string
	Mailbox string
	Host    string
}
