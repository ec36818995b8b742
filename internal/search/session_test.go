package search

import (
	"testing"

	"github.com/emersion/go-imap/v2"
)

// fakeView backs a fixed, in-memory mailbox for session-level scenarios.
type fakeView struct {
	hdr     MailboxHeader
	records map[uint32]*Record
}

func (v *fakeView) Header() (MailboxHeader, error) { return v.hdr, nil }

func (v *fakeView) Lookup(seq uint32) (*Record, bool, error) {
	rec, ok := v.records[seq]
	return rec, ok, nil
}

func (v *fakeView) LookupUIDRange(uidLo, uidHi uint32) (uint32, uint32, error) {
	return uidLo, uidHi, nil
}

type fakeOpener struct{}

func (fakeOpener) Open(rec *Record) (PerMailAccessor, error) {
	return &fakeAccessor{flags: rec.Flags}, nil
}

// buildFakeMailbox constructs a view over messages numbered 1..len(flags),
// with the given per-message flag set and matching seen/deleted counters.
func buildFakeMailbox(flags []SystemFlag) *fakeView {
	records := make(map[uint32]*Record, len(flags))
	var seen, deleted uint32
	for i, f := range flags {
		seq := uint32(i + 1)
		records[seq] = &Record{Seq: seq, UID: seq, Flags: f}
		if f&FlagSeen != 0 {
			seen++
		}
		if f&FlagDeleted != 0 {
			deleted++
		}
	}
	return &fakeView{
		hdr: MailboxHeader{
			MessagesCount: uint32(len(flags)),
			SeenCount:     seen,
			DeletedCount:  deleted,
		},
		records: records,
	}
}

// TestSessionSeenAndSeqRangeScenario exercises §8 scenario 1: five messages
// flagged [S, S, -, S, -], query "SEEN AND 1:5" matches sequences 1, 2, 4.
func TestSessionSeenAndSeqRangeScenario(t *testing.T) {
	view := buildFakeMailbox([]SystemFlag{FlagSeen, FlagSeen, 0, FlagSeen, 0})

	sess := NewSession(view, fakeOpener{}, nil, nil, nil, nil, "us-ascii")

	criteria := &imap.SearchCriteria{
		Flag:   []imap.Flag{imap.FlagSeen},
		SeqNum: []imap.SeqSet{{{Start: 1, Stop: 5}}},
	}
	if err := sess.Init(criteria); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer sess.Deinit()

	var matched []uint32
	for {
		seq, ok, done, err := sess.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if done {
			break
		}
		if ok {
			matched = append(matched, seq)
		}
	}

	want := []uint32{1, 2, 4}
	if len(matched) != len(want) {
		t.Fatalf("matched = %v, want %v", matched, want)
	}
	for i, seq := range want {
		if matched[i] != seq {
			t.Fatalf("matched = %v, want %v", matched, want)
		}
	}
}

// TestSessionNotSeenWithAllSeenReturnsNoneImmediately exercises §8 scenario
// 5: seen_count == messages_count ∧ predicate = NOT SEEN ⇒ the planner
// reports an empty window and the very first Next call reports done.
func TestSessionNotSeenWithAllSeenReturnsNoneImmediately(t *testing.T) {
	flags := make([]SystemFlag, 10)
	for i := range flags {
		flags[i] = FlagSeen
	}
	view := buildFakeMailbox(flags)

	sess := NewSession(view, fakeOpener{}, nil, nil, nil, nil, "us-ascii")

	criteria := &imap.SearchCriteria{NotFlag: []imap.Flag{imap.FlagSeen}}
	if err := sess.Init(criteria); err != nil {
		t.Fatalf("Init: %v", err)
	}
	defer sess.Deinit()

	seq, ok, done, err := sess.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !done {
		t.Fatalf("expected done=true on the first call, got seq=%d ok=%v", seq, ok)
	}
	if ok {
		t.Fatal("expected no match")
	}
}

func TestSessionStickyErrorPersistsAcrossNextCalls(t *testing.T) {
	view := buildFakeMailbox([]SystemFlag{FlagSeen})
	sess := NewSession(view, fakeOpener{}, nil, nil, nil, nil, "us-ascii")

	// A sequence bound beyond the mailbox's message count is a syntax
	// error (§4.1), sticky across Init.
	criteria := &imap.SearchCriteria{SeqNum: []imap.SeqSet{{{Start: 1, Stop: 999}}}}
	err := sess.Init(criteria)
	if err == nil {
		t.Fatal("expected a syntax error for an out-of-range sequence bound")
	}

	_, matched, done, err2 := sess.Next()
	if err2 == nil {
		t.Fatal("expected Next to keep returning the sticky error")
	}
	if !done || matched {
		t.Fatalf("done = %v, matched = %v, want done=true, matched=false", done, matched)
	}
}
