package search

import (
	"bufio"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-message"
)

// MessageOpener opens the streamable content behind one index record.
// Concrete maildir access lives outside this package (§1); this is the
// seam a session is handed at construction time.
type MessageOpener interface {
	Open(rec *Record) (PerMailAccessor, error)
}

// Session drives one IMAP SEARCH: Init converts the criteria and plans the
// sequence window once, Next walks that window one candidate at a time
// applying the three-tier cascade, Deinit releases per-session state.
// Grounded on index_storage_search_init / _next / _deinit (§6).
type Session struct {
	view           MailboxView
	opener         MessageOpener
	mf             MatcherFactory
	ap             AddressParser
	dp             DateParser
	kw             *KeywordRegistry
	defaultCharset string

	tree   *Tree
	plan   SeqRange
	cursor uint32
	leaves Results
	cache  map[int]SubstringMatcher

	sticky *Error
}

// NewSession builds a session over the given collaborators. None may be
// nil except kw, which defaults to an empty registry.
func NewSession(view MailboxView, opener MessageOpener, mf MatcherFactory, ap AddressParser, dp DateParser, kw *KeywordRegistry, defaultCharset string) *Session {
	if kw == nil {
		kw = NewKeywordRegistry()
	}
	return &Session{
		view:           view,
		opener:         opener,
		mf:             mf,
		ap:             ap,
		dp:             dp,
		kw:             kw,
		defaultCharset: defaultCharset,
	}
}

// Init converts criteria into the predicate tree and plans the sequence
// window. A syntax or index error here is sticky: every subsequent Next
// call returns the same error without touching the mailbox further (§7).
func (s *Session) Init(criteria *imap.SearchCriteria) error {
	if s.sticky != nil {
		return s.sticky
	}

	root, err := FromIMAPCriteria(criteria, s.kw, s.view.LookupUIDRange)
	if err != nil {
		s.sticky = newError(ErrKindSyntax, err)
		return s.sticky
	}

	hdr, err := s.view.Header()
	if err != nil {
		s.sticky = newError(ErrKindIndex, err)
		return s.sticky
	}

	plan, err := Plan(root, hdr, s.view.LookupUIDRange)
	if err != nil {
		s.sticky = newError(ErrKindSyntax, err)
		return s.sticky
	}

	tree := BuildTree(root)
	s.tree = tree
	s.plan = plan
	s.cursor = plan.Lo
	if plan.Lo > plan.Hi {
		s.cursor = plan.Hi + 1
	}
	s.leaves = NewResults(tree.LeafCount)
	s.cache = make(map[int]SubstringMatcher)
	return nil
}

// Next advances to the next candidate sequence number within the planned
// window and evaluates it. done is true once the window is exhausted or a
// sticky error has occurred. A non-sticky error means the current
// candidate could not be evaluated (I/O failure, vanished message); the
// caller may call Next again to continue with the following candidate.
func (s *Session) Next() (seq uint32, matched bool, done bool, err error) {
	if s.sticky != nil {
		return 0, false, true, s.sticky
	}

	for s.cursor <= s.plan.Hi {
		cur := s.cursor
		s.cursor++

		rec, ok, lookupErr := s.view.Lookup(cur)
		if lookupErr != nil {
			s.sticky = newError(ErrKindIndex, lookupErr)
			return 0, false, true, s.sticky
		}
		if !ok {
			// Expunged mid-session: skip, not sticky (§7).
			continue
		}

		acc, openErr := s.opener.Open(rec)
		if openErr != nil {
			return cur, false, false, newError(ErrKindExpunged, openErr)
		}

		verdict, evalErr := Evaluate(s.tree, s.leaves, rec, acc, s.tierC)
		if evalErr != nil {
			if se, ok := evalErr.(*Error); ok && se.Sticky() {
				s.sticky = se
				return 0, false, true, se
			}
			return cur, false, false, evalErr
		}
		return cur, verdict == True, false, nil
	}
	return 0, false, true, nil
}

// Deinit releases per-session state. It is safe to call more than once.
func (s *Session) Deinit() {
	s.tree = nil
	s.leaves = nil
	s.cache = nil
}

func (s *Session) tierC(tree *Tree, leaves Results, rec *Record, acc PerMailAccessor) error {
	for _, m := range s.cache {
		m.Reset()
	}
	_, _, src, err := acc.Stream()
	if err != nil {
		return newError(ErrKindIO, err)
	}
	br := bufio.NewReader(src)
	hdr, err := message.ReadHeader(br)
	if err != nil {
		return newError(ErrKindIO, err)
	}

	hs := NewHeaderSource(hdr)
	if err := EvaluateHeaders(tree, leaves, hs, s.mf, s.ap, s.dp, s.defaultCharset, s.cache); err != nil {
		return classifyTierErr(err)
	}
	if Eval(tree.Root, leaves) != Unknown {
		return nil
	}
	if err := EvaluateBody(tree, leaves, br, s.mf, s.cache, s.defaultCharset); err != nil {
		return classifyTierErr(err)
	}
	return nil
}

func classifyTierErr(err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	return newError(ErrKindSearchKey, err)
}

// FromIMAPCriteria converts an imap.SearchCriteria into the internal
// predicate tree, resolving UID ranges to sequence ranges eagerly via
// uidToSeq (typically MailboxView.LookupUIDRange) since the tree itself
// only ever carries sequence-number SEQSET leaves.
func FromIMAPCriteria(c *imap.SearchCriteria, kw *KeywordRegistry, uidToSeq func(lo, hi uint32) (uint32, uint32, error)) (*Arg, error) {
	root := &Arg{Kind: KindSub, LeafID: -1}
	if c == nil {
		return root, nil
	}

	for _, ss := range c.SeqNum {
		root.Children = append(root.Children, &Arg{Kind: KindSeqSet, SeqSet: seqSetFromIMAP(ss)})
	}
	for _, us := range c.UID {
		ranges, err := uidSeqSetFromIMAP(us, uidToSeq)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, &Arg{Kind: KindSeqSet, SeqSet: ranges})
	}

	if !c.Since.IsZero() {
		root.Children = append(root.Children, &Arg{Kind: KindSince, Time: dayStart(c.Since)})
	}
	if !c.Before.IsZero() {
		root.Children = append(root.Children, &Arg{Kind: KindBefore, Time: dayStart(c.Before)})
	}
	if !c.SentSince.IsZero() {
		root.Children = append(root.Children, &Arg{Kind: KindSentSince, Time: dayStart(c.SentSince)})
	}
	if !c.SentBefore.IsZero() {
		root.Children = append(root.Children, &Arg{Kind: KindSentBefore, Time: dayStart(c.SentBefore)})
	}

	for _, hf := range c.Header {
		if isAddressHeader(hf.Key) {
			root.Children = append(root.Children, &Arg{Kind: KindHeaderAddress, HeaderName: hf.Key, Needle: hf.Value})
		} else {
			root.Children = append(root.Children, &Arg{Kind: KindHeader, HeaderName: hf.Key, Needle: hf.Value})
		}
	}
	for _, v := range c.Body {
		root.Children = append(root.Children, &Arg{Kind: KindBody, Needle: v})
	}
	for _, v := range c.Text {
		root.Children = append(root.Children, &Arg{Kind: KindText, Needle: v})
	}

	for _, f := range c.Flag {
		root.Children = append(root.Children, flagArg(f, kw, false))
	}
	for _, f := range c.NotFlag {
		root.Children = append(root.Children, flagArg(f, kw, true))
	}

	if c.Larger > 0 {
		root.Children = append(root.Children, &Arg{Kind: KindLarger, Size: uint64(c.Larger)})
	}
	if c.Smaller > 0 {
		root.Children = append(root.Children, &Arg{Kind: KindSmaller, Size: uint64(c.Smaller)})
	}

	for i := range c.Not {
		child, err := FromIMAPCriteria(&c.Not[i], kw, uidToSeq)
		if err != nil {
			return nil, err
		}
		child.Negated = !child.Negated
		root.Children = append(root.Children, child)
	}

	for i := range c.Or {
		left, err := FromIMAPCriteria(&c.Or[i][0], kw, uidToSeq)
		if err != nil {
			return nil, err
		}
		right, err := FromIMAPCriteria(&c.Or[i][1], kw, uidToSeq)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, &Arg{Kind: KindOr, LeafID: -1, Children: []*Arg{left, right}})
	}

	return root, nil
}

func seqSetFromIMAP(ss imap.SeqSet) []SeqRange {
	out := make([]SeqRange, 0, len(ss))
	for _, r := range ss {
		lo, hi := uint32(r.Start), uint32(r.Stop)
		if lo == 0 {
			lo = SeqMax
		}
		if hi == 0 {
			hi = SeqMax
		}
		out = append(out, SeqRange{Lo: lo, Hi: hi})
	}
	return out
}

func uidSeqSetFromIMAP(us imap.UIDSet, uidToSeq func(lo, hi uint32) (uint32, uint32, error)) ([]SeqRange, error) {
	out := make([]SeqRange, 0, len(us))
	for _, r := range us {
		loUID, hiUID := uint32(r.Start), uint32(r.Stop)
		hiArg := hiUID
		if hiArg == 0 {
			hiArg = SeqMax
		}
		seqLo, seqHi, err := uidToSeq(loUID, hiArg)
		if err != nil {
			return nil, err
		}
		out = append(out, SeqRange{Lo: seqLo, Hi: seqHi})
	}
	return out, nil
}

func dayStart(t time.Time) int64 {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

var addressHeaderNames = map[string]bool{
	"from": true, "to": true, "cc": true, "bcc": true,
	"sender": true, "reply-to": true,
}

func isAddressHeader(name string) bool {
	return addressHeaderNames[strings.ToLower(name)]
}

func flagArg(f imap.Flag, kw *KeywordRegistry, negated bool) *Arg {
	if bit, ok := systemFlagBit(f); ok {
		return &Arg{Kind: KindFlag, Flag: bit, Negated: negated}
	}
	name := string(f)
	i, err := kw.Register(name)
	if err != nil {
		// Registry exhausted: a keyword that can never have been set
		// matches nothing, same as an unknown keyword in search_keyword.
		return &Arg{Kind: KindKeyword, Keyword: name, Negated: negated}
	}
	return &Arg{Kind: KindKeyword, Keyword: name, Flag: CustomFlag(i), Negated: negated}
}

func systemFlagBit(f imap.Flag) (SystemFlag, bool) {
	switch f {
	case imap.FlagAnswered:
		return FlagAnswered, true
	case imap.FlagSeen:
		return FlagSeen, true
	case imap.FlagDeleted:
		return FlagDeleted, true
	case imap.FlagDraft:
		return FlagDraft, true
	case imap.FlagFlagged:
		return FlagFlagged, true
	case imap.FlagRecent:
		return FlagRecent, true
	default:
		return 0, false
	}
}
