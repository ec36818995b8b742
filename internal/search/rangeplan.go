package search

import "fmt"

// ErrSyntax reports an invalid sequence-set bound: zero, or one exceeding
// the mailbox's message count.
type ErrSyntax struct {
	Reason string
}

func (e *ErrSyntax) Error() string { return "search: syntax error: " + e.Reason }

// Plan computes the closed sequence window §4.1 describes: the union of
// explicit SEQSET/ALL ranges (forced to the full mailbox inside an OR),
// defaulting to the whole mailbox when the tree names no range at all, then
// tightened at the root level by SEEN/DELETED flag-count and low-water
// rules. A returned SeqRange with Lo > Hi means "empty result."
func Plan(root *Arg, hdr MailboxHeader, lookupUIDRange func(lo, hi uint32) (uint32, uint32, error)) (SeqRange, error) {
	var lo, hi uint32 // 0,0 means "no range collected yet"

	var collect func(n *Arg) error
	collect = func(n *Arg) error {
		switch n.Kind {
		case KindSub:
			for _, c := range n.Children {
				if err := collect(c); err != nil {
					return err
				}
			}
		case KindOr:
			lo, hi = 1, hdr.MessagesCount
			for _, c := range n.Children {
				if err := collect(c); err != nil {
					return err
				}
			}
		case KindSeqSet:
			for _, r := range n.SeqSet {
				rLo, rHi := r.Lo, r.Hi
				if rLo == SeqMax {
					rLo = hdr.MessagesCount
				}
				if rHi == SeqMax {
					rHi = hdr.MessagesCount
				}
				if rLo == 0 || rHi == 0 || rLo > hdr.MessagesCount || rHi > hdr.MessagesCount {
					return &ErrSyntax{Reason: "invalid messageset"}
				}
				if lo > rLo || lo == 0 {
					lo = rLo
				}
				if hi < rHi {
					hi = rHi
				}
			}
		case KindAll:
			lo, hi = 1, hdr.MessagesCount
		}
		return nil
	}

	if err := collect(root); err != nil {
		return SeqRange{}, err
	}

	if lo == 0 {
		lo, hi = 1, hdr.MessagesCount
	}

	seq1, seq2 := lo, hi

	// Flag-based tightening at the root level only: children of the root
	// SUB (or the bare root itself if it is a single flag leaf), not
	// nested inside OR/sub-SUB.
	rootChildren := []*Arg{root}
	if root.Kind == KindSub {
		rootChildren = root.Children
	}

	for _, n := range rootChildren {
		switch n.Kind {
		case KindFlag:
			switch n.Flag {
			case FlagSeen:
				if empty, err := limitSeen(n, hdr, lookupUIDRange, &seq1, &seq2); err != nil {
					return SeqRange{}, err
				} else if empty {
					return SeqRange{Lo: 1, Hi: 0}, nil
				}
			case FlagDeleted:
				if empty, err := limitDeleted(n, hdr, lookupUIDRange, &seq1, &seq2); err != nil {
					return SeqRange{}, err
				} else if empty {
					return SeqRange{Lo: 1, Hi: 0}, nil
				}
			}
		}
	}

	if seq1 > seq2 {
		return SeqRange{Lo: 1, Hi: 0}, nil
	}
	return SeqRange{Lo: seq1, Hi: seq2}, nil
}

func limitSeen(n *Arg, hdr MailboxHeader, lookupUIDRange func(lo, hi uint32) (uint32, uint32, error), seq1, seq2 *uint32) (empty bool, err error) {
	if !n.Negated && hdr.SeenCount == 0 {
		return true, nil
	}
	if hdr.SeenCount == hdr.MessagesCount {
		if n.Negated {
			return true, nil
		}
		return false, nil
	}
	if n.Negated {
		return false, limitLowwater(hdr.FirstUnseenUIDLowwater, lookupUIDRange, seq1)
	}
	return false, nil
}

func limitDeleted(n *Arg, hdr MailboxHeader, lookupUIDRange func(lo, hi uint32) (uint32, uint32, error), seq1, seq2 *uint32) (empty bool, err error) {
	if !n.Negated && hdr.DeletedCount == 0 {
		return true, nil
	}
	if hdr.DeletedCount == hdr.MessagesCount {
		if n.Negated {
			return true, nil
		}
		return false, nil
	}
	if !n.Negated {
		return false, limitLowwater(hdr.FirstDeletedUIDLowwater, lookupUIDRange, seq1)
	}
	return false, nil
}

func limitLowwater(uidLowwater uint32, lookupUIDRange func(lo, hi uint32) (uint32, uint32, error), seq1 *uint32) error {
	if uidLowwater == 0 {
		return nil
	}
	if lookupUIDRange == nil {
		return fmt.Errorf("search: low-water tightening requires a UID range lookup")
	}
	seqLo, _, err := lookupUIDRange(uidLowwater, SeqMax)
	if err != nil {
		return err
	}
	if *seq1 < seqLo {
		*seq1 = seqLo
	}
	return nil
}
