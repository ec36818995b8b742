package search

import "time"

// Evaluate runs the three-tier cascade against one message: Tier A
// (index-resident: flags, keywords, sequence membership), Tier B (cached
// metadata: dates, size), Tier C (text: headers and body, requires
// streaming). It short-circuits as soon as the root verdict stops being
// Unknown, skipping later, more expensive tiers entirely (§4.2).
//
// textTier is invoked only if Tiers A and B leave the root Unknown; it is
// responsible for resolving every still-Unknown HEADER/HEADER_ADDRESS/
// TEXT/BODY/SENT* leaf (header.go, body.go) and returning any error raised
// while doing so (unknown charset, bad search key, I/O failure).
func Evaluate(tree *Tree, leaves Results, rec *Record, acc PerMailAccessor, textTier func(*Tree, Results, *Record, PerMailAccessor) error) (Tri, error) {
	leaves.Reset()

	evalTierA(tree, rec, leaves)
	if v := Eval(tree.Root, leaves); v != Unknown {
		return v, nil
	}

	evalTierB(tree, rec, acc, leaves)
	if v := Eval(tree.Root, leaves); v != Unknown {
		return v, nil
	}

	if textTier != nil {
		if err := textTier(tree, leaves, rec, acc); err != nil {
			return Unknown, err
		}
	}
	return Eval(tree.Root, leaves), nil
}

// evalTierA resolves every leaf decidable purely from the index record:
// ALL, FLAG, KEYWORD, SEQSET. Grounded on search_index_arg /
// search_arg_match_index.
func evalTierA(tree *Tree, rec *Record, leaves Results) {
	for _, n := range tree.Leaves() {
		switch n.Kind {
		case KindAll:
			leaves[n.LeafID] = True
		case KindFlag:
			leaves[n.LeafID] = triFromBool(rec.Flags&n.Flag != 0)
		case KindKeyword:
			// Keyword bits are CustomFlagBase-relative; callers resolve the
			// name to a bit before building the tree (session.go), so a
			// leaf reaching here with a non-empty Keyword but no Flag set
			// is one the registry never assigned — treat as no match
			// rather than erroring, matching search_keyword's historical
			// "always absent" stub (§9 SUPPLEMENTED FEATURES).
			if n.Flag != 0 {
				leaves[n.LeafID] = triFromBool(rec.Flags&n.Flag != 0)
			} else {
				leaves[n.LeafID] = False
			}
		case KindSeqSet:
			leaves[n.LeafID] = triFromBool(seqSetContains(n.SeqSet, rec.Seq))
		}
	}
}

// evalTierB resolves every leaf decidable from cached per-message metadata:
// BEFORE/ON/SINCE (received date), SENTBEFORE/SENTON/SENTSINCE (cached sent
// date, when available), SMALLER/LARGER (size). Leaves left Unknown here
// (an uncached sent date) fall through to Tier C. Grounded on
// search_cached_arg / search_arg_match_cached.
func evalTierB(tree *Tree, rec *Record, acc PerMailAccessor, leaves Results) {
	if acc == nil {
		return
	}
	for _, n := range tree.Leaves() {
		if leaves[n.LeafID] != Unknown {
			continue
		}
		switch n.Kind {
		case KindBefore, KindOn, KindSince:
			t, ok := acc.ReceivedDate()
			if !ok {
				continue
			}
			leaves[n.LeafID] = triFromBool(compareDayUTC(t.Unix(), 0, n.Time, n.Kind))
		case KindSentBefore, KindSentOn, KindSentSince:
			t, tz, ok := acc.SentDate()
			if !ok {
				continue // defer to Tier C
			}
			leaves[n.LeafID] = triFromBool(compareDayUTC(t.Unix(), tz, n.Time, n.Kind))
		case KindSmaller:
			sz, ok := acc.Size()
			if !ok {
				continue
			}
			leaves[n.LeafID] = triFromBool(sz < n.Size)
		case KindLarger:
			sz, ok := acc.Size()
			if !ok {
				continue
			}
			leaves[n.LeafID] = triFromBool(sz > n.Size)
		}
	}
}

func triFromBool(b bool) Tri {
	if b {
		return True
	}
	return False
}

func seqSetContains(ranges []SeqRange, seq uint32) bool {
	for _, r := range ranges {
		if r.Contains(seq) {
			return true
		}
	}
	return false
}

// compareDayUTC compares two instants at day granularity after folding a
// timezone offset (minutes, east positive) into the first instant, mirroring
// search_sent's `date += timezone_offset * 60` UTC normalization. criterion
// is assumed already day-truncated UTC.
func compareDayUTC(unixSec int64, tzOffsetMinutes int, criterionUnix int64, kind Kind) bool {
	adjusted := time.Unix(unixSec+int64(tzOffsetMinutes)*60, 0).UTC()
	day := time.Date(adjusted.Year(), adjusted.Month(), adjusted.Day(), 0, 0, 0, 0, time.UTC).Unix()
	criterionDay := time.Unix(criterionUnix, 0).UTC()
	cday := time.Date(criterionDay.Year(), criterionDay.Month(), criterionDay.Day(), 0, 0, 0, 0, time.UTC).Unix()

	switch kind {
	case KindBefore, KindSentBefore:
		return day < cday
	case KindOn, KindSentOn:
		return day == cday
	case KindSince, KindSentSince:
		return day >= cday
	default:
		return false
	}
}
