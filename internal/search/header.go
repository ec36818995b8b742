package search

import (
	"io"
	"strings"
)

// EvaluateHeaders drives Tier C's header pass: it pulls fields one at a
// time from hs, dispatching each to every still-Unknown HEADER,
// HEADER_ADDRESS, TEXT, and SENT* leaf, then applies the end-of-headers
// fallback for the leaves no field ever matched. Grounded on
// search_header / search_header_arg / search_header_unmatch / search_sent.
//
// cache holds one lazily-constructed SubstringMatcher per leaf id, reused
// (via Reset) across messages within a session rather than rebuilt per
// message — the "header-search-context caching" §4.2 calls for.
func EvaluateHeaders(tree *Tree, leaves Results, hs HeaderSource, mf MatcherFactory, ap AddressParser, dp DateParser, defaultCharset string, cache map[int]SubstringMatcher) error {
	textLeaves, headerLeaves, sentLeaves := classifyHeaderLeaves(tree, leaves)
	if len(textLeaves) == 0 && len(headerLeaves) == 0 && len(sentLeaves) == 0 {
		return nil
	}

	for {
		field, err := hs.Next(true)
		if err == io.EOF || field.EOH {
			break
		}
		if err != nil {
			return err
		}

		for _, n := range headerLeaves {
			if leaves[n.LeafID] != Unknown {
				continue
			}
			if !strings.EqualFold(n.HeaderName, field.Name) {
				continue
			}
			matched, err := matchHeaderField(n, field, ap, mf, cache, defaultCharset)
			if err != nil {
				return err
			}
			if matched {
				leaves[n.LeafID] = True
			}
		}

		for _, n := range textLeaves {
			if leaves[n.LeafID] != Unknown {
				continue
			}
			matched, err := matchHeaderValue(n, field.FullValue, mf, cache, defaultCharset)
			if err != nil {
				return err
			}
			if matched {
				leaves[n.LeafID] = True
			}
		}

		for _, n := range sentLeaves {
			if leaves[n.LeafID] != Unknown {
				continue
			}
			if !strings.EqualFold(field.Name, "Date") {
				continue
			}
			t, tz, ok := dp.Parse(field.FullValue)
			if !ok {
				continue
			}
			leaves[n.LeafID] = triFromBool(compareDayUTC(t.Unix(), tz, n.Time, n.Kind))
		}
	}

	headerUnmatch(headerLeaves, sentLeaves, leaves)
	return nil
}

func classifyHeaderLeaves(tree *Tree, leaves Results) (text, header, sent []*Arg) {
	for _, n := range tree.Leaves() {
		if leaves[n.LeafID] != Unknown {
			continue
		}
		switch n.Kind {
		case KindText:
			text = append(text, n)
		case KindHeader, KindHeaderAddress:
			header = append(header, n)
		case KindSentBefore, KindSentOn, KindSentSince:
			sent = append(sent, n)
		}
	}
	return text, header, sent
}

// headerUnmatch applies the fallback verdict for leaves no header field
// ever satisfied: HEADER/HEADER_ADDRESS and SENT* all resolve to a final
// FALSE unconditionally. Negation is applied by the enclosing combinator
// (Eval), never here, so a leaf's own Negated flag plays no part in this
// verdict. A NOT-wrapped SENT* leaf (built as a negated KindSub around a
// non-negated SENT* leaf, per FromIMAPCriteria) needs its inner leaf to
// settle on FALSE so the wrapping negation yields the "no Date header
// means NOT SENTBEFORE matches" result §8 requires; a directly
// leaf-negated HEADER/SENT* node gets the same unconditional FALSE here
// and has its sign flipped by Eval exactly once.
func headerUnmatch(headerLeaves, sentLeaves []*Arg, leaves Results) {
	for _, n := range headerLeaves {
		if leaves[n.LeafID] != Unknown {
			continue
		}
		leaves[n.LeafID] = False
	}
	for _, n := range sentLeaves {
		if leaves[n.LeafID] != Unknown {
			continue
		}
		leaves[n.LeafID] = False
	}
}

func matchHeaderField(n *Arg, field HeaderField, ap AddressParser, mf MatcherFactory, cache map[int]SubstringMatcher, defaultCharset string) (bool, error) {
	if n.Kind == KindHeaderAddress {
		addrs, err := ap.Parse(field.FullValue)
		if err != nil {
			return false, nil // unparsable address list: no match, not an error
		}
		if n.Needle == "" {
			return len(addrs) > 0, nil
		}
		canon := ap.Canonicalize(addrs)
		return matchHeaderValue(n, canon, mf, cache, defaultCharset)
	}
	if n.Needle == "" {
		return true, nil // HEADER <name> with no value: existence only
	}
	return matchHeaderValue(n, field.FullValue, mf, cache, defaultCharset)
}

func matchHeaderValue(n *Arg, value string, mf MatcherFactory, cache map[int]SubstringMatcher, defaultCharset string) (bool, error) {
	if n.Needle == "" {
		return true, nil
	}
	m, ok := cache[n.LeafID]
	if !ok {
		charset := n.Charset
		if charset == "" {
			charset = defaultCharset
		}
		var err error
		m, err = mf.Init(n.Needle, charset)
		if err != nil {
			return false, err
		}
		cache[n.LeafID] = m
	}
	return m.Match([]byte(value)), nil
}
