package search

import "io"

// EvaluateBody drives Tier C's body pass: BODY leaves, and any TEXT leaves
// the header pass left Unknown, are matched against the message body.
// Grounded on search_body / search_arg_match_text, which seeks the stream
// past the header boundary once and runs every body/text leaf over the
// same read.
func EvaluateBody(tree *Tree, leaves Results, body io.Reader, mf MatcherFactory, cache map[int]SubstringMatcher, defaultCharset string) error {
	var bodyLeaves []*Arg
	for _, n := range tree.Leaves() {
		if leaves[n.LeafID] != Unknown {
			continue
		}
		if n.Kind == KindBody || n.Kind == KindText {
			bodyLeaves = append(bodyLeaves, n)
		}
	}
	if len(bodyLeaves) == 0 {
		return nil
	}

	content, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	value := string(content)

	for _, n := range bodyLeaves {
		matched, err := matchHeaderValue(n, value, mf, cache, defaultCharset)
		if err != nil {
			return err
		}
		leaves[n.LeafID] = triFromBool(matched)
	}
	return nil
}
