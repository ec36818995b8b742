package search

import "testing"

// fakeEmptyHeaderSource yields no fields at all: an end-of-headers marker on
// the very first call, modeling a message with no Date: header (or no
// headers at all).
type fakeEmptyHeaderSource struct{}

func (fakeEmptyHeaderSource) Next(useFullValue bool) (HeaderField, error) {
	return HeaderField{EOH: true}, nil
}

func TestEvaluateHeaders_SentBeforeWithoutDateHeader(t *testing.T) {
	// §8: "SENT* without Date header: eval(NOT SENTBEFORE d) == true,
	// eval(SENTBEFORE d) == false." FromIMAPCriteria encodes NOT as a
	// negated KindSub wrapping a non-negated SENT* leaf (session.go), so
	// the wrapper shape below is what a real NOT SENTBEFORE tree looks
	// like.
	notTree := BuildTree(&Arg{Kind: KindSub, Negated: true, Children: []*Arg{
		{Kind: KindSentBefore, Time: 0},
	}})
	notLeaves := NewResults(notTree.LeafCount)
	if err := EvaluateHeaders(notTree, notLeaves, fakeEmptyHeaderSource{}, nil, nil, nil, "us-ascii", map[int]SubstringMatcher{}); err != nil {
		t.Fatalf("EvaluateHeaders: %v", err)
	}
	if v := Eval(notTree.Root, notLeaves); v != True {
		t.Fatalf("NOT SENTBEFORE with no Date header = %v, want True", v)
	}

	plainTree := BuildTree(&Arg{Kind: KindSentBefore, Time: 0})
	plainLeaves := NewResults(plainTree.LeafCount)
	if err := EvaluateHeaders(plainTree, plainLeaves, fakeEmptyHeaderSource{}, nil, nil, nil, "us-ascii", map[int]SubstringMatcher{}); err != nil {
		t.Fatalf("EvaluateHeaders: %v", err)
	}
	if v := Eval(plainTree.Root, plainLeaves); v != False {
		t.Fatalf("SENTBEFORE with no Date header = %v, want False", v)
	}
}

func TestEvaluateHeaders_NegatedHeaderLeafWithNoMatchingField(t *testing.T) {
	// A leaf-negated HEADER node (rather than a negated wrapping SUB) must
	// resolve the same way: no field ever seen means the raw leaf result
	// is False, and Eval's single negation flips it to True.
	tree := BuildTree(&Arg{Kind: KindHeader, Negated: true, HeaderName: "X-Foo", Needle: "bar"})
	leaves := NewResults(tree.LeafCount)
	if err := EvaluateHeaders(tree, leaves, fakeEmptyHeaderSource{}, nil, nil, nil, "us-ascii", map[int]SubstringMatcher{}); err != nil {
		t.Fatalf("EvaluateHeaders: %v", err)
	}
	if v := Eval(tree.Root, leaves); v != True {
		t.Fatalf("NOT HEADER X-Foo with no such header = %v, want True", v)
	}
}
