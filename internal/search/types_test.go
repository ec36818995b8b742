package search

import "testing"

func leaf(kind Kind) *Arg { return &Arg{Kind: kind} }

func TestEvalSubIsKleeneAnd(t *testing.T) {
	tree := BuildTree(&Arg{Kind: KindSub, Children: []*Arg{leaf(KindAll), leaf(KindAll)}})
	leaves := NewResults(tree.LeafCount)

	leaves[0], leaves[1] = True, True
	if Eval(tree.Root, leaves) != True {
		t.Fatal("all true children should be true")
	}

	leaves[0], leaves[1] = True, False
	if Eval(tree.Root, leaves) != False {
		t.Fatal("any false child should be false")
	}

	leaves[0], leaves[1] = True, Unknown
	if Eval(tree.Root, leaves) != Unknown {
		t.Fatal("unknown child with no false should be unknown")
	}
}

func TestEvalOrIsKleeneOr(t *testing.T) {
	tree := BuildTree(&Arg{Kind: KindOr, Children: []*Arg{leaf(KindAll), leaf(KindAll)}})
	leaves := NewResults(tree.LeafCount)

	leaves[0], leaves[1] = False, False
	if Eval(tree.Root, leaves) != False {
		t.Fatal("all false children should be false")
	}

	leaves[0], leaves[1] = False, True
	if Eval(tree.Root, leaves) != True {
		t.Fatal("any true child should be true")
	}

	leaves[0], leaves[1] = False, Unknown
	if Eval(tree.Root, leaves) != Unknown {
		t.Fatal("unknown child with no true should be unknown")
	}
}

func TestEvalNegationFlipsDefiniteLeavesUnknownAlone(t *testing.T) {
	n := &Arg{Kind: KindAll, Negated: true}
	tree := BuildTree(n)
	leaves := NewResults(tree.LeafCount)

	leaves[0] = True
	if Eval(n, leaves) != False {
		t.Fatal("NOT true should be false")
	}
	leaves[0] = False
	if Eval(n, leaves) != True {
		t.Fatal("NOT false should be true")
	}
	leaves[0] = Unknown
	if Eval(n, leaves) != Unknown {
		t.Fatal("NOT unknown should stay unknown")
	}
}

func TestBuildTreeAssignsLeafIDsDepthFirst(t *testing.T) {
	a, b, c := leaf(KindAll), leaf(KindAll), leaf(KindAll)
	root := &Arg{Kind: KindSub, Children: []*Arg{a, &Arg{Kind: KindOr, Children: []*Arg{b, c}}}}
	tree := BuildTree(root)

	if tree.LeafCount != 3 {
		t.Fatalf("LeafCount = %d, want 3", tree.LeafCount)
	}
	if a.LeafID != 0 || b.LeafID != 1 || c.LeafID != 2 {
		t.Fatalf("leaf ids = %d,%d,%d, want 0,1,2", a.LeafID, b.LeafID, c.LeafID)
	}
	leaves := tree.Leaves()
	if leaves[0] != a || leaves[1] != b || leaves[2] != c {
		t.Fatal("Leaves() order does not match assigned LeafIDs")
	}
}

func TestSeqRangeContainsInclusive(t *testing.T) {
	r := SeqRange{Lo: 2, Hi: 4}
	for _, seq := range []uint32{2, 3, 4} {
		if !r.Contains(seq) {
			t.Errorf("expected %d to be contained in %v", seq, r)
		}
	}
	for _, seq := range []uint32{1, 5} {
		if r.Contains(seq) {
			t.Errorf("expected %d to not be contained in %v", seq, r)
		}
	}
}
