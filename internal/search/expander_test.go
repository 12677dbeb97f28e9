package search

import "testing"

func TestExpanderClassifiesCheckmate(t *testing.T) {
	// Fool's mate: 1. f3 e5 2. g4 Qh4#.
	tree := newTestTreeAt(t, 64, "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3")
	e := &Expander{}
	if err := e.Expand(tree, tree.Root()); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	root := tree.Get(tree.Root())
	if !root.IsTerminal {
		t.Fatalf("checkmated root should be terminal")
	}
	if root.V != 1.0 {
		t.Fatalf("root.V = %v, want +1.0 for a mated side", root.V)
	}
	if root.Child != NilRef {
		t.Fatalf("a terminal node must not gain children")
	}
}

func TestExpanderClassifiesStalemate(t *testing.T) {
	tree := newTestTreeAt(t, 64, "8/8/8/8/8/kq6/8/K7 w - - 0 1")
	e := &Expander{}
	if err := e.Expand(tree, tree.Root()); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	root := tree.Get(tree.Root())
	if !root.IsTerminal {
		t.Fatalf("stalemated root should be terminal")
	}
	if root.V != 0.0 {
		t.Fatalf("root.V = %v, want 0.0 for stalemate", root.V)
	}
}

func TestExpanderClassifiesInsufficientMaterial(t *testing.T) {
	tree := newTestTreeAt(t, 64, "8/8/8/8/8/4k3/8/4K3 w - - 0 1")
	e := &Expander{}
	if err := e.Expand(tree, tree.Root()); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	root := tree.Get(tree.Root())
	if !root.IsTerminal {
		t.Fatalf("K vs K should be terminal")
	}
	if root.V != 0.0 {
		t.Fatalf("root.V = %v, want 0.0 for insufficient material", root.V)
	}
}

func TestExpanderClassifiesFiftyMoveRule(t *testing.T) {
	tree := newTestTree(t, 64)
	root := tree.Get(tree.Root())
	root.NoCapturePly = 100

	e := &Expander{}
	if err := e.Expand(tree, tree.Root()); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if !root.IsTerminal {
		t.Fatalf("NoCapturePly>=100 should be terminal")
	}
	if root.V != 0.0 {
		t.Fatalf("root.V = %v, want 0.0 for the fifty-move rule", root.V)
	}
}

func TestExpanderClassifiesRepetition(t *testing.T) {
	tree := newTestTree(t, 64)
	root := tree.Get(tree.Root())
	root.Repetitions = 2

	e := &Expander{}
	if err := e.Expand(tree, tree.Root()); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if !root.IsTerminal {
		t.Fatalf("Repetitions>=2 should be terminal")
	}
	if root.V != 0.0 {
		t.Fatalf("root.V = %v, want 0.0 for threefold repetition", root.V)
	}
}

func TestExpanderMaterializesLegalChildren(t *testing.T) {
	tree := newTestTree(t, 4096)
	e := &Expander{}
	if err := e.Expand(tree, tree.Root()); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	root := tree.Get(tree.Root())
	if root.IsTerminal {
		t.Fatalf("the initial position is not terminal")
	}
	if root.Child == NilRef {
		t.Fatalf("expected children to be linked")
	}
	got := countChildren(tree, root)
	if got != 20 {
		t.Fatalf("initial position has 20 legal moves, got %d children", got)
	}

	c := tree.Get(root.Child)
	if c.Parent != tree.Root() {
		t.Fatalf("child.Parent = %v, want root", c.Parent)
	}
	if c.PlyCount != root.PlyCount+1 {
		t.Fatalf("child.PlyCount = %d, want %d", c.PlyCount, root.PlyCount+1)
	}
}

func TestExpanderNoCapturePlyTracksHalfmoveClock(t *testing.T) {
	tree := newTestTree(t, 4096)
	e := &Expander{}
	if err := e.Expand(tree, tree.Root()); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	root := tree.Get(tree.Root())

	// Every legal move from the initial position is either a pawn push
	// or a knight move, so every child resets its own halfmove clock to
	// its position's fresh HalfmoveClock (0 for a pawn push).
	for c := root.Child; c != NilRef; {
		cn := tree.Get(c)
		if cn.NoCapturePly != cn.Position.HalfmoveClock {
			t.Fatalf("child.NoCapturePly = %d, want %d (its own position's clock)", cn.NoCapturePly, cn.Position.HalfmoveClock)
		}
		c = cn.Sibling
	}
}
