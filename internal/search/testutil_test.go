package search

import (
	"testing"

	"kestrel/internal/chess"
	"kestrel/internal/nn"
)

// fakeEvaluator is a deterministic stand-in for a real ONNX session:
// every leaf gets the same fixed Q and a uniform policy, and it counts
// how many times EvaluateBatch actually ran (used to assert cache-hit
// paths never touch the network).
type fakeEvaluator struct {
	q     float32
	calls int
}

func (f *fakeEvaluator) EvaluateBatch(inputs []nn.Input) ([]nn.Result, error) {
	f.calls++
	results := make([]nn.Result, len(inputs))
	for i := range results {
		results[i].Q = f.q
		for j := range results[i].P {
			results[i].P[j] = 1.0 / float32(chess.PolicySize)
		}
	}
	return results, nil
}

func newTestTree(t *testing.T, maxNodes int) *Tree {
	t.Helper()
	tree, err := NewTree(maxNodes, chess.NewInitialPosition())
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	return tree
}

func newTestTreeAt(t *testing.T, maxNodes int, fen string) *Tree {
	t.Helper()
	pos, err := chess.ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	tree, err := NewTree(maxNodes, pos)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	return tree
}

// countChildren walks n's sibling list.
func countChildren(tree *Tree, n *Node) int {
	c := n.Child
	count := 0
	for c != NilRef {
		count++
		c = tree.Get(c).Sibling
	}
	return count
}
