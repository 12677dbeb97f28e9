package search

import (
	"testing"

	"kestrel/internal/chess"
	"kestrel/internal/nn"
)

func buildPrefetchTree(t *testing.T) (*Tree, NodeRef, NodeRef, NodeRef) {
	t.Helper()
	tree := newTestTree(t, 64)
	root := tree.Get(tree.Root())
	root.N = 1

	posA, err := chess.ParseFEN("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	posB, err := chess.ParseFEN("rnbqkbnr/pppppppp/8/8/8/4P3/PPPP1PPP/RNBQKBNR b KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	aRef, a, _ := tree.Alloc()
	*a = Node{Parent: tree.Root(), Child: NilRef, Position: posA, P: 0.8, Sibling: NilRef}
	bRef, b, _ := tree.Alloc()
	*b = Node{Parent: tree.Root(), Child: NilRef, Position: posB, P: 0.2, Sibling: NilRef}
	a.Sibling = bRef
	root.Child = aRef
	return tree, tree.Root(), aRef, bRef
}

func TestPrefetchSpendsBudgetOnTopScoringChildFirst(t *testing.T) {
	tree, root, aRef, _ := buildPrefetchTree(t)
	cache := nn.NewShardedCache(1024)
	batch := NewBatchBuilder(tree, cache, &fakeEvaluator{})
	pf := &Prefetcher{Cpuct: 1.7}

	spent := pf.Prefetch(tree, batch, root, 1)
	if spent != 1 {
		t.Fatalf("Prefetch spent = %d, want 1", spent)
	}
	if _, ok := batch.Result(aRef); ok {
		t.Fatalf("Result should not resolve before ComputeBlocking")
	}
	if batch.Size() != 1 {
		t.Fatalf("Size() = %d, want 1: only the higher-prior child should have been visited", batch.Size())
	}
}

func TestPrefetchVisitsBothChildrenWhenBudgetAllows(t *testing.T) {
	tree, root, aRef, bRef := buildPrefetchTree(t)
	cache := nn.NewShardedCache(1024)
	batch := NewBatchBuilder(tree, cache, &fakeEvaluator{})
	pf := &Prefetcher{Cpuct: 1.7}

	spent := pf.Prefetch(tree, batch, root, 2)
	if spent != 2 {
		t.Fatalf("Prefetch spent = %d, want 2", spent)
	}
	if batch.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", batch.Size())
	}
	aFP := tree.Get(aRef).Position.Hash
	bFP := tree.Get(bRef).Position.Hash
	if aFP == bFP {
		t.Fatalf("test setup error: A and B must have distinct fingerprints")
	}
}

func TestPrefetchZeroBudgetIsNoop(t *testing.T) {
	tree, root, _, _ := buildPrefetchTree(t)
	cache := nn.NewShardedCache(1024)
	batch := NewBatchBuilder(tree, cache, &fakeEvaluator{})
	pf := &Prefetcher{Cpuct: 1.7}

	spent := pf.Prefetch(tree, batch, root, 0)
	if spent != 0 {
		t.Fatalf("Prefetch spent = %d, want 0", spent)
	}
	if batch.Size() != 0 {
		t.Fatalf("Size() = %d, want 0", batch.Size())
	}
}

func TestPrefetchAggressiveCachingStopsOnHit(t *testing.T) {
	tree := newTestTree(t, 64)
	root := tree.Get(tree.Root())
	root.N = 1
	leafRef, leaf, _ := tree.Alloc()
	*leaf = Node{Parent: tree.Root(), Child: NilRef, Position: chess.NewInitialPosition(), P: 1.0, Sibling: NilRef}
	root.Child = leafRef

	cache := nn.NewShardedCache(1024)
	fp := leaf.Position.Hash
	cache.Put(fp, nn.Result{Q: 0.3})

	batch := NewBatchBuilder(tree, cache, &fakeEvaluator{})
	pf := &Prefetcher{Cpuct: 1.7, AggressiveCaching: true}

	spent := pf.Prefetch(tree, batch, tree.Root(), 5)
	if spent != 0 {
		t.Fatalf("Prefetch spent = %d, want 0: a cache hit under AggressiveCaching must not consume budget", spent)
	}
}
