package search

import (
	"testing"

	"kestrel/internal/nn"
)

func TestBatchBuilderMissGoesThroughEvaluator(t *testing.T) {
	tree := newTestTree(t, 64)
	e := &Expander{}
	if err := e.Expand(tree, tree.Root()); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	root := tree.Get(tree.Root())

	cache := nn.NewShardedCache(1024)
	eval := &fakeEvaluator{q: 0.5}
	batch := NewBatchBuilder(tree, cache, eval)

	hit := batch.Add(root.Child, true)
	if hit {
		t.Fatalf("first Add on an unseen position must miss")
	}
	if batch.CacheMisses() != 1 {
		t.Fatalf("CacheMisses() = %d, want 1", batch.CacheMisses())
	}
	if batch.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", batch.Size())
	}

	if err := batch.ComputeBlocking(); err != nil {
		t.Fatalf("ComputeBlocking: %v", err)
	}
	if eval.calls != 1 {
		t.Fatalf("evaluator.calls = %d, want 1", eval.calls)
	}
	res, ok := batch.Result(root.Child)
	if !ok {
		t.Fatalf("Result: expected a resolved value after ComputeBlocking")
	}
	if res.Q != 0.5 {
		t.Fatalf("Result.Q = %v, want 0.5", res.Q)
	}

	fp := tree.Get(root.Child).Position.Hash
	if !cache.Contains(fp) {
		t.Fatalf("ComputeBlocking must populate the shared cache")
	}
}

func TestBatchBuilderDedupesRepeatedAdd(t *testing.T) {
	tree := newTestTree(t, 64)
	e := &Expander{}
	if err := e.Expand(tree, tree.Root()); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	root := tree.Get(tree.Root())

	cache := nn.NewShardedCache(1024)
	eval := &fakeEvaluator{q: 0.5}
	batch := NewBatchBuilder(tree, cache, eval)

	batch.Add(root.Child, true)
	hit := batch.Add(root.Child, true)
	if !hit {
		t.Fatalf("a second Add of the same node with dedup enabled must report a hit")
	}
	if batch.CacheMisses() != 1 {
		t.Fatalf("CacheMisses() = %d, want 1 (only one distinct position queued)", batch.CacheMisses())
	}
	if batch.Size() != 2 {
		t.Fatalf("Size() = %d, want 2 (both Add calls counted)", batch.Size())
	}
}

func TestBatchBuilderServesCacheHitWithoutEvaluatorCall(t *testing.T) {
	tree := newTestTree(t, 64)
	e := &Expander{}
	if err := e.Expand(tree, tree.Root()); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	root := tree.Get(tree.Root())

	cache := nn.NewShardedCache(1024)
	fp := tree.Get(root.Child).Position.Hash
	cache.Put(fp, nn.Result{Q: 0.75})

	eval := &fakeEvaluator{q: 0.5}
	batch := NewBatchBuilder(tree, cache, eval)

	hit := batch.Add(root.Child, true)
	if !hit {
		t.Fatalf("a fingerprint already in the shared cache must report a hit")
	}
	if batch.CacheMisses() != 0 {
		t.Fatalf("CacheMisses() = %d, want 0", batch.CacheMisses())
	}

	if err := batch.ComputeBlocking(); err != nil {
		t.Fatalf("ComputeBlocking: %v", err)
	}
	if eval.calls != 0 {
		t.Fatalf("evaluator.calls = %d, want 0: a fully-hit batch must never touch the network", eval.calls)
	}

	res, ok := batch.Result(root.Child)
	if !ok || res.Q != 0.75 {
		t.Fatalf("Result = (%v, %v), want (Q=0.75, true) from the cache", res, ok)
	}
}

func TestBatchBuilderDedupDisabledStillMissesTwice(t *testing.T) {
	tree := newTestTree(t, 64)
	e := &Expander{}
	if err := e.Expand(tree, tree.Root()); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	root := tree.Get(tree.Root())

	cache := nn.NewShardedCache(1024)
	eval := &fakeEvaluator{q: 0.5}
	batch := NewBatchBuilder(tree, cache, eval)

	batch.Add(root.Child, false)
	batch.Add(root.Child, false)
	if batch.CacheMisses() != 2 {
		t.Fatalf("CacheMisses() = %d, want 2: with dedup disabled the same position is queued twice", batch.CacheMisses())
	}
}
