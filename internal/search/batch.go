package search

import (
	"fmt"

	"kestrel/internal/chess"
	"kestrel/internal/nn"
)

// BatchBuilder implements spec.md §4.3: it accumulates leaf encodings
// into one NN call, deduplicating by position fingerprint and serving
// hits from the shared EvalCache. One BatchBuilder is created fresh
// per SearchDriver iteration (spec.md §4.6 step 2).
type BatchBuilder struct {
	tree      *Tree
	cache     nn.EvalCache
	evaluator nn.Evaluator

	// nodeFingerprint records every node ever passed to Add, so
	// Result can look results up by node after ComputeBlocking runs
	// regardless of whether that node's own Add call was a hit, a
	// dedup, or the miss that actually got sent to the network.
	nodeFingerprint map[NodeRef]uint64

	// resolved holds the (q,p) pair for every fingerprint this batch
	// has touched, populated eagerly on a cache hit and in bulk by
	// ComputeBlocking for misses.
	resolved map[uint64]nn.Result

	pendingFingerprints []uint64
	pendingInputs       []nn.Input

	size        int
	cacheMisses int
}

// NewBatchBuilder starts an empty batch linked to cache and evaluator.
func NewBatchBuilder(tree *Tree, cache nn.EvalCache, evaluator nn.Evaluator) *BatchBuilder {
	return &BatchBuilder{
		tree:            tree,
		cache:           cache,
		evaluator:       evaluator,
		nodeFingerprint: make(map[NodeRef]uint64),
		resolved:        make(map[uint64]nn.Result),
	}
}

// Size is the number of leaves added to this batch, hit or miss.
func (b *BatchBuilder) Size() int { return b.size }

// CacheMisses is spec.md §4.3's cache_misses: the number of slots that
// required real NN work.
func (b *BatchBuilder) CacheMisses() int { return b.cacheMisses }

// Add implements add_input(node, allow_cache_hit_dedup). It reads
// node's own fields without a lock — safe because Position and the
// terminal/repetition fields are fixed at node-creation time and never
// mutated afterward (the same invariant Expander relies on).
func (b *BatchBuilder) Add(ref NodeRef, allowCacheHitDedup bool) (hit bool) {
	n := b.tree.Get(ref)
	fp := n.Position.Hash
	b.nodeFingerprint[ref] = fp
	b.size++

	if allowCacheHitDedup {
		if _, already := b.resolved[fp]; already {
			return true
		}
		if _, pending := indexOf(b.pendingFingerprints, fp); pending {
			return true
		}
	}
	if r, ok := b.cache.Get(fp); ok {
		b.resolved[fp] = r
		return true
	}

	input := b.encode(ref, n)
	b.pendingFingerprints = append(b.pendingFingerprints, fp)
	b.pendingInputs = append(b.pendingInputs, input)
	b.cacheMisses++
	return false
}

func indexOf(s []uint64, v uint64) (int, bool) {
	for i, x := range s {
		if x == v {
			return i, true
		}
	}
	return -1, false
}

// encode builds the InputPlanes for ref by walking its ancestor chain
// up to 8 plies, per spec.md §6.
func (b *BatchBuilder) encode(ref NodeRef, n *Node) nn.Input {
	history := make([]chess.HistoryEntry, 0, 8)
	cur := ref
	for i := 0; i < 8 && cur != NilRef; i++ {
		cn := b.tree.Get(cur)
		history = append(history, chess.HistoryEntry{
			Position:     cn.Position,
			Repetitions:  cn.Repetitions,
			NoCapturePly: cn.NoCapturePly,
		})
		cur = cn.Parent
	}
	planes := chess.EncodeWithRepetition(history)
	legal := n.Position.GenerateLegalMoves()
	return nn.Input{
		Planes:      planes,
		LegalMoves:  legal,
		SideToMove:  n.Position.SideToMove,
		Fingerprint: n.Position.Hash,
	}
}

// ComputeBlocking dispatches every pending (uncached) leaf as a single
// NN call and populates both the batch's own results and the shared
// EvalCache for every fingerprint touched.
func (b *BatchBuilder) ComputeBlocking() error {
	if len(b.pendingInputs) == 0 {
		return nil
	}
	results, err := b.evaluator.EvaluateBatch(b.pendingInputs)
	if err != nil {
		return fmt.Errorf("search: batch evaluation failed: %w", err)
	}
	if len(results) != len(b.pendingInputs) {
		return fmt.Errorf("search: evaluator returned %d results for %d inputs", len(results), len(b.pendingInputs))
	}
	for i, fp := range b.pendingFingerprints {
		b.resolved[fp] = results[i]
		b.cache.Put(fp, results[i])
	}
	b.pendingFingerprints = nil
	b.pendingInputs = nil
	return nil
}

// Result returns the resolved (q,p) pair for a node previously passed
// to Add. It is only valid after ComputeBlocking (for a miss) or
// immediately (for a hit).
func (b *BatchBuilder) Result(ref NodeRef) (nn.Result, bool) {
	fp, ok := b.nodeFingerprint[ref]
	if !ok {
		return nn.Result{}, false
	}
	r, ok := b.resolved[fp]
	return r, ok
}
