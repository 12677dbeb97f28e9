package search

import (
	"math"
	"sort"
)

// Prefetcher implements spec.md §4.4: when the main batch is
// under-full, speculatively descend likely-useful subtrees to fill
// idle NN-call slots. It runs entirely under a shared tree lock
// already held by the caller (SearchDriver) — every method here
// assumes that lock is held and never acquires it itself, since the
// recursive descent must see a single consistent snapshot of counts.
type Prefetcher struct {
	Cpuct             float64
	AggressiveCaching bool
}

// Prefetch descends from node with budget "units" to spend, adding
// leaves to batch as it goes, and returns the number of units spent.
// The traversal order (descending PUCT score) is the only contractual
// part of spec.md §4.4's child ordering; per DESIGN.md's Open Question
// decision, this uses a full sort.Slice rather than an incremental
// partial sort, since fanout here is bounded by legal chess moves
// (≤ ~40) and a full sort has no measurable cost.
func (p *Prefetcher) Prefetch(tree *Tree, batch *BatchBuilder, ref NodeRef, budget int) int {
	if budget <= 0 {
		return 0
	}
	n := tree.Get(ref)

	if n.N+n.NInFlight == 0 {
		hit := batch.Add(ref, false)
		if hit && p.AggressiveCaching {
			return 0
		}
		return 1
	}

	if n.Child == NilRef {
		return 0
	}

	type scored struct {
		ref   NodeRef
		score float64
		q     float64
		p     float64
		n     int64
		nif   int64
	}
	var children []scored
	factor := p.Cpuct * math.Sqrt(float64(n.N)+1)
	for c := n.Child; c != NilRef; {
		cn := tree.Get(c)
		u := cn.P / (1 + float64(cn.N) + float64(cn.NInFlight))
		q := 0.0
		if cn.N > 0 {
			q = cn.Q
		}
		children = append(children, scored{c, factor*u + q, q, cn.P, cn.N, cn.NInFlight})
		c = cn.Sibling
	}
	sort.Slice(children, func(i, j int) bool { return children[i].score > children[j].score })

	total := 0
	prevSpend := budget
	for i, ch := range children {
		if budget <= 0 {
			break
		}
		var spend int
		if i == len(children)-1 {
			spend = prevSpend
		} else {
			next := children[i+1]
			if next.score > ch.q {
				raw := ch.p*factor/(next.score-ch.q) - float64(ch.n) - float64(ch.nif)
				spend = min(budget, int(math.Floor(raw))+1)
			} else {
				spend = budget
			}
		}

		used := p.Prefetch(tree, batch, ch.ref, spend)
		budget -= used
		total += used
		prevSpend = spend
	}
	return total
}
