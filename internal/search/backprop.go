package search

import (
	"kestrel/internal/chess"
	"kestrel/internal/nn"
)

// Backpropagator implements spec.md §4.5: under the exclusive tree
// lock, write back per-node statistics for every leaf processed this
// iteration, clear virtual loss, maintain max_depth/full_depth, and
// track the root's best child.
type Backpropagator struct{}

// Commit processes every leaf in refs (spec.md's nodes_to_process),
// pulling non-terminal results out of batch.
func (bp *Backpropagator) Commit(tree *Tree, refs []NodeRef, batch *BatchBuilder) error {
	tree.Lock()
	defer tree.Unlock()

	for _, ref := range refs {
		if err := bp.commitOne(tree, ref, batch); err != nil {
			return err
		}
	}
	return nil
}

func (bp *Backpropagator) commitOne(tree *Tree, ref NodeRef, batch *BatchBuilder) error {
	n := tree.Get(ref)

	var v float64
	if n.IsTerminal {
		// Expander already sets V in the leaf's own perspective (its
		// sign convention documented in expander.go); the backprop walk
		// below applies the usual alternating flip from there, so no
		// extra negation happens on the first step.
		v = n.V
	} else {
		result, ok := batch.Result(ref)
		if !ok {
			return errMissingBatchResult
		}
		v = -float64(result.Q)
		bp.assignPriors(tree, n, result)
	}

	curFullDepth := 0
	if n.IsTerminal {
		curFullDepth = 999
	}
	fullDepthActive := true

	depth := 0
	ancestor := ref
	for ancestor != NilRef {
		depth++
		an := tree.Get(ancestor)
		an.W += v
		an.N++
		an.NInFlight--
		debugAssert(an.NInFlight >= 0, "n_in_flight underflow during backprop")
		an.Q = an.W / float64(an.N)
		v = -v
		if int32(depth) > an.MaxDepth {
			an.MaxDepth = int32(depth)
		}

		if fullDepthActive {
			if an.FullDepth <= int32(curFullDepth) {
				if an.Child != NilRef {
					if m := int(minChildFullDepth(tree, an)); m < curFullDepth {
						curFullDepth = m
					}
				}
				if int32(curFullDepth) >= an.FullDepth {
					an.FullDepth = int32(curFullDepth) + 1
					curFullDepth = int(an.FullDepth)
				} else {
					fullDepthActive = false
				}
			} else {
				fullDepthActive = false
			}
		}

		if an.Parent == tree.root && an.N > 0 {
			if tree.BestChild == NilRef || an.N > tree.Get(tree.BestChild).N {
				tree.BestChild = ancestor
			}
		}

		ancestor = an.Parent
	}

	tree.TotalPlayouts++
	return nil
}

// assignPriors copies the network's policy output onto n's children
// (indexed by n's own side to move, since every child.Move was
// generated from n.Position) and renormalizes so sum(p) == 1, per
// spec.md §4.5.
func (bp *Backpropagator) assignPriors(tree *Tree, n *Node, result nn.Result) {
	sum := 0.0
	for c := n.Child; c != NilRef; {
		cn := tree.Get(c)
		if idx, ok := policyIndexFor(cn.Move, n.Position.SideToMove); ok {
			cn.P = float64(result.P[idx])
		} else {
			cn.P = 0
		}
		sum += cn.P
		c = cn.Sibling
	}
	if sum > 0 {
		for c := n.Child; c != NilRef; {
			cn := tree.Get(c)
			cn.P /= sum
			c = cn.Sibling
		}
	}
}

func minChildFullDepth(tree *Tree, an *Node) int32 {
	min := int32(1<<31 - 1)
	any := false
	for c := an.Child; c != NilRef; {
		cn := tree.Get(c)
		if cn.FullDepth < min {
			min = cn.FullDepth
		}
		any = true
		c = cn.Sibling
	}
	if !any {
		return an.FullDepth
	}
	return min
}

var errMissingBatchResult = missingBatchResultError{}

type missingBatchResultError struct{}

func (missingBatchResultError) Error() string {
	return "search: no batch result for a non-terminal leaf being backpropagated"
}

// policyIndexFor computes the policy-vector slot for a move played
// from a position where side was to move, used by assignPriors.
func policyIndexFor(mv chess.Move, side chess.Side) (int, bool) {
	return chess.PolicyIndex(mv, side)
}
