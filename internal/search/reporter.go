package search

import (
	"math"
	"time"

	"kestrel/internal/chess"
	"kestrel/internal/nn"
)

// Reporter formats and emits progress and final-result callbacks, per
// spec.md §4.6 step 7 and §6's InfoSink/BestMoveSink contracts.
type Reporter struct {
	infoSink     InfoSink
	bestMoveSink BestMoveSink
}

// EmitInfo assembles one Info snapshot from tree's current state and
// forwards it to infoSink, if any is wired.
func (r *Reporter) EmitInfo(tree *Tree, cache nn.EvalCache, start time.Time) {
	if r.infoSink == nil {
		return
	}
	tree.RLock()
	defer tree.RUnlock()

	root := tree.Get(tree.Root())
	elapsed := time.Since(start)
	elapsedMs := elapsed.Milliseconds()
	if elapsedMs == 0 {
		elapsedMs = 1
	}

	var nps int64
	if elapsed > 0 {
		nps = int64(float64(root.N) * float64(time.Second) / float64(elapsed))
	}

	hashfull := 0
	if cache != nil && cache.Capacity() > 0 {
		hashfull = cache.Size() * 1000 / cache.Capacity()
	}

	scoreCP := 0
	if tree.BestChild != NilRef {
		bestQ := tree.Get(tree.BestChild).Q
		scoreCP = int(scoreCentipawns(bestQ))
	}

	r.infoSink(Info{
		Depth:            int(root.FullDepth),
		SelDepth:         int(root.MaxDepth),
		TimeMs:           elapsedMs,
		Nodes:            root.N,
		HashfullPerMille: hashfull,
		NPS:              nps,
		ScoreCP:          scoreCP,
		PV:               principalVariation(tree),
	})
}

// EmitBestMove forwards the final result, if a sink is wired.
func (r *Reporter) EmitBestMove(bm BestMove) {
	if r.bestMoveSink != nil {
		r.bestMoveSink(bm)
	}
}

// scoreCentipawns implements spec.md §6's score_cp formula, converting
// a [-1,1] win-probability-flavored Q into a centipawn-scaled score.
func scoreCentipawns(q float64) float64 {
	denom := 2/(q*0.99+1) - 1
	if denom <= 0 {
		// Only reachable for q above about 1.0101 (the 0.99 factor keeps
		// denom >= 0.005 for q in [-1,1]); report the engine's effective
		// ceiling rather than NaN/Inf.
		return 3000
	}
	return -191 * math.Log(denom)
}

// principalVariation walks the most-visited child at each step from
// root, generalizing a single-move PV into the full line rather than
// just the immediate best move.
func principalVariation(tree *Tree) []chess.Move {
	var pv []chess.Move
	ref := tree.Root()
	for {
		n := tree.Get(ref)
		var best NodeRef = NilRef
		for c := n.Child; c != NilRef; {
			cn := tree.Get(c)
			if best == NilRef || cn.N > tree.Get(best).N {
				best = c
			}
			c = cn.Sibling
		}
		if best == NilRef {
			break
		}
		bn := tree.Get(best)
		pv = append(pv, bn.Move)
		ref = best
		if len(pv) >= 64 {
			break
		}
	}
	return pv
}
