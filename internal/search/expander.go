package search

import "kestrel/internal/chess"

// Expander implements spec.md §4.2: classify a reserved leaf as
// terminal, or materialize its children from legal moves.
type Expander struct{}

// Expand runs the terminal-classification chain, then — if the
// position is not terminal — computes every child position and links
// them in move-generation order. Per spec.md §4.2 this runs without
// the tree lock for as long as possible: reading ref's own fields is
// safe because they are set once at node creation and never mutated
// again, and the only lock-requiring step is the arena allocation
// itself, held just long enough to reserve and link the new nodes.
func (e *Expander) Expand(tree *Tree, ref NodeRef) error {
	n := tree.Get(ref)
	pos := n.Position
	legal := pos.GenerateLegalMoves()
	inCheck := pos.IsInCheck(pos.SideToMove)

	switch {
	case len(legal) == 0 && inCheck:
		// Checkmate. v is set to +1.0 here; backprop adds it unchanged
		// to this leaf's own W and the alternating flip gives its parent
		// -1.0 — see DESIGN.md's "Checkmate sign" entry.
		n.IsTerminal = true
		n.V = 1.0
		return nil
	case len(legal) == 0:
		n.IsTerminal = true
		n.V = 0.0
		return nil
	case pos.InsufficientMaterial():
		n.IsTerminal = true
		n.V = 0.0
		return nil
	case n.NoCapturePly >= 100:
		n.IsTerminal = true
		n.V = 0.0
		return nil
	case n.Repetitions >= 2:
		n.IsTerminal = true
		n.V = 0.0
		return nil
	}

	type built struct {
		pos *chess.Position
		mv  chess.Move
		rep int
	}
	children := make([]built, 0, len(legal))
	for _, mv := range legal {
		childPos, ok := pos.ApplyMove(mv)
		if !ok {
			continue
		}
		children = append(children, built{
			pos: childPos,
			mv:  mv,
			rep: countRepetitions(tree, ref, childPos),
		})
	}

	tree.Lock()
	var first, prev NodeRef = NilRef, NilRef
	for _, c := range children {
		cref, cn, ok := tree.Alloc()
		if !ok {
			tree.Unlock()
			return errArenaExhausted
		}
		*cn = Node{
			Position:     c.pos,
			Move:         c.mv,
			Parent:       ref,
			Child:        NilRef,
			Sibling:      NilRef,
			NoCapturePly: c.pos.HalfmoveClock,
			PlyCount:     n.PlyCount + 1,
			Repetitions:  c.rep,
		}
		if prev == NilRef {
			first = cref
		} else {
			tree.Get(prev).Sibling = cref
		}
		prev = cref
	}
	n.Child = first
	tree.Unlock()
	return nil
}

// countRepetitions counts how many ancestors, within childPos's own
// halfmove clock (the span since the last irreversible move), share
// childPos's Zobrist fingerprint. Because the hash mixes in
// side-to-move, castling rights, and en-passant target, a match here
// is a true position repeat, not just a board-shape coincidence.
func countRepetitions(tree *Tree, parent NodeRef, childPos *chess.Position) int {
	count := 0
	cur := parent
	steps := int32(0)
	limit := childPos.HalfmoveClock
	for cur != NilRef && steps < limit {
		cn := tree.Get(cur)
		if cn.Position.Hash == childPos.Hash {
			count++
		}
		cur = cn.Parent
		steps++
	}
	return count
}
