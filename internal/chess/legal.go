package chess

// GenerateLegalMoves filters GeneratePseudoMoves down to moves that do
// not leave the mover's own king in check, using an
// apply-then-check-safety technique rather than pin detection —
// simpler and, since Position.ApplyMove is a cheap value copy, not
// meaningfully slower for engine-scale move
// counts.
func (p *Position) GenerateLegalMoves() []Move {
	pseudo := p.GeneratePseudoMoves()
	side := p.SideToMove
	out := make([]Move, 0, len(pseudo))
	for _, m := range pseudo {
		np, ok := p.ApplyMove(m)
		if !ok {
			continue
		}
		if np.IsAttacked(np.Board.KingSquare(side), side.Opposite()) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// InsufficientMaterial reports the "not enough mating material" draw:
// K vs K, K+N vs K, or K+B vs K (same- or opposite-colored bishop —
// two bishops or a bishop+knight can still mate, so those are not
// included).
func (p *Position) InsufficientMaterial() bool {
	var minorCount [2]int
	var hasMajorOrPawn bool
	for sq := Square(0); sq < 64; sq++ {
		pc := p.Board.At(sq)
		if pc == NoPiece {
			continue
		}
		switch pc.Type() {
		case King:
			// no material weight
		case Knight, Bishop:
			side := 0
			if pc.Side() == Black {
				side = 1
			}
			minorCount[side]++
		default:
			hasMajorOrPawn = true
		}
	}
	if hasMajorOrPawn {
		return false
	}
	return minorCount[0]+minorCount[1] <= 1
}
