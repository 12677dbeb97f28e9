package chess

// ApplyMove returns the position resulting from playing m, or
// (nil, false) if m does not name a piece of the side to move. Like
// xionghan/generate.go's ApplyMove, this copies rather than mutates
// (np := *p) and updates the Zobrist hash incrementally rather than
// recomputing it, for the same reason: Selector/Prefetcher read
// positions concurrently with Expander producing new ones, and
// value-semantics make that safe without extra locking.
func (p *Position) ApplyMove(m Move) (*Position, bool) {
	pc := p.Board.At(m.From)
	if pc == NoPiece || pc.Side() != p.SideToMove {
		return nil, false
	}

	np := p.Clone()
	h := p.Hash

	captured := np.Board.At(m.To)
	epCaptureSq := NoSquare
	if m.Flag == FlagEnPassant {
		dir := -1
		if p.SideToMove == Black {
			dir = 1
		}
		epCaptureSq = MakeSquare(m.To.File(), m.To.Rank()+dir)
		captured = np.Board.At(epCaptureSq)
	}

	// Move the piece (or promoted piece) onto the destination.
	h ^= pieceHashKey(pc, m.From)
	np.Board.Set(m.From, NoPiece)

	placed := pc
	if m.Promotion != NoPieceType {
		placed = MakePiece(p.SideToMove, m.Promotion)
	}

	if captured != NoPiece {
		if m.Flag == FlagEnPassant {
			h ^= pieceHashKey(captured, epCaptureSq)
			np.Board.Set(epCaptureSq, NoPiece)
		} else {
			h ^= pieceHashKey(captured, m.To)
		}
	}
	np.Board.Set(m.To, placed)
	h ^= pieceHashKey(placed, m.To)

	// Castling also moves the rook.
	rank := m.From.Rank()
	if m.Flag == FlagCastleKingSide {
		rookFrom, rookTo := MakeSquare(7, rank), MakeSquare(5, rank)
		rook := np.Board.At(rookFrom)
		h ^= pieceHashKey(rook, rookFrom)
		np.Board.Set(rookFrom, NoPiece)
		np.Board.Set(rookTo, rook)
		h ^= pieceHashKey(rook, rookTo)
	} else if m.Flag == FlagCastleQueenSide {
		rookFrom, rookTo := MakeSquare(0, rank), MakeSquare(3, rank)
		rook := np.Board.At(rookFrom)
		h ^= pieceHashKey(rook, rookFrom)
		np.Board.Set(rookFrom, NoPiece)
		np.Board.Set(rookTo, rook)
		h ^= pieceHashKey(rook, rookTo)
	}

	// Castle rights: lost when the king or a rook moves or is captured.
	h ^= zobristCastle[np.Castle]
	np.Castle = updateCastleRights(np.Castle, m.From, m.To, pc)
	h ^= zobristCastle[np.Castle]

	// En passant target.
	h ^= enPassantKey(p.EnPassant)
	if m.Flag == FlagDoublePawnPush {
		dir := 1
		if p.SideToMove == Black {
			dir = -1
		}
		np.EnPassant = MakeSquare(m.From.File(), m.From.Rank()+dir)
	} else {
		np.EnPassant = NoSquare
	}
	h ^= enPassantKey(np.EnPassant)

	// Half-move clock and full-move number.
	if pc.Type() == Pawn || captured != NoPiece {
		np.HalfmoveClock = 0
	} else {
		np.HalfmoveClock = p.HalfmoveClock + 1
	}
	if p.SideToMove == Black {
		np.FullmoveNumber = p.FullmoveNumber + 1
	}

	np.SideToMove = p.SideToMove.Opposite()
	h ^= zobristSideToMove
	np.Hash = h

	return np, true
}

func enPassantKey(sq Square) uint64 {
	if sq == NoSquare {
		return 0
	}
	return zobristEnPassant[sq.File()]
}

func updateCastleRights(rights CastleRights, from, to Square, moved Piece) CastleRights {
	switch from {
	case MakeSquare(4, 0):
		rights &^= WhiteOO | WhiteOOO
	case MakeSquare(4, 7):
		rights &^= BlackOO | BlackOOO
	}
	switch from {
	case MakeSquare(0, 0):
		rights &^= WhiteOOO
	case MakeSquare(7, 0):
		rights &^= WhiteOO
	case MakeSquare(0, 7):
		rights &^= BlackOOO
	case MakeSquare(7, 7):
		rights &^= BlackOO
	}
	switch to {
	case MakeSquare(0, 0):
		rights &^= WhiteOOO
	case MakeSquare(7, 0):
		rights &^= WhiteOO
	case MakeSquare(0, 7):
		rights &^= BlackOOO
	case MakeSquare(7, 7):
		rights &^= BlackOO
	}
	return rights
}
