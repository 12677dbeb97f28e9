package chess

// Move generation dispatches per piece type: GeneratePseudoMoves
// switches on pc.Type() and calls a genXMoves helper per piece, one
// per each of the six standard chess piece kinds and their real
// movement rules.

var knightOffsets = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
var kingOffsets = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
var bishopDirs = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var rookDirs = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

func onBoard(f, r int) bool { return f >= 0 && f < 8 && r >= 0 && r < 8 }

// GeneratePseudoMoves generates every move for SideToMove that obeys
// piece movement rules but may leave that side's own king in check;
// GenerateLegalMoves filters those out.
func (p *Position) GeneratePseudoMoves() []Move {
	moves := make([]Move, 0, 48)
	side := p.SideToMove
	for sq := Square(0); sq < 64; sq++ {
		pc := p.Board.At(sq)
		if pc == NoPiece || pc.Side() != side {
			continue
		}
		switch pc.Type() {
		case Pawn:
			genPawnMoves(p, sq, &moves)
		case Knight:
			genOffsetMoves(p, sq, knightOffsets[:], &moves)
		case Bishop:
			genSlidingMoves(p, sq, bishopDirs[:], &moves)
		case Rook:
			genSlidingMoves(p, sq, rookDirs[:], &moves)
		case Queen:
			genSlidingMoves(p, sq, bishopDirs[:], &moves)
			genSlidingMoves(p, sq, rookDirs[:], &moves)
		case King:
			genOffsetMoves(p, sq, kingOffsets[:], &moves)
			genCastleMoves(p, sq, &moves)
		}
	}
	return moves
}

func genOffsetMoves(p *Position, from Square, offsets [][2]int, moves *[]Move) {
	side := p.Board.At(from).Side()
	f, r := from.File(), from.Rank()
	for _, o := range offsets {
		nf, nr := f+o[0], r+o[1]
		if !onBoard(nf, nr) {
			continue
		}
		to := MakeSquare(nf, nr)
		target := p.Board.At(to)
		if target != NoPiece && target.Side() == side {
			continue
		}
		*moves = append(*moves, Move{From: from, To: to})
	}
}

func genSlidingMoves(p *Position, from Square, dirs [][2]int, moves *[]Move) {
	side := p.Board.At(from).Side()
	f, r := from.File(), from.Rank()
	for _, d := range dirs {
		nf, nr := f+d[0], r+d[1]
		for onBoard(nf, nr) {
			to := MakeSquare(nf, nr)
			target := p.Board.At(to)
			if target == NoPiece {
				*moves = append(*moves, Move{From: from, To: to})
			} else {
				if target.Side() != side {
					*moves = append(*moves, Move{From: from, To: to})
				}
				break
			}
			nf += d[0]
			nr += d[1]
		}
	}
}

var promotionPieces = [4]PieceType{Queen, Rook, Bishop, Knight}

func genPawnMoves(p *Position, from Square, moves *[]Move) {
	side := p.Board.At(from).Side()
	f, r := from.File(), from.Rank()
	dir := 1
	startRank, promoRank := 1, 7
	if side == Black {
		dir = -1
		startRank, promoRank = 6, 0
	}

	addPawnMove := func(to Square, flag MoveFlag) {
		if to.Rank() == promoRank {
			for _, promo := range promotionPieces {
				*moves = append(*moves, Move{From: from, To: to, Promotion: promo, Flag: flag})
			}
		} else {
			*moves = append(*moves, Move{From: from, To: to, Flag: flag})
		}
	}

	// Single push.
	if onBoard(f, r+dir) {
		oneAhead := MakeSquare(f, r+dir)
		if p.Board.At(oneAhead) == NoPiece {
			addPawnMove(oneAhead, FlagNone)
			// Double push from the start rank.
			if r == startRank {
				twoAhead := MakeSquare(f, r+2*dir)
				if p.Board.At(twoAhead) == NoPiece {
					*moves = append(*moves, Move{From: from, To: twoAhead, Flag: FlagDoublePawnPush})
				}
			}
		}
	}

	// Captures, including en passant.
	for _, df := range [2]int{-1, 1} {
		nf, nr := f+df, r+dir
		if !onBoard(nf, nr) {
			continue
		}
		to := MakeSquare(nf, nr)
		target := p.Board.At(to)
		if target != NoPiece && target.Side() != side {
			addPawnMove(to, FlagNone)
		} else if target == NoPiece && to == p.EnPassant {
			addPawnMove(to, FlagEnPassant)
		}
	}
}

func genCastleMoves(p *Position, kingSq Square, moves *[]Move) {
	side := p.Board.At(kingSq).Side()
	rank := 0
	if side == Black {
		rank = 7
	}
	if kingSq != MakeSquare(4, rank) {
		return
	}
	opp := side.Opposite()

	kingSideRights, queenSideRights := WhiteOO, WhiteOOO
	if side == Black {
		kingSideRights, queenSideRights = BlackOO, BlackOOO
	}

	empty := func(files ...int) bool {
		for _, f := range files {
			if p.Board.At(MakeSquare(f, rank)) != NoPiece {
				return false
			}
		}
		return true
	}
	safe := func(files ...int) bool {
		for _, f := range files {
			if p.IsAttacked(MakeSquare(f, rank), opp) {
				return false
			}
		}
		return true
	}

	if p.Castle&kingSideRights != 0 && empty(5, 6) && safe(4, 5, 6) {
		*moves = append(*moves, Move{From: kingSq, To: MakeSquare(6, rank), Flag: FlagCastleKingSide})
	}
	if p.Castle&queenSideRights != 0 && empty(1, 2, 3) && safe(4, 3, 2) {
		*moves = append(*moves, Move{From: kingSq, To: MakeSquare(2, rank), Flag: FlagCastleQueenSide})
	}
}

// IsAttacked reports whether sq is attacked by any piece of by.
func (p *Position) IsAttacked(sq Square, by Side) bool {
	f, r := sq.File(), sq.Rank()

	// Pawns: a pawn on (f+-1, r-dir) attacks sq, where dir is that
	// pawn's forward direction.
	dir := 1
	if by == Black {
		dir = -1
	}
	for _, df := range [2]int{-1, 1} {
		nf, nr := f+df, r-dir
		if onBoard(nf, nr) {
			pc := p.Board.At(MakeSquare(nf, nr))
			if pc.Type() == Pawn && pc.Side() == by {
				return true
			}
		}
	}

	for _, o := range knightOffsets {
		nf, nr := f+o[0], r+o[1]
		if onBoard(nf, nr) {
			pc := p.Board.At(MakeSquare(nf, nr))
			if pc.Type() == Knight && pc.Side() == by {
				return true
			}
		}
	}

	for _, o := range kingOffsets {
		nf, nr := f+o[0], r+o[1]
		if onBoard(nf, nr) {
			pc := p.Board.At(MakeSquare(nf, nr))
			if pc.Type() == King && pc.Side() == by {
				return true
			}
		}
	}

	if slidingAttack(p, f, r, bishopDirs[:], by, Bishop, Queen) {
		return true
	}
	if slidingAttack(p, f, r, rookDirs[:], by, Rook, Queen) {
		return true
	}
	return false
}

func slidingAttack(p *Position, f, r int, dirs [][2]int, by Side, matchA, matchB PieceType) bool {
	for _, d := range dirs {
		nf, nr := f+d[0], r+d[1]
		for onBoard(nf, nr) {
			pc := p.Board.At(MakeSquare(nf, nr))
			if pc != NoPiece {
				if pc.Side() == by && (pc.Type() == matchA || pc.Type() == matchB) {
					return true
				}
				break
			}
			nf += d[0]
			nr += d[1]
		}
	}
	return false
}

func (p *Position) IsInCheck(side Side) bool {
	king := p.Board.KingSquare(side)
	if king == NoSquare {
		return false
	}
	return p.IsAttacked(king, side.Opposite())
}
