package chess

// Position is the full chess game state: board, side to move, castle
// rights, en passant target, and the counters terminal classification
// needs. It is a plain value — ApplyMove returns a new Position rather
// than mutating the receiver,
// which is what lets Selector/Prefetcher walk the tree under a shared
// lock while Expander mutates positions off-lock without racing
// anyone (see mcts_search.go's ApplyMove usage, which this mirrors).
//
// Design decision (spec.md §9 leaves the exact board representation
// open, since it is nominally opaque): unlike spec.md's literal
// wording ("board... mirrored relative to parent"), Position is kept
// in one absolute White-relative frame for the whole tree. The
// perspective flip spec.md's input encoding needs ("our" vs "their"
// pieces) is applied only inside encode.go, which is functionally
// identical and avoids re-deriving SideToMove-relative coordinates
// throughout movegen.
type Position struct {
	Board          Board
	SideToMove     Side
	Castle         CastleRights
	EnPassant      Square // target square a pawn just double-pushed past, or NoSquare
	HalfmoveClock  int32  // resets on capture/pawn move; 50-move rule at >=100
	FullmoveNumber int32
	Hash           uint64
}

// NewInitialPosition returns the standard chess starting position.
func NewInitialPosition() *Position {
	p := &Position{
		SideToMove:     White,
		Castle:         WhiteOO | WhiteOOO | BlackOO | BlackOOO,
		EnPassant:      NoSquare,
		FullmoveNumber: 1,
	}
	backRank := [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}
	for f := 0; f < 8; f++ {
		p.Board.Set(MakeSquare(f, 0), MakePiece(White, backRank[f]))
		p.Board.Set(MakeSquare(f, 1), MakePiece(White, Pawn))
		p.Board.Set(MakeSquare(f, 6), MakePiece(Black, Pawn))
		p.Board.Set(MakeSquare(f, 7), MakePiece(Black, backRank[f]))
	}
	p.Hash = p.CalculateHash()
	return p
}

// Clone returns an independent copy (Board is a fixed-size array so
// this is a plain value copy, no pointer aliasing).
func (p *Position) Clone() *Position {
	np := *p
	return &np
}

func (p *Position) KingExists(side Side) bool {
	return p.Board.KingSquare(side) != NoSquare
}
