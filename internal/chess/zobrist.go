package chess

// Zobrist hashing, grounded on xionghan/zobrist.go's table-of-random-
// keys-plus-incremental-XOR approach. Keys are generated with a fixed
// splitmix64 stream (not math/rand) so the table is reproducible
// across processes without needing to persist it, matching the
// teacher's use of compile-time-fixed hash keys.
var (
	zobristPieceSquare [2][7][64]uint64 // [side][pieceType][square]
	zobristSideToMove  uint64
	zobristCastle      [16]uint64
	zobristEnPassant   [8]uint64 // by file
)

func splitmix64(state *uint64) uint64 {
	*state += 0x9E3779B97F4A7C15
	z := *state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

func init() {
	seed := uint64(0xC0FFEE1234567890)
	for side := 0; side < 2; side++ {
		for pt := 1; pt <= 6; pt++ {
			for sq := 0; sq < 64; sq++ {
				zobristPieceSquare[side][pt][sq] = splitmix64(&seed)
			}
		}
	}
	zobristSideToMove = splitmix64(&seed)
	for i := range zobristCastle {
		zobristCastle[i] = splitmix64(&seed)
	}
	for i := range zobristEnPassant {
		zobristEnPassant[i] = splitmix64(&seed)
	}
}

func pieceHashKey(p Piece, sq Square) uint64 {
	if p == NoPiece {
		return 0
	}
	side := 0
	if p.Side() == Black {
		side = 1
	}
	return zobristPieceSquare[side][p.Type()][sq]
}

// CalculateHash recomputes the Zobrist fingerprint from scratch. Used
// to seed a fresh Position and to cross-check ApplyMove's incremental
// update in tests, exactly as xionghan/zobrist_test.go does for its
// own board.
func (p *Position) CalculateHash() uint64 {
	var h uint64
	for sq := Square(0); sq < 64; sq++ {
		h ^= pieceHashKey(p.Board.At(sq), sq)
	}
	if p.SideToMove == Black {
		h ^= zobristSideToMove
	}
	h ^= zobristCastle[p.Castle]
	if p.EnPassant != NoSquare {
		h ^= zobristEnPassant[p.EnPassant.File()]
	}
	return h
}
