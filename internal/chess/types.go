// Package chess is the concrete Board/Move implementation the search
// core is built and tested against. spec.md treats board rules as an
// opaque external capability; this package supplies the real thing so
// the repository is runnable end to end.
package chess

// Side is the color to move.
type Side int8

const (
	White Side = 0
	Black Side = 1
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == White {
		return Black
	}
	return White
}

func (s Side) String() string {
	if s == White {
		return "w"
	}
	return "b"
}

// PieceType enumerates the six chess piece kinds.
type PieceType int8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

// Piece packs a PieceType and a Side into one signed byte: positive
// for White, negative for Black, magnitude the piece type, zero for
// empty.
type Piece int8

// NoPiece marks an empty square.
const NoPiece Piece = 0

func MakePiece(side Side, pt PieceType) Piece {
	if pt == NoPieceType {
		return NoPiece
	}
	if side == White {
		return Piece(pt)
	}
	return -Piece(pt)
}

func (p Piece) Type() PieceType {
	if p < 0 {
		return PieceType(-p)
	}
	return PieceType(p)
}

func (p Piece) Side() Side {
	if p > 0 {
		return White
	}
	return Black
}

func (p Piece) IsEmpty() bool { return p == NoPiece }

// Square is a 0..63 mailbox index, a1=0 .. h8=63 (file-major within a
// rank: square = rank*8+file).
type Square int8

const NoSquare Square = -1

func MakeSquare(file, rank int) Square { return Square(rank*8 + file) }
func (sq Square) File() int            { return int(sq) % 8 }
func (sq Square) Rank() int            { return int(sq) / 8 }

func (sq Square) String() string {
	if sq == NoSquare {
		return "-"
	}
	return string(rune('a'+sq.File())) + string(rune('1'+sq.Rank()))
}

// CastleRights is a 4-bit mask: white-king-side, white-queen-side,
// black-king-side, black-queen-side.
type CastleRights uint8

const (
	WhiteOO CastleRights = 1 << iota
	WhiteOOO
	BlackOO
	BlackOOO
)

// MoveFlag distinguishes the special-cased moves a mailbox generator
// needs help applying: castling (rook must also move), en passant
// (the captured pawn is not on the destination square) and the pawn
// double push (sets the en-passant square). Promotion is carried by
// Move.Promotion, not by a flag.
type MoveFlag uint8

const (
	FlagNone MoveFlag = iota
	FlagCastleKingSide
	FlagCastleQueenSide
	FlagEnPassant
	FlagDoublePawnPush
)

// Move is a From/To square pair plus the extra fields real chess
// needs: promotion piece and a flag for the moves ApplyMove cannot
// infer from From/To alone.
type Move struct {
	From      Square
	To        Square
	Promotion PieceType
	Flag      MoveFlag
}

func (m Move) IsZero() bool { return m.From == 0 && m.To == 0 && m.Promotion == NoPieceType && m.Flag == FlagNone }

func (m Move) String() string {
	s := m.From.String() + m.To.String()
	switch m.Promotion {
	case Knight:
		s += "n"
	case Bishop:
		s += "b"
	case Rook:
		s += "r"
	case Queen:
		s += "q"
	}
	return s
}
