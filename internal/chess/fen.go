package chess

import (
	"fmt"
	"strconv"
	"strings"
)

var pieceLetters = map[PieceType]byte{
	Pawn: 'p', Knight: 'n', Bishop: 'b', Rook: 'r', Queen: 'q', King: 'k',
}

var letterPieces = map[byte]PieceType{
	'p': Pawn, 'n': Knight, 'b': Bishop, 'r': Rook, 'q': Queen, 'k': King,
}

// FEN renders p in Forsyth-Edwards Notation.
func (p *Position) FEN() string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			pc := p.Board.At(MakeSquare(file, rank))
			if pc == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			letter := pieceLetters[pc.Type()]
			if pc.Side() == White {
				letter -= 'a' - 'A'
			}
			sb.WriteByte(letter)
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	sb.WriteByte(' ')
	sb.WriteString(p.SideToMove.String())

	sb.WriteByte(' ')
	castle := ""
	if p.Castle&WhiteOO != 0 {
		castle += "K"
	}
	if p.Castle&WhiteOOO != 0 {
		castle += "Q"
	}
	if p.Castle&BlackOO != 0 {
		castle += "k"
	}
	if p.Castle&BlackOOO != 0 {
		castle += "q"
	}
	if castle == "" {
		castle = "-"
	}
	sb.WriteString(castle)

	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())

	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(int(p.HalfmoveClock)))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(int(p.FullmoveNumber)))

	return sb.String()
}

// ParseFEN decodes Forsyth-Edwards Notation into a Position, mirroring
// the shape of xionghan/fen.go's DecodePosition (field-by-field split
// on spaces, then a per-rank parse loop).
func ParseFEN(fen string) (*Position, error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 {
		return nil, fmt.Errorf("chess: invalid FEN %q: need at least 4 fields", fen)
	}

	p := &Position{EnPassant: NoSquare, FullmoveNumber: 1}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, fmt.Errorf("chess: invalid FEN %q: need 8 ranks", fen)
	}
	for i, rankStr := range ranks {
		rank := 7 - i
		file := 0
		for _, c := range rankStr {
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			lower := byte(c)
			if lower >= 'A' && lower <= 'Z' {
				lower += 'a' - 'A'
			}
			pt, ok := letterPieces[lower]
			if !ok {
				return nil, fmt.Errorf("chess: invalid FEN %q: bad piece %q", fen, c)
			}
			side := Black
			if c >= 'A' && c <= 'Z' {
				side = White
			}
			if file > 7 {
				return nil, fmt.Errorf("chess: invalid FEN %q: rank %d overflows", fen, i)
			}
			p.Board.Set(MakeSquare(file, rank), MakePiece(side, pt))
			file++
		}
	}

	switch fields[1] {
	case "w":
		p.SideToMove = White
	case "b":
		p.SideToMove = Black
	default:
		return nil, fmt.Errorf("chess: invalid FEN %q: bad side to move %q", fen, fields[1])
	}

	for _, c := range fields[2] {
		switch c {
		case 'K':
			p.Castle |= WhiteOO
		case 'Q':
			p.Castle |= WhiteOOO
		case 'k':
			p.Castle |= BlackOO
		case 'q':
			p.Castle |= BlackOOO
		case '-':
		default:
			return nil, fmt.Errorf("chess: invalid FEN %q: bad castle field %q", fen, fields[2])
		}
	}

	if fields[3] != "-" {
		if len(fields[3]) != 2 {
			return nil, fmt.Errorf("chess: invalid FEN %q: bad en passant field %q", fen, fields[3])
		}
		p.EnPassant = MakeSquare(int(fields[3][0]-'a'), int(fields[3][1]-'1'))
	}

	if len(fields) > 4 {
		if n, err := strconv.Atoi(fields[4]); err == nil {
			p.HalfmoveClock = int32(n)
		}
	}
	if len(fields) > 5 {
		if n, err := strconv.Atoi(fields[5]); err == nil {
			p.FullmoveNumber = int32(n)
		}
	}

	p.Hash = p.CalculateHash()
	return p, nil
}
