package chess

// PolicySize is the width of the network's policy head: 64 origin
// squares times 73 "move planes" (56 queen-move direction/distance
// combinations, 8 knight moves, 9 underpromotions), the standard
// AlphaZero-family chess action encoding. spec.md references a
// "policy index space" without naming a concrete table (the retrieved
// lc0 source excerpt is search.cc only, not the move-encoding tables),
// so this is a named, well-documented convention rather than a
// pack-grounded one — see DESIGN.md.
const PolicySize = 64 * 73

var queenDirs = [8][2]int{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
var knightPlaneDirs = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}

// underpromoDirs: capture-left, forward, capture-right, in the mover's
// own frame (df relative to forward direction already applied by the
// caller mirroring for Black).
var underpromoDirs = [3]int{-1, 0, 1}
var underpromoPieces = [3]PieceType{Knight, Bishop, Rook}

// perspectiveSquare mirrors sq into the mover's own forward-facing
// frame: White is already forward-facing, Black is flipped vertically
// (file kept, rank flipped). Board.Mirrored differs: it also reverses
// files.
func perspectiveSquare(sq Square, side Side) Square {
	if side == White {
		return sq
	}
	return MakeSquare(sq.File(), 7-sq.Rank())
}

// PolicyIndex maps a legal move, played by side, to its slot in the
// PolicySize-wide policy vector.
func PolicyIndex(m Move, side Side) (int, bool) {
	from := perspectiveSquare(m.From, side)
	to := perspectiveSquare(m.To, side)
	df := to.File() - from.File()
	dr := to.Rank() - from.Rank()

	plane := -1

	if m.Promotion != NoPieceType && m.Promotion != Queen {
		for i, upDir := range underpromoDirs {
			if df == upDir && dr == 1 {
				for j, pt := range underpromoPieces {
					if pt == m.Promotion {
						plane = 64 + i*3 + j
					}
				}
			}
		}
	} else {
		for i, d := range knightPlaneDirs {
			if df == d[0] && dr == d[1] {
				plane = 56 + i
				break
			}
		}
		if plane == -1 {
			dist := max(absInt(df), absInt(dr))
			if dist > 0 {
				ndf, ndr := df/dist, dr/dist
				for i, d := range queenDirs {
					if d[0] == ndf && d[1] == ndr {
						plane = i*7 + (dist - 1)
						break
					}
				}
			}
		}
	}

	if plane == -1 {
		return 0, false
	}
	return int(from)*73 + plane, true
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// InputPlanes is the fixed-size input tensor described in spec.md §6:
// 8 history steps of 13 planes each, plus one block of 8 aux planes at
// history step 0. Each plane is a flattened 8x8 bitmap.
type InputPlanes struct {
	History [8][13][64]float32
	Aux     [8][64]float32
}

// HistoryEntry is one ply of ancestor context, in the shape Encode
// needs; the caller (internal/search) supplies it by walking Node
// parent links so this package never depends on the arena.
type HistoryEntry struct {
	Position     *Position
	Repetitions  int
	NoCapturePly int32
}

// Encode fills InputPlanes for the leaf described by history[0]
// (root's own position is history[len(history)-1] when the leaf is
// the root itself, in which case there is nothing else to walk).
// history is ordered leaf-first, most recent ply first, exactly the
// order Node.Parent walks produce.
func Encode(history []HistoryEntry) InputPlanes {
	var planes InputPlanes
	mover := history[0].Position.SideToMove

	for step := 0; step < 8; step++ {
		if step >= len(history) {
			break // walked off the root; remaining planes stay zero, per spec.md §6
		}
		pos := history[step].Position
		mirror := step%2 == 1 // alternating perspective, per spec.md §6
		encodeHistoryStep(&planes.History[step], pos, mover, mirror)
	}

	// Aux planes, computed from history[0] (i=0 in spec.md's numbering).
	root := history[0].Position
	if root.Castle&castleRightsFor(root.SideToMove, true) != 0 {
		fillPlane(&planes.Aux[0], 1)
	}
	if root.Castle&castleRightsFor(root.SideToMove, false) != 0 {
		fillPlane(&planes.Aux[1], 1)
	}
	opp := root.SideToMove.Opposite()
	if root.Castle&castleRightsFor(opp, true) != 0 {
		fillPlane(&planes.Aux[2], 1)
	}
	if root.Castle&castleRightsFor(opp, false) != 0 {
		fillPlane(&planes.Aux[3], 1)
	}
	if root.SideToMove == Black {
		fillPlane(&planes.Aux[4], 1)
	}
	fillPlane(&planes.Aux[5], float32(history[0].NoCapturePly))
	// Aux[6], Aux[7] reserved, left zero.

	return planes
}

// castleRightsFor returns the queen-side (kingSide=false) or king-side
// right mask for side.
func castleRightsFor(side Side, kingSide bool) CastleRights {
	if side == White {
		if kingSide {
			return WhiteOO
		}
		return WhiteOOO
	}
	if kingSide {
		return BlackOO
	}
	return BlackOOO
}

func fillPlane(plane *[64]float32, v float32) {
	for i := range plane {
		plane[i] = v
	}
}

func encodeHistoryStep(dst *[13][64]float32, pos *Position, mover Side, mirror bool) {
	board := pos.Board
	our, their := mover, mover.Opposite()
	if mirror {
		// Board.Mirrored rotates the board 180 degrees and swaps piece
		// color, i.e. redraws the position as the other side would see
		// it. Swapping our/their alongside it keeps mover's own pieces
		// bucketed into planes 0..5 at their now-flipped squares, so
		// "our" pieces land in a spatially-consistent frame across
		// every history step instead of jumping frame every other ply.
		board = board.Mirrored()
		our, their = their, our
	}
	for sq := Square(0); sq < 64; sq++ {
		pc := board.At(sq)
		if pc == NoPiece {
			continue
		}
		idx := int(pc.Type()) - 1 // 0..5
		if pc.Side() == their {
			idx += 6
		} else if pc.Side() != our {
			continue
		}
		dst[idx][sq] = 1
	}
	// Plane 12 (repetition>=1 indicator) is filled in by
	// EncodeWithRepetition, since a bare Position carries no
	// repetition count of its own.
}

// EncodeWithRepetition is Encode plus the repetition≥1 indicator
// (spec.md §6 plane 12), applied per history step from the caller's
// own repetition bookkeeping (internal/search walks ancestor node
// state, which already tracks this per spec.md §3's `repetitions`
// field).
func EncodeWithRepetition(history []HistoryEntry) InputPlanes {
	planes := Encode(history)
	for step := 0; step < 8 && step < len(history); step++ {
		if history[step].Repetitions >= 1 {
			fillPlane(&planes.History[step][12], 1)
		}
	}
	return planes
}
