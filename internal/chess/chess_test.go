package chess

import "testing"

func TestInitialPositionHash(t *testing.T) {
	pos := NewInitialPosition()
	if pos.Hash != pos.CalculateHash() {
		t.Fatalf("initial hash mismatch: got=%d want=%d", pos.Hash, pos.CalculateHash())
	}
}

func TestInitialPositionMoveCount(t *testing.T) {
	pos := NewInitialPosition()
	moves := pos.GenerateLegalMoves()
	if len(moves) != 20 {
		t.Fatalf("initial legal move count = %d, want 20", len(moves))
	}
}

func TestApplyMoveHashMatchesRecompute(t *testing.T) {
	pos := NewInitialPosition()
	for ply := 0; ply < 30; ply++ {
		moves := pos.GenerateLegalMoves()
		if len(moves) == 0 {
			return
		}
		mv := moves[len(moves)/2]
		next, ok := pos.ApplyMove(mv)
		if !ok {
			t.Fatalf("apply move failed at ply %d: %+v", ply, mv)
		}
		if next.Hash != next.CalculateHash() {
			t.Fatalf("hash mismatch at ply %d: got=%d want=%d move=%v", ply, next.Hash, next.CalculateHash(), mv)
		}
		pos = next
	}
}

func TestFoolsMateIsCheckmate(t *testing.T) {
	pos := NewInitialPosition()
	moveStrs := [][2]string{{"f2", "f3"}, {"e7", "e5"}, {"g2", "g4"}, {"d8", "h4"}}
	for _, pair := range moveStrs {
		from := MakeSquare(int(pair[0][0]-'a'), int(pair[0][1]-'1'))
		to := MakeSquare(int(pair[1][0]-'a'), int(pair[1][1]-'1'))
		var applied bool
		for _, mv := range pos.GenerateLegalMoves() {
			if mv.From == from && mv.To == to {
				next, ok := pos.ApplyMove(mv)
				if !ok {
					t.Fatalf("ApplyMove failed for %v", mv)
				}
				pos = next
				applied = true
				break
			}
		}
		if !applied {
			t.Fatalf("could not find legal move %s%s", pair[0], pair[1])
		}
	}

	if !pos.IsInCheck(pos.SideToMove) {
		t.Fatalf("expected side to move to be in check after fool's mate")
	}
	if len(pos.GenerateLegalMoves()) != 0 {
		t.Fatalf("expected no legal moves after fool's mate")
	}
}

func TestStalemate(t *testing.T) {
	// Classic stalemate: White king a1, Black king a3, Black queen b3;
	// White to move has no legal moves and is not in check.
	pos, err := ParseFEN("8/8/8/8/8/kq6/8/K7 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if pos.IsInCheck(pos.SideToMove) {
		t.Fatalf("expected white not in check")
	}
	if len(pos.GenerateLegalMoves()) != 0 {
		t.Fatalf("expected stalemate: no legal moves")
	}
}

func TestInsufficientMaterial(t *testing.T) {
	pos, err := ParseFEN("8/8/8/8/8/4k3/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if !pos.InsufficientMaterial() {
		t.Fatalf("K vs K should be insufficient material")
	}

	pos2, err := ParseFEN("8/8/8/8/8/4k3/8/3QK3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if pos2.InsufficientMaterial() {
		t.Fatalf("K+Q vs K should not be insufficient material")
	}
}

func TestFENRoundTrip(t *testing.T) {
	pos := NewInitialPosition()
	fen := pos.FEN()
	const want = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	if fen != want {
		t.Fatalf("FEN() = %q, want %q", fen, want)
	}
	reparsed, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if reparsed.Hash != pos.Hash {
		t.Fatalf("round-tripped hash mismatch: got=%d want=%d", reparsed.Hash, pos.Hash)
	}
}

func TestCastlingRightsClearOnKingMove(t *testing.T) {
	pos, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	e1, e2 := MakeSquare(4, 0), MakeSquare(4, 1)
	next, ok := pos.ApplyMove(Move{From: e1, To: e2})
	if !ok {
		t.Fatalf("ApplyMove failed")
	}
	if next.Castle&(WhiteOO|WhiteOOO) != 0 {
		t.Fatalf("expected white castle rights cleared, got %04b", next.Castle)
	}
	if next.Castle&(BlackOO|BlackOOO) == 0 {
		t.Fatalf("expected black castle rights untouched")
	}
}

func TestCastleKingSideMovesRook(t *testing.T) {
	pos, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	var castle Move
	for _, mv := range pos.GenerateLegalMoves() {
		if mv.Flag == FlagCastleKingSide {
			castle = mv
		}
	}
	if castle.IsZero() {
		t.Fatalf("expected a king-side castle to be legal")
	}
	next, ok := pos.ApplyMove(castle)
	if !ok {
		t.Fatalf("ApplyMove failed for castle")
	}
	if next.Board.At(MakeSquare(5, 0)).Type() != Rook {
		t.Fatalf("expected rook on f1 after king-side castle")
	}
	if next.Board.At(MakeSquare(7, 0)) != NoPiece {
		t.Fatalf("expected h1 empty after king-side castle")
	}
}

func TestPolicyIndexRoundTripsWithinBounds(t *testing.T) {
	pos := NewInitialPosition()
	for _, mv := range pos.GenerateLegalMoves() {
		idx, ok := PolicyIndex(mv, pos.SideToMove)
		if !ok {
			t.Fatalf("PolicyIndex failed for %v", mv)
		}
		if idx < 0 || idx >= PolicySize {
			t.Fatalf("PolicyIndex(%v) = %d out of range [0,%d)", mv, idx, PolicySize)
		}
	}
}

func TestPolicyIndexDistinctForDistinctMoves(t *testing.T) {
	pos := NewInitialPosition()
	seen := make(map[int]Move)
	for _, mv := range pos.GenerateLegalMoves() {
		idx, ok := PolicyIndex(mv, pos.SideToMove)
		if !ok {
			t.Fatalf("PolicyIndex failed for %v", mv)
		}
		if prev, dup := seen[idx]; dup {
			t.Fatalf("PolicyIndex collision: %v and %v both map to %d", prev, mv, idx)
		}
		seen[idx] = mv
	}
}

func TestEncodeStopsAtRoot(t *testing.T) {
	pos := NewInitialPosition()
	history := []HistoryEntry{{Position: pos}}
	planes := EncodeWithRepetition(history)
	// History step 1 onward should be entirely zero since we walked off root.
	for sq := 0; sq < 64; sq++ {
		if planes.History[1][0][sq] != 0 {
			t.Fatalf("expected history step 1 to be zero past the root")
		}
	}
	// Step 0 should have pieces.
	total := 0
	for plane := 0; plane < 12; plane++ {
		for sq := 0; sq < 64; sq++ {
			if planes.History[0][plane][sq] != 0 {
				total++
			}
		}
	}
	if total != 32 {
		t.Fatalf("expected 32 pieces encoded at history step 0, got %d", total)
	}
}

func TestEncodeAlternatingStepsMirrorSpatially(t *testing.T) {
	initial := NewInitialPosition()
	e2, e4 := MakeSquare(4, 1), MakeSquare(4, 3)
	afterE4, ok := initial.ApplyMove(Move{From: e2, To: e4, Flag: FlagDoublePawnPush})
	if !ok {
		t.Fatalf("ApplyMove e2e4 failed")
	}
	e7, e5 := MakeSquare(4, 6), MakeSquare(4, 4)
	afterE5, ok := afterE4.ApplyMove(Move{From: e7, To: e5, Flag: FlagDoublePawnPush})
	if !ok {
		t.Fatalf("ApplyMove e7e5 failed")
	}

	// history[0] = afterE5 (White to move, mover=White, mirror=false)
	// history[1] = afterE4 (mirror=true)
	// history[2] = initial (mirror=false)
	history := []HistoryEntry{{Position: afterE5}, {Position: afterE4}, {Position: initial}}
	planes := EncodeWithRepetition(history)

	const whitePawnPlane = 0
	flippedE4 := Square(63) - e4

	if planes.History[0][whitePawnPlane][e4] != 1 {
		t.Fatalf("expected white pawn plane set at e4 (raw square) on unmirrored step 0")
	}
	if planes.History[1][whitePawnPlane][flippedE4] != 1 {
		t.Fatalf("expected white pawn plane set at mirrored square on mirrored step 1")
	}
	if planes.History[1][whitePawnPlane][e4] != 0 {
		t.Fatalf("mirrored step 1 must not place the pawn at its raw, un-flipped square")
	}

	// The White king never moves in this sequence; its square must flip
	// between the unmirrored and mirrored steps too.
	const kingPlane = 5
	e1 := MakeSquare(4, 0)
	flippedE1 := Square(63) - e1
	if planes.History[0][kingPlane][e1] != 1 {
		t.Fatalf("expected white king plane set at e1 on unmirrored step 0")
	}
	if planes.History[1][kingPlane][flippedE1] != 1 {
		t.Fatalf("expected white king plane set at mirrored square on mirrored step 1")
	}
	if planes.History[1][kingPlane][e1] != 0 {
		t.Fatalf("mirrored step 1 must not place the king at its raw, un-flipped square")
	}

	// Step 2 is unmirrored again, so the king plane returns to the raw square.
	if planes.History[2][kingPlane][e1] != 1 {
		t.Fatalf("expected white king plane set at e1 on unmirrored step 2")
	}
}
