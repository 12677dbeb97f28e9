package uci

import (
	"testing"

	"kestrel/internal/chess"
)

func TestParseUCIMoveFindsLegalMove(t *testing.T) {
	pos := chess.NewInitialPosition()
	mv, ok := ParseUCIMove(pos, "e2e4")
	if !ok {
		t.Fatalf("e2e4 should be legal from the initial position")
	}
	if mv.String() != "e2e4" {
		t.Fatalf("mv.String() = %q, want e2e4", mv.String())
	}
}

func TestParseUCIMoveRejectsIllegalMove(t *testing.T) {
	pos := chess.NewInitialPosition()
	if _, ok := ParseUCIMove(pos, "e2e5"); ok {
		t.Fatalf("e2e5 is not a legal pawn move from the initial position")
	}
}

func TestParsePositionCommandStartposWithMoves(t *testing.T) {
	pos, err := parsePositionCommand([]string{"startpos", "moves", "e2e4", "e7e5"})
	if err != nil {
		t.Fatalf("parsePositionCommand: %v", err)
	}
	if pos.SideToMove != chess.White {
		t.Fatalf("after two plies it should be White to move again")
	}
}

func TestParsePositionCommandRejectsIllegalMove(t *testing.T) {
	_, err := parsePositionCommand([]string{"startpos", "moves", "e2e5"})
	if err == nil {
		t.Fatalf("expected an error for an illegal move in the moves list")
	}
}

func TestParsePositionCommandFEN(t *testing.T) {
	// The wire format splits a FEN on whitespace across several UCI
	// tokens ("fen <board> <side> <castle> <ep> <halfmove> <fullmove>");
	// parsePositionCommand must rejoin them before handing off to
	// ParseFEN.
	pos, err := parsePositionCommand([]string{"fen", "8/8/8/8/8/k1q5/8/K7", "w", "-", "-", "0", "1"})
	if err != nil {
		t.Fatalf("parsePositionCommand: %v", err)
	}
	if pos.SideToMove != chess.White {
		t.Fatalf("expected White to move")
	}
}
