package uci

import "kestrel/internal/chess"

// ParseUCIMove resolves a UCI move token (e.g. "e2e4", "e7e8q") against
// pos's legal moves. Matching against chess.Move.String() rather than
// hand-parsing From/To/Promotion sidesteps castling's flag ambiguity:
// a king move's UCI notation (e1g1) is the same whether or not
// ApplyMove needs to also relocate the rook.
func ParseUCIMove(pos *chess.Position, token string) (chess.Move, bool) {
	for _, m := range pos.GenerateLegalMoves() {
		if m.String() == token {
			return m, true
		}
	}
	return chess.Move{}, false
}
