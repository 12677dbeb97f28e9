package search

import "kestrel/internal/chess"

// Info is one progress emission, matching spec.md §6's InfoSink shape.
type Info struct {
	Depth            int
	SelDepth         int
	TimeMs           int64
	Nodes            int64
	HashfullPerMille int
	NPS              int64
	ScoreCP          int
	PV               []chess.Move
	Comment          string
}

// BestMove is the once-per-search final callback payload.
type BestMove struct {
	Best   chess.Move
	Ponder chess.Move
}

// InfoSink receives zero or more progress emissions during a search.
// internal/uci formats these as UCI "info" lines; internal/telemetry
// fans the same events out over a websocket — both are concrete
// instances of spec.md §1's "referenced only by contract" collaborator.
type InfoSink func(Info)

// BestMoveSink receives exactly one BestMove at the end of a search
// that was not aborted.
type BestMoveSink func(BestMove)
