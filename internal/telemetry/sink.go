package telemetry

import (
	"kestrel/internal/search"
)

// infoPayload and bestMovePayload are the wire shapes broadcast to
// websocket subscribers; they mirror search.Info/search.BestMove but
// substitute chess.Move.String() for the raw struct so a browser
// client never needs to know the internal move encoding, and carry
// the session ID so a client watching several searches (one ID per
// uci.Engine.Go call) can tell them apart.
type infoPayload struct {
	SessionID        string   `json:"session_id"`
	Depth            int      `json:"depth"`
	SelDepth         int      `json:"seldepth"`
	TimeMs           int64    `json:"time_ms"`
	Nodes            int64    `json:"nodes"`
	NPS              int64    `json:"nps"`
	ScoreCP          int      `json:"score_cp"`
	HashfullPerMille int      `json:"hashfull_per_mille"`
	PV               []string `json:"pv,omitempty"`
	Comment          string   `json:"comment,omitempty"`
}

type bestMovePayload struct {
	SessionID string `json:"session_id"`
	Best      string `json:"best"`
	Ponder    string `json:"ponder,omitempty"`
}

// InfoSink returns a search.InfoSink that broadcasts each Info to hub
// tagged with sessionID (uci.Engine.Go mints one uuid.NewString() per
// search and passes it to both sinks, so the info and bestmove streams
// for one search share an ID). This is a pure fan-out: uci.Engine.Go
// passes this InfoSink to Driver
// alongside a UCI-formatting one — Reporter has no idea telemetry
// exists.
func InfoSink(hub *Hub, sessionID string) search.InfoSink {
	return func(info search.Info) {
		pv := make([]string, len(info.PV))
		for i, mv := range info.PV {
			pv[i] = mv.String()
		}
		hub.publish("info", infoPayload{
			SessionID:        sessionID,
			Depth:            info.Depth,
			SelDepth:         info.SelDepth,
			TimeMs:           info.TimeMs,
			Nodes:            info.Nodes,
			NPS:              info.NPS,
			ScoreCP:          info.ScoreCP,
			HashfullPerMille: info.HashfullPerMille,
			PV:               pv,
			Comment:          info.Comment,
		})
	}
}

// BestMoveSink is InfoSink's counterpart for the once-per-search final
// callback.
func BestMoveSink(hub *Hub, sessionID string) search.BestMoveSink {
	return func(bm search.BestMove) {
		payload := bestMovePayload{SessionID: sessionID, Best: bm.Best.String()}
		if !bm.Ponder.IsZero() {
			payload.Ponder = bm.Ponder.String()
		}
		hub.publish("bestmove", payload)
	}
}
