package uci

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"kestrel/internal/chess"
	"kestrel/internal/search"
)

const (
	engineName    = "Kestrel"
	engineVersion = "0.1"
	engineAuthor  = "kestrel contributors"
)

// syncWriter serializes writes to w: Loop's own command handling and a
// search goroutine's InfoSink/BestMoveSink callbacks both write to the
// same stdout, and io.Writer gives no such guarantee by itself.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Loop reads UCI commands from r and writes protocol output to w until
// "quit" or EOF, driving e. e must already be wired with a real
// evaluator (cmd/kestrel loads the ONNX model before starting the
// loop) — Loop only ever talks to Engine's exported surface. This is
// intentionally a plain line loop rather than a table of command
// structs — spec.md §6.4 asks for a minimal surface (uci/isready/
// ucinewgame/position/go/stop/quit), and CounterGo's own protocol
// handling (not present in the retrieved files, only its Engine/
// UciOption shapes) gives no richer pattern to generalize from here.
func Loop(e *Engine, r io.Reader, rawW io.Writer) {
	w := &syncWriter{w: rawW}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd := fields[0]

		switch cmd {
		case "uci":
			fmt.Fprintf(w, "id name %s %s\n", engineName, engineVersion)
			fmt.Fprintf(w, "id author %s\n", engineAuthor)
			for _, opt := range e.GetOptions() {
				fmt.Fprintln(w, opt.UCIString())
			}
			fmt.Fprintln(w, "uciok")

		case "isready":
			fmt.Fprintln(w, "readyok")

		case "setoption":
			name, value, ok := parseSetOption(fields[1:])
			if ok {
				if err := e.SetOption(name, value); err != nil {
					fmt.Fprintf(w, "info string %v\n", err)
				}
			}

		case "ucinewgame":
			e.NewGame()

		case "position":
			pos, err := parsePositionCommand(fields[1:])
			if err != nil {
				fmt.Fprintf(w, "info string %v\n", err)
				continue
			}
			e.SetPosition(pos)

		case "go":
			limits := parseGoCommand(fields[1:])
			infoSink := func(info search.Info) { writeInfo(w, info) }
			bestMoveSink := func(bm search.BestMove) { writeBestMove(w, bm) }
			if err := e.Go(limits, infoSink, bestMoveSink); err != nil {
				fmt.Fprintf(w, "info string %v\n", err)
			}

		case "stop":
			e.Stop()

		case "quit":
			e.Stop()
			return
		}
	}
}

func parseSetOption(fields []string) (name, value string, ok bool) {
	// setoption name <name...> value <value...>
	nameIdx := indexOf(fields, "name")
	valueIdx := indexOf(fields, "value")
	if nameIdx < 0 {
		return "", "", false
	}
	end := len(fields)
	if valueIdx >= 0 {
		end = valueIdx
	}
	name = strings.Join(fields[nameIdx+1:end], " ")
	if valueIdx >= 0 {
		value = strings.Join(fields[valueIdx+1:], " ")
	}
	return name, value, name != ""
}

func indexOf(fields []string, tok string) int {
	for i, f := range fields {
		if f == tok {
			return i
		}
	}
	return -1
}

// parsePositionCommand handles "position startpos [moves ...]" and
// "position fen <fen> [moves ...]".
func parsePositionCommand(fields []string) (*chess.Position, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("uci: empty position command")
	}

	var pos *chess.Position
	var rest []string
	switch fields[0] {
	case "startpos":
		pos = chess.NewInitialPosition()
		rest = fields[1:]
	case "fen":
		movesIdx := indexOf(fields, "moves")
		end := len(fields)
		if movesIdx >= 0 {
			end = movesIdx
		}
		fen := strings.Join(fields[1:end], " ")
		p, err := chess.ParseFEN(fen)
		if err != nil {
			return nil, fmt.Errorf("uci: %w", err)
		}
		pos = p
		if movesIdx >= 0 {
			rest = fields[movesIdx:]
		}
	default:
		return nil, fmt.Errorf("uci: unrecognized position command %q", fields[0])
	}

	if len(rest) > 0 && rest[0] == "moves" {
		for _, tok := range rest[1:] {
			mv, ok := ParseUCIMove(pos, tok)
			if !ok {
				return nil, fmt.Errorf("uci: illegal move %q", tok)
			}
			next, ok := pos.ApplyMove(mv)
			if !ok {
				return nil, fmt.Errorf("uci: move %q could not be applied", tok)
			}
			pos = next
		}
	}
	return pos, nil
}

// parseGoCommand maps a "go" line onto search.Limits: movetime sets
// TimeMs, nodes sets Visits, infinite resets both to -1; Playouts is
// always left at -1. Anything else (wtime/btime/depth/...) is accepted and
// ignored, matching a minimal UCI surface rather than a full clock
// model.
func parseGoCommand(fields []string) search.Limits {
	limits := search.Limits{Playouts: -1, Visits: -1, TimeMs: -1}
	for i := 0; i < len(fields); i++ {
		switch fields[i] {
		case "movetime":
			if i+1 < len(fields) {
				if v, err := strconv.ParseInt(fields[i+1], 10, 64); err == nil {
					limits.TimeMs = v
				}
				i++
			}
		case "nodes":
			if i+1 < len(fields) {
				if v, err := strconv.ParseInt(fields[i+1], 10, 64); err == nil {
					limits.Visits = v
				}
				i++
			}
		case "infinite":
			limits.TimeMs = -1
			limits.Visits = -1
			limits.Playouts = -1
		}
	}
	return limits
}

func writeInfo(w io.Writer, info search.Info) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "info depth %d seldepth %d time %d nodes %d nps %d score cp %d hashfull %d",
		info.Depth, info.SelDepth, info.TimeMs, info.Nodes, info.NPS, info.ScoreCP, info.HashfullPerMille)
	if len(info.PV) > 0 {
		sb.WriteString(" pv")
		for _, mv := range info.PV {
			sb.WriteByte(' ')
			sb.WriteString(mv.String())
		}
	}
	if info.Comment != "" {
		fmt.Fprintf(&sb, " string %s", info.Comment)
	}
	fmt.Fprintln(w, sb.String())
}

func writeBestMove(w io.Writer, bm search.BestMove) {
	if bm.Best.IsZero() {
		fmt.Fprintln(w, "bestmove 0000")
		return
	}
	if !bm.Ponder.IsZero() {
		fmt.Fprintf(w, "bestmove %s ponder %s\n", bm.Best.String(), bm.Ponder.String())
		return
	}
	fmt.Fprintf(w, "bestmove %s\n", bm.Best.String())
}
