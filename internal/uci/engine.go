package uci

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"kestrel/internal/chess"
	"kestrel/internal/logging"
	"kestrel/internal/nn"
	"kestrel/internal/search"
	"kestrel/internal/telemetry"
)

// approxCacheEntryBytes estimates the footprint of one nn.EvalCache
// entry (a uint64 key plus a Result, dominated by its policy vector)
// so the Hash option can be expressed in the megabytes a GUI expects
// rather than a raw entry count.
const approxCacheEntryBytes = 8 + chess.PolicySize*4 + 4

// Engine owns one long-lived search.Driver-shaped session: option
// state, the current position, and whichever search is in flight.
// Grounded on ChizhovVadim-CounterGo's Engine (engine.go), which plays
// the same "GetOptions/Prepare/Search" role for its own alpha-beta
// core.
type Engine struct {
	Hash              IntUciOption
	Threads           IntUciOption
	CpuctX100         IntUciOption
	MiniBatchSize     IntUciOption
	PrefetchCap       IntUciOption
	AggressiveCaching BoolUciOption

	evaluator nn.Evaluator

	// Telemetry, when non-nil, gets a fan-out copy of every Info and
	// BestMove alongside whatever sink Loop passes in for UCI text
	// output. cmd/kestrel sets this only when started with a telemetry
	// listen address; Loop and Engine's tests never touch it.
	Telemetry *telemetry.Hub

	mu         sync.Mutex
	cache      nn.EvalCache
	cacheHash  int
	pos        *chess.Position
	driver     *search.Driver
	driverDone chan struct{}
}

// NewEngine wires an Engine around evaluator with spec.md §6's default
// configuration surface, expressed as UCI options.
func NewEngine(evaluator nn.Evaluator) *Engine {
	e := &Engine{
		Hash:              IntUciOption{OptName: "Hash", Value: 256, Min: 1, Max: 65536},
		Threads:           IntUciOption{OptName: "Threads", Value: 1, Min: 1, Max: 512},
		CpuctX100:         IntUciOption{OptName: "CpuctX100", Value: 170, Min: 0, Max: 9999},
		MiniBatchSize:     IntUciOption{OptName: "MiniBatchSize", Value: 16, Min: 1, Max: 1024},
		PrefetchCap:       IntUciOption{OptName: "PrefetchCap", Value: 64, Min: 0, Max: 1024},
		AggressiveCaching: BoolUciOption{OptName: "AggressiveCaching", Value: false},
		evaluator:         evaluator,
		pos:               chess.NewInitialPosition(),
	}
	e.rebuildCache()
	return e
}

// GetOptions lists every reportable UciOption, in the order "uci"
// should print them.
func (e *Engine) GetOptions() []UciOption {
	return []UciOption{
		&e.Hash, &e.Threads, &e.CpuctX100,
		&e.MiniBatchSize, &e.PrefetchCap, &e.AggressiveCaching,
	}
}

// SetOption applies "setoption name <name> value <value>".
func (e *Engine) SetOption(name, value string) error {
	for _, opt := range e.GetOptions() {
		if opt.Name() == name {
			return opt.SetValue(value)
		}
	}
	return fmt.Errorf("uci: unknown option %q", name)
}

func (e *Engine) rebuildCache() {
	capacity := (e.Hash.Value * 1 << 20) / approxCacheEntryBytes
	if capacity < 1 {
		capacity = 1
	}
	e.cache = nn.NewShardedCache(capacity)
	e.cacheHash = e.Hash.Value
}

// NewGame resets to the initial position and, if Hash changed since
// the last search, starts a fresh EvalCache — only rebuilding
// expensive state when its sizing option actually moved.
func (e *Engine) NewGame() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pos = chess.NewInitialPosition()
	if e.cacheHash != e.Hash.Value {
		e.rebuildCache()
	}
}

// SetPosition installs pos as the position the next "go" searches from.
func (e *Engine) SetPosition(pos *chess.Position) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pos = pos
}

// Go starts a search from the current position and returns once the
// search has launched (not once it has finished) — the caller reads
// bestMoveSink to learn when it's done. Only one search may be in
// flight at a time; a second Go before the first finishes is a caller
// bug and returns an error rather than silently racing two Drivers
// over one position pointer.
func (e *Engine) Go(limits search.Limits, infoSink search.InfoSink, bestMoveSink search.BestMoveSink) error {
	e.mu.Lock()
	if e.driverDone != nil {
		e.mu.Unlock()
		return fmt.Errorf("uci: a search is already in progress")
	}
	pos := e.pos
	cfg := search.Config{
		MiniBatchSize:     e.MiniBatchSize.Value,
		PrefetchCap:       e.PrefetchCap.Value,
		AggressiveCaching: e.AggressiveCaching.Value,
		CpuctX100:         e.CpuctX100.Value,
		MaxNodes:          1 << 22,
		Workers:           e.Threads.Value,
		Limits:            limits,
	}
	cache := e.cache
	hub := e.Telemetry
	e.mu.Unlock()

	if hub != nil {
		sessionID := uuid.NewString()
		uciInfo, uciBest := infoSink, bestMoveSink
		telInfo, telBest := telemetry.InfoSink(hub, sessionID), telemetry.BestMoveSink(hub, sessionID)
		infoSink = func(info search.Info) {
			if uciInfo != nil {
				uciInfo(info)
			}
			telInfo(info)
		}
		bestMoveSink = func(bm search.BestMove) {
			if uciBest != nil {
				uciBest(bm)
			}
			telBest(bm)
		}
	}

	tree, err := search.NewTree(cfg.MaxNodes, pos)
	if err != nil {
		return fmt.Errorf("uci: %w", err)
	}
	driver, err := search.NewDriver(tree, cache, e.evaluator, cfg, infoSink, bestMoveSink)
	if err != nil {
		return fmt.Errorf("uci: %w", err)
	}

	done := make(chan struct{})
	e.mu.Lock()
	e.driver = driver
	e.driverDone = done
	e.mu.Unlock()

	go func() {
		defer close(done)
		if err := driver.Search(context.Background()); err != nil {
			logging.Logger.Error().Err(err).Msg("uci: search failed")
		}
		e.mu.Lock()
		e.driver = nil
		e.driverDone = nil
		e.mu.Unlock()
	}()
	return nil
}

// Stop requests a normal, best-move-emitting halt of any in-flight
// search (Driver.Stop, not Abort — a UCI "stop" still wants an answer).
// It is a no-op if nothing is searching.
func (e *Engine) Stop() {
	e.mu.Lock()
	d := e.driver
	e.mu.Unlock()
	if d != nil {
		d.Stop()
	}
}
