// Command selfplay drives the search core against itself end to end,
// exercising the whole Select/Expand/Batch/Backprop pipeline without
// going anywhere near the UCI surface. Two modes:
//
//   - "play" (default): one game, logging each move.
//   - "benchmark": many games between two Config presets, alternating
//     which side gets the larger playout budget so a weak-vs-strong
//     score can be tallied.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"kestrel/internal/chess"
	"kestrel/internal/logging"
	"kestrel/internal/nn"
	"kestrel/internal/search"
)

func main() {
	modelPath := flag.String("model", "kestrel.onnx", "path to ONNX model file")
	libPath := flag.String("lib", "", "path to the onnxruntime shared library")
	mode := flag.String("mode", "play", "play | benchmark")
	playouts := flag.Int64("playouts", 800, "playouts per move")
	maxMoves := flag.Int("maxmoves", 200, "max plies before declaring a draw")
	games := flag.Int("games", 10, "benchmark mode: number of games to play")
	strongPlayouts := flag.Int64("strong-playouts", 1600, "benchmark mode: the stronger preset's playout budget")
	workers := flag.Int("workers", 1, "search worker goroutines")
	parallelGames := flag.Int("parallel-games", 1, "benchmark mode: number of games to run concurrently, sharing one queued evaluator")
	flag.Parse()

	logging.Init("info")

	go func() {
		log.Println("pprof listening on :6060")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil {
			log.Printf("pprof failed: %v", err)
		}
	}()

	rawEvaluator, err := nn.NewONNXEvaluator(*modelPath, *libPath, nn.DefaultProviders())
	if err != nil {
		log.Fatalf("selfplay: failed to initialize NN: %v", err)
	}
	defer rawEvaluator.Close()

	cache := nn.NewShardedCache(1 << 20)

	switch *mode {
	case "benchmark":
		// Concurrent games each drive their own search.Driver (and so
		// their own BatchBuilder), but with no shared batch-assembly
		// stage across drivers, running many games in parallel would
		// otherwise mean many small, uncoordinated calls into the ONNX
		// session. QueuedEvaluator fixes that by re-batching every
		// driver's individual position evaluations into a window on
		// the actual GPU/CPU inference call.
		var evaluator nn.Evaluator = rawEvaluator
		if *parallelGames > 1 {
			queued := nn.NewQueuedEvaluator(rawEvaluator, 16, 2*time.Millisecond)
			defer queued.Close()
			evaluator = queued
		}
		runBenchmark(evaluator, cache, *games, *playouts, *strongPlayouts, *maxMoves, *workers, *parallelGames)
	default:
		runGame(rawEvaluator, cache, search.Config{
			MiniBatchSize: 16,
			PrefetchCap:   64,
			CpuctX100:     170,
			MaxNodes:      1 << 20,
			Workers:       *workers,
			Limits:        search.Limits{Playouts: *playouts, Visits: -1, TimeMs: -1},
		}, *maxMoves, true)
	}
	os.Exit(0)
}

// runGame plays one game to completion (or maxMoves plies), logging
// each move if verbose. It returns the terminal reason and the final
// position.
func runGame(evaluator nn.Evaluator, cache nn.EvalCache, cfg search.Config, maxMoves int, verbose bool) (string, *chess.Position) {
	pos := chess.NewInitialPosition()
	history := []*chess.Position{pos}

	for ply := 0; ply < maxMoves; ply++ {
		if reason, over := gameOver(pos, history); over {
			if verbose {
				log.Printf("game over: %s", reason)
			}
			return reason, pos
		}

		tree, err := search.NewTree(cfg.MaxNodes, pos)
		if err != nil {
			log.Fatalf("selfplay: NewTree: %v", err)
		}
		best := make(chan search.BestMove, 1)
		driver, err := search.NewDriver(tree, cache, evaluator, cfg, nil, func(bm search.BestMove) { best <- bm })
		if err != nil {
			log.Fatalf("selfplay: NewDriver: %v", err)
		}

		start := time.Now()
		if err := driver.Search(context.Background()); err != nil {
			log.Fatalf("selfplay: Search: %v", err)
		}
		bm := <-best
		if bm.Best.IsZero() {
			return "no legal moves", pos
		}

		next, ok := pos.ApplyMove(bm.Best)
		if !ok {
			log.Fatalf("selfplay: illegal bestmove %v from search", bm.Best)
		}
		if verbose {
			fmt.Printf("ply %d (%v): %s in %v\n", ply+1, pos.SideToMove, bm.Best.String(), time.Since(start))
		}
		pos = next
		history = append(history, pos)
	}
	return "move limit reached", pos
}

// gameOver applies the same terminal checks Expander runs inside the
// tree, but against a bare position/history since selfplay has no
// tree to walk.
func gameOver(pos *chess.Position, history []*chess.Position) (string, bool) {
	legal := pos.GenerateLegalMoves()
	inCheck := pos.IsInCheck(pos.SideToMove)
	switch {
	case len(legal) == 0 && inCheck:
		return "checkmate", true
	case len(legal) == 0:
		return "stalemate", true
	case pos.InsufficientMaterial():
		return "insufficient material", true
	case pos.HalfmoveClock >= 100:
		return "fifty-move rule", true
	}
	reps := 0
	limit := int(pos.HalfmoveClock)
	for i := len(history) - 2; i >= 0 && len(history)-1-i <= limit; i-- {
		if history[i].Hash == pos.Hash {
			reps++
		}
	}
	if reps >= 2 {
		return "threefold repetition", true
	}
	return "", false
}

// runBenchmark plays games alternating which side gets the stronger
// playout budget, reporting a win/draw tally. Up to parallelGames run
// at once, sharing evaluator and cache — the caller wraps evaluator in
// a QueuedEvaluator first when parallelGames > 1 so those concurrent
// games get re-batched into the underlying NN session instead of each
// issuing its own uncoordinated calls.
func runBenchmark(evaluator nn.Evaluator, cache nn.EvalCache, games int, weakPlayouts, strongPlayouts int64, maxMoves, workers, parallelGames int) {
	var mu sync.Mutex
	weakWins, strongWins, draws := 0, 0, 0

	var g errgroup.Group
	g.SetLimit(parallelGames)
	for i := 0; i < games; i++ {
		i := i
		g.Go(func() error {
			strongIsWhite := i%2 == 0
			fmt.Printf("game %d: %s plays the strong preset (%d playouts)\n",
				i+1, sideLabel(strongIsWhite), strongPlayouts)

			winner := playBenchmarkGame(evaluator, cache, weakPlayouts, strongPlayouts, maxMoves, workers, strongIsWhite)
			fmt.Printf("game %d result: %s\n", i+1, winner)

			mu.Lock()
			switch winner {
			case "strong":
				strongWins++
			case "weak":
				weakWins++
			default:
				draws++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	fmt.Printf("\n=== final score (%d games) ===\n", games)
	fmt.Printf("strong preset (%d playouts): %d\n", strongPlayouts, strongWins)
	fmt.Printf("weak preset (%d playouts): %d\n", weakPlayouts, weakWins)
	fmt.Printf("draws: %d\n", draws)
}

func sideLabel(strongIsWhite bool) string {
	if strongIsWhite {
		return "White"
	}
	return "Black"
}

func playBenchmarkGame(evaluator nn.Evaluator, cache nn.EvalCache, weakPlayouts, strongPlayouts int64, maxMoves, workers int, strongIsWhite bool) string {
	pos := chess.NewInitialPosition()
	history := []*chess.Position{pos}

	baseCfg := search.Config{MiniBatchSize: 16, PrefetchCap: 64, CpuctX100: 170, MaxNodes: 1 << 20, Workers: workers}

	for ply := 0; ply < maxMoves; ply++ {
		if reason, over := gameOver(pos, history); over {
			return terminalWinner(reason, pos, strongIsWhite)
		}

		whiteToMove := pos.SideToMove == chess.White
		playouts := weakPlayouts
		if whiteToMove == strongIsWhite {
			playouts = strongPlayouts
		}
		cfg := baseCfg
		cfg.Limits = search.Limits{Playouts: playouts, Visits: -1, TimeMs: -1}

		tree, err := search.NewTree(cfg.MaxNodes, pos)
		if err != nil {
			log.Fatalf("selfplay: NewTree: %v", err)
		}
		best := make(chan search.BestMove, 1)
		driver, err := search.NewDriver(tree, cache, evaluator, cfg, nil, func(bm search.BestMove) { best <- bm })
		if err != nil {
			log.Fatalf("selfplay: NewDriver: %v", err)
		}
		if err := driver.Search(context.Background()); err != nil {
			log.Fatalf("selfplay: Search: %v", err)
		}
		bm := <-best
		if bm.Best.IsZero() {
			return terminalWinner("no legal moves", pos, strongIsWhite)
		}
		next, ok := pos.ApplyMove(bm.Best)
		if !ok {
			log.Fatalf("selfplay: illegal bestmove %v from search", bm.Best)
		}
		pos = next
		history = append(history, pos)
	}
	return "draw"
}

// terminalWinner maps a gameOver reason and the side to move at that
// point (the side with no reply, for checkmate) to "strong"/"weak"/"draw".
func terminalWinner(reason string, pos *chess.Position, strongIsWhite bool) string {
	if reason != "checkmate" {
		return "draw"
	}
	// pos.SideToMove is the mated side.
	mateWasWhite := pos.SideToMove == chess.White
	if mateWasWhite == strongIsWhite {
		return "weak"
	}
	return "strong"
}
