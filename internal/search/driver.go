package search

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"kestrel/internal/logging"
	"kestrel/internal/nn"
)

// infoEmitInterval throttles Reporter.EmitInfo so N workers sharing
// one InfoSink don't flood it every iteration.
const infoEmitInterval = 100 * time.Millisecond

// Driver is spec.md §4.6/§4.7's SearchDriver: it owns the worker pool
// and the per-iteration Select→Expand→Batch→Prefetch→Evaluate→Backprop
// pipeline, plus the stop-condition and best-move-response protocol of
// §4.7. Workers are launched through golang.org/x/sync/errgroup rather
// than a bare sync.WaitGroup so the first fatal error (arena
// exhaustion, evaluator failure) propagates out of Search instead of
// being silently dropped — see DESIGN.md.
type Driver struct {
	SessionID uuid.UUID

	tree      *Tree
	cache     nn.EvalCache
	evaluator nn.Evaluator
	cfg       Config

	selector   *Selector
	expander   *Expander
	prefetcher *Prefetcher
	backprop   *Backpropagator
	reporter   *Reporter

	// counters_mutex, per spec.md §5. Always acquired before the tree
	// lock when both are needed.
	countersMu        sync.Mutex
	stop              bool
	aborted           bool
	respondedBestMove bool

	startTime     time.Time
	initialVisits int64
	lastInfoEmit  time.Time
}

// NewDriver validates cfg and wires a Driver around tree, cache, and
// evaluator. initialVisits records root.N at construction, so visits
// already on tree's root count toward limits.visits.
func NewDriver(tree *Tree, cache nn.EvalCache, evaluator nn.Evaluator, cfg Config, infoSink InfoSink, bestMoveSink BestMoveSink) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	root := tree.Get(tree.Root())
	return &Driver{
		SessionID:     uuid.New(),
		tree:          tree,
		cache:         cache,
		evaluator:     evaluator,
		cfg:           cfg,
		selector:      &Selector{Cpuct: cfg.Cpuct()},
		expander:      &Expander{},
		prefetcher:    &Prefetcher{Cpuct: cfg.Cpuct(), AggressiveCaching: cfg.AggressiveCaching},
		backprop:      &Backpropagator{},
		reporter:      &Reporter{infoSink: infoSink, bestMoveSink: bestMoveSink},
		initialVisits: root.N,
	}, nil
}

// Search runs the worker pool to completion (a stop condition
// triggers, a fatal error occurs, or ctx is cancelled) and returns the
// first fatal error, if any.
func (d *Driver) Search(ctx context.Context) error {
	d.startTime = time.Now()
	d.lastInfoEmit = d.startTime

	root := d.tree.Get(d.tree.Root())
	if len(root.Position.GenerateLegalMoves()) == 0 {
		// spec.md §8 scenario 2: no legal root moves. No workers start,
		// info emission is a no-op, best move is the empty pair.
		d.reporter.EmitBestMove(BestMove{})
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < d.cfg.Workers; i++ {
		g.Go(func() error { return d.runWorker(gctx) })
	}
	if err := g.Wait(); err != nil {
		logging.Logger.Error().
			Err(err).
			Str("session", d.SessionID.String()).
			Msg("search: worker failed")
		return err
	}
	return nil
}

// Stop requests a normal, best-move-emitting halt at the end of the
// current iteration for every worker, per spec.md §5's cancellation
// contract.
func (d *Driver) Stop() {
	d.countersMu.Lock()
	d.stop = true
	d.countersMu.Unlock()
}

// Abort additionally suppresses the final best-move callback.
func (d *Driver) Abort() {
	d.countersMu.Lock()
	d.stop = true
	d.aborted = true
	d.countersMu.Unlock()
}

func (d *Driver) runWorker(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if d.checkStopFast() {
			d.MaybeTriggerStop()
			return nil
		}
		if err := d.iteration(); err != nil {
			return err
		}
		d.MaybeOutputInfo()
		if d.MaybeTriggerStop() {
			return nil
		}
	}
}

func (d *Driver) checkStopFast() bool {
	d.countersMu.Lock()
	defer d.countersMu.Unlock()
	return d.stop
}

// iteration runs one Select→Expand→Batch→Prefetch→Evaluate→Backprop
// pass, exactly spec.md §4.6.
func (d *Driver) iteration() error {
	nodesToProcess := make([]NodeRef, 0, d.cfg.MiniBatchSize)
	batch := NewBatchBuilder(d.tree, d.cache, d.evaluator)

	for i := 0; i < d.cfg.MiniBatchSize; i++ {
		if i > 0 && batch.CacheMisses() == 0 {
			break
		}
		ref, err := d.selector.PickLeafToExtend(d.tree)
		if err != nil {
			break
		}
		nodesToProcess = append(nodesToProcess, ref)

		n := d.tree.Get(ref)
		if n.IsTerminal {
			continue
		}
		if err := d.expander.Expand(d.tree, ref); err != nil {
			d.unwindFullReservation(ref)
			return err
		}
		if n.IsTerminal {
			continue
		}
		batch.Add(ref, true)
	}

	if misses := batch.CacheMisses(); misses > 0 && misses < d.cfg.PrefetchCap {
		d.tree.RLock()
		d.prefetcher.Prefetch(d.tree, batch, d.tree.Root(), d.cfg.PrefetchCap-misses)
		d.tree.RUnlock()
	}

	if batch.Size() > 0 {
		if err := batch.ComputeBlocking(); err != nil {
			return err
		}
	}

	if len(nodesToProcess) > 0 {
		if err := d.backprop.Commit(d.tree, nodesToProcess, batch); err != nil {
			return err
		}
	}
	return nil
}

// unwindFullReservation decrements n_in_flight for ref and every
// ancestor up to the root, used when Expander fails with arena
// exhaustion after Selector already reserved ref — spec.md §7 requires
// this cleanup before the fatal error propagates.
func (d *Driver) unwindFullReservation(ref NodeRef) {
	d.tree.Lock()
	defer d.tree.Unlock()
	cur := ref
	for cur != NilRef {
		n := d.tree.Get(cur)
		n.NInFlight--
		cur = n.Parent
	}
}

// MaybeOutputInfo emits a throttled progress report.
func (d *Driver) MaybeOutputInfo() {
	d.countersMu.Lock()
	due := time.Since(d.lastInfoEmit) >= infoEmitInterval
	if due {
		d.lastInfoEmit = time.Now()
	}
	d.countersMu.Unlock()
	if !due {
		return
	}
	d.reporter.EmitInfo(d.tree, d.cache, d.startTime)
}

// MaybeTriggerStop implements spec.md §4.7: set stop under
// counters_mutex then the tree lock (fixed lock order), and have the
// first worker to observe the transition emit the final response.
func (d *Driver) MaybeTriggerStop() bool {
	d.countersMu.Lock()
	defer d.countersMu.Unlock()

	if !d.stop {
		d.tree.Lock()
		total := d.tree.TotalPlayouts
		elapsedMs := time.Since(d.startTime).Milliseconds()
		lim := d.cfg.Limits
		if lim.Playouts >= 0 && total >= lim.Playouts {
			d.stop = true
		}
		if lim.Visits >= 0 && total+d.initialVisits >= lim.Visits {
			d.stop = true
		}
		if lim.TimeMs >= 0 && elapsedMs >= lim.TimeMs {
			d.stop = true
		}
		d.tree.Unlock()
	}

	if d.stop && !d.respondedBestMove {
		d.respondedBestMove = true
		if !d.aborted {
			d.reporter.EmitInfo(d.tree, d.cache, d.startTime)
			d.reporter.EmitBestMove(d.computeBestMove())
		}
	}
	return d.stop
}

func (d *Driver) computeBestMove() BestMove {
	d.tree.RLock()
	defer d.tree.RUnlock()

	if d.tree.BestChild == NilRef {
		return BestMove{}
	}
	best := d.tree.Get(d.tree.BestChild)
	bm := BestMove{Best: best.Move}

	var ponderRef NodeRef = NilRef
	for c := best.Child; c != NilRef; {
		cn := d.tree.Get(c)
		if ponderRef == NilRef || cn.N > d.tree.Get(ponderRef).N {
			ponderRef = c
		}
		c = cn.Sibling
	}
	if ponderRef != NilRef {
		bm.Ponder = d.tree.Get(ponderRef).Move
	}
	return bm
}
