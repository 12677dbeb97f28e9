package nn

import "time"

// queuedRequest is one caller's single-position ask.
type queuedRequest struct {
	input  Input
	result chan queuedResponse
}

type queuedResponse struct {
	result Result
	err    error
}

// QueuedEvaluator wraps another Evaluator with a time-windowed
// micro-batching queue: callers submit one position at a time via
// Evaluate, a background goroutine collects whatever arrives within
// the configured timeout (or maxBatch requests, whichever comes
// first) and forwards them as a single EvaluateBatch call. A single
// search.Driver never needs this — its own BatchBuilder already
// assembles a batch across one tree's workers — but several
// independent Drivers sharing one evaluator (concurrent selfplay
// games hitting the same GPU session) have no shared batch-assembly
// stage of their own, which is exactly what this queue gives them.
type QueuedEvaluator struct {
	inner   Evaluator
	queue   chan queuedRequest
	closeCh chan struct{}

	maxBatch int
	timeout  time.Duration
}

// NewQueuedEvaluator starts the background batching goroutine
// immediately.
func NewQueuedEvaluator(inner Evaluator, maxBatch int, timeout time.Duration) *QueuedEvaluator {
	if maxBatch <= 0 {
		maxBatch = MaxBatchSize
	}
	if timeout <= 0 {
		timeout = time.Millisecond
	}
	q := &QueuedEvaluator{
		inner:    inner,
		queue:    make(chan queuedRequest, maxBatch*10),
		closeCh:  make(chan struct{}),
		maxBatch: maxBatch,
		timeout:  timeout,
	}
	go q.batchLoop()
	return q
}

// Evaluate submits a single position and blocks for its result.
func (q *QueuedEvaluator) Evaluate(input Input) (Result, error) {
	resp := make(chan queuedResponse, 1)
	q.queue <- queuedRequest{input: input, result: resp}
	r := <-resp
	return r.result, r.err
}

// EvaluateBatch satisfies Evaluator by submitting every input through
// the same queue and collecting the responses, one input at a time,
// each waiting for its response before the next is submitted.
// SearchDriver calls this when cmd/selfplay's benchmark mode hands it
// a QueuedEvaluator.
func (q *QueuedEvaluator) EvaluateBatch(inputs []Input) ([]Result, error) {
	results := make([]Result, len(inputs))
	for i, in := range inputs {
		r, err := q.Evaluate(in)
		if err != nil {
			return nil, err
		}
		results[i] = r
	}
	return results, nil
}

func (q *QueuedEvaluator) Close() {
	close(q.closeCh)
}

func (q *QueuedEvaluator) batchLoop() {
	requests := make([]queuedRequest, 0, q.maxBatch)
	for {
		requests = requests[:0]
		select {
		case <-q.closeCh:
			return
		case req, ok := <-q.queue:
			if !ok {
				return
			}
			requests = append(requests, req)
		}

		timeout := time.After(q.timeout)
	collect:
		for len(requests) < q.maxBatch {
			select {
			case r := <-q.queue:
				requests = append(requests, r)
			case <-timeout:
				break collect
			case <-q.closeCh:
				break collect
			}
		}

		q.processBatch(requests)
	}
}

func (q *QueuedEvaluator) processBatch(requests []queuedRequest) {
	inputs := make([]Input, len(requests))
	for i, r := range requests {
		inputs[i] = r.input
	}
	results, err := q.inner.EvaluateBatch(inputs)
	if err != nil {
		for _, r := range requests {
			r.result <- queuedResponse{err: err}
		}
		return
	}
	for i, r := range requests {
		r.result <- queuedResponse{result: results[i]}
	}
}
