// Package watch re-validates a data directory whenever its files change.
// Edits arrive in bursts, so events are debounced, and a newer change always
// wins: the run in flight is cancelled and its result dropped.
package watch

import (
	"context"
	"sync"

	"github.com/christopherklint97/preflight/internal/entity"
	"github.com/christopherklint97/preflight/internal/validate"
)

// Result is one finished validation run. Generation orders runs: a consumer
// holding a result from generation n can ignore anything older.
type Result struct {
	Generation uint64
	DataSet    entity.DataSet
	Report     *validate.Report
	Err        error
}

// Runner serializes validation runs with last-request-wins semantics. At
// most one run is in flight; Submit cancels the previous run and bumps the
// generation, and only the run still current at completion delivers its
// result.
type Runner struct {
	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	results chan Result
}

func NewRunner() *Runner {
	return &Runner{results: make(chan Result, 1)}
}

// Results delivers at most the latest outcome; superseded runs never send.
func (r *Runner) Results() <-chan Result {
	return r.results
}

// Submit starts a validation of whatever load produces, cancelling any run
// still in flight. It returns the new run's generation.
func (r *Runner) Submit(ctx context.Context, load func(context.Context) (entity.DataSet, error)) uint64 {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.gen++
	gen := r.gen
	r.mu.Unlock()

	go func() {
		defer cancel()

		ds, err := load(runCtx)
		if runCtx.Err() != nil {
			return
		}

		res := Result{Generation: gen, DataSet: ds, Err: err}
		if err == nil {
			res.Report = validate.Aggregate(validate.All(ds))
		}

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.gen != gen {
			return
		}
		// Replace a stale buffered result rather than blocking on a slow
		// consumer. All sends happen under the lock, so after the drain the
		// one-slot buffer is free and the send cannot block.
		select {
		case <-r.results:
		default:
		}
		r.results <- res
	}()

	return gen
}

// Stop cancels any run in flight.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}
