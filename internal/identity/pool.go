package identity

import (
	"context"
	"sync"
)

// Result carries one reference's resolution outcome from a worker back to the
// coordinator. Err is non-nil when the reference could not be resolved; that
// fails the one record and never the run.
type Result struct {
	Reference string
	Identity  Identity
	Err       error
}

// ResolveAll resolves the given references across a fixed-size worker pool
// and invokes handle once per result on the calling goroutine. Workers only
// compute (reference → identity | error) and never touch shared state; the
// caller merges results into the cache sequentially, so no locks are needed
// beyond the pool plumbing. Completion order is non-deterministic.
//
// Cancellation stops dispatching new references; in-flight lookups finish and
// their results are still handed to handle. The pool is torn down before
// ResolveAll returns.
func (r *Resolver) ResolveAll(ctx context.Context, references []string, workers int, handle func(Result)) {
	if len(references) == 0 {
		return
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(references) {
		workers = len(references)
	}

	jobs := make(chan string)
	results := make(chan Result)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for reference := range jobs {
				id, err := r.source.FilmLink(ctx, reference)
				results <- Result{Reference: reference, Identity: id, Err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, reference := range references {
			select {
			case jobs <- reference:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for result := range results {
		handle(result)
	}
}
