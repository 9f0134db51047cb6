// Package batch runs independent best-effort operations concurrently.
// Individual failures never propagate; callers only learn how many settled
// each way.
package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/sourcegraph/conc/pool"
)

// Op is one independent operation.
type Op func(ctx context.Context) error

// Result reports how the operations settled. Errors is indexed like the ops
// passed to Run; nil entries succeeded.
type Result struct {
	Attempted int
	Succeeded int
	Failed    int
	Errors    []error
}

// Err joins the individual failures, or returns nil when all succeeded.
func (r Result) Err() error {
	var joined error
	for i, err := range r.Errors {
		if err == nil {
			continue
		}
		if joined == nil {
			joined = fmt.Errorf("op %d: %w", i, err)
			continue
		}
		joined = fmt.Errorf("%w; op %d: %w", joined, i, err)
	}
	return joined
}

// Run starts every op, waits for all of them to settle and reports the
// tally. A positive timeout bounds each op; cancellation of ctx is passed
// through. A panicking op counts as failed.
func Run(ctx context.Context, timeout time.Duration, ops ...Op) Result {
	res := Result{Attempted: len(ops), Errors: make([]error, len(ops))}
	if len(ops) == 0 {
		return res
	}

	p := pool.New().WithMaxGoroutines(len(ops)).WithContext(ctx)
	for i, op := range ops {
		p.Go(func(ctx context.Context) error {
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			res.Errors[i] = safeCall(ctx, op)
			return nil
		})
	}
	_ = p.Wait()

	for _, err := range res.Errors {
		if err != nil {
			res.Failed++
		} else {
			res.Succeeded++
		}
	}
	return res
}

func safeCall(ctx context.Context, op Op) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return op(ctx)
}
