package request

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/transitnetworks/raptorcore/raptor"
	"github.com/transitnetworks/raptorcore/tdp"
)

// PlainTask is one independent plain-worker search to fan out under
// the "parallel" optimization: a distinct TDP (one per service-day or
// randomized-schedule seed, spec §5 "a request can fan out independent
// Workers ... onto a thread pool") answering the same Request shape.
type PlainTask struct {
	Label    string
	Provider tdp.Provider
	Req      Request
}

// PlainTaskResult pairs a task's label with its outcome so RunParallel
// callers can tell results apart without depending on slice order.
type PlainTaskResult struct {
	Label  string
	Result raptor.PlainResult
}

// RunParallel fans tasks across a bounded goroutine pool, grounded on
// SPEC_FULL.md §6's "errgroup.Group plus errgroup.SetLimit, bounding
// concurrent Workers to runtime.GOMAXPROCS(0)". Each task gets its own
// Worker via Build, so no lifecycle.Context, fares cache, or pareto
// listener is shared across goroutines — only the (immutable) TDP each
// task names. Returns on the first task error, cancelling the rest via
// ctx.
func RunParallel(ctx context.Context, tasks []PlainTask) ([]PlainTaskResult, error) {
	results := make([]PlainTaskResult, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxParallelism())

	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			worker := Build(task.Provider, task.Req)
			results[i] = PlainTaskResult{Label: task.Label, Result: worker.Run()}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
