// Package concurrency holds a small bounded worker pool used for batches of
// independent work such as scheduled searches and post-run sinks.
package concurrency

import (
	"context"
	"sync"
)

type ParallelOptions struct {
	// MaxWorkers caps concurrently running items; <= 0 means 10.
	MaxWorkers int
}

func DefaultOptions() ParallelOptions {
	return ParallelOptions{MaxWorkers: 10}
}

func (o ParallelOptions) workers(n int) int {
	w := o.MaxWorkers
	if w <= 0 {
		w = 10
	}
	if w > n {
		w = n
	}
	return w
}

// run feeds item indexes to a bounded set of workers. Items still queued
// when ctx is done are skipped without calling fn.
func run(ctx context.Context, n int, opts ParallelOptions, fn func(ctx context.Context, i int)) {
	jobs := make(chan int, n)
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := opts.workers(n); w > 0; w-- {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					return
				}
				fn(ctx, i)
			}
		}()
	}
	wg.Wait()
}

// ProcessParallel calls itemFunc for every item and returns the results in
// input order. Errors are returned in completion order; skipped items keep
// the zero value of R.
func ProcessParallel[T any, R any](
	ctx context.Context,
	items []T,
	opts ParallelOptions,
	itemFunc func(ctx context.Context, index int, item T) (R, error),
) ([]R, []error) {
	if len(items) == 0 {
		return []R{}, nil
	}

	results := make([]R, len(items))
	var (
		mu   sync.Mutex
		errs []error
	)
	run(ctx, len(items), opts, func(ctx context.Context, i int) {
		r, err := itemFunc(ctx, i, items[i])
		results[i] = r
		if err != nil {
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}
	})
	return results, errs
}

// ForEach is ProcessParallel for side effects only.
func ForEach[T any](
	ctx context.Context,
	items []T,
	opts ParallelOptions,
	itemFunc func(ctx context.Context, index int, item T) error,
) []error {
	if len(items) == 0 {
		return nil
	}
	_, errs := ProcessParallel(ctx, items, opts, func(ctx context.Context, i int, item T) (struct{}, error) {
		return struct{}{}, itemFunc(ctx, i, item)
	})
	return errs
}
