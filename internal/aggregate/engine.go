// Package aggregate fans a query out to every enabled source adapter, merges
// their listings through a shared deduplicator and narrows the result by city.
package aggregate

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"job-aggregator/internal/dedup"
	"job-aggregator/internal/domain"
	"job-aggregator/internal/providers"
)

// Engine holds only the static source registration; it keeps no state between
// calls.
type Engine struct {
	registry *providers.Registry
}

func New(registry *providers.Registry) *Engine {
	return &Engine{registry: registry}
}

type sourceResult struct {
	name     string
	listings []domain.Listing
	err      error
	elapsed  time.Duration
}

// Aggregate runs one goroutine per enabled source and waits for all of them.
// Unknown and repeated ids are ignored. It never fails: a source that errors
// (or panics) is recorded with a count of 0.
//
// Cancellation of ctx is not propagated to adapters; each adapter bounds its
// own calls. Callers that need a global deadline use AggregateWithin.
func (e *Engine) Aggregate(ctx context.Context, q domain.Query, sourceIDs []string) domain.AggregatedResult {
	adapters, unknown := e.registry.Resolve(sourceIDs)
	for _, id := range unknown {
		log.Printf("[engine] ignoring unknown source %q", id)
	}

	fetchCtx := context.WithoutCancel(ctx)

	var (
		mu       sync.Mutex
		seen     = dedup.New()
		admitted = make([]domain.Listing, 0)
		bySource = domain.BySource{}
	)

	var wg sync.WaitGroup
	for _, a := range adapters {
		wg.Add(1)
		go func(a providers.Adapter) {
			defer wg.Done()

			r := fetchOne(fetchCtx, a, q)
			if r.err != nil {
				log.Printf("WARN: [engine] %s failed after %s: %v", r.name, r.elapsed.Round(time.Millisecond), r.err)
				r.listings = nil
			}

			mu.Lock()
			n := 0
			for _, l := range r.listings {
				if seen.AdmitLocked(l) {
					admitted = append(admitted, l)
					n++
				}
			}
			bySource = bySource.Add(r.name, n)
			mu.Unlock()

			if r.err == nil {
				log.Printf("[engine] %s done in %s: fetched=%d admitted=%d",
					r.name, r.elapsed.Round(time.Millisecond), len(r.listings), n)
			}
		}(a)
	}
	wg.Wait()

	return domain.AggregatedResult{
		Total:    len(admitted),
		BySource: bySource,
		Listings: admitted,
	}
}

// AggregateWithin is Aggregate bounded by ctx. When ctx ends first the call is
// abandoned and ctx.Err() returned; in-flight adapters finish on their own.
func (e *Engine) AggregateWithin(ctx context.Context, q domain.Query, sourceIDs []string) (domain.AggregatedResult, error) {
	done := make(chan domain.AggregatedResult, 1)
	go func() {
		done <- e.Aggregate(ctx, q, sourceIDs)
	}()

	select {
	case res := <-done:
		return res, nil
	case <-ctx.Done():
		return domain.AggregatedResult{}, fmt.Errorf("aggregate: %w", ctx.Err())
	}
}

func fetchOne(ctx context.Context, a providers.Adapter, q domain.Query) (r sourceResult) {
	start := time.Now()
	r.name = a.Name()
	defer func() {
		r.elapsed = time.Since(start)
		if p := recover(); p != nil {
			r.listings = nil
			r.err = domain.NewAdapterError(r.name, fmt.Errorf("panic: %v", p))
		}
	}()

	listings, err := a.Fetch(ctx, q)
	if err != nil {
		r.err = domain.NewAdapterError(r.name, err)
		return r
	}
	r.listings = listings
	return r
}
