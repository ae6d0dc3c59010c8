// Package scheduler re-runs saved searches on a cron interval so the store
// and cache stay warm without a caller.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"job-aggregator/internal/concurrency"
	"job-aggregator/internal/domain"
	"job-aggregator/internal/search"
)

// SavedSearch is one entry of SCHEDULED_SEARCHES.
type SavedSearch struct {
	Kind     domain.Kind
	Position string
	City     string
}

func (s SavedSearch) String() string {
	if s.City == "" {
		return fmt.Sprintf("%s:%s", s.Kind, s.Position)
	}
	return fmt.Sprintf("%s:%s@%s", s.Kind, s.Position, s.City)
}

// ParseSavedSearches parses "kind:position@city;kind:position" (the city is
// optional). Blank entries are skipped; anything else malformed is an error.
func ParseSavedSearches(spec string) ([]SavedSearch, error) {
	var out []SavedSearch
	for _, raw := range strings.Split(spec, ";") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		kindText, rest, ok := strings.Cut(raw, ":")
		if !ok {
			return nil, fmt.Errorf("saved search %q: want kind:position[@city]", raw)
		}
		kind, ok := domain.ParseKind(kindText)
		if !ok {
			return nil, fmt.Errorf("saved search %q: unknown kind %q", raw, kindText)
		}
		position, city, _ := strings.Cut(rest, "@")
		position = strings.TrimSpace(position)
		if position == "" {
			return nil, fmt.Errorf("saved search %q: empty position", raw)
		}
		out = append(out, SavedSearch{Kind: kind, Position: position, City: strings.TrimSpace(city)})
	}
	return out, nil
}

type Searcher interface {
	Search(ctx context.Context, kind domain.Kind, req search.Request) (domain.Report, error)
}

type Scheduler struct {
	cron     *cron.Cron
	searcher Searcher
	searches []SavedSearch
	spec     string
	workers  int
	// Timeout bounds each saved search.
	Timeout time.Duration
}

// New creates a Scheduler that fires every intervalHours hours.
func New(searcher Searcher, searches []SavedSearch, intervalHours int) *Scheduler {
	if intervalHours <= 0 {
		intervalHours = 6
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLogger(cron.DefaultLogger)),
		searcher: searcher,
		searches: searches,
		spec:     fmt.Sprintf("@every %dh", intervalHours),
		workers:  2,
		Timeout:  3 * time.Minute,
	}
}

// Start registers the cron job, starts it, and runs one cycle immediately in
// the background.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}
	s.cron.Start()
	log.Printf("[scheduler] cron started, spec %s, %d saved search(es)", s.spec, len(s.searches))

	go s.RunOnce(ctx)
	return nil
}

// Stop stops the cron and waits for a running cycle to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Println("[scheduler] cron stopped")
}

// RunOnce runs every saved search and returns the failures.
func (s *Scheduler) RunOnce(ctx context.Context) []error {
	if len(s.searches) == 0 {
		log.Println("[scheduler] no saved searches, nothing to run")
		return nil
	}
	log.Printf("[scheduler] cycle started: %d search(es)", len(s.searches))

	var ok atomic.Int32
	errs := concurrency.ForEach(ctx, s.searches, concurrency.ParallelOptions{MaxWorkers: s.workers},
		func(ctx context.Context, _ int, ss SavedSearch) error {
			runCtx, cancel := context.WithTimeout(ctx, s.Timeout)
			defer cancel()

			r, err := s.searcher.Search(runCtx, ss.Kind, search.Request{
				Query:   domain.Query{Position: ss.Position, City: ss.City},
				NoCache: true,
			})
			if err != nil {
				return fmt.Errorf("%s: %w", ss, err)
			}
			log.Printf("[scheduler] %s: run %s total=%d", ss, r.RunID, r.Statistics.Total)
			ok.Add(1)
			return nil
		})
	failed := len(errs)
	// ForEach drops queued searches once ctx is done without reporting them
	if skipped := len(s.searches) - int(ok.Load()) - failed; skipped > 0 {
		errs = append(errs, fmt.Errorf("%d search(es) skipped: %w", skipped, context.Cause(ctx)))
	}
	for _, err := range errs {
		log.Printf("WARN: [scheduler] %v", err)
	}
	log.Printf("[scheduler] cycle complete: %d ok, %d failed, %d skipped",
		ok.Load(), failed, len(s.searches)-int(ok.Load())-failed)
	return errs
}
