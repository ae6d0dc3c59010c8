// Package search runs one search end to end: engine, city filter, report,
// and the optional cache, store and event sinks around them. Job and
// internship searches are two Profiles of the same Service.
package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"job-aggregator/internal/aggregate"
	"job-aggregator/internal/cache"
	"job-aggregator/internal/concurrency"
	"job-aggregator/internal/domain"
)

// Profile configures one kind of search.
type Profile struct {
	Kind       domain.Kind
	Sources    []string
	MinResults int
	PageSize   int
	OutputFile string

	// Allowed limits which source ids this kind may run; empty allows any.
	Allowed []string
}

// Request is one caller's search. Empty Sources and nil MinResults fall back
// to the profile.
type Request struct {
	Query      domain.Query
	Sources    []string
	MinResults *int
	// NoCache skips the cache lookup; the result is still cached.
	NoCache bool
}

type ReportCache interface {
	Get(ctx context.Context, k cache.Key) (domain.Report, bool, error)
	Set(ctx context.Context, k cache.Key, r domain.Report) error
}

type RunStore interface {
	SaveRun(ctx context.Context, r domain.Report) error
}

type EventPublisher interface {
	Publish(ctx context.Context, ev cache.RunEvent) error
}

var ErrUnknownKind = errors.New("unknown search kind")

type Service struct {
	engine   *aggregate.Engine
	profiles map[domain.Kind]Profile

	cache  ReportCache
	store  RunStore
	events EventPublisher

	newRunID    func() string
	sinkTimeout time.Duration
}

type Option func(*Service)

func WithCache(c ReportCache) Option { return func(s *Service) { s.cache = c } }
func WithStore(st RunStore) Option { return func(s *Service) { s.store = st } }
func WithEvents(p EventPublisher) Option { return func(s *Service) { s.events = p } }
func WithRunID(fn func() string) Option { return func(s *Service) { s.newRunID = fn } }

func New(engine *aggregate.Engine, profiles []Profile, opts ...Option) *Service {
	s := &Service{
		engine:      engine,
		profiles:    make(map[domain.Kind]Profile, len(profiles)),
		newRunID:    uuid.NewString,
		sinkTimeout: 10 * time.Second,
	}
	for _, p := range profiles {
		s.profiles[p.Kind] = p
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// allow drops ids outside p.Allowed. They are treated like unknown ids.
func (p Profile) allow(ids []string) []string {
	if len(p.Allowed) == 0 {
		return ids
	}
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if slices.ContainsFunc(p.Allowed, func(a string) bool { return strings.EqualFold(a, strings.TrimSpace(id)) }) {
			kept = append(kept, id)
			continue
		}
		log.Printf("WARN: [search] %s search ignores source %q", p.Kind, id)
	}
	return kept
}

func (s *Service) Profile(kind domain.Kind) (Profile, bool) {
	p, ok := s.profiles[kind]
	return p, ok
}

// Search validates req, answers from cache when possible and otherwise runs
// the engine bounded by ctx. A ctx that ends before the engine returns fails
// the whole search.
func (s *Service) Search(ctx context.Context, kind domain.Kind, req Request) (domain.Report, error) {
	p, ok := s.profiles[kind]
	if !ok {
		return domain.Report{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	q := req.Query
	if q.PageSize < 1 && p.PageSize > 0 {
		q.PageSize = p.PageSize
	}
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return domain.Report{}, err
	}

	sources := req.Sources
	if len(sources) == 0 {
		sources = p.Sources
	}
	sources = p.allow(sources)
	minResults := p.MinResults
	if req.MinResults != nil {
		minResults = *req.MinResults
	}
	key := cache.Key{Kind: kind, Query: q, Sources: sources, MinResults: minResults}

	if s.cache != nil && !req.NoCache {
		r, hit, err := s.cache.Get(ctx, key)
		if err != nil {
			log.Printf("WARN: [search] cache lookup: %v", err)
		}
		if hit {
			log.Printf("[search] %s %q served from cache (run %s)", kind, q.Position, r.RunID)
			s.publish(ctx, r, true)
			return r, nil
		}
	}

	start := time.Now()
	res, err := s.engine.AggregateWithin(ctx, q, sources)
	if err != nil {
		return domain.Report{}, err
	}
	res = aggregate.FilterByCity(res, q.City, minResults)

	r := domain.NewReport(kind, q, res, s.newRunID())
	log.Printf("[search] %s %q run %s: total=%d filtered=%d in %s",
		kind, q.Position, r.RunID, r.Statistics.Total, r.Statistics.FilteredCount, time.Since(start).Round(time.Millisecond))

	s.sink(ctx, key, r)
	return r, nil
}

// sink hands r to the configured cache, store and publisher in parallel.
// Failures are logged; the search itself already succeeded.
func (s *Service) sink(ctx context.Context, key cache.Key, r domain.Report) {
	var steps []func(context.Context) error
	if s.cache != nil {
		steps = append(steps, func(ctx context.Context) error { return s.cache.Set(ctx, key, r) })
	}
	if s.store != nil {
		steps = append(steps, func(ctx context.Context) error { return s.store.SaveRun(ctx, r) })
	}
	if s.events != nil {
		steps = append(steps, func(ctx context.Context) error { return s.events.Publish(ctx, cache.NewRunEvent(r, false)) })
	}
	if len(steps) == 0 {
		return
	}

	sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sinkTimeout)
	defer cancel()
	errs := concurrency.ForEach(sinkCtx, steps, concurrency.DefaultOptions(), func(ctx context.Context, _ int, step func(context.Context) error) error {
		return step(ctx)
	})
	for _, err := range errs {
		log.Printf("WARN: [search] run %s: %v", r.RunID, err)
	}
}

func (s *Service) publish(ctx context.Context, r domain.Report, cached bool) {
	if s.events == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sinkTimeout)
	defer cancel()
	if err := s.events.Publish(pubCtx, cache.NewRunEvent(r, cached)); err != nil {
		log.Printf("WARN: [search] publish run %s: %v", r.RunID, err)
	}
}
