package providers

import (
	"context"
	"strings"

	"job-aggregator/internal/domain"
)

// Adapter queries one external listing site.
//
// Name is the human readable label used as the statistics key. Fetch returns an
// empty slice for "no results" and a *domain.AdapterError for hard failures.
// Each adapter owns its own timeout.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, q domain.Query) ([]domain.Listing, error)
}

// Registry maps stable source ids ("liepin", "shixiseng") to adapters, keeping
// registration order.
type Registry struct {
	ids  []string
	byID map[string]Adapter
}

func NewRegistry() *Registry {
	return &Registry{byID: map[string]Adapter{}}
}

// Register adds or replaces the adapter for id.
func (r *Registry) Register(id string, a Adapter) {
	id = normalizeID(id)
	if _, ok := r.byID[id]; !ok {
		r.ids = append(r.ids, id)
	}
	r.byID[id] = a
}

func (r *Registry) Lookup(id string) (Adapter, bool) {
	a, ok := r.byID[normalizeID(id)]
	return a, ok
}

// IDs returns the registered ids in registration order.
func (r *Registry) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

// Resolve keeps the first occurrence of every known id, in the order given.
// Unknown ids are returned separately so callers can log them.
func (r *Registry) Resolve(ids []string) (adapters []Adapter, unknown []string) {
	seen := map[string]bool{}
	for _, raw := range ids {
		id := normalizeID(raw)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		a, ok := r.byID[id]
		if !ok {
			unknown = append(unknown, raw)
			continue
		}
		adapters = append(adapters, a)
	}
	return adapters, unknown
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
