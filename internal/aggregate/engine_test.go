package aggregate

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"job-aggregator/internal/domain"
	"job-aggregator/internal/providers"
)

// MockAdapter is a providers.Adapter driven by func fields.
type MockAdapter struct {
	NameFunc  func() string
	FetchFunc func(ctx context.Context, q domain.Query) ([]domain.Listing, error)
}

func (m *MockAdapter) Name() string { return m.NameFunc() }

func (m *MockAdapter) Fetch(ctx context.Context, q domain.Query) ([]domain.Listing, error) {
	return m.FetchFunc(ctx, q)
}

func staticAdapter(name string, listings []domain.Listing, err error) *MockAdapter {
	return &MockAdapter{
		NameFunc: func() string { return name },
		FetchFunc: func(ctx context.Context, q domain.Query) ([]domain.Listing, error) {
			return listings, err
		},
	}
}

func makeListings(source string, n int, urlPrefix string) []domain.Listing {
	out := make([]domain.Listing, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, domain.Listing{
			Title:   fmt.Sprintf("%s job %d", source, i),
			Company: "Acme",
			URL:     fmt.Sprintf("%s/%d", urlPrefix, i),
			Source:  source,
		})
	}
	return out
}

func registryOf(adapters map[string]providers.Adapter, order ...string) *providers.Registry {
	reg := providers.NewRegistry()
	for _, id := range order {
		reg.Register(id, adapters[id])
	}
	return reg
}

var testQuery = domain.Query{Position: "Go", Page: 1, PageSize: 20}

func TestAggregateScenarioA(t *testing.T) {
	first := makeListings("A", 5, "https://a")
	third := makeListings("C", 3, "https://c")
	third[1].URL = first[2].URL // shared across sources

	reg := registryOf(map[string]providers.Adapter{
		"a": staticAdapter("A", first, nil),
		"b": staticAdapter("B", nil, errors.New("captcha")),
		"c": &MockAdapter{
			NameFunc: func() string { return "C" },
			FetchFunc: func(ctx context.Context, q domain.Query) ([]domain.Listing, error) {
				// finish after A so the shared url is charged to A
				time.Sleep(50 * time.Millisecond)
				return third, nil
			},
		},
	}, "a", "b", "c")

	res := New(reg).Aggregate(context.Background(), testQuery, []string{"a", "b", "c"})

	if res.Total != 7 {
		t.Errorf("Expected total 7, got %d", res.Total)
	}
	if len(res.Listings) != res.Total {
		t.Errorf("Expected %d listings, got %d", res.Total, len(res.Listings))
	}
	expected := map[string]int{"A": 5, "B": 0, "C": 2}
	for name, want := range expected {
		got, ok := res.BySource.Get(name)
		if !ok || got != want {
			t.Errorf("Expected by_source[%s]=%d, got %d (present=%v)", name, want, got, ok)
		}
	}
	if res.BySource.Sum() != res.Total {
		t.Errorf("Expected by_source sum %d, got %d", res.Total, res.BySource.Sum())
	}
}

func TestAggregateDropsMalformed(t *testing.T) {
	listings := []domain.Listing{
		{Title: "ok", URL: "https://x/1", Source: "A"},
		{Source: "A"},
		{Company: "Acme", Source: "A"},
		{Title: "", URL: "https://x/2", Source: "A"},
	}
	reg := registryOf(map[string]providers.Adapter{"a": staticAdapter("A", listings, nil)}, "a")

	res := New(reg).Aggregate(context.Background(), testQuery, []string{"a"})

	if res.Total != 1 {
		t.Fatalf("Expected total 1, got %d", res.Total)
	}
	for _, l := range res.Listings {
		if l.Title == "" {
			t.Errorf("Expected no listing without title, got %+v", l)
		}
	}
}

func TestAggregateFailingSource(t *testing.T) {
	panicking := &MockAdapter{
		NameFunc: func() string { return "P" },
		FetchFunc: func(ctx context.Context, q domain.Query) ([]domain.Listing, error) {
			panic("selector changed")
		},
	}
	// partial results returned alongside an error are discarded
	failing := staticAdapter("F", makeListings("F", 2, "https://f"), errors.New("timeout"))
	healthy := staticAdapter("H", makeListings("H", 4, "https://h"), nil)

	reg := registryOf(map[string]providers.Adapter{"p": panicking, "f": failing, "h": healthy}, "p", "f", "h")

	res := New(reg).Aggregate(context.Background(), testQuery, []string{"p", "f", "h"})

	if res.Total != 4 {
		t.Errorf("Expected total 4, got %d", res.Total)
	}
	for _, name := range []string{"P", "F"} {
		if got, ok := res.BySource.Get(name); !ok || got != 0 {
			t.Errorf("Expected by_source[%s]=0, got %d (present=%v)", name, got, ok)
		}
	}
	if got, _ := res.BySource.Get("H"); got != 4 {
		t.Errorf("Expected by_source[H]=4, got %d", got)
	}
}

func TestAggregateIgnoresUnknownAndRepeatedIDs(t *testing.T) {
	calls := 0
	counting := &MockAdapter{
		NameFunc: func() string { return "A" },
		FetchFunc: func(ctx context.Context, q domain.Query) ([]domain.Listing, error) {
			calls++
			return makeListings("A", 1, "https://a"), nil
		},
	}
	reg := registryOf(map[string]providers.Adapter{"a": counting}, "a")

	res := New(reg).Aggregate(context.Background(), testQuery, []string{"a", "nope", "A", " a "})

	if calls != 1 {
		t.Errorf("Expected adapter to be called once, got %d", calls)
	}
	if len(res.BySource) != 1 {
		t.Errorf("Expected one by_source entry, got %+v", res.BySource)
	}
}

func TestAggregateNoSources(t *testing.T) {
	res := New(providers.NewRegistry()).Aggregate(context.Background(), testQuery, nil)
	if res.Total != 0 || len(res.Listings) != 0 || len(res.BySource) != 0 {
		t.Errorf("Expected empty result, got %+v", res)
	}
}

func TestAggregateCompletionOrder(t *testing.T) {
	release := make(chan struct{})
	slow := &MockAdapter{
		NameFunc: func() string { return "slow" },
		FetchFunc: func(ctx context.Context, q domain.Query) ([]domain.Listing, error) {
			<-release
			return makeListings("slow", 1, "https://s"), nil
		},
	}
	fast := &MockAdapter{
		NameFunc: func() string { return "fast" },
		FetchFunc: func(ctx context.Context, q domain.Query) ([]domain.Listing, error) {
			// a slow sibling must not hold this source back
			defer close(release)
			return makeListings("fast", 1, "https://f"), nil
		},
	}
	reg := registryOf(map[string]providers.Adapter{"slow": slow, "fast": fast}, "slow", "fast")

	res := New(reg).Aggregate(context.Background(), testQuery, []string{"slow", "fast"})

	if len(res.BySource) != 2 || res.BySource[0].Source != "fast" || res.BySource[1].Source != "slow" {
		t.Errorf("Expected completion order [fast slow], got %+v", res.BySource)
	}
	if res.Listings[0].Source != "fast" {
		t.Errorf("Expected fast listings first, got %+v", res.Listings[0])
	}
}

func TestAggregateDoesNotCancelAdapters(t *testing.T) {
	var sawErr error
	a := &MockAdapter{
		NameFunc: func() string { return "A" },
		FetchFunc: func(ctx context.Context, q domain.Query) ([]domain.Listing, error) {
			sawErr = ctx.Err()
			return makeListings("A", 1, "https://a"), nil
		},
	}
	reg := registryOf(map[string]providers.Adapter{"a": a}, "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := New(reg).Aggregate(ctx, testQuery, []string{"a"})

	if sawErr != nil {
		t.Errorf("Expected adapter context to be live, got %v", sawErr)
	}
	if res.Total != 1 {
		t.Errorf("Expected total 1, got %d", res.Total)
	}
}

func TestAggregateWithinDeadline(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	hung := &MockAdapter{
		NameFunc: func() string { return "hung" },
		FetchFunc: func(ctx context.Context, q domain.Query) ([]domain.Listing, error) {
			<-block
			return nil, nil
		},
	}
	reg := registryOf(map[string]providers.Adapter{"hung": hung}, "hung")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := New(reg).AggregateWithin(ctx, testQuery, []string{"hung"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestAggregateWithinCompletes(t *testing.T) {
	reg := registryOf(map[string]providers.Adapter{"a": staticAdapter("A", makeListings("A", 2, "https://a"), nil)}, "a")

	res, err := New(reg).AggregateWithin(context.Background(), testQuery, []string{"a"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if res.Total != 2 {
		t.Errorf("Expected total 2, got %d", res.Total)
	}
}
