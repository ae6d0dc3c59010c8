package aggregate

import (
	"fmt"
	"testing"

	"job-aggregator/internal/domain"
)

// two Beijing listings among six elsewhere, interleaved
func mixedResult() domain.AggregatedResult {
	cities := []struct{ city, source string }{
		{"Shanghai", "A"},
		{"Beijing-Haidian", "A"},
		{"Shenzhen", "B"},
		{"Hangzhou", "B"},
		{"beijing·chaoyang", "B"},
		{"Chengdu", "A"},
		{"Wuhan", "B"},
		{"Xi'an", "A"},
	}
	res := domain.AggregatedResult{}
	for i, c := range cities {
		res.Listings = append(res.Listings, domain.Listing{
			Title:  fmt.Sprintf("job %d", i),
			URL:    fmt.Sprintf("https://x/%d", i),
			City:   c.city,
			Source: c.source,
		})
	}
	res.Total = len(res.Listings)
	res.BySource = domain.CountBySource(res.Listings)
	return res
}

func TestFilterByCityScenarioB(t *testing.T) {
	out := FilterByCity(mixedResult(), "Beijing", 5)

	if len(out.Listings) != 5 || out.Total != 5 {
		t.Fatalf("Expected 5 listings, got %d (total %d)", len(out.Listings), out.Total)
	}
	if out.FilteredCount != 3 {
		t.Errorf("Expected filtered_count 3, got %d", out.FilteredCount)
	}
	// matched first, then unmatched in discovery order
	expectedURLs := []string{"https://x/1", "https://x/4", "https://x/0", "https://x/2", "https://x/3"}
	for i, want := range expectedURLs {
		if out.Listings[i].URL != want {
			t.Errorf("Expected listing %d to be %s, got %s", i, want, out.Listings[i].URL)
		}
	}
	if out.BySource.Sum() != out.Total {
		t.Errorf("Expected by_source sum %d, got %d", out.Total, out.BySource.Sum())
	}
}

func TestFilterByCityScenarioC(t *testing.T) {
	out := FilterByCity(mixedResult(), "Beijing", 0)

	if len(out.Listings) != 2 {
		t.Fatalf("Expected 2 listings, got %d", len(out.Listings))
	}
	if out.FilteredCount != 6 {
		t.Errorf("Expected filtered_count 6, got %d", out.FilteredCount)
	}
	if a, _ := out.BySource.Get("A"); a != 1 {
		t.Errorf("Expected A=1, got %d", a)
	}
	if b, _ := out.BySource.Get("B"); b != 1 {
		t.Errorf("Expected B=1, got %d", b)
	}
}

func TestFilterByCityEmptyCityIsNoop(t *testing.T) {
	in := mixedResult()
	out := FilterByCity(in, "  ", 5)
	if out.Total != in.Total || len(out.Listings) != len(in.Listings) || out.FilteredCount != 0 {
		t.Errorf("Expected input unchanged, got %+v", out)
	}
}

func TestFilterByCityKeepsEmptyCity(t *testing.T) {
	in := domain.AggregatedResult{
		Listings: []domain.Listing{
			{Title: "a", URL: "1", City: "", Source: "A"},
			{Title: "b", URL: "2", City: "上海", Source: "A"},
		},
		BySource: domain.BySource{{Source: "A", Count: 2}},
		Total:    2,
	}
	out := FilterByCity(in, "北京", 0)
	if len(out.Listings) != 1 || out.Listings[0].URL != "1" {
		t.Errorf("Expected the listing without a city to be kept, got %+v", out.Listings)
	}
}

func TestFilterByCityKeepsZeroSources(t *testing.T) {
	in := mixedResult()
	in.BySource = append(in.BySource, domain.SourceCount{Source: "failed", Count: 0})

	out := FilterByCity(in, "Beijing", 0)
	if n, ok := out.BySource.Get("failed"); !ok || n != 0 {
		t.Errorf("Expected failed source to stay with 0, got %d (present=%v)", n, ok)
	}
}

func TestFilterByCityBackfillMonotonic(t *testing.T) {
	in := mixedResult()
	prev := -1
	for min := 0; min <= len(in.Listings)+3; min++ {
		out := FilterByCity(in, "Beijing", min)
		n := len(out.Listings)
		if n < prev {
			t.Errorf("minResults=%d: expected at least %d listings, got %d", min, prev, n)
		}
		if n > len(in.Listings) {
			t.Errorf("minResults=%d: expected at most %d listings, got %d", min, len(in.Listings), n)
		}
		if out.Total != n || out.BySource.Sum() != n {
			t.Errorf("minResults=%d: inconsistent stats total=%d sum=%d len=%d", min, out.Total, out.BySource.Sum(), n)
		}
		if out.FilteredCount != len(in.Listings)-n {
			t.Errorf("minResults=%d: expected filtered_count %d, got %d", min, len(in.Listings)-n, out.FilteredCount)
		}
		prev = n
	}
}
