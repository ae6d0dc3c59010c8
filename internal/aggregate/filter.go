package aggregate

import (
	"strings"

	"job-aggregator/internal/citymatch"
	"job-aggregator/internal/domain"
)

// FilterByCity keeps listings whose city matches city. When fewer than
// minResults match, the earliest unmatched listings are appended until
// minResults is reached (minResults 0 means strict). Per-source counts are
// recomputed over the output. An empty city returns res unchanged.
func FilterByCity(res domain.AggregatedResult, city string, minResults int) domain.AggregatedResult {
	if strings.TrimSpace(city) == "" {
		return res
	}

	matched := make([]domain.Listing, 0, len(res.Listings))
	var unmatched []domain.Listing
	for _, l := range res.Listings {
		if citymatch.Match(l.City, city) {
			matched = append(matched, l)
		} else {
			unmatched = append(unmatched, l)
		}
	}

	if need := minResults - len(matched); need > 0 {
		if need > len(unmatched) {
			need = len(unmatched)
		}
		matched = append(matched, unmatched[:need]...)
	}

	return domain.AggregatedResult{
		Total:         len(matched),
		BySource:      recount(res.BySource, matched),
		Listings:      matched,
		FilteredCount: len(res.Listings) - len(matched),
	}
}

// recount keeps the source order (and zero entries) of before, with counts
// taken from listings.
func recount(before domain.BySource, listings []domain.Listing) domain.BySource {
	out := make(domain.BySource, 0, len(before))
	for _, sc := range before {
		out = append(out, domain.SourceCount{Source: sc.Source})
	}
	for _, l := range listings {
		out = out.Add(l.Source, 1)
	}
	return out
}
