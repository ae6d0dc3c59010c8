package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SourceCount is one entry of the per-source statistics.
type SourceCount struct {
	Source string
	Count  int
}

// BySource keeps per-source counts in insertion order. It serializes as a JSON
// object whose keys appear in that order.
type BySource []SourceCount

// Get returns the count recorded for source.
func (b BySource) Get(source string) (int, bool) {
	for _, sc := range b {
		if sc.Source == source {
			return sc.Count, true
		}
	}
	return 0, false
}

// Add increments source by n, appending it when unseen.
func (b BySource) Add(source string, n int) BySource {
	for i := range b {
		if b[i].Source == source {
			b[i].Count += n
			return b
		}
	}
	return append(b, SourceCount{Source: source, Count: n})
}

func (b BySource) Sum() int {
	total := 0
	for _, sc := range b {
		total += sc.Count
	}
	return total
}

func (b BySource) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sc := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(sc.Source)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		fmt.Fprintf(&buf, "%d", sc.Count)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (b *BySource) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*b = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("by_source: expected object, got %v", tok)
	}
	out := BySource{}
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := kt.(string)
		if !ok {
			return fmt.Errorf("by_source: expected key, got %v", kt)
		}
		var n int
		if err := dec.Decode(&n); err != nil {
			return fmt.Errorf("by_source[%s]: %w", key, err)
		}
		out = append(out, SourceCount{Source: key, Count: n})
	}
	*b = out
	return nil
}

// AggregatedResult is the engine's output for one search call.
type AggregatedResult struct {
	Total         int
	BySource      BySource
	Listings      []Listing
	FilteredCount int
}

// CountBySource rebuilds per-source counts from the listings' Source field,
// in order of first appearance.
func CountBySource(listings []Listing) BySource {
	out := BySource{}
	for _, l := range listings {
		out = out.Add(l.Source, 1)
	}
	return out
}
