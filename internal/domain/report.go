package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Unspecified is echoed for empty search parameters.
const Unspecified = "不限"

const MessageDone = "搜索完成"

// Params echoes the query back to the caller. Kind-specific fields stay empty
// (and are omitted) for the other kind.
type Params struct {
	Position    string `json:"position"`
	City        string `json:"city"`
	Experience  string `json:"experience,omitempty"`
	Education   string `json:"education"`
	Salary      string `json:"salary,omitempty"`
	Duration    string `json:"duration,omitempty"`
	DaysPerWeek string `json:"days_per_week,omitempty"`
	Page        int    `json:"page"`
	PageSize    int    `json:"page_size"`
}

func NewParams(kind Kind, q Query) Params {
	p := Params{
		Position:  q.Position,
		City:      orUnspecified(q.City),
		Education: orUnspecified(q.Education),
		Page:      q.Page,
		PageSize:  q.PageSize,
	}
	switch kind {
	case KindIntern:
		p.Duration = orUnspecified(q.Duration)
		p.DaysPerWeek = orUnspecified(q.DaysPerWeek)
	default:
		p.Experience = orUnspecified(q.Experience)
		p.Salary = orUnspecified(q.Salary)
	}
	return p
}

func orUnspecified(s string) string {
	if s == "" {
		return Unspecified
	}
	return s
}

type Statistics struct {
	Total         int      `json:"total"`
	BySource      BySource `json:"by_source"`
	FilteredCount int      `json:"filtered_count"`
}

// Report is the serialized output of one search, used for files, the HTTP API,
// the cache and the CLIs. Listings go under "jobs" or "interns" by Kind.
type Report struct {
	Success    bool
	Message    string
	RunID      string
	Kind       Kind
	Params     Params
	Statistics Statistics
	Listings   []Listing
}

// NewReport wraps an aggregation (filtered or not) for output.
func NewReport(kind Kind, q Query, res AggregatedResult, runID string) Report {
	listings := res.Listings
	if listings == nil {
		listings = []Listing{}
	}
	bySource := res.BySource
	if bySource == nil {
		bySource = BySource{}
	}
	return Report{
		Success: true,
		Message: MessageDone,
		RunID:   runID,
		Kind:    kind,
		Params:  NewParams(kind, q),
		Statistics: Statistics{
			Total:         res.Total,
			BySource:      bySource,
			FilteredCount: res.FilteredCount,
		},
		Listings: listings,
	}
}

// ListingsKey is the JSON key holding the listing array for kind.
func ListingsKey(kind Kind) string {
	if kind == KindIntern {
		return "interns"
	}
	return "jobs"
}

type reportJSON struct {
	Success    bool       `json:"success"`
	Message    string     `json:"message"`
	RunID      string     `json:"run_id,omitempty"`
	Params     Params     `json:"params"`
	Statistics Statistics `json:"statistics"`
	Jobs       []Listing  `json:"jobs,omitempty"`
	Interns    []Listing  `json:"interns,omitempty"`
}

func (r Report) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		Success:    r.Success,
		Message:    r.Message,
		RunID:      r.RunID,
		Params:     r.Params,
		Statistics: r.Statistics,
	}
	listings := r.Listings
	if listings == nil {
		listings = []Listing{}
	}
	// an empty slice would vanish under omitempty, so write the field by hand
	b, err := marshalRaw(out)
	if err != nil {
		return nil, err
	}
	arr, err := marshalRaw(listings)
	if err != nil {
		return nil, err
	}
	return append(append(b[:len(b)-1], fmt.Sprintf(",%q:", ListingsKey(r.Kind))...), append(arr, '}')...), nil
}

// marshalRaw is json.Marshal without HTML escaping, so URLs keep their '&'.
func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (r *Report) UnmarshalJSON(data []byte) error {
	var in reportJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	*r = Report{
		Success:    in.Success,
		Message:    in.Message,
		RunID:      in.RunID,
		Kind:       KindJob,
		Params:     in.Params,
		Statistics: in.Statistics,
		Listings:   in.Jobs,
	}
	if _, ok := probe["interns"]; ok {
		r.Kind = KindIntern
		r.Listings = in.Interns
	}
	if r.Listings == nil {
		r.Listings = []Listing{}
	}
	return nil
}
