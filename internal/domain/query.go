package domain

import "strings"

// Kind selects which family of sources a search runs against.
type Kind string

const (
	KindJob    Kind = "job"
	KindIntern Kind = "intern"
)

// ParseKind accepts "job(s)" and "intern(s)".
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "job", "jobs":
		return KindJob, true
	case "intern", "interns", "internship":
		return KindIntern, true
	}
	return "", false
}

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// Query is shared read-only by every adapter running for one search.
type Query struct {
	Position    string `json:"position"`
	City        string `json:"city,omitempty"`
	Education   string `json:"education,omitempty"`
	Experience  string `json:"experience,omitempty"`
	Salary      string `json:"salary,omitempty"`
	Duration    string `json:"duration,omitempty"`
	DaysPerWeek string `json:"days_per_week,omitempty"`
	Page        int    `json:"page,omitempty"`
	PageSize    int    `json:"page_size,omitempty"`
}

// Normalize trims text fields and applies pagination defaults.
func (q Query) Normalize() Query {
	q.Position = strings.TrimSpace(q.Position)
	q.City = strings.TrimSpace(q.City)
	q.Education = strings.TrimSpace(q.Education)
	q.Experience = strings.TrimSpace(q.Experience)
	q.Salary = strings.TrimSpace(q.Salary)
	q.Duration = strings.TrimSpace(q.Duration)
	q.DaysPerWeek = strings.TrimSpace(q.DaysPerWeek)
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	return q
}

func (q Query) Validate() error {
	if strings.TrimSpace(q.Position) == "" {
		return ErrEmptyPosition
	}
	if q.Page < 1 || q.PageSize < 1 {
		return ErrBadPagination
	}
	return nil
}
