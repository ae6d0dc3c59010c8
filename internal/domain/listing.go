package domain

import "strings"

// Listing is the normalized representation of one job or internship posting.
// Every source adapter maps into this model; the aggregation layer never mutates it.
type Listing struct {
	Title       string   `json:"title"`
	Company     string   `json:"company"`
	Salary      string   `json:"salary"` // free text, unit varies per source
	City        string   `json:"city"`
	Experience  string   `json:"experience"`
	Education   string   `json:"education"`
	Duration    string   `json:"duration,omitempty"`      // interns only
	DaysPerWeek string   `json:"days_per_week,omitempty"` // interns only
	CompanyType string   `json:"company_type"`
	CompanySize string   `json:"company_size"`
	Skills      []string `json:"skills"`
	Benefits    []string `json:"benefits"`
	URL         string   `json:"job_url"`
	Source      string   `json:"source"` // display name of the adapter
	PublishTime string   `json:"publish_time"`
	Description string   `json:"description"`
}

// MarshalJSON keeps skills/benefits as arrays even when the adapter left them nil.
func (l Listing) MarshalJSON() ([]byte, error) {
	type plain Listing
	p := plain(l)
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Benefits == nil {
		p.Benefits = []string{}
	}
	return marshalRaw(p)
}

// keySep joins title and company in the fallback identity key.
const keySep = "\x1f"

// IdentityKey returns the URL when present, otherwise title+company.
// An empty string means no identity can be formed.
func (l Listing) IdentityKey() string {
	if u := strings.TrimSpace(l.URL); u != "" {
		return u
	}
	title := strings.TrimSpace(l.Title)
	company := strings.TrimSpace(l.Company)
	if title == "" && company == "" {
		return ""
	}
	return title + keySep + company
}
