package export

import (
	"encoding/csv"
	"io"
	"strings"

	"job-aggregator/internal/domain"
)

// Keep header order stable; downstream sheets key on column position.
var listingHeader = []string{
	"SOURCE",
	"TITLE",
	"COMPANY",
	"SALARY",
	"CITY",
	"EXPERIENCE",
	"EDUCATION",
	"DURATION",
	"DAYS_PER_WEEK",
	"COMPANY_TYPE",
	"COMPANY_SIZE",
	"SKILLS",
	"BENEFITS",
	"URL",
	"PUBLISH_TIME",
}

// WriteListingsCSV writes one row per listing with a header row.
func WriteListingsCSV(w io.Writer, listings []domain.Listing) error {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true

	if err := cw.Write(listingHeader); err != nil {
		return err
	}
	for _, l := range listings {
		if err := cw.Write(toRow(l)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func toRow(l domain.Listing) []string {
	return []string{
		l.Source,
		oneLine(l.Title),
		oneLine(l.Company),
		oneLine(l.Salary),
		oneLine(l.City),
		l.Experience,
		l.Education,
		l.Duration,
		l.DaysPerWeek,
		l.CompanyType,
		l.CompanySize,
		joinList(l.Skills),
		joinList(l.Benefits),
		l.URL,
		l.PublishTime,
	}
}

// joinList uses " | " so list cells never need an embedded comma.
func joinList(in []string) string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = oneLine(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, " | ")
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
