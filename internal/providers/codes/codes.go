// Package codes maps free text (city, experience, education) to the numeric
// codes each listing site expects in its search URL.
package codes

import "strings"

type Entry struct {
	Key  string
	Code string
}

// Table is matched in order; the first entry whose key contains the text, or
// is contained by it, wins.
type Table []Entry

// Lookup returns fallback for empty text or when nothing matches.
func (t Table) Lookup(text, fallback string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return fallback
	}
	for _, e := range t {
		if strings.Contains(e.Key, text) || strings.Contains(text, e.Key) {
			return e.Code
		}
	}
	return fallback
}
