// Package citymatch decides whether a listing's free-text location belongs to
// a requested city, tolerating district suffixes and mixed separators.
package citymatch

import "strings"

// Sep is the canonical separator between a city and its district.
const Sep = "·"

var sepReplacer = strings.NewReplacer("-", Sep, " ", Sep)

// Normalize lowercases, trims and rewrites "-" and " " to Sep.
func Normalize(s string) string {
	return sepReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// MainCity returns the part of a normalized location before the first Sep.
func MainCity(normalized string) string {
	if i := strings.Index(normalized, Sep); i >= 0 {
		return normalized[:i]
	}
	return normalized
}

// Match reports whether listingCity should count as target. An empty listing
// city is a data gap and always matches.
func Match(listingCity, target string) bool {
	city := Normalize(listingCity)
	if city == "" {
		return true
	}
	want := Normalize(target)
	main := MainCity(city)
	return strings.Contains(city, want) ||
		strings.Contains(main, want) ||
		strings.Contains(want, main)
}
