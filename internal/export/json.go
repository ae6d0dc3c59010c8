// Package export writes search reports to files: the JSON report the CLIs
// save with -o, and a flat CSV of the listings.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"job-aggregator/internal/domain"
)

// EncodeReport writes r as indented JSON. Non-ASCII text and characters
// like & in URLs are written as is.
func EncodeReport(w io.Writer, r domain.Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteReportJSON saves r to path, creating parent directories.
func WriteReportJSON(path string, r domain.Report) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: mkdir %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	if err := EncodeReport(f, r); err != nil {
		f.Close()
		return fmt.Errorf("export: encode %s: %w", path, err)
	}
	return f.Close()
}

// WriteListingsCSVFile saves the report's listings next to its JSON.
func WriteListingsCSVFile(path string, r domain.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	if err := WriteListingsCSV(f, r.Listings); err != nil {
		f.Close()
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return f.Close()
}
