package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"job-aggregator/internal/domain"
)

func sampleReport() domain.Report {
	q := domain.Query{Position: "golang", City: "北京", Page: 1, PageSize: 20}
	res := domain.AggregatedResult{
		Total:    2,
		BySource: domain.BySource{{Source: "猎聘", Count: 1}, {Source: "智联招聘", Count: 1}},
		Listings: []domain.Listing{
			{Title: "Go开发", Company: "甲公司", City: "北京·海淀区", Source: "猎聘", URL: "https://www.liepin.com/job/1.shtml?a=1&b=2", Skills: []string{"Go", " ", "K8s\n"}},
			{Title: "后端工程师", Company: "乙公司", City: "北京", Source: "智联招聘", Salary: "15-25K"},
		},
	}
	return domain.NewReport(domain.KindJob, q, res, "run-1")
}

func TestEncodeReport(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeReport(&buf, sampleReport()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	out := buf.String()
	for _, want := range []string{`"message": "搜索完成"`, `"jobs": [`, `a=1&b=2`, "\n  \"statistics\""} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, `\u0026`) {
		t.Errorf("Expected no HTML escaping, got:\n%s", out)
	}
}

func TestWriteReportJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "jobs_result.json")
	if err := WriteReportJSON(path, sampleReport()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected file, got %v", err)
	}
	var got domain.Report
	if err := got.UnmarshalJSON(data); err != nil {
		t.Fatalf("Expected valid JSON, got %v", err)
	}
	if got.Kind != domain.KindJob || len(got.Listings) != 2 || got.RunID != "run-1" {
		t.Errorf("Expected job report with 2 listings, got kind=%v listings=%d run=%q", got.Kind, len(got.Listings), got.RunID)
	}
	if got.Statistics.BySource[0].Source != "猎聘" {
		t.Errorf("Expected by_source order kept, got %v", got.Statistics.BySource)
	}
}

func TestWriteReportJSONBadPath(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteReportJSON(filepath.Join(blocker, "r.json"), sampleReport()); err == nil {
		t.Error("Expected error when parent is a file")
	}
}

func TestWriteListingsCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteListingsCSV(&buf, sampleReport().Listings); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(buf.String(), "\r\n") {
		t.Error("Expected CRLF line endings")
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Expected valid CSV, got %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected header + 2 rows, got %d", len(rows))
	}
	if len(rows[0]) != len(listingHeader) || rows[0][0] != "SOURCE" {
		t.Errorf("Expected header, got %v", rows[0])
	}
	if rows[1][11] != "Go | K8s" {
		t.Errorf("Expected cleaned skills, got %q", rows[1][11])
	}
	if rows[2][3] != "15-25K" {
		t.Errorf("Expected salary, got %q", rows[2][3])
	}
}

func TestWriteListingsCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	if err := WriteListingsCSVFile(path, sampleReport()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "SOURCE,TITLE") {
		t.Errorf("Expected CSV header, got %q", string(data))
	}
}
