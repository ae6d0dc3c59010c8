package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestReportJSONShape(t *testing.T) {
	q := Query{Position: "Go", Page: 1, PageSize: 20}
	res := AggregatedResult{
		Total:    1,
		BySource: BySource{{Source: "猎聘", Count: 1}},
		Listings: []Listing{{Title: "Go dev", Source: "猎聘"}},
	}

	testCases := []struct {
		name    string
		kind    Kind
		want    []string
		notWant []string
	}{
		{
			name:    "job",
			kind:    KindJob,
			want:    []string{`"jobs":[`, `"experience":"不限"`, `"salary":"不限"`, `"city":"不限"`, `"filtered_count":0`},
			notWant: []string{`"interns"`, `"duration"`},
		},
		{
			name:    "intern",
			kind:    KindIntern,
			want:    []string{`"interns":[`, `"duration":"不限"`, `"days_per_week":"不限"`},
			notWant: []string{`"jobs"`, `"experience":"不限"`},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := json.Marshal(NewReport(tc.kind, q, res, "run-1"))
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			s := string(raw)
			for _, w := range tc.want {
				if !strings.Contains(s, w) {
					t.Errorf("Expected %s in %s", w, s)
				}
			}
			for _, w := range tc.notWant {
				if strings.Contains(s, w) {
					t.Errorf("Did not expect %s in %s", w, s)
				}
			}

			var back Report
			if err := json.Unmarshal(raw, &back); err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if back.Kind != tc.kind {
				t.Errorf("Expected kind %q, got %q", tc.kind, back.Kind)
			}
			if len(back.Listings) != 1 || back.Statistics.BySource[0].Source != "猎聘" {
				t.Errorf("Expected listings and stats to survive decoding, got %+v", back)
			}
		})
	}
}

func TestReportEmptyListingsIsArray(t *testing.T) {
	raw, err := json.Marshal(NewReport(KindJob, Query{Position: "Go"}, AggregatedResult{}, ""))
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !strings.Contains(string(raw), `"jobs":[]`) || !strings.Contains(string(raw), `"by_source":{}`) {
		t.Errorf("Expected empty arrays/objects, got %s", raw)
	}
}
