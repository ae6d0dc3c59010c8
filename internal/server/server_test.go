package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"job-aggregator/internal/domain"
	"job-aggregator/internal/providers"
	"job-aggregator/internal/search"
	"job-aggregator/internal/storage"
)

type MockSearcher struct {
	SearchFunc func(ctx context.Context, kind domain.Kind, req search.Request) (domain.Report, error)
}

func (m *MockSearcher) Search(ctx context.Context, kind domain.Kind, req search.Request) (domain.Report, error) {
	return m.SearchFunc(ctx, kind, req)
}

type MockRuns struct {
	RecentRunsFunc func(ctx context.Context, kind domain.Kind, limit int) ([]storage.RunSummary, error)
}

func (m *MockRuns) RecentRuns(ctx context.Context, kind domain.Kind, limit int) ([]storage.RunSummary, error) {
	return m.RecentRunsFunc(ctx, kind, limit)
}

type namedAdapter string

func (n namedAdapter) Name() string { return string(n) }

func (n namedAdapter) Fetch(context.Context, domain.Query) ([]domain.Listing, error) {
	return []domain.Listing{}, nil
}

func newTestServer(t *testing.T, s Searcher, runs RunLister) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reg := providers.NewRegistry()
	reg.Register("liepin", namedAdapter("猎聘"))
	reg.Register("shixiseng", namedAdapter("实习僧"))
	srv, err := NewServer(Config{Port: 0, RequestTimeout: time.Second}, s, runs, reg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func do(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func okSearcher(t *testing.T) *MockSearcher {
	return &MockSearcher{SearchFunc: func(ctx context.Context, kind domain.Kind, req search.Request) (domain.Report, error) {
		if strings.TrimSpace(req.Query.Position) == "" {
			return domain.Report{}, domain.ErrEmptyPosition
		}
		res := domain.AggregatedResult{
			Total:    1,
			BySource: domain.BySource{{Source: "猎聘", Count: 1}},
			Listings: []domain.Listing{{Title: "Go", Source: "猎聘"}},
		}
		return domain.NewReport(kind, req.Query.Normalize(), res, "run-1"), nil
	}}
}

func TestHealth(t *testing.T) {
	w := do(newTestServer(t, okSearcher(t), nil), http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("Expected 200 ok, got %d %s", w.Code, w.Body.String())
	}
}

func TestSources(t *testing.T) {
	w := do(newTestServer(t, okSearcher(t), nil), http.MethodGet, "/api/sources", "")
	var got map[string][]SourceInfo
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("Expected JSON, got %v", err)
	}
	if len(got["jobs"]) != 1 || got["jobs"][0].Name != "猎聘" {
		t.Errorf("Expected only registered job sources, got %v", got["jobs"])
	}
	if len(got["interns"]) != 1 || got["interns"][0].ID != "shixiseng" {
		t.Errorf("Expected shixiseng, got %v", got["interns"])
	}
}

func TestSearchEndpoints(t *testing.T) {
	testCases := []struct {
		name     string
		path     string
		body     string
		wantCode int
		wantBody []string
	}{
		{"job search", "/api/jobs/search", `{"position":"golang","city":"北京"}`, http.StatusOK, []string{`"jobs":[`, `"run_id":"run-1"`, `"by_source":{"猎聘":1}`}},
		{"intern search", "/api/interns/search", `{"position":"golang"}`, http.StatusOK, []string{`"interns":[`, `"days_per_week":"不限"`}},
		{"missing position", "/api/jobs/search", `{"city":"北京"}`, http.StatusBadRequest, []string{`"success":false`}},
		{"bad json", "/api/jobs/search", `{"position":`, http.StatusBadRequest, []string{"invalid JSON"}},
		{"negative min results", "/api/jobs/search", `{"position":"go","min_results":-1}`, http.StatusBadRequest, []string{"min_results"}},
	}

	srv := newTestServer(t, okSearcher(t), nil)
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(srv, http.MethodPost, tc.path, tc.body)
			if w.Code != tc.wantCode {
				t.Errorf("Expected %d, got %d: %s", tc.wantCode, w.Code, w.Body.String())
			}
			for _, want := range tc.wantBody {
				if !strings.Contains(w.Body.String(), want) {
					t.Errorf("Expected body to contain %s, got %s", want, w.Body.String())
				}
			}
		})
	}
}

func TestSearchPassesOverrides(t *testing.T) {
	var got search.Request
	m := &MockSearcher{SearchFunc: func(ctx context.Context, kind domain.Kind, req search.Request) (domain.Report, error) {
		got = req
		return domain.NewReport(kind, req.Query.Normalize(), domain.AggregatedResult{}, "r"), nil
	}}
	w := do(newTestServer(t, m, nil), http.MethodPost, "/api/jobs/search",
		`{"position":"go","sources":["boss"],"min_results":0,"no_cache":true,"page":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if len(got.Sources) != 1 || got.Sources[0] != "boss" {
		t.Errorf("Expected sources override, got %v", got.Sources)
	}
	if got.MinResults == nil || *got.MinResults != 0 {
		t.Errorf("Expected explicit min_results 0, got %v", got.MinResults)
	}
	if !got.NoCache || got.Query.Page != 2 {
		t.Errorf("Expected no_cache and page passed, got %+v", got)
	}
}

func TestSearchTimeout(t *testing.T) {
	m := &MockSearcher{SearchFunc: func(ctx context.Context, kind domain.Kind, req search.Request) (domain.Report, error) {
		<-ctx.Done()
		return domain.Report{}, ctx.Err()
	}}
	start := time.Now()
	w := do(newTestServer(t, m, nil), http.MethodPost, "/api/jobs/search", `{"position":"go","timeout_seconds":1}`)
	if w.Code != http.StatusGatewayTimeout {
		t.Errorf("Expected 504, got %d", w.Code)
	}
	if time.Since(start) > 5*time.Second {
		t.Errorf("Expected request deadline to apply")
	}
}

func TestSearchInternalError(t *testing.T) {
	m := &MockSearcher{SearchFunc: func(context.Context, domain.Kind, search.Request) (domain.Report, error) {
		return domain.Report{}, errors.New("boom")
	}}
	if w := do(newTestServer(t, m, nil), http.MethodPost, "/api/jobs/search", `{"position":"go"}`); w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
}

func TestRuns(t *testing.T) {
	srv := newTestServer(t, okSearcher(t), nil)
	if w := do(srv, http.MethodGet, "/api/runs", ""); w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without store, got %d", w.Code)
	}

	var gotKind domain.Kind
	var gotLimit int
	runs := &MockRuns{RecentRunsFunc: func(ctx context.Context, kind domain.Kind, limit int) ([]storage.RunSummary, error) {
		gotKind, gotLimit = kind, limit
		return []storage.RunSummary{{RunID: "r1", Kind: kind, Total: 3}}, nil
	}}
	srv = newTestServer(t, okSearcher(t), runs)

	w := do(srv, http.MethodGet, "/api/runs?kind=interns&limit=5", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"run_id":"r1"`) {
		t.Errorf("Expected runs, got %d %s", w.Code, w.Body.String())
	}
	if gotKind != domain.KindIntern || gotLimit != 5 {
		t.Errorf("Expected intern/5, got %s/%d", gotKind, gotLimit)
	}

	for _, path := range []string{"/api/runs?kind=gig", "/api/runs?limit=0", "/api/runs?limit=x"} {
		if w := do(srv, http.MethodGet, path, ""); w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, w.Code)
		}
	}
}

func TestShutdownBeforeRun(t *testing.T) {
	srv := newTestServer(t, okSearcher(t), nil)
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
	if err := srv.Run(); !errors.Is(err, http.ErrServerClosed) {
		t.Errorf("Expected Run after Shutdown to return ErrServerClosed, got %v", err)
	}
}

func TestShutdownWhileRunning(t *testing.T) {
	srv := newTestServer(t, okSearcher(t), nil)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Expected clean shutdown, got %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Expected ErrServerClosed, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Expected Run to return after Shutdown")
	}
}
