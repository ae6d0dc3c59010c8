// Package server exposes the search service over HTTP with gin.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"job-aggregator/internal/domain"
	"job-aggregator/internal/providers"
	"job-aggregator/internal/search"
	"job-aggregator/internal/storage"
)

type Searcher interface {
	Search(ctx context.Context, kind domain.Kind, req search.Request) (domain.Report, error)
}

type RunLister interface {
	RecentRuns(ctx context.Context, kind domain.Kind, limit int) ([]storage.RunSummary, error)
}

// SourceInfo describes one registered source for /api/sources.
type SourceInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Config struct {
	Port int
	// RequestTimeout bounds one search unless the body asks for less.
	RequestTimeout time.Duration
}

type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	config     Config

	searcher Searcher
	runs     RunLister
	sources  map[domain.Kind][]SourceInfo
}

// NewServer builds the router. runs may be nil when persistence is disabled.
func NewServer(cfg Config, searcher Searcher, runs RunLister, registry *providers.Registry) (*Server, error) {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}
	router := gin.Default()
	if err := router.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	s := &Server{
		router:   router,
		config:   cfg,
		searcher: searcher,
		runs:     runs,
		sources: map[domain.Kind][]SourceInfo{
			domain.KindJob:    describe(registry, search.JobSourceIDs),
			domain.KindIntern: describe(registry, search.InternSourceIDs),
		},
	}
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.setUpRoutes()
	return s, nil
}

func describe(registry *providers.Registry, ids []string) []SourceInfo {
	out := []SourceInfo{}
	for _, id := range ids {
		if a, ok := registry.Lookup(id); ok {
			out = append(out, SourceInfo{ID: id, Name: a.Name()})
		}
	}
	return out
}

func (s *Server) setUpRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	api := s.router.Group("/api")
	api.GET("/sources", s.listSources)
	api.POST("/jobs/search", s.handleSearch(domain.KindJob))
	api.POST("/interns/search", s.handleSearch(domain.KindIntern))
	api.GET("/runs", s.listRuns)
}

// Handler is the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Run blocks serving until Shutdown. After Shutdown it returns
// http.ErrServerClosed, even if it was never listening.
func (s *Server) Run() error {
	log.Printf("[server] listening on :%d", s.config.Port)
	return s.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and drains in-flight requests.
// It is safe to call from another goroutine than Run, before or after it.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	log.Println("[server] shutdown completed")
	return nil
}

type searchBody struct {
	Position       string   `json:"position"`
	City           string   `json:"city"`
	Education      string   `json:"education"`
	Experience     string   `json:"experience"`
	Salary         string   `json:"salary"`
	Duration       string   `json:"duration"`
	DaysPerWeek    string   `json:"days_per_week"`
	Page           int      `json:"page"`
	PageSize       int      `json:"page_size"`
	Sources        []string `json:"sources"`
	MinResults     *int     `json:"min_results"`
	NoCache        bool     `json:"no_cache"`
	TimeoutSeconds int      `json:"timeout_seconds"`
}

func failure(msg string) gin.H {
	return gin.H{"success": false, "message": msg}
}

func (s *Server) handleSearch(kind domain.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body searchBody
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, failure("invalid JSON body: "+err.Error()))
			return
		}
		if body.MinResults != nil && *body.MinResults < 0 {
			c.JSON(http.StatusBadRequest, failure("min_results must be >= 0"))
			return
		}

		timeout := s.config.RequestTimeout
		if t := time.Duration(body.TimeoutSeconds) * time.Second; t > 0 && t < timeout {
			timeout = t
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		r, err := s.searcher.Search(ctx, kind, search.Request{
			Query: domain.Query{
				Position:    body.Position,
				City:        body.City,
				Education:   body.Education,
				Experience:  body.Experience,
				Salary:      body.Salary,
				Duration:    body.Duration,
				DaysPerWeek: body.DaysPerWeek,
				Page:        body.Page,
				PageSize:    body.PageSize,
			},
			Sources:    body.Sources,
			MinResults: body.MinResults,
			NoCache:    body.NoCache,
		})
		switch {
		case err == nil:
			c.JSON(http.StatusOK, r)
		case errors.Is(err, domain.ErrEmptyPosition), errors.Is(err, domain.ErrBadPagination):
			c.JSON(http.StatusBadRequest, failure(err.Error()))
		case errors.Is(err, context.DeadlineExceeded):
			log.Printf("WARN: [server] %s search %q timed out after %s", kind, body.Position, timeout)
			c.JSON(http.StatusGatewayTimeout, failure("search timed out"))
		default:
			log.Printf("WARN: [server] %s search %q: %v", kind, body.Position, err)
			c.JSON(http.StatusInternalServerError, failure(err.Error()))
		}
	}
}

func (s *Server) listSources(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"jobs":    s.sources[domain.KindJob],
		"interns": s.sources[domain.KindIntern],
	})
}

func (s *Server) listRuns(c *gin.Context) {
	if s.runs == nil {
		c.JSON(http.StatusServiceUnavailable, failure("persistence disabled"))
		return
	}
	kind, ok := domain.ParseKind(c.DefaultQuery("kind", "job"))
	if !ok {
		c.JSON(http.StatusBadRequest, failure("kind must be job or intern"))
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 200 {
		c.JSON(http.StatusBadRequest, failure("limit must be 1..200"))
		return
	}
	runs, err := s.runs.RecentRuns(c.Request.Context(), kind, limit)
	if err != nil {
		log.Printf("WARN: [server] recent runs: %v", err)
		c.JSON(http.StatusInternalServerError, failure(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "runs": runs})
}
