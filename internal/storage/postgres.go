// Package storage persists search runs and the listings they found in
// Postgres. Listings are upserted by identity key so repeated runs refresh
// rows instead of duplicating them.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"job-aggregator/internal/domain"
)

// by_source is json, not jsonb: jsonb reorders object keys and the counts
// are kept in completion order.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS search_runs (
	run_id         text PRIMARY KEY,
	kind           text NOT NULL,
	position       text NOT NULL,
	city           text NOT NULL DEFAULT '',
	params         jsonb NOT NULL,
	total          integer NOT NULL,
	filtered_count integer NOT NULL,
	by_source      json NOT NULL,
	created_at     timestamptz NOT NULL DEFAULT now()
);
ALTER TABLE search_runs ALTER COLUMN by_source TYPE json USING by_source::json;
CREATE INDEX IF NOT EXISTS search_runs_kind_created_idx ON search_runs (kind, created_at DESC);
CREATE TABLE IF NOT EXISTS listings (
	identity_key text PRIMARY KEY,
	kind         text NOT NULL,
	title        text NOT NULL,
	company      text NOT NULL DEFAULT '',
	salary       text NOT NULL DEFAULT '',
	city         text NOT NULL DEFAULT '',
	source       text NOT NULL,
	job_url      text NOT NULL DEFAULT '',
	data         jsonb NOT NULL,
	first_run_id text NOT NULL,
	last_run_id  text NOT NULL,
	first_seen   timestamptz NOT NULL DEFAULT now(),
	last_seen    timestamptz NOT NULL DEFAULT now()
);`

const insertRunSQL = `INSERT INTO search_runs
	(run_id, kind, position, city, params, total, filtered_count, by_source)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	ON CONFLICT (run_id) DO NOTHING`

const upsertListingSQL = `INSERT INTO listings
	(identity_key, kind, title, company, salary, city, source, job_url, data, first_run_id, last_run_id)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$10)
	ON CONFLICT (identity_key) DO UPDATE SET
		title = EXCLUDED.title,
		company = EXCLUDED.company,
		salary = EXCLUDED.salary,
		city = EXCLUDED.city,
		data = EXCLUDED.data,
		last_run_id = EXCLUDED.last_run_id,
		last_seen = now()`

type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL and verifies the connection.
func Open(ctx context.Context, databaseURL string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("storage: parse DATABASE_URL: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("storage: ensure schema: %w", err)
	}
	return nil
}

// SaveRun writes the run row and upserts every listing in one batch.
func (s *Store) SaveRun(ctx context.Context, r domain.Report) error {
	b, err := queueRun(r)
	if err != nil {
		return err
	}
	br := s.pool.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("storage: save run %s: %w", r.RunID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("storage: save run %s: %w", r.RunID, err)
	}
	log.Printf("[storage] run %s saved with %d listings", r.RunID, b.Len()-1)
	return nil
}

// queueRun builds the batch for r: the run insert first, then one upsert per
// listing that has an identity key.
func queueRun(r domain.Report) (*pgx.Batch, error) {
	params, err := json.Marshal(r.Params)
	if err != nil {
		return nil, fmt.Errorf("storage: encode params: %w", err)
	}
	bySource, err := json.Marshal(r.Statistics.BySource)
	if err != nil {
		return nil, fmt.Errorf("storage: encode by_source: %w", err)
	}

	city := r.Params.City
	if city == domain.Unspecified {
		city = ""
	}

	b := &pgx.Batch{}
	b.Queue(insertRunSQL,
		r.RunID, string(r.Kind), r.Params.Position, city, string(params),
		r.Statistics.Total, r.Statistics.FilteredCount, string(bySource),
	)
	for _, l := range r.Listings {
		key := l.IdentityKey()
		if key == "" {
			continue
		}
		data, err := json.Marshal(l)
		if err != nil {
			return nil, fmt.Errorf("storage: encode listing %q: %w", l.Title, err)
		}
		b.Queue(upsertListingSQL,
			key, string(r.Kind), l.Title, l.Company, l.Salary, l.City, l.Source, l.URL, string(data), r.RunID,
		)
	}
	return b, nil
}

// RunSummary is one row of search_runs.
type RunSummary struct {
	RunID         string          `json:"run_id"`
	Kind          domain.Kind     `json:"kind"`
	Position      string          `json:"position"`
	City          string          `json:"city"`
	Total         int             `json:"total"`
	FilteredCount int             `json:"filtered_count"`
	BySource      domain.BySource `json:"by_source"`
	CreatedAt     time.Time       `json:"created_at"`
}

// RecentRuns returns the newest runs of kind, newest first.
func (s *Store) RecentRuns(ctx context.Context, kind domain.Kind, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT run_id, kind, position, city, total, filtered_count, by_source, created_at
		 FROM search_runs
		 WHERE kind = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		string(kind), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: query runs: %w", err)
	}
	defer rows.Close()

	out := []RunSummary{}
	for rows.Next() {
		var (
			rs       RunSummary
			kindText string
			bySource []byte
		)
		if err := rows.Scan(&rs.RunID, &kindText, &rs.Position, &rs.City, &rs.Total, &rs.FilteredCount, &bySource, &rs.CreatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan run: %w", err)
		}
		rs.Kind = domain.Kind(kindText)
		if err := json.Unmarshal(bySource, &rs.BySource); err != nil {
			return nil, fmt.Errorf("storage: decode by_source of %s: %w", rs.RunID, err)
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}
