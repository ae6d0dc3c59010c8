// Package cache keeps recent search reports in Redis and announces finished
// runs on a pub/sub channel.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"job-aggregator/internal/domain"
)

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL(%q): %w", redisURL, err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// Key identifies one cacheable search: the same query against the same
// sources with the same backfill threshold.
type Key struct {
	Kind       domain.Kind
	Query      domain.Query
	Sources    []string
	MinResults int
}

// String is "listings:<kind>:<sha1>" over the normalized query.
func (k Key) String() string {
	q := k.Query.Normalize()
	parts := []string{
		string(k.Kind),
		strings.ToLower(q.Position),
		strings.ToLower(q.City),
		q.Education, q.Experience, q.Salary, q.Duration, q.DaysPerWeek,
		strconv.Itoa(q.Page), strconv.Itoa(q.PageSize),
		strings.ToLower(strings.Join(k.Sources, ",")),
		strconv.Itoa(k.MinResults),
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "\x1f")))
	return "listings:" + string(k.Kind) + ":" + hex.EncodeToString(sum[:])
}

type ResultCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewResultCache(rdb *redis.Client, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &ResultCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached report for k. A miss is (zero, false, nil).
func (c *ResultCache) Get(ctx context.Context, k Key) (domain.Report, bool, error) {
	data, err := c.rdb.Get(ctx, k.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Report{}, false, nil
	}
	if err != nil {
		return domain.Report{}, false, fmt.Errorf("cache get: %w", err)
	}
	var r domain.Report
	if err := json.Unmarshal(data, &r); err != nil {
		// a stale or foreign value is treated as a miss
		log.Printf("WARN: [cache] bad entry %s: %v", k.String(), err)
		return domain.Report{}, false, nil
	}
	return r, true, nil
}

func (c *ResultCache) Set(ctx context.Context, k Key, r domain.Report) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.rdb.Set(ctx, k.String(), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// RunEvent is published after every completed search.
type RunEvent struct {
	RunID    string          `json:"run_id"`
	Kind     domain.Kind     `json:"kind"`
	Position string          `json:"position"`
	City     string          `json:"city"`
	Total    int             `json:"total"`
	BySource domain.BySource `json:"by_source"`
	Cached   bool            `json:"cached,omitempty"`
}

func NewRunEvent(r domain.Report, cached bool) RunEvent {
	city := r.Params.City
	if city == domain.Unspecified {
		city = ""
	}
	return RunEvent{
		RunID:    r.RunID,
		Kind:     r.Kind,
		Position: r.Params.Position,
		City:     city,
		Total:    r.Statistics.Total,
		BySource: r.Statistics.BySource,
		Cached:   cached,
	}
}

type Publisher struct {
	rdb     *redis.Client
	channel string
}

func NewPublisher(rdb *redis.Client, channel string) *Publisher {
	if channel == "" {
		channel = "listings:runs"
	}
	return &Publisher{rdb: rdb, channel: channel}
}

func (p *Publisher) Publish(ctx context.Context, ev RunEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode run event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", p.channel, err)
	}
	return nil
}
