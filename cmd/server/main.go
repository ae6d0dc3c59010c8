package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"job-aggregator/internal/aggregate"
	"job-aggregator/internal/cache"
	"job-aggregator/internal/config"
	"job-aggregator/internal/scheduler"
	"job-aggregator/internal/search"
	"job-aggregator/internal/server"
	"job-aggregator/internal/storage"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		opts []search.Option
		runs server.RunLister
	)

	if cfg.DatabaseURL != "" {
		connCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		st, err := storage.Open(connCtx, cfg.DatabaseURL, 8)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		if err := st.EnsureSchema(connCtx); err != nil {
			log.Fatalf("postgres: %v", err)
		}
		cancel()
		defer st.Close()
		opts = append(opts, search.WithStore(st))
		runs = st
	} else {
		log.Println("DATABASE_URL not set, runs are not persisted")
	}

	if cfg.RedisURL != "" {
		connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		rdb, err := cache.NewRedisClient(connCtx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer rdb.Close()
		opts = append(opts,
			search.WithCache(cache.NewResultCache(rdb, cfg.CacheTTL)),
			search.WithEvents(cache.NewPublisher(rdb, cfg.EventsChannel)),
		)
	} else {
		log.Println("REDIS_URL not set, cache and run events disabled")
	}

	registry := search.NewRegistry(cfg)
	svc := search.New(aggregate.New(registry), search.ProfilesFrom(cfg), opts...)

	saved, err := scheduler.ParseSavedSearches(cfg.ScheduledSearches)
	if err != nil {
		log.Fatalf("SCHEDULED_SEARCHES: %v", err)
	}
	var sched *scheduler.Scheduler
	if len(saved) > 0 {
		sched = scheduler.New(svc, saved, cfg.ScheduleIntervalHours)
		if err := sched.Start(ctx); err != nil {
			log.Fatalf("scheduler: %v", err)
		}
	}

	srv, err := server.NewServer(server.Config{Port: cfg.Port}, svc, runs, registry)
	if err != nil {
		log.Fatalf("server: %v", err)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if sched != nil {
		sched.Stop()
	}
}
