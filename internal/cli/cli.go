// Package cli implements the jobsearch and internsearch commands. Both share
// one flag set; kind-specific flags are only registered for their kind.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"job-aggregator/internal/aggregate"
	"job-aggregator/internal/cache"
	"job-aggregator/internal/config"
	"job-aggregator/internal/domain"
	"job-aggregator/internal/export"
	"job-aggregator/internal/present"
	"job-aggregator/internal/search"
	"job-aggregator/internal/sftpclient"
	"job-aggregator/internal/storage"
)

type Options struct {
	Query      domain.Query
	Sources    []string
	MinResults int // < 0 means the configured default
	NoHeadless bool
	Output     string
	Save       bool
	CSV        bool
	JSON       bool
	SFTP       bool
	NoCache    bool
	Timeout    time.Duration
}

// ParseFlags parses args for kind, using cfg for defaults.
func ParseFlags(kind domain.Kind, args []string, cfg config.Config, stderr io.Writer) (Options, error) {
	name := "jobsearch"
	defSources, defOutput := cfg.JobSources, cfg.JobOutputFile
	if kind == domain.KindIntern {
		name = "internsearch"
		defSources, defOutput = cfg.InternSources, cfg.InternOutputFile
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		o       Options
		sources string
	)
	str := func(p *string, short, long, usage string) {
		fs.StringVar(p, short, "", usage)
		fs.StringVar(p, long, "", usage)
	}
	str(&o.Query.Position, "p", "position", "position keyword (required)")
	str(&o.Query.City, "c", "city", "city, e.g. 北京")
	str(&o.Query.Education, "d", "education", "education, e.g. 本科")
	if kind == domain.KindIntern {
		fs.StringVar(&o.Query.Duration, "duration", "", "internship length, e.g. 3个月")
		fs.StringVar(&o.Query.DaysPerWeek, "days", "", "days per week, e.g. 4天/周")
	} else {
		str(&o.Query.Experience, "e", "experience", "experience, e.g. 1-3年")
		str(&o.Query.Salary, "s", "salary", "expected salary")
	}
	fs.IntVar(&o.Query.Page, "page", 1, "page number")
	fs.IntVar(&o.Query.PageSize, "page-size", cfg.DefaultPageSize, "listings per source")
	fs.StringVar(&sources, "sources", strings.Join(defSources, ","), "comma separated source ids")
	fs.IntVar(&o.MinResults, "min-results", -1, "city filter backfill threshold (-1 = configured default)")
	fs.BoolVar(&o.NoHeadless, "no-headless", false, "show the browser window")
	fs.StringVar(&o.Output, "o", defOutput, "output file for -save")
	fs.BoolVar(&o.Save, "save", false, "save the JSON report to -o")
	fs.BoolVar(&o.CSV, "csv", false, "with -save, also write listings as CSV next to -o")
	fs.BoolVar(&o.JSON, "json", false, "print the JSON report instead of text")
	fs.BoolVar(&o.SFTP, "sftp", false, "upload saved files via SFTP")
	fs.BoolVar(&o.NoCache, "no-cache", false, "skip the result cache")
	fs.DurationVar(&o.Timeout, "timeout", 3*time.Minute, "overall search deadline")

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}
	if strings.TrimSpace(o.Query.Position) == "" {
		fs.Usage()
		return Options{}, domain.ErrEmptyPosition
	}
	for _, s := range strings.Split(sources, ",") {
		if s = strings.TrimSpace(s); s != "" {
			o.Sources = append(o.Sources, s)
		}
	}
	if o.SFTP && !o.Save {
		o.Save = true
	}
	return o, nil
}

// CSVPath is the CSV file written next to the JSON output.
func CSVPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".csv"
}

// Main runs one search command and returns the process exit code.
func Main(kind domain.Kind, args []string) int {
	cfg := config.Load()
	o, err := ParseFlags(kind, args, cfg, os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		return 2
	}
	if o.NoHeadless {
		cfg.BrowserHeadless = false
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.Timeout)
	defer cancel()

	svc, closeFn := buildService(ctx, cfg)
	defer closeFn()

	req := search.Request{Query: o.Query, Sources: o.Sources, NoCache: o.NoCache}
	if o.MinResults >= 0 {
		req.MinResults = &o.MinResults
	}

	if !o.JSON {
		present.PrintQuery(os.Stdout, kind, o.Query)
	}
	start := time.Now()
	r, err := svc.Search(ctx, kind, req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "search failed:", err)
		return 1
	}
	elapsed := time.Since(start)

	if o.JSON {
		if err := export.EncodeReport(os.Stdout, r); err != nil {
			log.Printf("encode report: %v", err)
			return 1
		}
	} else {
		present.PrintReport(os.Stdout, r, elapsed, cfg.MaxDisplay)
	}

	if !o.Save {
		return 0
	}
	files := []string{o.Output}
	if err := export.WriteReportJSON(o.Output, r); err != nil {
		log.Printf("save: %v", err)
		return 1
	}
	if o.CSV {
		csvPath := CSVPath(o.Output)
		if err := export.WriteListingsCSVFile(csvPath, r); err != nil {
			log.Printf("save: %v", err)
			return 1
		}
		files = append(files, csvPath)
	}
	if !o.JSON {
		fmt.Printf("\n结果已保存到: %s\n", strings.Join(files, ", "))
	}

	if o.SFTP {
		upCfg := sftpclient.FromConfig(cfg)
		upCtx, upCancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer upCancel()
		if err := sftpclient.UploadFiles(upCtx, upCfg, files...); err != nil {
			log.Printf("sftp: %v", err)
			return 1
		}
		log.Printf("uploaded %d file(s) to sftp://%s:%d%s", len(files), upCfg.Host, upCfg.Port, upCfg.RemoteDir)
	}
	return 0
}

// buildService wires the engine with whatever of Postgres and Redis is
// configured. Connection failures degrade to running without that sink.
func buildService(ctx context.Context, cfg config.Config) (*search.Service, func()) {
	var (
		opts    []search.Option
		closers []func()
	)

	if cfg.DatabaseURL != "" {
		st, err := storage.Open(ctx, cfg.DatabaseURL, 4)
		if err == nil {
			err = st.EnsureSchema(ctx)
			if err != nil {
				st.Close()
			}
		}
		if err != nil {
			log.Printf("WARN: persistence disabled: %v", err)
		} else {
			opts = append(opts, search.WithStore(st))
			closers = append(closers, st.Close)
		}
	}

	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("WARN: cache disabled: %v", err)
		} else {
			opts = append(opts,
				search.WithCache(cache.NewResultCache(rdb, cfg.CacheTTL)),
				search.WithEvents(cache.NewPublisher(rdb, cfg.EventsChannel)),
			)
			closers = append(closers, func() { rdb.Close() })
		}
	}

	engine := aggregate.New(search.NewRegistry(cfg))
	svc := search.New(engine, search.ProfilesFrom(cfg), opts...)
	return svc, func() {
		for _, c := range closers {
			c()
		}
	}
}
