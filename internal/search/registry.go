package search

import (
	"job-aggregator/internal/config"
	"job-aggregator/internal/domain"
	"job-aggregator/internal/providers"
	"job-aggregator/internal/providers/boss"
	"job-aggregator/internal/providers/browser"
	"job-aggregator/internal/providers/job51"
	"job-aggregator/internal/providers/liepin"
	"job-aggregator/internal/providers/zhilian"
)

// JobSourceIDs and InternSourceIDs list every source id in registration order.
var (
	JobSourceIDs    = []string{"boss", "liepin", "zhilian", "job51"}
	InternSourceIDs = []string{"shixiseng", "ciwei", "boss_intern", "liepin_intern"}
)

func HTTPOptionsFrom(cfg config.Config) providers.HTTPOptions {
	return providers.HTTPOptions{
		Timeout:     cfg.HTTPTimeout,
		MaxAttempts: cfg.HTTPMaxAttempts,
		RatePerSec:  cfg.SourceRatePerSec,
	}
}

func BrowserOptionsFrom(cfg config.Config) browser.Options {
	o := browser.DefaultOptions()
	o.Headless = cfg.BrowserHeadless
	if cfg.PageLoadTimeout > 0 {
		o.PageLoadTimeout = cfg.PageLoadTimeout
	}
	if cfg.BrowserUserAgent != "" {
		o.UserAgent = cfg.BrowserUserAgent
	}
	return o
}

// NewRegistry registers every job and internship adapter under its id.
func NewRegistry(cfg config.Config) *providers.Registry {
	h := HTTPOptionsFrom(cfg)
	r := providers.NewRegistry()
	r.Register("boss", boss.New(h))
	r.Register("liepin", liepin.New(h))
	r.Register("zhilian", zhilian.New(h))
	r.Register("job51", job51.New(h))

	b := BrowserOptionsFrom(cfg)
	sites := browser.Sites()
	for _, id := range InternSourceIDs {
		r.Register(id, browser.New(sites[id], b))
	}
	return r
}

// ProfilesFrom builds the job and intern profiles from cfg.
func ProfilesFrom(cfg config.Config) []Profile {
	return []Profile{
		{
			Kind:       domain.KindJob,
			Sources:    cfg.JobSources,
			Allowed:    JobSourceIDs,
			MinResults: cfg.JobMinResults,
			PageSize:   cfg.DefaultPageSize,
			OutputFile: cfg.JobOutputFile,
		},
		{
			Kind:       domain.KindIntern,
			Sources:    cfg.InternSources,
			Allowed:    InternSourceIDs,
			MinResults: cfg.InternMinResults,
			PageSize:   cfg.DefaultPageSize,
			OutputFile: cfg.InternOutputFile,
		},
	}
}
