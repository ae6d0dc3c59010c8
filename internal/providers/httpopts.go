package providers

import (
	"net/http"
	"time"

	"job-aggregator/internal/httpx"
)

// HTTPOptions configures the JSON API adapters.
type HTTPOptions struct {
	Timeout     time.Duration // per request
	MaxAttempts int
	RatePerSec  float64
	UserAgent   string
}

func DefaultHTTPOptions() HTTPOptions {
	return HTTPOptions{
		Timeout:     10 * time.Second,
		MaxAttempts: 3,
		RatePerSec:  1,
		UserAgent:   httpx.DefaultUserAgent,
	}
}

func (o HTTPOptions) withDefaults() HTTPOptions {
	d := DefaultHTTPOptions()
	if o.Timeout <= 0 {
		o.Timeout = d.Timeout
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = d.MaxAttempts
	}
	if o.RatePerSec <= 0 {
		o.RatePerSec = d.RatePerSec
	}
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	return o
}

// Client returns an http.Client with the per-request timeout.
func (o HTTPOptions) Client() *http.Client {
	o = o.withDefaults()
	return &http.Client{Timeout: o.Timeout}
}

// RetryConfig returns a retry policy with its own Gate, so each adapter paces
// its site independently.
func (o HTTPOptions) RetryConfig() httpx.RetryConfig {
	o = o.withDefaults()
	cfg := httpx.DefaultRetryConfig()
	cfg.MaxAttempts = o.MaxAttempts
	cfg.BaseDelay = 500 * time.Millisecond
	cfg.MaxDelay = 5 * time.Second
	cfg.Gate = httpx.NewGate(o.RatePerSec, o.RatePerSec/4, o.RatePerSec*2)
	return cfg
}

// FetchTimeout bounds one whole Fetch: every attempt plus backoff.
func (o HTTPOptions) FetchTimeout() time.Duration {
	o = o.withDefaults()
	return time.Duration(o.MaxAttempts)*o.Timeout + 10*time.Second
}

func (o HTTPOptions) UA() string {
	return o.withDefaults().UserAgent
}
