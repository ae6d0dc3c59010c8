// Package browser implements adapters for listing sites that only render their
// results client side. Each Fetch drives its own headless Chrome through
// chromedp and extracts the result cards with a small script.
package browser

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"job-aggregator/internal/domain"
	"job-aggregator/internal/httpx"
)

type Options struct {
	Headless        bool
	PageLoadTimeout time.Duration
	UserAgent       string
	// Settle is how long to let the page's own scripts run after load.
	Settle time.Duration
}

func DefaultOptions() Options {
	return Options{
		Headless:        true,
		PageLoadTimeout: 15 * time.Second,
		UserAgent:       httpx.DefaultUserAgent,
		Settle:          2 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.PageLoadTimeout <= 0 {
		o.PageLoadTimeout = d.PageLoadTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = d.UserAgent
	}
	if o.Settle <= 0 {
		o.Settle = d.Settle
	}
	return o
}

// FetchTimeout bounds a whole Fetch, browser start-up included.
func (o Options) FetchTimeout() time.Duration {
	o = o.withDefaults()
	return 2*o.PageLoadTimeout + o.Settle + 10*time.Second
}

// NewAllocator starts a Chrome exec allocator configured from o.
func NewAllocator(parent context.Context, o Options) (context.Context, context.CancelFunc) {
	o = o.withDefaults()
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(o.UserAgent),
		chromedp.WindowSize(1440, 900),
	)
	return chromedp.NewExecAllocator(parent, opts...)
}

// Adapter is a providers.Adapter for one Site.
type Adapter struct {
	site Site
	opts Options
}

func New(site Site, opts Options) *Adapter {
	return &Adapter{site: site, opts: opts.withDefaults()}
}

func (a *Adapter) Name() string { return a.site.Name }

func (a *Adapter) Fetch(ctx context.Context, q domain.Query) ([]domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.FetchTimeout())
	defer cancel()

	allocCtx, cancelAlloc := NewAllocator(ctx, a.opts)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelTab()

	target := a.site.SearchURL(q)
	log.Printf("[%s] opening %s", a.site.ID, target)

	loadCtx, cancelLoad := context.WithTimeout(tabCtx, a.opts.PageLoadTimeout)
	defer cancelLoad()

	var pageTitle, location string
	if err := chromedp.Run(loadCtx,
		chromedp.Navigate(target),
		chromedp.Sleep(a.opts.Settle),
		chromedp.Evaluate(scrollJS, nil),
		chromedp.Sleep(time.Second),
		chromedp.Title(&pageTitle),
		chromedp.Location(&location),
	); err != nil {
		return nil, domain.NewAdapterError(a.site.Name, fmt.Errorf("load %s: %w", target, err))
	}

	if isVerification(pageTitle, location) {
		return nil, domain.NewAdapterError(a.site.Name, fmt.Errorf("%w: title=%q url=%s", domain.ErrVerification, pageTitle, location))
	}

	script, err := extractJS(a.site, q.PageSize)
	if err != nil {
		return nil, domain.NewAdapterError(a.site.Name, err)
	}
	var cards []rawCard
	extractCtx, cancelExtract := context.WithTimeout(tabCtx, a.opts.PageLoadTimeout)
	defer cancelExtract()
	if err := chromedp.Run(extractCtx, chromedp.Evaluate(script, &cards)); err != nil {
		return nil, domain.NewAdapterError(a.site.Name, fmt.Errorf("extract cards: %w", err))
	}

	if len(cards) == 0 {
		log.Printf("[%s] no result cards for %q (page title %q)", a.site.ID, q.Position, pageTitle)
		return []domain.Listing{}, nil
	}

	out := make([]domain.Listing, 0, len(cards))
	for _, c := range cards {
		if l, ok := a.site.toListing(c); ok {
			out = append(out, l)
		}
	}
	log.Printf("[%s] parsed %d of %d cards", a.site.ID, len(out), len(cards))
	return out, nil
}

var verificationMarkers = []string{"验证", "安全检测", "captcha", "verify", "security-check", "passport", "登录"}

// isVerification reports whether the page is a challenge or login wall
// instead of search results.
func isVerification(title, location string) bool {
	s := strings.ToLower(title + " " + location)
	for _, m := range verificationMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

const scrollJS = `(function(){
  var h = document.body ? document.body.scrollHeight : 0;
  for (var y = 0; y < h; y += 600) { window.scrollTo(0, y); }
  window.scrollTo(0, document.body ? document.body.scrollHeight : 0);
  return true;
})()`
