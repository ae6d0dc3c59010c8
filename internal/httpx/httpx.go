// Package httpx is the retrying HTTP layer shared by the listing site adapters.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultUserAgent is a desktop Chrome UA; the listing sites reject Go's default.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// HTTPError is a non-2xx answer from a listing site.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.StatusCode, clip(e.Body, 900))
}

// ErrHTMLPage means a JSON endpoint answered 200 with a web page, which is
// how the sites serve their verification walls.
var ErrHTMLPage = errors.New("got an HTML page instead of JSON")

func clip(b []byte, n int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// SetBrowserHeaders makes req look like it came from the site's own search page.
func SetBrowserHeaders(req *http.Request, userAgent, referer string) {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	h := req.Header
	h.Set("User-Agent", userAgent)
	h.Set("Accept", "application/json, text/plain, */*")
	h.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	h.Set("Accept-Encoding", BrowserAcceptEncoding)
	if referer != "" {
		h.Set("Referer", referer)
	}
}

// attempt is what one round trip produced and whether to go again.
type attempt struct {
	resp       *http.Response
	body       []byte
	err        error
	again      bool
	retryAfter time.Duration
}

// DoWithRetry sends the request built by build until it succeeds, fails
// permanently, or cfg.MaxAttempts is spent. build is called per attempt so
// bodies can be replayed. The returned body is already decompressed.
func DoWithRetry(
	ctx context.Context,
	client *http.Client,
	build func(context.Context) (*http.Request, error),
	cfg RetryConfig,
) (*http.Response, []byte, error) {
	cfg = cfg.normalized()

	for n := 1; ; n++ {
		if cfg.Gate != nil {
			if err := cfg.Gate.Wait(ctx); err != nil {
				return nil, nil, err
			}
		}
		req, err := build(ctx)
		if err != nil {
			return nil, nil, err
		}

		a := roundTrip(client, req, cfg)
		if !a.again || n >= cfg.MaxAttempts {
			return a.resp, a.body, a.err
		}
		if err := pause(ctx, cfg.delay(n, a.retryAfter)); err != nil {
			return nil, nil, err
		}
	}
}

func roundTrip(client *http.Client, req *http.Request, cfg RetryConfig) attempt {
	resp, err := client.Do(req)
	if err != nil {
		return attempt{err: err, again: transient(err)}
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return attempt{resp: resp, body: body, err: err, again: transient(err)}
	}

	if resp.StatusCode/100 == 2 {
		plain, err := decodeBody(resp.Header, body)
		if err != nil {
			return attempt{resp: resp, body: body, err: err}
		}
		if cfg.Gate != nil {
			cfg.Gate.OnOK()
		}
		return attempt{resp: resp, body: plain}
	}

	wait := ParseRetryAfter(resp)
	if cfg.Gate != nil && throttled[resp.StatusCode] {
		cfg.Gate.OnThrottle(wait + cfg.BaseDelay)
	}
	herr := &HTTPError{
		Method:     req.Method,
		URL:        req.URL.String(),
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}
	return attempt{
		resp:       resp,
		body:       body,
		err:        herr,
		again:      cfg.retryableStatus(resp.StatusCode),
		retryAfter: wait,
	}
}

// DoJSON runs DoWithRetry and unmarshals the body into out (skipped when
// out is nil).
func DoJSON(
	ctx context.Context,
	client *http.Client,
	build func(context.Context) (*http.Request, error),
	out any,
	cfg RetryConfig,
) error {
	_, body, err := DoWithRetry(ctx, client, build, cfg)
	if err != nil || out == nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		if bytes.HasPrefix(bytes.TrimSpace(body), []byte("<")) {
			err = ErrHTMLPage
		}
		return fmt.Errorf("json parse error: %w body=%s", err, clip(body, 300))
	}
	return nil
}
