// Package directory talks to the fixed company directory site: one listing
// page of profile links and one profile page per company. Requests are
// paced per host and may be served from the transport cache.
package directory

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hanbinChen97/find-the-company/internal/cache"
	"github.com/hanbinChen97/find-the-company/internal/markup"
)

// Options configures the directory client.
type Options struct {
	// ListingURL is the fixed listing page.
	ListingURL string
	// ProfilePathFragment filters listing anchors, e.g. "/profile/".
	ProfilePathFragment string
	// ListContainerHint scopes listing extraction, e.g. "list-group".
	ListContainerHint string
	// ProfileContainerHint scopes profile extraction, e.g. "profile".
	ProfileContainerHint string
	// UserAgent and AcceptLanguage are sent on every request. The directory
	// blocks obvious bots, so these default to a desktop browser profile.
	UserAgent      string
	AcceptLanguage string
	// RequestsPerSec is the politeness pacing toward the directory host.
	RequestsPerSec float64
	Timeout        time.Duration
}

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	defaultLanguage  = "en-US,en;q=0.9"
)

// Client fetches directory pages with per-host rate limiting and an
// optional response cache.
type Client struct {
	http      *http.Client
	opts      Options
	extractor *markup.Extractor
	cache     *cache.Cache

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewClient creates a directory client. respCache may be nil to disable
// transport caching.
func NewClient(opts Options, extractor *markup.Extractor, respCache *cache.Cache) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.AcceptLanguage == "" {
		opts.AcceptLanguage = defaultLanguage
	}
	if opts.RequestsPerSec <= 0 {
		opts.RequestsPerSec = 2
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Client{
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:      opts,
		extractor: extractor,
		cache:     respCache,
		limiters:  make(map[string]*rate.Limiter),
	}
}

// limiterFor returns one limiter per host, so pacing toward the directory
// never blocks calls to a different collaborator.
func (c *Client) limiterFor(rawURL string) *rate.Limiter {
	host := ""
	if u, err := url.Parse(rawURL); err == nil {
		host = u.Host
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	lim, ok := c.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(c.opts.RequestsPerSec), 1)
		c.limiters[host] = lim
	}
	return lim
}

// get fetches rawURL honoring the cache and the per-host pace. Non-2xx
// statuses are errors; there is no retry, a failed attempt is terminal for
// this pass.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	if c.cache != nil {
		body, ok, err := c.cache.Get(ctx, rawURL)
		if err != nil {
			zap.L().Warn("directory: cache read failed", zap.String("url", rawURL), zap.Error(err))
		}
		if ok {
			zap.L().Debug("directory: cache hit", zap.String("url", rawURL))
			return body, nil
		}
	}

	if err := c.limiterFor(rawURL).Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "directory: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "directory: create request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept-Language", c.opts.AcceptLanguage)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "directory: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "directory: read response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("directory: unexpected status %d from %s", resp.StatusCode, rawURL)
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, rawURL, body); err != nil {
			zap.L().Warn("directory: cache write failed", zap.String("url", rawURL), zap.Error(err))
		}
	}
	return body, nil
}

// resolveURL makes profile hrefs absolute against the listing URL.
func (c *Client) resolveURL(href string) string {
	base, err := url.Parse(c.opts.ListingURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
