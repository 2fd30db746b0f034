// internal/robots/robots.go
package robots

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/law-makers/appcrawl/internal/cache"
	"github.com/law-makers/appcrawl/internal/retry"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/temoto/robotstxt"
)

// maxBodyBytes bounds how much of a robots.txt is read.
const maxBodyBytes = 512 * 1024

// failureTTL caps how long a failed fetch is remembered as an empty body.
const failureTTL = 5 * time.Minute

// Agent answers robots.txt questions for the crawler. Bodies are fetched once
// per host and kept in a byte cache; any fetch or parse failure allows the URL.
// A host whose robots.txt could not be fetched is cached as empty, so the
// retries happen once per host rather than once per link.
type Agent struct {
	client    *http.Client
	userAgent string
	ttl       time.Duration
	cache     cache.Cache
	retry     retry.Config
	logger    zerolog.Logger
}

// Option configures an Agent.
type Option func(*Agent)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Agent) { a.client = c }
}

// WithRetry replaces the fetch retry policy.
func WithRetry(cfg retry.Config) Option {
	return func(a *Agent) { a.retry = cfg }
}

func WithLogger(l zerolog.Logger) Option {
	return func(a *Agent) { a.logger = l }
}

// NewAgent creates an agent that identifies as userAgent and caches bodies in c for ttl.
func NewAgent(userAgent string, c cache.Cache, ttl time.Duration, opts ...Option) *Agent {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	a := &Agent{
		client:    &http.Client{Timeout: 10 * time.Second},
		userAgent: userAgent,
		ttl:       ttl,
		cache:     c,
		retry:     retry.DefaultConfig(),
		logger:    log.Logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With().Str("component", "robots").Logger()
	if a.retry.Logger == nil {
		a.retry.Logger = &a.logger
	}
	return a
}

// Allowed reports whether target may be crawled.
func (a *Agent) Allowed(ctx context.Context, target *url.URL) bool {
	if target == nil || !target.IsAbs() {
		return false
	}

	body, err := a.body(ctx, target)
	if err != nil {
		a.logger.Debug().Err(err).Str("host", target.Host).Msg("robots.txt unavailable, allowing")
		return true
	}

	rules, err := robotstxt.FromBytes(body)
	if err != nil {
		a.logger.Debug().Err(err).Str("host", target.Host).Msg("robots.txt unparseable, allowing")
		return true
	}

	group := rules.FindGroup(a.userAgent)
	if group == nil {
		group = rules.FindGroup("*")
		if group == nil {
			return true
		}
	}

	path := target.EscapedPath()
	if path == "" {
		path = "/"
	}
	if target.RawQuery != "" {
		path += "?" + target.RawQuery
	}
	return group.Test(path)
}

func (a *Agent) body(ctx context.Context, target *url.URL) ([]byte, error) {
	key := strings.ToLower(target.Scheme + "://" + target.Host)
	if data, ok := a.cache.Get(key); ok {
		return data, nil
	}

	robotsURL := key + "/robots.txt"
	var data []byte
	err := retry.Do(ctx, a.retry, func(ctx context.Context) error {
		var err error
		data, err = a.fetch(ctx, robotsURL)
		return err
	})
	if err != nil {
		// A cancelled crawl says nothing about the host.
		if ctx.Err() == nil {
			a.cache.Set(key, []byte{}, min(a.ttl, failureTTL))
		}
		return nil, err
	}

	a.cache.Set(key, data, a.ttl)
	return data, nil
}

// fetch returns the robots.txt body. A missing file (any 4xx) reads as empty,
// which allows everything.
func (a *Agent) fetch(ctx context.Context, robotsURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build robots request: %w", err)
	}
	if a.userAgent != "" {
		req.Header.Set("User-Agent", a.userAgent)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, retry.HTTPError{StatusCode: resp.StatusCode, URL: robotsURL}
	case resp.StatusCode >= 400:
		return []byte{}, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read robots.txt: %w", err)
	}
	return data, nil
}
