package engine

import (
	"context"
	"net/url"
	"time"

	"github.com/law-makers/appcrawl/internal/clock"
	"github.com/rs/zerolog"
)

// Settings bound and pace one crawl.
type Settings struct {
	BaseURL            string
	MaxDepth           int
	MaxPages           int // 0 means unbounded
	RequestDelay       time.Duration
	ExcludePatterns    []string
	CaptureScreenshots bool
	NavigationTimeout  time.Duration // 0 means 30s
	SettleDelay        time.Duration // 0 means 1s
}

// Limiter paces page opens, typically per host.
type Limiter interface {
	Wait(ctx context.Context, url string) error
}

// RobotsPolicy decides whether a discovered URL may be queued.
type RobotsPolicy interface {
	Allowed(ctx context.Context, u *url.URL) bool
}

// ScreenshotHandler receives every captured screenshot.
type ScreenshotHandler func(ctx context.Context, name string, png []byte) error

// Visit is reported after each URL is processed. Err is nil on success.
type Visit struct {
	URL   string
	Depth int
	Err   error
}

type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

func WithLimiter(l Limiter) Option {
	return func(e *Engine) { e.limiter = l }
}

// WithRobots installs a robots policy. Without one every URL is allowed.
func WithRobots(r RobotsPolicy) Option {
	return func(e *Engine) { e.robots = r }
}

func WithScreenshotHandler(h ScreenshotHandler) Option {
	return func(e *Engine) { e.onScreenshot = h }
}

// WithProgress registers a callback run after every visit.
func WithProgress(fn func(Visit)) Option {
	return func(e *Engine) { e.onVisit = fn }
}
