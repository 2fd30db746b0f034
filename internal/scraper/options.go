package scraper

import (
	"time"

	"github.com/law-makers/appcrawl/internal/browser"
	"github.com/law-makers/appcrawl/internal/clock"
	"github.com/law-makers/appcrawl/internal/engine"
	"github.com/law-makers/appcrawl/internal/state"
	"github.com/rs/zerolog"
)

type Option func(*Scraper)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Scraper) { s.logger = l }
}

// WithDriver selects the browser automation backend. The default is chromedp.
func WithDriver(d browser.Driver) Option {
	return func(s *Scraper) { s.driver = d }
}

// WithStore sets where page states are kept. The default is in memory.
func WithStore(st state.Store) Option {
	return func(s *Scraper) { s.store = st }
}

func WithClock(c clock.Clock) Option {
	return func(s *Scraper) { s.clock = c }
}

func WithRobots(r engine.RobotsPolicy) Option {
	return func(s *Scraper) { s.robots = r }
}

func WithLimiter(l engine.Limiter) Option {
	return func(s *Scraper) { s.limiter = l }
}

func WithScreenshotHandler(h engine.ScreenshotHandler) Option {
	return func(s *Scraper) { s.onScreenshot = h }
}

func WithProgress(fn func(engine.Visit)) Option {
	return func(s *Scraper) { s.onVisit = fn }
}

// WithBrowserOptions sets launch flags, extra headers and the page timeout.
// The user agent always comes from the crawler config.
func WithBrowserOptions(o browser.Options) Option {
	return func(s *Scraper) { s.browserOpts = o }
}

func WithNavigationTimeout(d time.Duration) Option {
	return func(s *Scraper) { s.navTimeout = d }
}
