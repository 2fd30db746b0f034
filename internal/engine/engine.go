// Package engine runs the breadth-first crawl: it pops URLs from the frontier,
// renders them in the browser, records their state and queues their links.
package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/law-makers/appcrawl/internal/browser"
	"github.com/law-makers/appcrawl/internal/clock"
	"github.com/law-makers/appcrawl/internal/crawlerr"
	"github.com/law-makers/appcrawl/internal/state"
	urlutil "github.com/law-makers/appcrawl/internal/utils/url"
	"github.com/law-makers/appcrawl/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	defaultNavigationTimeout = 30 * time.Second
	defaultSettleDelay       = time.Second
)

// Sessions is the browser session the engine drives.
type Sessions interface {
	Initialize(ctx context.Context) error
	NewPage(ctx context.Context) (browser.Page, error)
	TakeScreenshot(ctx context.Context, page browser.Page, name string) ([]byte, error)
	Close()
}

// Tracker records page state.
type Tracker interface {
	TrackState(ctx context.Context, page state.Snapshotter, url string) (models.PageState, error)
}

// Engine is a single crawl run. It is not reusable once Start returns.
type Engine struct {
	sessions Sessions
	tracker  Tracker
	settings Settings
	seed     *url.URL
	excludes []*regexp2.Regexp
	frontier *frontier

	clock        clock.Clock
	logger       zerolog.Logger
	limiter      Limiter
	robots       RobotsPolicy
	onScreenshot ScreenshotHandler
	onVisit      func(Visit)

	mu       sync.Mutex
	failures []models.Failure
}

// New validates settings and queues the seed URL at depth 0.
func New(sessions Sessions, tracker Tracker, settings Settings, opts ...Option) (*Engine, error) {
	if err := urlutil.ValidateURL(settings.BaseURL); err != nil {
		return nil, fmt.Errorf("%w: %v", crawlerr.ErrInvalidURL, err)
	}
	if settings.MaxDepth < 0 || settings.MaxPages < 0 {
		return nil, errors.New("maxDepth and maxPages must be non-negative")
	}
	if settings.NavigationTimeout <= 0 {
		settings.NavigationTimeout = defaultNavigationTimeout
	}
	if settings.SettleDelay <= 0 {
		settings.SettleDelay = defaultSettleDelay
	}

	excludes, err := compileExcludes(settings.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	seedRaw := urlutil.Normalize(settings.BaseURL)
	seed, err := url.Parse(seedRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", crawlerr.ErrInvalidURL, err)
	}

	e := &Engine{
		sessions: sessions,
		tracker:  tracker,
		settings: settings,
		seed:     seed,
		excludes: excludes,
		frontier: newFrontier(),
		clock:    clock.Real(),
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With().Str("component", "engine").Logger()

	e.frontier.Push(models.CrawlURL{URL: seedRaw, Depth: 0})
	return e, nil
}

func (e *Engine) budgetLeft() bool {
	return e.settings.MaxPages == 0 || e.frontier.VisitedCount() < e.settings.MaxPages
}

// Start crawls until the frontier is empty, the page budget is spent or ctx
// ends. Per-URL failures are recorded, not returned. Only session start-up
// failures and ctx.Err() escape. The browser session is closed on every path.
func (e *Engine) Start(ctx context.Context) error {
	defer e.sessions.Close()

	start := e.clock.Now()
	e.logger.Info().
		Str("base_url", e.seed.String()).
		Int("max_depth", e.settings.MaxDepth).
		Int("max_pages", e.settings.MaxPages).
		Msg("Starting crawl")

	if err := e.sessions.Initialize(ctx); err != nil {
		return err
	}

	for e.frontier.Len() > 0 && e.budgetLeft() {
		if err := ctx.Err(); err != nil {
			return err
		}

		item, ok := e.frontier.Pop()
		if !ok {
			break
		}
		if item.Depth > e.settings.MaxDepth {
			continue
		}
		if !e.frontier.TryVisit(item.URL) {
			continue
		}

		if err := e.visit(ctx, item); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	e.logger.Info().
		Int("visited", e.frontier.VisitedCount()).
		Int("failed", len(e.Failures())).
		Int("pending", e.frontier.Len()).
		Dur("elapsed", e.clock.Now().Sub(start)).
		Msg("Crawl complete")
	return nil
}

// visit processes one URL. It returns an error only when the crawl must stop.
func (e *Engine) visit(ctx context.Context, item models.CrawlURL) error {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, item.URL); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Debug().Err(err).Str("url", item.URL).Msg("Rate limiter wait failed")
		}
	}

	page, err := e.sessions.NewPage(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if crawlerr.IsResource(err) {
			return err
		}
		e.finish(item, err)
		return e.pause(ctx)
	}

	err = e.process(ctx, page, item)

	if cerr := page.Close(); cerr != nil {
		e.logger.Debug().Err(cerr).Str("url", item.URL).Msg("Failed to close page")
	}
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	e.finish(item, err)
	return e.pause(ctx)
}

func (e *Engine) process(ctx context.Context, page browser.Page, item models.CrawlURL) error {
	e.logger.Info().Str("url", item.URL).Int("depth", item.Depth).Msg("Visiting")

	navCtx, cancel := context.WithTimeout(ctx, e.settings.NavigationTimeout)
	err := page.Navigate(navCtx, item.URL)
	cancel()
	if err != nil {
		return crawlerr.Navigation("navigate", item.URL, err)
	}

	if err := e.clock.Sleep(ctx, e.settings.SettleDelay); err != nil {
		return err
	}

	if _, err := e.tracker.TrackState(ctx, page, item.URL); err != nil {
		return crawlerr.Extraction("track state", item.URL, err)
	}

	if item.Depth < e.settings.MaxDepth {
		e.enqueueLinks(ctx, page, item)
	}

	if e.settings.CaptureScreenshots {
		e.screenshot(ctx, page, item.URL)
	}
	return nil
}

func (e *Engine) screenshot(ctx context.Context, page browser.Page, pageURL string) {
	name := "page-" + urlutil.SanitizeID(pageURL)
	data, err := e.sessions.TakeScreenshot(ctx, page, name)
	if err != nil {
		e.logger.Warn().Err(err).Str("url", pageURL).Msg("Screenshot failed")
		return
	}
	if e.onScreenshot == nil {
		return
	}
	if err := e.onScreenshot(ctx, name, data); err != nil {
		e.logger.Warn().Err(err).Str("name", name).Msg("Screenshot handler failed")
	}
}

// finish records the outcome of a visit and reports progress.
func (e *Engine) finish(item models.CrawlURL, err error) {
	if err != nil {
		e.logger.Warn().Err(err).Str("url", item.URL).Msg("Page failed")
		e.mu.Lock()
		e.failures = append(e.failures, models.Failure{URL: item.URL, Depth: item.Depth, Reason: err.Error()})
		e.mu.Unlock()
	}
	if e.onVisit != nil {
		e.onVisit(Visit{URL: item.URL, Depth: item.Depth, Err: err})
	}
}

// pause waits the politeness delay between pages.
func (e *Engine) pause(ctx context.Context) error {
	if e.settings.RequestDelay <= 0 {
		return nil
	}
	return e.clock.Sleep(ctx, e.settings.RequestDelay)
}

// GetVisitedURLs returns every URL dequeued for a visit, in visit order,
// including those that failed.
func (e *Engine) GetVisitedURLs() []string {
	return e.frontier.Visited()
}

// Failures returns the URLs that ended in the failed state.
func (e *Engine) Failures() []models.Failure {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]models.Failure(nil), e.failures...)
}

// Pending is the number of URLs still queued.
func (e *Engine) Pending() int {
	return e.frontier.Len()
}
