// Package scraper is the entry point for one crawl: it resolves the
// configuration, wires the browser session, state tracker and engine, and
// turns the captured states into documents.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/law-makers/appcrawl/internal/browser"
	"github.com/law-makers/appcrawl/internal/clock"
	"github.com/law-makers/appcrawl/internal/config"
	"github.com/law-makers/appcrawl/internal/engine"
	"github.com/law-makers/appcrawl/internal/reqctx"
	"github.com/law-makers/appcrawl/internal/state"
	"github.com/law-makers/appcrawl/internal/utils/output"
	urlutil "github.com/law-makers/appcrawl/internal/utils/url"
	"github.com/law-makers/appcrawl/pkg/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("crawl already started")

// Scraper runs a single crawl.
type Scraper struct {
	cfg     config.ScraperConfig
	runID   string
	engine  *engine.Engine
	tracker *state.Tracker
	session *browser.Manager

	logger       zerolog.Logger
	driver       browser.Driver
	store        state.Store
	clock        clock.Clock
	robots       engine.RobotsPolicy
	limiter      engine.Limiter
	onScreenshot engine.ScreenshotHandler
	onVisit      func(engine.Visit)
	browserOpts  browser.Options
	navTimeout   time.Duration

	started atomic.Bool
}

// New resolves overrides against the defaults and builds the crawl. Nothing is
// launched until Start.
func New(overrides config.Overrides, opts ...Option) (*Scraper, error) {
	cfg, err := config.Resolve(overrides)
	if err != nil {
		return nil, err
	}

	s := &Scraper{
		cfg:    cfg,
		runID:  uuid.New().String(),
		logger: log.Logger,
		clock:  clock.Real(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.driver == nil {
		s.driver = &browser.ChromeDriver{}
	}
	if s.store == nil {
		s.store = state.NewMemoryStore()
	}
	s.logger = s.logger.With().Str("run_id", s.runID).Logger()

	trackerOpts := []state.Option{
		state.WithClock(s.clock),
		state.WithLogger(s.logger),
	}
	if selectors := cfg.Extraction.TextSelectors; len(selectors) > 0 {
		trackerOpts = append(trackerOpts, state.WithExcerpt(func(pageURL, html string) (string, error) {
			return output.Excerpt(pageURL, html, selectors)
		}))
	}
	s.tracker = state.NewTracker(s.store, trackerOpts...)

	bopts := s.browserOpts
	bopts.UserAgent = cfg.Crawler.UserAgent
	s.session = browser.NewManager(s.driver, bopts, s.logger)

	engineOpts := []engine.Option{
		engine.WithLogger(s.logger),
		engine.WithClock(s.clock),
	}
	if s.robots != nil && cfg.Crawler.RespectRobotsTxt {
		engineOpts = append(engineOpts, engine.WithRobots(s.robots))
	}
	if s.limiter != nil {
		engineOpts = append(engineOpts, engine.WithLimiter(s.limiter))
	}
	if s.onScreenshot != nil {
		engineOpts = append(engineOpts, engine.WithScreenshotHandler(s.onScreenshot))
	}
	if s.onVisit != nil {
		engineOpts = append(engineOpts, engine.WithProgress(s.onVisit))
	}

	s.engine, err = engine.New(s.session, s.tracker, engine.Settings{
		BaseURL:            cfg.Crawler.BaseURL,
		MaxDepth:           cfg.Crawler.MaxDepth,
		MaxPages:           cfg.Crawler.MaxPages,
		RequestDelay:       cfg.Crawler.RequestDelay,
		ExcludePatterns:    cfg.Crawler.ExcludeURLs,
		CaptureScreenshots: cfg.Extraction.CaptureScreenshots,
		NavigationTimeout:  s.navTimeout,
		SettleDelay:        config.DefaultSettleDelay,
	}, engineOpts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Start runs the crawl to completion. The browser is closed before it returns.
func (s *Scraper) Start(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	ctx = reqctx.WithRun(ctx, s.runID, s.clock.Now())
	return reqctx.NewRunError(ctx, s.engine.Start(ctx))
}

// GenerateDocumentation maps every tracked page state to a Document, in the
// order the pages were first tracked.
func (s *Scraper) GenerateDocumentation(ctx context.Context) ([]models.Document, error) {
	states, err := s.tracker.GetAllStates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load page states: %w", err)
	}

	docs := make([]models.Document, 0, len(states))
	for _, st := range states {
		docs = append(docs, documentFor(st))
	}
	return docs, nil
}

func documentFor(st models.PageState) models.Document {
	ts := models.ISOTimestamp(st.CapturedAt)

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\nURL: %s\n\nScraped at: %s", st.Title, st.URL, ts)
	if st.Excerpt != "" {
		b.WriteString("\n\n")
		b.WriteString(st.Excerpt)
	}

	return models.Document{
		ID:      "page-" + urlutil.SanitizeID(st.URL),
		Content: b.String(),
		Metadata: models.DocumentMetadata{
			Source:    st.URL,
			Title:     st.Title,
			Timestamp: ts,
			Type:      models.DocumentType,
		},
	}
}

// GetStats reports progress so far. It is safe to call during a crawl.
func (s *Scraper) GetStats() models.Stats {
	return models.Stats{
		PagesVisited: len(s.engine.GetVisitedURLs()),
		PagesFailed:  len(s.engine.Failures()),
		BaseURL:      s.cfg.Crawler.BaseURL,
		Timestamp:    models.ISOTimestamp(s.clock.Now()),
		RunID:        s.runID,
	}
}

func (s *Scraper) GetVisitedURLs() []string {
	return s.engine.GetVisitedURLs()
}

func (s *Scraper) Failures() []models.Failure {
	return s.engine.Failures()
}

// Config returns the resolved configuration.
func (s *Scraper) Config() config.ScraperConfig {
	return s.cfg
}

func (s *Scraper) RunID() string {
	return s.runID
}
