// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/law-makers/appcrawl/internal/auth"
	"github.com/law-makers/appcrawl/internal/browser"
	"github.com/law-makers/appcrawl/internal/cache"
	"github.com/law-makers/appcrawl/internal/config"
	"github.com/law-makers/appcrawl/internal/proxy"
	"github.com/law-makers/appcrawl/internal/ratelimit"
	"github.com/law-makers/appcrawl/internal/robots"
	"github.com/law-makers/appcrawl/internal/scraper"
	"github.com/law-makers/appcrawl/internal/state"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once at startup and shared across all CLI commands.
// Use Close() to ensure proper resource cleanup on shutdown.
type Application struct {
	Config      *config.Config
	Logger      *zerolog.Logger
	Cache       cache.Cache
	RateLimiter *ratelimit.HostLimiter
	HTTPClient  *http.Client
	startTime   time.Time
}

// CrawlOptions are per-command additions to the crawl built by NewScraper.
type CrawlOptions struct {
	Headers map[string]string
	// StatePath, when set, keeps page states in a SQLite file instead of memory.
	StatePath string
	Options   []scraper.Option
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Creates the robots.txt byte cache
//   - Creates the per-host rate limiter when a rate is configured
//   - Initializes the HTTP client used for robots.txt
//
// The browser is not started here; each crawl launches its own.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := newLogger(cfg)
	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Str("config_file", cfg.ConfigFile).
		Msg("Logger initialized")

	memCache := cache.NewMemoryCache(cfg.RobotsCacheMaxBytes, time.Minute)
	logger.Debug().
		Int64("max_size_bytes", cfg.RobotsCacheMaxBytes).
		Msg("Robots cache initialized")

	var limiter *ratelimit.HostLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = ratelimit.NewHostLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		logger.Debug().
			Float64("rps", cfg.RateLimitRPS).
			Int("burst", cfg.RateLimitBurst).
			Msg("Rate limiter initialized")
	}

	httpClient := &http.Client{
		Timeout: 10 * time.Second,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	app := &Application{
		Config:      cfg,
		Logger:      &logger,
		Cache:       memCache,
		RateLimiter: limiter,
		HTTPClient:  httpClient,
		startTime:   time.Now(),
	}

	logger.Debug().Msg("Application initialized successfully")
	return app, nil
}

// newLogger configures the global zerolog level and output. Console output
// hides info logs unless -v is given so the progress bar stays readable.
func newLogger(cfg *config.Config) zerolog.Logger {
	level := zerolog.WarnLevel
	switch cfg.LogLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		if cfg.JSONLog {
			level = zerolog.InfoLevel
		}
	case "error":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)

	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	if cfg.JSONLog {
		w = os.Stderr
	}
	logger := zerolog.New(w).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

// Driver returns the browser backend named in the config.
func (a *Application) Driver() browser.Driver {
	if a.Config.Backend == config.BackendPlaywright {
		return browser.PlaywrightDriver{}
	}
	return browser.ChromeDriver{}
}

// NewScraper merges global settings into overrides and builds a crawl wired to
// the application's cache, limiter and browser backend.
func (a *Application) NewScraper(overrides config.Overrides, opts CrawlOptions) (*scraper.Scraper, func(), error) {
	if a.Config.UserAgent != "" {
		overrides.Crawler.UserAgent = a.Config.UserAgent
	}
	if overrides.LogLevel == "" {
		overrides.LogLevel = a.Config.LogLevel
	}

	proxyURL, err := proxy.Normalize(a.Config.Proxy)
	if err != nil {
		return nil, nil, err
	}

	if err := auth.ResolveCredentials(overrides.Authentication); err != nil {
		a.Logger.Warn().Err(err).Msg("No stored password for login user")
	}

	cfg, err := config.Resolve(overrides)
	if err != nil {
		return nil, nil, err
	}

	var store state.Store = state.NewMemoryStore()
	if opts.StatePath != "" {
		db, err := state.OpenSQLite(opts.StatePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open state db: %w", err)
		}
		store = db
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing state store")
		}
	}

	sopts := []scraper.Option{
		scraper.WithLogger(*a.Logger),
		scraper.WithDriver(a.Driver()),
		scraper.WithStore(store),
		scraper.WithNavigationTimeout(a.Config.NavigationTimeout),
		scraper.WithBrowserOptions(browser.Options{
			Launch: browser.LaunchOptions{
				Headless: a.Config.Headless,
				ExecPath: browser.LocateChrome(a.Config.ChromePath),
				Proxy:    proxyURL,
			},
			Headers:     opts.Headers,
			PageTimeout: a.Config.NavigationTimeout,
		}),
	}
	if cfg.Crawler.RespectRobotsTxt {
		sopts = append(sopts, scraper.WithRobots(robots.NewAgent(
			cfg.Crawler.UserAgent,
			a.Cache,
			a.Config.RobotsCacheTTL,
			robots.WithHTTPClient(a.HTTPClient),
			robots.WithLogger(*a.Logger),
		)))
	}
	if a.RateLimiter != nil {
		sopts = append(sopts, scraper.WithLimiter(a.RateLimiter))
	}
	sopts = append(sopts, opts.Options...)

	sc, err := scraper.New(overrides, sopts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return sc, cleanup, nil
}

// Close gracefully shuts down the application and all its resources.
// Any errors during shutdown are logged but do not prevent other shutdown steps.
func (a *Application) Close(ctx context.Context) error {
	a.Logger.Debug().Msg("Shutting down application")

	if a.Cache != nil {
		a.Cache.Close()
	}
	if a.HTTPClient != nil {
		a.HTTPClient.CloseIdleConnections()
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return nil
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
