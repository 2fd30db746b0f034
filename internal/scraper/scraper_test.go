package scraper

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/law-makers/appcrawl/internal/browser"
	"github.com/law-makers/appcrawl/internal/browser/browsertest"
	"github.com/law-makers/appcrawl/internal/clock"
	"github.com/law-makers/appcrawl/internal/config"
	"github.com/law-makers/appcrawl/internal/engine"
	"github.com/law-makers/appcrawl/internal/reqctx"
	"github.com/law-makers/appcrawl/pkg/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const base = "https://app.example.com"

func site() *browsertest.Site {
	return browsertest.NewSite().
		Add(base, browsertest.PageSpec{
			Title: "Dashboard",
			HTML:  `<html><body><h1>Dashboard</h1><p>Welcome back.</p><script>x()</script></body></html>`,
			Links: []browser.Link{{Href: "/settings"}, {Href: "/private/keys"}},
		}).
		Add(base+"/settings", browsertest.PageSpec{
			Title: "Settings",
			HTML:  `<html><body><h2>Settings</h2><label>Name</label></body></html>`,
		}).
		Add(base+"/private/keys", browsertest.PageSpec{Title: "Keys", HTML: "<p>keys</p>"})
}

type denyPrefix string

func (d denyPrefix) Allowed(_ context.Context, u *url.URL) bool {
	return !strings.HasPrefix(u.Path, string(d))
}

func newTestScraper(t *testing.T, s *browsertest.Site, o config.Overrides, opts ...Option) (*Scraper, *clock.Fake) {
	t.Helper()
	clk := clock.NewFake(time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC))
	if o.Crawler.BaseURL == "" {
		o.Crawler.BaseURL = base
	}
	all := append([]Option{WithDriver(s), WithClock(clk), WithLogger(zerolog.Nop())}, opts...)
	sc, err := New(o, all...)
	require.NoError(t, err)
	return sc, clk
}

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(config.Overrides{})
	require.ErrorIs(t, err, config.ErrBaseURLRequired)
}

func TestNewAppliesDefaults(t *testing.T) {
	sc, _ := newTestScraper(t, site(), config.Overrides{})

	cfg := sc.Config()
	assert.Equal(t, config.DefaultMaxDepth, cfg.Crawler.MaxDepth)
	assert.Equal(t, config.DefaultMaxPages, cfg.Crawler.MaxPages)
	assert.Equal(t, config.DefaultUserAgent, cfg.Crawler.UserAgent)
	assert.NotEmpty(t, sc.RunID())
}

func TestCrawlAndGenerateDocumentation(t *testing.T) {
	s := site()
	var (
		mu    sync.Mutex
		shots []string
	)
	sc, _ := newTestScraper(t, s, config.Overrides{
		Crawler: config.CrawlerOverrides{RequestDelayMs: config.Ptr(0)},
	},
		WithRobots(denyPrefix("/private")),
		WithScreenshotHandler(func(_ context.Context, name string, _ []byte) error {
			mu.Lock()
			shots = append(shots, name)
			mu.Unlock()
			return nil
		}),
	)

	require.NoError(t, sc.Start(context.Background()))
	assert.Equal(t, []string{base, base + "/settings"}, sc.GetVisitedURLs())
	assert.Len(t, shots, 2)

	docs, err := sc.GenerateDocumentation(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// The state is captured after the 1s settle wait, so one second past the start.
	home := docs[0]
	assert.Equal(t, "page-https___app_example_com", home.ID)
	assert.Equal(t, models.DocumentMetadata{
		Source:    base,
		Title:     "Dashboard",
		Timestamp: "2024-05-06T07:08:10.000Z",
		Type:      "web-page",
	}, home.Metadata)
	assert.True(t, strings.HasPrefix(home.Content,
		"# Dashboard\n\nURL: https://app.example.com\n\nScraped at: 2024-05-06T07:08:10.000Z\n\n"))
	assert.Contains(t, home.Content, "Welcome back.")
	assert.NotContains(t, home.Content, "x()")

	stats := sc.GetStats()
	assert.Equal(t, 2, stats.PagesVisited)
	assert.Zero(t, stats.PagesFailed)
	assert.Equal(t, base, stats.BaseURL)
	assert.Equal(t, sc.RunID(), stats.RunID)
}

func TestRobotsIgnoredWhenDisabled(t *testing.T) {
	sc, _ := newTestScraper(t, site(), config.Overrides{
		Crawler: config.CrawlerOverrides{RespectRobotsTxt: config.Ptr(false)},
	}, WithRobots(denyPrefix("/private")))

	require.NoError(t, sc.Start(context.Background()))
	assert.Contains(t, sc.GetVisitedURLs(), base+"/private/keys")
}

func TestNoExcerptWithoutSelectors(t *testing.T) {
	sc, _ := newTestScraper(t, site(), config.Overrides{
		Crawler:    config.CrawlerOverrides{MaxDepth: config.Ptr(0)},
		Extraction: config.ExtractionOverrides{TextSelectors: []string{}},
	})
	require.NoError(t, sc.Start(context.Background()))

	docs, err := sc.GenerateDocumentation(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "# Dashboard\n\nURL: https://app.example.com\n\nScraped at: 2024-05-06T07:08:10.000Z", docs[0].Content)
}

func TestFailuresAreCounted(t *testing.T) {
	s := site()
	s.Set(base+"/settings", browsertest.PageSpec{NavErr: errors.New("net::ERR_CONNECTION_RESET")})

	var visits []engine.Visit
	sc, _ := newTestScraper(t, s, config.Overrides{
		Crawler: config.CrawlerOverrides{RespectRobotsTxt: config.Ptr(false)},
	}, WithProgress(func(v engine.Visit) { visits = append(visits, v) }))

	require.NoError(t, sc.Start(context.Background()))
	require.Len(t, sc.Failures(), 1)
	assert.Equal(t, base+"/settings", sc.Failures()[0].URL)
	assert.Equal(t, 1, sc.GetStats().PagesFailed)
	assert.Len(t, visits, 3)
}

func TestStartTwice(t *testing.T) {
	sc, _ := newTestScraper(t, site(), config.Overrides{Crawler: config.CrawlerOverrides{MaxDepth: config.Ptr(0)}})
	require.NoError(t, sc.Start(context.Background()))
	assert.ErrorIs(t, sc.Start(context.Background()), ErrAlreadyStarted)
}

func TestStartErrorCarriesRunID(t *testing.T) {
	s := site()
	s.LaunchErr = errors.New("chrome missing")
	sc, _ := newTestScraper(t, s, config.Overrides{})

	err := sc.Start(context.Background())
	require.Error(t, err)

	var runErr *reqctx.RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, sc.RunID(), runErr.RunID)
	assert.Empty(t, sc.GetVisitedURLs())
}
