package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/law-makers/appcrawl/internal/browser"
	"github.com/law-makers/appcrawl/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		LogLevel:            "error",
		Backend:             config.BackendChromedp,
		Headless:            true,
		NavigationTimeout:   5 * time.Second,
		RateLimitBurst:      1,
		RobotsCacheTTL:      time.Minute,
		RobotsCacheMaxBytes: 1024,
	}
}

func TestNewRequiresConfig(t *testing.T) {
	if _, err := New(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestRateLimiterOnlyWhenConfigured(t *testing.T) {
	a, err := New(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close(context.Background())
	if a.RateLimiter != nil {
		t.Error("limiter should be off at 0 rps")
	}

	cfg := testConfig()
	cfg.RateLimitRPS = 2
	b, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer b.Close(context.Background())
	if b.RateLimiter == nil {
		t.Error("limiter should be on")
	}
}

func TestDriverSelection(t *testing.T) {
	cfg := testConfig()
	a, _ := New(context.Background(), cfg)
	if _, ok := a.Driver().(browser.ChromeDriver); !ok {
		t.Errorf("expected chromedp driver, got %T", a.Driver())
	}
	cfg.Backend = config.BackendPlaywright
	if _, ok := a.Driver().(browser.PlaywrightDriver); !ok {
		t.Errorf("expected playwright driver, got %T", a.Driver())
	}
}

func TestNewScraperAppliesGlobalUserAgent(t *testing.T) {
	cfg := testConfig()
	cfg.UserAgent = "custom-agent/2"
	a, _ := New(context.Background(), cfg)
	defer a.Close(context.Background())

	sc, cleanup, err := a.NewScraper(config.Overrides{
		Crawler: config.CrawlerOverrides{BaseURL: "https://example.com"},
	}, CrawlOptions{StatePath: filepath.Join(t.TempDir(), "state.db")})
	if err != nil {
		t.Fatalf("NewScraper: %v", err)
	}
	defer cleanup()

	if got := sc.Config().Crawler.UserAgent; got != "custom-agent/2" {
		t.Errorf("user agent = %q", got)
	}
}

func TestNewScraperRejectsMissingBaseURL(t *testing.T) {
	a, _ := New(context.Background(), testConfig())
	defer a.Close(context.Background())

	if _, _, err := a.NewScraper(config.Overrides{}, CrawlOptions{}); err == nil {
		t.Fatal("expected error without base URL")
	}
}
