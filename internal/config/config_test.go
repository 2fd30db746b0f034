package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAppliesDefaults(t *testing.T) {
	cfg, err := Resolve(Overrides{Crawler: CrawlerOverrides{BaseURL: "https://ex.com"}})
	require.NoError(t, err)

	assert.Equal(t, "https://ex.com", cfg.Crawler.BaseURL)
	assert.Equal(t, 3, cfg.Crawler.MaxDepth)
	assert.Equal(t, 100, cfg.Crawler.MaxPages)
	assert.Equal(t, 500*time.Millisecond, cfg.Crawler.RequestDelay)
	assert.True(t, cfg.Crawler.RespectRobotsTxt)
	assert.Equal(t, "Web-App-Scraper/1.0", cfg.Crawler.UserAgent)
	assert.True(t, cfg.Extraction.CaptureScreenshots)
	assert.True(t, cfg.Extraction.DetectWorkflows)
	assert.Len(t, cfg.Extraction.TextSelectors, 4)
	assert.Equal(t, 1200, cfg.Extraction.MaxScreenshotWidth)
	assert.Equal(t, 5, cfg.Extraction.MaxWorkflowDepth)
	assert.Equal(t, FormatMarkdown, cfg.Output.Format)
	assert.True(t, cfg.UseLLM)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestResolveKeepsZeroValuedOverrides(t *testing.T) {
	cfg, err := Resolve(Overrides{
		Crawler: CrawlerOverrides{
			BaseURL:          "https://ex.com",
			MaxDepth:         Ptr(0),
			RequestDelayMs:   Ptr(0),
			RespectRobotsTxt: Ptr(false),
			ExcludeURLs:      []string{"/admin"},
		},
		Extraction: ExtractionOverrides{CaptureScreenshots: Ptr(false)},
	})
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Crawler.MaxDepth)
	assert.Equal(t, time.Duration(0), cfg.Crawler.RequestDelay)
	assert.False(t, cfg.Crawler.RespectRobotsTxt)
	assert.False(t, cfg.Extraction.CaptureScreenshots)
	assert.Equal(t, []string{"/admin"}, cfg.Crawler.ExcludeURLs)
	assert.Equal(t, 100, cfg.Crawler.MaxPages, "unset fields keep their default")
}

func TestResolveRequiresBaseURL(t *testing.T) {
	_, err := Resolve(Overrides{})
	assert.True(t, errors.Is(err, ErrBaseURLRequired))

	_, err = Resolve(Overrides{Crawler: CrawlerOverrides{BaseURL: "ftp://ex.com"}})
	assert.Error(t, err)
}

func TestResolveRejectsInvalidValues(t *testing.T) {
	base := CrawlerOverrides{BaseURL: "https://ex.com"}

	bad := []Overrides{
		{Crawler: CrawlerOverrides{BaseURL: base.BaseURL, MaxDepth: Ptr(-1)}},
		{Crawler: CrawlerOverrides{BaseURL: base.BaseURL, MaxPages: Ptr(-5)}},
		{Crawler: CrawlerOverrides{BaseURL: base.BaseURL, RequestDelayMs: Ptr(-1)}},
		{Crawler: base, Output: OutputOverrides{Format: "pdf"}},
		{Crawler: base, LogLevel: "trace"},
	}
	for i, o := range bad {
		_, err := Resolve(o)
		assert.Error(t, err, "case %d", i)
	}
}

func TestMergeLaterWins(t *testing.T) {
	file := Overrides{Crawler: CrawlerOverrides{BaseURL: "https://a.com", MaxDepth: Ptr(5), MaxPages: Ptr(10)}}
	flags := Overrides{Crawler: CrawlerOverrides{MaxDepth: Ptr(1)}, Output: OutputOverrides{Format: FormatJSON}}

	merged := file.Merge(flags)
	require.NotNil(t, merged.Crawler.MaxDepth)
	assert.Equal(t, 1, *merged.Crawler.MaxDepth)
	assert.Equal(t, 10, *merged.Crawler.MaxPages)
	assert.Equal(t, "https://a.com", merged.Crawler.BaseURL)
	assert.Equal(t, FormatJSON, merged.Output.Format)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crawl.yaml")
	doc := `
crawler:
  baseUrl: https://ex.com
  maxDepth: 0
  requestDelay: 250
  excludeUrls: ["/admin", "\\.pdf$"]
  respectRobotsTxt: false
extraction:
  captureScreenshots: false
authentication:
  loginUrl: https://ex.com/login
  credentials:
    username: alice
output:
  format: json
logLevel: debug
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	o, err := LoadFile(path)
	require.NoError(t, err)

	cfg, err := Resolve(o)
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Crawler.MaxDepth)
	assert.Equal(t, 250*time.Millisecond, cfg.Crawler.RequestDelay)
	assert.Equal(t, []string{"/admin", `\.pdf$`}, cfg.Crawler.ExcludeURLs)
	assert.False(t, cfg.Crawler.RespectRobotsTxt)
	assert.False(t, cfg.Extraction.CaptureScreenshots)
	require.NotNil(t, cfg.Authentication)
	assert.Equal(t, "alice", cfg.Authentication.Credentials.Username)
	assert.Equal(t, FormatJSON, cfg.Output.Format)
	assert.Equal(t, "debug", cfg.LogLevel)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestLoadReadsFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	RegisterFlags(cmd)
	cmd.Flags().String("backend", DefaultBackend, "")
	require.NoError(t, cmd.ParseFlags([]string{"--timeout", "5s", "--user-agent", "Bot/2", "--verbose", "--backend", "playwright"}))

	cfg, err := Load(cmd)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.NavigationTimeout)
	assert.Equal(t, "Bot/2", cfg.UserAgent)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, BackendPlaywright, cfg.Backend)
	assert.True(t, cfg.Headless)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	RegisterFlags(cmd)
	cmd.Flags().String("backend", DefaultBackend, "")
	require.NoError(t, cmd.ParseFlags([]string{"--backend", "selenium"}))

	_, err := Load(cmd)
	assert.Error(t, err)
}
