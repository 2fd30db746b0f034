package config

import (
	"fmt"
	"strings"

	urlutil "github.com/law-makers/appcrawl/internal/utils/url"
)

func validate(c *Config) error {
	if c.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be > 0")
	}
	if !validLogLevel(c.LogLevel) {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("rate limit must be >= 0")
	}
	if c.RobotsCacheMaxBytes <= 0 {
		return fmt.Errorf("robots cache size must be > 0")
	}
	return nil
}

func validateScraper(c *ScraperConfig) error {
	if strings.TrimSpace(c.Crawler.BaseURL) == "" {
		return ErrBaseURLRequired
	}
	if err := urlutil.ValidateURL(c.Crawler.BaseURL); err != nil {
		return fmt.Errorf("crawler.baseUrl: %w", err)
	}
	if c.Crawler.MaxDepth < 0 {
		return fmt.Errorf("crawler.maxDepth must be >= 0, got %d", c.Crawler.MaxDepth)
	}
	if c.Crawler.MaxPages < 0 {
		return fmt.Errorf("crawler.maxPages must be >= 0, got %d", c.Crawler.MaxPages)
	}
	if c.Crawler.RequestDelay < 0 {
		return fmt.Errorf("crawler.requestDelay must be >= 0")
	}
	switch c.Output.Format {
	case FormatMarkdown, FormatJSON, FormatHTML:
	default:
		return fmt.Errorf("output.format must be markdown, json or html, got %q", c.Output.Format)
	}
	if !validLogLevel(c.LogLevel) {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}

func validBackend(b string) bool {
	return b == BackendChromedp || b == BackendPlaywright
}

func validLogLevel(l string) bool {
	switch strings.ToLower(l) {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
