package config

import "time"

// Default constants for crawl and application configuration
const (
	AppName           = "appcrawl"
	DefaultConfigFile = ".appcrawl.yaml"

	DefaultMaxDepth         = 3
	DefaultMaxPages         = 100
	DefaultRequestDelay     = 500 * time.Millisecond
	DefaultRespectRobotsTxt = true
	DefaultUserAgent        = "Web-App-Scraper/1.0"

	DefaultCaptureScreenshots = true
	DefaultDetectWorkflows    = true
	DefaultMaxScreenshotWidth = 1200
	DefaultMaxWorkflowDepth   = 5

	DefaultOutputFormat = FormatMarkdown
	DefaultUseLLM       = true
	DefaultLogLevel     = "info"
	DefaultJSONLog      = false

	DefaultNavigationTimeout = 30 * time.Second
	DefaultSettleDelay       = 1 * time.Second
	DefaultPageTimeout       = 30 * time.Second
	DefaultViewportWidth     = 1280
	DefaultViewportHeight    = 800
	DefaultHeadless          = true
	DefaultBackend           = BackendChromedp

	DefaultRateLimitRPS        = 0.0 // disabled; requestDelay already paces the crawl
	DefaultRateLimitBurst      = 1
	DefaultRobotsCacheTTL      = 30 * time.Minute
	DefaultRobotsCacheMaxBytes = 4 * 1024 * 1024
)

// Output formats
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatHTML     = "html"
)

// Browser automation backends
const (
	BackendChromedp   = "chromedp"
	BackendPlaywright = "playwright"
)

// DefaultTextSelectors returns the selectors used to build page excerpts.
func DefaultTextSelectors() []string {
	return []string{
		"h1, h2, h3, h4, h5, h6",
		"p, li, td, th",
		`label, button, input[type="submit"]`,
		".content, .description, .help-text",
	}
}
