package config

import (
	"errors"
	"fmt"
	"time"
)

// ErrBaseURLRequired is returned when no crawler.baseUrl is supplied.
var ErrBaseURLRequired = errors.New("crawler.baseUrl is required")

// ScraperConfig is the fully resolved crawl configuration.
type ScraperConfig struct {
	Crawler        CrawlerConfig
	Authentication *AuthConfig
	Extraction     ExtractionConfig
	Output         OutputConfig
	UseLLM         bool
	LogLevel       string
}

// CrawlerConfig bounds and paces the crawl.
type CrawlerConfig struct {
	BaseURL          string
	MaxDepth         int
	MaxPages         int // 0 means unbounded
	RequestDelay     time.Duration
	ExcludeURLs      []string
	RespectRobotsTxt bool
	UserAgent        string
}

// ExtractionConfig controls what is captured per page. DetectWorkflows and
// MaxWorkflowDepth are carried for compatibility; nothing consumes them yet.
type ExtractionConfig struct {
	CaptureScreenshots bool
	DetectWorkflows    bool
	TextSelectors      []string
	MaxScreenshotWidth int
	MaxWorkflowDepth   int
}

// AuthConfig describes a login flow. Only credential lookup is implemented.
type AuthConfig struct {
	LoginURL    string       `yaml:"loginUrl"`
	Credentials *Credentials `yaml:"credentials"`
	OTPHandler  *OTPHandler  `yaml:"otpHandler"`
}

type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type OTPHandler struct {
	Enabled   bool `yaml:"enabled"`
	TimeoutMs int  `yaml:"timeout"`
}

// OutputConfig selects where and how generated documents are written.
type OutputConfig struct {
	Directory string
	Format    string
}

// Overrides is the caller-supplied, partially filled configuration. Nil pointers
// and empty strings mean "use the default".
type Overrides struct {
	Crawler        CrawlerOverrides    `yaml:"crawler"`
	Authentication *AuthConfig         `yaml:"authentication"`
	Extraction     ExtractionOverrides `yaml:"extraction"`
	Output         OutputOverrides     `yaml:"output"`
	UseLLM         *bool               `yaml:"useLLM"`
	LogLevel       string              `yaml:"logLevel"`
}

type CrawlerOverrides struct {
	BaseURL          string   `yaml:"baseUrl"`
	MaxDepth         *int     `yaml:"maxDepth"`
	MaxPages         *int     `yaml:"maxPages"`
	RequestDelayMs   *int     `yaml:"requestDelay"`
	ExcludeURLs      []string `yaml:"excludeUrls"`
	RespectRobotsTxt *bool    `yaml:"respectRobotsTxt"`
	UserAgent        string   `yaml:"userAgent"`
}

type ExtractionOverrides struct {
	CaptureScreenshots *bool    `yaml:"captureScreenshots"`
	DetectWorkflows    *bool    `yaml:"detectWorkflows"`
	TextSelectors      []string `yaml:"textSelectors"`
	MaxScreenshotWidth *int     `yaml:"maxScreenshotWidth"`
	MaxWorkflowDepth   *int     `yaml:"maxWorkflowDepth"`
}

type OutputOverrides struct {
	Directory string `yaml:"directory"`
	Format    string `yaml:"format"`
}

// Ptr returns a pointer to v, for filling Overrides literals.
func Ptr[T any](v T) *T {
	return &v
}

// Defaults returns the configuration used when nothing is overridden. BaseURL is left empty.
func Defaults() ScraperConfig {
	return ScraperConfig{
		Crawler: CrawlerConfig{
			MaxDepth:         DefaultMaxDepth,
			MaxPages:         DefaultMaxPages,
			RequestDelay:     DefaultRequestDelay,
			RespectRobotsTxt: DefaultRespectRobotsTxt,
			UserAgent:        DefaultUserAgent,
		},
		Extraction: ExtractionConfig{
			CaptureScreenshots: DefaultCaptureScreenshots,
			DetectWorkflows:    DefaultDetectWorkflows,
			TextSelectors:      DefaultTextSelectors(),
			MaxScreenshotWidth: DefaultMaxScreenshotWidth,
			MaxWorkflowDepth:   DefaultMaxWorkflowDepth,
		},
		Output: OutputConfig{
			Format: DefaultOutputFormat,
		},
		UseLLM:   DefaultUseLLM,
		LogLevel: DefaultLogLevel,
	}
}

// Resolve merges o over Defaults and validates the result.
func Resolve(o Overrides) (ScraperConfig, error) {
	cfg := Defaults()
	o.applyTo(&cfg)

	if err := validateScraper(&cfg); err != nil {
		return ScraperConfig{}, err
	}
	return cfg, nil
}

// Merge layers next over o: fields set in next win.
func (o Overrides) Merge(next Overrides) Overrides {
	out := o
	c, n := &out.Crawler, next.Crawler
	if n.BaseURL != "" {
		c.BaseURL = n.BaseURL
	}
	if n.MaxDepth != nil {
		c.MaxDepth = n.MaxDepth
	}
	if n.MaxPages != nil {
		c.MaxPages = n.MaxPages
	}
	if n.RequestDelayMs != nil {
		c.RequestDelayMs = n.RequestDelayMs
	}
	if n.ExcludeURLs != nil {
		c.ExcludeURLs = n.ExcludeURLs
	}
	if n.RespectRobotsTxt != nil {
		c.RespectRobotsTxt = n.RespectRobotsTxt
	}
	if n.UserAgent != "" {
		c.UserAgent = n.UserAgent
	}

	e, ne := &out.Extraction, next.Extraction
	if ne.CaptureScreenshots != nil {
		e.CaptureScreenshots = ne.CaptureScreenshots
	}
	if ne.DetectWorkflows != nil {
		e.DetectWorkflows = ne.DetectWorkflows
	}
	if ne.TextSelectors != nil {
		e.TextSelectors = ne.TextSelectors
	}
	if ne.MaxScreenshotWidth != nil {
		e.MaxScreenshotWidth = ne.MaxScreenshotWidth
	}
	if ne.MaxWorkflowDepth != nil {
		e.MaxWorkflowDepth = ne.MaxWorkflowDepth
	}

	if next.Output.Directory != "" {
		out.Output.Directory = next.Output.Directory
	}
	if next.Output.Format != "" {
		out.Output.Format = next.Output.Format
	}
	if next.Authentication != nil {
		out.Authentication = next.Authentication
	}
	if next.UseLLM != nil {
		out.UseLLM = next.UseLLM
	}
	if next.LogLevel != "" {
		out.LogLevel = next.LogLevel
	}
	return out
}

func (o Overrides) applyTo(cfg *ScraperConfig) {
	c := o.Crawler
	cfg.Crawler.BaseURL = c.BaseURL
	if c.MaxDepth != nil {
		cfg.Crawler.MaxDepth = *c.MaxDepth
	}
	if c.MaxPages != nil {
		cfg.Crawler.MaxPages = *c.MaxPages
	}
	if c.RequestDelayMs != nil {
		cfg.Crawler.RequestDelay = time.Duration(*c.RequestDelayMs) * time.Millisecond
	}
	if c.ExcludeURLs != nil {
		cfg.Crawler.ExcludeURLs = append([]string(nil), c.ExcludeURLs...)
	}
	if c.RespectRobotsTxt != nil {
		cfg.Crawler.RespectRobotsTxt = *c.RespectRobotsTxt
	}
	if c.UserAgent != "" {
		cfg.Crawler.UserAgent = c.UserAgent
	}

	e := o.Extraction
	if e.CaptureScreenshots != nil {
		cfg.Extraction.CaptureScreenshots = *e.CaptureScreenshots
	}
	if e.DetectWorkflows != nil {
		cfg.Extraction.DetectWorkflows = *e.DetectWorkflows
	}
	if e.TextSelectors != nil {
		cfg.Extraction.TextSelectors = append([]string(nil), e.TextSelectors...)
	}
	if e.MaxScreenshotWidth != nil {
		cfg.Extraction.MaxScreenshotWidth = *e.MaxScreenshotWidth
	}
	if e.MaxWorkflowDepth != nil {
		cfg.Extraction.MaxWorkflowDepth = *e.MaxWorkflowDepth
	}

	if o.Output.Directory != "" {
		cfg.Output.Directory = o.Output.Directory
	}
	if o.Output.Format != "" {
		cfg.Output.Format = o.Output.Format
	}
	if o.Authentication != nil {
		auth := *o.Authentication
		cfg.Authentication = &auth
	}
	if o.UseLLM != nil {
		cfg.UseLLM = *o.UseLLM
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
}

func (c ScraperConfig) String() string {
	return fmt.Sprintf("baseUrl=%s maxDepth=%d maxPages=%d delay=%s robots=%t",
		c.Crawler.BaseURL, c.Crawler.MaxDepth, c.Crawler.MaxPages, c.Crawler.RequestDelay, c.Crawler.RespectRobotsTxt)
}
