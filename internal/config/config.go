package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool
	Quiet    bool

	// Browser
	Backend           string
	UserAgent         string
	Proxy             string
	ChromePath        string
	Headless          bool
	NavigationTimeout time.Duration

	// Pacing beyond requestDelay
	RateLimitRPS   float64
	RateLimitBurst int

	// Robots
	RobotsCacheTTL      time.Duration
	RobotsCacheMaxBytes int64

	// ConfigFile is the YAML file Scraper was read from, if any.
	ConfigFile string
	Scraper    Overrides
}

// Load builds a Config by combining defaults, an optional config file, environment variables, and CLI flags.
// Pass the executing *cobra.Command so both its local and inherited flags can be read.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := &Config{
		LogLevel:            DefaultLogLevel,
		JSONLog:             DefaultJSONLog,
		Backend:             DefaultBackend,
		Headless:            DefaultHeadless,
		NavigationTimeout:   DefaultNavigationTimeout,
		RateLimitRPS:        DefaultRateLimitRPS,
		RateLimitBurst:      DefaultRateLimitBurst,
		RobotsCacheTTL:      DefaultRobotsCacheTTL,
		RobotsCacheMaxBytes: DefaultRobotsCacheMaxBytes,
	}

	explicit, _ := flagValue(cmd, "config")
	if path := FindConfigFile(explicit); path != "" {
		overrides, err := LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		cfg.ConfigFile = path
		cfg.Scraper = overrides
		if overrides.LogLevel != "" {
			cfg.LogLevel = overrides.LogLevel
		}
	} else if explicit != "" {
		return nil, fmt.Errorf("read config %s: %w", explicit, ErrConfigNotFound)
	}

	// Override from environment variables
	if v := os.Getenv("APPCRAWL_USER_AGENT"); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv("APPCRAWL_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("APPCRAWL_CHROME_PATH"); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv("APPCRAWL_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	// CLI flags win
	if s, ok := flagValue(cmd, "user-agent"); ok && s != "" {
		cfg.UserAgent = s
	}
	if s, ok := flagValue(cmd, "proxy"); ok && s != "" {
		cfg.Proxy = s
	}
	if s, ok := flagValue(cmd, "chrome-path"); ok && s != "" {
		cfg.ChromePath = s
	}
	if s, ok := flagValue(cmd, "timeout"); ok && s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("invalid --timeout %q: %w", s, err)
		}
		cfg.NavigationTimeout = d
	}
	if s, ok := flagValue(cmd, "backend"); ok && s != "" {
		cfg.Backend = s
	}
	if s, ok := flagValue(cmd, "rate"); ok && s != "" {
		rps, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --rate %q: %w", s, err)
		}
		cfg.RateLimitRPS = rps
	}
	if s, _ := flagValue(cmd, "headful"); s == "true" {
		cfg.Headless = false
	}
	if s, _ := flagValue(cmd, "json"); s == "true" {
		cfg.JSONLog = true
	}
	if s, _ := flagValue(cmd, "verbose"); s == "true" {
		cfg.LogLevel = "debug"
	}
	if s, _ := flagValue(cmd, "quiet"); s == "true" {
		cfg.LogLevel = "error"
		cfg.Quiet = true
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if !validBackend(cfg.Backend) {
		return nil, fmt.Errorf("invalid config: %w", errors.New("backend must be chromedp or playwright"))
	}

	return cfg, nil
}

// flagValue returns the string value of a local or inherited flag and whether it exists.
func flagValue(cmd *cobra.Command, name string) (string, bool) {
	if cmd == nil {
		return "", false
	}
	f := cmd.Flags().Lookup(name)
	if f == nil {
		f = cmd.InheritedFlags().Lookup(name)
	}
	if f == nil {
		return "", false
	}
	return f.Value.String(), true
}
