// internal/retry/retry.go
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/law-makers/appcrawl/internal/clock"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config defines retry behavior with exponential backoff
type Config struct {
	MaxAttempts          int             // Total attempts including the first
	InitialBackoff       time.Duration   // Backoff after the first failure
	MaxBackoff           time.Duration   // Backoff ceiling
	Multiplier           float64         // Growth factor between attempts
	RetryableStatusCodes []int           // HTTP statuses worth another attempt
	Clock                clock.Clock     // nil means real time
	Logger               *zerolog.Logger // nil means the global logger
}

// DefaultConfig suits small fetches such as robots.txt.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
		RetryableStatusCodes: []int{
			http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout,
		},
	}
}

// StatusCoder is implemented by errors that carry an HTTP status code
type StatusCoder interface {
	GetStatusCode() int
}

// HTTPError represents a non-success HTTP response
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d %s from %s", e.StatusCode, http.StatusText(e.StatusCode), e.URL)
}

func (e HTTPError) GetStatusCode() int {
	return e.StatusCode
}

// Do runs fn until it succeeds, returns a non-retryable error, ctx ends, or
// MaxAttempts is reached.
func Do(ctx context.Context, cfg Config, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &log.Logger
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Debug().Int("attempts", attempt+1).Msg("Retry succeeded")
			}
			return nil
		}
		lastErr = err

		if !retryable(err, cfg) {
			return err
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		wait := backoff(attempt, cfg)
		logger.Debug().
			Int("attempt", attempt+1).
			Int("max_attempts", cfg.MaxAttempts).
			Dur("backoff", wait).
			Err(err).
			Msg("Retrying after backoff")

		if err := clk.Sleep(ctx, wait); err != nil {
			return err
		}
	}

	return fmt.Errorf("operation failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}

func backoff(attempt int, cfg Config) time.Duration {
	d := float64(cfg.InitialBackoff) * math.Pow(cfg.Multiplier, float64(attempt))
	if cfg.MaxBackoff > 0 && d > float64(cfg.MaxBackoff) {
		d = float64(cfg.MaxBackoff)
	}
	return time.Duration(d)
}

func retryable(err error, cfg Config) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var sc StatusCoder
	if errors.As(err, &sc) {
		code := sc.GetStatusCode()
		for _, c := range cfg.RetryableStatusCodes {
			if code == c {
				return true
			}
		}
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) {
		return timeout.Timeout()
	}

	// Transport failures without more detail are worth another attempt.
	return true
}
