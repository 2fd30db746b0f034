// internal/browser/manager.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/law-makers/appcrawl/internal/crawlerr"
	"github.com/rs/zerolog"
)

// Options configures the session a Manager opens.
type Options struct {
	Launch      LaunchOptions
	UserAgent   string
	Headers     map[string]string
	PageTimeout time.Duration
}

// Manager owns one browser process and one isolated context shared by every
// page of a crawl.
type Manager struct {
	driver Driver
	opts   Options
	logger zerolog.Logger

	mu      sync.Mutex
	browser Browser
	bctx    BrowserContext
}

// NewManager creates a Manager. Nothing is launched until Initialize or NewPage.
func NewManager(d Driver, opts Options, logger zerolog.Logger) *Manager {
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 30 * time.Second
	}
	return &Manager{
		driver: d,
		opts:   opts,
		logger: logger.With().Str("component", "browser").Logger(),
	}
}

// Initialize launches the browser and its context. Calling it again is a no-op.
func (m *Manager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initLocked(ctx)
}

func (m *Manager) initLocked(ctx context.Context) error {
	if m.bctx != nil {
		return nil
	}

	start := time.Now()
	b, err := m.driver.Launch(ctx, m.opts.Launch)
	if err != nil {
		return crawlerr.Resource("launch browser", err)
	}

	bctx, err := b.NewContext(ctx, ContextOptions{
		UserAgent:         m.opts.UserAgent,
		Viewport:          Viewport{Width: 1280, Height: 800},
		IgnoreHTTPSErrors: true,
		Headers:           m.opts.Headers,
	})
	if err != nil {
		if cerr := b.Close(); cerr != nil {
			m.logger.Warn().Err(cerr).Msg("Failed to close browser after context error")
		}
		return crawlerr.Resource("create browser context", err)
	}

	m.browser, m.bctx = b, bctx
	m.logger.Info().
		Bool("headless", m.opts.Launch.Headless).
		Dur("startup", time.Since(start)).
		Msg("Browser session ready")
	return nil
}

// NewPage opens a tab, initializing the session first if needed. Console errors
// and warnings are logged and dialogs are dismissed.
func (m *Manager) NewPage(ctx context.Context) (Page, error) {
	m.mu.Lock()
	if err := m.initLocked(ctx); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	bctx := m.bctx
	m.mu.Unlock()

	p, err := bctx.NewPage(ctx, PageOptions{
		Timeout: m.opts.PageTimeout,
		OnConsole: func(msg ConsoleMessage) {
			m.logger.Warn().Str("level", msg.Level).Str("text", msg.Text).Msg("Page console")
		},
		OnDialog: func(d Dialog) {
			if d.Err != nil {
				m.logger.Warn().Err(d.Err).Str("type", d.Kind).Str("message", d.Message).Msg("Failed to dismiss dialog")
				return
			}
			m.logger.Info().Str("type", d.Kind).Str("message", d.Message).Msg("Dismissed dialog")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}
	return p, nil
}

// TakeScreenshot captures page as a full-page PNG. name only labels the log entry.
func (m *Manager) TakeScreenshot(ctx context.Context, page Page, name string) ([]byte, error) {
	data, err := page.Screenshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("screenshot %s: %w", name, err)
	}
	m.logger.Debug().Str("name", name).Int("bytes", len(data)).Msg("Captured screenshot")
	return data, nil
}

// Close releases the context then the browser. Errors are logged, never returned.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.bctx != nil {
		if err := m.bctx.Close(); err != nil {
			m.logger.Warn().Err(err).Msg("Failed to close browser context")
		}
		m.bctx = nil
	}
	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			m.logger.Warn().Err(err).Msg("Failed to close browser")
		}
		m.browser = nil
		m.logger.Debug().Msg("Browser session closed")
	}
}
