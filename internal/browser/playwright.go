// internal/browser/playwright.go
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PlaywrightDriver launches Chromium through the Playwright driver. The driver
// and browsers must already be installed (playwright install chromium).
type PlaywrightDriver struct {
	Args []string
}

func (d PlaywrightDriver) Launch(ctx context.Context, opts LaunchOptions) (Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	launch := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
		Args:     append([]string{"--disable-dev-shm-usage", "--disable-blink-features=AutomationControlled"}, d.Args...),
	}
	if opts.ExecPath != "" {
		launch.ExecutablePath = playwright.String(opts.ExecPath)
	}
	if opts.Proxy != "" {
		launch.Proxy = &playwright.Proxy{Server: opts.Proxy}
	}

	b, err := pw.Chromium.Launch(launch)
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	return &pwBrowser{pw: pw, browser: b}, nil
}

type pwBrowser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
}

func (b *pwBrowser) NewContext(ctx context.Context, opts ContextOptions) (BrowserContext, error) {
	co := playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(opts.IgnoreHTTPSErrors),
	}
	if opts.UserAgent != "" {
		co.UserAgent = playwright.String(opts.UserAgent)
	}
	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		co.Viewport = &playwright.Size{Width: opts.Viewport.Width, Height: opts.Viewport.Height}
	}
	if len(opts.Headers) > 0 {
		co.ExtraHttpHeaders = opts.Headers
	}

	bc, err := b.browser.NewContext(co)
	if err != nil {
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	return &pwContext{bc: bc}, nil
}

func (b *pwBrowser) Close() error {
	err := b.browser.Close()
	if stopErr := b.pw.Stop(); err == nil {
		err = stopErr
	}
	return err
}

type pwContext struct {
	bc playwright.BrowserContext
}

func (c *pwContext) NewPage(ctx context.Context, opts PageOptions) (Page, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	p, err := c.bc.NewPage()
	if err != nil {
		return nil, fmt.Errorf("open tab: %w", err)
	}
	p.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))

	p.OnConsole(func(m playwright.ConsoleMessage) {
		if opts.OnConsole == nil {
			return
		}
		if t := m.Type(); t == "error" || t == "warning" {
			opts.OnConsole(ConsoleMessage{Level: t, Text: m.Text()})
		}
	})
	p.OnDialog(func(d playwright.Dialog) {
		err := d.Dismiss()
		if opts.OnDialog != nil {
			opts.OnDialog(Dialog{Kind: d.Type(), Message: d.Message(), Err: err})
		}
	})

	return &pwPage{page: p, timeout: opts.Timeout}, nil
}

func (c *pwContext) Close() error {
	return c.bc.Close()
}

type pwPage struct {
	page    playwright.Page
	timeout time.Duration
}

// timeoutMs is the smaller of the page timeout and the time left on ctx.
func (p *pwPage) timeoutMs(ctx context.Context) float64 {
	d := p.timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d {
			d = left
		}
	}
	if d <= 0 {
		d = time.Millisecond
	}
	return float64(d.Milliseconds())
}

func (p *pwPage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   playwright.Float(p.timeoutMs(ctx)),
	})
	return err
}

func (p *pwPage) Title(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.page.Title()
}

func (p *pwPage) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.page.Content()
}

func (p *pwPage) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.page.Screenshot(playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(true),
		Type:     playwright.ScreenshotTypePng,
		Timeout:  playwright.Float(p.timeoutMs(ctx)),
	})
}

func (p *pwPage) ExtractLinks(ctx context.Context) ([]Link, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := p.page.Evaluate(linksScript)
	if err != nil {
		return nil, err
	}

	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected links result %T", raw)
	}
	links := make([]Link, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]interface{})
		if !ok {
			continue
		}
		href, _ := m["href"].(string)
		text, _ := m["text"].(string)
		links = append(links, Link{Href: href, Text: text})
	}
	return links, nil
}

func (p *pwPage) Close() error {
	return p.page.Close()
}
