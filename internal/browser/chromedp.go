// internal/browser/chromedp.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/security"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/appcrawl/internal/crawlerr"
)

// ChromeDriver launches Chrome over the DevTools protocol with chromedp.
type ChromeDriver struct {
	// ExtraFlags are appended to the allocator options.
	ExtraFlags []chromedp.ExecAllocatorOption
}

func (d ChromeDriver) allocatorOptions(opts LaunchOptions) []chromedp.ExecAllocatorOption {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-client-side-phishing-detection", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-ipc-flooding-protection", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("force-color-profile", "srgb"),
		chromedp.Flag("metrics-recording-only", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("ignore-certificate-errors", true),
		chromedp.WindowSize(1280, 800),
	}

	if opts.ExecPath != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(opts.ExecPath)}, allocOpts...)
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}
	return append(allocOpts, d.ExtraFlags...)
}

// Launch starts the browser process. The process outlives ctx and is stopped by Browser.Close.
func (d ChromeDriver) Launch(ctx context.Context, opts LaunchOptions) (Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), d.allocatorOptions(opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// The first Run starts Chrome; it must not carry a deadline or the whole browser dies with it.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		if strings.Contains(err.Error(), "executable file not found") {
			return nil, fmt.Errorf("%w: %v", crawlerr.ErrBrowserNotFound, err)
		}
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	return &chromeBrowser{ctx: browserCtx, cancel: browserCancel, allocCancel: allocCancel}, nil
}

type chromeBrowser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	closeOnce   sync.Once
	closeErr    error
}

func (b *chromeBrowser) NewContext(ctx context.Context, opts ContextOptions) (BrowserContext, error) {
	if err := b.ctx.Err(); err != nil {
		return nil, crawlerr.ErrSessionClosed
	}

	cctx, cancel := chromedp.NewContext(b.ctx, chromedp.WithNewBrowserContext())
	// Creates the isolated browser context; pages opened from cctx inherit it.
	if err := chromedp.Run(cctx); err != nil {
		cancel()
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	return &chromeContext{ctx: cctx, cancel: cancel, opts: opts}, nil
}

func (b *chromeBrowser) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = chromedp.Cancel(b.ctx)
		b.cancel()
		b.allocCancel()
	})
	return b.closeErr
}

type chromeContext struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   ContextOptions
}

func (c *chromeContext) NewPage(ctx context.Context, opts PageOptions) (Page, error) {
	if err := c.ctx.Err(); err != nil {
		return nil, crawlerr.ErrSessionClosed
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	pctx, cancel := chromedp.NewContext(c.ctx)
	p := &chromePage{ctx: pctx, cancel: cancel, timeout: opts.Timeout}

	chromedp.ListenTarget(pctx, func(ev interface{}) {
		switch ev := ev.(type) {
		case *runtime.EventConsoleAPICalled:
			if opts.OnConsole == nil {
				return
			}
			if ev.Type != runtime.APITypeError && ev.Type != runtime.APITypeWarning {
				return
			}
			opts.OnConsole(ConsoleMessage{Level: string(ev.Type), Text: consoleText(ev.Args)})
		case *page.EventJavascriptDialogOpening:
			d := Dialog{Kind: string(ev.Type), Message: ev.Message}
			// Handling the dialog from inside the listener would deadlock.
			go func() {
				d.Err = chromedp.Run(pctx, page.HandleJavaScriptDialog(false))
				if opts.OnDialog != nil {
					opts.OnDialog(d)
				}
			}()
		}
	})

	setup := []chromedp.Action{network.Enable()}
	if len(c.opts.Headers) > 0 {
		headers := network.Headers{}
		for k, v := range c.opts.Headers {
			headers[k] = v
		}
		setup = append(setup, network.SetExtraHTTPHeaders(headers))
	}
	if c.opts.UserAgent != "" {
		setup = append(setup, emulation.SetUserAgentOverride(c.opts.UserAgent))
	}
	if c.opts.Viewport.Width > 0 && c.opts.Viewport.Height > 0 {
		setup = append(setup, chromedp.EmulateViewport(int64(c.opts.Viewport.Width), int64(c.opts.Viewport.Height)))
	}
	if c.opts.IgnoreHTTPSErrors {
		setup = append(setup, security.SetIgnoreCertificateErrors(true))
	}

	// First Run opens the tab; no deadline here for the same reason as Launch.
	if err := chromedp.Run(pctx, setup...); err != nil {
		cancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	return p, nil
}

func (c *chromeContext) Close() error {
	err := chromedp.Cancel(c.ctx)
	c.cancel()
	return err
}

func consoleText(args []*runtime.RemoteObject) string {
	parts := make([]string, 0, len(args))
	for _, a := range args {
		switch {
		case a == nil:
		case len(a.Value) > 0:
			parts = append(parts, strings.Trim(string(a.Value), `"`))
		case a.Description != "":
			parts = append(parts, a.Description)
		}
	}
	return strings.Join(parts, " ")
}

type chromePage struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
}

// run executes actions bounded by the page timeout and by ctx.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()
	if dl, ok := ctx.Deadline(); ok {
		var cancelDL context.CancelFunc
		runCtx, cancelDL = context.WithDeadline(runCtx, dl)
		defer cancelDL()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url))
}

func (p *chromePage) Title(ctx context.Context) (string, error) {
	var title string
	err := p.run(ctx, chromedp.Title(&title))
	return title, err
}

func (p *chromePage) Content(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (p *chromePage) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	// Quality 100 yields PNG
	err := p.run(ctx, chromedp.FullScreenshot(&buf, 100))
	return buf, err
}

func (p *chromePage) ExtractLinks(ctx context.Context) ([]Link, error) {
	var links []Link
	err := p.run(ctx, chromedp.Evaluate(linksScript, &links))
	return links, err
}

func (p *chromePage) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	return err
}
