// Package browsertest provides an in-memory browser.Driver serving a scripted site.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/law-makers/appcrawl/internal/browser"
)

// PageSpec describes what the fake browser renders for one URL.
type PageSpec struct {
	Title         string
	HTML          string
	Links         []browser.Link
	NavErr        error
	LinksErr      error
	ScreenshotErr error
	Console       []browser.ConsoleMessage
	Dialogs       []browser.Dialog
}

// Site is a fake Driver. URLs without a PageSpec render as empty pages.
type Site struct {
	mu    sync.Mutex
	pages map[string]PageSpec

	LaunchErr     error
	NewContextErr error
	NewPageErr    error

	launches    int
	navigations []string
	events      []string
	openPages   int
	ctxOpts     []browser.ContextOptions
	pageOpts    []browser.PageOptions
}

func NewSite() *Site {
	return &Site{pages: make(map[string]PageSpec)}
}

// Add registers spec for url and returns the site for chaining.
func (s *Site) Add(url string, spec PageSpec) *Site {
	s.mu.Lock()
	s.pages[url] = spec
	s.mu.Unlock()
	return s
}

// Set replaces the spec for url, e.g. to change content between visits.
func (s *Site) Set(url string, spec PageSpec) {
	s.Add(url, spec)
}

// Launches is the number of successful or failed Launch calls.
func (s *Site) Launches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.launches
}

// Navigations lists every URL passed to Navigate, in order.
func (s *Site) Navigations() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.navigations...)
}

// Events is the lifecycle log: "launch", "context", "page", "close-page",
// "close-context", "close-browser".
func (s *Site) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.events...)
}

// OpenPages is the number of pages not yet closed.
func (s *Site) OpenPages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openPages
}

func (s *Site) ContextOptions() []browser.ContextOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]browser.ContextOptions(nil), s.ctxOpts...)
}

func (s *Site) PageOptions() []browser.PageOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]browser.PageOptions(nil), s.pageOpts...)
}

func (s *Site) record(ev string) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *Site) Launch(ctx context.Context, opts browser.LaunchOptions) (browser.Browser, error) {
	s.mu.Lock()
	s.launches++
	err := s.LaunchErr
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.record("launch")
	return &fakeBrowser{site: s}, nil
}

type fakeBrowser struct {
	site *Site
}

func (b *fakeBrowser) NewContext(ctx context.Context, opts browser.ContextOptions) (browser.BrowserContext, error) {
	s := b.site
	s.mu.Lock()
	err := s.NewContextErr
	s.ctxOpts = append(s.ctxOpts, opts)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.record("context")
	return &fakeContext{site: s}, nil
}

func (b *fakeBrowser) Close() error {
	b.site.record("close-browser")
	return nil
}

type fakeContext struct {
	site *Site
}

func (c *fakeContext) NewPage(ctx context.Context, opts browser.PageOptions) (browser.Page, error) {
	s := c.site
	s.mu.Lock()
	err := s.NewPageErr
	if err == nil {
		s.openPages++
		s.pageOpts = append(s.pageOpts, opts)
	}
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	s.record("page")
	return &fakePage{site: s, opts: opts}, nil
}

func (c *fakeContext) Close() error {
	c.site.record("close-context")
	return nil
}

type fakePage struct {
	site   *Site
	opts   browser.PageOptions
	url    string
	closed bool
}

var errNotNavigated = errors.New("page has not navigated")

func (p *fakePage) spec() (PageSpec, error) {
	if p.url == "" {
		return PageSpec{}, errNotNavigated
	}
	p.site.mu.Lock()
	defer p.site.mu.Unlock()
	return p.site.pages[p.url], nil
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.site.mu.Lock()
	p.site.navigations = append(p.site.navigations, url)
	spec := p.site.pages[url]
	p.site.mu.Unlock()

	if spec.NavErr != nil {
		return spec.NavErr
	}
	p.url = url
	for _, m := range spec.Console {
		if p.opts.OnConsole != nil {
			p.opts.OnConsole(m)
		}
	}
	for _, d := range spec.Dialogs {
		if p.opts.OnDialog != nil {
			p.opts.OnDialog(d)
		}
	}
	return nil
}

func (p *fakePage) Title(ctx context.Context) (string, error) {
	spec, err := p.spec()
	return spec.Title, err
}

func (p *fakePage) Content(ctx context.Context) (string, error) {
	spec, err := p.spec()
	return spec.HTML, err
}

func (p *fakePage) Screenshot(ctx context.Context) ([]byte, error) {
	spec, err := p.spec()
	if err != nil {
		return nil, err
	}
	if spec.ScreenshotErr != nil {
		return nil, spec.ScreenshotErr
	}
	return []byte(fmt.Sprintf("png:%s", p.url)), nil
}

func (p *fakePage) ExtractLinks(ctx context.Context) ([]browser.Link, error) {
	spec, err := p.spec()
	if err != nil {
		return nil, err
	}
	if spec.LinksErr != nil {
		return nil, spec.LinksErr
	}
	return append([]browser.Link(nil), spec.Links...), nil
}

func (p *fakePage) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.site.mu.Lock()
	p.site.openPages--
	p.site.mu.Unlock()
	p.site.record("close-page")
	return nil
}

// Static is a Page serving fixed values without a Site, for tests of code that
// only reads a page.
type Static struct {
	TitleText string
	HTML      string
	Err       error
}

func (s *Static) Navigate(context.Context, string) error { return s.Err }

func (s *Static) Title(context.Context) (string, error) { return s.TitleText, s.Err }

func (s *Static) Content(context.Context) (string, error) { return s.HTML, s.Err }

func (s *Static) Screenshot(context.Context) ([]byte, error) { return []byte("png"), s.Err }

func (s *Static) ExtractLinks(context.Context) ([]browser.Link, error) { return nil, s.Err }

func (s *Static) Close() error { return nil }
