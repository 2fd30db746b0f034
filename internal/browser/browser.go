// Package browser drives a real browser through a small capability interface so
// the crawl engine never talks to chromedp or playwright directly.
package browser

import (
	"context"
	"time"
)

// Link is an anchor found on a rendered page. Href is the raw attribute value.
type Link struct {
	Href string `json:"href"`
	Text string `json:"text"`
}

// Page is a single tab inside a browser context.
type Page interface {
	// Navigate loads url and waits for the page to settle or ctx to end.
	Navigate(ctx context.Context, url string) error
	Title(ctx context.Context) (string, error)
	// Content returns the fully rendered document as HTML.
	Content(ctx context.Context) (string, error)
	// Screenshot captures the full page as PNG.
	Screenshot(ctx context.Context) ([]byte, error)
	ExtractLinks(ctx context.Context) ([]Link, error)
	Close() error
}

// Driver starts browser processes for one automation backend.
type Driver interface {
	Launch(ctx context.Context, opts LaunchOptions) (Browser, error)
}

// Browser is a running browser process.
type Browser interface {
	NewContext(ctx context.Context, opts ContextOptions) (BrowserContext, error)
	Close() error
}

// BrowserContext is an isolated profile (cookies, storage) inside a Browser.
type BrowserContext interface {
	NewPage(ctx context.Context, opts PageOptions) (Page, error)
	Close() error
}

type LaunchOptions struct {
	Headless bool
	ExecPath string
	Proxy    string
}

type Viewport struct {
	Width  int
	Height int
}

type ContextOptions struct {
	UserAgent         string
	Viewport          Viewport
	IgnoreHTTPSErrors bool
	Headers           map[string]string
}

// ConsoleMessage is a console entry emitted by page scripts.
type ConsoleMessage struct {
	Level string
	Text  string
}

// Dialog is a blocking JavaScript dialog (alert, confirm, prompt, beforeunload).
type Dialog struct {
	Kind    string
	Message string
	// Err is set when the dialog could not be dismissed.
	Err error
}

type PageOptions struct {
	// Timeout bounds every page operation that has no earlier deadline.
	Timeout   time.Duration
	OnConsole func(ConsoleMessage)
	// OnDialog is called after dismissing the dialog was attempted.
	OnDialog func(Dialog)
}

// linksScript collects every anchor with an href in document order.
const linksScript = `Array.from(document.querySelectorAll('a[href]')).map(a => ({href: a.getAttribute('href') || '', text: (a.textContent || '').trim()}))`
