package browser_test

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/law-makers/appcrawl/internal/browser"
	"github.com/law-makers/appcrawl/internal/browser/browsertest"
	"github.com/law-makers/appcrawl/internal/crawlerr"
	"github.com/rs/zerolog"
)

func newManager(site *browsertest.Site, buf *bytes.Buffer) *browser.Manager {
	logger := zerolog.Nop()
	if buf != nil {
		logger = zerolog.New(buf)
	}
	return browser.NewManager(site, browser.Options{
		Launch:    browser.LaunchOptions{Headless: true},
		UserAgent: "Web-App-Scraper/1.0",
		Headers:   map[string]string{"X-Test": "1"},
	}, logger)
}

func TestInitializeIsIdempotent(t *testing.T) {
	site := browsertest.NewSite()
	m := newManager(site, nil)
	defer m.Close()

	ctx := context.Background()
	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := m.Initialize(ctx); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	if got := site.Launches(); got != 1 {
		t.Errorf("expected one launch, got %d", got)
	}

	opts := site.ContextOptions()
	if len(opts) != 1 {
		t.Fatalf("expected one context, got %d", len(opts))
	}
	want := browser.ContextOptions{
		UserAgent:         "Web-App-Scraper/1.0",
		Viewport:          browser.Viewport{Width: 1280, Height: 800},
		IgnoreHTTPSErrors: true,
		Headers:           map[string]string{"X-Test": "1"},
	}
	if !reflect.DeepEqual(opts[0], want) {
		t.Errorf("context options = %+v, want %+v", opts[0], want)
	}
}

func TestInitializeFailureIsResourceError(t *testing.T) {
	site := browsertest.NewSite()
	site.LaunchErr = crawlerr.ErrBrowserNotFound
	m := newManager(site, nil)

	err := m.Initialize(context.Background())
	if !crawlerr.IsResource(err) {
		t.Fatalf("expected resource error, got %v", err)
	}
	if !errors.Is(err, crawlerr.ErrBrowserNotFound) {
		t.Errorf("expected cause to be preserved, got %v", err)
	}

	if _, err := m.NewPage(context.Background()); !crawlerr.IsResource(err) {
		t.Errorf("NewPage should surface the init failure as a resource error, got %v", err)
	}
}

func TestContextFailureClosesBrowser(t *testing.T) {
	site := browsertest.NewSite()
	site.NewContextErr = errors.New("no contexts left")
	m := newManager(site, nil)

	if err := m.Initialize(context.Background()); !crawlerr.IsResource(err) {
		t.Fatalf("expected resource error, got %v", err)
	}
	if ev := site.Events(); !reflect.DeepEqual(ev, []string{"launch", "close-browser"}) {
		t.Errorf("unexpected lifecycle %v", ev)
	}
}

func TestNewPageAutoInitializes(t *testing.T) {
	site := browsertest.NewSite()
	m := newManager(site, nil)
	defer m.Close()

	p, err := m.NewPage(context.Background())
	if err != nil {
		t.Fatalf("NewPage: %v", err)
	}
	defer p.Close()

	if site.Launches() != 1 {
		t.Errorf("expected NewPage to launch the browser")
	}
	po := site.PageOptions()
	if len(po) != 1 || po[0].Timeout != 30*time.Second {
		t.Errorf("expected 30s default page timeout, got %+v", po)
	}
}

func TestNewPageErrorIsNotResource(t *testing.T) {
	site := browsertest.NewSite()
	site.NewPageErr = errors.New("tab crashed")
	m := newManager(site, nil)
	defer m.Close()

	_, err := m.NewPage(context.Background())
	if err == nil || crawlerr.IsResource(err) {
		t.Fatalf("expected plain error, got %v", err)
	}
}

func TestConsoleAndDialogsAreLogged(t *testing.T) {
	site := browsertest.NewSite()
	site.Add("https://ex.com/", browsertest.PageSpec{
		Console: []browser.ConsoleMessage{{Level: "error", Text: "boom"}},
		Dialogs: []browser.Dialog{{Kind: "alert", Message: "hello"}},
	})
	var buf bytes.Buffer
	m := newManager(site, &buf)
	defer m.Close()

	p, err := m.NewPage(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Navigate(context.Background(), "https://ex.com/"); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, `"text":"boom"`) {
		t.Errorf("console message not logged: %s", out)
	}
	if !strings.Contains(out, `"message":"hello"`) {
		t.Errorf("dialog not logged: %s", out)
	}
}

func TestDialogDismissFailureIsLogged(t *testing.T) {
	site := browsertest.NewSite()
	site.Add("https://ex.com/", browsertest.PageSpec{
		Dialogs: []browser.Dialog{{Kind: "confirm", Message: "leave?", Err: errors.New("target closed")}},
	})
	var buf bytes.Buffer
	m := newManager(site, &buf)
	defer m.Close()

	p, err := m.NewPage(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Navigate(context.Background(), "https://ex.com/"); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "Failed to dismiss dialog") || !strings.Contains(out, "target closed") {
		t.Errorf("dismiss failure not logged: %s", out)
	}
	if strings.Contains(out, "Dismissed dialog") {
		t.Errorf("a failed dismiss must not be logged as dismissed: %s", out)
	}
}

func TestTakeScreenshot(t *testing.T) {
	site := browsertest.NewSite()
	m := newManager(site, nil)
	defer m.Close()

	ctx := context.Background()
	p, _ := m.NewPage(ctx)
	_ = p.Navigate(ctx, "https://ex.com/a")

	data, err := m.TakeScreenshot(ctx, p, "page-https___ex_com_a")
	if err != nil {
		t.Fatalf("TakeScreenshot: %v", err)
	}
	if string(data) != "png:https://ex.com/a" {
		t.Errorf("unexpected screenshot bytes %q", data)
	}
}

func TestCloseOrderAndIdempotence(t *testing.T) {
	site := browsertest.NewSite()
	m := newManager(site, nil)

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	m.Close()
	m.Close()

	want := []string{"launch", "context", "close-context", "close-browser"}
	if ev := site.Events(); !reflect.DeepEqual(ev, want) {
		t.Errorf("lifecycle = %v, want %v", ev, want)
	}
}
