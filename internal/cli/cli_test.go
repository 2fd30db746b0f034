package cli

import (
	"os"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/law-makers/appcrawl/internal/config"
)

func newCrawlCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "crawl"}
	registerCrawlFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags: %v", err)
	}
	return cmd
}

func TestCrawlOverridesOnlyChangedFlags(t *testing.T) {
	file := config.Overrides{
		Crawler: config.CrawlerOverrides{
			BaseURL:  "https://from-file.example.com",
			MaxDepth: config.Ptr(5),
			MaxPages: config.Ptr(10),
		},
	}
	cmd := newCrawlCmd(t, "--max-pages", "0", "--exclude", "/admin", "--exclude", `\.pdf$`, "--no-robots", "-f", "json")

	o, err := crawlOverrides(cmd, []string{"https://cli.example.com"}, file)
	if err != nil {
		t.Fatalf("crawlOverrides: %v", err)
	}

	if o.Crawler.BaseURL != "https://cli.example.com" {
		t.Errorf("base URL = %q", o.Crawler.BaseURL)
	}
	if *o.Crawler.MaxDepth != 5 {
		t.Errorf("max depth from file should survive, got %d", *o.Crawler.MaxDepth)
	}
	if *o.Crawler.MaxPages != 0 {
		t.Errorf("explicit --max-pages 0 should win, got %d", *o.Crawler.MaxPages)
	}
	if len(o.Crawler.ExcludeURLs) != 2 {
		t.Errorf("excludes = %v", o.Crawler.ExcludeURLs)
	}
	if o.Crawler.RespectRobotsTxt == nil || *o.Crawler.RespectRobotsTxt {
		t.Error("--no-robots should disable robots.txt")
	}
	if o.Output.Format != config.FormatJSON {
		t.Errorf("format = %q", o.Output.Format)
	}
	if o.Extraction.CaptureScreenshots != nil {
		t.Error("unchanged --screenshots should not override")
	}
}

func TestCrawlOverridesUsesFileBaseURL(t *testing.T) {
	file := config.Overrides{Crawler: config.CrawlerOverrides{BaseURL: "https://from-file.example.com"}}
	o, err := crawlOverrides(newCrawlCmd(t), nil, file)
	if err != nil {
		t.Fatalf("crawlOverrides: %v", err)
	}
	if o.Crawler.BaseURL != "https://from-file.example.com" {
		t.Errorf("base URL = %q", o.Crawler.BaseURL)
	}
}

func TestCrawlOverridesRequiresURL(t *testing.T) {
	if _, err := crawlOverrides(newCrawlCmd(t), nil, config.Overrides{}); err == nil {
		t.Fatal("expected error without URL")
	}
}

func TestReadPasswordFromPipe(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if _, err := w.WriteString("hunter2\n"); err != nil {
		t.Fatal(err)
	}
	w.Close()

	var prompt strings.Builder
	got, err := readPassword(&prompt, r, "qa")
	if err != nil {
		t.Fatalf("readPassword: %v", err)
	}
	if got != "hunter2" {
		t.Errorf("password = %q", got)
	}
	if prompt.Len() != 0 {
		t.Error("no prompt expected without a terminal")
	}
}

func TestWrapText(t *testing.T) {
	in := "one two three four five\n\n- keep this item intact even though it is long"
	got := wrapText(in, 10)
	want := "one two\nthree four\nfive\n\n- keep this item intact even though it is long"
	if got != want {
		t.Errorf("wrapText:\n%q\nwant\n%q", got, want)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("https://example.com/a/very/long/path", 20); got != "https://example.c..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("short", 20); got != "short" {
		t.Errorf("truncate = %q", got)
	}
}
