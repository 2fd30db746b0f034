// internal/cli/crawl.go
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/law-makers/appcrawl/internal/app"
	"github.com/law-makers/appcrawl/internal/config"
	"github.com/law-makers/appcrawl/internal/engine"
	"github.com/law-makers/appcrawl/internal/report"
	"github.com/law-makers/appcrawl/internal/scraper"
	"github.com/law-makers/appcrawl/internal/ui"
	headersutil "github.com/law-makers/appcrawl/internal/utils/headers"
	"github.com/law-makers/appcrawl/internal/utils/output"
	"github.com/law-makers/appcrawl/pkg/models"
)

const defaultOutputDir = "appcrawl-output"

var crawlCmd = &cobra.Command{
	Use:   "crawl [url]",
	Short: "Crawl a web application and write one document per page",
	Long: `Open the starting URL in a browser and visit every same-origin page reachable from it,
breadth-first, up to --max-depth links away and at most --max-pages pages.

Each page becomes a document (markdown, json or html) in the output directory, listed in
index.csv. A crawl report and optional full-page screenshots are written alongside.

The URL may be omitted when the config file sets crawler.baseUrl.`,
	Example: `  # Crawl two levels deep
  $ appcrawl crawl https://app.example.com --max-depth 2

  # Skip admin pages, keep state on disk and write JSON
  $ appcrawl crawl https://app.example.com --exclude '/admin' --state-db state.db --format json

  # Use Playwright and send an auth header
  $ appcrawl crawl https://app.example.com --backend playwright -H "Authorization: Bearer TOKEN"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCrawl,
}

func init() {
	registerCrawlFlags(crawlCmd)
	rootCmd.AddCommand(crawlCmd)
}

func registerCrawlFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Int("max-depth", config.DefaultMaxDepth, "Maximum link distance from the starting URL")
	f.Int("max-pages", config.DefaultMaxPages, "Maximum pages to visit (0 for no limit)")
	f.Int("delay", int(config.DefaultRequestDelay/time.Millisecond), "Delay between pages in milliseconds")
	f.StringArray("exclude", nil, "Skip URLs matching this regular expression (repeatable)")
	f.Bool("no-robots", false, "Ignore robots.txt")
	f.Bool("screenshots", config.DefaultCaptureScreenshots, "Capture a full-page screenshot of every page")
	f.String("screenshot-dir", "", "Screenshot directory (default <output-dir>/screenshots)")
	f.StringP("output-dir", "o", "", "Directory for generated documents (default "+defaultOutputDir+")")
	f.StringP("format", "f", "", "Document format: markdown, json or html")
	f.String("report", "report.md", "Crawl report file, relative to the output directory (empty to skip)")
	f.String("state-db", "", "Keep page states in this SQLite file")
	f.String("backend", config.DefaultBackend, "Browser backend: chromedp or playwright")
	f.Float64("rate", config.DefaultRateLimitRPS, "Maximum pages per second per host (0 disables)")
	f.StringArrayP("header", "H", nil, `Extra request header "Key: Value" (repeatable)`)
}

// crawlOverrides layers the flags the user set over the config file.
func crawlOverrides(cmd *cobra.Command, args []string, file config.Overrides) (config.Overrides, error) {
	var o config.Overrides
	f := cmd.Flags()

	if len(args) == 1 {
		o.Crawler.BaseURL = args[0]
	}
	if f.Changed("max-depth") {
		v, _ := f.GetInt("max-depth")
		o.Crawler.MaxDepth = &v
	}
	if f.Changed("max-pages") {
		v, _ := f.GetInt("max-pages")
		o.Crawler.MaxPages = &v
	}
	if f.Changed("delay") {
		v, _ := f.GetInt("delay")
		o.Crawler.RequestDelayMs = &v
	}
	if f.Changed("exclude") {
		o.Crawler.ExcludeURLs, _ = f.GetStringArray("exclude")
	}
	if noRobots, _ := f.GetBool("no-robots"); noRobots {
		o.Crawler.RespectRobotsTxt = config.Ptr(false)
	}
	if f.Changed("screenshots") {
		v, _ := f.GetBool("screenshots")
		o.Extraction.CaptureScreenshots = &v
	}
	o.Output.Directory, _ = f.GetString("output-dir")
	o.Output.Format, _ = f.GetString("format")

	merged := file.Merge(o)
	if merged.Crawler.BaseURL == "" {
		return merged, errors.New("a URL argument or crawler.baseUrl in the config file is required")
	}
	return merged, nil
}

func runCrawl(cmd *cobra.Command, args []string) error {
	appCtx := GetAppFromCmd(cmd)
	if appCtx == nil {
		return fmt.Errorf("application not initialized")
	}

	overrides, err := crawlOverrides(cmd, args, appCtx.Config.Scraper)
	if err != nil {
		return err
	}

	outputDir := overrides.Output.Directory
	if outputDir == "" {
		outputDir = defaultOutputDir
	}
	screenshotDir, _ := cmd.Flags().GetString("screenshot-dir")
	if screenshotDir == "" {
		screenshotDir = filepath.Join(outputDir, "screenshots")
	}
	shots := &output.ScreenshotWriter{Dir: screenshotDir}

	rawHeaders, _ := cmd.Flags().GetStringArray("header")
	headers, err := headersutil.ParseHeaders(rawHeaders)
	if err != nil {
		return err
	}
	statePath, _ := cmd.Flags().GetString("state-db")

	var bar *progressbar.ProgressBar
	opts := []scraper.Option{scraper.WithScreenshotHandler(shots.Save)}
	if !appCtx.Config.Quiet {
		opts = append(opts, scraper.WithProgress(func(v engine.Visit) {
			bar.Describe(truncate(v.URL, 50))
			_ = bar.Add(1)
		}))
	}

	sc, cleanup, err := appCtx.NewScraper(overrides, app.CrawlOptions{
		Headers:   headers,
		StatePath: statePath,
		Options:   opts,
	})
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := sc.Config()
	out := cmd.OutOrStdout()
	if !appCtx.Config.Quiet {
		fmt.Fprintf(out, "\n%s %s\n", ui.Bold("Crawling"), ui.ColorCyan+cfg.Crawler.BaseURL+ui.ColorReset)
		fmt.Fprintf(out, "%s\n\n", ui.Info(cfg.String()))
		bar = newProgressBar(cfg.Crawler.MaxPages)
	}

	started := time.Now()
	runErr := sc.Start(cmd.Context())
	if bar != nil {
		_ = bar.Finish()
	}
	elapsed := time.Since(started)

	// Whatever was captured before a cancel or failure is still written.
	ctx := context.WithoutCancel(cmd.Context())
	docs, err := sc.GenerateDocumentation(ctx)
	if err != nil {
		return err
	}
	paths, writeErr := output.WriteDocuments(outputDir, cfg.Output.Format, docs)
	if writeErr != nil {
		if len(paths) == 0 {
			return writeErr
		}
		appCtx.Logger.Error().Err(writeErr).Msg("Some documents could not be written")
	}
	written := len(paths)
	if written > 0 && filepath.Base(paths[written-1]) == output.IndexFile {
		written--
	}

	stats := sc.GetStats()
	if name, _ := cmd.Flags().GetString("report"); name != "" {
		if !filepath.IsAbs(name) {
			name = filepath.Join(outputDir, name)
		}
		summary := report.Summary{
			Stats:       stats,
			StartedAt:   started,
			Duration:    elapsed,
			Visited:     sc.GetVisitedURLs(),
			Failures:    sc.Failures(),
			Documents:   len(docs),
			Screenshots: shots.Saved(),
			OutputDir:   outputDir,
		}
		if cfg.Crawler.RespectRobotsTxt && appCtx.Cache != nil {
			cs := appCtx.Cache.Stats()
			summary.RobotsCache = &cs
		}
		if err := writeReport(name, summary); err != nil {
			return err
		}
	}

	if !appCtx.Config.Quiet {
		printStats(out, stats, written, shots.Saved(), outputDir, elapsed)
	}
	return errors.Join(runErr, writeErr)
}

func newProgressBar(maxPages int) *progressbar.ProgressBar {
	total := maxPages
	if total == 0 {
		total = -1
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("starting"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("pages"),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func writeReport(path string, s report.Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	if err := report.WriteMarkdown(f, s); err != nil {
		f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}

func printStats(w io.Writer, s models.Stats, docs, shots int, dir string, elapsed time.Duration) {
	fmt.Fprintf(w, "\n%s\n", ui.Bold("Crawl finished"))
	fmt.Fprintf(w, "  %-14s %d\n", "Pages visited", s.PagesVisited)
	if s.PagesFailed > 0 {
		fmt.Fprintf(w, "  %-14s %s\n", "Pages failed", ui.Error(fmt.Sprint(s.PagesFailed)))
	} else {
		fmt.Fprintf(w, "  %-14s %d\n", "Pages failed", 0)
	}
	fmt.Fprintf(w, "  %-14s %d\n", "Documents", docs)
	fmt.Fprintf(w, "  %-14s %d\n", "Screenshots", shots)
	fmt.Fprintf(w, "  %-14s %s\n", "Elapsed", elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "\n%s %s\n\n", ui.Success("Output written to"), dir)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
