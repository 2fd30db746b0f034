// Package report renders a human-readable summary of a finished crawl.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/law-makers/appcrawl/internal/cache"
	"github.com/law-makers/appcrawl/pkg/models"
	"github.com/nao1215/markdown"
)

// Summary is everything the crawl report shows.
type Summary struct {
	Stats       models.Stats
	StartedAt   time.Time
	Duration    time.Duration
	Visited     []string
	Failures    []models.Failure
	Documents   int
	Screenshots int
	OutputDir   string
	// RobotsCache is nil when robots.txt was not consulted.
	RobotsCache *cache.Stats
}

func (s Summary) status() string {
	switch {
	case s.Stats.PagesVisited == 0:
		return "No pages crawled"
	case len(s.Failures) > 0:
		return "Complete with failures"
	default:
		return "Complete"
	}
}

// WriteMarkdown writes s to w as a Markdown document.
func WriteMarkdown(w io.Writer, s Summary) error {
	md := markdown.NewMarkdown(w)
	rows := [][]string{
		{"Base URL", "`" + s.Stats.BaseURL + "`"},
		{"Run ID", s.Stats.RunID},
		{"Started", s.StartedAt.UTC().Format(time.RFC3339)},
		{"Duration", s.Duration.Round(time.Millisecond).String()},
		{"Pages Visited", strconv.Itoa(s.Stats.PagesVisited)},
		{"Pages Failed", strconv.Itoa(s.Stats.PagesFailed)},
		{"Documents", strconv.Itoa(s.Documents)},
		{"Screenshots", strconv.Itoa(s.Screenshots)},
		{"Status", s.status()},
	}
	if c := s.RobotsCache; c != nil {
		rows = append(rows, []string{"Robots Cache", fmt.Sprintf("%d hits, %d misses, %d hosts", c.Hits, c.Misses, c.Entries)})
	}

	md.H1("Crawl Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	if s.OutputDir != "" {
		md.PlainText("Output written to `" + s.OutputDir + "`.")
		md.PlainText("")
	}

	md.H2("Visited Pages")
	md.PlainText("")
	if len(s.Visited) == 0 {
		md.PlainText("_None._")
	} else {
		md.BulletList(s.Visited...)
	}
	md.PlainText("")

	if len(s.Failures) > 0 {
		md.H2("Failures")
		md.PlainText("")
		rows := make([][]string, 0, len(s.Failures))
		for _, f := range s.Failures {
			rows = append(rows, []string{f.URL, strconv.Itoa(f.Depth), f.Reason})
		}
		md.Table(markdown.TableSet{
			Header: []string{"URL", "Depth", "Reason"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	return md.Build()
}
