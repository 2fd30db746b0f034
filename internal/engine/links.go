package engine

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/law-makers/appcrawl/internal/browser"
	"github.com/law-makers/appcrawl/internal/crawlerr"
	urlutil "github.com/law-makers/appcrawl/internal/utils/url"
	"github.com/law-makers/appcrawl/pkg/models"
)

// compileExcludes compiles patterns with JavaScript regex semantics.
func compileExcludes(patterns []string) ([]*regexp2.Regexp, error) {
	out := make([]*regexp2.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp2.Compile(p, regexp2.ECMAScript)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

func (e *Engine) excluded(abs string) bool {
	for _, re := range e.excludes {
		ok, err := re.MatchString(abs)
		if err != nil {
			e.logger.Debug().Err(err).Str("pattern", re.String()).Msg("Exclude pattern failed")
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// admit applies the link policy to href found on base and returns the
// normalized URL to queue at depth.
func (e *Engine) admit(ctx context.Context, base *url.URL, href string, depth int) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}

	abs, err := urlutil.Resolve(base, href)
	if err != nil {
		e.logger.Debug().Err(crawlerr.Extraction("resolve link", href, err)).Msg("Skipping link")
		return "", false
	}
	if !urlutil.SameOrigin(abs, e.seed) {
		return "", false
	}

	raw := abs.String()
	if e.excluded(raw) {
		e.logger.Debug().Str("url", raw).Msg("Excluded by pattern")
		return "", false
	}

	next := urlutil.Normalize(raw)
	if depth > e.settings.MaxDepth {
		return "", false
	}

	if e.robots != nil {
		u, err := url.Parse(next)
		if err != nil || !e.robots.Allowed(ctx, u) {
			e.logger.Debug().Str("url", next).Msg("Disallowed by robots.txt")
			return "", false
		}
	}
	return next, true
}

// enqueueLinks queues every admissible link on page. Failures are logged only.
// Relative links resolve against the normalized item URL, not the address the
// browser shows, so "page" found on /docs/ becomes /page.
func (e *Engine) enqueueLinks(ctx context.Context, page browser.Page, item models.CrawlURL) {
	links, err := page.ExtractLinks(ctx)
	if err != nil {
		e.logger.Warn().Err(crawlerr.Extraction("extract links", item.URL, err)).Msg("Link extraction failed")
		return
	}

	base, err := url.Parse(item.URL)
	if err != nil {
		return
	}

	added := 0
	for _, l := range links {
		next, ok := e.admit(ctx, base, l.Href, item.Depth+1)
		if !ok {
			continue
		}
		if e.frontier.Push(models.CrawlURL{URL: next, Depth: item.Depth + 1, Parent: item.URL}) {
			added++
		}
	}

	e.logger.Debug().
		Str("url", item.URL).
		Int("links", len(links)).
		Int("queued", added).
		Msg("Extracted links")
}
