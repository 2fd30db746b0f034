package output

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/PuerkitoBio/goquery"
	urlutil "github.com/law-makers/appcrawl/internal/utils/url"
	"golang.org/x/net/html"
)

func newConverter(pageURL string) *md.Converter {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	converter.AddRules(
		md.Rule{
			Filter: []string{"a"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				href, exists := selec.Attr("href")
				if !exists {
					return nil
				}

				resolved := urlutil.ResolveURL(pageURL, href)
				var titlePart string
				if title, ok := selec.Attr("title"); ok {
					titlePart = fmt.Sprintf(" %q", title)
				}
				str := fmt.Sprintf("[%s](%s%s)", strings.TrimSpace(selec.Text()), resolved, titlePart)
				return &str
			},
		},
		md.Rule{
			// Submit buttons carry their label in value
			Filter: []string{"input"},
			Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
				label := selec.AttrOr("value", selec.AttrOr("placeholder", ""))
				if label == "" {
					return md.String("")
				}
				return md.String(label + "\n\n")
			},
		},
	)
	return converter
}

// ToMarkdown converts a page (or fragment) to markdown, resolving links against pageURL.
func ToMarkdown(pageURL, htmlContent string) (string, error) {
	cleaned, err := CleanHTML(htmlContent)
	if err != nil {
		return "", err
	}
	out, err := newConverter(pageURL).ConvertString(cleaned)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// Excerpt renders the elements of rawHTML matched by any of selectors as
// markdown, in document order. Elements nested inside another match are
// covered by their ancestor and not repeated. It returns "" when nothing matches.
func Excerpt(pageURL, rawHTML string, selectors []string) (string, error) {
	if len(selectors) == 0 {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}

	matched := make(map[*html.Node]bool)
	for _, sel := range selectors {
		// An invalid selector matches nothing
		doc.Find(sel).Each(func(i int, s *goquery.Selection) {
			matched[s.Nodes[0]] = true
		})
	}
	if len(matched) == 0 {
		return "", nil
	}

	var b strings.Builder
	doc.Find("*").Each(func(i int, s *goquery.Selection) {
		node := s.Nodes[0]
		if !matched[node] {
			return
		}
		for p := node.Parent; p != nil; p = p.Parent {
			if matched[p] {
				return
			}
		}
		if frag, err := goquery.OuterHtml(s); err == nil {
			b.WriteString(frag)
			b.WriteString("\n")
		}
	})

	return ToMarkdown(pageURL, "<html><body>"+b.String()+"</body></html>")
}
