package output

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// noise is removed before conversion. Form controls are kept because their
// labels are part of what a page tells its users.
const noise = "script, style, link, meta, noscript, iframe, svg, canvas, template, object, embed"

// CleanHTML removes non-content elements and every attribute except the few
// the markdown converter needs.
func CleanHTML(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	doc.Find(noise).Remove()

	doc.Find("*").Each(func(i int, s *goquery.Selection) {
		node := s.Nodes[0]
		var kept []html.Attribute
		for _, attr := range node.Attr {
			if keepAttr(node.Data, attr.Key) {
				kept = append(kept, attr)
			}
		}
		node.Attr = kept
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func keepAttr(tag, key string) bool {
	switch tag {
	case "a":
		return key == "href" || key == "title"
	case "img":
		return key == "src" || key == "alt" || key == "title"
	case "input":
		return key == "value" || key == "type" || key == "placeholder"
	}
	return false
}
