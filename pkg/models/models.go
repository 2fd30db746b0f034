package models

import "time"

// CrawlURL is a frontier entry. URL is always normalized and absolute.
type CrawlURL struct {
	URL    string `json:"url"`
	Depth  int    `json:"depth"`
	Parent string `json:"parent,omitempty"`
}

// PageState is the captured state of one visited page, keyed by normalized URL.
type PageState struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	CapturedAt  time.Time `json:"captured_at"`
	ContentHash string    `json:"content_hash"`
	Excerpt     string    `json:"excerpt,omitempty"`
}

// DocumentType is the metadata type attached to every generated document.
const DocumentType = "web-page"

// Document is the content record produced from a PageState for downstream ingestion.
type Document struct {
	ID       string           `json:"id"`
	Content  string           `json:"content"`
	Metadata DocumentMetadata `json:"metadata"`
}

// DocumentMetadata describes where a Document came from.
type DocumentMetadata struct {
	Source    string `json:"source"`
	Title     string `json:"title"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
}

// Stats is a point-in-time summary of a crawl.
type Stats struct {
	PagesVisited int    `json:"pagesVisited"`
	PagesFailed  int    `json:"pagesFailed"`
	BaseURL      string `json:"baseUrl"`
	Timestamp    string `json:"timestamp"`
	RunID        string `json:"runId,omitempty"`
}

// Failure records a URL that ended in the Failed state.
type Failure struct {
	URL    string `json:"url"`
	Depth  int    `json:"depth"`
	Reason string `json:"reason"`
}

// ISOTimestamp formats t the way document metadata expects: UTC with millisecond precision.
func ISOTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
