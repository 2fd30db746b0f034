package output

import (
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/law-makers/appcrawl/pkg/models"
)

// IndexFile is written next to the documents by WriteDocuments.
const IndexFile = "index.csv"

var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Metadata.Title}}</title>
<meta name="source" content="{{.Metadata.Source}}">
<meta name="scraped-at" content="{{.Metadata.Timestamp}}">
</head>
<body>
<article id="{{.ID}}">
<pre>{{.Content}}</pre>
</article>
</body>
</html>
`))

// WriteDocuments writes each document to dir as <id>.md, <id>.json or <id>.html
// depending on format, plus an index.csv. IDs too long for a file name are
// shortened with FileStem; the index keeps the full ID. A document that cannot
// be written does not stop the rest. It returns the paths written, index last,
// and every write error joined.
func WriteDocuments(dir, format string, docs []models.Document) ([]string, error) {
	ext, write, err := documentWriter(format)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	var errs []error
	paths := make([]string, 0, len(docs)+1)
	for _, d := range docs {
		path := filepath.Join(dir, FileStem(d.ID)+ext)
		if err := write(d, path); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", d.ID, err))
			continue
		}
		paths = append(paths, path)
	}

	index := filepath.Join(dir, IndexFile)
	if err := SaveIndex(docs, index); err != nil {
		errs = append(errs, fmt.Errorf("write index: %w", err))
		return paths, errors.Join(errs...)
	}
	return append(paths, index), errors.Join(errs...)
}

func documentWriter(format string) (string, func(models.Document, string) error, error) {
	switch format {
	case "markdown", "":
		return ".md", func(d models.Document, path string) error {
			return os.WriteFile(path, []byte(d.Content+"\n"), 0o644)
		}, nil
	case "json":
		return ".json", func(d models.Document, path string) error {
			return SaveJSON(d, path)
		}, nil
	case "html":
		return ".html", saveHTML, nil
	}
	return "", nil, fmt.Errorf("unsupported output format %q", format)
}

func saveHTML(d models.Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := documentTemplate.Execute(f, d); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
