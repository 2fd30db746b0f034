package output

import (
	"encoding/csv"
	"os"

	"github.com/law-makers/appcrawl/pkg/models"
)

var indexHeader = []string{"id", "source", "title", "timestamp", "type"}

// SaveIndex writes one CSV row per document to filepath.
func SaveIndex(docs []models.Document, filepath string) error {
	file, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(indexHeader); err != nil {
		return err
	}
	for _, d := range docs {
		row := []string{d.ID, d.Metadata.Source, d.Metadata.Title, d.Metadata.Timestamp, d.Metadata.Type}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}
