// Package sink persists accepted articles: an append-only CSV file and
// an optional Elasticsearch index.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Coderopp/vc-thesis-scraper/internal/domain"
	"github.com/Coderopp/vc-thesis-scraper/internal/logger"
)

// csvHeader is the stable column order of the tabular sink.
var csvHeader = []string{"site_name", "title", "url", "body", "published_date", "scraped_at"}

// CSVSink appends articles to a CSV file, writing the header only when
// it creates the file.
type CSVSink struct {
	path   string
	logger logger.Interface
}

// NewCSVSink creates a CSVSink writing to path.
func NewCSVSink(path string, log logger.Interface) *CSVSink {
	return &CSVSink{path: path, logger: log}
}

// Append writes the articles as rows. The first write creates the file
// with a header; subsequent writes append rows only.
func (s *CSVSink) Append(articles []*domain.Article) error {
	if len(articles) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	_, statErr := os.Stat(s.path)
	isNew := os.IsNotExist(statErr)

	file, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if isNew {
		if err := writer.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
	}

	for _, article := range articles {
		row := []string{
			article.SiteName,
			article.Title,
			article.URL,
			article.Body,
			article.PublishedDate,
			article.FetchedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	s.logger.Info("Appended articles to CSV",
		"path", s.path, "count", len(articles), "created", isNew)
	return nil
}
