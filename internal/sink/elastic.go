package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/Coderopp/vc-thesis-scraper/internal/config"
	"github.com/Coderopp/vc-thesis-scraper/internal/domain"
	"github.com/Coderopp/vc-thesis-scraper/internal/enrich"
	"github.com/Coderopp/vc-thesis-scraper/internal/logger"
	"github.com/Coderopp/vc-thesis-scraper/internal/state"
)

// defaultRequestTimeout bounds individual Elasticsearch operations.
const defaultRequestTimeout = 15 * time.Second

// articleDocument is the indexed representation of an article,
// including the enrichment fields.
type articleDocument struct {
	Fingerprint   string    `json:"fingerprint"`
	SiteName      string    `json:"site_name"`
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Body          string    `json:"body"`
	PublishedDate string    `json:"published_date,omitempty"`
	ScrapedAt     time.Time `json:"scraped_at"`
	Themes        []string  `json:"themes"`
	Company       string    `json:"company"`
}

// ElasticSink indexes articles into Elasticsearch, keyed by content
// fingerprint so equivalent records are never duplicated.
type ElasticSink struct {
	client *es.Client
	index  string
	logger logger.Interface
}

// NewElasticSink creates and pings an Elasticsearch-backed sink.
// Callers must only construct it when the sink is configured; absence
// of configuration means CSV-only operation, never a failed run.
func NewElasticSink(cfg *config.ElasticsearchConfig, log logger.Interface) (*ElasticSink, error) {
	if !cfg.Enabled() {
		return nil, errors.New("elasticsearch sink is not configured")
	}

	client, err := es.NewClient(es.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		APIKey:    cfg.APIKey,
		Transport: &http.Transport{},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Elasticsearch client: %w", err)
	}

	res, err := client.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping Elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("error pinging Elasticsearch: %s", res.String())
	}

	return &ElasticSink{client: client, index: cfg.Index, logger: log}, nil
}

// Exists reports whether a record with the given content fingerprint
// is already indexed.
func (s *ElasticSink) Exists(ctx context.Context, fingerprint string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	res, err := s.client.Exists(
		s.index,
		fingerprint,
		s.client.Exists.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("failed to check document existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if res.IsError() {
		return false, fmt.Errorf("elasticsearch error: %s", res.String())
	}

	return true, nil
}

// Create indexes the article keyed by its content fingerprint and
// returns the document ID.
func (s *ElasticSink) Create(ctx context.Context, article *domain.Article) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultRequestTimeout)
	defer cancel()

	fingerprint := state.Fingerprint(article.Title, article.URL, article.Body)

	doc := articleDocument{
		Fingerprint:   fingerprint,
		SiteName:      article.SiteName,
		Title:         article.Title,
		URL:           article.URL,
		Body:          article.Body,
		PublishedDate: article.PublishedDate,
		ScrapedAt:     article.FetchedAt,
		Themes:        enrich.Themes(article.Body),
		Company:       enrich.CompanyName(article.Title, article.Body),
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithContext(ctx),
		s.client.Index.WithDocumentID(fingerprint),
	)
	if err != nil {
		return "", fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return "", fmt.Errorf("elasticsearch error: %s", res.String())
	}

	s.logger.Debug("Indexed article", "index", s.index, "doc_id", fingerprint)
	return fingerprint, nil
}
