// Package extract pulls article title, body and date out of fetched
// pages using per-site cascading selector chains.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"github.com/Coderopp/vc-thesis-scraper/internal/domain"
	"github.com/Coderopp/vc-thesis-scraper/internal/logger"
	"github.com/Coderopp/vc-thesis-scraper/internal/sources"
)

// MinBodyLength is the acceptance gate: extracted body text must be
// strictly longer than this many characters.
const MinBodyLength = 100

// ErrAlreadyProcessed is returned when a URL was already extracted
// during the current run.
var ErrAlreadyProcessed = errors.New("url already processed this run")

// genericBodySelectors are tried when the site's own body selectors
// all come up empty.
var genericBodySelectors = []string{"main", "article", ".content", "#content", ".post", ".entry"}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Getter fetches a URL and returns the raw response body.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Extractor turns candidate URLs into Articles. The processed-URL
// cache is owned by the Extractor and scoped to one run: construct a
// fresh Extractor per run.
type Extractor struct {
	fetcher   Getter
	logger    logger.Interface
	processed map[string]struct{}
	now       func() time.Time
}

// New creates an Extractor with an empty in-run cache.
func New(fetcher Getter, log logger.Interface) *Extractor {
	return &Extractor{
		fetcher:   fetcher,
		logger:    log,
		processed: make(map[string]struct{}),
		now:       time.Now,
	}
}

// Extract fetches the URL and applies the site's selector cascade.
// It returns (nil, nil) when the page fails the acceptance gate, and
// a non-nil error only for fetch failures and in-run duplicates.
func (e *Extractor) Extract(
	ctx context.Context,
	rawURL string,
	site *sources.Site,
) (*domain.Article, error) {
	if _, seen := e.processed[rawURL]; seen {
		return nil, ErrAlreadyProcessed
	}

	body, err := e.fetcher.Get(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", rawURL, err)
	}

	title := firstMatch(doc, site.Selectors.Title)
	text := e.extractBody(doc, site)
	date := firstMatch(doc, site.Selectors.Date)

	// Acceptance gate: non-empty title AND body longer than the minimum.
	if title == "" || len([]rune(text)) <= MinBodyLength {
		e.logger.Debug("Extraction rejected by acceptance gate",
			"url", rawURL, "title_len", len(title), "body_len", len([]rune(text)))
		return nil, nil
	}

	e.processed[rawURL] = struct{}{}

	return &domain.Article{
		SiteName:      site.Name,
		Title:         title,
		URL:           rawURL,
		Body:          text,
		PublishedDate: normalizeDate(date),
		FetchedAt:     e.now(),
	}, nil
}

// extractBody applies the site's body selector chain, then the generic
// containers, then falls back to all paragraph text.
func (e *Extractor) extractBody(doc *goquery.Document, site *sources.Site) string {
	if text := firstContainerText(doc, site.Selectors.Body); text != "" {
		return text
	}
	if text := firstContainerText(doc, genericBodySelectors); text != "" {
		return text
	}

	// Last resort: every paragraph on the page.
	var parts []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return collapseWhitespace(strings.Join(parts, " "))
}

// firstMatch returns the text of the first selector that matches a
// non-empty element.
func firstMatch(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if text := collapseWhitespace(sel.Text()); text != "" {
			return text
		}
	}
	return ""
}

// firstContainerText returns the cleaned text of the first matching
// container, with script and style subtrees stripped.
func firstContainerText(doc *goquery.Document, selectors []string) string {
	for _, selector := range selectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}

		clone := sel.Clone()
		clone.Find("script, style").Remove()

		if text := collapseWhitespace(clone.Text()); text != "" {
			return text
		}
	}
	return ""
}

// collapseWhitespace trims and folds runs of whitespace to single spaces.
func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// normalizeDate converts an extracted date string to ISO-8601 when
// parseable; otherwise the raw text is kept.
func normalizeDate(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := dateparse.ParseAny(raw)
	if err != nil {
		return raw
	}
	return parsed.Format("2006-01-02")
}
