// Package state implements the durable change-detection store: the
// URL → fingerprint mapping that makes repeated runs idempotent.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Coderopp/vc-thesis-scraper/internal/domain"
	"github.com/Coderopp/vc-thesis-scraper/internal/logger"
)

// SeenEntry is the durable record of a previously processed URL.
type SeenEntry struct {
	Fingerprint string    `json:"fingerprint"`
	ScrapedAt   time.Time `json:"scraped_at"`
	SiteName    string    `json:"site_name"`
}

// SiteStats holds cumulative per-site counters.
type SiteStats struct {
	LastScraped   time.Time `json:"last_scraped"`
	TotalArticles int       `json:"total_articles"`
}

// Document is the whole-file state layout persisted between runs.
type Document struct {
	SeenURLs             map[string]SeenEntry  `json:"seen_urls"`
	LastRun              time.Time             `json:"last_run"`
	TotalArticlesScraped int                   `json:"total_articles_scraped"`
	VCStats              map[string]*SiteStats `json:"vc_stats"`
}

// newDocument returns an empty default document.
func newDocument() *Document {
	return &Document{
		SeenURLs: make(map[string]SeenEntry),
		VCStats:  make(map[string]*SiteStats),
	}
}

// Store owns the state document for the duration of a run. It is not
// safe for concurrent use; exactly one process may run against a given
// state file at a time (a deployment invariant, not enforced here).
type Store struct {
	path   string
	logger logger.Interface
	doc    *Document
	now    func() time.Time
}

// Load reads the state document from path. A missing or unreadable
// file is not fatal: the store starts empty and the failure is logged,
// which degrades the next run to non-incremental but keeps it safe.
func Load(path string, log logger.Interface) *Store {
	store := &Store{
		path:   path,
		logger: log,
		doc:    newDocument(),
		now:    time.Now,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn("Could not read state file, starting empty", "path", path, "error", err)
		}
		return store
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Warn("Could not parse state file, starting empty", "path", path, "error", err)
		return store
	}

	if doc.SeenURLs == nil {
		doc.SeenURLs = make(map[string]SeenEntry)
	}
	if doc.VCStats == nil {
		doc.VCStats = make(map[string]*SiteStats)
	}
	store.doc = &doc

	log.Info("Loaded state", "path", path, "tracked_urls", len(doc.SeenURLs))
	return store
}

// Save persists the document with a whole-file atomic replace and
// stamps last_run with the current time.
func (s *Store) Save() error {
	s.doc.LastRun = s.now()

	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file: %w", err)
	}

	return nil
}

// Seen reports whether the URL has an entry in the state mapping.
func (s *Store) Seen(url string) bool {
	_, ok := s.doc.SeenURLs[url]
	return ok
}

// IsNew decides novelty for the current run: a URL is new iff it is
// absent from the state mapping or its freshly computed fingerprint
// differs from the stored one.
func (s *Store) IsNew(article *domain.Article) bool {
	entry, ok := s.doc.SeenURLs[article.URL]
	if !ok {
		return true
	}
	return entry.Fingerprint != Fingerprint(article.Title, article.URL, article.Body)
}

// MarkScraped inserts or updates the URL's entry with a fresh
// fingerprint and timestamp, and increments the owning site's counters
// along with the cumulative total.
func (s *Store) MarkScraped(article *domain.Article) {
	now := s.now()

	s.doc.SeenURLs[article.URL] = SeenEntry{
		Fingerprint: Fingerprint(article.Title, article.URL, article.Body),
		ScrapedAt:   now,
		SiteName:    article.SiteName,
	}

	stats := s.doc.VCStats[article.SiteName]
	if stats == nil {
		stats = &SiteStats{}
		s.doc.VCStats[article.SiteName] = stats
	}
	stats.LastScraped = now
	stats.TotalArticles++

	s.doc.TotalArticlesScraped++
}

// TouchSite records that the site was checked, even when nothing new
// was found.
func (s *Store) TouchSite(siteName string) {
	stats := s.doc.VCStats[siteName]
	if stats == nil {
		stats = &SiteStats{}
		s.doc.VCStats[siteName] = stats
	}
	stats.LastScraped = s.now()
}

// Cleanup removes every entry whose scraped_at predates now − horizon
// and returns how many were purged. It must only run between runs,
// never while a run is in progress.
func (s *Store) Cleanup(horizon time.Duration) int {
	cutoff := s.now().Add(-horizon)

	purged := 0
	for url, entry := range s.doc.SeenURLs {
		if entry.ScrapedAt.Before(cutoff) {
			delete(s.doc.SeenURLs, url)
			purged++
		}
	}

	if purged > 0 {
		s.logger.Info("Cleaned up old state entries",
			"purged", purged, "remaining", len(s.doc.SeenURLs))
	}
	return purged
}

// TrackedURLs returns how many URLs the store currently tracks.
func (s *Store) TrackedURLs() int {
	return len(s.doc.SeenURLs)
}

// LastRun returns the timestamp of the last completed run, zero when
// the store has never been saved.
func (s *Store) LastRun() time.Time {
	return s.doc.LastRun
}

// TotalScraped returns the cumulative number of articles scraped.
func (s *Store) TotalScraped() int {
	return s.doc.TotalArticlesScraped
}

// Stats returns a copy of the per-site counters.
func (s *Store) Stats() map[string]SiteStats {
	out := make(map[string]SiteStats, len(s.doc.VCStats))
	for name, stats := range s.doc.VCStats {
		out[name] = *stats
	}
	return out
}
