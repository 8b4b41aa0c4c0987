// Package monitor drives one full monitoring pass over the site
// registry: discovery, extraction, novelty decisions and persistence.
package monitor

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/Coderopp/vc-thesis-scraper/internal/domain"
	"github.com/Coderopp/vc-thesis-scraper/internal/extract"
	"github.com/Coderopp/vc-thesis-scraper/internal/logger"
	"github.com/Coderopp/vc-thesis-scraper/internal/sources"
	"github.com/Coderopp/vc-thesis-scraper/internal/state"
)

// ErrNoSitesReached is returned when not a single site in the registry
// could be reached during the run.
var ErrNoSitesReached = errors.New("no sites could be reached")

// Discoverer enumerates candidate article URLs for a site.
type Discoverer interface {
	Discover(ctx context.Context, site *sources.Site) ([]string, error)
}

// Extractor turns a candidate URL into an Article, or nothing.
type Extractor interface {
	Extract(ctx context.Context, url string, site *sources.Site) (*domain.Article, error)
}

// TabularSink appends accepted articles to the tabular output file.
type TabularSink interface {
	Append(articles []*domain.Article) error
}

// StructuredSink is the external structured-database collaborator.
type StructuredSink interface {
	Exists(ctx context.Context, fingerprint string) (bool, error)
	Create(ctx context.Context, article *domain.Article) (string, error)
}

// Params contains the dependencies for constructing a Monitor.
type Params struct {
	Logger     logger.Interface
	Sites      []sources.Site
	Store      *state.Store
	Discoverer Discoverer
	Extractor  Extractor
	Tabular    TabularSink
	// Structured is optional; nil means CSV-only operation
	Structured StructuredSink
	// MaxPerSite caps extraction per site, applied after the seen-URL
	// pre-filter
	MaxPerSite int
	// FullRecheck disables the seen-URL pre-filter so novelty is decided
	// purely by fingerprint comparison
	FullRecheck bool
	// SiteDelayMin/Max bound the randomized pause between sites
	SiteDelayMin time.Duration
	SiteDelayMax time.Duration
}

// RunStats aggregates the outcome of one monitoring pass.
type RunStats struct {
	RunID        string
	TotalNew     int
	NewBySite    map[string]int
	Errors       int
	SitesReached int
	StartedAt    time.Time
	Runtime      time.Duration
}

// Monitor orchestrates a single pass. Construct a fresh Monitor per
// run: the extractor's in-run cache must not leak across runs.
type Monitor struct {
	logger     logger.Interface
	sites      []sources.Site
	store      *state.Store
	discoverer Discoverer
	extractor  Extractor
	tabular    TabularSink
	structured StructuredSink
	maxPerSite int
	full       bool
	delayMin   time.Duration
	delayMax   time.Duration
	rand       *rand.Rand
	now        func() time.Time
}

// New creates a Monitor from Params.
func New(p Params) *Monitor {
	return &Monitor{
		logger:     p.Logger,
		sites:      p.Sites,
		store:      p.Store,
		discoverer: p.Discoverer,
		extractor:  p.Extractor,
		tabular:    p.Tabular,
		structured: p.Structured,
		maxPerSite: p.MaxPerSite,
		full:       p.FullRecheck,
		delayMin:   p.SiteDelayMin,
		delayMax:   p.SiteDelayMax,
		rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
	}
}

// Run executes one pass over every site in registry order. Per-site
// failures are logged and counted; the run only fails when zero sites
// could be reached. State is saved unconditionally at the end, even
// when the run was cancelled or found nothing new.
func (m *Monitor) Run(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{
		RunID:     uuid.NewString(),
		NewBySite: make(map[string]int, len(m.sites)),
		StartedAt: m.now(),
	}
	log := m.logger.With("run_id", stats.RunID)

	log.Info("Starting monitoring run", "sites", len(m.sites), "full_recheck", m.full)

	var collected []*domain.Article
	for i := range m.sites {
		if ctx.Err() != nil {
			log.Warn("Run cancelled, stopping new fetches")
			break
		}

		site := &m.sites[i]
		newArticles := m.checkSite(ctx, log, site, stats)
		collected = append(collected, newArticles...)

		stats.NewBySite[site.Name] = len(newArticles)
		stats.TotalNew += len(newArticles)

		if i < len(m.sites)-1 && ctx.Err() == nil {
			m.pauseBetweenSites(ctx)
		}
	}

	// Sinks run even after cancellation: whatever was accepted so far
	// must not be lost. Failure of one sink never blocks the other.
	m.flushTabular(log, collected)
	m.flushStructured(ctx, log, collected)

	if err := m.store.Save(); err != nil {
		// Degraded but safe: output was written, the next run is just
		// less incremental.
		log.Error("Failed to save state", "error", err)
	}

	stats.Runtime = m.now().Sub(stats.StartedAt)
	m.logSummary(log, stats)

	if stats.SitesReached == 0 && len(m.sites) > 0 && ctx.Err() == nil {
		return stats, ErrNoSitesReached
	}
	return stats, nil
}

// checkSite runs discovery, the seen-URL pre-filter, the per-site cap
// and extraction for one site, returning its accepted-new articles.
func (m *Monitor) checkSite(
	ctx context.Context,
	log logger.Interface,
	site *sources.Site,
	stats *RunStats,
) []*domain.Article {
	log.Info("Checking site", "site", site.Key)

	links, err := m.discoverer.Discover(ctx, site)
	if err != nil {
		log.Error("Site discovery failed", "site", site.Key, "error", err)
		stats.Errors++
		return nil
	}
	stats.SitesReached++

	candidates := m.filterCandidates(links)
	log.Info("Candidate links",
		"site", site.Key, "discovered", len(links), "to_extract", len(candidates))

	var accepted []*domain.Article
	for _, link := range candidates {
		if ctx.Err() != nil {
			break
		}

		article, extractErr := m.extractor.Extract(ctx, link, site)
		if extractErr != nil {
			// Per-URL failure: log, skip, continue. Not a site error.
			log.Debug("Extraction failed", "url", link, "error", extractErr)
			continue
		}
		if article == nil {
			continue
		}

		if !m.store.IsNew(article) {
			continue
		}

		m.store.MarkScraped(article)
		accepted = append(accepted, article)
		log.Info("New article", "site", site.Key, "title", truncate(article.Title, 60))
	}

	m.store.TouchSite(site.Name)
	return accepted
}

// filterCandidates subtracts already-seen URLs (unless FullRecheck)
// and applies the per-site cap. The cap is applied after the novelty
// pre-filter so that a backlog of known URLs cannot starve new ones.
func (m *Monitor) filterCandidates(links []string) []string {
	fresh := links
	if !m.full {
		fresh = make([]string, 0, len(links))
		for _, link := range links {
			if !m.store.Seen(link) {
				fresh = append(fresh, link)
			}
		}
	}

	if m.maxPerSite > 0 && len(fresh) > m.maxPerSite {
		fresh = fresh[:m.maxPerSite]
	}
	return fresh
}

// flushTabular appends the collected articles to the tabular sink.
func (m *Monitor) flushTabular(log logger.Interface, articles []*domain.Article) {
	if len(articles) == 0 {
		return
	}
	if err := m.tabular.Append(articles); err != nil {
		log.Error("Failed to write tabular sink", "error", err)
	}
}

// flushStructured hands each article to the structured sink, skipping
// records it already holds.
func (m *Monitor) flushStructured(
	ctx context.Context,
	log logger.Interface,
	articles []*domain.Article,
) {
	if m.structured == nil || len(articles) == 0 {
		return
	}

	created, existing := 0, 0
	for _, article := range articles {
		fingerprint := state.Fingerprint(article.Title, article.URL, article.Body)

		exists, err := m.structured.Exists(ctx, fingerprint)
		if err != nil {
			log.Error("Structured sink existence check failed",
				"url", article.URL, "error", err)
			continue
		}
		if exists {
			existing++
			continue
		}

		if _, err := m.structured.Create(ctx, article); err != nil {
			log.Error("Structured sink create failed", "url", article.URL, "error", err)
			continue
		}
		created++
	}

	log.Info("Structured sink sync complete", "created", created, "existing", existing)
}

// pauseBetweenSites sleeps for a random duration within the configured
// between-site delay range.
func (m *Monitor) pauseBetweenSites(ctx context.Context) {
	delay := m.delayMin
	if m.delayMax > m.delayMin {
		delay = m.delayMin + time.Duration(m.rand.Int63n(int64(m.delayMax-m.delayMin)))
	}
	if delay <= 0 {
		return
	}

	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

// logSummary reports the end-of-run totals.
func (m *Monitor) logSummary(log logger.Interface, stats *RunStats) {
	log.Info("Monitoring run complete",
		"new_articles", stats.TotalNew,
		"sites_reached", stats.SitesReached,
		"errors", stats.Errors,
		"tracked_urls", m.store.TrackedURLs(),
		"runtime", stats.Runtime.Round(time.Second),
	)
	for site, count := range stats.NewBySite {
		if count > 0 {
			log.Info("New articles for site", "site", site, "count", count)
		}
	}
}

// truncate shortens s for log lines.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// Compile-time check that the real extractor satisfies the interface.
var _ Extractor = (*extract.Extractor)(nil)
