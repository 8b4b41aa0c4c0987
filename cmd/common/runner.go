package common

import (
	"context"
	"fmt"

	"github.com/Coderopp/vc-thesis-scraper/internal/discover"
	"github.com/Coderopp/vc-thesis-scraper/internal/extract"
	"github.com/Coderopp/vc-thesis-scraper/internal/fetch"
	"github.com/Coderopp/vc-thesis-scraper/internal/monitor"
	"github.com/Coderopp/vc-thesis-scraper/internal/sink"
	"github.com/Coderopp/vc-thesis-scraper/internal/sources"
	"github.com/Coderopp/vc-thesis-scraper/internal/state"
)

// RunOptions tunes a single monitoring pass.
type RunOptions struct {
	// FullRecheck skips the seen-URL pre-filter so novelty is decided
	// purely by fingerprint comparison.
	FullRecheck bool
	// SiteKeys restricts the pass to the named sites. Empty means all.
	SiteKeys []string
	// MaxPerSite overrides the configured per-site article cap when > 0.
	MaxPerSite int
}

// RunOnce wires the full pipeline and executes a single monitoring pass.
func RunOnce(ctx context.Context, deps *Deps, opts RunOptions) (*monitor.RunStats, error) {
	sites, err := deps.LoadSites()
	if err != nil {
		return nil, fmt.Errorf("failed to load sources: %w", err)
	}

	if len(opts.SiteKeys) > 0 {
		sites, err = sources.FilterByKeys(sites, opts.SiteKeys)
		if err != nil {
			return nil, fmt.Errorf("failed to select sources: %w", err)
		}
		deps.Logger.Info("Monitoring a subset of sources", "count", len(sites))
	}

	maxPerSite := deps.Config.Monitor.MaxPerSite
	if opts.MaxPerSite > 0 {
		maxPerSite = opts.MaxPerSite
	}

	store := state.Load(deps.Config.Monitor.StateFile, deps.Logger)
	fetcher := fetch.New(&deps.Config.Fetch, deps.Logger)

	m := monitor.New(monitor.Params{
		Logger:       deps.Logger,
		Sites:        sites,
		Store:        store,
		Discoverer:   discover.New(fetcher, deps.Logger),
		Extractor:    extract.New(fetcher, deps.Logger),
		Tabular:      sink.NewCSVSink(deps.Config.Monitor.CSVFile, deps.Logger),
		Structured:   newStructuredSink(deps),
		MaxPerSite:   maxPerSite,
		FullRecheck:  opts.FullRecheck,
		SiteDelayMin: deps.Config.Monitor.SiteDelayMin,
		SiteDelayMax: deps.Config.Monitor.SiteDelayMax,
	})

	return m.Run(ctx)
}

// newStructuredSink builds the Elasticsearch sink when configured. A sink
// that cannot be constructed (bad address, cluster down) only degrades the
// run to CSV-only; the fetch pass itself still proceeds.
func newStructuredSink(deps *Deps) monitor.StructuredSink {
	if !deps.Config.Elasticsearch.Enabled() {
		deps.Logger.Info("Elasticsearch not configured, running CSV-only")
		return nil
	}

	es, err := sink.NewElasticSink(&deps.Config.Elasticsearch, deps.Logger)
	if err != nil {
		deps.Logger.Error("Elasticsearch sink unavailable, continuing CSV-only", "error", err)
		return nil
	}
	return es
}
