// Package discover enumerates candidate article URLs for a site via
// sitemap inspection with a page-crawl fallback.
package discover

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Coderopp/vc-thesis-scraper/internal/logger"
	"github.com/Coderopp/vc-thesis-scraper/internal/sources"
)

// structuredThreshold is the minimum number of relevant links the
// structured (sitemap) pass must yield before the page-crawl fallback
// is skipped.
const structuredThreshold = 10

// maxRobotsSitemaps caps how many robots.txt sitemap directives are
// followed per site.
const maxRobotsSitemaps = 3

// ErrSiteUnreachable is returned when not a single discovery fetch
// against the site succeeded.
var ErrSiteUnreachable = errors.New("site unreachable")

// sectionPaths are the well-known section pages crawled as a fallback.
var sectionPaths = []string{"", "/blog", "/insights", "/news", "/portfolio"}

// Getter fetches a URL and returns the raw response body.
type Getter interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Discoverer finds candidate article URLs for configured sites.
type Discoverer struct {
	fetcher Getter
	logger  logger.Interface
}

// New creates a new Discoverer.
func New(fetcher Getter, log logger.Interface) *Discoverer {
	return &Discoverer{fetcher: fetcher, logger: log}
}

// Discover returns the deduplicated set of candidate article URLs for
// the site, sorted for deterministic processing order. Individual fetch
// and parse failures are logged and yield partial results; the returned
// error is non-nil only when not a single fetch succeeded, which marks
// the site unreachable for this run.
func (d *Discoverer) Discover(ctx context.Context, site *sources.Site) ([]string, error) {
	found := make(map[string]struct{})

	reached := d.discoverStructured(ctx, site, found)

	if len(found) < structuredThreshold {
		d.logger.Debug("Structured discovery below threshold, crawling section pages",
			"site", site.Key, "structured_links", len(found))
		if d.discoverSectionPages(ctx, site, found) {
			reached = true
		}
	}

	links := make([]string, 0, len(found))
	for link := range found {
		links = append(links, link)
	}
	sort.Strings(links)

	if !reached && ctx.Err() == nil {
		return links, fmt.Errorf("%w: %s", ErrSiteUnreachable, site.Key)
	}

	d.logger.Info("Link discovery complete", "site", site.Key, "links", len(links))
	return links, nil
}

// discoverStructured inspects sitemap.xml, sitemap_index.xml and
// robots.txt for pattern-matching URLs. It reports whether any fetch
// succeeded.
func (d *Discoverer) discoverStructured(
	ctx context.Context,
	site *sources.Site,
	found map[string]struct{},
) bool {
	targets := []string{
		site.BaseURL + "/sitemap.xml",
		site.BaseURL + "/sitemap_index.xml",
		site.BaseURL + "/robots.txt",
	}

	reached := false
	for _, target := range targets {
		if ctx.Err() != nil {
			return reached
		}

		body, err := d.fetcher.Get(ctx, target)
		if err != nil {
			d.logger.Debug("Could not fetch discovery target", "url", target, "error", err)
			continue
		}
		reached = true

		var urls []string
		if strings.HasSuffix(target, "robots.txt") {
			urls = d.robotsSitemapLocations(ctx, body)
		} else {
			urls = sitemapLocations(body)
		}

		for _, u := range urls {
			if site.MatchesPattern(u) {
				found[u] = struct{}{}
			}
		}
	}

	return reached
}

// robotsSitemapLocations resolves the "Sitemap:" directives of a
// robots.txt body into the page URLs those sitemaps list. At most
// maxRobotsSitemaps directives are followed.
func (d *Discoverer) robotsSitemapLocations(ctx context.Context, body []byte) []string {
	var urls []string

	directives := sitemapDirectives(body)
	if len(directives) > maxRobotsSitemaps {
		directives = directives[:maxRobotsSitemaps]
	}

	for _, sitemapURL := range directives {
		if ctx.Err() != nil {
			return urls
		}

		sitemap, err := d.fetcher.Get(ctx, sitemapURL)
		if err != nil {
			d.logger.Debug("Could not fetch robots-declared sitemap",
				"url", sitemapURL, "error", err)
			continue
		}
		urls = append(urls, sitemapLocations(sitemap)...)
	}

	return urls
}

// discoverSectionPages crawls the well-known section pages and keeps
// same-host anchor targets matching a link pattern. It reports whether
// any fetch succeeded.
func (d *Discoverer) discoverSectionPages(
	ctx context.Context,
	site *sources.Site,
	found map[string]struct{},
) bool {
	reached := false
	for _, path := range sectionPaths {
		if ctx.Err() != nil {
			return reached
		}

		pageURL := site.BaseURL + path
		body, err := d.fetcher.Get(ctx, pageURL)
		if err != nil {
			d.logger.Debug("Could not fetch section page", "url", pageURL, "error", err)
			continue
		}
		reached = true

		for _, link := range extractAnchors(body, pageURL) {
			if !site.MatchesPattern(link) {
				continue
			}
			if u, parseErr := url.Parse(link); parseErr != nil || u.Host != site.Host() {
				continue
			}
			found[link] = struct{}{}
		}
	}

	return reached
}

// sitemapLocations extracts the text of every <loc> element, covering
// both urlset and sitemapindex documents.
func sitemapLocations(body []byte) []string {
	var locations []string

	decoder := xml.NewDecoder(bytes.NewReader(body))
	for {
		token, err := decoder.Token()
		if err != nil {
			break
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "loc" {
			continue
		}

		var loc string
		if decodeErr := decoder.DecodeElement(&loc, &start); decodeErr != nil {
			continue
		}
		if loc = strings.TrimSpace(loc); loc != "" {
			locations = append(locations, loc)
		}
	}

	return locations
}

// sitemapDirectives extracts the URLs of "Sitemap:" lines in robots.txt.
func sitemapDirectives(body []byte) []string {
	var urls []string

	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToLower(line), "sitemap:") {
			continue
		}
		if u := strings.TrimSpace(line[len("sitemap:"):]); u != "" {
			urls = append(urls, u)
		}
	}

	return urls
}

// extractAnchors returns the absolute URL of every anchor on the page.
func extractAnchors(body []byte, pageURL string) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists || href == "" {
			return
		}
		ref, parseErr := url.Parse(href)
		if parseErr != nil {
			return
		}
		links = append(links, base.ResolveReference(ref).String())
	})

	return links
}
