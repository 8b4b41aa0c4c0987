package discover

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Coderopp/vc-thesis-scraper/internal/logger"
	"github.com/Coderopp/vc-thesis-scraper/internal/sources"
)

var errNotFound = errors.New("http status: 404 Not Found")

// stubGetter serves canned responses; every unlisted URL returns 404.
type stubGetter struct {
	pages   map[string][]byte
	fetched []string
}

func (s *stubGetter) Get(_ context.Context, url string) ([]byte, error) {
	s.fetched = append(s.fetched, url)
	if page, ok := s.pages[url]; ok {
		return page, nil
	}
	return nil, errNotFound
}

func testSite(t *testing.T) *sources.Site {
	t.Helper()
	site := &sources.Site{
		Key:          "blume_ventures",
		Name:         "Blume Ventures",
		BaseURL:      "https://blume.vc",
		LinkPatterns: []string{"/blog/"},
	}
	require.NoError(t, site.Validate())
	return site
}

func sitemap(urls ...string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, u := range urls {
		fmt.Fprintf(&b, "<url><loc>%s</loc></url>", u)
	}
	b.WriteString(`</urlset>`)
	return []byte(b.String())
}

func blogURLs(n int) []string {
	urls := make([]string, n)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://blume.vc/blog/post-%02d", i)
	}
	return urls
}

func TestDiscoverFromSitemap(t *testing.T) {
	urls := blogURLs(12)
	getter := &stubGetter{pages: map[string][]byte{
		"https://blume.vc/sitemap.xml": sitemap(append(urls,
			"https://blume.vc/team",
			"https://blume.vc/contact")...),
	}}

	links, err := New(getter, logger.NewNoOp()).Discover(context.Background(), testSite(t))

	require.NoError(t, err)
	assert.ElementsMatch(t, urls, links)
}

func TestDiscoverFiltersByLinkPattern(t *testing.T) {
	getter := &stubGetter{pages: map[string][]byte{
		"https://blume.vc/sitemap.xml": sitemap(append(blogURLs(11),
			"https://blume.vc/jobs/engineer")...),
	}}

	links, err := New(getter, logger.NewNoOp()).Discover(context.Background(), testSite(t))

	require.NoError(t, err)
	for _, link := range links {
		assert.Contains(t, link, "/blog/")
	}
}

func TestDiscoverFollowsRobotsSitemapDirectives(t *testing.T) {
	urls := blogURLs(12)
	getter := &stubGetter{pages: map[string][]byte{
		"https://blume.vc/robots.txt": []byte(
			"User-agent: *\nDisallow: /admin\nSitemap: https://blume.vc/custom-sitemap.xml\n"),
		"https://blume.vc/custom-sitemap.xml": sitemap(urls...),
	}}

	links, err := New(getter, logger.NewNoOp()).Discover(context.Background(), testSite(t))

	require.NoError(t, err)
	assert.ElementsMatch(t, urls, links)
}

func TestDiscoverSectionFallbackBelowThreshold(t *testing.T) {
	// The sitemap yields fewer links than the threshold, so the section
	// pages are crawled too and their anchors merged in.
	anchors := `<html><body>
		<a href="/blog/from-homepage">one</a>
		<a href="https://blume.vc/blog/absolute">two</a>
		<a href="https://elsewhere.example/blog/external">offsite</a>
		<a href="/portfolio/company">not an article</a>
	</body></html>`

	getter := &stubGetter{pages: map[string][]byte{
		"https://blume.vc/sitemap.xml": sitemap("https://blume.vc/blog/from-sitemap"),
		"https://blume.vc":             []byte(anchors),
	}}

	links, err := New(getter, logger.NewNoOp()).Discover(context.Background(), testSite(t))

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"https://blume.vc/blog/absolute",
		"https://blume.vc/blog/from-homepage",
		"https://blume.vc/blog/from-sitemap",
	}, links)
}

func TestDiscoverSkipsFallbackAboveThreshold(t *testing.T) {
	getter := &stubGetter{pages: map[string][]byte{
		"https://blume.vc/sitemap.xml": sitemap(blogURLs(structuredThreshold)...),
	}}

	_, err := New(getter, logger.NewNoOp()).Discover(context.Background(), testSite(t))
	require.NoError(t, err)

	// Only the three structured targets are fetched, no section pages.
	assert.Len(t, getter.fetched, 3)
}

func TestDiscoverDeduplicatesAndSorts(t *testing.T) {
	getter := &stubGetter{pages: map[string][]byte{
		"https://blume.vc/sitemap.xml": sitemap(
			"https://blume.vc/blog/b",
			"https://blume.vc/blog/a",
			"https://blume.vc/blog/b"),
		"https://blume.vc/sitemap_index.xml": sitemap("https://blume.vc/blog/a"),
	}}

	links, err := New(getter, logger.NewNoOp()).Discover(context.Background(), testSite(t))

	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://blume.vc/blog/a",
		"https://blume.vc/blog/b",
	}, links)
}

func TestDiscoverUnreachableSite(t *testing.T) {
	getter := &stubGetter{} // every fetch 404s

	links, err := New(getter, logger.NewNoOp()).Discover(context.Background(), testSite(t))

	assert.ErrorIs(t, err, ErrSiteUnreachable)
	assert.Empty(t, links)
}

func TestDiscoverPartialFailureIsNotFatal(t *testing.T) {
	// Only the homepage answers; sitemaps 404. Still a reachable site.
	getter := &stubGetter{pages: map[string][]byte{
		"https://blume.vc": []byte(`<html><body><a href="/blog/only-one">x</a></body></html>`),
	}}

	links, err := New(getter, logger.NewNoOp()).Discover(context.Background(), testSite(t))

	require.NoError(t, err)
	assert.Equal(t, []string{"https://blume.vc/blog/only-one"}, links)
}

func TestSitemapLocationsHandlesIndexDocuments(t *testing.T) {
	index := []byte(`<?xml version="1.0"?>
		<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
			<sitemap><loc> https://blume.vc/blog/nested </loc></sitemap>
		</sitemapindex>`)

	assert.Equal(t, []string{"https://blume.vc/blog/nested"}, sitemapLocations(index))
}

func TestSitemapDirectivesCaseInsensitive(t *testing.T) {
	body := []byte("SITEMAP: https://blume.vc/a.xml\nsitemap:https://blume.vc/b.xml\nDisallow: /x")

	assert.Equal(t, []string{
		"https://blume.vc/a.xml",
		"https://blume.vc/b.xml",
	}, sitemapDirectives(body))
}
