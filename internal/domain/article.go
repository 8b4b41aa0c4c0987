// Package domain provides domain models used across the application.
package domain

import "time"

// Article is the result of a successful content extraction.
type Article struct {
	// SiteName is the display name of the owning VC firm
	SiteName string `json:"site_name"`
	// Title of the article, always non-empty
	Title string `json:"title"`
	// URL the article was extracted from, unique within a run
	URL string `json:"url"`
	// Body is the cleaned article text, above the minimum length gate
	Body string `json:"body"`
	// PublishedDate is best-effort and may be empty
	PublishedDate string `json:"published_date,omitempty"`
	// FetchedAt is assigned at extraction time
	FetchedAt time.Time `json:"fetched_at"`
}
