// Package sources provides the static registry of monitored VC sites.
package sources

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrNoSites indicates no sites were found in the registry file
	ErrNoSites = errors.New("no sites found in registry")
	// ErrMissingRequiredField indicates a required field is missing
	ErrMissingRequiredField = errors.New("missing required field")
)

// Default selector fallback chains applied when a site omits its own.
var (
	defaultTitleSelectors = []string{"h1", ".post-title", ".article-title"}
	defaultBodySelectors  = []string{".post-content", ".article-content", ".content"}
	defaultDateSelectors  = []string{".date", ".published-date", "time"}
)

// Selectors holds the ordered CSS selector fallback chains for a site.
// The first selector that yields a non-empty match wins.
type Selectors struct {
	Title []string `mapstructure:"title" yaml:"title"`
	Body  []string `mapstructure:"body" yaml:"body"`
	Date  []string `mapstructure:"date" yaml:"date"`
}

// Site describes one monitored VC firm website. Immutable during a run.
type Site struct {
	// Key is the unique identifier for the site
	Key string `mapstructure:"key" yaml:"key"`
	// Name is the display name of the firm
	Name string `mapstructure:"name" yaml:"name"`
	// BaseURL is the site root, scheme included, no trailing slash
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// LinkPatterns classify a URL as article-relevant when any one
	// of them appears as a substring
	LinkPatterns []string `mapstructure:"link_patterns" yaml:"link_patterns"`
	// Selectors are the per-site content extraction selector chains
	Selectors Selectors `mapstructure:"selectors" yaml:"selectors"`
}

// Validate checks the site configuration and fills selector defaults.
func (s *Site) Validate() error {
	if s.Key == "" {
		return fmt.Errorf("%w: key", ErrMissingRequiredField)
	}
	if s.Name == "" {
		return fmt.Errorf("%w: name", ErrMissingRequiredField)
	}
	if s.BaseURL == "" {
		return fmt.Errorf("%w: base_url", ErrMissingRequiredField)
	}

	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("base_url must be a valid HTTP(S) URL")
	}

	if len(s.LinkPatterns) == 0 {
		return fmt.Errorf("%w: link_patterns", ErrMissingRequiredField)
	}

	s.BaseURL = strings.TrimRight(s.BaseURL, "/")
	s.applySelectorDefaults()

	return nil
}

// applySelectorDefaults fills in the generic fallback chains for any
// selector list the site left empty.
func (s *Site) applySelectorDefaults() {
	if len(s.Selectors.Title) == 0 {
		s.Selectors.Title = append([]string(nil), defaultTitleSelectors...)
	}
	if len(s.Selectors.Body) == 0 {
		s.Selectors.Body = append([]string(nil), defaultBodySelectors...)
	}
	if len(s.Selectors.Date) == 0 {
		s.Selectors.Date = append([]string(nil), defaultDateSelectors...)
	}
}

// Host returns the hostname of the site's base URL.
func (s *Site) Host() string {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// MatchesPattern reports whether the given URL contains any of the
// site's link patterns.
func (s *Site) MatchesPattern(rawURL string) bool {
	for _, pattern := range s.LinkPatterns {
		if strings.Contains(rawURL, pattern) {
			return true
		}
	}
	return false
}
