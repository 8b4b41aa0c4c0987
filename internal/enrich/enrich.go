// Package enrich derives investment themes and company names from
// article text. These are presentation heuristics for the structured
// sink, not part of the change-detection contract.
package enrich

import (
	"regexp"
	"sort"
	"strings"
)

// themeKeywords maps investment themes to the keywords that signal them.
var themeKeywords = map[string][]string{
	"AI/ML":           {"artificial intelligence", "machine learning", "ai", "ml", "deep learning", "neural network"},
	"Fintech":         {"fintech", "financial", "payments", "banking", "lending", "insurance"},
	"Healthcare":      {"healthcare", "health", "medical", "biotech", "pharma", "telemedicine"},
	"SaaS":            {"saas", "software as a service", "cloud", "enterprise software"},
	"E-commerce":      {"ecommerce", "e-commerce", "retail", "marketplace", "shopping"},
	"EdTech":          {"edtech", "education", "learning", "online courses", "training"},
	"Gaming":          {"gaming", "games", "esports", "mobile games"},
	"Mobility":        {"mobility", "transportation", "logistics", "delivery", "ride-sharing"},
	"Crypto/Web3":     {"crypto", "blockchain", "web3", "defi", "nft"},
	"Developer Tools": {"developer tools", "devtools", "api", "infrastructure", "platform"},
}

// companyPatterns match company names in investment announcement phrasing.
var companyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)investment in ([A-Z][a-zA-Z\s]+)`),
	regexp.MustCompile(`(?i)backing ([A-Z][a-zA-Z\s]+)`),
	regexp.MustCompile(`(?i)funding ([A-Z][a-zA-Z\s]+)`),
	regexp.MustCompile(`"([A-Z][a-zA-Z\s]+)"`),
	regexp.MustCompile(`(?i)partnering with ([A-Z][a-zA-Z\s]+)`),
}

// companyStopwords are frequent false positives for company matches.
var companyStopwords = map[string]struct{}{
	"the": {}, "and": {}, "our": {}, "new": {}, "this": {},
}

// companyScanPrefix bounds how much body text company extraction scans.
const companyScanPrefix = 500

// Themes returns the investment themes whose keywords appear in the
// text, or ["General"] when nothing matches.
func Themes(text string) []string {
	lower := strings.ToLower(text)

	var themes []string
	for theme, keywords := range themeKeywords {
		for _, keyword := range keywords {
			if strings.Contains(lower, keyword) {
				themes = append(themes, theme)
				break
			}
		}
	}

	if len(themes) == 0 {
		return []string{"General"}
	}
	sort.Strings(themes)
	return themes
}

// CompanyName extracts a company name from announcement phrasing in
// the title and leading body text, or "Unknown".
func CompanyName(title, body string) string {
	runes := []rune(body)
	if len(runes) > companyScanPrefix {
		runes = runes[:companyScanPrefix]
	}
	text := title + " " + string(runes)

	for _, pattern := range companyPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		company := strings.TrimSpace(match[1])
		if len(company) <= 2 {
			continue
		}
		if _, stop := companyStopwords[strings.ToLower(company)]; stop {
			continue
		}
		return company
	}

	return "Unknown"
}
