package state

import (
	"crypto/sha256"
	"encoding/hex"
)

// fingerprintBodyPrefix is how many characters of body text contribute
// to the fingerprint. Bounding the prefix keeps fingerprinting cheap
// and tolerates trailing-content churn (related-post widgets, footers),
// at the cost of missing edits beyond the prefix.
const fingerprintBodyPrefix = 500

// Fingerprint returns the hex-encoded SHA-256 over the article's
// title, URL and the first 500 characters of its body text. The same
// inputs always produce the same fingerprint.
func Fingerprint(title, url, body string) string {
	runes := []rune(body)
	if len(runes) > fingerprintBodyPrefix {
		runes = runes[:fingerprintBodyPrefix]
	}

	h := sha256.New()
	h.Write([]byte(title))
	h.Write([]byte(url))
	h.Write([]byte(string(runes)))
	return hex.EncodeToString(h.Sum(nil))
}
