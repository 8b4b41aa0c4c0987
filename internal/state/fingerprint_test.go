package state

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("Title", "https://example.com/post", "body text")
	b := Fingerprint("Title", "https://example.com/post", "body text")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestFingerprintSensitivity(t *testing.T) {
	base := Fingerprint("Title", "https://example.com/post", "body text")

	tests := []struct {
		name  string
		title string
		url   string
		body  string
	}{
		{"different title", "Other", "https://example.com/post", "body text"},
		{"different url", "Title", "https://example.com/other", "body text"},
		{"different body", "Title", "https://example.com/post", "other body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, base, Fingerprint(tt.title, tt.url, tt.body))
		})
	}
}

func TestFingerprintBodyPrefixOnly(t *testing.T) {
	prefix := strings.Repeat("a", fingerprintBodyPrefix)

	// Edits past the prefix boundary do not change the fingerprint.
	a := Fingerprint("T", "u", prefix+"tail one")
	b := Fingerprint("T", "u", prefix+"completely different tail")
	assert.Equal(t, a, b)

	// Edits inside the prefix do.
	c := Fingerprint("T", "u", "x"+prefix[1:]+"tail one")
	assert.NotEqual(t, a, c)
}

func TestFingerprintCountsRunes(t *testing.T) {
	// 500 multi-byte characters exceed 500 bytes but stay within the
	// prefix, so the tail still matters up to the 500th rune.
	prefix := strings.Repeat("é", fingerprintBodyPrefix-1)

	a := Fingerprint("T", "u", prefix+"x")
	b := Fingerprint("T", "u", prefix+"y")
	assert.NotEqual(t, a, b)
}
