package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newViper())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "sources.yml", cfg.Monitor.SourcesFile)
	assert.Equal(t, "data/state.json", cfg.Monitor.StateFile)
	assert.Equal(t, "output/vc_articles.csv", cfg.Monitor.CSVFile)
	assert.Equal(t, DefaultMaxPerSite, cfg.Monitor.MaxPerSite)
	assert.Equal(t, DefaultRetentionDays, cfg.Monitor.RetentionDays)
	assert.Equal(t, DefaultRequestTimeout, cfg.Fetch.Timeout)
	assert.Equal(t, DefaultMaxRetries, cfg.Fetch.MaxRetries)
	assert.Equal(t, DefaultRequestDelayMin, cfg.Fetch.DelayMin)
	assert.Equal(t, DefaultRequestDelayMax, cfg.Fetch.DelayMax)
	assert.Equal(t, DefaultSiteDelayMin, cfg.Monitor.SiteDelayMin)
	assert.Equal(t, DefaultSiteDelayMax, cfg.Monitor.SiteDelayMax)
	assert.False(t, cfg.Elasticsearch.Enabled())
	assert.Equal(t, "vc-articles", cfg.Elasticsearch.Index)
}

func TestLoadOverrides(t *testing.T) {
	v := newViper()
	v.Set("monitor.max_per_site", 5)
	v.Set("fetch.timeout", "30s")
	v.Set("elasticsearch.addresses", []string{"http://localhost:9200"})

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Monitor.MaxPerSite)
	assert.Equal(t, 30*time.Second, cfg.Fetch.Timeout)
	assert.True(t, cfg.Elasticsearch.Enabled())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{"empty sources file", "monitor.sources_file", ""},
		{"empty state file", "monitor.state_file", ""},
		{"empty csv file", "monitor.csv_file", ""},
		{"zero per-site cap", "monitor.max_per_site", 0},
		{"zero retention", "monitor.retention_days", 0},
		{"zero timeout", "fetch.timeout", "0s"},
		{"inverted fetch delays", "fetch.delay_min", "1m"},
		{"inverted site delays", "monitor.site_delay_min", "1m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}
