// Package config loads application configuration from Viper.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	DefaultMaxPerSite      = 15
	DefaultRetentionDays   = 90
	DefaultMaxRetries      = 3
	DefaultRequestTimeout  = 10 * time.Second
	DefaultRequestDelayMin = 1 * time.Second
	DefaultRequestDelayMax = 3 * time.Second
	DefaultSiteDelayMin    = 3 * time.Second
	DefaultSiteDelayMax    = 7 * time.Second
)

// Config is the root application configuration.
type Config struct {
	Logger        LoggerConfig
	Monitor       MonitorConfig
	Fetch         FetchConfig
	Elasticsearch ElasticsearchConfig
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level       string
	Encoding    string
	Development bool
}

// MonitorConfig holds the monitoring run configuration.
type MonitorConfig struct {
	// SourcesFile is the path to the site registry YAML file
	SourcesFile string
	// StateFile is the path to the durable change-detection state document
	StateFile string
	// CSVFile is the path of the tabular output sink
	CSVFile string
	// MaxPerSite caps how many new URLs are extracted per site and run
	MaxPerSite int
	// RetentionDays is the horizon for the state cleanup policy
	RetentionDays int
	// SiteDelayMin/Max bound the randomized pause between sites
	SiteDelayMin time.Duration
	SiteDelayMax time.Duration
}

// FetchConfig holds HTTP fetch configuration.
type FetchConfig struct {
	// Timeout is the per-request timeout
	Timeout time.Duration
	// MaxRetries bounds retry attempts for transient failures
	MaxRetries int
	// DelayMin/Max bound the randomized pause after each request
	DelayMin time.Duration
	DelayMax time.Duration
}

// ElasticsearchConfig holds the optional structured sink configuration.
// An empty address list disables the sink entirely.
type ElasticsearchConfig struct {
	Addresses []string
	Username  string
	Password  string
	APIKey    string
	Index     string
}

// Enabled reports whether the Elasticsearch sink is configured.
func (c *ElasticsearchConfig) Enabled() bool {
	return len(c.Addresses) > 0
}

// SetDefaults registers production-safe defaults on the given Viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger", map[string]any{
		"level":       "info",
		"encoding":    "console",
		"development": false,
	})

	v.SetDefault("monitor", map[string]any{
		"sources_file":   "sources.yml",
		"state_file":     "data/state.json",
		"csv_file":       "output/vc_articles.csv",
		"max_per_site":   DefaultMaxPerSite,
		"retention_days": DefaultRetentionDays,
		"site_delay_min": DefaultSiteDelayMin.String(),
		"site_delay_max": DefaultSiteDelayMax.String(),
	})

	v.SetDefault("fetch", map[string]any{
		"timeout":     DefaultRequestTimeout.String(),
		"max_retries": DefaultMaxRetries,
		"delay_min":   DefaultRequestDelayMin.String(),
		"delay_max":   DefaultRequestDelayMax.String(),
	})

	v.SetDefault("elasticsearch", map[string]any{
		"addresses": []string{},
		"index":     "vc-articles",
	})
}

// Load reads the configuration out of the given Viper instance.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Logger: LoggerConfig{
			Level:       v.GetString("logger.level"),
			Encoding:    v.GetString("logger.encoding"),
			Development: v.GetBool("logger.development"),
		},
		Monitor: MonitorConfig{
			SourcesFile:   v.GetString("monitor.sources_file"),
			StateFile:     v.GetString("monitor.state_file"),
			CSVFile:       v.GetString("monitor.csv_file"),
			MaxPerSite:    v.GetInt("monitor.max_per_site"),
			RetentionDays: v.GetInt("monitor.retention_days"),
			SiteDelayMin:  v.GetDuration("monitor.site_delay_min"),
			SiteDelayMax:  v.GetDuration("monitor.site_delay_max"),
		},
		Fetch: FetchConfig{
			Timeout:    v.GetDuration("fetch.timeout"),
			MaxRetries: v.GetInt("fetch.max_retries"),
			DelayMin:   v.GetDuration("fetch.delay_min"),
			DelayMax:   v.GetDuration("fetch.delay_max"),
		},
		Elasticsearch: ElasticsearchConfig{
			Addresses: v.GetStringSlice("elasticsearch.addresses"),
			Username:  v.GetString("elasticsearch.username"),
			Password:  v.GetString("elasticsearch.password"),
			APIKey:    v.GetString("elasticsearch.api_key"),
			Index:     v.GetString("elasticsearch.index"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate rejects configurations that would make a run unsafe.
func (c *Config) validate() error {
	if c.Monitor.SourcesFile == "" {
		return errors.New("monitor.sources_file is required")
	}
	if c.Monitor.StateFile == "" {
		return errors.New("monitor.state_file is required")
	}
	if c.Monitor.CSVFile == "" {
		return errors.New("monitor.csv_file is required")
	}
	if c.Monitor.MaxPerSite <= 0 {
		return errors.New("monitor.max_per_site must be positive")
	}
	if c.Monitor.RetentionDays <= 0 {
		return errors.New("monitor.retention_days must be positive")
	}
	if c.Monitor.SiteDelayMax < c.Monitor.SiteDelayMin {
		return errors.New("monitor.site_delay_max must be >= site_delay_min")
	}
	if c.Fetch.Timeout <= 0 {
		return errors.New("fetch.timeout must be positive")
	}
	if c.Fetch.MaxRetries < 0 {
		return errors.New("fetch.max_retries must be non-negative")
	}
	if c.Fetch.DelayMax < c.Fetch.DelayMin {
		return errors.New("fetch.delay_max must be >= delay_min")
	}
	return nil
}
