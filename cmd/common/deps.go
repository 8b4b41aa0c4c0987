// Package common provides shared construction helpers for commands.
package common

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/Coderopp/vc-thesis-scraper/internal/config"
	"github.com/Coderopp/vc-thesis-scraper/internal/logger"
	"github.com/Coderopp/vc-thesis-scraper/internal/sources"
)

// Deps bundles the dependencies every command needs.
type Deps struct {
	Config *config.Config
	Logger logger.Interface
}

// NewDeps loads configuration from the global Viper instance and builds
// the logger.
func NewDeps() (*Deps, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return &Deps{Config: cfg, Logger: log}, nil
}

// LoadSites reads the source registry from the configured sources file.
func (d *Deps) LoadSites() ([]sources.Site, error) {
	return sources.NewLoader(d.Config.Monitor.SourcesFile).Load()
}
