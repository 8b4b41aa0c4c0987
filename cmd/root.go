// Package cmd implements the command-line interface for the VC article
// monitor.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Coderopp/vc-thesis-scraper/cmd/run"
	"github.com/Coderopp/vc-thesis-scraper/cmd/schedule"
	cmdsources "github.com/Coderopp/vc-thesis-scraper/cmd/sources"
	"github.com/Coderopp/vc-thesis-scraper/cmd/status"
	"github.com/Coderopp/vc-thesis-scraper/internal/config"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "vcscraper",
		Short: "Incremental monitor for VC firm articles",
		Long: `vcscraper periodically discovers and extracts news and insight
articles published by a fixed set of venture-capital firm websites,
deduplicates them against previously seen content, and persists new
items to a CSV file and an optional Elasticsearch index.`,
		// Configuration loads after flag parsing so --config and
		// --debug take effect.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are available to Viper.
	_ = godotenv.Load()

	// Interrupt handling is cooperative: commands stop issuing fetches,
	// flush accepted articles and save state before exiting.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(run.Command())
	rootCmd.AddCommand(schedule.Command())
	rootCmd.AddCommand(status.Command())
	rootCmd.AddCommand(cmdsources.Command())
}

// initConfig reads the config file and environment variables into Viper.
func initConfig() error {
	v := viper.GetViper()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	config.SetDefaults(v)

	// The config file is optional: defaults plus environment variables
	// are a complete configuration.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := bindEnvVars(v); err != nil {
		return err
	}

	if debug {
		v.Set("logger.level", "debug")
	}

	return nil
}

// bindEnvVars maps environment variables to config keys.
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string][]string{
		"logger.level":            {"LOG_LEVEL"},
		"logger.encoding":         {"LOG_FORMAT"},
		"elasticsearch.addresses": {"ELASTICSEARCH_ADDRESSES", "ELASTICSEARCH_HOSTS"},
		"elasticsearch.username":  {"ELASTICSEARCH_USERNAME"},
		"elasticsearch.password":  {"ELASTICSEARCH_PASSWORD", "ELASTIC_PASSWORD"},
		"elasticsearch.api_key":   {"ELASTICSEARCH_API_KEY"},
		"elasticsearch.index":     {"ELASTICSEARCH_INDEX"},
	}

	for key, envs := range bindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}
	return nil
}
