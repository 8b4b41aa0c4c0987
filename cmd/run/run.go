// Package run implements the single-pass monitoring command.
package run

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Coderopp/vc-thesis-scraper/cmd/common"
)

// Command returns the run command.
func Command() *cobra.Command {
	var (
		fullRecheck bool
		siteKeys    []string
		maxPerSite  int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one monitoring pass over all configured sites",
		Long: `Run discovers candidate article URLs on every configured site,
extracts the new ones, records them in the change-detection state and
appends them to the configured sinks.

By default URLs already present in the state are skipped without being
fetched. With --full every discovered URL is re-fetched and compared by
content fingerprint, so edited articles are picked up again.

--sites narrows the pass to a comma-separated subset of registry keys,
and --max-per-site overrides the configured per-site article cap for
this pass only.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewDeps()
			if err != nil {
				return err
			}

			stats, err := common.RunOnce(cmd.Context(), deps, common.RunOptions{
				FullRecheck: fullRecheck,
				SiteKeys:    siteKeys,
				MaxPerSite:  maxPerSite,
			})
			if err != nil {
				return fmt.Errorf("monitoring pass failed: %w", err)
			}

			deps.Logger.Info("Run completed",
				"run_id", stats.RunID,
				"new_articles", stats.TotalNew,
				"runtime", stats.Runtime.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&fullRecheck, "full", false,
		"re-fetch every discovered URL and compare by content fingerprint")
	cmd.Flags().StringSliceVar(&siteKeys, "sites", nil,
		"comma-separated site keys to monitor (default: all)")
	cmd.Flags().IntVar(&maxPerSite, "max-per-site", 0,
		"override the per-site article cap for this pass")

	return cmd
}
