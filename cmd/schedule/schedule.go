// Package schedule implements the long-running scheduled monitor.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/Coderopp/vc-thesis-scraper/cmd/common"
	"github.com/Coderopp/vc-thesis-scraper/internal/state"
)

// cleanupSpec fires the retention cleanup every Sunday at 02:00.
const cleanupSpec = "0 2 * * 0"

// Command returns the schedule command.
func Command() *cobra.Command {
	var runAt string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the monitor on a daily schedule",
		Long: `Schedule starts a long-running process that executes one monitoring
pass every day at the configured time and purges state entries older
than the retention horizon once a week. The process runs until
interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewDeps()
			if err != nil {
				return err
			}

			runSpec, err := cronSpecForTime(runAt)
			if err != nil {
				return err
			}

			log := deps.Logger
			c := cron.New(
				cron.WithParser(cron.NewParser(
					cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow)),
				cron.WithChain(cron.Recover(cron.DefaultLogger)),
			)

			// Serializes the daily pass and the weekly cleanup; the state
			// document must never be rewritten mid-run.
			var mu sync.Mutex

			_, err = c.AddFunc(runSpec, func() {
				mu.Lock()
				defer mu.Unlock()

				stats, runErr := common.RunOnce(cmd.Context(), deps, common.RunOptions{})
				if runErr != nil {
					log.Error("Scheduled run failed", "error", runErr)
					return
				}
				log.Info("Scheduled run completed",
					"run_id", stats.RunID,
					"new_articles", stats.TotalNew,
					"runtime", stats.Runtime.String())
			})
			if err != nil {
				return fmt.Errorf("failed to schedule monitoring run: %w", err)
			}

			_, err = c.AddFunc(cleanupSpec, func() {
				mu.Lock()
				defer mu.Unlock()
				cleanupState(deps)
			})
			if err != nil {
				return fmt.Errorf("failed to schedule cleanup: %w", err)
			}

			log.Info("Scheduler started",
				"daily_run_at", runAt,
				"cleanup_spec", cleanupSpec)
			c.Start()

			<-cmd.Context().Done()
			log.Info("Scheduler stopping")

			// Stop returns a context that is done once running jobs finish.
			<-c.Stop().Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&runAt, "time", "09:00",
		"time of day for the daily run (HH:MM, 24-hour)")

	return cmd
}

// cleanupState purges expired entries from the state document and saves it.
func cleanupState(deps *common.Deps) {
	log := deps.Logger
	horizon := time.Duration(deps.Config.Monitor.RetentionDays) * 24 * time.Hour

	store := state.Load(deps.Config.Monitor.StateFile, log)
	purged := store.Cleanup(horizon)
	if purged == 0 {
		log.Info("State cleanup found nothing to purge")
		return
	}

	if err := store.Save(); err != nil {
		log.Error("Failed to save state after cleanup", "error", err)
		return
	}
	log.Info("State cleanup completed", "purged", purged)
}

// cronSpecForTime converts an HH:MM wall-clock time into a daily cron spec.
func cronSpecForTime(value string) (string, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time %q, expected HH:MM", value)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", value)
	}

	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}
