// Package status implements the state inspection command.
package status

import (
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Coderopp/vc-thesis-scraper/cmd/common"
	"github.com/Coderopp/vc-thesis-scraper/internal/state"
)

// Command returns the status command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current monitoring state",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewDeps()
			if err != nil {
				return err
			}

			store := state.Load(deps.Config.Monitor.StateFile, deps.Logger)
			renderSummary(store)
			renderSiteStats(store)
			return nil
		},
	}
}

func renderSummary(store *state.Store) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Monitoring State")

	lastRun := "never"
	if !store.LastRun().IsZero() {
		lastRun = store.LastRun().Format("2006-01-02 15:04:05 MST")
	}

	t.AppendRows([]table.Row{
		{"Last run", lastRun},
		{"Tracked URLs", store.TrackedURLs()},
		{"Total articles scraped", store.TotalScraped()},
	})
	t.Render()
}

func renderSiteStats(store *state.Store) {
	stats := store.Stats()
	if len(stats) == 0 {
		return
	}

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Per-Site Statistics")
	t.AppendHeader(table.Row{"Site", "Last Scraped", "Articles"})

	for _, name := range names {
		s := stats[name]
		lastScraped := "never"
		if !s.LastScraped.IsZero() {
			lastScraped = s.LastScraped.Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{name, lastScraped, s.TotalArticles})
	}
	t.Render()
}
