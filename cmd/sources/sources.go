// Package sources implements commands for inspecting the site registry.
package sources

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/Coderopp/vc-thesis-scraper/cmd/common"
)

// Command returns the sources command group.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Inspect the configured site registry",
	}

	cmd.AddCommand(listCommand())
	cmd.AddCommand(validateCommand())

	return cmd
}

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured sites",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewDeps()
			if err != nil {
				return err
			}

			sites, err := deps.LoadSites()
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(os.Stdout)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"Key", "Name", "Base URL", "Link Patterns"})

			for _, site := range sites {
				t.AppendRow(table.Row{
					site.Key,
					site.Name,
					site.BaseURL,
					strings.Join(site.LinkPatterns, ", "),
				})
			}
			t.Render()
			return nil
		},
	}
}

func validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the site registry file",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := common.NewDeps()
			if err != nil {
				return err
			}

			sites, err := deps.LoadSites()
			if err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "OK: %d sites configured\n", len(sites))
			return nil
		},
	}
}
