// Package main provides the entry point for the prism CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/prism/cmd/prism/commands"
	"github.com/Sumatoshi-tech/prism/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "prism",
		Short: "Prism - developer activity record pipeline",
		Long: `Prism normalizes raw developer-activity events into canonical records,
resolves contributor identities and keeps derived attributes consistent.

Commands:
  seed      Load reference data into the store
  process   Normalize raw event streams into records
  update    Recompute derived record attributes
  stats     Summarize the store contents
  snapshot  Save or restore a store snapshot`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands.
	rootCmd.AddCommand(commands.NewSeedCommand())
	rootCmd.AddCommand(commands.NewProcessCommand())
	rootCmd.AddCommand(commands.NewUpdateCommand())
	rootCmd.AddCommand(commands.NewStatsCommand())
	rootCmd.AddCommand(commands.NewSnapshotCommand())
	rootCmd.AddCommand(versionCmd())

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(os.Stdout, "prism %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
