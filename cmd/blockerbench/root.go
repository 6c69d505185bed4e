// Package main provides the entry point for the blockerbench CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for blockerbench.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blockerbench",
		Short: "Score ad/tracker blockers against each other",
		Long: `blockerbench scores ad/tracker blockers (Ghostery, uBlock, Privacy Badger, ...)
by comparing which trackers each blocker detected per website. Scores are
weighted by the website's popularity rank and by how frequently each tracker
appears across the whole dataset, so blockers that catch prevalent trackers
on popular websites score higher than blockers that only catch one-off
trackers far down the ranking.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScoreCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
