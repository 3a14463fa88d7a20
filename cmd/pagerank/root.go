package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pagerank.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagerank",
		Short: "Rank the pages of an HTML corpus by importance",
		Long: `pagerank computes the PageRank of every page in a directory of HTML files.

Links between the files form a graph. Each page is ranked twice: by
simulating a random surfer who follows links or jumps to a random page, and
by iterating the PageRank equations until they settle. The two results are
compared and every run can be stored for later comparison.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON lines")

	cmd.AddCommand(NewRankCmd())
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
