package cmd

import (
	"github.com/juliantom/gannot/internal/pipeline"
	"github.com/spf13/cobra"
)

// statusCmd is for reporting pipeline completion without running anything.
var statusCmd = &cobra.Command{
	Use:                        "status",
	Run:                        pipeline.StatusCmd,
	Short:                      "Report per-step completion counts from the sentinel files",
	SuggestionsMinimumDistance: 2,
	Long: `Re-derive the state of every (genome, step) pair from the sentinel
files and print per-step Done and Pending counts. Dispatches nothing.`,
}

// set flags
func init() {
	statusCmd.Flags().StringP("genomes", "g", "", "path to the newline-delimited genome ID list")

	rootCmd.AddCommand(statusCmd)
}
