package cmd

import (
	"github.com/juliantom/gannot/internal/pipeline"
	"github.com/spf13/cobra"
)

// cleanCmd is for resetting the pipeline to a blank state.
var cleanCmd = &cobra.Command{
	Use:                        "clean",
	Run:                        pipeline.CleanCmd,
	Short:                      "Delete all sentinels, logs and generated databases",
	SuggestionsMinimumDistance: 2,
	Aliases:                    []string{"reset"},
	Long: `Delete every sentinel file, every log file and every generated
per-genome contigs database. The input assemblies are never touched.

This is irreversible: the next run re-executes the full pipeline.`,
	Example: "  gannot clean --force",
}

// set flags
func init() {
	cleanCmd.Flags().StringP("genomes", "g", "", "path to the newline-delimited genome ID list")
	cleanCmd.Flags().BoolP("force", "f", false, "actually delete (required)")

	rootCmd.AddCommand(cleanCmd)
}
