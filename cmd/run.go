package cmd

import (
	"github.com/juliantom/gannot/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// runCmd is for executing the annotation pipeline against a list of genomes.
var runCmd = &cobra.Command{
	Use:                        "run",
	Run:                        pipeline.RunCmd,
	Short:                      "Run the annotation pipeline over the genome list",
	SuggestionsMinimumDistance: 2,
	Long: `Run every pipeline step against every genome in the genome list.

A step is only dispatched once every step it depends on, for the same
genome, has a sentinel file. Steps with a sentinel are skipped, so
re-running after a failure or an interruption only executes the
steps that have not completed yet.`,
	Example: "  gannot run --genomes genomes.txt --workers 8",
}

// set flags
func init() {
	runCmd.Flags().StringP("genomes", "g", "", "path to the newline-delimited genome ID list")
	runCmd.Flags().IntP("workers", "w", 4, "number of external commands to run at once")
	runCmd.Flags().IntP("threads", "t", 8, "thread count hint passed to each tool")
	runCmd.Flags().StringP("steps", "s", "", "comma-separated subset of steps to run (with their prerequisites)")
	runCmd.Flags().Bool("dry-run", false, "print the commands that would run without executing them")

	viper.BindPFlag("run.workers", runCmd.Flags().Lookup("workers"))
	viper.BindPFlag("run.threads", runCmd.Flags().Lookup("threads"))

	rootCmd.AddCommand(runCmd)
}
