package cmd

import (
	"github.com/juliantom/gannot/internal/pipeline"
	"github.com/spf13/cobra"
)

// stepsCmd is for listing the step registry.
var stepsCmd = &cobra.Command{
	Use:                        "steps",
	Run:                        pipeline.StepsCmd,
	Short:                      "List the pipeline steps, their prerequisites and tools",
	SuggestionsMinimumDistance: 2,
	Aliases:                    []string{"ls"},
}

func init() {
	rootCmd.AddCommand(stepsCmd)
}
