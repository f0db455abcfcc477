// Package pipeline is the annotation workflow engine: a task graph of
// (genome x step) nodes executed by a bounded worker pool, with
// completion tracked through sentinel files so interrupted or failed
// runs resume instead of starting over.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/juliantom/gannot/config"
	"github.com/juliantom/gannot/internal/ctxlog"
	"github.com/spf13/cobra"
)

// loadConfig builds the config, letting the command's --genomes flag
// win over the settings file
func loadConfig(cmd *cobra.Command) config.Config {
	conf := config.New()

	if genomes, err := cmd.Flags().GetString("genomes"); err == nil && genomes != "" {
		full, err := filepath.Abs(genomes)
		if err != nil {
			log.Fatalf("failed to make %s absolute: %v", genomes, err)
		}
		conf.Genomes = full
	}
	return conf
}

// RunCmd is the entry for `gannot run`
func RunCmd(cmd *cobra.Command, args []string) {
	stepNames, err := cmd.Flags().GetString("steps")
	if err != nil {
		log.Fatalf("%v", err)
	}
	dryRun, err := cmd.Flags().GetBool("dry-run")
	if err != nil {
		log.Fatalf("%v", err)
	}

	report, err := execRun(loadConfig(cmd), stepNames, dryRun, NewExecRunner())
	if err != nil {
		log.Fatalf("%v", err)
	}
	if report == nil {
		return // dry run
	}

	fmt.Print(report)
	if report.Failed() {
		os.Exit(1)
	}
}

// execRun builds the task graph for the configured genome list and
// executes it. Returns the run's report (nil for a dry run) and any
// fatal pre-execution error
func execRun(conf config.Config, stepNames string, dryRun bool, runner Runner) (*Report, error) {
	steps, err := Select(Registry(), stepNames)
	if err != nil {
		return nil, err
	}

	units, err := ReadWorkUnits(conf.Genomes)
	if err != nil {
		return nil, err
	}

	graph, err := Build(units, steps)
	if err != nil {
		return nil, err
	}

	layout := Layout{
		Assemblies: conf.Paths.Assemblies,
		Data:       conf.Paths.Data,
		Logs:       conf.Paths.Logs,
	}

	store, err := NewFileStore(conf.Paths.Sentinels)
	if err != nil {
		return nil, err
	}

	if dryRun {
		for _, node := range graph.Nodes {
			if store.IsDone(node.Unit, node.Step.Name) {
				continue
			}
			iv := invocation(node, layout, conf.Run.Threads, conf.Tools)
			fmt.Println(iv.String())
		}
		return nil, nil
	}

	if err := Preflight(steps, conf.Tools); err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	ctx := ctxlog.With(context.Background(), logger)

	// Ctrl-C stops dispatching; everything already Done stays Done
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting pipeline",
		"genomes", len(units),
		"steps", len(steps),
		"workers", conf.Run.Workers,
	)

	executor := NewExecutor(graph, store, runner, Options{
		Workers: conf.Run.Workers,
		Threads: conf.Run.Threads,
		Layout:  layout,
		Tools:   conf.Tools,
	})

	return executor.Run(ctx), nil
}

// StatusCmd is the entry for `gannot status`
func StatusCmd(cmd *cobra.Command, args []string) {
	out, err := execStatus(loadConfig(cmd))
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Print(out)
}

// execStatus re-derives every node's state from the sentinel files and
// renders the per-step table, dispatching nothing
func execStatus(conf config.Config) (string, error) {
	units, err := ReadWorkUnits(conf.Genomes)
	if err != nil {
		return "", err
	}

	steps := Registry()
	store, err := NewFileStore(conf.Paths.Sentinels)
	if err != nil {
		return "", err
	}

	report := newReport(steps)
	done := 0
	for _, step := range steps {
		for _, unit := range units {
			if store.IsDone(unit, step.Name) {
				report.Steps[step.Name].Done++
				done++
			} else {
				report.Steps[step.Name].Pending++
			}
		}
	}

	total := len(units) * len(steps)
	return fmt.Sprintf("%s\n%d of %d tasks complete\n", report.Table(), done, total), nil
}

// StepsCmd is the entry for `gannot steps`
func StepsCmd(cmd *cobra.Command, args []string) {
	fmt.Print(stepTable(Registry()))
}

// stepTable renders the registry: one line per step with its
// prerequisites and tool
func stepTable(steps []StepDefinition) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%-18s %-15s %-26s %s\n", "step", "requires", "tool", "threads")
	for _, step := range steps {
		requires := strings.Join(step.Prereqs, ",")
		if requires == "" {
			requires = "-"
		}
		fmt.Fprintf(
			&b,
			"%-18s %-15s %-26s %d-%d\n",
			step.Name,
			requires,
			step.Tool,
			step.MinThreads,
			step.MaxThreads,
		)
	}
	return b.String()
}

// CleanCmd is the entry for `gannot clean`
func CleanCmd(cmd *cobra.Command, args []string) {
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		log.Fatalf("%v", err)
	}
	if !force {
		log.Fatal("refusing to delete pipeline state without --force")
	}

	conf := loadConfig(cmd)
	units, err := ReadWorkUnits(conf.Genomes)
	if err != nil {
		log.Fatalf("%v", err)
	}

	store, err := NewFileStore(conf.Paths.Sentinels)
	if err != nil {
		log.Fatalf("%v", err)
	}

	layout := Layout{
		Assemblies: conf.Paths.Assemblies,
		Data:       conf.Paths.Data,
		Logs:       conf.Paths.Logs,
	}

	removed, err := Clean(units, store, layout)
	if err != nil {
		log.Fatalf("failed to clean pipeline state: %v", err)
	}
	fmt.Printf("removed %d sentinel, log and database artifacts\n", removed)
}
