package pipeline

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Layout resolves the on-disk paths for one genome. Every path is
// absolute so no worker ever depends on the process working directory.
type Layout struct {
	// Assemblies is the directory of input FASTA files
	Assemblies string

	// Data is the directory of generated contigs databases
	Data string

	// Logs is the directory of per-(step, genome) log files
	Logs string
}

// Assembly is the input FASTA path for a genome
func (l Layout) Assembly(unit string) string {
	return filepath.Join(l.Assemblies, unit+".fa")
}

// DB is the generated contigs database path for a genome
func (l Layout) DB(unit string) string {
	return filepath.Join(l.Data, unit, unit+"-contigs.db")
}

// Log is the log path for a (step, genome) pair
func (l Layout) Log(unit, step string) string {
	return filepath.Join(l.Logs, step+"-"+unit+".log")
}

// Invocation is one fully resolved external command: the binary, its
// arguments and the log file its combined output is written to.
type Invocation struct {
	Unit string
	Step string
	Bin  string
	Args []string
	Log  string
}

// String renders the command roughly as a shell would show it
func (iv Invocation) String() string {
	out := iv.Bin
	for _, arg := range iv.Args {
		out += " " + arg
	}
	return out
}

// Runner dispatches one external command and blocks until it exits.
// The real implementation shells out; tests substitute a stub.
type Runner interface {
	Run(ctx context.Context, iv Invocation) error
}

// invocation resolves a node against the layout: placeholders
// expanded, thread hint clamped to the step's range, binary
// overridden by the tools map when present
func invocation(n *Node, layout Layout, threads int, tools map[string]string) Invocation {
	step := n.Step

	bin := step.Tool
	if override, ok := tools[step.Tool]; ok && override != "" {
		bin = override
	}

	resolved := step.Threads(threads)
	args := make([]string, len(step.Args))
	for i, arg := range step.Args {
		args[i] = expand(arg, n.Unit, layout.Assembly(n.Unit), layout.DB(n.Unit), resolved)
	}

	return Invocation{
		Unit: n.Unit,
		Step: step.Name,
		Bin:  bin,
		Args: args,
		Log:  layout.Log(n.Unit, step.Name),
	}
}

// execRunner shells out with os/exec
type execRunner struct{}

// NewExecRunner returns the Runner used outside of tests.
func NewExecRunner() Runner {
	return execRunner{}
}

// Run dispatches the command with its combined output redirected to
// the invocation's log file. The log is truncated on a re-run. The
// command is killed if the context is canceled.
func (execRunner) Run(ctx context.Context, iv Invocation) error {
	if err := os.MkdirAll(filepath.Dir(iv.Log), 0755); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}
	logFile, err := os.Create(iv.Log)
	if err != nil {
		return fmt.Errorf("failed to create log file %s: %w", iv.Log, err)
	}
	defer logFile.Close()

	cmd := exec.CommandContext(ctx, iv.Bin, iv.Args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s exited: %w", iv.Bin, err)
	}
	return nil
}

// Preflight checks that every distinct tool of the selected steps is
// on PATH (or overridden to an existing path) before anything is
// dispatched. A missing binary here is fatal; one that disappears
// mid-run surfaces as an ordinary step failure.
func Preflight(steps []StepDefinition, tools map[string]string) error {
	checked := make(map[string]bool)

	for _, step := range steps {
		bin := step.Tool
		if override, ok := tools[step.Tool]; ok && override != "" {
			bin = override
		}
		if checked[bin] {
			continue
		}
		checked[bin] = true

		if _, err := exec.LookPath(bin); err != nil {
			return &EnvironmentError{Tool: bin, Err: err}
		}
	}
	return nil
}
