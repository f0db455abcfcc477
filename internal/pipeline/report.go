package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// StepCount is the per-step tally of terminal and blocked nodes.
type StepCount struct {
	Done    int
	Failed  int
	Pending int
}

// Report is the user-facing summary of one executor run.
type Report struct {
	// Invoked counts dispatched external commands
	Invoked int

	// Skipped counts nodes whose sentinel already existed
	Skipped int

	// Elapsed is the wall time of the run
	Elapsed time.Duration

	// Failures lists every failed node with its log path
	Failures []*StepFailure

	// Steps maps step name to its node counts
	Steps map[string]*StepCount

	order []string
}

func newReport(steps []StepDefinition) *Report {
	r := &Report{
		Steps: make(map[string]*StepCount, len(steps)),
	}
	for _, step := range steps {
		r.Steps[step.Name] = &StepCount{}
		r.order = append(r.order, step.Name)
	}
	return r
}

// tally counts node states into the per-step table. Nodes still Ready
// or Running at this point (a canceled run) count as Pending since
// that is what the next invocation will see.
func (r *Report) tally(nodes []*Node) {
	for _, node := range nodes {
		count := r.Steps[node.Step.Name]
		switch node.State() {
		case Done:
			count.Done++
		case Failed:
			count.Failed++
		default:
			count.Pending++
		}
	}
}

// Failed reports whether any node failed.
func (r *Report) Failed() bool {
	return len(r.Failures) > 0
}

// Table renders just the per-step counts.
func (r *Report) Table() string {
	var b strings.Builder

	width := len("step")
	for _, name := range r.order {
		if len(name) > width {
			width = len(name)
		}
	}

	fmt.Fprintf(&b, "%-*s  %6s  %6s  %7s\n", width, "step", "done", "failed", "pending")
	for _, name := range r.order {
		count := r.Steps[name]
		fmt.Fprintf(&b, "%-*s  %6d  %6d  %7d\n", width, name, count.Done, count.Failed, count.Pending)
	}
	return b.String()
}

// String renders the summary table plus one line per failure.
func (r *Report) String() string {
	var b strings.Builder

	b.WriteString(r.Table())
	fmt.Fprintf(
		&b,
		"\n%d command(s) invoked, %d skipped, %d failed in %s\n",
		r.Invoked,
		r.Skipped,
		len(r.Failures),
		r.Elapsed.Round(time.Millisecond),
	)

	for _, failure := range r.Failures {
		fmt.Fprintf(&b, "failed: %s %s (see %s)\n", failure.Step, failure.Unit, failure.Log)
	}

	return b.String()
}
