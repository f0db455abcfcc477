package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/juliantom/gannot/internal/ctxlog"
)

// Options tune one executor run.
type Options struct {
	// Workers bounds how many external commands run at once. This is
	// the only enforced limit: each tool's thread hint is forwarded,
	// not policed
	Workers int

	// Threads is the configured thread hint, clamped per step
	Threads int

	// Layout resolves assembly, database and log paths
	Layout Layout

	// Tools maps tool names to binary overrides
	Tools map[string]string
}

// Executor walks a task graph with a fixed-size worker pool. A node is
// dispatched once every prerequisite for the same genome is Done; a
// node whose sentinel already exists is marked Done without running
// anything, which is what makes re-runs resume instead of repeat.
type Executor struct {
	graph  *Graph
	store  CompletionStore
	runner Runner
	opts   Options

	ready       chan *Node
	outstanding atomic.Int32
	closeOnce   sync.Once

	mu     sync.Mutex
	report *Report
}

// NewExecutor wires a graph to a completion store and a command
// runner.
func NewExecutor(graph *Graph, store CompletionStore, runner Runner, opts Options) *Executor {
	if opts.Workers < 1 {
		opts.Workers = 1
	}

	return &Executor{
		graph:  graph,
		store:  store,
		runner: runner,
		opts:   opts,
		report: newReport(graph.Steps),
	}
}

// Run executes the graph until every node is settled or unreachable
// and returns the run's report. A failed node never aborts the run: it
// only keeps that genome's downstream nodes Pending, where the next
// invocation picks them up. Canceling the context stops dispatching;
// nodes not yet Running are left Pending for the next run.
func (e *Executor) Run(ctx context.Context) *Report {
	logger := ctxlog.From(ctx)
	start := time.Now()

	e.ready = make(chan *Node, len(e.graph.Nodes))
	for _, node := range e.graph.Nodes {
		if node.waiting.Load() == 0 {
			e.enqueue(node)
		}
	}

	logger.Debug("starting worker pool",
		"workers", e.opts.Workers,
		"nodes", len(e.graph.Nodes),
	)

	var wg sync.WaitGroup
	for i := 0; i < e.opts.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			e.work(ctx, worker)
		}(i)
	}
	wg.Wait()

	e.report.Elapsed = time.Since(start)
	e.report.tally(e.graph.Nodes)

	logger.Info("run complete",
		"invoked", e.report.Invoked,
		"skipped", e.report.Skipped,
		"failed", len(e.report.Failures),
		"elapsed", e.report.Elapsed,
	)
	return e.report
}

// enqueue marks a node Ready and hands it to the pool
func (e *Executor) enqueue(n *Node) {
	n.setState(Ready)
	e.outstanding.Add(1)
	e.ready <- n
}

// settle retires one node; the last one closes the pool's channel
func (e *Executor) settle() {
	if e.outstanding.Add(-1) == 0 {
		e.closeOnce.Do(func() { close(e.ready) })
	}
}

// work is the loop of a single worker: pull a ready node, process it,
// repeat until the channel drains
func (e *Executor) work(ctx context.Context, worker int) {
	logger := ctxlog.From(ctx).With("worker", worker)

	for node := range e.ready {
		e.process(ctx, node, logger)
		e.settle()
	}
}

// process settles one ready node: skip it if its sentinel exists,
// otherwise dispatch its command
func (e *Executor) process(ctx context.Context, n *Node, logger *slog.Logger) {
	if ctx.Err() != nil {
		// left Pending for the next invocation
		n.setState(Pending)
		return
	}

	if e.store.IsDone(n.Unit, n.Step.Name) {
		logger.Debug("sentinel present, skipping", "step", n.Step.Name, "genome", n.Unit)

		e.mu.Lock()
		e.report.Skipped++
		e.mu.Unlock()

		e.finish(n)
		return
	}

	n.setState(Running)
	iv := invocation(n, e.opts.Layout, e.opts.Threads, e.opts.Tools)
	logger.Debug("dispatching", "step", n.Step.Name, "genome", n.Unit, "cmd", iv.String())

	e.mu.Lock()
	e.report.Invoked++
	e.mu.Unlock()

	err := e.dispatch(ctx, iv)
	if err == nil {
		// the sentinel is written only after exit code 0
		err = e.store.MarkDone(n.Unit, n.Step.Name)
	}

	if err != nil {
		failure := &StepFailure{Unit: n.Unit, Step: n.Step.Name, Log: iv.Log, Err: err}
		n.Err = failure
		n.setState(Failed)
		logger.Error("step failed", "step", n.Step.Name, "genome", n.Unit, "log", iv.Log, "error", err)

		e.mu.Lock()
		e.report.Failures = append(e.report.Failures, failure)
		e.mu.Unlock()

		// dependents stay Pending: the next run retries them
		return
	}

	e.finish(n)
}

// dispatch runs one external command, converting a panic in the
// command wrapper into an error so the worker's slot is always
// released and the node never sticks in Running
func (e *Executor) dispatch(ctx context.Context, iv Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("command wrapper panicked: %v", r)
		}
	}()

	// the genome's data dir must exist before its tool writes into it
	if err := os.MkdirAll(filepath.Dir(e.opts.Layout.DB(iv.Unit)), 0755); err != nil {
		return err
	}

	return e.runner.Run(ctx, iv)
}

// finish marks a node Done and releases any dependent whose last
// prerequisite this was
func (e *Executor) finish(n *Node) {
	n.setState(Done)

	for _, dependent := range n.Dependents {
		if dependent.waiting.Add(-1) == 0 {
			e.enqueue(dependent)
		}
	}
}
