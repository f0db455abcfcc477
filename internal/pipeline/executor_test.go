package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner stands in for the external tools: it records every
// invocation, writes one line to the invocation's log file, and can be
// told to fail or panic for chosen (step, genome) pairs
type stubRunner struct {
	mu       sync.Mutex
	calls    []Invocation
	inFlight int
	peak     int

	delay   time.Duration
	failOn  map[string]bool
	panicOn map[string]bool
}

func stubKey(step, unit string) string {
	return step + "/" + unit
}

func (s *stubRunner) Run(ctx context.Context, iv Invocation) error {
	s.mu.Lock()
	s.calls = append(s.calls, iv)
	s.inFlight++
	if s.inFlight > s.peak {
		s.peak = s.inFlight
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.inFlight--
		s.mu.Unlock()
	}()

	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	// every invocation leaves a non-empty log behind
	if err := os.MkdirAll(filepath.Dir(iv.Log), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(iv.Log, []byte("stub: "+iv.String()+"\n"), 0644); err != nil {
		return err
	}

	if s.panicOn[stubKey(iv.Step, iv.Unit)] {
		panic("stub tool crashed")
	}
	if s.failOn[stubKey(iv.Step, iv.Unit)] {
		return fmt.Errorf("exit status 1")
	}
	return nil
}

// callIndex returns the position of the pair's invocation, or -1
func (s *stubRunner) callIndex(step, unit string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, iv := range s.calls {
		if iv.Step == step && iv.Unit == unit {
			return i
		}
	}
	return -1
}

// harness is one executor run's worth of temp dirs and wiring
type harness struct {
	store  *FileStore
	layout Layout
	runner *stubRunner
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()

	store, err := NewFileStore(filepath.Join(root, "done"))
	require.NoError(t, err)

	return &harness{
		store: store,
		layout: Layout{
			Assemblies: filepath.Join(root, "assemblies"),
			Data:       filepath.Join(root, "data"),
			Logs:       filepath.Join(root, "logs"),
		},
		runner: &stubRunner{},
	}
}

func (h *harness) run(t *testing.T, units []string, steps []StepDefinition, workers int) *Report {
	t.Helper()

	graph, err := Build(units, steps)
	require.NoError(t, err)

	executor := NewExecutor(graph, h.store, h.runner, Options{
		Workers: workers,
		Threads: 4,
		Layout:  h.layout,
	})
	return executor.Run(context.Background())
}

// twoSteps is the minimal A -> B pipeline from the design scenarios
func twoSteps() []StepDefinition {
	return []StepDefinition{
		{Name: "A", Tool: "tool-a", Args: []string{"-f", "{assembly}", "-o", "{db}", "-T", "{threads}"}, MinThreads: 1, MaxThreads: 8},
		{Name: "B", Prereqs: []string{"A"}, Tool: "tool-b", Args: []string{"-c", "{db}", "-T", "{threads}"}, MinThreads: 1, MaxThreads: 8},
	}
}

func TestExecutor_freshRun(t *testing.T) {
	h := newHarness(t)
	units := []string{"G1", "G2"}

	report := h.run(t, units, twoSteps(), 2)

	// all four sentinels exist and four commands ran
	assert.Equal(t, 4, report.Invoked)
	assert.Zero(t, report.Skipped)
	assert.False(t, report.Failed())
	for _, unit := range units {
		assert.True(t, h.store.IsDone(unit, "A"))
		assert.True(t, h.store.IsDone(unit, "B"))

		// A dispatched strictly before B for the same genome
		aIdx := h.runner.callIndex("A", unit)
		bIdx := h.runner.callIndex("B", unit)
		require.NotEqual(t, -1, aIdx)
		require.NotEqual(t, -1, bIdx)
		assert.Less(t, aIdx, bIdx)

		// no log file is empty
		for _, step := range []string{"A", "B"} {
			info, err := os.Stat(h.layout.Log(unit, step))
			require.NoError(t, err)
			assert.NotZero(t, info.Size())
		}
	}

	assert.Equal(t, 2, report.Steps["A"].Done)
	assert.Equal(t, 2, report.Steps["B"].Done)
}

func TestExecutor_idempotentRerun(t *testing.T) {
	h := newHarness(t)
	units := []string{"G1", "G2"}

	first := h.run(t, units, twoSteps(), 2)
	require.Equal(t, 4, first.Invoked)

	// identical second run dispatches nothing
	second := h.run(t, units, twoSteps(), 2)
	assert.Zero(t, second.Invoked)
	assert.Equal(t, 4, second.Skipped)
	assert.Len(t, h.runner.calls, 4)
	assert.Equal(t, 2, second.Steps["A"].Done)
	assert.Equal(t, 2, second.Steps["B"].Done)
}

func TestExecutor_failureGating(t *testing.T) {
	h := newHarness(t)
	h.runner.failOn = map[string]bool{stubKey("A", "G1"): true}
	units := []string{"G1", "G2"}

	report := h.run(t, units, twoSteps(), 2)

	// G1's failure blocks only G1's downstream step
	assert.False(t, h.store.IsDone("G1", "A"))
	assert.True(t, h.store.IsDone("G2", "A"))
	assert.Equal(t, -1, h.runner.callIndex("B", "G1"))
	assert.True(t, h.store.IsDone("G2", "B"))

	require.True(t, report.Failed())
	require.Len(t, report.Failures, 1)
	failure := report.Failures[0]
	assert.Equal(t, "A", failure.Step)
	assert.Equal(t, "G1", failure.Unit)
	assert.Equal(t, h.layout.Log("G1", "A"), failure.Log)

	assert.Equal(t, 1, report.Steps["A"].Failed)
	assert.Equal(t, 1, report.Steps["A"].Done)
	assert.Equal(t, 1, report.Steps["B"].Pending)
	assert.Equal(t, 1, report.Steps["B"].Done)
}

func TestExecutor_transitiveGating(t *testing.T) {
	h := newHarness(t)
	h.runner.failOn = map[string]bool{stubKey("A", "G1"): true}

	steps := append(twoSteps(), StepDefinition{
		Name: "C", Prereqs: []string{"B"}, Tool: "tool-c",
		Args: []string{"-c", "{db}"}, MinThreads: 1, MaxThreads: 8,
	})

	h.run(t, []string{"G1"}, steps, 2)

	// nothing downstream of the failure is ever dispatched
	assert.Equal(t, -1, h.runner.callIndex("B", "G1"))
	assert.Equal(t, -1, h.runner.callIndex("C", "G1"))
	assert.False(t, h.store.IsDone("G1", "B"))
	assert.False(t, h.store.IsDone("G1", "C"))
}

func TestExecutor_retryAfterFailure(t *testing.T) {
	h := newHarness(t)
	h.runner.failOn = map[string]bool{stubKey("A", "G1"): true}
	units := []string{"G1"}

	first := h.run(t, units, twoSteps(), 1)
	require.True(t, first.Failed())

	// the operator's re-run retries only the failed and blocked nodes
	h.runner.failOn = nil
	second := h.run(t, units, twoSteps(), 1)

	assert.False(t, second.Failed())
	assert.Equal(t, 2, second.Invoked)
	assert.True(t, h.store.IsDone("G1", "A"))
	assert.True(t, h.store.IsDone("G1", "B"))
}

func TestExecutor_concurrencyBound(t *testing.T) {
	h := newHarness(t)
	h.runner.delay = 20 * time.Millisecond

	var units []string
	for i := 0; i < 12; i++ {
		units = append(units, fmt.Sprintf("G%d", i))
	}
	steps := []StepDefinition{
		{Name: "A", Tool: "tool-a", Args: []string{"-f", "{assembly}"}, MinThreads: 1, MaxThreads: 8},
	}

	report := h.run(t, units, steps, 3)

	assert.Equal(t, 12, report.Invoked)
	assert.LessOrEqual(t, h.runner.peak, 3)
	assert.Greater(t, h.runner.peak, 1)
}

func TestExecutor_crashedCommandRedispatched(t *testing.T) {
	h := newHarness(t)
	units := []string{"G1"}
	steps := twoSteps()

	// a previous run died mid-command: the artifact is half-written
	// and no sentinel exists
	dbDir := filepath.Dir(h.layout.DB("G1"))
	require.NoError(t, os.MkdirAll(dbDir, 0755))
	require.NoError(t, os.WriteFile(h.layout.DB("G1"), []byte("partial"), 0644))

	report := h.run(t, units, steps, 1)

	// the node is treated as Pending and dispatched exactly once
	assert.Equal(t, 2, report.Invoked)
	assert.Equal(t, 0, h.runner.callIndex("A", "G1"))
	assert.Len(t, h.runner.calls, 2)
	assert.True(t, h.store.IsDone("G1", "A"))
}

func TestExecutor_panickingWrapperReleasesSlot(t *testing.T) {
	h := newHarness(t)
	h.runner.panicOn = map[string]bool{stubKey("A", "G1"): true}
	units := []string{"G1", "G2"}

	report := h.run(t, units, twoSteps(), 1)

	// the run still terminates and the node is Failed, not stuck Running
	require.True(t, report.Failed())
	assert.Equal(t, 1, report.Steps["A"].Failed)
	assert.False(t, h.store.IsDone("G1", "A"))

	// the single worker's slot was released: G2 still completed
	assert.True(t, h.store.IsDone("G2", "A"))
	assert.True(t, h.store.IsDone("G2", "B"))
}

func TestExecutor_cancelStopsDispatching(t *testing.T) {
	h := newHarness(t)
	h.runner.delay = 20 * time.Millisecond

	var units []string
	for i := 0; i < 8; i++ {
		units = append(units, fmt.Sprintf("G%d", i))
	}
	steps := []StepDefinition{
		{Name: "A", Tool: "tool-a", Args: []string{"-f", "{assembly}"}, MinThreads: 1, MaxThreads: 8},
	}

	graph, err := Build(units, steps)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	executor := NewExecutor(graph, h.store, h.runner, Options{
		Workers: 1,
		Threads: 4,
		Layout:  h.layout,
	})
	report := executor.Run(ctx)

	// some nodes ran, the rest were left Pending for the next run
	assert.Less(t, report.Invoked, len(units))
	assert.Greater(t, report.Steps["A"].Pending, 0)
	assert.Zero(t, report.Steps["A"].Failed)
}

func TestExecutor_registryEndToEnd(t *testing.T) {
	h := newHarness(t)
	units := []string{"G1"}

	report := h.run(t, units, Registry(), 4)

	assert.Equal(t, 9, report.Invoked)
	assert.False(t, report.Failed())
	for _, step := range Registry() {
		assert.True(t, h.store.IsDone("G1", step.Name), step.Name)
	}

	// the database exists before anything annotates it
	genIdx := h.runner.callIndex("gen-contigs-db", "G1")
	require.Equal(t, 0, genIdx)

	// taxonomy waits for its annotation
	assert.Less(t,
		h.runner.callIndex("run-hmms", "G1"),
		h.runner.callIndex("run-scg-taxonomy", "G1"),
	)
	assert.Less(t,
		h.runner.callIndex("scan-trnas", "G1"),
		h.runner.callIndex("run-trna-taxonomy", "G1"),
	)
}
