package pipeline

import (
	"strconv"
	"strings"
)

// StepDefinition is one named stage of the pipeline, bound to one
// external tool invocation per genome. The whole table is static:
// definitions are never mutated at runtime.
type StepDefinition struct {
	// Name uniquely identifies the step
	Name string

	// Prereqs are the names of steps that must be Done, for the
	// same genome, before this step may run
	Prereqs []string

	// Tool is the external binary the step delegates to. Overridable
	// per-tool through the config's tools map
	Tool string

	// Args is the argv template after the binary. Placeholders:
	// {id} genome ID, {assembly} input FASTA, {db} contigs database,
	// {threads} resolved thread count
	Args []string

	// MinThreads and MaxThreads bound the thread hint passed to the
	// tool. The hint is forwarded, not enforced
	MinThreads int
	MaxThreads int
}

// Threads clamps the configured thread hint into the step's range
func (s *StepDefinition) Threads(hint int) int {
	if hint < s.MinThreads {
		return s.MinThreads
	}
	if hint > s.MaxThreads {
		return s.MaxThreads
	}
	return hint
}

// Registry returns the annotation step table: contigs database
// generation, six independent annotations of the database, and two
// taxonomy assignments that each read one prior annotation's results.
func Registry() []StepDefinition {
	return []StepDefinition{
		{
			Name:       "gen-contigs-db",
			Tool:       "anvi-gen-contigs-database",
			Args:       []string{"-f", "{assembly}", "-o", "{db}", "-n", "{id}", "-T", "{threads}"},
			MinThreads: 1,
			MaxThreads: 8,
		},
		{
			Name:       "run-hmms",
			Prereqs:    []string{"gen-contigs-db"},
			Tool:       "anvi-run-hmms",
			Args:       []string{"-c", "{db}", "-T", "{threads}"},
			MinThreads: 1,
			MaxThreads: 16,
		},
		{
			Name:       "run-cazymes",
			Prereqs:    []string{"gen-contigs-db"},
			Tool:       "anvi-run-cazymes",
			Args:       []string{"-c", "{db}", "-T", "{threads}"},
			MinThreads: 1,
			MaxThreads: 16,
		},
		{
			Name:       "run-pfams",
			Prereqs:    []string{"gen-contigs-db"},
			Tool:       "anvi-run-pfams",
			Args:       []string{"-c", "{db}", "-T", "{threads}"},
			MinThreads: 1,
			MaxThreads: 16,
		},
		{
			Name:       "run-ncbi-cogs",
			Prereqs:    []string{"gen-contigs-db"},
			Tool:       "anvi-run-ncbi-cogs",
			Args:       []string{"-c", "{db}", "-T", "{threads}"},
			MinThreads: 1,
			MaxThreads: 16,
		},
		{
			Name:       "run-kegg-kofams",
			Prereqs:    []string{"gen-contigs-db"},
			Tool:       "anvi-run-kegg-kofams",
			Args:       []string{"-c", "{db}", "-T", "{threads}"},
			MinThreads: 1,
			MaxThreads: 16,
		},
		{
			Name:       "scan-trnas",
			Prereqs:    []string{"gen-contigs-db"},
			Tool:       "anvi-scan-trnas",
			Args:       []string{"-c", "{db}", "-T", "{threads}"},
			MinThreads: 1,
			MaxThreads: 8,
		},
		{
			Name:       "run-scg-taxonomy",
			Prereqs:    []string{"run-hmms"},
			Tool:       "anvi-run-scg-taxonomy",
			Args:       []string{"-c", "{db}", "-T", "{threads}"},
			MinThreads: 1,
			MaxThreads: 8,
		},
		{
			Name:       "run-trna-taxonomy",
			Prereqs:    []string{"scan-trnas"},
			Tool:       "anvi-run-trna-taxonomy",
			Args:       []string{"-c", "{db}", "-T", "{threads}"},
			MinThreads: 1,
			MaxThreads: 8,
		},
	}
}

// Select returns the steps named in the comma-separated list plus,
// transitively, every step they depend on, in registry order. An
// empty list selects everything.
func Select(steps []StepDefinition, names string) ([]StepDefinition, error) {
	trimmed := strings.Trim(names, " ,")
	if trimmed == "" {
		return steps, nil
	}

	byName := make(map[string]*StepDefinition, len(steps))
	for i := range steps {
		byName[steps[i].Name] = &steps[i]
	}

	wanted := make(map[string]bool)
	var include func(name string) error
	include = func(name string) error {
		step, ok := byName[name]
		if !ok {
			return configErrorf("unknown step %q", name)
		}
		if wanted[name] {
			return nil
		}
		wanted[name] = true
		for _, pre := range step.Prereqs {
			if err := include(pre); err != nil {
				return err
			}
		}
		return nil
	}

	for _, name := range strings.Split(trimmed, ",") {
		if err := include(strings.TrimSpace(name)); err != nil {
			return nil, err
		}
	}

	var selected []StepDefinition
	for _, step := range steps {
		if wanted[step.Name] {
			selected = append(selected, step)
		}
	}
	return selected, nil
}

// expand substitutes the invocation placeholders in one argv template
// entry
func expand(arg, unit, assembly, db string, threads int) string {
	r := strings.NewReplacer(
		"{id}", unit,
		"{assembly}", assembly,
		"{db}", db,
		"{threads}", strconv.Itoa(threads),
	)
	return r.Replace(arg)
}
