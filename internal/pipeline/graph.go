package pipeline

import (
	"sync/atomic"
)

// State is the lifecycle position of one TaskNode.
type State int32

const (
	// Pending means at least one prerequisite is not Done
	Pending State = iota

	// Ready means every prerequisite is Done and the node is
	// eligible for dispatch
	Ready

	// Running means the external command was dispatched and its
	// sentinel has not been observed yet
	Running

	// Done is terminal: the sentinel exists
	Done

	// Failed is terminal: the command exited non-zero or crashed
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Node is the runtime unit of work: one step applied to one genome.
// Its state is re-derived from the sentinel files on every run, never
// persisted separately.
type Node struct {
	// Unit is the genome ID
	Unit string

	// Step is the shared, immutable step definition
	Step *StepDefinition

	// Prereqs are this node's prerequisite nodes, always for the
	// same genome
	Prereqs []*Node

	// Dependents are the nodes waiting on this one
	Dependents []*Node

	// Err is set when the node Failed
	Err error

	state   atomic.Int32
	waiting atomic.Int32 // prerequisites not yet Done
}

// State returns the node's current state.
func (n *Node) State() State {
	return State(n.state.Load())
}

func (n *Node) setState(s State) {
	n.state.Store(int32(s))
}

// Graph is the full bipartite (genome x step) task graph.
type Graph struct {
	// Units are the genome IDs, de-duplicated, input order kept
	Units []string

	// Steps is the validated step table
	Steps []StepDefinition

	// Nodes holds every node, grouped by genome in step order
	Nodes []*Node
}

// Node returns the node for a (genome, step) pair, or nil.
func (g *Graph) Node(unit, step string) *Node {
	for _, n := range g.Nodes {
		if n.Unit == unit && n.Step.Name == step {
			return n
		}
	}
	return nil
}

// Build materializes the task graph: exactly one node per
// (genome, step) pair, with dependency edges only between steps of the
// same genome. Pure construction, the filesystem is never touched.
// Returns a ConfigError for a duplicate step name, an undefined
// prerequisite or a dependency cycle.
func Build(units []string, steps []StepDefinition) (*Graph, error) {
	if err := validateSteps(steps); err != nil {
		return nil, err
	}
	if len(units) == 0 {
		return nil, configErrorf("no work units to build a graph for")
	}

	g := &Graph{
		Units: units,
		Steps: steps,
		Nodes: make([]*Node, 0, len(units)*len(steps)),
	}

	for _, unit := range units {
		byStep := make(map[string]*Node, len(steps))

		for i := range steps {
			step := &steps[i]
			node := &Node{
				Unit: unit,
				Step: step,
			}
			byStep[step.Name] = node
			g.Nodes = append(g.Nodes, node)
		}

		// link prerequisite edges within this genome
		for _, node := range byStep {
			for _, pre := range node.Step.Prereqs {
				preNode := byStep[pre]
				node.Prereqs = append(node.Prereqs, preNode)
				preNode.Dependents = append(preNode.Dependents, node)
			}
			node.waiting.Store(int32(len(node.Prereqs)))
		}
	}

	return g, nil
}

// validateSteps rejects duplicate names, undefined prerequisites and
// cycles before any node is created
func validateSteps(steps []StepDefinition) error {
	if len(steps) == 0 {
		return configErrorf("empty step registry")
	}

	byName := make(map[string]*StepDefinition, len(steps))
	for i := range steps {
		name := steps[i].Name
		if name == "" {
			return configErrorf("step %d has no name", i)
		}
		if _, seen := byName[name]; seen {
			return configErrorf("duplicate step name %q", name)
		}
		byName[name] = &steps[i]
	}

	for _, step := range steps {
		for _, pre := range step.Prereqs {
			if _, ok := byName[pre]; !ok {
				return configErrorf("step %q requires undefined step %q", step.Name, pre)
			}
		}
	}

	// depth-first search with a recursion stack to find cycles
	permanent := make(map[string]bool)
	onStack := make(map[string]bool)

	var visit func(name string) error
	visit = func(name string) error {
		if permanent[name] {
			return nil
		}
		if onStack[name] {
			return configErrorf("dependency cycle involving step %q", name)
		}

		onStack[name] = true
		for _, pre := range byName[name].Prereqs {
			if err := visit(pre); err != nil {
				return err
			}
		}
		delete(onStack, name)
		permanent[name] = true

		return nil
	}

	for _, step := range steps {
		if err := visit(step.Name); err != nil {
			return err
		}
	}

	return nil
}
