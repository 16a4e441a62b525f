package pipeline

import (
	"fmt"

	"github.com/gammazero/toposort"

	"github.com/wonny/twitstock/internal/task"
)

// Node is one distinct task in the graph
type Node struct {
	Task       task.Task
	Deps       []task.ID
	Dependents []task.ID
}

// Graph is the deduplicated dependency closure of a set of roots
type Graph struct {
	Nodes map[task.ID]*Node
	Roots []task.ID
	// Order lists every node after all of its dependencies
	Order []task.ID
}

// Build resolves Deps() recursively from roots.
// Tasks are deduplicated by ID; a cycle anywhere in the closure is a GraphError wrapping ErrCycle.
func Build(roots ...task.Task) (*Graph, error) {
	if len(roots) == 0 {
		return nil, invalidf("no root tasks")
	}

	g := &Graph{Nodes: make(map[task.ID]*Node)}

	const (
		visiting = 1
		visited  = 2
	)
	state := make(map[task.ID]int)
	var stack []string

	var visit func(t task.Task) error
	visit = func(t task.Task) error {
		if t == nil {
			return invalidf("nil task under %v", stack)
		}
		id := t.ID()
		switch state[id] {
		case visited:
			return nil
		case visiting:
			return cycleError(append(cyclePath(stack, id.String()), id.String()))
		}

		state[id] = visiting
		stack = append(stack, id.String())

		node := &Node{Task: t}
		seen := make(map[task.ID]bool)
		for _, dep := range t.Deps().All() {
			if err := visit(dep); err != nil {
				return err
			}
			depID := dep.ID()
			if seen[depID] {
				continue
			}
			seen[depID] = true
			node.Deps = append(node.Deps, depID)
		}

		stack = stack[:len(stack)-1]
		state[id] = visited
		g.Nodes[id] = node
		return nil
	}

	rootSeen := make(map[task.ID]bool)
	for _, r := range roots {
		if err := visit(r); err != nil {
			return nil, err
		}
		if !rootSeen[r.ID()] {
			rootSeen[r.ID()] = true
			g.Roots = append(g.Roots, r.ID())
		}
	}

	for id, n := range g.Nodes {
		for _, dep := range n.Deps {
			g.Nodes[dep].Dependents = append(g.Nodes[dep].Dependents, id)
		}
	}

	order, err := topoOrder(g)
	if err != nil {
		return nil, err
	}
	g.Order = order
	return g, nil
}

// cyclePath trims the DFS stack to the part that loops back to id
func cyclePath(stack []string, id string) []string {
	for i, s := range stack {
		if s == id {
			return append([]string(nil), stack[i:]...)
		}
	}
	return append([]string(nil), stack...)
}

// topoOrder sorts the graph with gammazero/toposort
func topoOrder(g *Graph) ([]task.ID, error) {
	var edges []toposort.Edge
	for id, n := range g.Nodes {
		if len(n.Deps) == 0 {
			// 의존성 없는 노드도 결과에 포함되도록 nil 엣지 추가
			edges = append(edges, toposort.Edge{nil, id})
			continue
		}
		for _, dep := range n.Deps {
			edges = append(edges, toposort.Edge{dep, id})
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, &GraphError{Kind: ErrCycle, Msg: err.Error()}
	}

	order := make([]task.ID, 0, len(g.Nodes))
	for _, v := range sorted {
		if v == nil {
			continue
		}
		order = append(order, v.(task.ID))
	}
	if len(order) != len(g.Nodes) {
		return nil, invalidf("topological sort kept %d of %d tasks", len(order), len(g.Nodes))
	}
	return order, nil
}

// Closure returns id and everything it transitively depends on, in Order
func (g *Graph) Closure(id task.ID) []task.ID {
	want := make(map[task.ID]bool)
	var walk func(task.ID)
	walk = func(cur task.ID) {
		if want[cur] {
			return
		}
		want[cur] = true
		for _, d := range g.Nodes[cur].Deps {
			walk(d)
		}
	}
	walk(id)

	var out []task.ID
	for _, o := range g.Order {
		if want[o] {
			out = append(out, o)
		}
	}
	return out
}

// String renders one line per node: id <- deps
func (g *Graph) String() string {
	s := ""
	for _, id := range g.Order {
		s += fmt.Sprintf("%s <- %v\n", id, g.Nodes[id].Deps)
	}
	return s
}
