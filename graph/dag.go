// Package graph implements the directed acyclic graphs underlying causal
// models: parent and ancestor queries, a stable topological order, and
// d-separation tests.
package graph

import (
	"fmt"
	"strings"
)

// Edge is a directed edge From -> To (parent -> child).
type Edge struct {
	From, To string
}

func (e Edge) String() string {
	return e.From + "->" + e.To
}

// DAG is an immutable directed acyclic graph over named nodes.
// Nodes keep their declaration order, which is used to break ties
// in the topological order.
type DAG struct {
	nodes    []string
	index    map[string]int
	parents  [][]int
	children [][]int
	order    []string
}

// New validates and builds a DAG. Edges repeated more than once are
// collapsed into one.
func New(nodes []string, edges []Edge) (*DAG, error) {
	g := &DAG{
		nodes:    append([]string(nil), nodes...),
		index:    make(map[string]int, len(nodes)),
		parents:  make([][]int, len(nodes)),
		children: make([][]int, len(nodes)),
	}

	for i, n := range nodes {
		if _, ok := g.index[n]; ok {
			return nil, &DuplicateNodeError{Node: n}
		}
		g.index[n] = i
	}

	seen := make(map[Edge]struct{}, len(edges))
	for _, e := range edges {
		from, ok := g.index[e.From]
		if !ok {
			return nil, &UnknownNodeError{Node: e.From}
		}

		to, ok := g.index[e.To]
		if !ok {
			return nil, &UnknownNodeError{Node: e.To}
		}

		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}

		g.parents[to] = append(g.parents[to], from)
		g.children[from] = append(g.children[from], to)
	}

	order, err := g.topologicalSort()
	if err != nil {
		return nil, err
	}

	g.order = order
	return g, nil
}

// topologicalSort is Kahn's algorithm. Among the nodes that are ready,
// the one declared first is emitted first.
func (g *DAG) topologicalSort() ([]string, error) {
	inDegree := make([]int, len(g.nodes))
	for i := range g.nodes {
		inDegree[i] = len(g.parents[i])
	}

	order := make([]string, 0, len(g.nodes))
	done := make([]bool, len(g.nodes))
	for len(order) < len(g.nodes) {
		next := -1
		for i := range g.nodes {
			if !done[i] && inDegree[i] == 0 {
				next = i
				break
			}
		}

		if next < 0 {
			var remaining []string
			for i, n := range g.nodes {
				if !done[i] {
					remaining = append(remaining, n)
				}
			}
			return nil, &CycleError{Nodes: remaining}
		}

		done[next] = true
		order = append(order, g.nodes[next])
		for _, c := range g.children[next] {
			inDegree[c]--
		}
	}

	return order, nil
}

// Nodes returns the nodes in declaration order.
func (g *DAG) Nodes() []string {
	return append([]string(nil), g.nodes...)
}

// Edges returns every edge, grouped by child in declaration order.
func (g *DAG) Edges() []Edge {
	var result []Edge
	for to, parents := range g.parents {
		for _, from := range parents {
			result = append(result, Edge{From: g.nodes[from], To: g.nodes[to]})
		}
	}
	return result
}

// Has reports whether node is declared in g.
func (g *DAG) Has(node string) bool {
	_, ok := g.index[node]
	return ok
}

// TopologicalOrder returns a linearization in which every node follows
// all of its parents.
func (g *DAG) TopologicalOrder() []string {
	return append([]string(nil), g.order...)
}

// Parents returns the direct predecessors of node in the order their
// edges were declared.
func (g *DAG) Parents(node string) ([]string, error) {
	i, ok := g.index[node]
	if !ok {
		return nil, &UnknownNodeError{Node: node}
	}

	return g.names(g.parents[i]), nil
}

// Children returns the direct successors of node.
func (g *DAG) Children(node string) ([]string, error) {
	i, ok := g.index[node]
	if !ok {
		return nil, &UnknownNodeError{Node: node}
	}

	return g.names(g.children[i]), nil
}

// Ancestors returns every transitive predecessor of node, not including
// node itself.
func (g *DAG) Ancestors(node string) (Set, error) {
	i, ok := g.index[node]
	if !ok {
		return nil, &UnknownNodeError{Node: node}
	}

	return g.closure(i, g.parents), nil
}

// Descendants returns every transitive successor of node, not including
// node itself.
func (g *DAG) Descendants(node string) (Set, error) {
	i, ok := g.index[node]
	if !ok {
		return nil, &UnknownNodeError{Node: node}
	}

	return g.closure(i, g.children), nil
}

// closure walks adj breadth-first from start.
func (g *DAG) closure(start int, adj [][]int) Set {
	result := make(Set)
	visited := make([]bool, len(g.nodes))
	queue := append([]int(nil), adj[start]...)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if visited[n] {
			continue
		}

		visited[n] = true
		result.Add(g.nodes[n])
		queue = append(queue, adj[n]...)
	}

	return result
}

func (g *DAG) names(idx []int) []string {
	result := make([]string, len(idx))
	for i, j := range idx {
		result[i] = g.nodes[j]
	}
	return result
}

func (g *DAG) String() string {
	edges := g.Edges()
	parts := make([]string, len(edges))
	for i, e := range edges {
		parts[i] = e.String()
	}
	return fmt.Sprintf("DAG(nodes=[%s], edges=[%s])",
		strings.Join(g.nodes, ", "), strings.Join(parts, ", "))
}
