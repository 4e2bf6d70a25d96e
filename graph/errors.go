package graph

import (
	"fmt"
	"strings"
)

// UnknownNodeError is returned when a node is referenced that the graph
// does not declare.
type UnknownNodeError struct {
	Node string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("unknown node %q", e.Node)
}

// DuplicateNodeError is returned when a node is declared twice.
type DuplicateNodeError struct {
	Node string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("node %q declared more than once", e.Node)
}

// CycleError is returned when the edges do not form a DAG. Nodes lists
// the nodes that could not be placed in a topological order.
type CycleError struct {
	Nodes []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("graph has a cycle through {%s}", strings.Join(e.Nodes, ", "))
}
