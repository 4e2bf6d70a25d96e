package graph

// IsDSeparated reports whether x and y are d-separated given z.
//
// Every simple path between x and y in the undirected skeleton is
// enumerated. An interior node on a path is a collider when both of its
// path edges point into it; a collider blocks the path unless it or one
// of its descendants is in z. Any other interior node (chain or fork)
// blocks the path when it is in z. x and y are d-separated iff every
// path is blocked. A path with no interior node cannot be blocked, and a
// node is never d-separated from itself.
func (g *DAG) IsDSeparated(x, y string, z []string) (bool, error) {
	xi, ok := g.index[x]
	if !ok {
		return false, &UnknownNodeError{Node: x}
	}

	yi, ok := g.index[y]
	if !ok {
		return false, &UnknownNodeError{Node: y}
	}

	given := make([]bool, len(g.nodes))
	for _, n := range z {
		i, ok := g.index[n]
		if !ok {
			return false, &UnknownNodeError{Node: n}
		}
		given[i] = true
	}
	givenSet := NewSet(z...)

	if xi == yi {
		return false, nil
	}

	// A collider is "open" if it or one of its descendants is given.
	open := make([]bool, len(g.nodes))
	for i := range g.nodes {
		open[i] = given[i] || g.closure(i, g.children).Intersects(givenSet)
	}

	w := &pathWalker{
		g:       g,
		target:  yi,
		given:   given,
		open:    open,
		onPath:  make([]bool, len(g.nodes)),
		path:    []int{xi},
		blocked: true,
	}
	w.onPath[xi] = true
	w.walk(xi)
	return w.blocked, nil
}

type pathWalker struct {
	g       *DAG
	target  int
	given   []bool
	open    []bool
	onPath  []bool
	path    []int
	blocked bool
}

// walk extends the current path through every undirected neighbor of n.
// It stops as soon as one unblocked path is found.
func (w *pathWalker) walk(n int) {
	for _, next := range w.neighbors(n) {
		if !w.blocked {
			return
		}

		if w.onPath[next] {
			continue
		}

		w.path = append(w.path, next)
		if next == w.target {
			if !w.isBlocked(w.path) {
				w.blocked = false
			}
		} else {
			w.onPath[next] = true
			w.walk(next)
			w.onPath[next] = false
		}
		w.path = w.path[:len(w.path)-1]
	}
}

func (w *pathWalker) neighbors(n int) []int {
	result := make([]int, 0, len(w.g.parents[n])+len(w.g.children[n]))
	result = append(result, w.g.parents[n]...)
	return append(result, w.g.children[n]...)
}

func (w *pathWalker) isBlocked(path []int) bool {
	if len(path) < 3 {
		return false
	}

	for i := 1; i < len(path)-1; i++ {
		prev, mid, next := path[i-1], path[i], path[i+1]
		if w.g.hasEdge(prev, mid) && w.g.hasEdge(next, mid) {
			if !w.open[mid] {
				return true
			}
		} else if w.given[mid] {
			return true
		}
	}

	return false
}

func (g *DAG) hasEdge(from, to int) bool {
	for _, p := range g.parents[to] {
		if p == from {
			return true
		}
	}
	return false
}
