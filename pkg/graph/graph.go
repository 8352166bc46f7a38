// Package graph indexes an undirected edge list: every distinct node
// identifier gets a dense zero-based index and the adjacency relation is
// stored per index.
package graph

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownNode is returned by New when an edge references a node that is
// not part of the declared node set.
var ErrUnknownNode = errors.New("unknown node reference")

// Edge is an unordered pair of node identifiers.
type Edge[N cmp.Ordered] struct {
	Source N `json:"source"`
	Target N `json:"target"`
}

// Graph is an immutable, deterministically indexed undirected graph.
// Index i always refers to the i-th smallest identifier.
type Graph[N cmp.Ordered] struct {
	nodes     []N
	index     map[N]int
	neighbors [][]int
	edges     int
}

// FromEdges builds a graph whose node set is inferred from the edges.
func FromEdges[N cmp.Ordered](edges []Edge[N]) *Graph[N] {
	nodes := make([]N, 0, 2*len(edges))
	for _, e := range edges {
		nodes = append(nodes, e.Source, e.Target)
	}
	g, _ := build(nodes, edges)
	return g
}

// New builds a graph over a declared node set. Nodes without edges are kept
// as isolated nodes; an edge endpoint outside the set is an error.
func New[N cmp.Ordered](nodes []N, edges []Edge[N]) (*Graph[N], error) {
	return build(slices.Clone(nodes), edges)
}

func build[N cmp.Ordered](nodes []N, edges []Edge[N]) (*Graph[N], error) {
	slices.Sort(nodes)
	nodes = slices.Compact(nodes)

	g := &Graph[N]{
		nodes:     nodes,
		index:     make(map[N]int, len(nodes)),
		neighbors: make([][]int, len(nodes)),
	}
	for i, n := range nodes {
		g.index[n] = i
	}

	for _, e := range edges {
		a, ok := g.index[e.Source]
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnknownNode, e.Source)
		}
		b, ok := g.index[e.Target]
		if !ok {
			return nil, fmt.Errorf("%w: %v", ErrUnknownNode, e.Target)
		}
		g.neighbors[a] = append(g.neighbors[a], b)
		if a != b {
			g.neighbors[b] = append(g.neighbors[b], a)
		}
	}

	// Duplicate edges collapse here; a self-loop is kept once
	degrees := 0
	for i := range g.neighbors {
		slices.Sort(g.neighbors[i])
		g.neighbors[i] = slices.Compact(g.neighbors[i])
		degrees += len(g.neighbors[i])
		for _, j := range g.neighbors[i] {
			if j == i {
				// counted once, not as two endpoints
				degrees++
			}
		}
	}
	g.edges = degrees / 2
	return g, nil
}

// Len returns the number of nodes.
func (g *Graph[N]) Len() int { return len(g.nodes) }

// EdgeCount returns the number of distinct undirected edges, self-loops
// included.
func (g *Graph[N]) EdgeCount() int { return g.edges }

// Nodes returns the identifiers in index order.
func (g *Graph[N]) Nodes() []N { return slices.Clone(g.nodes) }

// Node returns the identifier stored at index i.
func (g *Graph[N]) Node(i int) N { return g.nodes[i] }

// Index returns the index assigned to n.
func (g *Graph[N]) Index(n N) (int, bool) {
	i, ok := g.index[n]
	return i, ok
}

// Neighbors returns the sorted neighbour indices of node i. The slice is
// shared with the graph and must not be modified.
func (g *Graph[N]) Neighbors(i int) []int { return g.neighbors[i] }

// Degree returns the number of distinct neighbours of node i.
func (g *Graph[N]) Degree(i int) int { return len(g.neighbors[i]) }

// NeighborsOf returns the identifiers adjacent to n.
func (g *Graph[N]) NeighborsOf(n N) ([]N, error) {
	i, ok := g.index[n]
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownNode, n)
	}
	out := make([]N, 0, len(g.neighbors[i]))
	for _, j := range g.neighbors[i] {
		out = append(out, g.nodes[j])
	}
	return out, nil
}
