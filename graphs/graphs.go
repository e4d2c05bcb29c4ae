// Copyright 2026 The GIUNet Authors. SPDX-License-Identifier: Apache-2.0

// Package graphs converts edge lists into the explicit graph representations
// used by the pooling layers: a dense adjacency matrix (as a tensor, for the
// reachability math inside computation graphs) and an undirected simple-graph
// view (for the structural-metric computations on the host).
//
// A Graph is immutable once built: every pooling stage builds a fresh Graph
// from its current edge list, it is never mutated in place.
package graphs

import (
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph/simple"
)

// ErrInvalidIndex is returned when an edge or selection index falls outside
// the valid node range [0, NumNodes).
var ErrInvalidIndex = errors.New("node index outside the valid range")

// Graph is an ordered node-index space [0, NumNodes) plus an edge set given
// as parallel source/target slices.
//
// Edges are stored exactly as given: the adjacency matrix is not symmetrized.
// Callers whose downstream math assumes an undirected graph (reachability
// coarsening, Laplacian symmetry) must provide each edge in both directions,
// or pass the graph through Symmetrized first. The Undirected view treats
// each stored arc as an undirected edge regardless.
type Graph struct {
	NumNodes         int
	Sources, Targets []int32
}

// New builds a Graph from an edge list. It fails with ErrInvalidIndex if any
// endpoint lies outside [0, numNodes), and if the source and target slices
// have mismatched lengths.
func New(numNodes int, sources, targets []int32) (*Graph, error) {
	if numNodes < 0 {
		return nil, errors.Errorf("graphs.New: numNodes must be non-negative, got %d", numNodes)
	}
	if len(sources) != len(targets) {
		return nil, errors.Errorf("graphs.New: %d sources but %d targets", len(sources), len(targets))
	}
	for i := range sources {
		if sources[i] < 0 || int(sources[i]) >= numNodes || targets[i] < 0 || int(targets[i]) >= numNodes {
			return nil, errors.Wrapf(ErrInvalidIndex,
				"graphs.New: edge #%d (%d->%d) with %d nodes", i, sources[i], targets[i], numNodes)
		}
	}
	return &Graph{NumNodes: numNodes, Sources: sources, Targets: targets}, nil
}

// NumEdges returns the number of stored arcs.
func (g *Graph) NumEdges() int { return len(g.Sources) }

// AdjacencyMatrix returns the dense [NumNodes, NumNodes] adjacency, with 1 at
// each stored (source, target) position. Only float dtypes are supported.
func (g *Graph) AdjacencyMatrix(dtype dtypes.DType) (*tensors.Tensor, error) {
	n := g.NumNodes
	switch dtype {
	case dtypes.Float32:
		flat := make([]float32, n*n)
		for i := range g.Sources {
			flat[int(g.Sources[i])*n+int(g.Targets[i])] = 1
		}
		return tensors.FromFlatDataAndDimensions(flat, n, n), nil
	case dtypes.Float64:
		flat := make([]float64, n*n)
		for i := range g.Sources {
			flat[int(g.Sources[i])*n+int(g.Targets[i])] = 1
		}
		return tensors.FromFlatDataAndDimensions(flat, n, n), nil
	}
	return nil, errors.Errorf("graphs.AdjacencyMatrix: unsupported dtype %s", dtype)
}

// EdgeTensors returns the source and target indices as Int32 tensors shaped
// [NumEdges], the form the convolution layers consume.
func (g *Graph) EdgeTensors() (sources, targets *tensors.Tensor) {
	if len(g.Sources) == 0 {
		// Zero-sized tensor axes are not supported by all backends; callers
		// must check NumEdges first.
		return nil, nil
	}
	return tensors.FromFlatDataAndDimensions(g.Sources, len(g.Sources)),
		tensors.FromFlatDataAndDimensions(g.Targets, len(g.Targets))
}

// Undirected returns the undirected simple-graph view used by the structural
// metrics: every node in [0, NumNodes) is present, every stored arc becomes
// an undirected edge, self-loops and duplicates are dropped.
func (g *Graph) Undirected() *simple.UndirectedGraph {
	ug := simple.NewUndirectedGraph()
	for i := 0; i < g.NumNodes; i++ {
		ug.AddNode(simple.Node(i))
	}
	for i := range g.Sources {
		u, v := int64(g.Sources[i]), int64(g.Targets[i])
		if u == v {
			continue
		}
		ug.SetEdge(simple.Edge{F: simple.Node(u), T: simple.Node(v)})
	}
	return ug
}

// Degrees returns the per-node degree of the undirected view.
func (g *Graph) Degrees() []int {
	degrees := make([]int, g.NumNodes)
	seen := make(map[[2]int32]bool, len(g.Sources))
	for i := range g.Sources {
		u, v := g.Sources[i], g.Targets[i]
		if u == v {
			continue
		}
		if u > v {
			u, v = v, u
		}
		key := [2]int32{u, v}
		if seen[key] {
			continue
		}
		seen[key] = true
		degrees[u]++
		degrees[v]++
	}
	return degrees
}

// Symmetrized returns a graph that contains every stored arc in both
// directions (deduplicated).
func (g *Graph) Symmetrized() *Graph {
	seen := make(map[[2]int32]bool, 2*len(g.Sources))
	sources := make([]int32, 0, 2*len(g.Sources))
	targets := make([]int32, 0, 2*len(g.Sources))
	add := func(u, v int32) {
		key := [2]int32{u, v}
		if seen[key] {
			return
		}
		seen[key] = true
		sources = append(sources, u)
		targets = append(targets, v)
	}
	for i := range g.Sources {
		add(g.Sources[i], g.Targets[i])
		add(g.Targets[i], g.Sources[i])
	}
	return &Graph{NumNodes: g.NumNodes, Sources: sources, Targets: targets}
}

// Induced returns the subgraph induced by selected: only edges with both
// endpoints selected survive, re-indexed to the position of their endpoints
// within the selection. Fails with ErrInvalidIndex if selected contains an
// index outside [0, NumNodes) or a duplicate.
func (g *Graph) Induced(selected []int32) (*Graph, error) {
	position := make(map[int32]int32, len(selected))
	for pos, node := range selected {
		if node < 0 || int(node) >= g.NumNodes {
			return nil, errors.Wrapf(ErrInvalidIndex,
				"graphs.Induced: selection #%d is %d with %d nodes", pos, node, g.NumNodes)
		}
		if _, dup := position[node]; dup {
			return nil, errors.Wrapf(ErrInvalidIndex, "graphs.Induced: duplicate selection of node %d", node)
		}
		position[node] = int32(pos)
	}
	var sources, targets []int32
	for i := range g.Sources {
		src, srcOk := position[g.Sources[i]]
		dst, dstOk := position[g.Targets[i]]
		if srcOk && dstOk {
			sources = append(sources, src)
			targets = append(targets, dst)
		}
	}
	return &Graph{NumNodes: len(selected), Sources: sources, Targets: targets}, nil
}
