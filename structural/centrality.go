// Copyright 2026 The GIUNet Authors. SPDX-License-Identifier: Apache-2.0

package structural

import (
	"math"

	"github.com/aramiracle/GIUNet-0/graphs"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/mat"
)

// Metric is one of the supported per-node centrality statistics. The set is a
// fixed enumeration: the extractor iterates a configured metric list, not a
// dynamically provided function list.
type Metric int

const (
	// Closeness is (r-1)/Σd scaled by (r-1)/(n-1), with r the number of
	// reachable nodes; 0 for isolated nodes.
	Closeness Metric = iota
	// Degree is the undirected degree divided by n-1.
	Degree
	// Betweenness is shortest-path betweenness (Brandes), scaled by
	// 1/((n-1)(n-2)).
	Betweenness
	// Load is load-based betweenness: unit flow from every source split
	// equally among shortest-path predecessors, scaled by 1/((n-1)(n-2)).
	Load
	// Subgraph is subgraph centrality, the diagonal of exp(A) computed
	// through the eigen decomposition of the undirected adjacency.
	Subgraph
	// Harmonic is the sum of reciprocal distances to all other nodes;
	// unreachable pairs contribute 0.
	Harmonic

	metricCount
)

// AllMetrics is the full six-column battery, in its fixed column order.
var AllMetrics = []Metric{Closeness, Degree, Betweenness, Load, Subgraph, Harmonic}

// FastMetrics is the four-column battery that skips the two quadratic-memory
// metrics (Load, Subgraph).
var FastMetrics = []Metric{Closeness, Degree, Betweenness, Harmonic}

// String implements fmt.Stringer.
func (m Metric) String() string {
	switch m {
	case Closeness:
		return "closeness"
	case Degree:
		return "degree"
	case Betweenness:
		return "betweenness"
	case Load:
		return "load"
	case Subgraph:
		return "subgraph"
	case Harmonic:
		return "harmonic"
	}
	return "invalid"
}

// Centralities computes the configured metrics over the undirected simple
// view of g and assembles them into a [NumNodes, len(metrics)] matrix, one
// column per metric in the given order.
//
// Metrics are computed in parallel, one worker each: every worker only reads
// the shared immutable graph and writes its own column, so no lock is needed.
// Results are keyed by metric position, not arrival order, which keeps the
// output deterministic. A worker panic surfaces as ErrWorkerFailure and
// aborts the whole extraction; there is no partial-result fallback.
func Centralities(g *graphs.Graph, metrics []Metric, dtype dtypes.DType) (*tensors.Tensor, error) {
	n := g.NumNodes
	if n == 0 {
		return nil, errors.Wrap(ErrDegenerateGraph, "centralities of empty graph")
	}
	if len(metrics) == 0 {
		return nil, errors.New("structural.Centralities: no metrics configured")
	}
	adj := newAdjacencyList(g)
	columns := make([][]float64, len(metrics))

	var group errgroup.Group
	for pos, metric := range metrics {
		group.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = errors.Wrapf(ErrWorkerFailure, "%s centrality panicked: %v", metric, r)
				}
			}()
			columns[pos], err = metric.compute(g, adj)
			if err != nil {
				return errors.Wrapf(err, "%s centrality", metric)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	flat := make([]float64, n*len(metrics))
	for pos, column := range columns {
		for i, v := range column {
			flat[i*len(metrics)+pos] = v
		}
	}
	return matrixTensor(flat, n, len(metrics), dtype)
}

func (m Metric) compute(g *graphs.Graph, adj adjacencyList) ([]float64, error) {
	switch m {
	case Closeness:
		return closenessCentrality(adj), nil
	case Degree:
		return degreeCentrality(g), nil
	case Betweenness:
		return betweennessCentrality(g), nil
	case Load:
		return loadCentrality(adj), nil
	case Subgraph:
		return subgraphCentrality(adj)
	case Harmonic:
		return harmonicCentrality(adj), nil
	}
	return nil, errors.Errorf("structural: unknown centrality metric %d", m)
}

func degreeCentrality(g *graphs.Graph) []float64 {
	n := g.NumNodes
	out := make([]float64, n)
	if n <= 1 {
		return out
	}
	for i, d := range g.Degrees() {
		out[i] = float64(d) / float64(n-1)
	}
	return out
}

func closenessCentrality(adj adjacencyList) []float64 {
	n := len(adj)
	out := make([]float64, n)
	if n <= 1 {
		return out
	}
	for v := 0; v < n; v++ {
		total, reachable := 0, 0
		for _, d := range adj.bfsDistances(int32(v)) {
			if d > 0 {
				total += d
				reachable++
			}
		}
		if total > 0 {
			// Wasserman-Faust scaling: closeness within the component,
			// down-weighted by the component's share of the graph.
			out[v] = float64(reachable) / float64(total) * float64(reachable) / float64(n-1)
		}
	}
	return out
}

func harmonicCentrality(adj adjacencyList) []float64 {
	n := len(adj)
	out := make([]float64, n)
	for v := 0; v < n; v++ {
		var sum float64
		for _, d := range adj.bfsDistances(int32(v)) {
			if d > 0 {
				sum += 1 / float64(d)
			}
		}
		out[v] = sum
	}
	return out
}

func betweennessCentrality(g *graphs.Graph) []float64 {
	n := g.NumNodes
	out := make([]float64, n)
	if n <= 2 {
		return out
	}
	scale := 1 / (float64(n-1) * float64(n-2))
	for id, value := range network.Betweenness(g.Undirected()) {
		out[id] = value * scale
	}
	return out
}

// loadCentrality pushes one unit of flow from each source to every reachable
// node, splitting equally among shortest-path predecessors at each hop, and
// accumulates the flow carried by the interior nodes.
func loadCentrality(adj adjacencyList) []float64 {
	n := len(adj)
	out := make([]float64, n)
	if n <= 2 {
		return out
	}
	for source := int32(0); source < int32(n); source++ {
		_, preds, order := adj.bfsShortestPathDAG(source)
		carried := make([]float64, n)
		for i := range carried {
			carried[i] = 1
		}
		// Walk the shortest-path DAG from the fringe back to the source.
		for i := len(order) - 1; i > 0; i-- {
			v := order[i]
			share := carried[v] / float64(len(preds[v]))
			for _, p := range preds[v] {
				carried[p] += share
			}
		}
		for v := int32(0); v < int32(n); v++ {
			if v != source {
				out[v] += carried[v] - 1
			}
		}
	}
	scale := 1 / (float64(n-1) * float64(n-2))
	for i := range out {
		out[i] *= scale
	}
	return out
}

// subgraphCentrality is diag(exp(A)): with A = V diag(λ) Vᵀ it reduces to
// Σ_j V[i,j]² e^{λ_j}.
func subgraphCentrality(adj adjacencyList) ([]float64, error) {
	n := len(adj)
	sym := mat.NewSymDense(n, nil)
	for u, neighbors := range adj {
		for _, v := range neighbors {
			if int32(u) < v {
				sym.SetSym(u, int(v), 1)
			}
		}
	}
	var es mat.EigenSym
	if !es.Factorize(sym, true) {
		return nil, errors.New("adjacency eigen decomposition failed")
	}
	values := es.Values(nil)
	var vectors mat.Dense
	es.VectorsTo(&vectors)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			v := vectors.At(i, j)
			sum += v * v * math.Exp(values[j])
		}
		out[i] = sum
	}
	return out, nil
}
