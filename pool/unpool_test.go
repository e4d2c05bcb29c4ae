// Copyright 2026 The GIUNet Authors. SPDX-License-Identifier: Apache-2.0

package pool_test

import (
	"testing"

	"github.com/aramiracle/GIUNet-0/pool"
	_ "github.com/gomlx/gomlx/backends/default"
	"github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/graph/graphtest"
)

func TestUnpoolSimple(t *testing.T) {
	graphtest.RunTestGraphFn(t, "UnpoolSimple scatters back, zeros elsewhere",
		func(g *graph.Graph) (inputs, outputs []*graph.Node) {
			pooled := graph.Const(g, [][]float32{{1, 2}, {3, 4}})
			indices := graph.Const(g, []int32{3, 1})
			return nil, []*graph.Node{pool.UnpoolSimple(pooled, indices, 5)}
		}, []any{
			[][]float32{
				{0, 0},
				{3, 4},
				{0, 0},
				{1, 2},
				{0, 0},
			},
		}, -1)
}

func TestUnpoolSimpleRoundTrip(t *testing.T) {
	// Pool (gather) then unpool (scatter): kept rows come back exactly,
	// dropped rows are zero.
	graphtest.RunTestGraphFn(t, "UnpoolSimple round-trip",
		func(g *graph.Graph) (inputs, outputs []*graph.Node) {
			features := graph.Const(g, [][]float32{{10, 1}, {20, 2}, {30, 3}, {40, 4}})
			indices := graph.Const(g, []int32{2, 0})
			gathered := graph.Gather(features, graph.ExpandDims(indices, -1))
			return nil, []*graph.Node{pool.UnpoolSimple(gathered, indices, 4)}
		}, []any{
			[][]float32{
				{10, 1},
				{0, 0},
				{30, 3},
				{0, 0},
			},
		}, -1)
}

func TestUnpoolStructuralSynthesis(t *testing.T) {
	// Path 0-1-2-3, keeping nodes 0 and 2 with pooled rows [2,2] and [4,4]
	// (mean [3,3]). Dropped node 1 neighbors both endpoints:
	// w = (adj[1,0]*0 + adj[1,2]*2) / rowSum(1) = 2/2 = 1, giving [3,3].
	// Dropped node 3 neighbors only node 2: w = 2/1 = 2, giving [6,6].
	adjacency := [][]float32{
		{0, 1, 0, 0},
		{1, 0, 1, 0},
		{0, 1, 0, 1},
		{0, 0, 1, 0},
	}
	graphtest.RunTestGraphFn(t, "Unpool synthesizes dropped rows",
		func(g *graph.Graph) (inputs, outputs []*graph.Node) {
			adj := graph.Const(g, adjacency)
			pooled := graph.Const(g, [][]float32{{2, 2}, {4, 4}})
			indices := graph.Const(g, []int32{0, 2})
			return nil, []*graph.Node{pool.Unpool(adj, pooled, indices)}
		}, []any{
			[][]float32{
				{2, 2},
				{3, 3},
				{4, 4},
				{6, 6},
			},
		}, 1e-4)
}

func TestUnpoolKeptRowsExact(t *testing.T) {
	// Kept rows are taken from the scatter, not the synthesis: they must
	// not be affected by the adjacency weighting.
	adjacency := [][]float32{
		{0, 1, 1},
		{1, 0, 1},
		{1, 1, 0},
	}
	graphtest.RunTestGraphFn(t, "Unpool keeps selected rows exact",
		func(g *graph.Graph) (inputs, outputs []*graph.Node) {
			adj := graph.Const(g, adjacency)
			pooled := graph.Const(g, [][]float32{{-1, 5}, {7, 0}})
			indices := graph.Const(g, []int32{2, 1})
			out := pool.Unpool(adj, pooled, indices)
			kept := graph.Gather(out, graph.Const(g, [][]int32{{2}, {1}}))
			return nil, []*graph.Node{kept}
		}, []any{
			[][]float32{{-1, 5}, {7, 0}},
		}, 1e-4)
}
