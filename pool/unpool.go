// Copyright 2026 The GIUNet Authors. SPDX-License-Identifier: Apache-2.0

package pool

import (
	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gopjrt/dtypes"
)

// UnpoolSimple scatters pooled features [k, featureDim] back to their
// original rows in a [numNodes, featureDim] tensor. Rows whose nodes were
// dropped by the pooling stage come back as zeros. Indices are expected to be
// distinct, as produced by TopK.
func UnpoolSimple(pooled, indices *Node, numNodes int) *Node {
	if pooled.Rank() != 2 {
		Panicf("pool.UnpoolSimple: pooled must be rank-2, got %s", pooled.Shape())
	}
	if indices.Rank() != 1 || indices.Shape().Dimensions[0] != pooled.Shape().Dimensions[0] {
		Panicf("pool.UnpoolSimple: indices must be rank-1 with %d entries, got %s",
			pooled.Shape().Dimensions[0], indices.Shape())
	}
	if numNodes < pooled.Shape().Dimensions[0] {
		Panicf("pool.UnpoolSimple: cannot restore %d rows into %d nodes",
			pooled.Shape().Dimensions[0], numNodes)
	}
	featureDim := pooled.Shape().Dimensions[1]
	target := shapes.Make(pooled.DType(), numNodes, featureDim)
	return Scatter(ExpandDims(indices, -1), pooled, target, false, true)
}

// Unpool restores pooled features [k, featureDim] to the level's full node
// count and synthesizes values for the dropped nodes from the level adjacency
// [numNodes, numNodes]: each dropped node i gets the mean pooled feature row
// scaled by
//
//	w_i = Σ_a adjacency[i, indices[a]] · indices[a] / Σ_m adjacency[i, m]
//
// so that dropped nodes adjacent to kept neighborhoods come back with
// non-zero, connectivity-weighted features instead of plain zeros. Kept nodes
// keep their exact pooled values.
func Unpool(adjacency, pooled, indices *Node) *Node {
	if adjacency.Rank() != 2 || adjacency.Shape().Dimensions[0] != adjacency.Shape().Dimensions[1] {
		Panicf("pool.Unpool: adjacency must be square, got %s", adjacency.Shape())
	}
	numNodes := adjacency.Shape().Dimensions[0]
	g := adjacency.Graph()
	dtype := pooled.DType()
	k := pooled.Shape().Dimensions[0]
	featureDim := pooled.Shape().Dimensions[1]

	restored := UnpoolSimple(pooled, indices, numNodes)

	keptMask := Scatter(ExpandDims(indices, -1), Ones(g, shapes.Make(dtype, k, 1)),
		shapes.Make(dtype, numNodes, 1), false, true)

	// adjacencyToKept[a, i] = adjacency[i, indices[a]].
	adjacencyToKept := Gather(Transpose(adjacency, 0, 1), ExpandDims(indices, -1))
	indexValues := ExpandDims(ConvertDType(indices, dtype), -1)
	weighted := MatMul(Transpose(adjacencyToKept, 0, 1), indexValues)
	rowTotals := ReduceAndKeep(adjacency, ReduceSum, -1)
	weight := Div(weighted, AddScalar(rowTotals, normalizationEpsilon))

	meanPooled := ExpandDims(ReduceMean(pooled, 0), 0)
	synthesized := Mul(weight, meanPooled)

	kept := BroadcastToDims(ConvertDType(keptMask, dtypes.Bool), numNodes, featureDim)
	return Where(kept, restored, synthesized)
}
