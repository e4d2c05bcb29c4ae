// Copyright 2026 The GIUNet Authors. SPDX-License-Identifier: Apache-2.0

// Package pool implements learned top-k graph pooling and its mirrored
// unpooling as GoMLX graph functions.
//
// A pooling stage scores every node by combining its learned features with
// structural descriptors (see the structural package), keeps the top-scoring
// fraction, gates the surviving features by their scores, and derives a
// row-normalized 3-hop-reachability adjacency among the survivors. The
// matching unpooling stage scatters the pooled features back to their
// original positions, optionally synthesizing values for the dropped nodes
// from the adjacency.
//
// All functions here build symbolic computation graphs: shape violations
// panic at graph-building time, in the usual GoMLX style.
package pool

import (
	"math"

	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/layers"
	"github.com/gomlx/gopjrt/dtypes"
)

// normalizationEpsilon keeps row normalization finite on all-zero rows.
const normalizationEpsilon = 1e-8

// Scores combines learned node features [numNodes, featureDim] and structural
// descriptors [numNodes, structureDim] into a per-node importance score in
// (0, 1), shaped [numNodes].
//
// Three learned projections are involved: features (after dropout, when
// dropoutRate > 0 and the context is in training mode) and descriptors are
// each projected to a scalar, and the pair is projected once more before the
// sigmoid. All of them train end-to-end with the rest of the network.
func Scores(ctx *context.Context, features, structure *Node, dropoutRate float64) *Node {
	if features.Rank() != 2 || structure.Rank() != 2 {
		Panicf("pool.Scores: features and structure must be rank-2, got %s and %s",
			features.Shape(), structure.Shape())
	}
	if features.Shape().Dimensions[0] != structure.Shape().Dimensions[0] {
		Panicf("pool.Scores: features have %d rows but structure has %d",
			features.Shape().Dimensions[0], structure.Shape().Dimensions[0])
	}
	z := features
	if dropoutRate > 0 {
		z = layers.DropoutStatic(ctx.In("dropout"), z, dropoutRate)
	}
	featureWeight := layers.DenseWithBias(ctx.In("feature_proj"), z, 1)
	structureWeight := layers.DenseWithBias(ctx.In("structure_proj"), structure, 1)
	combined := Concatenate([]*Node{featureWeight, structureWeight}, -1)
	combined = layers.DenseWithBias(ctx.In("combine_proj"), combined, 1)
	return Sigmoid(Squeeze(combined, -1))
}

// NumKept returns the pooled node count for a ratio over numNodes:
// max(2, round(ratio*numNodes)).
func NumKept(ratio float64, numNodes int) int {
	k := int(math.Round(ratio * float64(numNodes)))
	if k < 2 {
		k = 2
	}
	return k
}

// TopK keeps the k = max(2, round(ratio*numNodes)) highest-scoring nodes.
//
// It returns:
//   - coarsened: the [k, k] row-normalized boolean 3-hop-reachability
//     adjacency among the kept nodes, derived from the full adjacency. Using
//     reachability instead of the raw adjacency keeps survivors connected
//     even when the nodes between them were pruned.
//   - pooled: the [k, featureDim] features of the kept nodes, each row gated
//     by its own score so that gradients flow through the selection emphasis.
//   - indices: the kept node indices, Int32 shaped [k], in descending score
//     order. Equal scores resolve to the lowest original index, so the
//     selection is deterministic and reproducible.
func TopK(scores, features, adjacency *Node, ratio float64) (coarsened, pooled, indices *Node) {
	if scores.Rank() != 1 {
		Panicf("pool.TopK: scores must be rank-1, got %s", scores.Shape())
	}
	numNodes := scores.Shape().Dimensions[0]
	if features.Rank() != 2 || features.Shape().Dimensions[0] != numNodes {
		Panicf("pool.TopK: features must be [%d, featureDim], got %s", numNodes, features.Shape())
	}
	if adjacency.Rank() != 2 || adjacency.Shape().Dimensions[0] != numNodes ||
		adjacency.Shape().Dimensions[1] != numNodes {
		Panicf("pool.TopK: adjacency must be [%d, %d], got %s", numNodes, numNodes, adjacency.Shape())
	}
	if ratio <= 0 || ratio > 1 {
		Panicf("pool.TopK: ratio must be in (0, 1], got %g", ratio)
	}
	k := NumKept(ratio, numNodes)
	if k > numNodes {
		Panicf("pool.TopK: cannot keep %d of %d nodes", k, numNodes)
	}

	values, indices := topKWithIndices(scores, k)
	pooled = Mul(Gather(features, ExpandDims(indices, -1)), ExpandDims(values, -1))

	reachable := booleanThreeHop(adjacency)
	coarsened = NormalizeRows(inducedSquare(reachable, indices))
	return coarsened, pooled, indices
}

// topKWithIndices selects the k largest entries of a rank-1 tensor, one
// ArgMax at a time: values come out in descending order and ties go to the
// lowest index on every backend.
func topKWithIndices(x *Node, k int) (values, indices *Node) {
	g := x.Graph()
	dtype := x.DType()
	n := x.Shape().Dimensions[0]
	if k <= 0 || k > n {
		Panicf("pool.topKWithIndices: k=%d with %d entries", k, n)
	}
	working := x
	negative := Infinity(g, dtype, -1)
	topValues := make([]*Node, 0, k)
	topIndices := make([]*Node, 0, k)
	for i := 0; i < k; i++ {
		idx := ArgMax(working, -1, dtypes.Int32)
		topIndices = append(topIndices, idx)
		topValues = append(topValues, ReduceMax(working, -1))
		selected := ConvertDType(OneHot(idx, n, dtype), dtypes.Bool)
		working = Where(selected, negative, working)
	}
	return Stack(topValues, -1), Stack(topIndices, -1)
}

// booleanThreeHop thresholds adjacency to {0,1}, cubes it, and thresholds
// again: entry (i,j) is 1 iff some walk of length exactly 3 leads from i to
// j. On a symmetric adjacency that covers distance-1 and distance-3 pairs,
// since walks may backtrack.
func booleanThreeHop(adjacency *Node) *Node {
	dtype := adjacency.DType()
	binary := ConvertDType(NotEqual(adjacency, ZerosLike(adjacency)), dtype)
	cubed := MatMul(binary, MatMul(binary, binary))
	return ConvertDType(NotEqual(cubed, ZerosLike(cubed)), dtype)
}

// inducedSquare restricts a square matrix to the given rows and columns:
// out[a, b] = m[indices[a], indices[b]].
func inducedSquare(m, indices *Node) *Node {
	rows := Gather(m, ExpandDims(indices, -1))
	columns := Gather(Transpose(rows, 0, 1), ExpandDims(indices, -1))
	return Transpose(columns, 0, 1)
}

// NormalizeRows divides each row by its sum plus a small epsilon: rows with
// mass sum to ~1, all-zero rows stay zero instead of producing NaN.
func NormalizeRows(m *Node) *Node {
	return Div(m, AddScalar(ReduceAndKeep(m, ReduceSum, -1), normalizationEpsilon))
}
