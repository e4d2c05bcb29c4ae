// Copyright 2026 The GIUNet Authors. SPDX-License-Identifier: Apache-2.0

package unet

import (
	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gopjrt/dtypes"
)

// segmentReadout aggregates per-node values [numNodes, featureDim] into
// per-graph rows [numSegments, featureDim*len(parts)], concatenating one
// block per requested aggregation ("mean" or "max"). Segments are the
// batch assignments; empty segments come out as zeros.
func segmentReadout(values, segments *Node, numSegments int, parts []string) *Node {
	if values.Rank() != 2 {
		Panicf("segmentReadout: values must be rank-2, got %s", values.Shape())
	}
	if segments.Rank() != 1 || segments.Shape().Dimensions[0] != values.Shape().Dimensions[0] {
		Panicf("segmentReadout: segments must be rank-1 with %d entries, got %s",
			values.Shape().Dimensions[0], segments.Shape())
	}
	g := values.Graph()
	dtype := values.DType()
	numNodes := values.Shape().Dimensions[0]
	featureDim := values.Shape().Dimensions[1]
	indices := ExpandDims(segments, -1)

	counts := ScatterSum(Zeros(g, shapes.Make(dtype, numSegments, 1)), indices,
		Ones(g, shapes.Make(dtype, numNodes, 1)), false, false)

	blocks := make([]*Node, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "mean":
			sum := ScatterSum(Zeros(g, shapes.Make(dtype, numSegments, featureDim)),
				indices, values, false, false)
			blocks = append(blocks, Div(sum, MaxScalar(counts, 1)))
		case "max":
			lowest := BroadcastToDims(Infinity(g, dtype, -1), numSegments, featureDim)
			maxed := ScatterMax(lowest, indices, values, false, false)
			occupied := BroadcastToDims(ConvertDType(counts, dtypes.Bool), numSegments, featureDim)
			blocks = append(blocks, Where(occupied, maxed, ZerosLike(maxed)))
		default:
			Panicf("segmentReadout: unknown aggregation %q", part)
		}
	}
	if len(blocks) == 1 {
		return blocks[0]
	}
	return Concatenate(blocks, -1)
}
