// Copyright 2026 The GIUNet Authors. SPDX-License-Identifier: Apache-2.0

package unet

import (
	. "github.com/gomlx/exceptions"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/shapes"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/layers"
	"github.com/gomlx/gomlx/pkg/ml/layers/activations"
	"github.com/gomlx/gomlx/pkg/ml/layers/batchnorm"
)

// ginConv is one GIN (graph isomorphism network) convolution: each node sums
// its incoming neighbor features, adds its own, and pushes the result through
// a two-layer MLP with batch normalization and ReLU after each layer.
//
// edgeSources and edgeTargets are rank-1 Int32 edge endpoint lists; messages
// flow source → target, so an undirected graph should list both arcs.
func ginConv(ctx *context.Context, h, edgeSources, edgeTargets *Node, outputDim int) *Node {
	if h.Rank() != 2 {
		Panicf("ginConv: node features must be rank-2, got %s", h.Shape())
	}
	if edgeSources.Rank() != 1 || edgeTargets.Rank() != 1 ||
		edgeSources.Shape().Dimensions[0] != edgeTargets.Shape().Dimensions[0] {
		Panicf("ginConv: edge endpoints must be rank-1 and same length, got %s and %s",
			edgeSources.Shape(), edgeTargets.Shape())
	}
	g := h.Graph()
	numNodes := h.Shape().Dimensions[0]
	featureDim := h.Shape().Dimensions[1]

	messages := Gather(h, ExpandDims(edgeSources, -1))
	zero := Zeros(g, shapes.Make(h.DType(), numNodes, featureDim))
	aggregated := ScatterSum(zero, ExpandDims(edgeTargets, -1), messages, false, false)
	combined := Add(h, aggregated)

	out := layers.DenseWithBias(ctx.In("dense_0"), combined, outputDim)
	out = batchnorm.New(ctx.In("norm_0"), out, -1).Done()
	out = activations.Relu(out)
	out = layers.DenseWithBias(ctx.In("dense_1"), out, outputDim)
	out = batchnorm.New(ctx.In("norm_1"), out, -1).Done()
	return activations.Relu(out)
}
