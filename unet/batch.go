// Copyright 2026 The GIUNet Authors. SPDX-License-Identifier: Apache-2.0

package unet

import (
	"github.com/aramiracle/GIUNet-0/graphs"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
)

// Batch is one forward-pass input: the node features of one or more graphs
// concatenated along the node axis, their union graph, and the assignment of
// every node to its graph.
type Batch struct {
	// Features is the [NumNodes, featureDim] node feature matrix.
	Features *tensors.Tensor

	// Graph is the combined connectivity; edges never cross graphs.
	Graph *graphs.Graph

	// Assignments maps each node to its graph in [0, NumGraphs).
	Assignments []int32

	// NumGraphs is the number of graphs stacked in this batch.
	NumGraphs int
}

// NewBatch validates and assembles a multi-graph batch.
func NewBatch(features *tensors.Tensor, g *graphs.Graph, assignments []int32, numGraphs int) (*Batch, error) {
	if features.Rank() != 2 {
		return nil, errors.Errorf("unet: batch features must be rank-2, got %s", features.Shape())
	}
	if features.Shape().Dimensions[0] != g.NumNodes {
		return nil, errors.Errorf("unet: batch features have %d rows for a %d-node graph",
			features.Shape().Dimensions[0], g.NumNodes)
	}
	if len(assignments) != g.NumNodes {
		return nil, errors.Errorf("unet: batch has %d assignments for %d nodes",
			len(assignments), g.NumNodes)
	}
	if numGraphs < 1 {
		return nil, errors.Errorf("unet: batch must hold at least one graph, got %d", numGraphs)
	}
	for i, a := range assignments {
		if a < 0 || int(a) >= numGraphs {
			return nil, errors.Wrapf(graphs.ErrInvalidIndex,
				"unet: node %d assigned to graph %d of %d", i, a, numGraphs)
		}
	}
	return &Batch{Features: features, Graph: g, Assignments: assignments, NumGraphs: numGraphs}, nil
}

// SingleBatch wraps one graph as a batch of one.
func SingleBatch(features *tensors.Tensor, g *graphs.Graph) (*Batch, error) {
	return NewBatch(features, g, make([]int32, g.NumNodes), 1)
}
