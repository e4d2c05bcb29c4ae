// Copyright 2026 The GIUNet Authors. SPDX-License-Identifier: Apache-2.0

// Package unet implements a graph U-Net: an encoder that alternates GIN
// convolutions with learned+structural top-k pooling, a bottleneck
// convolution at the coarsest level, a decoder that mirrors the encoder with
// unpooling stages, and a graph-level readout head.
//
// Structural descriptors (centralities or Laplacian eigenvectors) depend on
// the coarsened connectivity, which is only known after the previous pooling
// stage ran. The forward pass is therefore staged: each level is a separately
// compiled computation, and the selected indices and coarsened adjacency
// cross between stages through the host. Gradients flow within each stage
// but not across the host boundary.
package unet

import (
	"fmt"

	"github.com/aramiracle/GIUNet-0/graphs"
	"github.com/aramiracle/GIUNet-0/pool"
	"github.com/aramiracle/GIUNet-0/structural"
	"github.com/gomlx/gomlx/backends"
	. "github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/context/initializers"
	"github.com/gomlx/gomlx/pkg/ml/layers"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Model holds the compiled per-stage computations and their shared variable
// context. Build one with New and run batches through Forward; the same
// Model is reusable across batches of any size (new input shapes trigger
// recompilation, cached per shape).
type Model struct {
	backend backends.Backend
	ctx     *context.Context
	cfg     Config

	encoders   []*context.Exec
	bottleneck *context.Exec
	decoders   []*context.Exec

	// readouts is keyed by the batch's graph count, which is baked into the
	// scatter shapes of the readout computation.
	readouts map[int]*context.Exec
}

// New builds a Model over the given backend. A nil ctx creates a fresh one;
// either way variables initialize with Glorot uniform on first use.
func New(backend backends.Backend, ctx *context.Context, cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.New()
	}
	ctx = ctx.WithInitializer(initializers.GlorotUniformFn(ctx))
	m := &Model{
		backend:  backend,
		ctx:      ctx,
		cfg:      cfg,
		encoders: make([]*context.Exec, cfg.Depth),
		decoders: make([]*context.Exec, cfg.Depth),
		readouts: make(map[int]*context.Exec),
	}
	var err error
	for depth := 0; depth < cfg.Depth; depth++ {
		if m.encoders[depth], err = context.NewExec(backend, ctx, m.encoderStage(depth)); err != nil {
			return nil, errors.WithMessagef(err, "building encoder stage %d", depth)
		}
		if m.decoders[depth], err = context.NewExec(backend, ctx, m.decoderStage(depth)); err != nil {
			return nil, errors.WithMessagef(err, "building decoder stage %d", depth)
		}
	}
	if m.bottleneck, err = context.NewExec(backend, ctx, m.bottleneckStage); err != nil {
		return nil, errors.WithMessage(err, "building bottleneck stage")
	}
	return m, nil
}

// Context returns the variable context shared by all stages.
func (m *Model) Context() *context.Context { return m.ctx }

// Config returns the configuration the model was built with.
func (m *Model) Config() Config { return m.cfg }

// encoderStage builds one encoding level: conv, score, pool. Inputs are
// node features, edge endpoint lists, the level adjacency and the structural
// descriptors; outputs are the pooled features, the selected indices, the
// coarsened adjacency and the raw scores.
func (m *Model) encoderStage(depth int) func(ctx *context.Context, inputs []*Node) []*Node {
	return func(ctx *context.Context, inputs []*Node) []*Node {
		h, edgeSources, edgeTargets, adjacency, descriptors :=
			inputs[0], inputs[1], inputs[2], inputs[3], inputs[4]
		ctx = ctx.In("model")
		h = ginConv(ctx.In(fmt.Sprintf("encoder_%d", depth)), h, edgeSources, edgeTargets,
			m.cfg.HiddenDims[depth])
		scores := pool.Scores(ctx.In(fmt.Sprintf("scores_%d", depth)), h, descriptors,
			m.cfg.DropoutRate)
		coarsened, pooled, indices := pool.TopK(scores, h, adjacency, m.cfg.PoolingRatio)
		return []*Node{pooled, indices, coarsened, scores}
	}
}

func (m *Model) bottleneckStage(ctx *context.Context, h, edgeSources, edgeTargets *Node) *Node {
	return ginConv(ctx.In("model").In("bottleneck"), h, edgeSources, edgeTargets, m.cfg.BottleneckDim)
}

// decoderStage builds one decoding level: unpool back to the pre-pooling
// node count, then conv over that level's edges. Inputs are the pooled
// features, the selection indices, the level adjacency, and the level's edge
// endpoint lists.
func (m *Model) decoderStage(depth int) func(ctx *context.Context, inputs []*Node) *Node {
	return func(ctx *context.Context, inputs []*Node) *Node {
		h, indices, adjacency, edgeSources, edgeTargets :=
			inputs[0], inputs[1], inputs[2], inputs[3], inputs[4]
		restored := pool.Unpool(adjacency, h, indices)
		return ginConv(ctx.In("model").In(fmt.Sprintf("decoder_%d", depth)),
			restored, edgeSources, edgeTargets, m.cfg.HiddenDims[depth])
	}
}

func (m *Model) readoutStage(numGraphs int) func(ctx *context.Context, h, segments *Node) *Node {
	return func(ctx *context.Context, h, segments *Node) *Node {
		ctx = ctx.In("model")
		out := layers.DenseWithBias(ctx.In("head"), h, m.cfg.OutputDim)
		out = segmentReadout(out, segments, numGraphs, m.cfg.readoutParts())
		if m.cfg.LogProbabilities {
			out = LogSoftmax(out)
		}
		return out
	}
}

func (m *Model) readoutExec(numGraphs int) (*context.Exec, error) {
	if e, ok := m.readouts[numGraphs]; ok {
		return e, nil
	}
	e, err := context.NewExec(m.backend, m.ctx, m.readoutStage(numGraphs))
	if err != nil {
		return nil, errors.WithMessage(err, "building readout stage")
	}
	m.readouts[numGraphs] = e
	return e, nil
}

// levelState is what the decoder needs to undo one pooling stage: the graph
// as it was before pooling, the selected indices, and the adjacency matrix
// the stage pooled over (the raw adjacency at depth 0, the coarsened one
// from the previous stage deeper down).
type levelState struct {
	graph     *graphs.Graph
	indices   *tensors.Tensor
	adjacency *tensors.Tensor
}

// Forward runs one batch through the full U: encoding with pooling at every
// level, bottleneck, decoding with unpooling, and the per-graph readout.
// It returns the [NumGraphs, outputWidth] graph-level outputs, where the
// output width is OutputDim times the number of readout aggregations.
//
// Message passing follows the stored arcs, so batches for undirected graphs
// should carry both arc directions (see graphs.Graph.Symmetrized).
//
// It fails with structural.ErrDegenerateGraph wrapped if any level shrinks
// below 2 nodes, and with structural.ErrSingularDegree under the spectral
// descriptor variant if any level contains a zero-degree node.
func (m *Model) Forward(batch *Batch) (*tensors.Tensor, error) {
	if batch == nil || batch.Features == nil || batch.Graph == nil {
		return nil, errors.New("unet: nil batch")
	}
	if batch.Features.DType() != m.cfg.DType {
		return nil, errors.Errorf("unet: batch features are %s, model wants %s",
			batch.Features.DType(), m.cfg.DType)
	}
	if batch.Features.Shape().Dimensions[0] != batch.Graph.NumNodes {
		return nil, errors.Errorf("unet: batch features have %d rows for a %d-node graph",
			batch.Features.Shape().Dimensions[0], batch.Graph.NumNodes)
	}

	h := batch.Features
	level := batch.Graph
	stack := make([]levelState, 0, m.cfg.Depth)
	var carried *tensors.Tensor // coarsened adjacency from the previous stage

	for depth := 0; depth < m.cfg.Depth; depth++ {
		klog.V(1).Infof("encoding depth %d: %d nodes, %d edges", depth, level.NumNodes, level.NumEdges())
		if level.NumNodes < 2 {
			return nil, errors.Wrapf(structural.ErrDegenerateGraph,
				"pooling stage %d over %d nodes", depth, level.NumNodes)
		}
		descriptors, err := structural.Extract(m.cfg.Structural, level, m.cfg.DType)
		if err != nil {
			return nil, errors.WithMessagef(err, "pooling stage %d", depth)
		}
		adjacency := carried
		if depth == 0 {
			if adjacency, err = level.AdjacencyMatrix(m.cfg.DType); err != nil {
				return nil, err
			}
		}
		sources, targets := edgeEndpoints(level)
		outputs, err := m.encoders[depth].Exec(h, sources, targets, adjacency, descriptors)
		if err != nil {
			return nil, errors.WithMessagef(err, "encoder stage %d", depth)
		}
		pooled, indices, coarsened := outputs[0], outputs[1], outputs[2]
		induced, err := level.Induced(tensors.MustCopyFlatData[int32](indices))
		if err != nil {
			return nil, errors.WithMessagef(err, "restricting edges after pooling stage %d", depth)
		}
		stack = append(stack, levelState{graph: level, indices: indices, adjacency: adjacency})
		h, level, carried = pooled, induced, coarsened
	}

	klog.V(1).Infof("bottleneck: %d nodes", level.NumNodes)
	sources, targets := edgeEndpoints(level)
	h2, err := m.bottleneck.Exec1(h, sources, targets)
	if err != nil {
		return nil, errors.WithMessage(err, "bottleneck stage")
	}
	h = h2

	for depth := m.cfg.Depth - 1; depth >= 0; depth-- {
		state := stack[depth]
		klog.V(1).Infof("decoding depth %d: restoring %d nodes", depth, state.graph.NumNodes)
		sources, targets := edgeEndpoints(state.graph)
		h, err = m.decoders[depth].Exec1(h, state.indices, state.adjacency, sources, targets)
		if err != nil {
			return nil, errors.WithMessagef(err, "decoder stage %d", depth)
		}
	}

	readout, err := m.readoutExec(batch.NumGraphs)
	if err != nil {
		return nil, err
	}
	segments := tensors.FromFlatDataAndDimensions(batch.Assignments, len(batch.Assignments))
	out, err := readout.Exec1(h, segments)
	return out, errors.WithMessage(err, "readout stage")
}

// edgeEndpoints returns the arc endpoint tensors for message passing. A
// level with no edges at all falls back to per-node self-loops, which keeps
// the convolution well-defined on isolated coarse graphs.
func edgeEndpoints(g *graphs.Graph) (sources, targets *tensors.Tensor) {
	if g.NumEdges() == 0 {
		loops := make([]int32, g.NumNodes)
		for i := range loops {
			loops[i] = int32(i)
		}
		t := tensors.FromFlatDataAndDimensions(loops, g.NumNodes)
		return t, t
	}
	return g.EdgeTensors()
}
