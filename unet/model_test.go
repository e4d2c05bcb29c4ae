// Copyright 2026 The GIUNet Authors. SPDX-License-Identifier: Apache-2.0

package unet

import (
	"math"
	"testing"

	"github.com/aramiracle/GIUNet-0/graphs"
	"github.com/aramiracle/GIUNet-0/structural"
	_ "github.com/gomlx/gomlx/backends/default"
	"github.com/gomlx/gomlx/pkg/core/graph/graphtest"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Depth = 2
	cfg.HiddenDims = []int{4, 8}
	cfg.BottleneckDim = 8
	cfg.OutputDim = 3
	cfg.DropoutRate = 0
	cfg.Structural = structural.Config{Variant: structural.Centrality, Metrics: structural.FastMetrics}
	return cfg
}

// twoTriangleBatch builds two disjoint triangles as one 6-node batch.
func twoTriangleBatch(t *testing.T, featureDim int) *Batch {
	sources := []int32{0, 1, 2, 3, 4, 5}
	targets := []int32{1, 2, 0, 4, 5, 3}
	g, err := graphs.New(6, sources, targets)
	require.NoError(t, err)
	g = g.Symmetrized()

	flat := make([]float32, 6*featureDim)
	for i := range flat {
		flat[i] = float32(i%7) * 0.25
	}
	features := tensors.FromFlatDataAndDimensions(flat, 6, featureDim)
	batch, err := NewBatch(features, g, []int32{0, 0, 0, 1, 1, 1}, 2)
	require.NoError(t, err)
	return batch
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, testConfig().Validate())

	cfg := testConfig()
	cfg.HiddenDims = []int{4}
	require.Error(t, cfg.Validate(), "HiddenDims length must match Depth")

	cfg = testConfig()
	cfg.PoolingRatio = 1.5
	require.Error(t, cfg.Validate())

	cfg = testConfig()
	cfg.Readout = "sum"
	require.Error(t, cfg.Validate())

	cfg = testConfig()
	cfg.Readout = "mean|max"
	require.NoError(t, cfg.Validate())
	cfg.LogProbabilities = true
	require.Error(t, cfg.Validate(), "log-probabilities over concatenated readouts")

	cfg = testConfig()
	cfg.DType = dtypes.Int32
	require.Error(t, cfg.Validate())
}

func TestBatchValidation(t *testing.T) {
	g, err := graphs.New(3, []int32{0}, []int32{1})
	require.NoError(t, err)
	features := tensors.FromFlatDataAndDimensions(make([]float32, 6), 3, 2)

	_, err = NewBatch(features, g, []int32{0, 0, 1}, 2)
	require.NoError(t, err)

	_, err = NewBatch(features, g, []int32{0, 0}, 2)
	require.Error(t, err, "assignment length mismatch")

	_, err = NewBatch(features, g, []int32{0, 0, 2}, 2)
	require.True(t, errors.Is(err, graphs.ErrInvalidIndex))

	wrongRows := tensors.FromFlatDataAndDimensions(make([]float32, 4), 2, 2)
	_, err = NewBatch(wrongRows, g, []int32{0, 0, 1}, 2)
	require.Error(t, err)
}

func TestForwardShapesAndDeterminism(t *testing.T) {
	backend := graphtest.BuildTestBackend()
	cfg := testConfig()
	cfg.Readout = "mean|max"
	model, err := New(backend, nil, cfg)
	require.NoError(t, err)

	batch := twoTriangleBatch(t, 5)
	out, err := model.Forward(batch)
	require.NoError(t, err)
	require.Equal(t, []int{2, 2 * cfg.OutputDim}, out.Shape().Dimensions)
	for _, v := range tensors.MustCopyFlatData[float32](out) {
		require.False(t, math.IsNaN(float64(v)) || math.IsInf(float64(v), 0))
	}

	// Same weights, inference mode: a second pass must reproduce the first.
	again, err := model.Forward(batch)
	require.NoError(t, err)
	require.Equal(t,
		tensors.MustCopyFlatData[float32](out),
		tensors.MustCopyFlatData[float32](again))
}

func TestForwardLogProbabilities(t *testing.T) {
	backend := graphtest.BuildTestBackend()
	cfg := testConfig()
	cfg.LogProbabilities = true
	model, err := New(backend, nil, cfg)
	require.NoError(t, err)

	out, err := model.Forward(twoTriangleBatch(t, 4))
	require.NoError(t, err)
	rows := out.Value().([][]float32)
	require.Len(t, rows, 2)
	for _, row := range rows {
		var total float64
		for _, v := range row {
			require.LessOrEqual(t, v, float32(0))
			total += math.Exp(float64(v))
		}
		require.InDelta(t, 1.0, total, 1e-4)
	}
}

func TestForwardSpectralDescriptors(t *testing.T) {
	backend := graphtest.BuildTestBackend()
	cfg := testConfig()
	cfg.Structural = structural.Config{Variant: structural.Spectral, EigenvectorCount: 3}
	model, err := New(backend, nil, cfg)
	require.NoError(t, err)

	// A complete graph: whatever the learned selection keeps, every coarser
	// level stays complete, so no zero-degree node can appear mid-descent.
	var sources, targets []int32
	for u := int32(0); u < 6; u++ {
		for v := u + 1; v < 6; v++ {
			sources = append(sources, u, v)
			targets = append(targets, v, u)
		}
	}
	g, err := graphs.New(6, sources, targets)
	require.NoError(t, err)
	features := tensors.FromFlatDataAndDimensions(make([]float32, 6*4), 6, 4)
	batch, err := SingleBatch(features, g)
	require.NoError(t, err)

	out, err := model.Forward(batch)
	require.NoError(t, err)
	require.Equal(t, []int{1, cfg.OutputDim}, out.Shape().Dimensions)
}

func TestForwardSingularDegree(t *testing.T) {
	backend := graphtest.BuildTestBackend()
	cfg := testConfig()
	cfg.Structural = structural.Config{Variant: structural.Spectral, EigenvectorCount: 2}
	model, err := New(backend, nil, cfg)
	require.NoError(t, err)

	// Triangle plus an isolated node: the spectral variant must surface the
	// zero-degree failure instead of substituting a default.
	g, err := graphs.New(4, []int32{0, 1, 2}, []int32{1, 2, 0})
	require.NoError(t, err)
	features := tensors.FromFlatDataAndDimensions(make([]float32, 8), 4, 2)
	batch, err := SingleBatch(features, g.Symmetrized())
	require.NoError(t, err)

	_, err = model.Forward(batch)
	require.True(t, errors.Is(err, structural.ErrSingularDegree))
}

func TestForwardDegenerateGraph(t *testing.T) {
	backend := graphtest.BuildTestBackend()
	model, err := New(backend, nil, testConfig())
	require.NoError(t, err)

	g, err := graphs.New(1, nil, nil)
	require.NoError(t, err)
	features := tensors.FromFlatDataAndDimensions([]float32{1, 2}, 1, 2)
	batch, err := SingleBatch(features, g)
	require.NoError(t, err)

	_, err = model.Forward(batch)
	require.True(t, errors.Is(err, structural.ErrDegenerateGraph))
}

func TestForwardDTypeMismatch(t *testing.T) {
	backend := graphtest.BuildTestBackend()
	model, err := New(backend, nil, testConfig())
	require.NoError(t, err)

	g, err := graphs.New(3, []int32{0, 1}, []int32{1, 2})
	require.NoError(t, err)
	features := tensors.FromFlatDataAndDimensions(make([]float64, 6), 3, 2)
	batch, err := SingleBatch(features, g.Symmetrized())
	require.NoError(t, err)

	_, err = model.Forward(batch)
	require.Error(t, err)
}
