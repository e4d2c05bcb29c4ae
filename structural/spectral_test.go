// Copyright 2026 The GIUNet Authors. SPDX-License-Identifier: Apache-2.0

package structural

import (
	"math"
	"testing"

	"github.com/aramiracle/GIUNet-0/graphs"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func triangleGraph(t *testing.T) *graphs.Graph {
	g, err := graphs.New(3, []int32{0, 1, 2}, []int32{1, 2, 0})
	require.NoError(t, err)
	return g.Symmetrized()
}

func TestLaplacianTriangle(t *testing.T) {
	laplacian, err := Laplacian(triangleGraph(t))
	require.NoError(t, err)

	const eps = 1e-12
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := -0.5
			if i == j {
				want = 1
			}
			require.InDelta(t, want, laplacian.At(i, j), eps)
			require.InDelta(t, laplacian.At(j, i), laplacian.At(i, j), eps)
		}
	}
}

func TestLaplacianAsymmetricInput(t *testing.T) {
	// One-directional arcs: the averaging with the transpose must still
	// produce a symmetric matrix.
	g, err := graphs.New(3, []int32{0, 1, 2}, []int32{1, 2, 0})
	require.NoError(t, err)
	laplacian, err := Laplacian(g)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			require.Equal(t, laplacian.At(j, i), laplacian.At(i, j))
		}
	}
}

func TestLaplacianSingularDegree(t *testing.T) {
	// Triangle plus an isolated node: the spectral variant refuses to
	// substitute a default degree.
	g, err := graphs.New(4, []int32{0, 1, 2}, []int32{1, 2, 0})
	require.NoError(t, err)
	g = g.Symmetrized()

	_, err = Laplacian(g)
	require.True(t, errors.Is(err, ErrSingularDegree))

	_, err = Extract(Config{Variant: Spectral, EigenvectorCount: 2}, g, dtypes.Float64)
	require.True(t, errors.Is(err, ErrSingularDegree))

	// The smallest degenerate case, a single node with no edges, must also
	// surface the zero-degree failure rather than a NaN-filled matrix.
	single, err := graphs.New(1, nil, nil)
	require.NoError(t, err)
	_, err = Laplacian(single)
	require.True(t, errors.Is(err, ErrSingularDegree))
}

func TestSpectralFeaturesTriangle(t *testing.T) {
	got, err := SpectralFeatures(triangleGraph(t), 2, dtypes.Float64)
	require.NoError(t, err)
	rows := got.Value().([][]float64)
	require.Len(t, rows, 3)
	require.Len(t, rows[0], 2)

	// The eigenvalue-zero eigenvector of a connected regular graph is the
	// constant vector, and it sorts first.
	want := 1 / math.Sqrt(3)
	for i := 0; i < 3; i++ {
		require.InDelta(t, want, math.Abs(rows[i][0]), 1e-9)
	}
}

func TestSpectralFeaturesPadding(t *testing.T) {
	got, err := SpectralFeatures(triangleGraph(t), 5, dtypes.Float64)
	require.NoError(t, err)
	rows := got.Value().([][]float64)
	require.Len(t, rows[0], 5)
	for i := 0; i < 3; i++ {
		require.Zero(t, rows[i][3])
		require.Zero(t, rows[i][4])
	}
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, Config{Variant: Centrality}.Validate())
	require.NoError(t, Config{Variant: Spectral, EigenvectorCount: 3}.Validate())
	require.Error(t, Config{Variant: Spectral}.Validate())
	require.Error(t, Config{Variant: Variant(7)}.Validate())
	require.Error(t, Config{Variant: Centrality, Metrics: []Metric{Metric(-1)}}.Validate())
}
