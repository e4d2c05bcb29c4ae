// Copyright 2026 The GIUNet Authors. SPDX-License-Identifier: Apache-2.0

package structural

import (
	"math"

	"github.com/aramiracle/GIUNet-0/graphs"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Laplacian computes the symmetric normalized Laplacian of the stored
// adjacency, L = I - D^(-1/2) A D^(-1/2) with D the out-degree diagonal,
// averaged with its own transpose to guard against floating-point (or input)
// asymmetry. It fails with ErrSingularDegree if any node has degree zero.
func Laplacian(g *graphs.Graph) (*mat.SymDense, error) {
	n := g.NumNodes
	if n == 0 {
		return nil, errors.Wrap(ErrDegenerateGraph, "laplacian of empty graph")
	}
	adjacency := mat.NewDense(n, n, nil)
	for i := range g.Sources {
		adjacency.Set(int(g.Sources[i]), int(g.Targets[i]), 1)
	}
	invSqrtDegree := make([]float64, n)
	for i := 0; i < n; i++ {
		degree := mat.Sum(adjacency.RowView(i))
		if degree == 0 {
			return nil, errors.Wrapf(ErrSingularDegree, "node %d", i)
		}
		invSqrtDegree[i] = 1 / math.Sqrt(degree)
	}
	laplacian := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			normalized := invSqrtDegree[i] * adjacency.At(i, j) * invSqrtDegree[j]
			transposed := invSqrtDegree[j] * adjacency.At(j, i) * invSqrtDegree[i]
			value := -0.5 * (normalized + transposed)
			if i == j {
				value += 1
			}
			laplacian.SetSym(i, j, value)
		}
	}
	return laplacian, nil
}

// SpectralFeatures returns the [NumNodes, k] matrix whose columns are the
// eigenvectors associated with the k smallest eigenvalues of the normalized
// Laplacian. When the graph has fewer than k nodes the trailing columns are
// zero, so the descriptor width stays fixed for the score unit.
func SpectralFeatures(g *graphs.Graph, k int, dtype dtypes.DType) (*tensors.Tensor, error) {
	if k <= 0 {
		return nil, errors.Errorf("structural.SpectralFeatures: k must be positive, got %d", k)
	}
	laplacian, err := Laplacian(g)
	if err != nil {
		return nil, err
	}
	var es mat.EigenSym
	if !es.Factorize(laplacian, true) {
		return nil, errors.New("structural.SpectralFeatures: eigen decomposition failed")
	}
	var vectors mat.Dense
	es.VectorsTo(&vectors) // Eigenvalues, hence columns, in ascending order.

	n := g.NumNodes
	retained := min(k, n)
	flat := make([]float64, n*k)
	for i := 0; i < n; i++ {
		for j := 0; j < retained; j++ {
			flat[i*k+j] = vectors.At(i, j)
		}
	}
	return matrixTensor(flat, n, k, dtype)
}
