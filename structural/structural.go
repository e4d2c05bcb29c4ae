// Copyright 2026 The GIUNet Authors. SPDX-License-Identifier: Apache-2.0

// Package structural computes per-node structural descriptors for pooling:
// either a battery of centrality statistics or a low-rank eigenvector
// approximation of the normalized graph Laplacian.
//
// Both variants are pure functions of an immutable graphs.Graph and are
// recomputed at every pooling stage. The descriptors are consumed by the
// pooling score unit and not retained afterwards.
package structural

import (
	"github.com/aramiracle/GIUNet-0/graphs"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

var (
	// ErrDegenerateGraph indicates the structural descriptors are not defined
	// on the given graph (no nodes).
	ErrDegenerateGraph = errors.New("structural descriptors undefined for graph")

	// ErrSingularDegree indicates a zero-degree node made the normalized
	// Laplacian singular. The spectral variant does not substitute a default.
	ErrSingularDegree = errors.New("zero-degree node in normalized Laplacian")

	// ErrWorkerFailure indicates a parallel centrality computation crashed.
	ErrWorkerFailure = errors.New("centrality worker failed")
)

// Variant selects how structural descriptors are computed.
type Variant int

const (
	// Centrality computes one column per configured centrality metric.
	Centrality Variant = iota
	// Spectral computes the eigenvectors associated with the smallest
	// eigenvalues of the symmetric normalized Laplacian.
	Spectral
)

// String implements fmt.Stringer.
func (v Variant) String() string {
	switch v {
	case Centrality:
		return "centrality"
	case Spectral:
		return "spectral"
	}
	return "invalid"
}

// Config selects and parameterizes the descriptor variant.
type Config struct {
	Variant Variant

	// Metrics lists the centrality metrics, in column order. Defaults to
	// AllMetrics. Centrality variant only.
	Metrics []Metric

	// EigenvectorCount is the number of retained bottom eigenvectors.
	// Spectral variant only.
	EigenvectorCount int
}

// NumFeatures returns the width of the descriptor matrix this configuration
// produces, the K the score unit's structure projection must match.
func (cfg Config) NumFeatures() int {
	if cfg.Variant == Spectral {
		return cfg.EigenvectorCount
	}
	if len(cfg.Metrics) == 0 {
		return len(AllMetrics)
	}
	return len(cfg.Metrics)
}

// Validate checks the configuration is self-consistent.
func (cfg Config) Validate() error {
	switch cfg.Variant {
	case Centrality:
		for _, m := range cfg.Metrics {
			if m < 0 || m >= metricCount {
				return errors.Errorf("structural: unknown centrality metric %d", m)
			}
		}
	case Spectral:
		if cfg.EigenvectorCount <= 0 {
			return errors.Errorf("structural: spectral variant needs EigenvectorCount > 0, got %d",
				cfg.EigenvectorCount)
		}
	default:
		return errors.Errorf("structural: unknown variant %d", cfg.Variant)
	}
	return nil
}

// Extract computes the [NumNodes, NumFeatures] descriptor matrix for g.
func Extract(cfg Config, g *graphs.Graph, dtype dtypes.DType) (*tensors.Tensor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if g.NumNodes == 0 {
		return nil, errors.Wrap(ErrDegenerateGraph, "graph has no nodes")
	}
	switch cfg.Variant {
	case Spectral:
		return SpectralFeatures(g, cfg.EigenvectorCount, dtype)
	default:
		metrics := cfg.Metrics
		if len(metrics) == 0 {
			metrics = AllMetrics
		}
		return Centralities(g, metrics, dtype)
	}
}

// matrixTensor assembles row-major float64 data into a [rows, cols] tensor of
// the requested float dtype.
func matrixTensor(flat []float64, rows, cols int, dtype dtypes.DType) (*tensors.Tensor, error) {
	switch dtype {
	case dtypes.Float64:
		return tensors.FromFlatDataAndDimensions(flat, rows, cols), nil
	case dtypes.Float32:
		converted := make([]float32, len(flat))
		for i, v := range flat {
			converted[i] = float32(v)
		}
		return tensors.FromFlatDataAndDimensions(converted, rows, cols), nil
	}
	return nil, errors.Errorf("structural: unsupported dtype %s", dtype)
}
