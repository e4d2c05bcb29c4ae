// Copyright 2026 The GIUNet Authors. SPDX-License-Identifier: Apache-2.0

package unet

import (
	"strings"

	"github.com/aramiracle/GIUNet-0/structural"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// Config carries every knob of the model explicitly. Nothing is read from
// globals: construct it (usually starting from DefaultConfig), adjust, and
// hand it to New.
type Config struct {
	// DType is the floating-point type of features, weights and adjacencies.
	DType dtypes.DType

	// Depth is the number of encoder/decoder levels, each one conv + pool on
	// the way down and one unpool + conv on the way up.
	Depth int

	// HiddenDims are the encoder conv output widths, one per level; the
	// decoder mirrors them on the way up. Must have length Depth.
	HiddenDims []int

	// BottleneckDim is the conv width at the coarsest level.
	BottleneckDim int

	// PoolingRatio is the fraction of nodes each pooling stage keeps; the
	// kept count is never below 2. In (0, 1].
	PoolingRatio float64

	// DropoutRate applies to the score unit's feature branch during
	// training. 0 disables it.
	DropoutRate float64

	// OutputDim is the per-graph output width: the number of classes for a
	// classifier, or the embedding width otherwise.
	OutputDim int

	// LogProbabilities applies a log-softmax over the per-graph outputs,
	// turning them into log class probabilities.
	LogProbabilities bool

	// Readout names the graph-level aggregation: "mean", "max", or a
	// "|"-separated concatenation such as "mean|max".
	Readout string

	// Structural configures the descriptors fed to every pooling score unit.
	Structural structural.Config
}

// DefaultConfig mirrors the reference architecture: two levels of 32 and 64
// channels, a 64-channel bottleneck, 0.8 pooling ratio, and the full
// six-metric centrality battery.
func DefaultConfig() Config {
	return Config{
		DType:         dtypes.Float32,
		Depth:         2,
		HiddenDims:    []int{32, 64},
		BottleneckDim: 64,
		PoolingRatio:  0.8,
		DropoutRate:   0.5,
		OutputDim:     2,
		Readout:       "mean",
		Structural:    structural.Config{Variant: structural.Centrality, Metrics: structural.AllMetrics},
	}
}

// Validate checks the configuration is self-consistent.
func (cfg Config) Validate() error {
	if cfg.DType != dtypes.Float32 && cfg.DType != dtypes.Float64 {
		return errors.Errorf("unet: DType must be Float32 or Float64, got %s", cfg.DType)
	}
	if cfg.Depth < 1 {
		return errors.Errorf("unet: Depth must be at least 1, got %d", cfg.Depth)
	}
	if len(cfg.HiddenDims) != cfg.Depth {
		return errors.Errorf("unet: need %d HiddenDims (one per level), got %d",
			cfg.Depth, len(cfg.HiddenDims))
	}
	for i, dim := range cfg.HiddenDims {
		if dim < 1 {
			return errors.Errorf("unet: HiddenDims[%d] must be positive, got %d", i, dim)
		}
	}
	if cfg.BottleneckDim < 1 {
		return errors.Errorf("unet: BottleneckDim must be positive, got %d", cfg.BottleneckDim)
	}
	if cfg.PoolingRatio <= 0 || cfg.PoolingRatio > 1 {
		return errors.Errorf("unet: PoolingRatio must be in (0, 1], got %g", cfg.PoolingRatio)
	}
	if cfg.DropoutRate < 0 || cfg.DropoutRate >= 1 {
		return errors.Errorf("unet: DropoutRate must be in [0, 1), got %g", cfg.DropoutRate)
	}
	if cfg.OutputDim < 1 {
		return errors.Errorf("unet: OutputDim must be positive, got %d", cfg.OutputDim)
	}
	parts := strings.Split(cfg.Readout, "|")
	for _, part := range parts {
		if part != "mean" && part != "max" {
			return errors.Errorf("unet: unknown readout %q (want \"mean\", \"max\" or a \"|\" combination)",
				cfg.Readout)
		}
	}
	if cfg.LogProbabilities && len(parts) != 1 {
		return errors.Errorf("unet: LogProbabilities needs a single readout, got %q", cfg.Readout)
	}
	return errors.WithMessage(cfg.Structural.Validate(), "unet")
}

func (cfg Config) readoutParts() []string {
	return strings.Split(cfg.Readout, "|")
}
