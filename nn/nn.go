// Copyright 2025 PEFT-Go Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn exposes the neural network modules of the PEFT adapter
// library: the Module interface, parameters, the donor Linear layer,
// dropout, and the VeraLinear low-rank adapter.
package nn

import (
	"github.com/peft-ml/peft/internal/nn"
	"github.com/peft-ml/peft/internal/tensor"
)

// Module is the base interface for all neural network components.
type Module[B tensor.Backend] = nn.Module[B]

// ModeModule is implemented by modules with train/eval mode behavior.
type ModeModule = nn.ModeModule

// Parameter represents a named parameter with a trainable flag.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Layers

// Linear is a fully connected layer with weight shape [in, out].
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a Linear layer with a bias vector.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// NewLinearNoBias creates a Linear layer without a bias vector.
func NewLinearNoBias[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinearNoBias(inFeatures, outFeatures, backend)
}

// Dropout randomly zeroes input elements during training.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a Dropout module with probability p in [0, 1).
func NewDropout[B tensor.Backend](p float32) (*Dropout[B], error) {
	return nn.NewDropout[B](p)
}

// Adapter

// VeraLinear is a dense layer with a mergeable low-rank adaptation and
// two injected scaling vectors.
type VeraLinear[B tensor.Backend] = nn.VeraLinear[B]

// VeraOptions configures VeraLinear construction.
type VeraOptions = nn.VeraOptions

// VeraConfig is the persisted adapter configuration.
type VeraConfig = nn.VeraConfig

// NewVeraLinear constructs a VeraLinear from a donor Linear layer.
//
// Example:
//
//	backend := cpu.New()
//	donor := nn.NewLinear(768, 768, backend)
//	layer, err := nn.NewVeraLinear(donor, 768, 768, nn.VeraOptions{R: 8}, backend)
func NewVeraLinear[B tensor.Backend](donor *Linear[B], inFeatures, outFeatures int, opts VeraOptions, backend B) (*VeraLinear[B], error) {
	return nn.NewVeraLinear(donor, inFeatures, outFeatures, opts, backend)
}

// LoadVeraConfig reads a saved adapter configuration from dir.
func LoadVeraConfig(dir string) (*VeraConfig, error) {
	return nn.LoadVeraConfig(dir)
}

// Configuration errors.
var (
	ErrInvalidRank   = nn.ErrInvalidRank
	ErrPissaScaling  = nn.ErrPissaScaling
	ErrShapeMismatch = nn.ErrShapeMismatch
)

// Initializers

// KaimingUniform initializes a weight tensor with the Kaiming-uniform
// distribution.
func KaimingUniform[B tensor.Backend](fanIn int, negativeSlope float64, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.KaimingUniform(fanIn, negativeSlope, shape, backend)
}

// Zeros creates a zero-filled tensor.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones creates a one-filled tensor.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}
