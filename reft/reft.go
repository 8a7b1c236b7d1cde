// Copyright 2025 PEFT-Go Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package reft exposes the ReFT model wrapper: a base model composed
// with named intervention modules, checkpoint round-tripping, and
// trainable-parameter accounting.
package reft

import (
	"github.com/peft-ml/peft/internal/logger"
	"github.com/peft-ml/peft/internal/nn"
	"github.com/peft-ml/peft/internal/reft"
	"github.com/peft-ml/peft/internal/tensor"
)

// IntervenableModel composes a base model with named interventions.
type IntervenableModel[B tensor.Backend] = reft.IntervenableModel[B]

// ReftModel adds parameter accounting on top of IntervenableModel.
type ReftModel[B tensor.Backend] = reft.ReftModel[B]

// ParameterReport holds the parameter accounting of a ReftModel.
type ParameterReport = reft.ParameterReport

// Logger is the logging sink consumed by the accountant.
type Logger = logger.Logger

// NewReftModel creates a ReftModel over a base model and an
// interventions registry. A nil log falls back to the default sink.
func NewReftModel[B tensor.Backend](model nn.Module[B], interventions map[string][]nn.Module[B], log Logger) *ReftModel[B] {
	return reft.NewReftModel(model, interventions, log)
}

// Load restores a saved checkpoint into model and returns it.
func Load[B tensor.Backend](dir string, model *ReftModel[B]) (*ReftModel[B], error) {
	return reft.Load(dir, model)
}

// CountParameters returns the number of trainable parameter elements of
// a module.
func CountParameters[B tensor.Backend](m nn.Module[B]) int {
	return reft.CountParameters(m)
}
