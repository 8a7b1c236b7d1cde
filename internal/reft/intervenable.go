// Package reft implements the ReFT model wrapper: a base model plus a
// registry of named intervention modules, with checkpoint round-tripping
// and trainable-parameter accounting.
package reft

import (
	"fmt"
	"path/filepath"

	"github.com/peft-ml/peft/internal/nn"
	"github.com/peft-ml/peft/internal/serialization"
	"github.com/peft-ml/peft/internal/tensor"
)

// CheckpointFileName is the adapter checkpoint written into a save
// directory.
const CheckpointFileName = "interventions.peft"

// IntervenableModel composes a base model with a registry of named
// interventions. Each registry entry is an ordered module list whose
// first element carries the intervention's parameters.
//
// The registry is shared by reference with the caller; the model reads
// it for accounting and checkpointing but never mutates it.
type IntervenableModel[B tensor.Backend] struct {
	model         nn.Module[B]
	interventions map[string][]nn.Module[B]
}

// NewIntervenable wraps a base model and an interventions registry.
func NewIntervenable[B tensor.Backend](model nn.Module[B], interventions map[string][]nn.Module[B]) *IntervenableModel[B] {
	return &IntervenableModel[B]{
		model:         model,
		interventions: interventions,
	}
}

// Model returns the wrapped base model.
func (m *IntervenableModel[B]) Model() nn.Module[B] {
	return m.model
}

// Interventions returns the shared interventions registry.
func (m *IntervenableModel[B]) Interventions() map[string][]nn.Module[B] {
	return m.interventions
}

// Save writes every intervention parameter, plus any trainable base
// model parameters, to dir as an adapter checkpoint. Tensor names are
// "<intervention>.<module index>.<parameter>" for interventions and
// "model.<parameter>" for base-model parameters.
func (m *IntervenableModel[B]) Save(dir string) error {
	tensors := make(map[string]*tensor.RawTensor)

	for key, chain := range m.interventions {
		for i, module := range chain {
			for _, p := range module.Parameters() {
				name := fmt.Sprintf("%s.%d.%s", key, i, p.Name())
				if _, exists := tensors[name]; exists {
					return fmt.Errorf("%w: %q", serialization.ErrDuplicateTensor, name)
				}
				tensors[name] = p.Tensor().Raw()
			}
		}
	}
	for _, p := range m.model.Parameters() {
		if !p.Trainable() {
			continue
		}
		tensors["model."+p.Name()] = p.Tensor().Raw()
	}

	path := filepath.Join(dir, CheckpointFileName)
	return serialization.Write(path, tensors, map[string]string{"checkpoint": "interventions"})
}

// LoadIntervenable restores a saved checkpoint into model. The model
// must already carry the interventions the checkpoint was saved from;
// tensor values are copied into the existing parameters in place. The
// restored model is returned.
func LoadIntervenable[B tensor.Backend](dir string, model *IntervenableModel[B]) (*IntervenableModel[B], error) {
	path := filepath.Join(dir, CheckpointFileName)
	file, err := serialization.Read(path)
	if err != nil {
		return nil, err
	}

	for key, chain := range model.interventions {
		for i, module := range chain {
			for _, p := range module.Parameters() {
				name := fmt.Sprintf("%s.%d.%s", key, i, p.Name())
				if err := restore(file, name, p); err != nil {
					return nil, err
				}
			}
		}
	}
	for _, p := range model.model.Parameters() {
		if !p.Trainable() {
			continue
		}
		if err := restore(file, "model."+p.Name(), p); err != nil {
			return nil, err
		}
	}

	return model, nil
}

func restore[B tensor.Backend](file *serialization.File, name string, p *nn.Parameter[B]) error {
	raw, err := file.Tensor(name)
	if err != nil {
		return err
	}
	if !raw.Shape().Equal(p.Tensor().Shape()) {
		return fmt.Errorf("tensor %q: shape mismatch, checkpoint %v vs parameter %v", name, raw.Shape(), p.Tensor().Shape())
	}
	p.Tensor().Raw().CopyFrom(raw)
	return nil
}
