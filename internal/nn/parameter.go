package nn

import (
	"github.com/peft-ml/peft/internal/tensor"
)

// Parameter represents a named parameter of a neural network module.
//
// A parameter is trainable by default. Freezing clears the underlying
// tensor's gradient-tracking flag, which excludes it from gradient-based
// updates and from trainable-parameter accounting. A frozen parameter's
// values can still be overwritten in place: merge/unmerge and PiSSA
// initialization rely on exactly that.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
}

// NewParameter creates a new trainable parameter.
//
// The tensor should be initialized before creating the Parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	t.RequireGrad()
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// NumElements returns the number of elements in the parameter tensor.
func (p *Parameter[B]) NumElements() int {
	return p.tensor.NumElements()
}

// Trainable reports whether the parameter participates in gradient
// computation.
func (p *Parameter[B]) Trainable() bool {
	return p.tensor.RequiresGrad()
}

// Freeze permanently excludes the parameter from gradient computation.
func (p *Parameter[B]) Freeze() {
	p.tensor.SetRequiresGrad(false)
}
