package nn

import (
	"fmt"
	"math/rand"

	"github.com/peft-ml/peft/internal/tensor"
)

// Dropout randomly zeroes elements of the input with probability p
// during training, scaling the survivors by 1/(1-p) so the expected
// value of the output matches the input. In evaluation mode it is the
// identity.
type Dropout[B tensor.Backend] struct {
	p        float32
	training bool
}

// NewDropout creates a Dropout module.
// p must lie in [0, 1).
func NewDropout[B tensor.Backend](p float32) (*Dropout[B], error) {
	if p < 0 || p >= 1 {
		return nil, fmt.Errorf("dropout probability must be in [0, 1), got %v", p)
	}
	return &Dropout[B]{p: p, training: true}, nil
}

// Forward applies dropout to the input.
func (d *Dropout[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if !d.training || d.p == 0 {
		return input
	}

	scale := 1.0 / (1.0 - d.p)
	output := input.Clone()
	data := output.Data()
	for i := range data {
		//nolint:gosec // stochastic regularization, not security-critical
		if rand.Float32() < d.p {
			data[i] = 0
		} else {
			data[i] *= scale
		}
	}
	return output
}

// Parameters returns an empty slice; dropout has no parameters.
func (d *Dropout[B]) Parameters() []*Parameter[B] {
	return nil
}

// Train switches the module into training mode.
func (d *Dropout[B]) Train() {
	d.training = true
}

// Eval switches the module into evaluation mode.
func (d *Dropout[B]) Eval() {
	d.training = false
}

// P returns the dropout probability.
func (d *Dropout[B]) P() float32 {
	return d.p
}
