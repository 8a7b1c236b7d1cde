// Package nn implements the neural network modules of the PEFT adapter
// library:
//   - Module interface: base interface for all NN components
//   - Parameter: parameter with a per-tensor trainable flag
//   - Linear: fully connected donor layer
//   - Dropout: stochastic input transform for the low-rank path
//   - VeraLinear: mergeable low-rank adapter with scaling vectors
//
// Design follows the facade-over-internal convention used across the
// repository; the public nn package aliases these types.
package nn

import (
	"github.com/peft-ml/peft/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all parameters of this module, trainable and
	// frozen. Use Parameter.Trainable to distinguish them.
	Parameters() []*Parameter[B]
}

// ModeModule is implemented by modules whose behavior depends on the
// training/evaluation mode. Containers call Train or Eval on every
// nested module when switching modes; both transitions are idempotent.
type ModeModule interface {
	// Train switches the module into training mode.
	Train()

	// Eval switches the module into evaluation mode.
	Eval()
}
