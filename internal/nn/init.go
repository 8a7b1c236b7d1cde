package nn

import (
	"math"
	"math/rand"

	"github.com/peft-ml/peft/internal/tensor"
)

// negativeSlopeDefault is the rectifier slope used for dense-layer
// weight initialization, sqrt(5).
var negativeSlopeDefault = math.Sqrt(5)

// KaimingUniform initializes a weight tensor with values drawn from
// U(-bound, bound) where bound = sqrt(6 / ((1 + a²) · fan_in)) and a is
// the negative slope of the following rectifier.
//
// With a = sqrt(5) this matches the default initialization of dense
// layers in the reference implementations this library mirrors.
func KaimingUniform[B tensor.Backend](fanIn int, negativeSlope float64, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	gain := math.Sqrt(2.0 / (1.0 + negativeSlope*negativeSlope))
	bound := gain * math.Sqrt(3.0/float64(fanIn))

	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		//nolint:gosec // statistical initialization, not security-critical
		data[i] = float32((rand.Float64()*2.0 - 1.0) * bound)
	}
	return t
}

// Zeros creates a tensor filled with zeros.
// Used for the B factor so a freshly constructed adapter is a no-op.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// Ones creates a tensor filled with ones.
// Used for the injected scaling vectors.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Ones[float32](shape, backend)
}
