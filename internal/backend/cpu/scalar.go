package cpu

import (
	"fmt"

	"github.com/peft-ml/peft/internal/tensor"
)

// MulScalar multiplies every element by a scalar.
// The scalar must match the tensor's dtype.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("mulscalar: failed to create result tensor: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		s, ok := scalar.(float32)
		if !ok {
			panic(fmt.Sprintf("mulscalar: expected float32 scalar for %s tensor, got %T", x.DType(), scalar))
		}
		xd, rd := x.AsFloat32(), result.AsFloat32()
		for i := range xd {
			rd[i] = xd[i] * s
		}
	case tensor.Float64:
		s, ok := scalar.(float64)
		if !ok {
			panic(fmt.Sprintf("mulscalar: expected float64 scalar for %s tensor, got %T", x.DType(), scalar))
		}
		xd, rd := x.AsFloat64(), result.AsFloat64()
		for i := range xd {
			rd[i] = xd[i] * s
		}
	default:
		panic(fmt.Sprintf("mulscalar: unsupported dtype %s", x.DType()))
	}

	return result
}
