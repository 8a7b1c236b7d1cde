package cpu

import (
	"fmt"

	"github.com/peft-ml/peft/internal/tensor"
)

// Cast converts a tensor to a different data type.
// Casting to the same dtype returns a copy.
func (cpu *CPUBackend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x.Clone()
	}

	result, err := tensor.NewRaw(x.Shape(), dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("cast: failed to create result tensor: %v", err))
	}

	switch {
	case x.DType() == tensor.Float32 && dtype == tensor.Float64:
		xd, rd := x.AsFloat32(), result.AsFloat64()
		for i := range xd {
			rd[i] = float64(xd[i])
		}
	case x.DType() == tensor.Float64 && dtype == tensor.Float32:
		xd, rd := x.AsFloat64(), result.AsFloat32()
		for i := range xd {
			rd[i] = float32(xd[i])
		}
	default:
		panic(fmt.Sprintf("cast: unsupported conversion %s -> %s", x.DType(), dtype))
	}

	return result
}
