package cpu

import (
	"fmt"

	"github.com/peft-ml/peft/internal/tensor"
)

// Transpose swaps the two dimensions of a 2D tensor.
func (cpu *CPUBackend) Transpose(x *tensor.RawTensor) *tensor.RawTensor {
	shape := x.Shape()
	if len(shape) != 2 {
		panic(fmt.Sprintf("transpose: only 2D tensors supported, got %dD", len(shape)))
	}
	rows, cols := shape[0], shape[1]

	result, err := tensor.NewRaw(tensor.Shape{cols, rows}, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("transpose: failed to create result tensor: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		xd, rd := x.AsFloat32(), result.AsFloat32()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				rd[j*rows+i] = xd[i*cols+j]
			}
		}
	case tensor.Float64:
		xd, rd := x.AsFloat64(), result.AsFloat64()
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				rd[j*rows+i] = xd[i*cols+j]
			}
		}
	default:
		panic(fmt.Sprintf("transpose: unsupported dtype %s", x.DType()))
	}

	return result
}

// Reshape returns a copy of the tensor with a new shape.
func (cpu *CPUBackend) Reshape(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	return x.WithShape(shape)
}
