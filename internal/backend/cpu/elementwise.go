package cpu

import (
	"fmt"

	"github.com/peft-ml/peft/internal/tensor"
)

// Element-wise binary operations. Operands must have equal shapes, or
// the second operand must be a row vector ([n] or [1, n]) broadcast
// across the rows of a 2D first operand. That covers bias addition and
// the per-column scaling-vector products of the adapter math.

// Add performs element-wise addition.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("add", a, b,
		func(x, y float32) float32 { return x + y },
		func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("sub", a, b,
		func(x, y float32) float32 { return x - y },
		func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("mul", a, b,
		func(x, y float32) float32 { return x * y },
		func(x, y float64) float64 { return x * y })
}

func (cpu *CPUBackend) binaryOp(
	name string,
	a, b *tensor.RawTensor,
	op32 func(x, y float32) float32,
	op64 func(x, y float64) float64,
) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", name, a.DType(), b.DType()))
	}

	cols, broadcast := broadcastCols(name, a.Shape(), b.Shape())

	result, err := tensor.NewRaw(a.Shape(), a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	switch a.DType() {
	case tensor.Float32:
		ad, bd, rd := a.AsFloat32(), b.AsFloat32(), result.AsFloat32()
		if broadcast {
			for i := range ad {
				rd[i] = op32(ad[i], bd[i%cols])
			}
		} else {
			for i := range ad {
				rd[i] = op32(ad[i], bd[i])
			}
		}
	case tensor.Float64:
		ad, bd, rd := a.AsFloat64(), b.AsFloat64(), result.AsFloat64()
		if broadcast {
			for i := range ad {
				rd[i] = op64(ad[i], bd[i%cols])
			}
		} else {
			for i := range ad {
				rd[i] = op64(ad[i], bd[i])
			}
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}

	return result
}

// broadcastCols validates operand shapes and reports whether the second
// operand is a broadcast row vector, returning the row length.
func broadcastCols(name string, aShape, bShape tensor.Shape) (cols int, broadcast bool) {
	if aShape.Equal(bShape) {
		return 0, false
	}

	bVec := bShape
	if len(bVec) == 2 && bVec[0] == 1 {
		bVec = bVec[1:]
	}
	if len(aShape) == 2 && len(bVec) == 1 && bVec[0] == aShape[1] {
		return aShape[1], true
	}

	panic(fmt.Sprintf("%s: incompatible shapes %v and %v", name, aShape, bShape))
}
