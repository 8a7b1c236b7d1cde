package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/peft-ml/peft/internal/tensor"
)

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
// The float64 path is routed through gonum's BLAS-backed mat.Dense;
// float32 uses a cache-friendly ikj loop.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(aShape), len(bShape)))
	}
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("matmul: dtype mismatch %s vs %s", a.DType(), b.DType()))
	}

	m, k := aShape[0], aShape[1]
	kAlt, n := bShape[0], bShape[1]
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result, err := tensor.NewRaw(tensor.Shape{m, n}, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("matmul: failed to create result tensor: %v", err))
	}

	switch a.DType() {
	case tensor.Float32:
		matmulFloat32(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), m, k, n)
	case tensor.Float64:
		matmulFloat64(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), m, k, n)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", a.DType()))
	}

	return result
}

// matmulFloat32 computes C[i,j] = sum_k A[i,k] * B[k,j] with the loop
// order rearranged for sequential access on both operands.
func matmulFloat32(c, a, b []float32, m, k, n int) {
	for i := range c {
		c[i] = 0
	}
	for i := 0; i < m; i++ {
		for kk := 0; kk < k; kk++ {
			aik := a[i*k+kk]
			if aik == 0 {
				continue
			}
			bRow := b[kk*n : kk*n+n]
			cRow := c[i*n : i*n+n]
			for j := range bRow {
				cRow[j] += aik * bRow[j]
			}
		}
	}
}

func matmulFloat64(c, a, b []float64, m, k, n int) {
	am := mat.NewDense(m, k, a)
	bm := mat.NewDense(k, n, b)
	cm := mat.NewDense(m, n, c)
	cm.Mul(am, bm)
}
