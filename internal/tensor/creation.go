package tensor

import (
	"fmt"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err) // shape validation should prevent this
	}
	// buffer is already zero-initialized by make()
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, T(1), b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Rand creates a tensor with values drawn from U(0, 1).
// Uses math/rand, which is appropriate for weight initialization.
func Rand[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		//nolint:gosec // statistical initialization, not security-critical
		data[i] = T(rand.Float64())
	}
	return t
}

// Randn creates a tensor with values drawn from N(0, 1).
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		//nolint:gosec // statistical initialization, not security-critical
		data[i] = T(rand.NormFloat64())
	}
	return t
}

// Eye creates a 2D identity matrix of size n.
func Eye[T DType, B Backend](n int, b B) *Tensor[T, B] {
	t := Zeros[T, B](Shape{n, n}, b)
	data := t.Data()
	for i := 0; i < n; i++ {
		data[i*n+i] = T(1)
	}
	return t
}

// Diag embeds a 1D vector into a square matrix with the vector on the
// main diagonal.
//
// Example:
//
//	v, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
//	m := tensor.Diag(v) // [[1 0 0] [0 2 0] [0 0 3]]
func Diag[T DType, B Backend](v *Tensor[T, B]) *Tensor[T, B] {
	shape := v.Shape()
	if len(shape) != 1 {
		panic(fmt.Sprintf("Diag: expected 1D vector, got shape %v", shape))
	}
	n := shape[0]
	t := Zeros[T, B](Shape{n, n}, v.Backend())
	src := v.Data()
	dst := t.Data()
	for i := 0; i < n; i++ {
		dst[i*n+i] = src[i]
	}
	return t
}
