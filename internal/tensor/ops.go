package tensor

// Operations on Tensor delegate to the backend and wrap the resulting
// RawTensor. Shape misuse panics inside the backend, matching the
// single-writer tensor-math contract: callers are responsible for
// well-formed shapes.

// Add performs element-wise addition.
// The other operand may be a broadcastable row vector.
func (t *Tensor[T, B]) Add(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Add(t.raw, other.raw), t.backend)
}

// Sub performs element-wise subtraction.
func (t *Tensor[T, B]) Sub(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Sub(t.raw, other.raw), t.backend)
}

// Mul performs element-wise multiplication.
func (t *Tensor[T, B]) Mul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.Mul(t.raw, other.raw), t.backend)
}

// MatMul performs matrix multiplication: (M, K) @ (K, N) -> (M, N).
func (t *Tensor[T, B]) MatMul(other *Tensor[T, B]) *Tensor[T, B] {
	return New[T, B](t.backend.MatMul(t.raw, other.raw), t.backend)
}

// MulScalar multiplies every element by a scalar.
func (t *Tensor[T, B]) MulScalar(scalar T) *Tensor[T, B] {
	return New[T, B](t.backend.MulScalar(t.raw, scalar), t.backend)
}

// Transpose swaps the two dimensions of a 2D tensor.
func (t *Tensor[T, B]) Transpose() *Tensor[T, B] {
	return New[T, B](t.backend.Transpose(t.raw), t.backend)
}

// T is shorthand for Transpose.
func (t *Tensor[T, B]) T() *Tensor[T, B] {
	return t.Transpose()
}

// Reshape returns a tensor with the same data and a new shape.
// The element count must be preserved.
func (t *Tensor[T, B]) Reshape(dims ...int) *Tensor[T, B] {
	return New[T, B](t.backend.Reshape(t.raw, Shape(dims)), t.backend)
}

// Float32 casts the tensor to float32.
func (t *Tensor[T, B]) Float32() *Tensor[float32, B] {
	return New[float32, B](t.backend.Cast(t.raw, Float32), t.backend)
}

// Float64 casts the tensor to float64.
// Numerically sensitive routines (SVD) upcast through this before
// decomposing and cast back afterwards.
func (t *Tensor[T, B]) Float64() *Tensor[float64, B] {
	return New[float64, B](t.backend.Cast(t.raw, Float64), t.backend)
}
