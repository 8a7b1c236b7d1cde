package tensor

// Backend defines the interface compute backends must implement.
// Backends operate on RawTensor and handle the actual arithmetic; the
// generic Tensor type dispatches to them.
//
// The CPU backend (backend/cpu) is the reference implementation. The
// adapter core never assumes a concrete backend: every layer is generic
// over B so an accelerator backend can be swapped in without touching
// the adapter math.
type Backend interface {
	// Element-wise binary operations. The second operand may be a
	// broadcastable row vector ([n] or [1, n] against [m, n]).
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
	MatMul(a, b *RawTensor) *RawTensor

	// Scalar operations.
	MulScalar(x *RawTensor, scalar any) *RawTensor

	// Shape operations.
	Transpose(x *RawTensor) *RawTensor
	Reshape(x *RawTensor, shape Shape) *RawTensor

	// Cast converts between data types.
	Cast(x *RawTensor, dtype DataType) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
