package tensor

import "fmt"

// Tensor is a generic tensor with element type T and backend B.
// It provides type-safe operations over the type-erased RawTensor.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
//	sum := t.Add(t)
type Tensor[T DType, B Backend] struct {
	raw          *RawTensor
	backend      B
	requiresGrad bool
}

// New creates a Tensor from a RawTensor and backend.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return &Tensor[T, B]{
		raw:     raw,
		backend: b,
	}
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		return nil, err
	}

	t := New[T, B](raw, b)
	copy(t.Data(), data)
	return t, nil
}

// Shape returns the tensor's shape.
func (t *Tensor[T, B]) Shape() Shape {
	return t.raw.Shape()
}

// DType returns the tensor's data type.
func (t *Tensor[T, B]) DType() DataType {
	return t.raw.DType()
}

// NumElements returns the total number of elements.
func (t *Tensor[T, B]) NumElements() int {
	return t.raw.NumElements()
}

// Raw returns the underlying RawTensor.
// Used by backend implementations and serialization.
func (t *Tensor[T, B]) Raw() *RawTensor {
	return t.raw
}

// Backend returns the computation backend.
func (t *Tensor[T, B]) Backend() B {
	return t.backend
}

// Data returns the tensor's data as a typed slice.
// Mutating the slice mutates the tensor.
func (t *Tensor[T, B]) Data() []T {
	switch t.raw.DType() {
	case Float32:
		return any(t.raw.AsFloat32()).([]T)
	case Float64:
		return any(t.raw.AsFloat64()).([]T)
	default:
		panic(fmt.Sprintf("Data: unsupported dtype %s", t.raw.DType()))
	}
}

// At returns the element at the given indices.
func (t *Tensor[T, B]) At(indices ...int) T {
	return t.Data()[t.flatIndex(indices)]
}

// Set writes value at the given indices.
func (t *Tensor[T, B]) Set(value T, indices ...int) {
	t.Data()[t.flatIndex(indices)] = value
}

func (t *Tensor[T, B]) flatIndex(indices []int) int {
	shape := t.raw.Shape()
	if len(indices) != len(shape) {
		panic(fmt.Sprintf("expected %d indices for shape %v, got %d", len(shape), shape, len(indices)))
	}
	strides := t.raw.stride
	flat := 0
	for i, idx := range indices {
		if idx < 0 || idx >= shape[i] {
			panic(fmt.Sprintf("index %d out of range for dimension %d (size %d)", idx, i, shape[i]))
		}
		flat += idx * strides[i]
	}
	return flat
}

// Clone returns a deep copy of the tensor.
// The gradient-tracking flag is not carried over.
func (t *Tensor[T, B]) Clone() *Tensor[T, B] {
	return New[T, B](t.raw.Clone(), t.backend)
}

// CopyFrom overwrites this tensor's values in place with those of other.
// Shapes must match. The tensor's identity (and its gradient-tracking
// flag) is preserved, which is what merge/unmerge rely on when mutating
// a frozen weight.
func (t *Tensor[T, B]) CopyFrom(other *Tensor[T, B]) {
	t.raw.CopyFrom(other.raw)
}

// RequireGrad marks the tensor as requiring gradient computation and
// returns it for chaining.
func (t *Tensor[T, B]) RequireGrad() *Tensor[T, B] {
	t.requiresGrad = true
	return t
}

// RequiresGrad returns true if this tensor requires gradient computation.
func (t *Tensor[T, B]) RequiresGrad() bool {
	return t.requiresGrad
}

// SetRequiresGrad sets the gradient-tracking flag.
// Freezing a tensor excludes it from gradient-based updates but does not
// make it immutable: CopyFrom still overwrites its values.
func (t *Tensor[T, B]) SetRequiresGrad(requires bool) {
	t.requiresGrad = requires
}

// String returns a short description of the tensor.
func (t *Tensor[T, B]) String() string {
	return fmt.Sprintf("Tensor[%s]%v", t.raw.DType(), t.raw.Shape())
}
