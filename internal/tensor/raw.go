package tensor

import (
	"fmt"
	"unsafe"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices. Only CPU is implemented; the Backend
// interface keeps the door open for accelerator backends.
const (
	CPU Device = iota
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	default:
		return "Unknown"
	}
}

// RawTensor is the low-level, type-erased tensor representation.
// It owns a contiguous row-major byte buffer plus shape and stride
// metadata. Backends operate on RawTensor; the generic Tensor wraps it.
type RawTensor struct {
	data   []byte
	shape  Shape
	stride []int
	dtype  DataType
	device Device
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is allocated zero-initialized.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	byteSize := shape.NumElements() * dtype.Size()
	return &RawTensor{
		data:   make([]byte, byteSize),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the device where the tensor data resides.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// Bytes returns the raw byte buffer.
// Used by serialization; mutating the returned slice mutates the tensor.
func (r *RawTensor) Bytes() []byte {
	return r.data
}

// AsFloat32 reinterprets the buffer as a float32 slice.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("AsFloat32 called on %s tensor", r.dtype))
	}
	if len(r.data) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsFloat64 reinterprets the buffer as a float64 slice.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("AsFloat64 called on %s tensor", r.dtype))
	}
	if len(r.data) == 0 {
		return nil
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// Clone returns a deep copy of the raw tensor.
func (r *RawTensor) Clone() *RawTensor {
	clone := &RawTensor{
		data:   make([]byte, len(r.data)),
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
	}
	copy(clone.data, r.data)
	return clone
}

// CopyFrom overwrites this tensor's buffer with the contents of other.
// Shapes and dtypes must match exactly. This is the in-place escape hatch
// used to mutate gradient-frozen weights.
func (r *RawTensor) CopyFrom(other *RawTensor) {
	if !r.shape.Equal(other.shape) {
		panic(fmt.Sprintf("CopyFrom: shape mismatch %v vs %v", r.shape, other.shape))
	}
	if r.dtype != other.dtype {
		panic(fmt.Sprintf("CopyFrom: dtype mismatch %s vs %s", r.dtype, other.dtype))
	}
	copy(r.data, other.data)
}

// WithShape returns a view-copy of the tensor with a new shape.
// The element count must be preserved.
func (r *RawTensor) WithShape(shape Shape) *RawTensor {
	if shape.NumElements() != r.NumElements() {
		panic(fmt.Sprintf("WithShape: cannot reshape %v (%d elements) to %v (%d elements)",
			r.shape, r.NumElements(), shape, shape.NumElements()))
	}
	clone := r.Clone()
	clone.shape = shape.Clone()
	clone.stride = shape.ComputeStrides()
	return clone
}
