package tensor_test

import (
	"testing"

	"github.com/peft-ml/peft/internal/backend/cpu"
	"github.com/peft-ml/peft/internal/tensor"
)

func TestShape(t *testing.T) {
	s := tensor.Shape{2, 3, 4}

	if s.NumElements() != 24 {
		t.Errorf("NumElements() = %d, want 24", s.NumElements())
	}
	if !s.Equal(tensor.Shape{2, 3, 4}) {
		t.Error("Equal() should match identical shapes")
	}
	if s.Equal(tensor.Shape{2, 3}) {
		t.Error("Equal() should reject shapes of different rank")
	}

	strides := s.ComputeStrides()
	want := []int{12, 4, 1}
	for i := range want {
		if strides[i] != want[i] {
			t.Errorf("ComputeStrides()[%d] = %d, want %d", i, strides[i], want[i])
		}
	}

	if err := (tensor.Shape{2, 0}).Validate(); err == nil {
		t.Error("Validate() should reject zero dimensions")
	}
}

func TestZerosAndOnes(t *testing.T) {
	backend := cpu.New()

	z := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
	for _, v := range z.Data() {
		if v != 0 {
			t.Fatalf("Zeros produced %v", v)
		}
	}

	o := tensor.Ones[float64](tensor.Shape{3}, backend)
	for _, v := range o.Data() {
		if v != 1 {
			t.Fatalf("Ones produced %v", v)
		}
	}
}

func TestFromSlice(t *testing.T) {
	backend := cpu.New()

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if x.At(1, 2) != 6 {
		t.Errorf("At(1,2) = %v, want 6", x.At(1, 2))
	}

	if _, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2, 3}, backend); err == nil {
		t.Error("FromSlice should reject mismatched element counts")
	}
}

func TestDiag(t *testing.T) {
	backend := cpu.New()

	v, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	m := tensor.Diag(v)
	if !m.Shape().Equal(tensor.Shape{3, 3}) {
		t.Fatalf("Diag shape = %v, want [3, 3]", m.Shape())
	}
	want := []float32{1, 0, 0, 0, 2, 0, 0, 0, 3}
	for i, v := range m.Data() {
		if v != want[i] {
			t.Errorf("Diag data[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestRequiresGradFlag(t *testing.T) {
	backend := cpu.New()
	x := tensor.Zeros[float32](tensor.Shape{2}, backend)

	if x.RequiresGrad() {
		t.Error("RequiresGrad() should be false initially")
	}
	x.RequireGrad()
	if !x.RequiresGrad() {
		t.Error("RequireGrad() should set the flag")
	}
	x.SetRequiresGrad(false)
	if x.RequiresGrad() {
		t.Error("SetRequiresGrad(false) should clear the flag")
	}
}

// TestFrozenTensorStillMutable checks the frozen-weight escape hatch:
// clearing the gradient flag does not prevent in-place value updates.
func TestFrozenTensorStillMutable(t *testing.T) {
	backend := cpu.New()
	x := tensor.Zeros[float32](tensor.Shape{2}, backend)
	x.SetRequiresGrad(false)

	y, err := tensor.FromSlice([]float32{5, 7}, tensor.Shape{2}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	x.CopyFrom(y)

	if x.At(0) != 5 || x.At(1) != 7 {
		t.Errorf("CopyFrom did not overwrite values: %v", x.Data())
	}
	if x.RequiresGrad() {
		t.Error("CopyFrom must not touch the gradient flag")
	}
}

func TestClone(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	y := x.Clone()
	y.Set(9, 0)
	if x.At(0) != 1 {
		t.Error("Clone should not share data with the original")
	}
}

func TestCasts(t *testing.T) {
	backend := cpu.New()
	x, err := tensor.FromSlice([]float32{1.5, -2.25}, tensor.Shape{2}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	x64 := x.Float64()
	if x64.DType() != tensor.Float64 {
		t.Fatalf("Float64() dtype = %v", x64.DType())
	}
	back := x64.Float32()
	for i, v := range back.Data() {
		if v != x.Data()[i] {
			t.Errorf("cast round-trip data[%d] = %v, want %v", i, v, x.Data()[i])
		}
	}
}
