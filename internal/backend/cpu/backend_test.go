package cpu_test

import (
	"testing"

	"github.com/peft-ml/peft/internal/backend/cpu"
	"github.com/peft-ml/peft/internal/tensor"
)

func fromSlice32(t *testing.T, data []float32, shape tensor.Shape) *tensor.Tensor[float32, *cpu.CPUBackend] {
	t.Helper()
	x, err := tensor.FromSlice(data, shape, cpu.New())
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return x
}

func TestMatMulFloat32(t *testing.T) {
	a := fromSlice32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := fromSlice32(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	c := a.MatMul(b)
	if !c.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("shape = %v, want [2, 2]", c.Shape())
	}
	want := []float32{58, 64, 139, 154}
	for i, v := range c.Data() {
		if v != want[i] {
			t.Errorf("data[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestMatMulFloat64(t *testing.T) {
	backend := cpu.New()
	a, err := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	b, err := tensor.FromSlice([]float64{5, 6, 7, 8}, tensor.Shape{2, 2}, backend)
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}

	c := a.MatMul(b)
	want := []float64{19, 22, 43, 50}
	for i, v := range c.Data() {
		if v != want[i] {
			t.Errorf("data[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestMatMulShapeMismatchPanics(t *testing.T) {
	a := fromSlice32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := fromSlice32(t, []float32{1, 2, 3}, tensor.Shape{3, 1})

	defer func() {
		if recover() == nil {
			t.Error("expected panic on inner dimension mismatch")
		}
	}()
	a.MatMul(b)
}

func TestAddSameShape(t *testing.T) {
	a := fromSlice32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := fromSlice32(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	c := a.Add(b)
	want := []float32{11, 22, 33, 44}
	for i, v := range c.Data() {
		if v != want[i] {
			t.Errorf("data[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestAddBroadcastRow(t *testing.T) {
	a := fromSlice32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	// Bias as [1, 3].
	bias := fromSlice32(t, []float32{10, 20, 30}, tensor.Shape{1, 3})
	c := a.Add(bias)
	want := []float32{11, 22, 33, 14, 25, 36}
	for i, v := range c.Data() {
		if v != want[i] {
			t.Errorf("data[%d] = %v, want %v", i, v, want[i])
		}
	}

	// Same vector as [3].
	vec := fromSlice32(t, []float32{10, 20, 30}, tensor.Shape{3})
	c2 := a.Add(vec)
	for i, v := range c2.Data() {
		if v != want[i] {
			t.Errorf("vector broadcast data[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestSubAndMul(t *testing.T) {
	a := fromSlice32(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})
	b := fromSlice32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})

	sub := a.Sub(b)
	for i, v := range sub.Data() {
		if v != 4 {
			t.Errorf("sub data[%d] = %v, want 4", i, v)
		}
	}

	mul := a.Mul(b)
	want := []float32{5, 12, 21, 32}
	for i, v := range mul.Data() {
		if v != want[i] {
			t.Errorf("mul data[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestMulScalar(t *testing.T) {
	a := fromSlice32(t, []float32{1, -2, 3}, tensor.Shape{3})
	c := a.MulScalar(0.5)
	want := []float32{0.5, -1, 1.5}
	for i, v := range c.Data() {
		if v != want[i] {
			t.Errorf("data[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestTranspose(t *testing.T) {
	a := fromSlice32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	at := a.Transpose()

	if !at.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("shape = %v, want [3, 2]", at.Shape())
	}
	want := []float32{1, 4, 2, 5, 3, 6}
	for i, v := range at.Data() {
		if v != want[i] {
			t.Errorf("data[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestReshape(t *testing.T) {
	a := fromSlice32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	r := a.Reshape(3, 2)

	if !r.Shape().Equal(tensor.Shape{3, 2}) {
		t.Fatalf("shape = %v, want [3, 2]", r.Shape())
	}
	for i, v := range r.Data() {
		if v != a.Data()[i] {
			t.Fatalf("reshape must preserve row-major data order, data[%d] = %v", i, v)
		}
	}
}

func TestCast(t *testing.T) {
	backend := cpu.New()
	a := fromSlice32(t, []float32{1.25, -3.5}, tensor.Shape{2})

	a64 := backend.Cast(a.Raw(), tensor.Float64)
	data := a64.AsFloat64()
	if data[0] != 1.25 || data[1] != -3.5 {
		t.Errorf("cast data = %v", data)
	}
}
