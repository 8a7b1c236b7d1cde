package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peft-ml/peft/internal/backend/cpu"
	"github.com/peft-ml/peft/internal/nn"
	"github.com/peft-ml/peft/internal/tensor"
)

func TestLinear_Creation(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear(10, 5, backend)

	assert.Equal(t, 10, layer.InFeatures())
	assert.Equal(t, 5, layer.OutFeatures())
	assert.True(t, layer.Weight().Tensor().Shape().Equal(tensor.Shape{10, 5}))
	assert.True(t, layer.Bias().Tensor().Shape().Equal(tensor.Shape{5}))
	assert.True(t, layer.Weight().Trainable())
	require.Len(t, layer.Parameters(), 2)
}

func TestLinear_NoBias(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinearNoBias(10, 5, backend)

	assert.Nil(t, layer.Bias())
	require.Len(t, layer.Parameters(), 1)
}

func TestLinear_Forward(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear(2, 3, backend)

	// Overwrite weights with known values: W = [[1 2 3], [4 5 6]], b = [0.5 0.5 0.5].
	copy(layer.Weight().Tensor().Data(), []float32{1, 2, 3, 4, 5, 6})
	copy(layer.Bias().Tensor().Data(), []float32{0.5, 0.5, 0.5})

	input, err := tensor.FromSlice([]float32{1, 1, 2, -1}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	output := layer.Forward(input)
	require.True(t, output.Shape().Equal(tensor.Shape{2, 3}))

	// Row 0: [1 1] @ W + b = [5.5 7.5 9.5]
	// Row 1: [2 -1] @ W + b = [-1.5 -0.5 0.5]
	assert.InDeltaSlice(t, []float32{5.5, 7.5, 9.5, -1.5, -0.5, 0.5}, output.Data(), 1e-6)
}

func TestLinear_ForwardPanicsOnBadShape(t *testing.T) {
	backend := cpu.New()
	layer := nn.NewLinear(2, 3, backend)

	input, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{1, 3}, backend)
	require.NoError(t, err)

	assert.Panics(t, func() { layer.Forward(input) })
}

func TestKaimingUniform_Bound(t *testing.T) {
	backend := cpu.New()

	// fan_in = 100, a = sqrt(5): bound = sqrt(2/(1+5)) * sqrt(3/100).
	w := nn.KaimingUniform(100, 2.2360679, tensor.Shape{100, 10}, backend)
	bound := float32(0.1) // sqrt(1/3) * sqrt(3/100) = 1/10
	for _, v := range w.Data() {
		assert.LessOrEqual(t, v, bound)
		assert.GreaterOrEqual(t, v, -bound)
	}
}
