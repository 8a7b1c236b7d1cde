package nn_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peft-ml/peft/internal/backend/cpu"
	"github.com/peft-ml/peft/internal/nn"
	"github.com/peft-ml/peft/internal/tensor"
)

type Backend = *cpu.CPUBackend

// fillAdapter gives the adapter parameters non-trivial values so that
// merge transitions actually move the weight.
func fillAdapter(layer *nn.VeraLinear[Backend]) {
	aData := layer.LoraA().Tensor().Data()
	for i := range aData {
		aData[i] = 0.05 * float32(i%7-3)
	}
	bData := layer.LoraB().Tensor().Data()
	for i := range bData {
		bData[i] = 0.1 * float32(i%5-2)
	}
	dData := layer.VeraD().Tensor().Data()
	for i := range dData {
		dData[i] = 1.0 + 0.1*float32(i)
	}
	vData := layer.VeraB().Tensor().Data()
	for i := range vData {
		vData[i] = 1.0 - 0.05*float32(i)
	}
}

func newInput(t *testing.T, backend Backend, rows, cols int) *tensor.Tensor[float32, Backend] {
	t.Helper()
	data := make([]float32, rows*cols)
	for i := range data {
		data[i] = 0.01 * float32(i%11-5)
	}
	input, err := tensor.FromSlice(data, tensor.Shape{rows, cols}, backend)
	require.NoError(t, err)
	return input
}

func TestVeraLinear_InvalidRank(t *testing.T) {
	backend := cpu.New()
	donor := nn.NewLinear(8, 4, backend)

	_, err := nn.NewVeraLinear(donor, 8, 4, nn.VeraOptions{R: 0}, backend)
	require.ErrorIs(t, err, nn.ErrInvalidRank)

	_, err = nn.NewVeraLinear(donor, 8, 4, nn.VeraOptions{R: -1}, backend)
	require.ErrorIs(t, err, nn.ErrInvalidRank)
}

func TestVeraLinear_PissaRequiresMatchingAlpha(t *testing.T) {
	backend := cpu.New()
	donor := nn.NewLinear(8, 4, backend)

	_, err := nn.NewVeraLinear(donor, 8, 4, nn.VeraOptions{R: 3, VeraAlpha: 2, PissaInit: true}, backend)
	require.ErrorIs(t, err, nn.ErrPissaScaling)
}

func TestVeraLinear_DonorShapeMismatch(t *testing.T) {
	backend := cpu.New()
	donor := nn.NewLinear(8, 4, backend)

	_, err := nn.NewVeraLinear(donor, 4, 8, nn.VeraOptions{R: 2}, backend)
	require.ErrorIs(t, err, nn.ErrShapeMismatch)
}

func TestVeraLinear_InvalidDropout(t *testing.T) {
	backend := cpu.New()
	donor := nn.NewLinear(8, 4, backend)

	_, err := nn.NewVeraLinear(donor, 8, 4, nn.VeraOptions{R: 2, VeraDropout: 1.0}, backend)
	require.Error(t, err)
}

// TestVeraLinear_ZeroInitNoOp checks that a freshly constructed adapter
// with default initialization computes exactly the donor's output:
// lora_B starts at zero, so the low-rank contribution vanishes.
func TestVeraLinear_ZeroInitNoOp(t *testing.T) {
	backend := cpu.New()
	donor := nn.NewLinear(8, 4, backend)

	layer, err := nn.NewVeraLinear(donor, 8, 4, nn.VeraOptions{R: 2}, backend)
	require.NoError(t, err)

	// lora_B is the all-zeros [2, 4] matrix.
	require.True(t, layer.LoraB().Tensor().Shape().Equal(tensor.Shape{2, 4}))
	for _, v := range layer.LoraB().Tensor().Data() {
		require.Zero(t, v)
	}

	input := newInput(t, backend, 3, 8)
	got := layer.Forward(input)
	want := donor.Forward(input)
	assert.Equal(t, want.Data(), got.Data())
}

func TestVeraLinear_FrozenWeightTrainableAdapters(t *testing.T) {
	backend := cpu.New()
	donor := nn.NewLinear(8, 4, backend)

	layer, err := nn.NewVeraLinear(donor, 8, 4, nn.VeraOptions{R: 2}, backend)
	require.NoError(t, err)

	assert.False(t, layer.Weight().Trainable())
	assert.True(t, layer.LoraA().Trainable())
	assert.True(t, layer.LoraB().Trainable())
	assert.True(t, layer.VeraB().Trainable())
	assert.True(t, layer.VeraD().Trainable())

	// Scaling vectors start at ones.
	for _, v := range layer.VeraB().Tensor().Data() {
		assert.Equal(t, float32(1), v)
	}
	for _, v := range layer.VeraD().Tensor().Data() {
		assert.Equal(t, float32(1), v)
	}
}

// TestVeraLinear_MergeTransparency checks the central invariant: the
// forward output is the same whether the low-rank component lives in
// the factors or folded into the weight.
func TestVeraLinear_MergeTransparency(t *testing.T) {
	backend := cpu.New()
	donor := nn.NewLinear(8, 4, backend)

	layer, err := nn.NewVeraLinear(donor, 8, 4, nn.VeraOptions{R: 2, VeraAlpha: 4, MergeWeights: true}, backend)
	require.NoError(t, err)
	fillAdapter(layer)

	input := newInput(t, backend, 3, 8)

	unmerged := layer.Forward(input)
	require.False(t, layer.Merged())

	layer.Eval()
	require.True(t, layer.Merged())
	merged := layer.Forward(input)

	assert.InDeltaSlice(t, unmerged.Data(), merged.Data(), 1e-4)

	// Round-trip back to training mode reproduces the original output.
	layer.Train()
	require.False(t, layer.Merged())
	roundTrip := layer.Forward(input)
	assert.InDeltaSlice(t, unmerged.Data(), roundTrip.Data(), 1e-4)
}

// TestVeraLinear_IdempotentTransitions checks that repeated transitions
// into the same mode leave the weight untouched.
func TestVeraLinear_IdempotentTransitions(t *testing.T) {
	backend := cpu.New()
	donor := nn.NewLinear(8, 4, backend)

	layer, err := nn.NewVeraLinear(donor, 8, 4, nn.VeraOptions{R: 2, MergeWeights: true}, backend)
	require.NoError(t, err)
	fillAdapter(layer)

	layer.Eval()
	afterFirst := append([]float32(nil), layer.Weight().Tensor().Data()...)
	layer.Eval()
	assert.Equal(t, afterFirst, layer.Weight().Tensor().Data())

	layer.Train()
	afterFirst = append([]float32(nil), layer.Weight().Tensor().Data()...)
	layer.Train()
	assert.Equal(t, afterFirst, layer.Weight().Tensor().Data())
}

func TestVeraLinear_NoMergeWhenDisabled(t *testing.T) {
	backend := cpu.New()
	donor := nn.NewLinear(8, 4, backend)

	layer, err := nn.NewVeraLinear(donor, 8, 4, nn.VeraOptions{R: 2, MergeWeights: false}, backend)
	require.NoError(t, err)
	fillAdapter(layer)

	before := append([]float32(nil), layer.Weight().Tensor().Data()...)
	layer.Eval()
	assert.False(t, layer.Merged())
	assert.Equal(t, before, layer.Weight().Tensor().Data())

	layer.Train()
	assert.False(t, layer.Merged())
	assert.Equal(t, before, layer.Weight().Tensor().Data())
}

// TestVeraLinear_PissaReconstruction checks that after PiSSA init the
// residual weight plus the scaled low-rank component reconstructs the
// donor weight.
func TestVeraLinear_PissaReconstruction(t *testing.T) {
	backend := cpu.New()
	donor := nn.NewLinear(8, 4, backend)
	original := append([]float32(nil), donor.Weight().Tensor().Data()...)

	layer, err := nn.NewVeraLinear(donor, 8, 4, nn.VeraOptions{R: 2, VeraAlpha: 2, PissaInit: true}, backend)
	require.NoError(t, err)
	require.Equal(t, float32(1), layer.Scaling())

	// With the scaling vectors still at ones, adding the low-rank
	// component back restores the original weight.
	diagD := tensor.Diag(layer.VeraD().Tensor())
	diagB := tensor.Diag(layer.VeraB().Tensor())
	delta := layer.LoraA().Tensor().MatMul(diagD).MatMul(layer.LoraB().Tensor()).MatMul(diagB)
	reconstructed := layer.Weight().Tensor().Add(delta.MulScalar(layer.Scaling()))

	assert.InDeltaSlice(t, original, reconstructed.Data(), 1e-4)

	// The donor itself is untouched by PiSSA: only the layer's copy of
	// the weight had the top-r component removed.
	assert.Equal(t, original, donor.Weight().Tensor().Data())
}

// TestVeraLinear_PissaForwardMatchesDonor checks the identity
// reconstruction at initialization: the PiSSA-initialized layer
// computes the same outputs as the donor.
func TestVeraLinear_PissaForwardMatchesDonor(t *testing.T) {
	backend := cpu.New()
	donor := nn.NewLinear(8, 4, backend)

	layer, err := nn.NewVeraLinear(donor, 8, 4, nn.VeraOptions{R: 2, VeraAlpha: 2, PissaInit: true}, backend)
	require.NoError(t, err)

	input := newInput(t, backend, 3, 8)
	assert.InDeltaSlice(t, donor.Forward(input).Data(), layer.Forward(input).Data(), 1e-4)
}

func TestVeraLinear_PissaRankBound(t *testing.T) {
	backend := cpu.New()
	donor := nn.NewLinear(8, 4, backend)

	// min(8, 4) = 4, rank 5 cannot be extracted.
	_, err := nn.NewVeraLinear(donor, 8, 4, nn.VeraOptions{R: 5, VeraAlpha: 5, PissaInit: true}, backend)
	require.ErrorIs(t, err, nn.ErrInvalidRank)
}

func TestVeraLinear_ScalingAndString(t *testing.T) {
	backend := cpu.New()
	donor := nn.NewLinear(8, 4, backend)

	layer, err := nn.NewVeraLinear(donor, 8, 4, nn.VeraOptions{R: 2, VeraAlpha: 4}, backend)
	require.NoError(t, err)

	assert.Equal(t, float32(2), layer.Scaling())
	assert.Equal(t, 2, layer.Rank())
	assert.Equal(t, "VeraLinear(in_features=8, out_features=4, rank=2)", layer.String())
}

func TestVeraLinear_Parameters(t *testing.T) {
	backend := cpu.New()
	donor := nn.NewLinear(8, 4, backend)

	layer, err := nn.NewVeraLinear(donor, 8, 4, nn.VeraOptions{R: 2}, backend)
	require.NoError(t, err)

	// weight, bias, lora_A, lora_B, vera_b, vera_d
	params := layer.Parameters()
	require.Len(t, params, 6)

	trainable := 0
	for _, p := range params {
		if p.Trainable() {
			trainable += p.NumElements()
		}
	}
	// bias (4) + lora_A (16) + lora_B (8) + vera_b (4) + vera_d (2)
	assert.Equal(t, 34, trainable)
}
