package nn

import (
	"errors"
	"fmt"
	"math"

	"github.com/peft-ml/peft/internal/linalg"
	"github.com/peft-ml/peft/internal/tensor"
)

// Configuration errors raised at construction.
var (
	// ErrInvalidRank is returned when the requested rank is not a
	// positive integer.
	ErrInvalidRank = errors.New("vera rank r must be a positive integer")

	// ErrPissaScaling is returned when PiSSA initialization is requested
	// with vera_alpha != r. PiSSA folds the top-r singular component out
	// of the base weight, which is only reversible when scaling == 1.
	ErrPissaScaling = errors.New("pissa init requires vera_alpha == r so that scaling == 1")

	// ErrShapeMismatch is returned when the donor layer's weight does
	// not match the declared feature dimensions.
	ErrShapeMismatch = errors.New("donor weight shape does not match declared features")
)

// VeraLinear is a dense layer with a mergeable low-rank adaptation and
// two injected scaling vectors (the VeRA scheme).
//
// The effective weight is
//
//	W_eff = W + scaling · A · diag(d) · B · diag(b)
//
// where W is the frozen copy of the donor layer's weight, A [in, r] and
// B [r, out] are the trainable low-rank factors and d [r], b [out] are
// the trainable scaling vectors. While unmerged the low-rank term is
// added explicitly in Forward; merging folds it into W so inference
// runs a single dense matmul. Forward output is identical either way,
// up to floating-point rounding.
//
// W is excluded from gradient computation for the lifetime of the
// layer, but its values are mutated in place by merge/unmerge and by
// PiSSA initialization.
type VeraLinear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	r           int
	veraAlpha   int
	scaling     float32

	weight *Parameter[B] // frozen, [in_features, out_features]
	bias   *Parameter[B] // pass-through from the donor, may be nil

	loraA *Parameter[B] // [in_features, r]
	loraB *Parameter[B] // [r, out_features]
	veraB *Parameter[B] // [out_features]
	veraD *Parameter[B] // [r]

	dropout *Dropout[B] // nil means identity

	merged       bool
	mergeWeights bool
	training     bool

	backend B
}

// VeraOptions configures VeraLinear construction.
// The zero value gives alpha = 1 (set during validation), no dropout,
// no weight merging and random initialization.
type VeraOptions struct {
	R            int     // rank of the low-rank factors, must be >= 1
	VeraAlpha    int     // scaling numerator; scaling = VeraAlpha / R
	VeraDropout  float32 // dropout probability on the low-rank input path
	MergeWeights bool    // fold the adaptation into the weight on Eval
	PissaInit    bool    // derive factors from the weight's singular subspace
}

// NewVeraLinear constructs a VeraLinear from a donor Linear layer.
//
// The donor's weight is copied and frozen; the bias is shared untouched.
// The declared feature dimensions must match the donor weight's shape.
// With PissaInit the factors are derived from the dominant singular
// directions of the weight and that component is subtracted from it;
// otherwise A gets Kaiming-uniform values and B starts at zero, so the
// adapter begins as an exact no-op.
func NewVeraLinear[B tensor.Backend](donor *Linear[B], inFeatures, outFeatures int, opts VeraOptions, backend B) (*VeraLinear[B], error) {
	if opts.R < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRank, opts.R)
	}
	if opts.VeraAlpha == 0 {
		opts.VeraAlpha = 1
	}
	if opts.VeraDropout < 0 || opts.VeraDropout >= 1 {
		return nil, fmt.Errorf("vera dropout probability must be in [0, 1), got %v", opts.VeraDropout)
	}

	donorShape := donor.Weight().Tensor().Shape()
	if !donorShape.Equal(tensor.Shape{inFeatures, outFeatures}) {
		return nil, fmt.Errorf("%w: donor %v, declared [%d, %d]", ErrShapeMismatch, donorShape, inFeatures, outFeatures)
	}

	l := &VeraLinear[B]{
		inFeatures:   inFeatures,
		outFeatures:  outFeatures,
		r:            opts.R,
		veraAlpha:    opts.VeraAlpha,
		mergeWeights: opts.MergeWeights,
		training:     true,
		backend:      backend,
	}

	// Copy the pretrained weight and exclude it from gradient updates.
	weight := donor.Weight().Tensor().Clone()
	l.weight = NewParameter("weight", weight)
	l.weight.Freeze()
	l.bias = donor.Bias()

	if opts.VeraDropout > 0 {
		d, err := NewDropout[B](opts.VeraDropout)
		if err != nil {
			return nil, err
		}
		l.dropout = d
	}

	if opts.PissaInit {
		if opts.VeraAlpha != opts.R {
			return nil, fmt.Errorf("%w: vera_alpha=%d, r=%d", ErrPissaScaling, opts.VeraAlpha, opts.R)
		}
		l.scaling = 1
		if err := l.pissaInit(); err != nil {
			return nil, err
		}
	} else {
		l.scaling = float32(opts.VeraAlpha) / float32(opts.R)
		a := KaimingUniform(inFeatures, negativeSlopeDefault, tensor.Shape{inFeatures, opts.R}, backend)
		b := Zeros[B](tensor.Shape{opts.R, outFeatures}, backend)
		l.loraA = NewParameter("lora_A", a)
		l.loraB = NewParameter("lora_B", b)
	}

	l.veraB = NewParameter("vera_b", Ones[B](tensor.Shape{outFeatures}, backend))
	l.veraD = NewParameter("vera_d", Ones[B](tensor.Shape{opts.R}, backend))

	return l, nil
}

// pissaInit derives the low-rank factors from the top-r singular
// triplets of the frozen weight and removes that component from it:
//
//	A = Ur · diag(sqrt(Sr)),  B = diag(sqrt(Sr)) · Vhr,  W ← W − A·B
//
// A·B is the best rank-r approximation of W, so with the scaling
// vectors at their all-ones init the layer still reconstructs the donor
// exactly while gradients flow into the dominant singular subspace.
// The decomposition runs in float64; the stored weight keeps float32.
func (l *VeraLinear[B]) pissaInit() error {
	k := min(l.inFeatures, l.outFeatures)
	if l.r > k {
		return fmt.Errorf("%w: pissa rank %d exceeds min(in, out) = %d", ErrInvalidRank, l.r, k)
	}

	w64 := l.weight.Tensor().Float64()
	u, s, vt, err := linalg.SVDThin(w64.Raw())
	if err != nil {
		return err
	}

	uData := u.AsFloat64()
	sData := s.AsFloat64()
	vtData := vt.AsFloat64()

	// A[i,j] = U[i,j] · sqrt(S[j]),  B[j,i] = sqrt(S[j]) · Vt[j,i],
	// restricted to the first r singular triplets.
	a64 := make([]float64, l.inFeatures*l.r)
	for i := 0; i < l.inFeatures; i++ {
		for j := 0; j < l.r; j++ {
			a64[i*l.r+j] = uData[i*k+j] * math.Sqrt(sData[j])
		}
	}
	b64 := make([]float64, l.r*l.outFeatures)
	for j := 0; j < l.r; j++ {
		root := math.Sqrt(sData[j])
		for i := 0; i < l.outFeatures; i++ {
			b64[j*l.outFeatures+i] = root * vtData[j*l.outFeatures+i]
		}
	}

	aT, err := tensor.FromSlice(a64, tensor.Shape{l.inFeatures, l.r}, l.backend)
	if err != nil {
		return err
	}
	bT, err := tensor.FromSlice(b64, tensor.Shape{l.r, l.outFeatures}, l.backend)
	if err != nil {
		return err
	}

	// Residual after removing the captured component, cast back to the
	// stored precision in place.
	residual := w64.Sub(aT.MatMul(bT))
	l.weight.Tensor().CopyFrom(residual.Float32())

	l.loraA = NewParameter("lora_A", aT.Float32())
	l.loraB = NewParameter("lora_B", bT.Float32())
	return nil
}

// deltaWeight computes A · diag(d) · B · diag(b), the unscaled low-rank
// contribution with the scaling vectors applied.
func (l *VeraLinear[B]) deltaWeight() *tensor.Tensor[float32, B] {
	diagD := tensor.Diag(l.veraD.Tensor())
	diagB := tensor.Diag(l.veraB.Tensor())
	return l.loraA.Tensor().MatMul(diagD).MatMul(l.loraB.Tensor()).MatMul(diagB)
}

// Forward computes the adapted output.
//
// The base affine map always runs against the stored weight. While
// unmerged the scaled low-rank term is added on top; once merged it
// already lives inside the weight and is never applied twice.
func (l *VeraLinear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	output := input.MatMul(l.weight.Tensor())
	if l.bias != nil {
		output = output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
	}

	if !l.merged {
		adapted := input
		if l.dropout != nil {
			adapted = l.dropout.Forward(input)
		}
		output = output.Add(adapted.MatMul(l.deltaWeight()).MulScalar(l.scaling))
	}
	return output
}

// Train enters training mode. If weights were merged for evaluation the
// low-rank component is subtracted back out so the factors are
// trainable separately again. Repeated calls are no-ops.
func (l *VeraLinear[B]) Train() {
	l.training = true
	if l.dropout != nil {
		l.dropout.Train()
	}
	if l.mergeWeights && l.merged {
		w := l.weight.Tensor()
		w.CopyFrom(w.Sub(l.deltaWeight().MulScalar(l.scaling)))
		l.merged = false
	}
}

// Eval enters evaluation mode. With MergeWeights set, the low-rank
// component is folded into the weight so inference runs a single dense
// matmul. Repeated calls are no-ops.
func (l *VeraLinear[B]) Eval() {
	l.training = false
	if l.dropout != nil {
		l.dropout.Eval()
	}
	if l.mergeWeights && !l.merged {
		w := l.weight.Tensor()
		w.CopyFrom(w.Add(l.deltaWeight().MulScalar(l.scaling)))
		l.merged = true
	}
}

// Parameters returns every parameter of the layer: the frozen weight,
// the shared bias when present, and the four trainable adapter tensors.
func (l *VeraLinear[B]) Parameters() []*Parameter[B] {
	params := []*Parameter[B]{l.weight}
	if l.bias != nil {
		params = append(params, l.bias)
	}
	return append(params, l.loraA, l.loraB, l.veraB, l.veraD)
}

// Merged reports whether the low-rank component is currently folded
// into the weight.
func (l *VeraLinear[B]) Merged() bool {
	return l.merged
}

// Rank returns the rank of the low-rank factors.
func (l *VeraLinear[B]) Rank() int {
	return l.r
}

// Scaling returns the derived scaling factor vera_alpha / r.
func (l *VeraLinear[B]) Scaling() float32 {
	return l.scaling
}

// Weight returns the frozen weight parameter.
func (l *VeraLinear[B]) Weight() *Parameter[B] {
	return l.weight
}

// LoraA returns the A factor parameter.
func (l *VeraLinear[B]) LoraA() *Parameter[B] {
	return l.loraA
}

// LoraB returns the B factor parameter.
func (l *VeraLinear[B]) LoraB() *Parameter[B] {
	return l.loraB
}

// VeraB returns the output-side scaling vector parameter.
func (l *VeraLinear[B]) VeraB() *Parameter[B] {
	return l.veraB
}

// VeraD returns the rank-side scaling vector parameter.
func (l *VeraLinear[B]) VeraD() *Parameter[B] {
	return l.veraD
}

// InFeatures returns the number of input features.
func (l *VeraLinear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *VeraLinear[B]) OutFeatures() int {
	return l.outFeatures
}

// String describes the layer.
func (l *VeraLinear[B]) String() string {
	return fmt.Sprintf("VeraLinear(in_features=%d, out_features=%d, rank=%d)", l.inFeatures, l.outFeatures, l.r)
}
