// Package linalg bridges tensors to gonum's dense linear algebra
// routines for the decompositions the adapter initializers need.
package linalg

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/peft-ml/peft/internal/tensor"
)

// ErrSVDFailed is returned when the decomposition does not converge.
// Callers must not proceed with a partial factorization: a bad
// decomposition would corrupt any weight derived from it.
var ErrSVDFailed = errors.New("singular value decomposition did not converge")

// SVDThin computes the economy singular value decomposition of a 2D
// float64 tensor: x = U · diag(S) · Vt with U [m, k], S [k], Vt [k, n]
// and k = min(m, n).
func SVDThin(x *tensor.RawTensor) (u, s, vt *tensor.RawTensor, err error) {
	shape := x.Shape()
	if len(shape) != 2 {
		return nil, nil, nil, fmt.Errorf("svd: expected 2D tensor, got shape %v", shape)
	}
	if x.DType() != tensor.Float64 {
		return nil, nil, nil, fmt.Errorf("svd: expected float64 tensor, got %s", x.DType())
	}

	m, n := shape[0], shape[1]
	k := min(m, n)

	var svd mat.SVD
	if ok := svd.Factorize(mat.NewDense(m, n, x.AsFloat64()), mat.SVDThin); !ok {
		return nil, nil, nil, ErrSVDFailed
	}

	var um, vm mat.Dense
	svd.UTo(&um)
	svd.VTo(&vm)
	values := svd.Values(nil)

	u, err = rawFromDense(&um, m, k, x.Device())
	if err != nil {
		return nil, nil, nil, err
	}

	s, err = tensor.NewRaw(tensor.Shape{k}, tensor.Float64, x.Device())
	if err != nil {
		return nil, nil, nil, err
	}
	copy(s.AsFloat64(), values)

	// gonum returns V [n, k]; transpose into Vt [k, n].
	vt, err = tensor.NewRaw(tensor.Shape{k, n}, tensor.Float64, x.Device())
	if err != nil {
		return nil, nil, nil, err
	}
	vtData := vt.AsFloat64()
	for i := 0; i < k; i++ {
		for j := 0; j < n; j++ {
			vtData[i*n+j] = vm.At(j, i)
		}
	}

	return u, s, vt, nil
}

func rawFromDense(d *mat.Dense, rows, cols int, device tensor.Device) (*tensor.RawTensor, error) {
	raw, err := tensor.NewRaw(tensor.Shape{rows, cols}, tensor.Float64, device)
	if err != nil {
		return nil, err
	}
	data := raw.AsFloat64()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data[i*cols+j] = d.At(i, j)
		}
	}
	return raw, nil
}
