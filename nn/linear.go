package nn

import (
	"math"
	"math/rand"

	"github.com/djeday123/gomt/backend"
	"github.com/djeday123/gomt/ops"
	"github.com/djeday123/gomt/tensor"
)

// Linear implements y = x @ W^T + bias
type Linear struct {
	Weight *tensor.Tensor // [outFeatures, inFeatures]
	Bias   *tensor.Tensor // [outFeatures] or nil
	InF    int
	OutF   int
}

// NewLinear creates a linear layer with Kaiming initialization.
func NewLinear(be backend.Backend, inFeatures, outFeatures int, bias bool) (*Linear, error) {
	// Kaiming He init: scale = sqrt(2 / fan_in)
	scale := math.Sqrt(2.0 / float64(inFeatures))

	wData := make([]float32, outFeatures*inFeatures)
	for i := range wData {
		wData[i] = float32(rand.NormFloat64() * scale)
	}

	w, err := tensor.FromSlice(be, wData, tensor.Shape{outFeatures, inFeatures})
	if err != nil {
		return nil, err
	}
	w.SetRequiresGrad(true)

	l := &Linear{Weight: w, InF: inFeatures, OutF: outFeatures}

	if bias {
		bData := make([]float32, outFeatures)
		b, err := tensor.FromSlice(be, bData, tensor.Shape{outFeatures})
		if err != nil {
			return nil, err
		}
		b.SetRequiresGrad(true)
		l.Bias = b
	}

	return l, nil
}

// Forward computes y = x @ W^T + bias.
// x shape: [n, inFeatures] → output: [n, outFeatures]
func (l *Linear) Forward(x *tensor.Tensor) (*tensor.Tensor, error) {
	// W^T: [inFeatures, outFeatures]
	wT, err := l.Weight.T()
	if err != nil {
		return nil, err
	}

	out, err := ops.MatMul(x, wT)
	if err != nil {
		return nil, err
	}

	if l.Bias != nil {
		out, err = ops.Add(out, l.Bias)
		if err != nil {
			return nil, err
		}
	}

	return out, nil
}

// Apply runs the layer on a single flat vector.
func (l *Linear) Apply(x []float32) ([]float32, error) {
	t, err := rowTensor(l.Weight.Backend(), x)
	if err != nil {
		return nil, err
	}
	out, err := l.Forward(t)
	if err != nil {
		return nil, err
	}
	return rowData(out), nil
}

// Parameters returns all trainable parameters.
func (l *Linear) Parameters() []*tensor.Tensor {
	if l.Bias != nil {
		return []*tensor.Tensor{l.Weight, l.Bias}
	}
	return []*tensor.Tensor{l.Weight}
}

// rowTensor wraps a flat vector as a [1, n] tensor on the given backend.
func rowTensor(be backend.Backend, v []float32) (*tensor.Tensor, error) {
	return tensor.FromSlice(be, v, tensor.Shape{1, len(v)})
}

// rowData copies a [1, n] tensor back to a flat vector.
func rowData(t *tensor.Tensor) []float32 {
	src := t.ToFloat32Slice()
	out := make([]float32, len(src))
	copy(out, src)
	return out
}
