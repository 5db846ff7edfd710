package nn

import (
	"math"

	"github.com/djeday123/gomt/backend"
	"github.com/djeday123/gomt/core"
	"github.com/djeday123/gomt/tensor"
)

// GRUCell is a single-layer gated recurrent unit.
//
// Gate layout in the fused projections is [r | z | n], each a HiddenSize
// chunk:
//
//	r = sigmoid(Wih_r·x + Whh_r·h)            reset gate
//	z = sigmoid(Wih_z·x + Whh_z·h)            update gate
//	n = tanh(Wih_n·x + r ⊙ Whh_n·h)           candidate state
//	h' = (1-z) ⊙ n + z ⊙ h
type GRUCell struct {
	Ih *Linear // input projection:  [3*hidden, inSize], with bias
	Hh *Linear // hidden projection: [3*hidden, hidden], with bias

	InSize     int
	HiddenSize int
}

// gruCache stores one step's intermediates for the backward pass.
type gruCache struct {
	x, h       []float32 // inputs
	r, z, n    []float32 // gate activations
	ghn        []float32 // Whh_n·h + bhh_n, needed for the reset-gate grad
}

// NewGRUCell creates a GRU cell with fused gate projections.
func NewGRUCell(be backend.Backend, inSize, hiddenSize int) (*GRUCell, error) {
	ih, err := NewLinear(be, inSize, 3*hiddenSize, true)
	if err != nil {
		return nil, err
	}
	hh, err := NewLinear(be, hiddenSize, 3*hiddenSize, true)
	if err != nil {
		return nil, err
	}
	return &GRUCell{Ih: ih, Hh: hh, InSize: inSize, HiddenSize: hiddenSize}, nil
}

// Step advances the recurrence by one input vector.
// x: [inSize], h: [hidden] → newState: [hidden]
func (c *GRUCell) Step(x, h []float32) ([]float32, *gruCache, error) {
	if len(x) != c.InSize {
		return nil, nil, &core.ShapeMismatchError{Ctx: "gru input", Want: core.Shape{c.InSize}, Got: core.Shape{len(x)}}
	}
	if len(h) != c.HiddenSize {
		return nil, nil, &core.ShapeMismatchError{Ctx: "gru state", Want: core.Shape{c.HiddenSize}, Got: core.Shape{len(h)}}
	}

	gi, err := c.Ih.Apply(x) // [3*hidden]
	if err != nil {
		return nil, nil, err
	}
	gh, err := c.Hh.Apply(h) // [3*hidden]
	if err != nil {
		return nil, nil, err
	}

	H := c.HiddenSize
	r := make([]float32, H)
	z := make([]float32, H)
	n := make([]float32, H)
	ghn := make([]float32, H)
	hNew := make([]float32, H)

	for i := 0; i < H; i++ {
		r[i] = sigmoid(gi[i] + gh[i])
		z[i] = sigmoid(gi[H+i] + gh[H+i])
		ghn[i] = gh[2*H+i]
		n[i] = float32(math.Tanh(float64(gi[2*H+i] + r[i]*ghn[i])))
		hNew[i] = (1-z[i])*n[i] + z[i]*h[i]
	}

	cache := &gruCache{
		x: cloneVec(x), h: cloneVec(h),
		r: r, z: z, n: n, ghn: ghn,
	}
	return hNew, cache, nil
}

// Parameters returns all trainable parameters.
func (c *GRUCell) Parameters() []*tensor.Tensor {
	return append(c.Ih.Parameters(), c.Hh.Parameters()...)
}

func sigmoid(x float32) float32 {
	return 1.0 / (1.0 + float32(math.Exp(float64(-x))))
}

func cloneVec(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
