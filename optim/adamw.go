package optim

import (
	"math"

	"github.com/djeday123/gomt/tensor"
)

// AdamW implements the AdamW optimizer (decoupled weight decay).
type AdamW struct {
	Params      []*tensor.Tensor
	LR          float64 // learning rate
	Beta1       float64 // first moment decay (default 0.9)
	Beta2       float64 // second moment decay (default 0.999)
	Eps         float64 // numerical stability (default 1e-8)
	WeightDecay float64 // decoupled L2 (default 0.01)

	// State
	m    [][]float32 // first moment (mean of gradients)
	v    [][]float32 // second moment (mean of squared gradients)
	step int
}

// NewAdamW creates an optimizer with standard defaults.
func NewAdamW(params []*tensor.Tensor, lr float64) *AdamW {
	m := make([][]float32, len(params))
	v := make([][]float32, len(params))
	for i, p := range params {
		n := p.NumElements()
		m[i] = make([]float32, n)
		v[i] = make([]float32, n)
	}

	return &AdamW{
		Params:      params,
		LR:          lr,
		Beta1:       0.9,
		Beta2:       0.999,
		Eps:         1e-8,
		WeightDecay: 0.01,
		m:           m,
		v:           v,
	}
}

// Step performs one optimization step.
// Gradients must be set on each parameter tensor before calling.
func (opt *AdamW) Step() {
	opt.step++

	// Bias correction factors
	bc1 := 1.0 - math.Pow(opt.Beta1, float64(opt.step))
	bc2 := 1.0 - math.Pow(opt.Beta2, float64(opt.step))

	for i, param := range opt.Params {
		if param.Grad() == nil {
			continue
		}

		pData := param.ToFloat32Slice()
		gData := param.Grad().ToFloat32Slice()
		m := opt.m[i]
		v := opt.v[i]

		for j := 0; j < len(pData); j++ {
			g := gData[j]

			// Update moments
			m[j] = float32(opt.Beta1)*m[j] + float32(1-opt.Beta1)*g
			v[j] = float32(opt.Beta2)*v[j] + float32(1-opt.Beta2)*g*g

			// Bias-corrected moments
			mHat := float64(m[j]) / bc1
			vHat := float64(v[j]) / bc2

			// Adam update
			update := mHat / (math.Sqrt(vHat) + opt.Eps)

			// Decoupled weight decay (AdamW)
			pData[j] -= float32(opt.LR) * (float32(update) + float32(opt.WeightDecay)*pData[j])
		}
	}
}

// ZeroGrad clears all gradients.
func (opt *AdamW) ZeroGrad() {
	zeroGrads(opt.Params)
}
