package optim

import "github.com/djeday123/gomt/tensor"

// SGD implements plain stochastic gradient descent: p -= lr * grad.
// The classic recipe for per-sentence seq2seq training.
type SGD struct {
	Params []*tensor.Tensor
	LR     float64
}

// NewSGD creates an SGD optimizer.
func NewSGD(params []*tensor.Tensor, lr float64) *SGD {
	return &SGD{Params: params, LR: lr}
}

// Step applies one update. Gradients must be set on each parameter.
func (opt *SGD) Step() {
	lr := float32(opt.LR)
	for _, param := range opt.Params {
		if param.Grad() == nil {
			continue
		}
		p := param.ToFloat32Slice()
		g := param.Grad().ToFloat32Slice()
		for i := range p {
			p[i] -= lr * g[i]
		}
	}
}

// ZeroGrad clears all gradients.
func (opt *SGD) ZeroGrad() {
	zeroGrads(opt.Params)
}
