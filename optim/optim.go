package optim

import "github.com/djeday123/gomt/tensor"

// Optimizer updates parameters from gradients accumulated by a backward
// pass. Weight mutation happens strictly between forward/backward cycles.
type Optimizer interface {
	Step()
	ZeroGrad()
}

func zeroGrads(params []*tensor.Tensor) {
	for _, p := range params {
		p.ZeroGrad()
	}
}
