package nn

import (
	"github.com/djeday123/gomt/core"
	"github.com/djeday123/gomt/tensor"
)

// Analytic backward passes. Forward code above runs through ops/backend;
// the reverse passes work directly on flat float32 slices and accumulate
// into each parameter tensor's grad buffer.

// ---- Linear backward ----

// backward computes gradients for one vector application of a Linear.
// x: [inF], dout: [outF] → dx: [inF]; accumulates dW and dBias.
func (l *Linear) backward(x, dout []float32) []float32 {
	w := l.Weight.ToFloat32Slice()

	// dW += dout ⊗ x
	dW := gradSlice(l.Weight)
	for o := 0; o < l.OutF; o++ {
		g := dout[o]
		if g == 0 {
			continue
		}
		for i := 0; i < l.InF; i++ {
			dW[o*l.InF+i] += g * x[i]
		}
	}

	if l.Bias != nil {
		dB := gradSlice(l.Bias)
		for o := 0; o < l.OutF; o++ {
			dB[o] += dout[o]
		}
	}

	// dx = W^T · dout
	dx := make([]float32, l.InF)
	for o := 0; o < l.OutF; o++ {
		g := dout[o]
		if g == 0 {
			continue
		}
		for i := 0; i < l.InF; i++ {
			dx[i] += g * w[o*l.InF+i]
		}
	}
	return dx
}

// ---- Embedding backward ----

// accumulateRowGrad scatters one token's gradient back into the table.
func (e *Embedding) accumulateRowGrad(id int, dout []float32) {
	dW := gradSlice(e.Weight)
	off := id * e.EmbedDim
	for d := 0; d < e.EmbedDim; d++ {
		dW[off+d] += dout[d]
	}
}

// ---- GRU backward ----

// Backward propagates dhNew through one cached step.
// Returns (dx, dhPrev) and accumulates gradients on both projections.
func (c *GRUCell) Backward(cache *gruCache, dhNew []float32) (dx, dhPrev []float32) {
	H := c.HiddenSize

	dgi := make([]float32, 3*H)
	dgh := make([]float32, 3*H)
	dhPrev = make([]float32, H)

	for i := 0; i < H; i++ {
		r, z, n := cache.r[i], cache.z[i], cache.n[i]
		dh := dhNew[i]

		// h' = (1-z)·n + z·h
		dz := dh * (cache.h[i] - n)
		dn := dh * (1 - z)
		dhPrev[i] = dh * z

		// n = tanh(gi_n + r·gh_n)
		dnPre := dn * (1 - n*n)
		dgi[2*H+i] = dnPre
		dgh[2*H+i] = dnPre * r
		dr := dnPre * cache.ghn[i]

		// z = sigmoid(gi_z + gh_z)
		dzPre := dz * z * (1 - z)
		dgi[H+i] = dzPre
		dgh[H+i] = dzPre

		// r = sigmoid(gi_r + gh_r)
		drPre := dr * r * (1 - r)
		dgi[i] = drPre
		dgh[i] = drPre
	}

	dx = c.Ih.backward(cache.x, dgi)
	dhFromGates := c.Hh.backward(cache.h, dgh)
	for i := 0; i < H; i++ {
		dhPrev[i] += dhFromGates[i]
	}
	return dx, dhPrev
}

// ---- Encoder backward (backprop through time) ----

// Backward runs BPTT over a cached encode pass. dOutputs holds one
// gradient per source position (entries may be nil), dFinal the gradient
// on the final state (may be nil). The encoder output at position t and
// the carried state are the same node, so their gradients add.
func (e *Encoder) Backward(cache *EncoderCache, dOutputs [][]float32, dFinal []float32) error {
	n := len(cache.steps)
	if dOutputs != nil && len(dOutputs) != n {
		return &core.ShapeMismatchError{Ctx: "encoder output grads", Want: core.Shape{n}, Got: core.Shape{len(dOutputs)}}
	}

	dh := make([]float32, e.hidden)
	if dFinal != nil {
		copy(dh, dFinal)
	}

	for t := n - 1; t >= 0; t-- {
		if dOutputs != nil && dOutputs[t] != nil {
			for i := range dh {
				dh[i] += dOutputs[t][i]
			}
		}
		dx, dhPrev := e.Cell.Backward(cache.steps[t], dh)
		e.Embed.accumulateRowGrad(cache.ids[t], dx)
		dh = dhPrev
	}
	return nil
}

// ---- Shared helpers ----

// gradSlice returns the parameter's grad buffer, allocating it on first use.
func gradSlice(param *tensor.Tensor) []float32 {
	if param.Grad() == nil {
		g, err := tensor.Zeros(param.Backend(), param.Shape(), param.DType())
		if err != nil {
			panic(err) // allocation failure on CPU is unrecoverable
		}
		param.SetGrad(g)
	}
	return param.Grad().ToFloat32Slice()
}

// logSoftmaxBackward maps a gradient on log-probs to a gradient on logits:
// dlogits_i = dlp_i - exp(lp_i) * sum(dlp).
func logSoftmaxBackward(logProbs, dLogProbs []float32) []float32 {
	var sum float32
	for _, g := range dLogProbs {
		sum += g
	}
	out := make([]float32, len(logProbs))
	for i := range out {
		out[i] = dLogProbs[i] - float32(expf(logProbs[i]))*sum
	}
	return out
}

// reluBackward masks a gradient by the pre-activation sign.
func reluBackward(pre, dout []float32) []float32 {
	out := make([]float32, len(pre))
	for i := range pre {
		if pre[i] > 0 {
			out[i] = dout[i]
		}
	}
	return out
}
