package nn

import "math"

// LossFunc scores one decode step against the true target token.
// Input is a log-probability distribution.
type LossFunc func(logProbs []float32, target int) float64

// NLL is the negative log likelihood of the target token. This is the
// criterion the training loop differentiates.
func NLL(logProbs []float32, target int) float64 {
	return -float64(logProbs[target])
}

// NLLGrad writes the gradient of NLL w.r.t. the log-probs into dst:
// -1 at the target, 0 elsewhere.
func NLLGrad(dst []float32, target int) {
	for i := range dst {
		dst[i] = 0
	}
	dst[target] = -1
}

func expf(x float32) float32 {
	return float32(math.Exp(float64(x)))
}
