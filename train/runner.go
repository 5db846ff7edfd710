package train

import (
	"fmt"

	"github.com/djeday123/gomt/nn"
	"github.com/djeday123/gomt/vocab"
)

// LossRunner drives a decoder across a whole target sequence and
// accumulates loss. With forcing enabled the true target token is fed at
// every step; without it the decoder eats its own argmax picks.
type LossRunner struct {
	Criterion nn.LossFunc // defaults to nn.NLL when nil
}

// RunResult is one decoded sequence with everything Backward needs.
type RunResult struct {
	Loss   float64          // summed over decoded steps
	Steps  []*nn.DecodeStep // one per decoded position, in order
	Fed    []int            // token fed as input at step j+1
	Target []int            // the target ids scored against
}

// AvgLoss is the per-step loss, the number reported in training logs.
func (r *RunResult) AvgLoss() float64 {
	if len(r.Steps) == 0 {
		return 0
	}
	return r.Loss / float64(len(r.Steps))
}

// Run decodes against target starting from SOS and the given state.
// Every produced step is scored, including the one that emits EOS; the
// loop exits as soon as the token chosen for the next step is EOS, in
// both forced and self-fed mode.
func (lr *LossRunner) Run(dec nn.Decoder, target []int, initState []float32, window *nn.AttnWindow, forced bool) (*RunResult, error) {
	if len(target) == 0 {
		return nil, fmt.Errorf("run: empty target sequence")
	}

	criterion := lr.Criterion
	if criterion == nil {
		criterion = nn.NLL
	}

	res := &RunResult{
		Steps:  make([]*nn.DecodeStep, 0, len(target)),
		Fed:    make([]int, 0, len(target)),
		Target: target,
	}

	prev := vocab.SOS
	state := initState

	for j := 0; j < len(target); j++ {
		step, err := dec.Step(prev, state, window)
		if err != nil {
			return nil, fmt.Errorf("run: step %d: %w", j, err)
		}

		res.Loss += criterion(step.LogProbs, target[j])
		res.Steps = append(res.Steps, step)

		// Forcing feeds ground truth; otherwise the pick is detached
		// from the gradient path as a plain token id.
		fed := target[j]
		if !forced {
			fed = nn.ArgMax(step.LogProbs)
		}
		res.Fed = append(res.Fed, fed)

		if fed == vocab.EOS {
			break
		}
		prev = fed
		state = step.State
	}

	return res, nil
}

// Backward runs backpropagation through a decoded sequence. The loss is
// taken as the summed negative log likelihood of the targets, matching
// Run with the default criterion.
//
// Parameter gradients accumulate in place. The returned slices are the
// gradient w.r.t. the initial decoder state and the flattened attention
// window (nil when window is nil); both flow back into the encoder.
func (lr *LossRunner) Backward(dec nn.TrainableDecoder, res *RunResult, window *nn.AttnWindow) (dInitState, dWindow []float32, err error) {
	var dState []float32
	if window != nil {
		dWindow = make([]float32, window.MaxLen()*window.Dim())
	}

	for j := len(res.Steps) - 1; j >= 0; j-- {
		step := res.Steps[j]

		dLogProbs := make([]float32, len(step.LogProbs))
		nn.NLLGrad(dLogProbs, res.Target[j])

		dState, err = dec.Backward(step, dLogProbs, dState, dWindow)
		if err != nil {
			return nil, nil, fmt.Errorf("backward: step %d: %w", j, err)
		}
	}

	return dState, dWindow, nil
}
