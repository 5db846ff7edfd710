package translate

import (
	"fmt"

	"github.com/djeday123/gomt/core"
	"github.com/djeday123/gomt/nn"
	"github.com/djeday123/gomt/vocab"
)

// Translator greedily decodes target ids for a source id sequence.
// It holds no mutable state; one Translator can serve many calls.
type Translator struct {
	Enc *nn.Encoder
	Dec nn.Decoder

	// MaxLength is the attention window capacity.
	MaxLength int

	// MaxSteps bounds the decode loop. Zero means the default heuristic:
	// stop after len(source) steps if EOS never appears.
	MaxSteps int
}

// New creates a translator over a trained model.
func New(m *nn.Seq2Seq) *Translator {
	return &Translator{Enc: m.Encoder, Dec: m.Decoder, MaxLength: m.Config.MaxLength}
}

// Translate decodes greedily until EOS or the step bound. The trailing
// EOS id is included in the output when it was produced. Hitting the
// bound returns the partial translation together with an
// UnboundedDecodeError so callers can distinguish it from a clean stop.
func (tr *Translator) Translate(source []int) ([]int, error) {
	if len(source) == 0 {
		return nil, fmt.Errorf("translate: empty source sequence")
	}

	outputs, state, err := tr.Enc.Encode(source)
	if err != nil {
		return nil, err
	}
	window, err := nn.BuildWindow(outputs, tr.MaxLength, tr.Enc.HiddenSize())
	if err != nil {
		return nil, err
	}

	bound := tr.MaxSteps
	if bound <= 0 {
		bound = len(source)
	}

	result := make([]int, 0, bound)
	prev := vocab.SOS
	for i := 0; i < bound; i++ {
		step, err := tr.Dec.Step(prev, state, window)
		if err != nil {
			return nil, fmt.Errorf("translate: step %d: %w", i, err)
		}
		next := nn.ArgMax(step.LogProbs)
		result = append(result, next)
		if next == vocab.EOS {
			return result, nil
		}
		prev = next
		state = step.State
	}

	return result, &core.UnboundedDecodeError{Steps: bound}
}
