package nn

import (
	"fmt"

	"github.com/djeday123/gomt/backend"
	"github.com/djeday123/gomt/core"
	"github.com/djeday123/gomt/ops"
	"github.com/djeday123/gomt/tensor"
)

// DecodeStep is the result of one autoregressive decode step.
type DecodeStep struct {
	LogProbs []float32 // log-probability per target vocabulary id; exp sums to 1
	State    []float32 // updated recurrent state, same size as the input state
	Weights  []float32 // attention weights (maxLen, sums to 1); nil without attention

	cache any // backward intermediates, owned by the producing decoder
}

// Decoder is one step of autoregressive decoding. Implementations are
// chosen at construction; callers never branch on a decoder kind.
type Decoder interface {
	// Step embeds the previous token, advances the recurrent state and
	// returns a log-probability distribution over the target vocabulary.
	// The attention window may be nil for variants that do not attend.
	Step(prev int, state []float32, window *AttnWindow) (*DecodeStep, error)
}

// TrainableDecoder is a Decoder whose step can be differentiated.
type TrainableDecoder interface {
	Decoder

	// Backward consumes a step produced by Step together with the loss
	// gradient on its log-probs and the gradient flowing back into its
	// output state. It accumulates parameter gradients, adds this step's
	// contribution into dWindow (flat maxLen*dim, may be nil) and returns
	// the gradient w.r.t. the input state.
	Backward(step *DecodeStep, dLogProbs, dState, dWindow []float32) ([]float32, error)

	Parameters() []*tensor.Tensor
	NamedParameters() []NamedParam
}

// NamedParam pairs a parameter tensor with a stable checkpoint name.
type NamedParam struct {
	Name   string
	Tensor *tensor.Tensor
}

// PlainDecoder is the no-attention variant: embed, relu, GRU, project.
type PlainDecoder struct {
	Embed *Embedding
	Cell  *GRUCell
	Out   *Linear

	hidden int
	vocab  int
}

// plainCache stores one plain step's intermediates.
type plainCache struct {
	prev int
	emb  []float32 // embedding, pre-relu
	gru  *gruCache
	hNew []float32
}

// NewPlainDecoder creates a decoder without attention.
func NewPlainDecoder(be backend.Backend, vocabSize, embedSize, hiddenSize int) (*PlainDecoder, error) {
	embed, err := NewEmbedding(be, vocabSize, embedSize)
	if err != nil {
		return nil, fmt.Errorf("decoder embedding: %w", err)
	}
	cell, err := NewGRUCell(be, embedSize, hiddenSize)
	if err != nil {
		return nil, fmt.Errorf("decoder gru: %w", err)
	}
	out, err := NewLinear(be, hiddenSize, vocabSize, true)
	if err != nil {
		return nil, fmt.Errorf("decoder output: %w", err)
	}
	return &PlainDecoder{Embed: embed, Cell: cell, Out: out, hidden: hiddenSize, vocab: vocabSize}, nil
}

// Step advances the decoder by one token. The window is ignored.
func (d *PlainDecoder) Step(prev int, state []float32, _ *AttnWindow) (*DecodeStep, error) {
	if len(state) != d.hidden {
		return nil, &core.ShapeMismatchError{Ctx: "decoder state", Want: core.Shape{d.hidden}, Got: core.Shape{len(state)}}
	}

	emb, err := d.Embed.Lookup(prev)
	if err != nil {
		return nil, err
	}

	gruIn := make([]float32, len(emb))
	for i, v := range emb {
		if v > 0 {
			gruIn[i] = v
		}
	}

	hNew, gru, err := d.Cell.Step(gruIn, state)
	if err != nil {
		return nil, err
	}

	logProbs, err := projectLogProbs(d.Out, hNew)
	if err != nil {
		return nil, err
	}

	return &DecodeStep{
		LogProbs: logProbs,
		State:    hNew,
		cache:    &plainCache{prev: prev, emb: emb, gru: gru, hNew: hNew},
	}, nil
}

// Parameters returns all trainable parameters.
func (d *PlainDecoder) Parameters() []*tensor.Tensor {
	params := d.Embed.Parameters()
	params = append(params, d.Cell.Parameters()...)
	params = append(params, d.Out.Parameters()...)
	return params
}

// NamedParameters returns parameters with stable checkpoint names.
func (d *PlainDecoder) NamedParameters() []NamedParam {
	return []NamedParam{
		{"decoder.embed.weight", d.Embed.Weight},
		{"decoder.gru.ih.weight", d.Cell.Ih.Weight},
		{"decoder.gru.ih.bias", d.Cell.Ih.Bias},
		{"decoder.gru.hh.weight", d.Cell.Hh.Weight},
		{"decoder.gru.hh.bias", d.Cell.Hh.Bias},
		{"decoder.out.weight", d.Out.Weight},
		{"decoder.out.bias", d.Out.Bias},
	}
}

// projectLogProbs applies the output projection and log-softmax.
func projectLogProbs(out *Linear, h []float32) ([]float32, error) {
	t, err := rowTensor(out.Weight.Backend(), h)
	if err != nil {
		return nil, err
	}
	logits, err := out.Forward(t)
	if err != nil {
		return nil, err
	}
	lp, err := ops.LogSoftmax(logits)
	if err != nil {
		return nil, err
	}
	return rowData(lp), nil
}

// ArgMax returns the index of the maximum value in a vector.
func ArgMax(v []float32) int {
	maxIdx := 0
	maxVal := v[0]
	for i, x := range v {
		if x > maxVal {
			maxVal = x
			maxIdx = i
		}
	}
	return maxIdx
}
