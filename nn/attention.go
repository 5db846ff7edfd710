package nn

import (
	"fmt"

	"github.com/djeday123/gomt/backend"
	"github.com/djeday123/gomt/core"
	"github.com/djeday123/gomt/ops"
	"github.com/djeday123/gomt/tensor"
)

// AttnDecoder decodes one token at a time while attending over a fixed
// window of encoder outputs.
//
// Per step:
//  1. embed the previous token
//  2. score [embedding ; state] into maxLen attention logits, softmax
//     over every slot (padding included — see AttnWindow)
//  3. context = weighted sum of the window
//  4. combine [embedding ; context], relu, feed the GRU
//  5. project the new state to target-vocabulary log-probs
type AttnDecoder struct {
	Embed   *Embedding
	Attn    *Linear // [embed+hidden] -> maxLen attention scores
	Combine *Linear // [embed+context] -> gru input
	Cell    *GRUCell
	Out     *Linear // hidden -> target vocab logits

	maxLen int
	embed  int
	hidden int
	vocab  int
}

// attnCache stores one attention step's intermediates.
type attnCache struct {
	prev    int
	emb     []float32
	attnIn  []float32 // [emb ; state]
	weights []float32 // post-softmax, maxLen
	context []float32
	combIn  []float32 // [emb ; context]
	combPre []float32 // combine output, pre-relu
	gru     *gruCache
	hNew    []float32
	window  *AttnWindow
}

// NewAttnDecoder creates the attention decoder variant.
func NewAttnDecoder(be backend.Backend, vocabSize, embedSize, hiddenSize, maxLen int) (*AttnDecoder, error) {
	embed, err := NewEmbedding(be, vocabSize, embedSize)
	if err != nil {
		return nil, fmt.Errorf("decoder embedding: %w", err)
	}
	attn, err := NewLinear(be, embedSize+hiddenSize, maxLen, true)
	if err != nil {
		return nil, fmt.Errorf("attention projection: %w", err)
	}
	combine, err := NewLinear(be, embedSize+hiddenSize, hiddenSize, true)
	if err != nil {
		return nil, fmt.Errorf("attention combine: %w", err)
	}
	cell, err := NewGRUCell(be, hiddenSize, hiddenSize)
	if err != nil {
		return nil, fmt.Errorf("decoder gru: %w", err)
	}
	out, err := NewLinear(be, hiddenSize, vocabSize, true)
	if err != nil {
		return nil, fmt.Errorf("decoder output: %w", err)
	}
	return &AttnDecoder{
		Embed: embed, Attn: attn, Combine: combine, Cell: cell, Out: out,
		maxLen: maxLen, embed: embedSize, hidden: hiddenSize, vocab: vocabSize,
	}, nil
}

func (d *AttnDecoder) MaxLen() int { return d.maxLen }

// Step advances the decoder by one token.
func (d *AttnDecoder) Step(prev int, state []float32, window *AttnWindow) (*DecodeStep, error) {
	if len(state) != d.hidden {
		return nil, &core.ShapeMismatchError{Ctx: "decoder state", Want: core.Shape{d.hidden}, Got: core.Shape{len(state)}}
	}
	if window == nil {
		return nil, fmt.Errorf("attention decoder: nil window")
	}
	if window.MaxLen() != d.maxLen || window.Dim() != d.hidden {
		return nil, &core.ShapeMismatchError{
			Ctx:  "attention window",
			Want: core.Shape{d.maxLen, d.hidden},
			Got:  core.Shape{window.MaxLen(), window.Dim()},
		}
	}

	emb, err := d.Embed.Lookup(prev)
	if err != nil {
		return nil, err
	}

	// Attention weights over every window slot.
	attnIn := concatVec(emb, state)
	be := d.Attn.Weight.Backend()
	attnInT, err := rowTensor(be, attnIn)
	if err != nil {
		return nil, err
	}
	scores, err := d.Attn.Forward(attnInT)
	if err != nil {
		return nil, err
	}
	weightsT, err := ops.Softmax(scores)
	if err != nil {
		return nil, err
	}
	weights := rowData(weightsT)

	context := window.Mix(weights)

	// Combine embedding and context into the recurrent input.
	combIn := concatVec(emb, context)
	combPre, err := d.Combine.Apply(combIn)
	if err != nil {
		return nil, err
	}
	gruIn := make([]float32, len(combPre))
	for i, v := range combPre {
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
		Weights:  weights,
		cache: &attnCache{
			prev: prev, emb: emb, attnIn: attnIn, weights: weights,
			context: context, combIn: combIn, combPre: combPre,
			gru: gru, hNew: hNew, window: window,
		},
	}, nil
}

// Parameters returns all trainable parameters.
func (d *AttnDecoder) Parameters() []*tensor.Tensor {
	params := d.Embed.Parameters()
	params = append(params, d.Attn.Parameters()...)
	params = append(params, d.Combine.Parameters()...)
	params = append(params, d.Cell.Parameters()...)
	params = append(params, d.Out.Parameters()...)
	return params
}

// NamedParameters returns parameters with stable checkpoint names.
func (d *AttnDecoder) NamedParameters() []NamedParam {
	return []NamedParam{
		{"decoder.embed.weight", d.Embed.Weight},
		{"decoder.attn.weight", d.Attn.Weight},
		{"decoder.attn.bias", d.Attn.Bias},
		{"decoder.combine.weight", d.Combine.Weight},
		{"decoder.combine.bias", d.Combine.Bias},
		{"decoder.gru.ih.weight", d.Cell.Ih.Weight},
		{"decoder.gru.ih.bias", d.Cell.Ih.Bias},
		{"decoder.gru.hh.weight", d.Cell.Hh.Weight},
		{"decoder.gru.hh.bias", d.Cell.Hh.Bias},
		{"decoder.out.weight", d.Out.Weight},
		{"decoder.out.bias", d.Out.Bias},
	}
}

func concatVec(a, b []float32) []float32 {
	out := make([]float32, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return out
}
