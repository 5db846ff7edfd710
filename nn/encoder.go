package nn

import (
	"fmt"

	"github.com/djeday123/gomt/backend"
	"github.com/djeday123/gomt/tensor"
)

// Encoder turns a source token sequence into one context vector per
// position plus a final summary state. Single direction, single layer;
// the state starts at zero for every sentence.
type Encoder struct {
	Embed *Embedding
	Cell  *GRUCell

	hidden int
}

// NewEncoder creates an encoder for a source vocabulary.
func NewEncoder(be backend.Backend, vocabSize, embedSize, hiddenSize int) (*Encoder, error) {
	embed, err := NewEmbedding(be, vocabSize, embedSize)
	if err != nil {
		return nil, fmt.Errorf("encoder embedding: %w", err)
	}
	cell, err := NewGRUCell(be, embedSize, hiddenSize)
	if err != nil {
		return nil, fmt.Errorf("encoder gru: %w", err)
	}
	return &Encoder{Embed: embed, Cell: cell, hidden: hiddenSize}, nil
}

func (e *Encoder) HiddenSize() int { return e.hidden }

// Encode runs the recurrence over a token sequence.
// Returns one output vector per input position and the final state;
// len(outputs) == len(ids) always.
func (e *Encoder) Encode(ids []int) (outputs [][]float32, final []float32, err error) {
	outputs, final, _, err = e.encode(ids, false)
	return outputs, final, err
}

// EncoderCache holds the per-step intermediates needed to backpropagate
// through a full encode pass.
type EncoderCache struct {
	ids     []int
	steps   []*gruCache
	outputs [][]float32
}

// EncodeCached is Encode plus a cache for the backward pass.
func (e *Encoder) EncodeCached(ids []int) ([][]float32, []float32, *EncoderCache, error) {
	return e.encode(ids, true)
}

func (e *Encoder) encode(ids []int, cached bool) ([][]float32, []float32, *EncoderCache, error) {
	state := make([]float32, e.hidden)
	outputs := make([][]float32, 0, len(ids))

	var cache *EncoderCache
	if cached {
		cache = &EncoderCache{ids: ids, steps: make([]*gruCache, 0, len(ids))}
	}

	for _, id := range ids {
		emb, err := e.Embed.Lookup(id)
		if err != nil {
			return nil, nil, nil, err
		}
		next, stepCache, err := e.Cell.Step(emb, state)
		if err != nil {
			return nil, nil, nil, err
		}
		state = next
		outputs = append(outputs, state)
		if cached {
			cache.steps = append(cache.steps, stepCache)
		}
	}

	if cached {
		cache.outputs = outputs
	}
	return outputs, state, cache, nil
}

// Parameters returns all trainable parameters.
func (e *Encoder) Parameters() []*tensor.Tensor {
	return append(e.Embed.Parameters(), e.Cell.Parameters()...)
}
