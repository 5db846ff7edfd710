package nn

import (
	"math/rand"

	"github.com/djeday123/gomt/backend"
	"github.com/djeday123/gomt/core"
	"github.com/djeday123/gomt/tensor"
)

// Embedding is a lookup table for token embeddings.
type Embedding struct {
	Weight    *tensor.Tensor // [vocabSize, embedDim]
	VocabSize int
	EmbedDim  int
}

// NewEmbedding creates an embedding layer with normal initialization.
func NewEmbedding(be backend.Backend, vocabSize, embedDim int) (*Embedding, error) {
	data := make([]float32, vocabSize*embedDim)
	for i := range data {
		data[i] = float32(rand.NormFloat64() * 0.02)
	}

	w, err := tensor.FromSlice(be, data, tensor.Shape{vocabSize, embedDim})
	if err != nil {
		return nil, err
	}
	w.SetRequiresGrad(true)

	return &Embedding{Weight: w, VocabSize: vocabSize, EmbedDim: embedDim}, nil
}

// Lookup returns a copy of the embedding row for one token id.
func (e *Embedding) Lookup(id int) ([]float32, error) {
	if id < 0 || id >= e.VocabSize {
		return nil, &core.UnknownTokenError{ID: id}
	}
	w := e.Weight.ToFloat32Slice()
	out := make([]float32, e.EmbedDim)
	copy(out, w[id*e.EmbedDim:(id+1)*e.EmbedDim])
	return out, nil
}

// Parameters returns trainable parameters.
func (e *Embedding) Parameters() []*tensor.Tensor {
	return []*tensor.Tensor{e.Weight}
}
