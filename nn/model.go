package nn

import (
	"fmt"

	"github.com/djeday123/gomt/backend"
	"github.com/djeday123/gomt/tensor"
)

// Config defines the architecture hyperparameters. All values are fixed at
// construction and immutable for the life of the model.
type Config struct {
	SrcVocabSize int  `json:"src_vocab_size"`
	TgtVocabSize int  `json:"tgt_vocab_size"`
	EmbedSize    int  `json:"embed_size"`
	HiddenSize   int  `json:"hidden_size"`
	MaxLength    int  `json:"max_length"` // attention window capacity
	Attention    bool `json:"attention"`  // attention vs plain decoder
}

// DefaultConfig returns the standard small-corpus configuration.
func DefaultConfig() Config {
	return Config{
		EmbedSize:  256,
		HiddenSize: 256,
		MaxLength:  10,
		Attention:  true,
	}
}

// Validate reports configuration errors before any allocation happens.
func (c Config) Validate() error {
	switch {
	case c.SrcVocabSize < 2:
		return fmt.Errorf("config: src vocab size %d < 2 (reserved ids)", c.SrcVocabSize)
	case c.TgtVocabSize < 2:
		return fmt.Errorf("config: tgt vocab size %d < 2 (reserved ids)", c.TgtVocabSize)
	case c.EmbedSize <= 0:
		return fmt.Errorf("config: embed size %d", c.EmbedSize)
	case c.HiddenSize <= 0:
		return fmt.Errorf("config: hidden size %d", c.HiddenSize)
	case c.MaxLength <= 0:
		return fmt.Errorf("config: max length %d", c.MaxLength)
	}
	return nil
}

// Seq2Seq bundles an encoder with a decoder variant chosen at
// construction time.
type Seq2Seq struct {
	Config  Config
	Encoder *Encoder
	Decoder TrainableDecoder
}

// NewSeq2Seq creates a model from config with fresh random weights.
func NewSeq2Seq(cfg Config, be backend.Backend) (*Seq2Seq, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	enc, err := NewEncoder(be, cfg.SrcVocabSize, cfg.EmbedSize, cfg.HiddenSize)
	if err != nil {
		return nil, fmt.Errorf("encoder: %w", err)
	}

	var dec TrainableDecoder
	if cfg.Attention {
		dec, err = NewAttnDecoder(be, cfg.TgtVocabSize, cfg.EmbedSize, cfg.HiddenSize, cfg.MaxLength)
	} else {
		dec, err = NewPlainDecoder(be, cfg.TgtVocabSize, cfg.EmbedSize, cfg.HiddenSize)
	}
	if err != nil {
		return nil, fmt.Errorf("decoder: %w", err)
	}

	return &Seq2Seq{Config: cfg, Encoder: enc, Decoder: dec}, nil
}

// Parameters returns all trainable parameters.
func (m *Seq2Seq) Parameters() []*tensor.Tensor {
	return append(m.Encoder.Parameters(), m.Decoder.Parameters()...)
}

// NamedParameters returns every parameter with a stable checkpoint name.
func (m *Seq2Seq) NamedParameters() []NamedParam {
	named := []NamedParam{
		{"encoder.embed.weight", m.Encoder.Embed.Weight},
		{"encoder.gru.ih.weight", m.Encoder.Cell.Ih.Weight},
		{"encoder.gru.ih.bias", m.Encoder.Cell.Ih.Bias},
		{"encoder.gru.hh.weight", m.Encoder.Cell.Hh.Weight},
		{"encoder.gru.hh.bias", m.Encoder.Cell.Hh.Bias},
	}
	return append(named, m.Decoder.NamedParameters()...)
}

// CountParameters returns the total number of trainable scalars.
func (m *Seq2Seq) CountParameters() int {
	total := 0
	for _, p := range m.Parameters() {
		total += p.NumElements()
	}
	return total
}
