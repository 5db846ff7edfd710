package translate

import (
	"errors"
	"testing"

	"github.com/djeday123/gomt/backend/cpu"
	"github.com/djeday123/gomt/core"
	"github.com/djeday123/gomt/nn"
	"github.com/djeday123/gomt/vocab"
)

// scriptedDecoder emits a fixed token sequence, cycling when exhausted.
type scriptedDecoder struct {
	vocabSize int
	emit      []int
	calls     int
}

func (d *scriptedDecoder) Step(prev int, state []float32, _ *nn.AttnWindow) (*nn.DecodeStep, error) {
	pick := d.emit[d.calls%len(d.emit)]
	d.calls++

	lp := make([]float32, d.vocabSize)
	for i := range lp {
		lp[i] = -10
	}
	lp[pick] = -0.1
	return &nn.DecodeStep{LogProbs: lp, State: state}, nil
}

func testEncoder(t *testing.T) *nn.Encoder {
	t.Helper()
	enc, err := nn.NewEncoder(cpu.New(), 6, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	return enc
}

func TestTranslateStopsAtEOS(t *testing.T) {
	tr := &Translator{
		Enc:       testEncoder(t),
		Dec:       &scriptedDecoder{vocabSize: 6, emit: []int{3, 4, vocab.EOS}},
		MaxLength: 5,
	}

	out, err := tr.Translate([]int{2, 3, vocab.EOS, 5})
	if err != nil {
		t.Fatal(err)
	}
	want := []int{3, 4, vocab.EOS}
	if len(out) != len(want) {
		t.Fatalf("out = %v, want %v", out, want)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("out = %v, want %v", out, want)
		}
	}
}

func TestTranslateDefaultBoundIsSourceLength(t *testing.T) {
	// Decoder never emits EOS: the loop must stop after len(source)
	// steps and flag the truncation.
	tr := &Translator{
		Enc:       testEncoder(t),
		Dec:       &scriptedDecoder{vocabSize: 6, emit: []int{3}},
		MaxLength: 5,
	}

	src := []int{2, 3, 4, vocab.EOS}
	out, err := tr.Translate(src)

	var bound *core.UnboundedDecodeError
	if !errors.As(err, &bound) {
		t.Fatalf("err = %v, want UnboundedDecodeError", err)
	}
	if bound.Steps != len(src) {
		t.Errorf("bound = %d, want %d", bound.Steps, len(src))
	}
	// The partial translation is still returned.
	if len(out) != len(src) {
		t.Errorf("partial output has %d tokens, want %d", len(out), len(src))
	}
}

func TestTranslateExplicitMaxSteps(t *testing.T) {
	tr := &Translator{
		Enc:       testEncoder(t),
		Dec:       &scriptedDecoder{vocabSize: 6, emit: []int{3}},
		MaxLength: 5,
		MaxSteps:  2,
	}

	out, err := tr.Translate([]int{2, 3, 4, vocab.EOS})
	var bound *core.UnboundedDecodeError
	if !errors.As(err, &bound) {
		t.Fatalf("err = %v, want UnboundedDecodeError", err)
	}
	if bound.Steps != 2 || len(out) != 2 {
		t.Errorf("got %d tokens, bound %d; want 2, 2", len(out), bound.Steps)
	}
}

func TestTranslateEmptySource(t *testing.T) {
	tr := &Translator{
		Enc:       testEncoder(t),
		Dec:       &scriptedDecoder{vocabSize: 6, emit: []int{vocab.EOS}},
		MaxLength: 5,
	}
	if _, err := tr.Translate(nil); err == nil {
		t.Fatal("expected error for empty source")
	}
}

func TestTranslateWithRealModel(t *testing.T) {
	cfg := nn.Config{
		SrcVocabSize: 6,
		TgtVocabSize: 6,
		EmbedSize:    8,
		HiddenSize:   8,
		MaxLength:    5,
		Attention:    true,
	}
	m, err := nn.NewSeq2Seq(cfg, cpu.New())
	if err != nil {
		t.Fatal(err)
	}

	tr := New(m)
	out, err := tr.Translate([]int{2, 3, vocab.EOS})

	// Untrained weights may or may not find EOS; either way the output
	// ids must be valid and respect the bound.
	var bound *core.UnboundedDecodeError
	if err != nil && !errors.As(err, &bound) {
		t.Fatal(err)
	}
	if len(out) == 0 || len(out) > 3 {
		t.Errorf("got %d tokens, want 1..3", len(out))
	}
	for _, id := range out {
		if id < 0 || id >= cfg.TgtVocabSize {
			t.Errorf("out-of-range token id %d", id)
		}
	}
}
