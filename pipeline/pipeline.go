// Package pipeline glues vocabularies, the model and the translator into
// one sentence-in, sentence-out unit.
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/djeday123/gomt/backend"
	"github.com/djeday123/gomt/checkpoint"
	"github.com/djeday123/gomt/nn"
	"github.com/djeday123/gomt/train"
	"github.com/djeday123/gomt/translate"
	"github.com/djeday123/gomt/vocab"
)

// SentencePair is one parallel example in plain text.
type SentencePair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Pipeline owns the source/target vocabularies and the model built over
// them. Vocabularies are frozen once the model exists.
type Pipeline struct {
	Src   *vocab.Vocabulary
	Tgt   *vocab.Vocabulary
	Model *nn.Seq2Seq

	pairs []SentencePair
}

// New builds vocabularies from a corpus and creates a fresh model.
// Vocabulary sizes in cfg are filled in from the corpus.
func New(pairs []SentencePair, cfg nn.Config, be backend.Backend) (*Pipeline, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("pipeline: empty corpus")
	}

	src := vocab.New()
	tgt := vocab.New()
	for _, p := range pairs {
		src.AddSentence(p.Source)
		tgt.AddSentence(p.Target)
	}

	cfg.SrcVocabSize = src.Size()
	cfg.TgtVocabSize = tgt.Size()

	model, err := nn.NewSeq2Seq(cfg, be)
	if err != nil {
		return nil, err
	}

	return &Pipeline{Src: src, Tgt: tgt, Model: model, pairs: pairs}, nil
}

// TrainingPairs encodes the corpus to id sequences, appending EOS to both
// sides so the model learns to terminate.
func (pl *Pipeline) TrainingPairs() ([]train.Pair, error) {
	out := make([]train.Pair, 0, len(pl.pairs))
	for _, p := range pl.pairs {
		srcIDs, err := pl.Src.Encode(p.Source)
		if err != nil {
			return nil, fmt.Errorf("pipeline: source %q: %w", p.Source, err)
		}
		tgtIDs, err := pl.Tgt.Encode(p.Target)
		if err != nil {
			return nil, fmt.Errorf("pipeline: target %q: %w", p.Target, err)
		}
		out = append(out, train.Pair{
			Source: append(srcIDs, vocab.EOS),
			Target: append(tgtIDs, vocab.EOS),
		})
	}
	return out, nil
}

// Translate maps one source sentence to a target sentence. The trailing
// EOS marker is stripped from the text. A decode that hits the step
// bound still returns its partial sentence along with the error.
func (pl *Pipeline) Translate(sentence string) (string, error) {
	srcIDs, err := pl.Src.Encode(sentence)
	if err != nil {
		return "", err
	}
	srcIDs = append(srcIDs, vocab.EOS)

	tr := translate.New(pl.Model)
	ids, terr := tr.Translate(srcIDs)

	if n := len(ids); n > 0 && ids[n-1] == vocab.EOS {
		ids = ids[:n-1]
	}
	words, err := pl.Tgt.Decode(ids)
	if err != nil {
		return "", err
	}
	return strings.Join(words, " "), terr
}

// snapshotFile is the on-disk layout: weights plus the two word tables
// needed to rebuild the vocabularies.
type snapshotFile struct {
	Checkpoint *checkpoint.State `json:"checkpoint"`
	SrcWords   []string          `json:"src_words"`
	TgtWords   []string          `json:"tgt_words"`
	Pairs      []SentencePair    `json:"pairs,omitempty"`
}

// Save writes the model and vocabularies to path.
func (pl *Pipeline) Save(path string) error {
	snap := snapshotFile{
		Checkpoint: checkpoint.Snapshot(pl.Model),
		SrcWords:   pl.Src.Words(),
		TgtWords:   pl.Tgt.Words(),
		Pairs:      pl.pairs,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("pipeline: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("pipeline: write %s: %w", path, err)
	}
	return nil
}

// Load restores a saved pipeline.
func Load(path string, be backend.Backend) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: read %s: %w", path, err)
	}
	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("pipeline: parse %s: %w", path, err)
	}
	if snap.Checkpoint == nil {
		return nil, fmt.Errorf("pipeline: %s holds no checkpoint", path)
	}

	src, err := vocab.FromWords(snap.SrcWords)
	if err != nil {
		return nil, fmt.Errorf("pipeline: source vocab: %w", err)
	}
	tgt, err := vocab.FromWords(snap.TgtWords)
	if err != nil {
		return nil, fmt.Errorf("pipeline: target vocab: %w", err)
	}

	model, err := nn.NewSeq2Seq(snap.Checkpoint.Config, be)
	if err != nil {
		return nil, err
	}
	if err := checkpoint.Restore(model, snap.Checkpoint); err != nil {
		return nil, err
	}

	return &Pipeline{Src: src, Tgt: tgt, Model: model, pairs: snap.Pairs}, nil
}
