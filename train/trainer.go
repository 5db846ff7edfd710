package train

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/djeday123/gomt/nn"
	"github.com/djeday123/gomt/optim"
)

// Pair is one training example, already encoded to ids with EOS appended.
type Pair struct {
	Source []int
	Target []int
}

// Metrics receives per-example observations during training. Nil metrics
// are fine; the trainer logs progress itself.
type Metrics interface {
	Observe(loss float64, length int)
}

// TrainConfig controls the training loop.
type TrainConfig struct {
	Epochs              int
	LogEvery            int     // examples between progress lines; 0 disables
	TeacherForcingRatio float64 // probability of feeding ground truth per sentence
	Seed                int64   // shuffle + forcing coin; 0 means time-seeded
}

// DefaultTrainConfig mirrors the standard small-corpus recipe.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Epochs:              100,
		LogEvery:            500,
		TeacherForcingRatio: 0.5,
	}
}

// Trainer runs per-sentence SGD-style training over a parallel corpus.
// Each example is a full forward/backward/update cycle.
type Trainer struct {
	Model   *nn.Seq2Seq
	Opt     optim.Optimizer
	Runner  LossRunner
	Config  TrainConfig
	Metrics Metrics
}

// NewTrainer wires a model to an optimizer with default settings.
func NewTrainer(model *nn.Seq2Seq, opt optim.Optimizer) *Trainer {
	return &Trainer{Model: model, Opt: opt, Config: DefaultTrainConfig()}
}

// Train runs the configured number of epochs, shuffling pairs each epoch.
// Returns the average per-step loss of the final epoch.
func (t *Trainer) Train(pairs []Pair) (float64, error) {
	if len(pairs) == 0 {
		return 0, fmt.Errorf("train: no training pairs")
	}

	seed := t.Config.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	order := make([]int, len(pairs))
	for i := range order {
		order[i] = i
	}

	var epochLoss float64
	start := time.Now()

	for epoch := 1; epoch <= t.Config.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		epochLoss = 0
		seen := 0
		for _, idx := range order {
			loss, err := t.TrainPair(pairs[idx], rng.Float64() < t.Config.TeacherForcingRatio)
			if err != nil {
				return 0, fmt.Errorf("train: epoch %d example %d: %w", epoch, idx, err)
			}
			epochLoss += loss
			seen++

			if t.Config.LogEvery > 0 && seen%t.Config.LogEvery == 0 {
				fmt.Printf("epoch %d | %d/%d | loss %.4f | %s\n",
					epoch, seen, len(pairs), epochLoss/float64(seen), time.Since(start).Round(time.Second))
			}
		}
		fmt.Printf("epoch %d done | avg loss %.4f\n", epoch, epochLoss/float64(len(pairs)))
	}

	return epochLoss / float64(len(pairs)), nil
}

// TrainPair runs one full gradient step on a single example and returns
// its average per-token loss.
func (t *Trainer) TrainPair(p Pair, forced bool) (float64, error) {
	t.Opt.ZeroGrad()

	enc := t.Model.Encoder
	outputs, final, cache, err := enc.EncodeCached(p.Source)
	if err != nil {
		return 0, err
	}

	maxLen := t.Model.Config.MaxLength
	hidden := enc.HiddenSize()
	window, err := nn.BuildWindow(outputs, maxLen, hidden)
	if err != nil {
		return 0, err
	}

	res, err := t.Runner.Run(t.Model.Decoder, p.Target, final, window, forced)
	if err != nil {
		return 0, err
	}

	dInit, dWindow, err := t.Runner.Backward(t.Model.Decoder, res, window)
	if err != nil {
		return 0, err
	}

	// Window slots map 1:1 onto the first maxLen encoder outputs; grads
	// on padding slots have no source position and are dropped.
	var dOutputs [][]float32
	if dWindow != nil {
		dOutputs = make([][]float32, len(outputs))
		for i := 0; i < len(outputs) && i < maxLen; i++ {
			dOutputs[i] = dWindow[i*hidden : (i+1)*hidden]
		}
	}
	if err := enc.Backward(cache, dOutputs, dInit); err != nil {
		return 0, err
	}

	t.Opt.Step()

	if t.Metrics != nil {
		t.Metrics.Observe(res.AvgLoss(), len(res.Steps))
	}
	return res.AvgLoss(), nil
}
