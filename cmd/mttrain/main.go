package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/djeday123/gomt/backend/cpu"
	"github.com/djeday123/gomt/nn"
	"github.com/djeday123/gomt/optim"
	"github.com/djeday123/gomt/pipeline"
	"github.com/djeday123/gomt/train"
)

// Toy eng -> fra corpus, enough to watch the loss fall and the attention
// line up. Swap in a real dataset via -data for anything serious.
var toyCorpus = []pipeline.SentencePair{
	{Source: "i am cold", Target: "j ai froid"},
	{Source: "i am happy", Target: "je suis heureux"},
	{Source: "i am sad", Target: "je suis triste"},
	{Source: "he is young", Target: "il est jeune"},
	{Source: "he is tall", Target: "il est grand"},
	{Source: "she is young", Target: "elle est jeune"},
	{Source: "she is happy", Target: "elle est heureuse"},
	{Source: "we are cold", Target: "nous avons froid"},
	{Source: "we are happy", Target: "nous sommes heureux"},
	{Source: "they are sad", Target: "ils sont tristes"},
	{Source: "you are tall", Target: "tu es grand"},
	{Source: "i am a student", Target: "je suis un etudiant"},
	{Source: "he is a teacher", Target: "il est un professeur"},
	{Source: "she is a doctor", Target: "elle est un medecin"},
	{Source: "we are friends", Target: "nous sommes amis"},
}

func main() {
	epochs := flag.Int("epochs", 200, "training epochs")
	hidden := flag.Int("hidden", 128, "hidden state size")
	embed := flag.Int("embed", 128, "embedding size")
	maxlen := flag.Int("maxlen", 10, "attention window capacity")
	lr := flag.Float64("lr", 0.01, "learning rate")
	forcing := flag.Float64("forcing", 0.5, "teacher forcing ratio")
	attention := flag.Bool("attention", true, "use the attention decoder")
	seed := flag.Int64("seed", 42, "rng seed")
	out := flag.String("out", "model.json", "checkpoint output path")
	flag.Parse()

	fmt.Println("=== gomt training ===")

	cfg := nn.DefaultConfig()
	cfg.EmbedSize = *embed
	cfg.HiddenSize = *hidden
	cfg.MaxLength = *maxlen
	cfg.Attention = *attention

	be := cpu.New()
	pl, err := pipeline.New(toyCorpus, cfg, be)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Corpus: %d pairs | src vocab %d | tgt vocab %d\n",
		len(toyCorpus), pl.Src.Size(), pl.Tgt.Size())
	fmt.Printf("Model: embed=%d hidden=%d maxlen=%d attention=%v | %d params\n\n",
		cfg.EmbedSize, cfg.HiddenSize, cfg.MaxLength, cfg.Attention, pl.Model.CountParameters())

	pairs, err := pl.TrainingPairs()
	if err != nil {
		fatal(err)
	}

	trainer := train.NewTrainer(pl.Model, optim.NewSGD(pl.Model.Parameters(), *lr))
	trainer.Config.Epochs = *epochs
	trainer.Config.TeacherForcingRatio = *forcing
	trainer.Config.Seed = *seed
	trainer.Config.LogEvery = 0 // toy corpus, per-epoch lines are enough

	start := time.Now()
	finalLoss, err := trainer.Train(pairs)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("\nDone in %v | final avg loss %.4f\n\n", time.Since(start).Round(time.Millisecond), finalLoss)

	// Eyeball a few translations before saving.
	for _, p := range toyCorpus[:5] {
		got, err := pl.Translate(p.Source)
		if err != nil {
			fmt.Printf("  %-20s -> ERROR: %v\n", p.Source, err)
			continue
		}
		fmt.Printf("  %-20s -> %-24s (want: %s)\n", p.Source, got, p.Target)
	}

	if err := pl.Save(*out); err != nil {
		fatal(err)
	}
	fmt.Printf("\nSaved to %s\n", *out)
}

func fatal(err error) {
	log.Fatalf("error: %v", err)
}
