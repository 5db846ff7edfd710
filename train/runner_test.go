package train

import (
	"math"
	"testing"

	"github.com/djeday123/gomt/backend/cpu"
	"github.com/djeday123/gomt/nn"
	"github.com/djeday123/gomt/vocab"
)

// scriptedDecoder emits a fixed token per step regardless of input and
// records what it was fed.
type scriptedDecoder struct {
	vocabSize int
	emit      []int
	calls     int
	fed       []int
}

func (d *scriptedDecoder) Step(prev int, state []float32, _ *nn.AttnWindow) (*nn.DecodeStep, error) {
	d.fed = append(d.fed, prev)
	pick := d.emit[d.calls%len(d.emit)]
	d.calls++

	lp := make([]float32, d.vocabSize)
	for i := range lp {
		lp[i] = -10
	}
	lp[pick] = -0.1
	return &nn.DecodeStep{LogProbs: lp, State: state}, nil
}

func TestRunForcedFeedsGroundTruth(t *testing.T) {
	dec := &scriptedDecoder{vocabSize: 6, emit: []int{5, 5, 5}}
	target := []int{3, 4, vocab.EOS}

	var runner LossRunner
	res, err := runner.Run(dec, target, make([]float32, 4), nil, true)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(res.Steps))
	}
	// Inputs are SOS then the ground-truth prefix, never the argmax picks.
	wantFed := []int{vocab.SOS, 3, 4}
	for i, w := range wantFed {
		if dec.fed[i] != w {
			t.Errorf("fed[%d] = %d, want %d", i, dec.fed[i], w)
		}
	}
	for i, w := range target {
		if res.Fed[i] != w {
			t.Errorf("res.Fed[%d] = %d, want %d", i, res.Fed[i], w)
		}
	}
}

func TestRunSelfFedStopsAtEOS(t *testing.T) {
	dec := &scriptedDecoder{vocabSize: 6, emit: []int{3, vocab.EOS, 4}}
	target := []int{3, 4, vocab.EOS}

	var runner LossRunner
	res, err := runner.Run(dec, target, make([]float32, 4), nil, false)
	if err != nil {
		t.Fatal(err)
	}
	// Step 0 picks 3, step 1 picks EOS: two steps, both scored.
	if len(res.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(res.Steps))
	}
	if res.Fed[0] != 3 || res.Fed[1] != vocab.EOS {
		t.Errorf("fed = %v, want [3 1]", res.Fed)
	}
}

func TestRunSelfFedBoundedByTargetLength(t *testing.T) {
	// Never emits EOS; the run must still stop after len(target) steps.
	dec := &scriptedDecoder{vocabSize: 6, emit: []int{2}}
	target := []int{3, 4, vocab.EOS}

	var runner LossRunner
	res, err := runner.Run(dec, target, make([]float32, 4), nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Steps) != len(target) {
		t.Fatalf("steps = %d, want %d", len(res.Steps), len(target))
	}
}

func TestRunLossAccumulation(t *testing.T) {
	dec := &scriptedDecoder{vocabSize: 6, emit: []int{2}}
	target := []int{2, 2, vocab.EOS}

	var runner LossRunner
	res, err := runner.Run(dec, target, make([]float32, 4), nil, true)
	if err != nil {
		t.Fatal(err)
	}
	// Targets 2 and 2 score -(-0.1), the EOS target scores -(-10).
	want := 0.1 + 0.1 + 10.0
	if math.Abs(res.Loss-want) > 1e-5 {
		t.Errorf("loss = %v, want %v", res.Loss, want)
	}
	if math.Abs(res.AvgLoss()-want/3) > 1e-5 {
		t.Errorf("avg loss = %v, want %v", res.AvgLoss(), want/3)
	}
}

func TestRunEmptyTarget(t *testing.T) {
	var runner LossRunner
	dec := &scriptedDecoder{vocabSize: 6, emit: []int{2}}
	if _, err := runner.Run(dec, nil, make([]float32, 4), nil, true); err == nil {
		t.Fatal("expected error for empty target")
	}
}

func TestBackwardProducesGradients(t *testing.T) {
	be := cpu.New()
	dec, err := nn.NewAttnDecoder(be, 6, 4, 4, 5)
	if err != nil {
		t.Fatal(err)
	}
	window, err := nn.BuildWindow([][]float32{
		{0.1, 0.2, -0.1, 0.3},
		{0.2, -0.3, 0.1, 0.1},
	}, 5, 4)
	if err != nil {
		t.Fatal(err)
	}

	var runner LossRunner
	res, err := runner.Run(dec, []int{2, 3, vocab.EOS}, make([]float32, 4), window, true)
	if err != nil {
		t.Fatal(err)
	}

	dInit, dWindow, err := runner.Backward(dec, res, window)
	if err != nil {
		t.Fatal(err)
	}
	if len(dInit) != 4 {
		t.Fatalf("dInit size = %d, want 4", len(dInit))
	}
	if len(dWindow) != 5*4 {
		t.Fatalf("dWindow size = %d, want 20", len(dWindow))
	}

	for _, p := range dec.Parameters() {
		if p.Grad() == nil {
			t.Fatal("a decoder parameter has no gradient after Backward")
		}
	}

	var norm float64
	for _, v := range dInit {
		norm += float64(v * v)
	}
	if norm == 0 {
		t.Error("zero gradient on the initial state")
	}
}
