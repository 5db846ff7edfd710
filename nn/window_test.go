package nn

import (
	"math"
	"testing"
)

func TestBuildWindowPadsShortSequences(t *testing.T) {
	outputs := [][]float32{
		{1, 2},
		{3, 4},
		{5, 6},
	}
	w, err := BuildWindow(outputs, 5, 2)
	if err != nil {
		t.Fatal(err)
	}
	if w.Valid() != 3 {
		t.Errorf("valid = %d, want 3", w.Valid())
	}
	if got := w.Slot(1); got[0] != 3 || got[1] != 4 {
		t.Errorf("slot 1 = %v, want [3 4]", got)
	}
	for i := 3; i < 5; i++ {
		slot := w.Slot(i)
		for d, v := range slot {
			if v != 0 {
				t.Errorf("padding slot %d[%d] = %v, want 0", i, d, v)
			}
		}
	}
}

func TestBuildWindowTruncatesLongSequences(t *testing.T) {
	outputs := make([][]float32, 7)
	for i := range outputs {
		outputs[i] = []float32{float32(i)}
	}
	w, err := BuildWindow(outputs, 5, 1)
	if err != nil {
		t.Fatal(err)
	}
	if w.Valid() != 5 {
		t.Errorf("valid = %d, want 5", w.Valid())
	}
	if w.Slot(4)[0] != 4 {
		t.Errorf("slot 4 = %v, want 4", w.Slot(4)[0])
	}
}

func TestBuildWindowRejectsWrongDim(t *testing.T) {
	if _, err := BuildWindow([][]float32{{1, 2, 3}}, 4, 2); err == nil {
		t.Fatal("expected shape error for dim mismatch")
	}
}

func TestWindowMix(t *testing.T) {
	outputs := [][]float32{
		{1, 0},
		{0, 1},
	}
	w, err := BuildWindow(outputs, 3, 2)
	if err != nil {
		t.Fatal(err)
	}

	// Padding slot gets weight too; being zero it contributes nothing.
	ctx := w.Mix([]float32{0.5, 0.25, 0.25})
	if math.Abs(float64(ctx[0]-0.5)) > 1e-6 || math.Abs(float64(ctx[1]-0.25)) > 1e-6 {
		t.Errorf("mix = %v, want [0.5 0.25]", ctx)
	}
}
