package nn

import (
	"errors"
	"testing"

	"github.com/djeday123/gomt/backend/cpu"
	"github.com/djeday123/gomt/core"
)

func TestEncodeProducesOneOutputPerToken(t *testing.T) {
	be := cpu.New()
	enc, err := NewEncoder(be, 6, 8, 5)
	if err != nil {
		t.Fatal(err)
	}

	ids := []int{2, 3, 4, 1}
	outputs, final, err := enc.Encode(ids)
	if err != nil {
		t.Fatal(err)
	}
	if len(outputs) != len(ids) {
		t.Fatalf("len(outputs) = %d, want %d", len(outputs), len(ids))
	}
	for i, out := range outputs {
		if len(out) != 5 {
			t.Errorf("output %d has size %d, want 5", i, len(out))
		}
	}
	// The final state is the last per-position output.
	last := outputs[len(outputs)-1]
	for i := range final {
		if final[i] != last[i] {
			t.Fatalf("final[%d] = %v != last output %v", i, final[i], last[i])
		}
	}
}

func TestEncodeStateEvolves(t *testing.T) {
	be := cpu.New()
	enc, err := NewEncoder(be, 6, 8, 5)
	if err != nil {
		t.Fatal(err)
	}

	outputs, _, err := enc.Encode([]int{2, 2})
	if err != nil {
		t.Fatal(err)
	}
	// Same token twice, different carried state: outputs must differ.
	same := true
	for i := range outputs[0] {
		if outputs[0][i] != outputs[1][i] {
			same = false
			break
		}
	}
	if same {
		t.Error("recurrent state did not change between identical tokens")
	}
}

func TestEncodeRejectsUnknownID(t *testing.T) {
	be := cpu.New()
	enc, err := NewEncoder(be, 4, 8, 5)
	if err != nil {
		t.Fatal(err)
	}

	_, _, err = enc.Encode([]int{2, 9})
	var unk *core.UnknownTokenError
	if !errors.As(err, &unk) {
		t.Fatalf("err = %v, want UnknownTokenError", err)
	}
	if unk.ID != 9 {
		t.Errorf("unknown id = %d, want 9", unk.ID)
	}
}

func TestEncodeCachedMatchesEncode(t *testing.T) {
	be := cpu.New()
	enc, err := NewEncoder(be, 6, 8, 5)
	if err != nil {
		t.Fatal(err)
	}

	ids := []int{2, 3, 4}
	outA, finalA, err := enc.Encode(ids)
	if err != nil {
		t.Fatal(err)
	}
	outB, finalB, cache, err := enc.EncodeCached(ids)
	if err != nil {
		t.Fatal(err)
	}
	if cache == nil {
		t.Fatal("nil cache")
	}
	for i := range finalA {
		if finalA[i] != finalB[i] {
			t.Fatalf("cached final diverges at %d", i)
		}
	}
	for s := range outA {
		for i := range outA[s] {
			if outA[s][i] != outB[s][i] {
				t.Fatalf("cached output %d diverges at %d", s, i)
			}
		}
	}
}
