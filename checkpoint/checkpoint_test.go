package checkpoint

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/djeday123/gomt/backend/cpu"
	"github.com/djeday123/gomt/core"
	"github.com/djeday123/gomt/nn"
)

func newModel(t *testing.T, cfg nn.Config) *nn.Seq2Seq {
	t.Helper()
	m, err := nn.NewSeq2Seq(cfg, cpu.New())
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func testConfig() nn.Config {
	return nn.Config{
		SrcVocabSize: 6,
		TgtVocabSize: 7,
		EmbedSize:    8,
		HiddenSize:   8,
		MaxLength:    5,
		Attention:    true,
	}
}

func TestSnapshotRestoreRoundtrip(t *testing.T) {
	src := newModel(t, testConfig())
	st := Snapshot(src)

	dst := newModel(t, st.Config)
	if err := Restore(dst, st); err != nil {
		t.Fatal(err)
	}

	srcParams := src.NamedParameters()
	dstParams := dst.NamedParameters()
	for i := range srcParams {
		a := srcParams[i].Tensor.ToFloat32Slice()
		b := dstParams[i].Tensor.ToFloat32Slice()
		for j := range a {
			if a[j] != b[j] {
				t.Fatalf("%s[%d] = %v, want %v", dstParams[i].Name, j, b[j], a[j])
			}
		}
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	m := newModel(t, testConfig())
	st := Snapshot(m)

	// Mutating the live model must not change the snapshot.
	w := m.Encoder.Embed.Weight.ToFloat32Slice()
	orig := st.Params[0].Data[0]
	w[0] = orig + 100
	if st.Params[0].Data[0] != orig {
		t.Error("snapshot aliases live weights")
	}
}

func TestRestoreRejectsShapeMismatch(t *testing.T) {
	st := Snapshot(newModel(t, testConfig()))

	bigger := testConfig()
	bigger.HiddenSize = 16
	dst := newModel(t, bigger)

	err := Restore(dst, st)
	var sm *core.ShapeMismatchError
	if !errors.As(err, &sm) {
		t.Fatalf("err = %v, want ShapeMismatchError", err)
	}
}

func TestRestoreRejectsMissingParam(t *testing.T) {
	st := Snapshot(newModel(t, testConfig()))
	st.Params = st.Params[1:]

	dst := newModel(t, testConfig())
	if err := Restore(dst, st); err == nil {
		t.Fatal("expected error for missing parameter")
	}
}

func TestSaveLoadFile(t *testing.T) {
	m := newModel(t, testConfig())
	st := Snapshot(m)

	path := filepath.Join(t.TempDir(), "model.json")
	if err := Save(st, path); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Config != st.Config {
		t.Errorf("config = %+v, want %+v", loaded.Config, st.Config)
	}
	if len(loaded.Params) != len(st.Params) {
		t.Fatalf("params = %d, want %d", len(loaded.Params), len(st.Params))
	}
	for i := range st.Params {
		if loaded.Params[i].Name != st.Params[i].Name {
			t.Errorf("param %d name = %q, want %q", i, loaded.Params[i].Name, st.Params[i].Name)
		}
	}

	cfg, err := ReadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg != st.Config {
		t.Errorf("ReadConfig = %+v, want %+v", cfg, st.Config)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
