// Package checkpoint serializes model weights and architecture to JSON
// so a trained model can be reloaded for translation later.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/djeday123/gomt/core"
	"github.com/djeday123/gomt/nn"
)

// Param is one named weight tensor in flat row-major form.
type Param struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
}

// State is a complete model snapshot: the architecture plus every
// parameter under its stable name.
type State struct {
	Config nn.Config `json:"config"`
	Params []Param   `json:"params"`
}

// Snapshot copies all model parameters out into a State.
func Snapshot(m *nn.Seq2Seq) *State {
	named := m.NamedParameters()
	st := &State{Config: m.Config, Params: make([]Param, 0, len(named))}
	for _, np := range named {
		src := np.Tensor.ToFloat32Slice()
		data := make([]float32, len(src))
		copy(data, src)
		st.Params = append(st.Params, Param{
			Name:  np.Name,
			Shape: np.Tensor.Shape().Clone(),
			Data:  data,
		})
	}
	return st
}

// Restore copies saved weights into an existing model. The model must
// have been built from the same Config: every parameter is matched by
// name and its shape verified before any weight is touched.
func Restore(m *nn.Seq2Seq, st *State) error {
	byName := make(map[string]Param, len(st.Params))
	for _, p := range st.Params {
		byName[p.Name] = p
	}

	named := m.NamedParameters()
	for _, np := range named {
		p, ok := byName[np.Name]
		if !ok {
			return fmt.Errorf("checkpoint: missing parameter %q", np.Name)
		}
		want := np.Tensor.Shape()
		if !want.Equal(core.Shape(p.Shape)) {
			return &core.ShapeMismatchError{Ctx: "checkpoint " + np.Name, Want: want, Got: core.Shape(p.Shape)}
		}
	}
	for _, np := range named {
		copy(np.Tensor.ToFloat32Slice(), byName[np.Name].Data)
	}
	return nil
}

// Save writes a snapshot to path as JSON.
func Save(st *State, path string) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("checkpoint: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("checkpoint: write %s: %w", path, err)
	}
	return nil
}

// Load reads a snapshot from path.
func Load(path string) (*State, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: read %s: %w", path, err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("checkpoint: parse %s: %w", path, err)
	}
	return &st, nil
}

// ReadConfig extracts just the architecture from a checkpoint file,
// useful for building a model to restore into.
func ReadConfig(path string) (nn.Config, error) {
	st, err := Load(path)
	if err != nil {
		return nn.Config{}, err
	}
	return st.Config, nil
}
