package nn

import "github.com/djeday123/gomt/core"

// AttnWindow is the fixed-capacity buffer of encoder outputs the decoder
// attends over. It always holds exactly maxLen slots of dim-sized vectors:
// slots past the true source length stay zero, and source positions past
// maxLen are silently dropped. Attention weights are therefore always a
// fixed-size distribution.
//
// Padding slots are NOT masked out of the attention softmax. That is the
// documented policy: the model may allocate (typically near-zero) mass to
// empty positions.
type AttnWindow struct {
	data   []float32 // maxLen * dim, row per slot
	maxLen int
	dim    int
	valid  int // number of slots holding real encoder outputs
}

// NewAttnWindow creates an all-zero window.
func NewAttnWindow(maxLen, dim int) *AttnWindow {
	return &AttnWindow{
		data:   make([]float32, maxLen*dim),
		maxLen: maxLen,
		dim:    dim,
	}
}

// BuildWindow copies encoder outputs into a fresh window, zero-padding
// short sentences and truncating long ones.
func BuildWindow(outputs [][]float32, maxLen, dim int) (*AttnWindow, error) {
	w := NewAttnWindow(maxLen, dim)
	for i, out := range outputs {
		if i >= maxLen {
			break // tail context beyond the window is dropped
		}
		if len(out) != dim {
			return nil, &core.ShapeMismatchError{Ctx: "attention window slot", Want: core.Shape{dim}, Got: core.Shape{len(out)}}
		}
		copy(w.data[i*dim:(i+1)*dim], out)
		w.valid++
	}
	return w, nil
}

func (w *AttnWindow) MaxLen() int { return w.maxLen }
func (w *AttnWindow) Dim() int    { return w.dim }

// Valid returns how many slots hold real encoder outputs.
func (w *AttnWindow) Valid() int { return w.valid }

// Slot returns the i-th context vector (aliases the buffer).
func (w *AttnWindow) Slot(i int) []float32 {
	return w.data[i*w.dim : (i+1)*w.dim]
}

// Mix returns the weighted sum of all slots: sum_i weights[i] * slot_i.
// Zero-filled padding slots participate like any other.
func (w *AttnWindow) Mix(weights []float32) []float32 {
	out := make([]float32, w.dim)
	for i := 0; i < w.maxLen; i++ {
		wt := weights[i]
		if wt == 0 {
			continue
		}
		slot := w.data[i*w.dim : (i+1)*w.dim]
		for d := 0; d < w.dim; d++ {
			out[d] += wt * slot[d]
		}
	}
	return out
}
