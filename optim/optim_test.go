package optim

import (
	"math"
	"testing"

	"github.com/djeday123/gomt/backend/cpu"
	"github.com/djeday123/gomt/tensor"
)

func paramWithGrad(t *testing.T, data, grad []float32) *tensor.Tensor {
	t.Helper()
	be := cpu.New()
	p, err := tensor.FromSlice(be, data, tensor.Shape{len(data)})
	if err != nil {
		t.Fatal(err)
	}
	g, err := tensor.FromSlice(be, grad, tensor.Shape{len(grad)})
	if err != nil {
		t.Fatal(err)
	}
	p.SetGrad(g)
	return p
}

func TestSGDStep(t *testing.T) {
	p := paramWithGrad(t, []float32{1, 2, 3}, []float32{0.5, -0.5, 1})

	opt := NewSGD([]*tensor.Tensor{p}, 0.1)
	opt.Step()

	got := p.ToFloat32Slice()
	want := []float32{0.95, 2.05, 2.9}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > 1e-6 {
			t.Errorf("p[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSGDSkipsNilGrad(t *testing.T) {
	be := cpu.New()
	p, err := tensor.FromSlice(be, []float32{1, 2}, tensor.Shape{2})
	if err != nil {
		t.Fatal(err)
	}

	opt := NewSGD([]*tensor.Tensor{p}, 0.1)
	opt.Step()

	got := p.ToFloat32Slice()
	if got[0] != 1 || got[1] != 2 {
		t.Errorf("param changed without a gradient: %v", got)
	}
}

func TestZeroGrad(t *testing.T) {
	p := paramWithGrad(t, []float32{1, 2}, []float32{3, 4})

	opt := NewSGD([]*tensor.Tensor{p}, 0.1)
	opt.ZeroGrad()

	g := p.Grad().ToFloat32Slice()
	if g[0] != 0 || g[1] != 0 {
		t.Errorf("grad = %v, want zeros", g)
	}
}

func TestAdamWDescendsQuadratic(t *testing.T) {
	// Minimize f(x) = x^2 from x=5; AdamW must walk toward zero.
	p := paramWithGrad(t, []float32{5}, []float32{0})

	opt := NewAdamW([]*tensor.Tensor{p}, 0.1)
	opt.WeightDecay = 0

	for i := 0; i < 200; i++ {
		x := p.ToFloat32Slice()[0]
		p.Grad().ToFloat32Slice()[0] = 2 * x
		opt.Step()
	}

	if x := p.ToFloat32Slice()[0]; math.Abs(float64(x)) > 0.5 {
		t.Errorf("x = %v after 200 steps, want near 0", x)
	}
}

func TestAdamWFirstStepSize(t *testing.T) {
	// With bias correction the very first update has magnitude close to
	// the learning rate regardless of gradient scale.
	p := paramWithGrad(t, []float32{0}, []float32{1e-3})

	opt := NewAdamW([]*tensor.Tensor{p}, 0.01)
	opt.WeightDecay = 0
	opt.Step()

	got := math.Abs(float64(p.ToFloat32Slice()[0]))
	if got < 0.005 || got > 0.011 {
		t.Errorf("first step moved %v, want about lr 0.01", got)
	}
}
