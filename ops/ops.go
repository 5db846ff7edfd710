package ops

import (
	"fmt"

	"github.com/djeday123/gomt/backend"
	"github.com/djeday123/gomt/tensor"
)

// The execution context travels with the data: every op dispatches to the
// backend that allocated its operands, never to a global registry.

func allocOutput(be backend.Backend, shape tensor.Shape, dtype tensor.DType) (backend.Storage, error) {
	return be.Alloc(shape.NumElements() * int(dtype.Size()))
}

// Add performs element-wise addition with broadcasting.
func Add(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	be := a.Backend()
	outShape, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		return nil, err
	}
	store, err := allocOutput(be, outShape, a.DType())
	if err != nil {
		return nil, err
	}
	if err := be.Add(store, a.Storage(), b.Storage(), a.Shape(), b.Shape(), outShape, a.DType()); err != nil {
		return nil, err
	}
	return tensor.NewTensor(store, outShape, a.DType()), nil
}

// Sub performs element-wise subtraction with broadcasting.
func Sub(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	be := a.Backend()
	outShape, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		return nil, err
	}
	store, err := allocOutput(be, outShape, a.DType())
	if err != nil {
		return nil, err
	}
	if err := be.Sub(store, a.Storage(), b.Storage(), a.Shape(), b.Shape(), outShape, a.DType()); err != nil {
		return nil, err
	}
	return tensor.NewTensor(store, outShape, a.DType()), nil
}

// Mul performs element-wise multiplication with broadcasting.
func Mul(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	be := a.Backend()
	outShape, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		return nil, err
	}
	store, err := allocOutput(be, outShape, a.DType())
	if err != nil {
		return nil, err
	}
	if err := be.Mul(store, a.Storage(), b.Storage(), a.Shape(), b.Shape(), outShape, a.DType()); err != nil {
		return nil, err
	}
	return tensor.NewTensor(store, outShape, a.DType()), nil
}

// MatMul performs 2D matrix multiplication: [M, K] @ [K, N] = [M, N].
func MatMul(a, b *tensor.Tensor) (*tensor.Tensor, error) {
	be := a.Backend()

	// Ensure contiguous layout before sending to backend
	var err error
	if !a.IsContiguous() {
		a, err = a.Contiguous()
		if err != nil {
			return nil, fmt.Errorf("matmul: contiguous A: %w", err)
		}
	}
	if !b.IsContiguous() {
		b, err = b.Contiguous()
		if err != nil {
			return nil, fmt.Errorf("matmul: contiguous B: %w", err)
		}
	}

	shapeA := a.Shape()
	shapeB := b.Shape()
	if len(shapeA) != 2 || len(shapeB) != 2 {
		return nil, fmt.Errorf("matmul: need 2D operands, got %v @ %v", shapeA, shapeB)
	}

	outShape := tensor.Shape{shapeA[0], shapeB[1]}
	store, err := allocOutput(be, outShape, a.DType())
	if err != nil {
		return nil, err
	}
	if err := be.MatMul(store, a.Storage(), b.Storage(), shapeA, shapeB, a.DType()); err != nil {
		return nil, err
	}
	return tensor.NewTensor(store, outShape, a.DType()), nil
}

func unary(t *tensor.Tensor, apply func(be backend.Backend, dst, src backend.Storage) error) (*tensor.Tensor, error) {
	be := t.Backend()
	store, err := allocOutput(be, t.Shape(), t.DType())
	if err != nil {
		return nil, err
	}
	if err := apply(be, store, t.Storage()); err != nil {
		return nil, err
	}
	return tensor.NewTensor(store, t.Shape(), t.DType()), nil
}

// Relu applies rectified linear unit.
func Relu(t *tensor.Tensor) (*tensor.Tensor, error) {
	return unary(t, func(be backend.Backend, dst, src backend.Storage) error {
		return be.Relu(dst, src, t.Shape(), t.DType())
	})
}

// Tanh applies the hyperbolic tangent.
func Tanh(t *tensor.Tensor) (*tensor.Tensor, error) {
	return unary(t, func(be backend.Backend, dst, src backend.Storage) error {
		return be.Tanh(dst, src, t.Shape(), t.DType())
	})
}

// Sigmoid applies the logistic function.
func Sigmoid(t *tensor.Tensor) (*tensor.Tensor, error) {
	return unary(t, func(be backend.Backend, dst, src backend.Storage) error {
		return be.Sigmoid(dst, src, t.Shape(), t.DType())
	})
}

// Exp applies the exponential function.
func Exp(t *tensor.Tensor) (*tensor.Tensor, error) {
	return unary(t, func(be backend.Backend, dst, src backend.Storage) error {
		return be.Exp(dst, src, t.Shape(), t.DType())
	})
}

// Softmax normalizes along the trailing axis.
func Softmax(t *tensor.Tensor) (*tensor.Tensor, error) {
	return unary(t, func(be backend.Backend, dst, src backend.Storage) error {
		return be.Softmax(dst, src, t.Shape(), t.DType())
	})
}

// LogSoftmax computes log(softmax(x)) along the trailing axis.
func LogSoftmax(t *tensor.Tensor) (*tensor.Tensor, error) {
	return unary(t, func(be backend.Backend, dst, src backend.Storage) error {
		return be.LogSoftmax(dst, src, t.Shape(), t.DType())
	})
}
