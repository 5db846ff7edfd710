package cpu

import (
	"fmt"
	"math"
	"unsafe"

	"github.com/djeday123/gomt/backend"
	"github.com/djeday123/gomt/core"
)

// Backend implements backend.Backend for CPU.
type Backend struct{}

// New constructs a CPU backend. The returned value is the execution context
// passed explicitly into tensor and layer constructors.
func New() *Backend { return &Backend{} }

func (b *Backend) Name() string                   { return "cpu" }
func (b *Backend) DeviceType() backend.DeviceType { return backend.CPU }

// ---- Memory ----

func (b *Backend) Alloc(byteLen int) (backend.Storage, error) {
	return &storage{data: make([]byte, byteLen), be: b}, nil
}

func (b *Backend) Copy(dst, src backend.Storage, byteLen int) error {
	d := dst.Bytes()
	s := src.Bytes()
	if len(d) < byteLen || len(s) < byteLen {
		return fmt.Errorf("copy of %d bytes exceeds storage (dst %d, src %d)", byteLen, len(d), len(s))
	}
	copy(d[:byteLen], s[:byteLen])
	return nil
}

// asFloats reinterprets a storage buffer as []float32.
func asFloats(s backend.Storage, n int) []float32 {
	b := s.Bytes()
	if n == 0 || len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), n)
}

func checkFloat32(dtype core.DType) error {
	if dtype != core.Float32 {
		return fmt.Errorf("cpu backend: op not implemented for %s", dtype)
	}
	return nil
}

// ---- Unary ops ----

func unaryOp(dst, src backend.Storage, shape core.Shape, dtype core.DType, f func(float32) float32) error {
	if err := checkFloat32(dtype); err != nil {
		return err
	}
	n := shape.NumElements()
	d := asFloats(dst, n)
	s := asFloats(src, n)
	for i := 0; i < n; i++ {
		d[i] = f(s[i])
	}
	return nil
}

func (b *Backend) Exp(dst, src backend.Storage, shape core.Shape, dtype core.DType) error {
	return unaryOp(dst, src, shape, dtype, func(x float32) float32 {
		return float32(math.Exp(float64(x)))
	})
}

func (b *Backend) Tanh(dst, src backend.Storage, shape core.Shape, dtype core.DType) error {
	return unaryOp(dst, src, shape, dtype, func(x float32) float32 {
		return float32(math.Tanh(float64(x)))
	})
}

func (b *Backend) Sigmoid(dst, src backend.Storage, shape core.Shape, dtype core.DType) error {
	return unaryOp(dst, src, shape, dtype, func(x float32) float32 {
		return 1.0 / (1.0 + float32(math.Exp(float64(-x))))
	})
}

func (b *Backend) Relu(dst, src backend.Storage, shape core.Shape, dtype core.DType) error {
	return unaryOp(dst, src, shape, dtype, func(x float32) float32 {
		if x > 0 {
			return x
		}
		return 0
	})
}

// ---- Binary ops ----

// binaryOp applies f element-wise with NumPy-style broadcasting.
func binaryOp(dst, a, b backend.Storage, shapeA, shapeB, shapeOut core.Shape, dtype core.DType, f func(x, y float32) float32) error {
	if err := checkFloat32(dtype); err != nil {
		return err
	}
	nOut := shapeOut.NumElements()
	dData := asFloats(dst, nOut)
	aData := asFloats(a, shapeA.NumElements())
	bData := asFloats(b, shapeB.NumElements())

	ndim := len(shapeOut)
	strA := broadcastStrides(shapeA, shapeOut)
	strB := broadcastStrides(shapeB, shapeOut)

	idx := make([]int, ndim)
	for i := 0; i < nOut; i++ {
		offA, offB := 0, 0
		for d := 0; d < ndim; d++ {
			offA += idx[d] * strA[d]
			offB += idx[d] * strB[d]
		}
		dData[i] = f(aData[offA], bData[offB])

		for d := ndim - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shapeOut[d] {
				break
			}
			idx[d] = 0
		}
	}
	return nil
}

// broadcastStrides computes per-dimension element strides for indexing a
// (possibly lower-rank or size-1) shape as if it had shapeOut's rank.
func broadcastStrides(shape, shapeOut core.Shape) []int {
	ndim := len(shapeOut)
	strides := make([]int, ndim)
	pad := ndim - len(shape)

	elemStride := 1
	for d := len(shape) - 1; d >= 0; d-- {
		if shape[d] == 1 {
			strides[pad+d] = 0
		} else {
			strides[pad+d] = elemStride
		}
		elemStride *= shape[d]
	}
	return strides
}

func (b *Backend) Add(dst, a, bStore backend.Storage, shapeA, shapeB, shapeOut core.Shape, dtype core.DType) error {
	return binaryOp(dst, a, bStore, shapeA, shapeB, shapeOut, dtype, func(x, y float32) float32 { return x + y })
}

func (b *Backend) Sub(dst, a, bStore backend.Storage, shapeA, shapeB, shapeOut core.Shape, dtype core.DType) error {
	return binaryOp(dst, a, bStore, shapeA, shapeB, shapeOut, dtype, func(x, y float32) float32 { return x - y })
}

func (b *Backend) Mul(dst, a, bStore backend.Storage, shapeA, shapeB, shapeOut core.Shape, dtype core.DType) error {
	return binaryOp(dst, a, bStore, shapeA, shapeB, shapeOut, dtype, func(x, y float32) float32 { return x * y })
}

// ---- MatMul ----

func (b *Backend) MatMul(dst, a, bStore backend.Storage, shapeA, shapeB core.Shape, dtype core.DType) error {
	if err := checkFloat32(dtype); err != nil {
		return err
	}
	if len(shapeA) != 2 || len(shapeB) != 2 {
		return fmt.Errorf("cpu matmul: need 2D operands, got %v @ %v", shapeA, shapeB)
	}
	M, K := shapeA[0], shapeA[1]
	K2, N := shapeB[0], shapeB[1]
	if K != K2 {
		return fmt.Errorf("cpu matmul: inner dims differ: %v @ %v", shapeA, shapeB)
	}

	aData := asFloats(a, M*K)
	bData := asFloats(bStore, K*N)
	dData := asFloats(dst, M*N)

	for i := 0; i < M; i++ {
		for j := 0; j < N; j++ {
			sum := float32(0)
			for k := 0; k < K; k++ {
				sum += aData[i*K+k] * bData[k*N+j]
			}
			dData[i*N+j] = sum
		}
	}
	return nil
}

// ---- Softmax ----

// Softmax normalizes along the trailing axis, numerically stabilized.
func (b *Backend) Softmax(dst, src backend.Storage, shape core.Shape, dtype core.DType) error {
	if err := checkFloat32(dtype); err != nil {
		return err
	}
	n := shape.NumElements()
	width := shape[len(shape)-1]
	rows := n / width
	d := asFloats(dst, n)
	s := asFloats(src, n)

	for r := 0; r < rows; r++ {
		off := r * width
		maxVal := float32(-math.MaxFloat32)
		for i := 0; i < width; i++ {
			if s[off+i] > maxVal {
				maxVal = s[off+i]
			}
		}
		sumExp := float32(0)
		for i := 0; i < width; i++ {
			d[off+i] = float32(math.Exp(float64(s[off+i] - maxVal)))
			sumExp += d[off+i]
		}
		for i := 0; i < width; i++ {
			d[off+i] /= sumExp
		}
	}
	return nil
}

// LogSoftmax computes log(softmax(x)) along the trailing axis.
func (b *Backend) LogSoftmax(dst, src backend.Storage, shape core.Shape, dtype core.DType) error {
	if err := checkFloat32(dtype); err != nil {
		return err
	}
	n := shape.NumElements()
	width := shape[len(shape)-1]
	rows := n / width
	d := asFloats(dst, n)
	s := asFloats(src, n)

	for r := 0; r < rows; r++ {
		off := r * width
		maxVal := float32(-math.MaxFloat32)
		for i := 0; i < width; i++ {
			if s[off+i] > maxVal {
				maxVal = s[off+i]
			}
		}
		sumExp := float64(0)
		for i := 0; i < width; i++ {
			sumExp += math.Exp(float64(s[off+i] - maxVal))
		}
		logSum := float32(math.Log(sumExp)) + maxVal
		for i := 0; i < width; i++ {
			d[off+i] = s[off+i] - logSum
		}
	}
	return nil
}

// ---- Fill ----

func (b *Backend) Fill(dst backend.Storage, shape core.Shape, value float64, dtype core.DType) error {
	if err := checkFloat32(dtype); err != nil {
		return err
	}
	n := shape.NumElements()
	d := asFloats(dst, n)
	v := float32(value)
	for i := range d {
		d[i] = v
	}
	return nil
}
