package tensor

import (
	"fmt"

	"github.com/djeday123/gomt/backend"
)

// Tensor is the core n-dimensional array. Parameters keep their gradient
// here; forward activations are plain tensors.
type Tensor struct {
	storage backend.Storage
	shape   Shape
	strides Strides
	dtype   DType

	requiresGrad bool
	grad         *Tensor
}

// ---- Constructors ----

// NewTensor creates a tensor with given storage and metadata.
func NewTensor(storage backend.Storage, shape Shape, dtype DType) *Tensor {
	strides := ContiguousStrides(shape, dtype.Size())
	return &Tensor{
		storage: storage,
		shape:   shape.Clone(),
		strides: strides,
		dtype:   dtype,
	}
}

// FromSlice creates a tensor on the given backend from a Go slice.
func FromSlice[T float32 | float64 | int32 | int64](be backend.Backend, data []T, shape Shape) (*Tensor, error) {
	n := shape.NumElements()
	if len(data) != n {
		return nil, fmt.Errorf("data length %d != shape elements %d", len(data), n)
	}

	var dtype DType
	switch any(data).(type) {
	case []float32:
		dtype = Float32
	case []float64:
		dtype = Float64
	case []int32:
		dtype = Int32
	case []int64:
		dtype = Int64
	}

	byteLen := n * int(dtype.Size())
	store, err := be.Alloc(byteLen)
	if err != nil {
		return nil, err
	}
	copySliceToStorage(data, store.Bytes())

	return NewTensor(store, shape, dtype), nil
}

// Zeros creates a zero-filled tensor.
func Zeros(be backend.Backend, shape Shape, dtype DType) (*Tensor, error) {
	n := shape.NumElements()
	store, err := be.Alloc(n * int(dtype.Size()))
	if err != nil {
		return nil, err
	}
	if err := be.Fill(store, shape, 0, dtype); err != nil {
		store.Free()
		return nil, err
	}
	return NewTensor(store, shape, dtype), nil
}

// ---- Accessors ----

func (t *Tensor) Shape() Shape             { return t.shape }
func (t *Tensor) Strides() Strides         { return t.strides }
func (t *Tensor) DType() DType             { return t.dtype }
func (t *Tensor) NDim() int                { return len(t.shape) }
func (t *Tensor) NumElements() int         { return t.shape.NumElements() }
func (t *Tensor) Device() backend.Device   { return t.storage.Device() }
func (t *Tensor) Storage() backend.Storage { return t.storage }
func (t *Tensor) Backend() backend.Backend { return t.storage.Backend() }

func (t *Tensor) IsContiguous() bool {
	return IsContiguous(t.shape, t.strides, t.dtype.Size())
}

func (t *Tensor) RequiresGrad() bool { return t.requiresGrad }

func (t *Tensor) SetRequiresGrad(v bool) *Tensor {
	t.requiresGrad = v
	return t
}

func (t *Tensor) Grad() *Tensor { return t.grad }

func (t *Tensor) SetGrad(grad *Tensor) { t.grad = grad }

// ZeroGrad clears the gradient buffer in place (keeps the allocation).
func (t *Tensor) ZeroGrad() {
	if t.grad == nil {
		return
	}
	g := t.grad.ToFloat32Slice()
	for i := range g {
		g[i] = 0
	}
}

// ---- Views ----

// Transpose returns a view with permuted axes (shared storage).
func (t *Tensor) Transpose(axes []int) (*Tensor, error) {
	newShape, newStrides, err := Permute(t.shape, t.strides, axes)
	if err != nil {
		return nil, err
	}
	return &Tensor{
		storage:      t.storage,
		shape:        newShape,
		strides:      newStrides,
		dtype:        t.dtype,
		requiresGrad: t.requiresGrad,
	}, nil
}

// T transposes a 2D tensor (shorthand for Transpose([]int{1, 0})).
func (t *Tensor) T() (*Tensor, error) {
	if t.NDim() != 2 {
		return nil, fmt.Errorf("T() requires 2D tensor, got %dD", t.NDim())
	}
	return t.Transpose([]int{1, 0})
}

// Contiguous returns a tensor with row-major layout, copying if needed.
func (t *Tensor) Contiguous() (*Tensor, error) {
	if t.IsContiguous() {
		return t, nil
	}
	n := t.NumElements()
	elemSize := int(t.dtype.Size())
	store, err := t.Backend().Alloc(n * elemSize)
	if err != nil {
		return nil, err
	}
	dst := store.Bytes()
	src := t.storage.Bytes()

	ndim := len(t.shape)
	idx := make([]int, ndim)
	for i := 0; i < n; i++ {
		srcOff := 0
		for d := 0; d < ndim; d++ {
			srcOff += idx[d] * t.strides[d]
		}
		copy(dst[i*elemSize:(i+1)*elemSize], src[srcOff:srcOff+elemSize])

		for d := ndim - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < t.shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return NewTensor(store, t.shape, t.dtype), nil
}

// Free releases the underlying storage.
func (t *Tensor) Free() {
	if t.storage != nil {
		t.storage.Free()
		t.storage = nil
	}
	if t.grad != nil {
		t.grad.Free()
		t.grad = nil
	}
}

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(shape=%v, dtype=%s, device=%s, grad=%v)",
		t.shape, t.dtype, t.Device(), t.requiresGrad)
}
