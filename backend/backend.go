package backend

import (
	"fmt"

	"github.com/djeday123/gomt/core"
)

// DeviceType represents the compute device.
type DeviceType uint8

const (
	CPU DeviceType = iota
	CUDA
	Metal
)

func (d DeviceType) String() string {
	names := [...]string{"cpu", "cuda", "metal"}
	if int(d) < len(names) {
		return names[d]
	}
	return fmt.Sprintf("device(%d)", d)
}

// Device identifies a specific device (type + index).
type Device struct {
	Type  DeviceType
	Index int // GPU index, 0 for CPU
}

var CPU0 = Device{Type: CPU, Index: 0}

func (d Device) String() string {
	if d.Type == CPU {
		return "cpu"
	}
	return fmt.Sprintf("%s:%d", d.Type, d.Index)
}

// Storage represents a raw memory buffer on a device.
// A storage carries a reference to the backend that allocated it, so
// downstream code never consults ambient global state to find its
// execution context.
type Storage interface {
	// Device returns which device this storage lives on.
	Device() Device

	// Bytes returns the underlying byte slice (CPU only, nil for GPU).
	Bytes() []byte

	// ByteLen returns the total size in bytes.
	ByteLen() int

	// Backend returns the backend that owns this storage.
	Backend() Backend

	// Free releases the memory.
	Free()
}

// Backend defines the compute interface a hardware backend must implement.
// Each operation takes raw storage buffers and shape metadata. Backends are
// constructed explicitly (e.g. cpu.New()) and passed into every layer
// constructor; there is no global registry.
type Backend interface {
	// Device info
	Name() string
	DeviceType() DeviceType

	// Memory management
	Alloc(byteLen int) (Storage, error)
	Copy(dst, src Storage, byteLen int) error

	// Unary ops
	Exp(dst, src Storage, shape core.Shape, dtype core.DType) error
	Tanh(dst, src Storage, shape core.Shape, dtype core.DType) error
	Sigmoid(dst, src Storage, shape core.Shape, dtype core.DType) error
	Relu(dst, src Storage, shape core.Shape, dtype core.DType) error

	// Binary ops (with broadcasting)
	Add(dst, a, b Storage, shapeA, shapeB, shapeOut core.Shape, dtype core.DType) error
	Sub(dst, a, b Storage, shapeA, shapeB, shapeOut core.Shape, dtype core.DType) error
	Mul(dst, a, b Storage, shapeA, shapeB, shapeOut core.Shape, dtype core.DType) error

	// MatMul: C = A @ B
	// A: [M, K], B: [K, N], C: [M, N]
	MatMul(dst, a, b Storage, shapeA, shapeB core.Shape, dtype core.DType) error

	// Softmax / LogSoftmax along the trailing axis
	Softmax(dst, src Storage, shape core.Shape, dtype core.DType) error
	LogSoftmax(dst, src Storage, shape core.Shape, dtype core.DType) error

	// Fill sets every element to value.
	Fill(dst Storage, shape core.Shape, value float64, dtype core.DType) error
}
