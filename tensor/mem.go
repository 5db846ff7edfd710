package tensor

import "unsafe"

// copySliceToStorage copies a Go slice into a storage buffer safely.
func copySliceToStorage[T any](data []T, dst []byte) {
	if len(data) == 0 || len(dst) == 0 {
		return
	}
	var zero T
	elemSize := int(unsafe.Sizeof(zero))
	srcLen := len(data) * elemSize
	if srcLen > len(dst) {
		srcLen = len(dst)
	}
	srcBytes := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), srcLen)
	copy(dst, srcBytes)
}

// bytesSlice interprets a byte buffer as a typed slice.
func bytesSlice[T any](b []byte, n int) []T {
	if n == 0 || len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}

// ToFloat32Slice returns the tensor data as []float32.
// The slice aliases the tensor's storage; writes are visible to the tensor.
func (t *Tensor) ToFloat32Slice() []float32 {
	return bytesSlice[float32](t.storage.Bytes(), t.NumElements())
}

// ToInt64Slice returns the tensor data as []int64.
func (t *Tensor) ToInt64Slice() []int64 {
	return bytesSlice[int64](t.storage.Bytes(), t.NumElements())
}
