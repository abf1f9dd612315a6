// Package cpu implements the pure-Go CPU backend for tensor operations.
package cpu

import (
	"fmt"

	"github.com/quiver-ml/quiver/internal/tensor"
)

// CPUBackend implements tensor.Backend with straightforward Go loops.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{device: tensor.CPU}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// mustRaw allocates a RawTensor or panics. Backend ops validate shapes
// before allocating, so an allocation failure here is a programming error.
func (cpu *CPUBackend) mustRaw(shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	raw, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("cpu: %v", err))
	}
	return raw
}

// broadcastStrides returns per-output-dimension element strides for an
// input shape broadcast to the output shape. Broadcast dimensions (size 1
// or missing) get stride 0 so the same element is reused.
func broadcastStrides(in, out tensor.Shape) []int {
	strides := make([]int, len(out))
	inStrides := in.ComputeStrides()
	offset := len(out) - len(in)
	for i := range out {
		if i < offset || in[i-offset] == 1 {
			strides[i] = 0
		} else {
			strides[i] = inStrides[i-offset]
		}
	}
	return strides
}

// forEachBroadcast walks every element of the output shape and reports the
// corresponding flat indices into two broadcast inputs.
func forEachBroadcast(out tensor.Shape, aStrides, bStrides []int, f func(outIdx, aIdx, bIdx int)) {
	n := out.NumElements()
	rank := len(out)
	coords := make([]int, rank)

	aIdx, bIdx := 0, 0
	for i := 0; i < n; i++ {
		f(i, aIdx, bIdx)

		// Odometer increment over the output coordinates.
		for d := rank - 1; d >= 0; d-- {
			coords[d]++
			aIdx += aStrides[d]
			bIdx += bStrides[d]
			if coords[d] < out[d] {
				break
			}
			coords[d] = 0
			aIdx -= aStrides[d] * out[d]
			bIdx -= bStrides[d] * out[d]
		}
	}
}
