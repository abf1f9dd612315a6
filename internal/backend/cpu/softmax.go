package cpu

import (
	"fmt"
	"math"

	"github.com/quiver-ml/quiver/internal/tensor"
)

// Softmax applies softmax along the given dimension.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	out := cpu.LogSoftmax(x, dim)
	switch out.DType() {
	case tensor.Float32:
		data := out.AsFloat32()
		for i, v := range data {
			data[i] = float32(math.Exp(float64(v)))
		}
	case tensor.Float64:
		data := out.AsFloat64()
		for i, v := range data {
			data[i] = math.Exp(v)
		}
	}
	return out
}

// LogSoftmax applies log-softmax along the given dimension.
//
// LogSoftmax(z)[i] = z[i] - (max(z) + log(sum exp(z - max(z))))
//
// Subtracting the maximum before exponentiating prevents overflow when
// logits are large and underflow when they are all very negative.
func (cpu *CPUBackend) LogSoftmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape), "logsoftmax")

	result := cpu.mustRaw(shape, x.DType())

	size := shape[dim]
	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	outer := x.NumElements() / (size * inner)

	switch x.DType() {
	case tensor.Float32:
		logSoftmaxLanes(x.AsFloat32(), result.AsFloat32(), outer, size, inner)
	case tensor.Float64:
		logSoftmaxLanes(x.AsFloat64(), result.AsFloat64(), outer, size, inner)
	default:
		panic(fmt.Sprintf("logsoftmax: unsupported dtype %s", x.DType()))
	}

	return result
}

// logSoftmaxLanes normalizes each lane (a stride-inner slice of length size)
// independently.
func logSoftmaxLanes[T ~float32 | ~float64](src, dst []T, outer, size, inner int) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*size*inner + in

			maxV := float64(src[base])
			for k := 1; k < size; k++ {
				if v := float64(src[base+k*inner]); v > maxV {
					maxV = v
				}
			}

			sumExp := 0.0
			for k := 0; k < size; k++ {
				sumExp += math.Exp(float64(src[base+k*inner]) - maxV)
			}
			logSumExp := maxV + math.Log(sumExp)

			for k := 0; k < size; k++ {
				dst[base+k*inner] = T(float64(src[base+k*inner]) - logSumExp)
			}
		}
	}
}

func normalizeDim(dim, rank int, op string) int {
	if dim < 0 {
		dim += rank
	}
	if dim < 0 || dim >= rank {
		panic(fmt.Sprintf("%s: dimension %d out of range for rank %d", op, dim, rank))
	}
	return dim
}
