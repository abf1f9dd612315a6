package cpu

import (
	"fmt"

	"github.com/quiver-ml/quiver/internal/tensor"
)

// SumDim sums along a dimension. With keepDim the reduced dimension is
// retained with size 1, otherwise it is removed.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("sumdim", x, dim, keepDim, false)
}

// MeanDim averages along a dimension.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("meandim", x, dim, keepDim, true)
}

func (cpu *CPUBackend) reduceDim(name string, x *tensor.RawTensor, dim int, keepDim, mean bool) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape), name)

	result := cpu.mustRaw(reducedShape(shape, dim, keepDim), x.DType())

	size := shape[dim]
	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	outer := x.NumElements() / (size * inner)

	switch x.DType() {
	case tensor.Float32:
		reduceLanes(x.AsFloat32(), result.AsFloat32(), outer, size, inner, mean)
	case tensor.Float64:
		reduceLanes(x.AsFloat64(), result.AsFloat64(), outer, size, inner, mean)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	return result
}

func reduceLanes[T ~float32 | ~float64](src, dst []T, outer, size, inner int, mean bool) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*size*inner + in
			sum := 0.0
			for k := 0; k < size; k++ {
				sum += float64(src[base+k*inner])
			}
			if mean {
				sum /= float64(size)
			}
			dst[o*inner+in] = T(sum)
		}
	}
}

// Argmax returns the index of the maximum value along a dimension.
// Ties resolve to the lowest index. The reduced dimension is removed.
func (cpu *CPUBackend) Argmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape), "argmax")

	result := cpu.mustRaw(reducedShape(shape, dim, false), tensor.Int32)

	size := shape[dim]
	inner := 1
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	outer := x.NumElements() / (size * inner)

	switch x.DType() {
	case tensor.Float32:
		argmaxLanes(x.AsFloat32(), result.AsInt32(), outer, size, inner)
	case tensor.Float64:
		argmaxLanes(x.AsFloat64(), result.AsInt32(), outer, size, inner)
	default:
		panic(fmt.Sprintf("argmax: unsupported dtype %s", x.DType()))
	}

	return result
}

func argmaxLanes[T ~float32 | ~float64](src []T, dst []int32, outer, size, inner int) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*size*inner + in
			best := src[base]
			bestIdx := int32(0)
			for k := 1; k < size; k++ {
				if v := src[base+k*inner]; v > best {
					best = v
					bestIdx = int32(k)
				}
			}
			dst[o*inner+in] = bestIdx
		}
	}
}

// reducedShape removes (or keeps with size 1) the reduced dimension.
// Reducing the only dimension yields a single-element 1-D shape so the
// result remains addressable.
func reducedShape(shape tensor.Shape, dim int, keepDim bool) tensor.Shape {
	if keepDim {
		out := shape.Clone()
		out[dim] = 1
		return out
	}
	out := make(tensor.Shape, 0, len(shape)-1)
	for i, d := range shape {
		if i != dim {
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		out = tensor.Shape{1}
	}
	return out
}
