package cpu

import (
	"fmt"

	"github.com/quiver-ml/quiver/internal/tensor"
)

// Reshape returns a view over the same data with a new shape.
func (cpu *CPUBackend) Reshape(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	out, err := x.WithShape(newShape)
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return out
}

// Cat concatenates tensors along the given dimension. All inputs must have
// the same dtype and agree on every dimension except dim.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: empty tensor list")
	}

	first := tensors[0]
	rank := len(first.Shape())
	dim = normalizeDim(dim, rank, "cat")

	catSize := 0
	for _, t := range tensors {
		if t.DType() != first.DType() {
			panic(fmt.Sprintf("cat: dtype mismatch: %s vs %s", first.DType(), t.DType()))
		}
		shape := t.Shape()
		if len(shape) != rank {
			panic(fmt.Sprintf("cat: rank mismatch: %v vs %v", first.Shape(), shape))
		}
		for i := 0; i < rank; i++ {
			if i != dim && shape[i] != first.Shape()[i] {
				panic(fmt.Sprintf("cat: shape mismatch on dimension %d: %v vs %v", i, first.Shape(), shape))
			}
		}
		catSize += shape[dim]
	}

	outShape := first.Shape().Clone()
	outShape[dim] = catSize
	result := cpu.mustRaw(outShape, first.DType())

	elemSize := first.DType().Size()
	inner := 1
	for i := dim + 1; i < rank; i++ {
		inner *= outShape[i]
	}
	outer := outShape.NumElements() / (catSize * inner)

	// Copy block-wise: for each slice of the outer dimensions, append each
	// input's contiguous [shape[dim] * inner] block in order.
	dst := result.Data()
	offset := 0
	for o := 0; o < outer; o++ {
		for _, t := range tensors {
			block := t.Shape()[dim] * inner * elemSize
			src := t.Data()[o*block : (o+1)*block]
			copy(dst[offset:offset+block], src)
			offset += block
		}
	}

	return result
}
