package nn

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/quiver-ml/quiver/internal/tensor"
)

// Linear implements a fully connected layer: y = x @ W + b.
//
// The weight is stored as [in_features, out_features] so the forward pass
// is a single matmul without a transpose.
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B] // [in_features, out_features]
	bias        *Parameter[B] // [out_features]
}

// NewLinear creates a Linear layer with Xavier-uniform weights and zero
// biases, drawn from the given rand source.
func NewLinear[B tensor.Backend](name string, inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	bound := float32(math.Sqrt(6.0 / float64(inFeatures+outFeatures)))
	weight := tensor.Uniform[float32, B](tensor.Shape{inFeatures, outFeatures}, -bound, bound, rng, backend)
	bias := tensor.Zeros[float32, B](tensor.Shape{outFeatures}, backend)

	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      NewParameter(name+".weight", weight),
		bias:        NewParameter(name+".bias", bias),
	}
}

// Forward computes y = x @ W + b for a batch.
// Input shape [batch, in_features], output shape [batch, out_features].
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := input.Shape()
	if len(shape) != 2 || shape[1] != l.inFeatures {
		panic(fmt.Sprintf("Linear.Forward: expected input [batch, %d], got shape %v", l.inFeatures, shape))
	}

	output := input.MatMul(l.weight.Tensor())
	// Reshape bias to [1, out_features] so it broadcasts over the batch.
	return output.Add(l.bias.Tensor().Reshape(1, l.outFeatures))
}

// Parameters returns [weight, bias].
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

// StateDict returns the layer's parameters keyed by name.
func (l *Linear[B]) StateDict() map[string]*tensor.RawTensor {
	return stateDictOf(l.Parameters())
}

// LoadStateDict copies parameter values from a state dictionary.
func (l *Linear[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return loadAll(stateDict, l.Parameters())
}
