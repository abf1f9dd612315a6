// Package nn implements the model-side collaborators of the evaluation
// pipeline: the Module interface, a Linear layer, a small feed-forward
// Classifier, and checkpoint save/restore on top of the serialization
// package.
package nn

import (
	"github.com/quiver-ml/quiver/internal/tensor"
)

// Module is the base interface for model components.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module for an input batch.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module,
	// including nested module parameters. Modules without parameters
	// return an empty slice.
	Parameters() []*Parameter[B]

	// StateDict returns a map from parameter names to raw tensors.
	StateDict() map[string]*tensor.RawTensor

	// LoadStateDict copies parameter values from a state dictionary.
	// Every parameter of the module must be present with a matching shape.
	LoadStateDict(stateDict map[string]*tensor.RawTensor) error
}
