package nn

import (
	"math/rand/v2"

	"github.com/quiver-ml/quiver/internal/tensor"
)

// Classifier is a small feed-forward image classifier:
// Linear -> ReLU -> Linear, returning raw logits.
//
// It stands in for the externally trained model in the evaluation
// pipeline; the evaluator only sees the Module interface.
type Classifier[B tensor.Backend] struct {
	fc1  *Linear[B]
	relu *ReLU[B]
	fc2  *Linear[B]
}

// NewClassifier creates a classifier mapping inFeatures inputs to
// numClasses logits through one hidden layer.
func NewClassifier[B tensor.Backend](inFeatures, hidden, numClasses int, rng *rand.Rand, backend B) *Classifier[B] {
	return &Classifier[B]{
		fc1:  NewLinear[B]("fc1", inFeatures, hidden, rng, backend),
		relu: NewReLU[B](),
		fc2:  NewLinear[B]("fc2", hidden, numClasses, rng, backend),
	}
}

// Forward maps a batch [batch, in_features] to logits [batch, num_classes].
// No softmax is applied; the metrics layer works on raw logits.
func (c *Classifier[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	x := c.fc1.Forward(input)
	x = c.relu.Forward(x)
	return c.fc2.Forward(x)
}

// Parameters returns all trainable parameters.
func (c *Classifier[B]) Parameters() []*Parameter[B] {
	params := c.fc1.Parameters()
	return append(params, c.fc2.Parameters()...)
}

// StateDict returns all parameters keyed by name.
func (c *Classifier[B]) StateDict() map[string]*tensor.RawTensor {
	return stateDictOf(c.Parameters())
}

// LoadStateDict copies parameter values from a state dictionary.
func (c *Classifier[B]) LoadStateDict(stateDict map[string]*tensor.RawTensor) error {
	return loadAll(stateDict, c.Parameters())
}
