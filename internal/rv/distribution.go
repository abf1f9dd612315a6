// Package rv provides random variables and transformed random variables
// over the tensor abstraction: a Distribution interface, lazily realized
// RandomVariables, and bijective Transforms composing by change of
// variables.
package rv

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/quiver-ml/quiver/internal/tensor"
)

// Distribution is a probability distribution over tensors of a fixed shape.
//
// Statistics without a closed form return a *NotImplementedError rather
// than an approximation.
type Distribution[B tensor.Backend] interface {
	// Sample draws a fresh independent sample.
	Sample() *tensor.Tensor[float64, B]

	// LogProb evaluates the element-wise log-density at value.
	LogProb(value *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error)

	// Mean returns the distribution's mean, if it has a closed form.
	Mean() (*tensor.Tensor[float64, B], error)

	// Variance returns the distribution's variance, if it has a closed form.
	Variance() (*tensor.Tensor[float64, B], error)
}

// Normal is an element-wise i.i.d. normal distribution over a fixed shape,
// backed by gonum's univariate normal.
type Normal[B tensor.Backend] struct {
	dist    distuv.Normal
	shape   tensor.Shape
	backend B
}

// NewNormal creates a Normal distribution with the given mean and standard
// deviation. The rand source is explicit so callers control seeding.
func NewNormal[B tensor.Backend](mu, sigma float64, shape tensor.Shape, src rand.Source, backend B) *Normal[B] {
	return &Normal[B]{
		dist:    distuv.Normal{Mu: mu, Sigma: sigma, Src: src},
		shape:   shape.Clone(),
		backend: backend,
	}
}

// Shape returns the sample shape.
func (n *Normal[B]) Shape() tensor.Shape {
	return n.shape
}

// Sample draws a fresh tensor of independent normal values.
func (n *Normal[B]) Sample() *tensor.Tensor[float64, B] {
	out := tensor.Zeros[float64, B](n.shape, n.backend)
	data := out.Data()
	for i := range data {
		data[i] = n.dist.Rand()
	}
	return out
}

// LogProb evaluates the element-wise normal log-density at value.
func (n *Normal[B]) LogProb(value *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error) {
	out := tensor.Zeros[float64, B](value.Shape(), n.backend)
	src, dst := value.Data(), out.Data()
	for i, v := range src {
		dst[i] = n.dist.LogProb(v)
	}
	return out, nil
}

// Mean returns a tensor filled with Mu.
func (n *Normal[B]) Mean() (*tensor.Tensor[float64, B], error) {
	return tensor.Full[float64, B](n.shape, n.dist.Mu, n.backend), nil
}

// Variance returns a tensor filled with Sigma^2.
func (n *Normal[B]) Variance() (*tensor.Tensor[float64, B], error) {
	return tensor.Full[float64, B](n.shape, n.dist.Sigma*n.dist.Sigma, n.backend), nil
}
