package rv

import (
	"github.com/quiver-ml/quiver/internal/tensor"
)

// lifecycle is the realization state of a random variable. The transition
// unrealized -> realized happens exactly once per instance.
type lifecycle int

const (
	unrealized lifecycle = iota
	realized
)

// Variable is anything that pairs a distribution with a realized value:
// a base RandomVariable or a TransformedRandomVariable. Values realize
// lazily and stay fixed for the object's lifetime.
type Variable[B tensor.Backend] interface {
	// Value returns the realized sample, drawing it on first call.
	Value() *tensor.Tensor[float64, B]

	// Distribution returns the variable's distribution.
	Distribution() Distribution[B]

	// Realized reports whether the sample has been drawn.
	Realized() bool
}

// RandomVariable pairs a distribution with a lazily drawn, cached sample.
// Repeated Value() calls return the same tensor: the variable models a
// single observation, not a stream of draws.
//
// Instances are not safe for concurrent use; callers using goroutines must
// serialize access around the first Value() call.
type RandomVariable[B tensor.Backend] struct {
	dist   Distribution[B]
	state  lifecycle
	sample *tensor.Tensor[float64, B]
}

// New creates an unrealized random variable over dist.
func New[B tensor.Backend](dist Distribution[B]) *RandomVariable[B] {
	return &RandomVariable[B]{dist: dist, state: unrealized}
}

// Distribution returns the variable's distribution.
func (rv *RandomVariable[B]) Distribution() Distribution[B] {
	return rv.dist
}

// Realized reports whether the sample has been drawn.
func (rv *RandomVariable[B]) Realized() bool {
	return rv.state == realized
}

// Value returns the realized sample, drawing and caching it on first call.
func (rv *RandomVariable[B]) Value() *tensor.Tensor[float64, B] {
	if rv.state == unrealized {
		rv.sample = rv.dist.Sample()
		rv.state = realized
	}
	return rv.sample
}

// LogProb evaluates the variable's log-density at value.
func (rv *RandomVariable[B]) LogProb(value *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error) {
	return rv.dist.LogProb(value)
}
