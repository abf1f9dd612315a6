package rv

import (
	"github.com/quiver-ml/quiver/internal/tensor"
)

// TransformedRandomVariable composes a base variable with a transform.
// Its value is the transform's forward map applied to the base value; its
// distribution is the push-forward of the base distribution. Pipelines of
// transforms are built by nesting, each layer independently verifiable.
//
// Like RandomVariable, instances are not safe for concurrent use.
type TransformedRandomVariable[B tensor.Backend] struct {
	base      Variable[B]
	transform Transform[B]
	dist      *pushForward[B]
	state     lifecycle
	sample    *tensor.Tensor[float64, B]
}

// Transformed wraps base in transform.
func Transformed[B tensor.Backend](base Variable[B], transform Transform[B]) *TransformedRandomVariable[B] {
	return &TransformedRandomVariable[B]{
		base:      base,
		transform: transform,
		dist:      &pushForward[B]{base: base.Distribution(), transform: transform},
		state:     unrealized,
	}
}

// Base returns the wrapped variable.
func (trv *TransformedRandomVariable[B]) Base() Variable[B] {
	return trv.base
}

// Transform returns the transform.
func (trv *TransformedRandomVariable[B]) Transform() Transform[B] {
	return trv.transform
}

// Distribution returns the push-forward distribution.
func (trv *TransformedRandomVariable[B]) Distribution() Distribution[B] {
	return trv.dist
}

// Realized reports whether the value has been computed.
func (trv *TransformedRandomVariable[B]) Realized() bool {
	return trv.state == realized
}

// Value returns the realized value: the forward map applied to the base
// variable's value, which is drawn lazily if the base is still unrealized.
// The result is cached; repeated calls return the same tensor.
func (trv *TransformedRandomVariable[B]) Value() *tensor.Tensor[float64, B] {
	if trv.state == unrealized {
		trv.sample = trv.transform.Forward(trv.base.Value())
		trv.state = realized
	}
	return trv.sample
}

// LogProb evaluates the push-forward log-density at value.
func (trv *TransformedRandomVariable[B]) LogProb(value *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error) {
	return trv.dist.LogProb(value)
}

// pushForward is the derived distribution of a transformed variable. It is
// never stored in closed form; every operation is computed on demand from
// the base distribution and the transform.
type pushForward[B tensor.Backend] struct {
	base      Distribution[B]
	transform Transform[B]
}

// Sample draws a fresh base sample and pushes it through the forward map.
func (p *pushForward[B]) Sample() *tensor.Tensor[float64, B] {
	return p.transform.Forward(p.base.Sample())
}

// LogProb evaluates the change-of-variables formula:
//
//	log p_Y(y) = log p_X(T^-1(y)) + log|det J_{T^-1}(y)|
func (p *pushForward[B]) LogProb(value *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error) {
	x, err := p.transform.Inverse(value)
	if err != nil {
		return nil, err
	}
	baseLogProb, err := p.base.LogProb(x)
	if err != nil {
		return nil, err
	}
	logDet, err := p.transform.LogDetJacobian(value)
	if err != nil {
		return nil, err
	}
	return baseLogProb.Add(logDet), nil
}

// Mean is only available when the transform provides an analytic shortcut.
func (p *pushForward[B]) Mean() (*tensor.Tensor[float64, B], error) {
	if mt, ok := p.transform.(momentTransform[B]); ok {
		return mt.meanFromBase(p.base)
	}
	return nil, &NotImplementedError{Type: "transformed distribution (" + p.transform.Name() + ")", Op: "mean"}
}

// Variance is only available when the transform provides an analytic
// shortcut.
func (p *pushForward[B]) Variance() (*tensor.Tensor[float64, B], error) {
	if mt, ok := p.transform.(momentTransform[B]); ok {
		return mt.varianceFromBase(p.base)
	}
	return nil, &NotImplementedError{Type: "transformed distribution (" + p.transform.Name() + ")", Op: "variance"}
}
