package rv

import (
	"math"

	"github.com/quiver-ml/quiver/internal/tensor"
)

// Transform is a stateless bijective, differentiable map. The three
// operations are explicit and named; there is no mode-dependent dispatch.
// A transform is reusable across any number of random variables.
//
// LogDetJacobian is the log absolute determinant of the Jacobian of the
// *inverse* map, evaluated element-wise at the point being queried. That is
// the term the change-of-variables formula adds to the base log-density:
//
//	log p_Y(y) = log p_X(T^-1(y)) + log|det J_{T^-1}(y)|
type Transform[B tensor.Backend] interface {
	// Name identifies the transform in error messages.
	Name() string

	// Forward applies the map.
	Forward(x *tensor.Tensor[float64, B]) *tensor.Tensor[float64, B]

	// Inverse applies the inverse map. Values outside the transform's
	// range, or transforms without an inverse, yield an
	// *UnsupportedTransformError.
	Inverse(y *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error)

	// LogDetJacobian evaluates log|det J_{T^-1}| element-wise at y.
	LogDetJacobian(y *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error)
}

// momentTransform is the optional analytic-moments capability. Transforms
// that can propagate the base distribution's moments in closed form
// implement it; everything else leaves Mean/Variance unimplemented.
type momentTransform[B tensor.Backend] interface {
	meanFromBase(base Distribution[B]) (*tensor.Tensor[float64, B], error)
	varianceFromBase(base Distribution[B]) (*tensor.Tensor[float64, B], error)
}

// Exp is the exponential map y = e^x with inverse log y.
type Exp[B tensor.Backend] struct{}

// Name implements Transform.
func (Exp[B]) Name() string { return "exp" }

// Forward applies e^x element-wise.
func (Exp[B]) Forward(x *tensor.Tensor[float64, B]) *tensor.Tensor[float64, B] {
	return x.Exp()
}

// Inverse applies log y element-wise. Every element must be positive.
func (e Exp[B]) Inverse(y *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error) {
	if err := e.requirePositive(y, "inverse"); err != nil {
		return nil, err
	}
	return y.Log(), nil
}

// LogDetJacobian of the inverse map x = log y is -log y.
func (e Exp[B]) LogDetJacobian(y *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error) {
	if err := e.requirePositive(y, "log-det-Jacobian"); err != nil {
		return nil, err
	}
	return y.Log().Neg(), nil
}

func (e Exp[B]) requirePositive(y *tensor.Tensor[float64, B], op string) error {
	for _, v := range y.Data() {
		if v <= 0 {
			return &UnsupportedTransformError{
				Transform: e.Name(), Op: op,
				Reason: "value outside the transform's range (must be positive)",
			}
		}
	}
	return nil
}

// Affine is the map y = Scale*x + Shift.
type Affine[B tensor.Backend] struct {
	Scale float64
	Shift float64
}

// Name implements Transform.
func (Affine[B]) Name() string { return "affine" }

// Forward applies Scale*x + Shift element-wise.
func (a Affine[B]) Forward(x *tensor.Tensor[float64, B]) *tensor.Tensor[float64, B] {
	return x.MulScalar(a.Scale).AddScalar(a.Shift)
}

// Inverse applies (y - Shift) / Scale. Scale zero has no inverse.
func (a Affine[B]) Inverse(y *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error) {
	if a.Scale == 0 {
		return nil, &UnsupportedTransformError{
			Transform: a.Name(), Op: "inverse", Reason: "scale is zero",
		}
	}
	return y.AddScalar(-a.Shift).MulScalar(1 / a.Scale), nil
}

// LogDetJacobian of the inverse map is the constant -log|Scale|.
func (a Affine[B]) LogDetJacobian(y *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error) {
	if a.Scale == 0 {
		return nil, &UnsupportedTransformError{
			Transform: a.Name(), Op: "log-det-Jacobian", Reason: "scale is zero",
		}
	}
	return tensor.Full[float64, B](y.Shape(), -math.Log(math.Abs(a.Scale)), y.Backend()), nil
}

// meanFromBase propagates the base mean through the affine map.
func (a Affine[B]) meanFromBase(base Distribution[B]) (*tensor.Tensor[float64, B], error) {
	mean, err := base.Mean()
	if err != nil {
		return nil, err
	}
	return a.Forward(mean), nil
}

// varianceFromBase scales the base variance by Scale^2.
func (a Affine[B]) varianceFromBase(base Distribution[B]) (*tensor.Tensor[float64, B], error) {
	variance, err := base.Variance()
	if err != nil {
		return nil, err
	}
	return variance.MulScalar(a.Scale * a.Scale), nil
}

// Chain composes transforms, applying them first-to-last in Forward.
// Wrapping a variable in a Chain is equivalent to nesting one transformed
// variable per element.
type Chain[B tensor.Backend] struct {
	transforms []Transform[B]
}

// NewChain creates a composite transform.
func NewChain[B tensor.Backend](transforms ...Transform[B]) Chain[B] {
	return Chain[B]{transforms: transforms}
}

// Name implements Transform.
func (Chain[B]) Name() string { return "chain" }

// Forward applies every transform in order.
func (c Chain[B]) Forward(x *tensor.Tensor[float64, B]) *tensor.Tensor[float64, B] {
	for _, t := range c.transforms {
		x = t.Forward(x)
	}
	return x
}

// Inverse applies the inverses in reverse order.
func (c Chain[B]) Inverse(y *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error) {
	for i := len(c.transforms) - 1; i >= 0; i-- {
		var err error
		y, err = c.transforms[i].Inverse(y)
		if err != nil {
			return nil, err
		}
	}
	return y, nil
}

// LogDetJacobian accumulates each layer's log-det term at the intermediate
// point where that layer's inverse is evaluated.
func (c Chain[B]) LogDetJacobian(y *tensor.Tensor[float64, B]) (*tensor.Tensor[float64, B], error) {
	total := tensor.Zeros[float64, B](y.Shape(), y.Backend())
	for i := len(c.transforms) - 1; i >= 0; i-- {
		ld, err := c.transforms[i].LogDetJacobian(y)
		if err != nil {
			return nil, err
		}
		total = total.Add(ld)

		y, err = c.transforms[i].Inverse(y)
		if err != nil {
			return nil, err
		}
	}
	return total, nil
}
