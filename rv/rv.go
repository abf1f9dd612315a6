// Copyright 2026 Quiver ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package rv exposes random variables, distributions, and bijective
// transforms composing by the change-of-variables rule.
//
// Example:
//
//	backend := cpu.New()
//	src := rand.NewPCG(42, 42)
//	base := rv.New[*cpu.Backend](rv.NewNormal(0, 1, tensor.Shape{1}, src, backend))
//	y := rv.Transformed[*cpu.Backend](base, rv.Exp[*cpu.Backend]{})
//	sample := y.Value()              // strictly positive
//	lp, err := y.LogProb(sample)     // log-normal density
package rv

import (
	"math/rand/v2"

	"github.com/quiver-ml/quiver/internal/rv"
	"github.com/quiver-ml/quiver/internal/tensor"
)

// Distribution is a probability distribution over tensors.
type Distribution[B tensor.Backend] = rv.Distribution[B]

// Variable pairs a distribution with a lazily realized value.
type Variable[B tensor.Backend] = rv.Variable[B]

// RandomVariable is a base random variable with a cached sample.
type RandomVariable[B tensor.Backend] = rv.RandomVariable[B]

// TransformedRandomVariable is a variable wrapped in a transform.
type TransformedRandomVariable[B tensor.Backend] = rv.TransformedRandomVariable[B]

// Transform is a stateless bijective map with an explicit inverse and
// log-det-Jacobian.
type Transform[B tensor.Backend] = rv.Transform[B]

// Normal is an element-wise i.i.d. normal distribution.
type Normal[B tensor.Backend] = rv.Normal[B]

// Exp is the exponential transform y = e^x.
type Exp[B tensor.Backend] = rv.Exp[B]

// Affine is the transform y = Scale*x + Shift.
type Affine[B tensor.Backend] = rv.Affine[B]

// Chain composes transforms first-to-last.
type Chain[B tensor.Backend] = rv.Chain[B]

// Capability errors.
type (
	// UnsupportedTransformError reports a transform lacking the
	// requested operation.
	UnsupportedTransformError = rv.UnsupportedTransformError
	// NotImplementedError reports a statistic without a closed form.
	NotImplementedError = rv.NotImplementedError
)

// New creates an unrealized random variable over dist.
func New[B tensor.Backend](dist Distribution[B]) *RandomVariable[B] {
	return rv.New(dist)
}

// Transformed wraps base in transform.
func Transformed[B tensor.Backend](base Variable[B], transform Transform[B]) *TransformedRandomVariable[B] {
	return rv.Transformed(base, transform)
}

// NewNormal creates a Normal distribution with an explicit rand source.
func NewNormal[B tensor.Backend](mu, sigma float64, shape tensor.Shape, src rand.Source, backend B) *Normal[B] {
	return rv.NewNormal(mu, sigma, shape, src, backend)
}

// NewChain creates a composite transform.
func NewChain[B tensor.Backend](transforms ...Transform[B]) Chain[B] {
	return rv.NewChain(transforms...)
}
