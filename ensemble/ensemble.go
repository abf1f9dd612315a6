// Copyright 2026 Quiver ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package ensemble exposes the ensemble metrics and the evaluation driver.
//
// The metric functions consume a stacked logit tensor of shape
// [ensemble_size, dataset..., num_classes] and a label tensor of the
// dataset shape, and produce per-example losses; the Evaluator produces
// the six scalar dataset metrics from a set of member checkpoints.
package ensemble

import (
	"go.uber.org/zap"

	"github.com/quiver-ml/quiver/internal/ensemble"
	"github.com/quiver-ml/quiver/internal/nn"
	"github.com/quiver-ml/quiver/internal/tensor"
)

// Config carries the evaluation settings.
type Config = ensemble.Config

// Metrics holds the scalar results of an ensemble evaluation.
type Metrics = ensemble.Metrics

// InvalidShapeError reports a label/logit shape mismatch.
type InvalidShapeError = ensemble.InvalidShapeError

// Evaluator runs a full ensemble evaluation.
type Evaluator[B tensor.Backend] = ensemble.Evaluator[B]

// NewEvaluator creates an evaluator for the given model.
func NewEvaluator[B tensor.Backend](model nn.Module[B], backend B, logger *zap.SugaredLogger) *Evaluator[B] {
	return ensemble.NewEvaluator(model, backend, logger)
}

// NegativeLogLikelihood computes the per-example mixture negative
// log-likelihood of the ensemble.
func NegativeLogLikelihood[B tensor.Backend](labels *tensor.Tensor[int32, B], logits *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	return ensemble.NegativeLogLikelihood(labels, logits)
}

// GibbsCrossEntropy computes the per-example average of the members'
// negative log-likelihoods.
func GibbsCrossEntropy[B tensor.Backend](labels *tensor.Tensor[int32, B], logits *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	return ensemble.GibbsCrossEntropy(labels, logits)
}

// Accuracy returns the ensemble's mixture-prediction accuracy.
func Accuracy[B tensor.Backend](labels *tensor.Tensor[int32, B], logits *tensor.Tensor[float32, B]) (float64, error) {
	return ensemble.Accuracy(labels, logits)
}

// FindCheckpoints walks dir for .qvr checkpoints in stable order.
func FindCheckpoints(dir string) ([]string, error) {
	return ensemble.FindCheckpoints(dir)
}
