// Copyright 2026 Quiver ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn exposes the model-side building blocks: the Module interface,
// layers, and checkpoint save/restore.
package nn

import (
	"math/rand/v2"

	"github.com/quiver-ml/quiver/internal/nn"
	"github.com/quiver-ml/quiver/internal/tensor"
)

// Module is the base interface for model components.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter is a named model parameter.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a parameter wrapping an initialized tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Linear is a fully connected layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a Linear layer with Xavier-uniform weights.
func NewLinear[B tensor.Backend](name string, inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	return nn.NewLinear[B](name, inFeatures, outFeatures, rng, backend)
}

// ReLU is the rectified linear activation.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a ReLU activation.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Classifier is a small feed-forward classifier returning raw logits.
type Classifier[B tensor.Backend] = nn.Classifier[B]

// NewClassifier creates a classifier with one hidden layer.
func NewClassifier[B tensor.Backend](inFeatures, hidden, numClasses int, rng *rand.Rand, backend B) *Classifier[B] {
	return nn.NewClassifier[B](inFeatures, hidden, numClasses, rng, backend)
}

// CheckpointRestoreError reports a failed checkpoint restoration.
type CheckpointRestoreError = nn.CheckpointRestoreError

// SaveCheckpoint writes a model's parameters to a .qvr checkpoint file.
func SaveCheckpoint[B tensor.Backend](path string, model Module[B], epoch int, step int64, loss float64) error {
	return nn.SaveCheckpoint(path, model, epoch, step, loss)
}

// RestoreCheckpoint loads model parameters from a .qvr checkpoint file.
func RestoreCheckpoint[B tensor.Backend](path string, model Module[B], backend B) error {
	return nn.RestoreCheckpoint(path, model, backend)
}
