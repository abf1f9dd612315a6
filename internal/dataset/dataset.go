// Package dataset provides in-memory labeled datasets with deterministic
// batch iteration for the evaluation pipeline.
package dataset

import (
	"fmt"
	"math/rand/v2"

	"github.com/quiver-ml/quiver/internal/tensor"
)

// Dataset is an in-memory labeled dataset. Features are stored flat in
// row-major order: example i occupies features[i*featureDim:(i+1)*featureDim].
type Dataset struct {
	features   []float32
	labels     []int32
	featureDim int
	numClasses int
}

// New creates a dataset from flat features and labels.
func New(features []float32, labels []int32, featureDim, numClasses int) (*Dataset, error) {
	if featureDim <= 0 {
		return nil, fmt.Errorf("feature dimension must be positive, got %d", featureDim)
	}
	if len(features) != len(labels)*featureDim {
		return nil, fmt.Errorf("feature count %d does not match %d examples of dimension %d",
			len(features), len(labels), featureDim)
	}
	for i, label := range labels {
		if label < 0 || int(label) >= numClasses {
			return nil, fmt.Errorf("label %d at index %d out of range [0, %d)", label, i, numClasses)
		}
	}
	return &Dataset{
		features:   features,
		labels:     labels,
		featureDim: featureDim,
		numClasses: numClasses,
	}, nil
}

// Synthetic generates a dataset whose features cluster around a
// class-dependent mean, so a trained classifier can beat chance on it.
// Used by the CLI demo and tests.
func Synthetic(numExamples, featureDim, numClasses int, rng *rand.Rand) *Dataset {
	features := make([]float32, numExamples*featureDim)
	labels := make([]int32, numExamples)

	for i := 0; i < numExamples; i++ {
		label := int32(rng.IntN(numClasses))
		labels[i] = label
		for j := 0; j < featureDim; j++ {
			mean := 0.0
			if j%numClasses == int(label) {
				mean = 2.0
			}
			features[i*featureDim+j] = float32(mean + rng.NormFloat64())
		}
	}

	d, err := New(features, labels, featureDim, numClasses)
	if err != nil {
		panic(err) // construction above cannot violate New's checks
	}
	return d
}

// NumExamples returns the number of examples.
func (d *Dataset) NumExamples() int {
	return len(d.labels)
}

// FeatureDim returns the per-example feature dimension.
func (d *Dataset) FeatureDim() int {
	return d.featureDim
}

// NumClasses returns the number of classes.
func (d *Dataset) NumClasses() int {
	return d.numClasses
}

// Labels returns the full label slice.
func (d *Dataset) Labels() []int32 {
	return d.labels
}

// NumBatches returns the number of batches of the given size needed to
// cover the dataset, counting a final partial batch.
func (d *Dataset) NumBatches(batchSize int) int {
	if batchSize <= 0 {
		return 0
	}
	return (d.NumExamples() + batchSize - 1) / batchSize
}

// Batch materializes batch index into feature and label tensors.
// The final batch may be smaller than batchSize.
func Batch[B tensor.Backend](d *Dataset, index, batchSize int, backend B) (*tensor.Tensor[float32, B], *tensor.Tensor[int32, B], error) {
	if batchSize <= 0 {
		return nil, nil, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}
	start := index * batchSize
	if start < 0 || start >= d.NumExamples() {
		return nil, nil, fmt.Errorf("batch index %d out of range for %d examples", index, d.NumExamples())
	}
	end := min(start+batchSize, d.NumExamples())
	n := end - start

	features, err := tensor.FromSlice[float32, B](
		d.features[start*d.featureDim:end*d.featureDim], tensor.Shape{n, d.featureDim}, backend)
	if err != nil {
		return nil, nil, err
	}
	labels, err := tensor.FromSlice[int32, B](d.labels[start:end], tensor.Shape{n}, backend)
	if err != nil {
		return nil, nil, err
	}
	return features, labels, nil
}
