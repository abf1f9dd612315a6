package ensemble

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quiver-ml/quiver/internal/dataset"
	"github.com/quiver-ml/quiver/internal/nn"
	"github.com/quiver-ml/quiver/internal/tensor"
)

// CheckpointExtension is the file suffix checkpoint discovery looks for.
const CheckpointExtension = ".qvr"

// Config carries the evaluation settings. It is passed explicitly; there
// is no global flag state.
type Config struct {
	OutputDir string // directory containing member checkpoints
	BatchSize int    // examples per inference batch
	Seed      int64  // seed for model init and synthetic data
	Dataset   string // dataset name, informational
}

// Metrics holds the scalar results of an ensemble evaluation.
type Metrics struct {
	TrainNegativeLogLikelihood float64
	TestNegativeLogLikelihood  float64
	TrainGibbsCrossEntropy     float64
	TestGibbsCrossEntropy      float64
	TrainAccuracy              float64
	TestAccuracy               float64
}

// Map returns the metrics keyed by their canonical names.
func (m *Metrics) Map() map[string]float64 {
	return map[string]float64{
		"train_negative_log_likelihood": m.TrainNegativeLogLikelihood,
		"test_negative_log_likelihood":  m.TestNegativeLogLikelihood,
		"train_gibbs_cross_entropy":     m.TrainGibbsCrossEntropy,
		"test_gibbs_cross_entropy":      m.TestGibbsCrossEntropy,
		"train_accuracy":                m.TrainAccuracy,
		"test_accuracy":                 m.TestAccuracy,
	}
}

// FindCheckpoints walks dir for .qvr files and returns their paths sorted
// lexically, so member order is stable across runs.
func FindCheckpoints(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, CheckpointExtension) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %q for checkpoints: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no %s checkpoints found under %q", CheckpointExtension, dir)
	}
	sort.Strings(paths)
	return paths, nil
}

// Evaluator runs a full ensemble evaluation: restore each member's
// parameters, collect logits over the train and test sets, and reduce them
// to the ensemble metrics.
//
// Execution is single-threaded and synchronous; member logits accumulate
// append-only in checkpoint order.
type Evaluator[B tensor.Backend] struct {
	model   nn.Module[B]
	backend B
	logger  *zap.SugaredLogger
}

// NewEvaluator creates an evaluator for the given model. A nil logger
// disables progress reporting.
func NewEvaluator[B tensor.Backend](model nn.Module[B], backend B, logger *zap.SugaredLogger) *Evaluator[B] {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Evaluator[B]{model: model, backend: backend, logger: logger}
}

// Run evaluates the ensemble described by the checkpoint list over the
// train and test datasets.
//
// A checkpoint that fails to restore aborts the whole evaluation with a
// *nn.CheckpointRestoreError; there is no partial-ensemble fallback and no
// retry of transient failures.
func (e *Evaluator[B]) Run(cfg Config, checkpoints []string, train, test *dataset.Dataset) (*Metrics, error) {
	if len(checkpoints) == 0 {
		return nil, fmt.Errorf("ensemble evaluation requires at least one checkpoint")
	}
	if cfg.BatchSize <= 0 {
		return nil, fmt.Errorf("batch size must be positive, got %d", cfg.BatchSize)
	}

	ensembleSize := len(checkpoints)
	e.logger.Infow("starting ensemble evaluation",
		"ensemble_size", ensembleSize,
		"dataset", cfg.Dataset,
		"train_examples", train.NumExamples(),
		"test_examples", test.NumExamples(),
		"batch_size", cfg.BatchSize,
	)

	var (
		trainLogits []*tensor.Tensor[float32, B] // one [N_train, C] per member
		testLogits  []*tensor.Tensor[float32, B] // one [N_test, C] per member
		trainLabels *tensor.Tensor[int32, B]
		testLabels  *tensor.Tensor[int32, B]
	)

	start := time.Now()
	for m, path := range checkpoints {
		if err := nn.RestoreCheckpoint(path, e.model, e.backend); err != nil {
			return nil, err
		}

		e.logger.Infow("working on training data", "member", m, "checkpoint", path)
		logits, labels, err := e.collectLogits(train, cfg.BatchSize, m == 0)
		if err != nil {
			return nil, err
		}
		trainLogits = append(trainLogits, logits)
		if m == 0 {
			trainLabels = labels
		}

		e.logger.Infow("working on test data", "member", m, "checkpoint", path)
		logits, labels, err = e.collectLogits(test, cfg.BatchSize, m == 0)
		if err != nil {
			return nil, err
		}
		testLogits = append(testLogits, logits)
		if m == 0 {
			testLabels = labels
		}

		e.logProgress(m, ensembleSize, cfg.BatchSize, train, test, start)
	}

	return e.reduce(trainLogits, testLogits, trainLabels, testLabels)
}

// collectLogits runs inference over every batch of the dataset and
// concatenates the per-batch logits in order. Labels are materialized only
// when wantLabels is set (member 0); they are identical for every member.
func (e *Evaluator[B]) collectLogits(
	d *dataset.Dataset,
	batchSize int,
	wantLabels bool,
) (*tensor.Tensor[float32, B], *tensor.Tensor[int32, B], error) {
	numBatches := d.NumBatches(batchSize)
	batchLogits := make([]*tensor.Tensor[float32, B], 0, numBatches)
	var batchLabels []*tensor.Tensor[int32, B]

	for i := 0; i < numBatches; i++ {
		features, labels, err := dataset.Batch(d, i, batchSize, e.backend)
		if err != nil {
			return nil, nil, err
		}
		batchLogits = append(batchLogits, e.model.Forward(features))
		if wantLabels {
			batchLabels = append(batchLabels, labels)
		}
	}

	logits := tensor.Cat(batchLogits, 0)
	if !wantLabels {
		return logits, nil, nil
	}
	return logits, tensor.Cat(batchLabels, 0), nil
}

// logProgress reports completion, throughput and ETA after each member.
//
// Steps per epoch/eval use floor division of example counts by batch size,
// matching the original evaluation loop even though remainder batches do
// run. TODO(quiver): confirm with the owning team whether the ETA should
// count remainder batches.
func (e *Evaluator[B]) logProgress(m, ensembleSize, batchSize int, train, test *dataset.Dataset, start time.Time) {
	stepsPerEpoch := train.NumExamples() / batchSize
	stepsPerEval := test.NumExamples() / batchSize
	currentStep := (stepsPerEpoch + stepsPerEval) * (m + 1)
	maxSteps := (stepsPerEpoch + stepsPerEval) * ensembleSize

	elapsed := time.Since(start).Seconds()
	stepsPerSec := float64(currentStep) / elapsed
	etaSeconds := float64(maxSteps-currentStep) / stepsPerSec

	e.logger.Infof("%.1f%% completion: ensemble member %d/%d. %.1f steps/s. ETA: %.0f min. Time elapsed: %.0f min",
		100*float64(m+1)/float64(ensembleSize), m+1, ensembleSize, stepsPerSec, etaSeconds/60, elapsed/60)
}

// reduce stacks per-member logits into [M, N, C] tensors and computes the
// final scalar metrics.
func (e *Evaluator[B]) reduce(
	trainLogits, testLogits []*tensor.Tensor[float32, B],
	trainLabels, testLabels *tensor.Tensor[int32, B],
) (*Metrics, error) {
	trainStack := stackMembers(trainLogits)
	testStack := stackMembers(testLogits)

	metrics := &Metrics{}

	for _, part := range []struct {
		labels *tensor.Tensor[int32, B]
		logits *tensor.Tensor[float32, B]
		nll    *float64
		gibbs  *float64
		acc    *float64
	}{
		{trainLabels, trainStack, &metrics.TrainNegativeLogLikelihood, &metrics.TrainGibbsCrossEntropy, &metrics.TrainAccuracy},
		{testLabels, testStack, &metrics.TestNegativeLogLikelihood, &metrics.TestGibbsCrossEntropy, &metrics.TestAccuracy},
	} {
		nll, err := NegativeLogLikelihood(part.labels, part.logits)
		if err != nil {
			return nil, err
		}
		gibbs, err := GibbsCrossEntropy(part.labels, part.logits)
		if err != nil {
			return nil, err
		}
		acc, err := Accuracy(part.labels, part.logits)
		if err != nil {
			return nil, err
		}
		*part.nll = mean(nll.Data())
		*part.gibbs = mean(gibbs.Data())
		*part.acc = acc
	}

	e.logger.Infow("metrics", zapFields(metrics)...)
	return metrics, nil
}

// stackMembers concatenates per-member [N, C] logits into [M, N, C].
func stackMembers[B tensor.Backend](members []*tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	expanded := make([]*tensor.Tensor[float32, B], len(members))
	for i, t := range members {
		shape := t.Shape()
		expanded[i] = t.Reshape(append(tensor.Shape{1}, shape...)...)
	}
	return tensor.Cat(expanded, 0)
}

func mean(data []float32) float64 {
	sum := 0.0
	for _, v := range data {
		sum += float64(v)
	}
	return sum / float64(len(data))
}

func zapFields(m *Metrics) []any {
	fields := make([]any, 0, 12)
	for name, value := range m.Map() {
		fields = append(fields, name, value)
	}
	return fields
}
