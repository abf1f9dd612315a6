package ensemble

import (
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiver-ml/quiver/internal/backend/cpu"
	"github.com/quiver-ml/quiver/internal/dataset"
	"github.com/quiver-ml/quiver/internal/nn"
)

const (
	testFeatureDim = 8
	testHidden     = 16
	testNumClasses = 3
)

// seedCheckpoints writes n independently initialized classifier checkpoints
// into dir and returns their paths.
func seedCheckpoints(t *testing.T, dir string, n int, backend *cpu.CPUBackend) []string {
	t.Helper()
	paths := make([]string, n)
	for i := 0; i < n; i++ {
		rng := rand.New(rand.NewPCG(uint64(i), uint64(i)))
		model := nn.NewClassifier[*cpu.CPUBackend](testFeatureDim, testHidden, testNumClasses, rng, backend)
		path := filepath.Join(dir, fmt.Sprintf("member_%02d.qvr", i))
		require.NoError(t, nn.SaveCheckpoint[*cpu.CPUBackend](path, model, 0, 0, 0))
		paths[i] = path
	}
	return paths
}

func TestFindCheckpoints(t *testing.T) {
	dir := t.TempDir()
	backend := cpu.New()
	seedCheckpoints(t, dir, 3, backend)

	// A non-checkpoint file must be ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	paths, err := FindCheckpoints(dir)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, "member_00.qvr", filepath.Base(paths[0]))
	assert.Equal(t, "member_01.qvr", filepath.Base(paths[1]))
	assert.Equal(t, "member_02.qvr", filepath.Base(paths[2]))
}

func TestFindCheckpointsEmpty(t *testing.T) {
	_, err := FindCheckpoints(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .qvr checkpoints")
}

func TestEvaluatorRun(t *testing.T) {
	dir := t.TempDir()
	backend := cpu.New()
	checkpoints := seedCheckpoints(t, dir, 3, backend)

	rng := rand.New(rand.NewPCG(42, 42))
	train := dataset.Synthetic(50, testFeatureDim, testNumClasses, rng)
	test := dataset.Synthetic(20, testFeatureDim, testNumClasses, rng)

	model := nn.NewClassifier[*cpu.CPUBackend](testFeatureDim, testHidden, testNumClasses, rng, backend)
	ev := NewEvaluator[*cpu.CPUBackend](model, backend, nil)

	cfg := Config{OutputDir: dir, BatchSize: 16, Seed: 42, Dataset: "synthetic"}
	metrics, err := ev.Run(cfg, checkpoints, train, test)
	require.NoError(t, err)

	for name, value := range metrics.Map() {
		assert.False(t, math.IsNaN(value), "%s is NaN", name)
		assert.False(t, math.IsInf(value, 0), "%s is infinite", name)
	}

	assert.GreaterOrEqual(t, metrics.TrainAccuracy, 0.0)
	assert.LessOrEqual(t, metrics.TrainAccuracy, 1.0)
	assert.GreaterOrEqual(t, metrics.TestAccuracy, 0.0)
	assert.LessOrEqual(t, metrics.TestAccuracy, 1.0)

	// Mixture bound holds for the aggregated scalars too.
	assert.LessOrEqual(t, metrics.TrainNegativeLogLikelihood, metrics.TrainGibbsCrossEntropy+1e-6)
	assert.LessOrEqual(t, metrics.TestNegativeLogLikelihood, metrics.TestGibbsCrossEntropy+1e-6)
	assert.GreaterOrEqual(t, metrics.TrainNegativeLogLikelihood, 0.0)
	assert.GreaterOrEqual(t, metrics.TestNegativeLogLikelihood, 0.0)
}

func TestEvaluatorRunDeterministic(t *testing.T) {
	dir := t.TempDir()
	backend := cpu.New()
	checkpoints := seedCheckpoints(t, dir, 2, backend)

	cfg := Config{OutputDir: dir, BatchSize: 8, Seed: 1, Dataset: "synthetic"}

	run := func() *Metrics {
		rng := rand.New(rand.NewPCG(1, 1))
		train := dataset.Synthetic(24, testFeatureDim, testNumClasses, rng)
		test := dataset.Synthetic(12, testFeatureDim, testNumClasses, rng)
		model := nn.NewClassifier[*cpu.CPUBackend](testFeatureDim, testHidden, testNumClasses, rng, backend)
		ev := NewEvaluator[*cpu.CPUBackend](model, backend, nil)
		m, err := ev.Run(cfg, checkpoints, train, test)
		require.NoError(t, err)
		return m
	}

	assert.Equal(t, run(), run())
}

func TestEvaluatorRunPartialFinalBatch(t *testing.T) {
	dir := t.TempDir()
	backend := cpu.New()
	checkpoints := seedCheckpoints(t, dir, 2, backend)

	rng := rand.New(rand.NewPCG(5, 5))
	// 10 examples with batch size 4 leaves a remainder batch of 2.
	train := dataset.Synthetic(10, testFeatureDim, testNumClasses, rng)
	test := dataset.Synthetic(7, testFeatureDim, testNumClasses, rng)

	model := nn.NewClassifier[*cpu.CPUBackend](testFeatureDim, testHidden, testNumClasses, rng, backend)
	ev := NewEvaluator[*cpu.CPUBackend](model, backend, nil)

	metrics, err := ev.Run(Config{BatchSize: 4}, checkpoints, train, test)
	require.NoError(t, err)
	assert.False(t, math.IsNaN(metrics.TestNegativeLogLikelihood))
}

func TestEvaluatorRunRestoreFailureAborts(t *testing.T) {
	dir := t.TempDir()
	backend := cpu.New()
	checkpoints := seedCheckpoints(t, dir, 2, backend)

	// Corrupt the second checkpoint so the first restores fine.
	require.NoError(t, os.WriteFile(checkpoints[1], []byte("garbage"), 0o644))

	rng := rand.New(rand.NewPCG(2, 2))
	train := dataset.Synthetic(16, testFeatureDim, testNumClasses, rng)
	test := dataset.Synthetic(8, testFeatureDim, testNumClasses, rng)

	model := nn.NewClassifier[*cpu.CPUBackend](testFeatureDim, testHidden, testNumClasses, rng, backend)
	ev := NewEvaluator[*cpu.CPUBackend](model, backend, nil)

	_, err := ev.Run(Config{BatchSize: 8}, checkpoints, train, test)
	require.Error(t, err)

	var restoreErr *nn.CheckpointRestoreError
	require.ErrorAs(t, err, &restoreErr)
	assert.Equal(t, checkpoints[1], restoreErr.Path)
}

func TestEvaluatorRunValidatesConfig(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewPCG(0, 0))
	train := dataset.Synthetic(4, testFeatureDim, testNumClasses, rng)
	test := dataset.Synthetic(4, testFeatureDim, testNumClasses, rng)

	model := nn.NewClassifier[*cpu.CPUBackend](testFeatureDim, testHidden, testNumClasses, rng, backend)
	ev := NewEvaluator[*cpu.CPUBackend](model, backend, nil)

	_, err := ev.Run(Config{BatchSize: 8}, nil, train, test)
	assert.Error(t, err, "no checkpoints")

	_, err = ev.Run(Config{BatchSize: 0}, []string{"x.qvr"}, train, test)
	assert.Error(t, err, "batch size must be positive")
}

func TestMetricsMapKeys(t *testing.T) {
	m := &Metrics{
		TrainNegativeLogLikelihood: 1,
		TestNegativeLogLikelihood:  2,
		TrainGibbsCrossEntropy:     3,
		TestGibbsCrossEntropy:      4,
		TrainAccuracy:              5,
		TestAccuracy:               6,
	}

	got := m.Map()
	assert.Equal(t, map[string]float64{
		"train_negative_log_likelihood": 1,
		"test_negative_log_likelihood":  2,
		"train_gibbs_cross_entropy":     3,
		"test_gibbs_cross_entropy":      4,
		"train_accuracy":                5,
		"test_accuracy":                 6,
	}, got)
}
