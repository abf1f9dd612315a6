package nn

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiver-ml/quiver/internal/backend/cpu"
	"github.com/quiver-ml/quiver/internal/tensor"
)

func newRNG() *rand.Rand {
	return rand.New(rand.NewPCG(42, 42))
}

func TestLinearForward(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear[*cpu.CPUBackend]("fc", 2, 3, newRNG(), backend)

	// Overwrite the random init with known values.
	weight, err := tensor.FromSlice([]float32{
		1, 2, 3,
		4, 5, 6,
	}, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	require.NoError(t, layer.weight.Load(weight.Raw()))

	bias, err := tensor.FromSlice([]float32{0.5, 0, -0.5}, tensor.Shape{3}, backend)
	require.NoError(t, err)
	require.NoError(t, layer.bias.Load(bias.Raw()))

	input, err := tensor.FromSlice([]float32{1, 1, 2, 0}, tensor.Shape{2, 2}, backend)
	require.NoError(t, err)

	out := layer.Forward(input)
	assert.Equal(t, tensor.Shape{2, 3}, out.Shape())
	assert.Equal(t, []float32{5.5, 7, 8.5, 2.5, 4, 5.5}, out.Data())
}

func TestLinearForwardShapeCheck(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear[*cpu.CPUBackend]("fc", 4, 2, newRNG(), backend)

	bad, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{1, 3}, backend)
	require.NoError(t, err)
	assert.Panics(t, func() { layer.Forward(bad) })
}

func TestXavierInitBounds(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear[*cpu.CPUBackend]("fc", 8, 8, newRNG(), backend)

	bound := float32(0.61237244) // sqrt(6/16)
	for _, v := range layer.weight.Tensor().Data() {
		assert.GreaterOrEqual(t, v, -bound)
		assert.Less(t, v, bound)
	}
	for _, v := range layer.bias.Tensor().Data() {
		assert.Zero(t, v)
	}
}

func TestReLU(t *testing.T) {
	backend := cpu.New()
	relu := NewReLU[*cpu.CPUBackend]()

	in, err := tensor.FromSlice([]float32{-2, -0.5, 0, 0.5, 2}, tensor.Shape{1, 5}, backend)
	require.NoError(t, err)

	out := relu.Forward(in)
	assert.Equal(t, []float32{0, 0, 0, 0.5, 2}, out.Data())
}

func TestClassifierStateDict(t *testing.T) {
	backend := cpu.New()
	model := NewClassifier[*cpu.CPUBackend](4, 8, 3, newRNG(), backend)

	sd := model.StateDict()
	assert.Len(t, sd, 4)
	for _, name := range []string{"fc1.weight", "fc1.bias", "fc2.weight", "fc2.bias"} {
		assert.Contains(t, sd, name)
	}
	assert.Equal(t, tensor.Shape{4, 8}, sd["fc1.weight"].Shape())
	assert.Equal(t, tensor.Shape{3}, sd["fc2.bias"].Shape())
}

func TestLoadStateDictRoundTrip(t *testing.T) {
	backend := cpu.New()
	src := NewClassifier[*cpu.CPUBackend](4, 8, 3, newRNG(), backend)
	dst := NewClassifier[*cpu.CPUBackend](4, 8, 3, rand.New(rand.NewPCG(7, 7)), backend)

	require.NoError(t, dst.LoadStateDict(src.StateDict()))

	input, err := tensor.FromSlice([]float32{0.1, 0.2, 0.3, 0.4}, tensor.Shape{1, 4}, backend)
	require.NoError(t, err)
	assert.Equal(t, src.Forward(input).Data(), dst.Forward(input.Clone()).Data())
}

func TestLoadStateDictMissingParameter(t *testing.T) {
	backend := cpu.New()
	model := NewClassifier[*cpu.CPUBackend](4, 8, 3, newRNG(), backend)

	sd := model.StateDict()
	delete(sd, "fc2.bias")
	err := model.LoadStateDict(sd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fc2.bias")
}

func TestLoadStateDictShapeMismatch(t *testing.T) {
	backend := cpu.New()
	model := NewClassifier[*cpu.CPUBackend](4, 8, 3, newRNG(), backend)

	sd := model.StateDict()
	wrong, err := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	sd["fc1.weight"] = wrong

	assert.Error(t, model.LoadStateDict(sd))
}

func TestCheckpointSaveRestore(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "member_00.qvr")

	src := NewClassifier[*cpu.CPUBackend](4, 8, 3, newRNG(), backend)
	require.NoError(t, SaveCheckpoint[*cpu.CPUBackend](path, src, 5, 2500, 0.31))

	dst := NewClassifier[*cpu.CPUBackend](4, 8, 3, rand.New(rand.NewPCG(99, 99)), backend)
	require.NoError(t, RestoreCheckpoint(path, dst, backend))

	input, err := tensor.FromSlice([]float32{1, 0, -1, 0.5}, tensor.Shape{1, 4}, backend)
	require.NoError(t, err)
	assert.Equal(t, src.Forward(input).Data(), dst.Forward(input.Clone()).Data())
}

func TestRestoreCheckpointMissingFile(t *testing.T) {
	backend := cpu.New()
	model := NewClassifier[*cpu.CPUBackend](4, 8, 3, newRNG(), backend)

	err := RestoreCheckpoint(filepath.Join(t.TempDir(), "absent.qvr"), model, backend)
	require.Error(t, err)

	var restoreErr *CheckpointRestoreError
	require.ErrorAs(t, err, &restoreErr)
	assert.Contains(t, restoreErr.Path, "absent.qvr")
}

func TestRestoreCheckpointCorruptFile(t *testing.T) {
	backend := cpu.New()
	model := NewClassifier[*cpu.CPUBackend](4, 8, 3, newRNG(), backend)

	path := filepath.Join(t.TempDir(), "corrupt.qvr")
	require.NoError(t, os.WriteFile(path, []byte("not a checkpoint"), 0o644))

	err := RestoreCheckpoint(path, model, backend)
	var restoreErr *CheckpointRestoreError
	require.ErrorAs(t, err, &restoreErr)
}

func TestRestoreCheckpointArchitectureMismatch(t *testing.T) {
	backend := cpu.New()
	path := filepath.Join(t.TempDir(), "member_00.qvr")

	src := NewClassifier[*cpu.CPUBackend](4, 8, 3, newRNG(), backend)
	require.NoError(t, SaveCheckpoint[*cpu.CPUBackend](path, src, 0, 0, 0))

	// Different hidden width: parameter shapes cannot line up.
	dst := NewClassifier[*cpu.CPUBackend](4, 16, 3, newRNG(), backend)
	err := RestoreCheckpoint(path, dst, backend)

	var restoreErr *CheckpointRestoreError
	require.ErrorAs(t, err, &restoreErr)
}
