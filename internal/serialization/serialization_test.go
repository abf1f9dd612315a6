package serialization

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quiver-ml/quiver/internal/tensor"
)

func rawFromFloat32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat32(), data)
	return raw
}

func TestStateDictRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.qvr")

	stateDict := map[string]*tensor.RawTensor{
		"fc1.weight": rawFromFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}),
		"fc1.bias":   rawFromFloat32(t, []float32{0.5, -0.5, 0.25}, tensor.Shape{3}),
	}

	require.NoError(t, WriteFile(path, stateDict, "classifier", map[string]string{"note": "test"}))

	loaded, header, err := ReadFile(path, tensor.CPU)
	require.NoError(t, err)

	assert.Equal(t, FormatVersion, header.FormatVersion)
	assert.Equal(t, "classifier", header.ModelType)
	assert.Equal(t, "test", header.Metadata["note"])
	assert.Len(t, loaded, 2)

	for name, orig := range stateDict {
		got, ok := loaded[name]
		require.True(t, ok, "missing tensor %s", name)
		assert.Equal(t, orig.Shape(), got.Shape())
		assert.Equal(t, orig.DType(), got.DType())
		assert.Equal(t, orig.AsFloat32(), got.AsFloat32())
	}
}

func TestDeterministicOutput(t *testing.T) {
	dir := t.TempDir()

	stateDict := map[string]*tensor.RawTensor{
		"b": rawFromFloat32(t, []float32{1}, tensor.Shape{1}),
		"a": rawFromFloat32(t, []float32{2}, tensor.Shape{1}),
		"c": rawFromFloat32(t, []float32{3}, tensor.Shape{1}),
	}

	p1 := filepath.Join(dir, "one.qvr")
	p2 := filepath.Join(dir, "two.qvr")
	require.NoError(t, WriteFile(p1, stateDict, "m", nil))
	require.NoError(t, WriteFile(p2, stateDict, "m", nil))

	r1, err := NewReader(p1)
	require.NoError(t, err)
	defer r1.Close()
	r2, err := NewReader(p2)
	require.NoError(t, err)
	defer r2.Close()

	// Tensor order is sorted, not map order.
	assert.Equal(t, []string{"a", "b", "c"}, r1.TensorNames())
	assert.Equal(t, r1.TensorNames(), r2.TensorNames())
}

func TestCheckpointHeaderRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ckpt.qvr")

	stateDict := map[string]*tensor.RawTensor{
		"w": rawFromFloat32(t, []float32{1, 2}, tensor.Shape{2}),
	}
	header := Header{
		FormatVersion: FormatVersion,
		ModelType:     "classifier",
		CreatedAt:     time.Now().UTC(),
		CheckpointMeta: &CheckpointMeta{
			IsCheckpoint: true,
			Epoch:        3,
			Step:         1500,
			Loss:         0.42,
		},
	}

	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteStateDictWithHeader(stateDict, header))
	require.NoError(t, w.Close())

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	meta := r.Header().CheckpointMeta
	require.NotNil(t, meta)
	assert.True(t, meta.IsCheckpoint)
	assert.Equal(t, 3, meta.Epoch)
	assert.Equal(t, int64(1500), meta.Step)
	assert.InDelta(t, 0.42, meta.Loss, 0)
}

func TestLoadTensorNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.qvr")
	stateDict := map[string]*tensor.RawTensor{
		"w": rawFromFloat32(t, []float32{1}, tensor.Shape{1}),
	}
	require.NoError(t, WriteFile(path, stateDict, "m", nil))

	r, err := NewReader(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.LoadTensor("missing", tensor.CPU)
	assert.ErrorIs(t, err, ErrTensorNotFound)
}

func TestInvalidMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.qvr")
	require.NoError(t, os.WriteFile(path, []byte("this is not a qvr file"), 0o644))

	_, err := NewReader(path)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "short.qvr")
	require.NoError(t, os.WriteFile(path, []byte(MagicBytes), 0o644))

	_, err := NewReader(path)
	assert.Error(t, err)
}

func TestWriterClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.qvr")
	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close(), "double close is safe")

	err = w.WriteStateDict(map[string]*tensor.RawTensor{}, "m", nil)
	assert.ErrorIs(t, err, ErrWriterClosed)
}
