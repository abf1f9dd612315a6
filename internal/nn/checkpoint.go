package nn

import (
	"fmt"
	"time"

	"github.com/quiver-ml/quiver/internal/serialization"
	"github.com/quiver-ml/quiver/internal/tensor"
)

// CheckpointRestoreError reports a failure to restore model parameters
// from a checkpoint file. The evaluation pipeline treats it as fatal.
type CheckpointRestoreError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *CheckpointRestoreError) Error() string {
	return fmt.Sprintf("failed to restore checkpoint %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *CheckpointRestoreError) Unwrap() error {
	return e.Err
}

// SaveCheckpoint writes a model's parameters plus training metadata to a
// .qvr checkpoint file.
func SaveCheckpoint[B tensor.Backend](path string, model Module[B], epoch int, step int64, loss float64) error {
	w, err := serialization.NewWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint writer: %w", err)
	}
	defer w.Close()

	header := serialization.Header{
		FormatVersion: serialization.FormatVersion,
		ModelType:     "Classifier",
		CreatedAt:     time.Now().UTC(),
		CheckpointMeta: &serialization.CheckpointMeta{
			IsCheckpoint: true,
			Epoch:        epoch,
			Step:         step,
			Loss:         loss,
		},
	}
	if err := w.WriteStateDictWithHeader(model.StateDict(), header); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return w.Close()
}

// RestoreCheckpoint loads model parameters from a .qvr checkpoint file.
// Any failure (missing file, corrupt header, missing or mismatched
// parameters) is wrapped in a *CheckpointRestoreError.
func RestoreCheckpoint[B tensor.Backend](path string, model Module[B], backend B) error {
	stateDict, _, err := serialization.ReadFile(path, backend.Device())
	if err != nil {
		return &CheckpointRestoreError{Path: path, Err: err}
	}
	if err := model.LoadStateDict(stateDict); err != nil {
		return &CheckpointRestoreError{Path: path, Err: err}
	}
	return nil
}
