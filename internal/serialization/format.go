package serialization

import (
	"time"

	"github.com/quiver-ml/quiver/internal/tensor"
)

// Format constants.
const (
	MagicBytes      = "QVRF"
	FormatVersion   = 1
	HeaderAlignment = 64 // tensor data starts on a 64-byte boundary

	// maxHeaderSize bounds the JSON header to reject corrupted or
	// adversarial files before allocating.
	maxHeaderSize = 16 << 20
)

// Flags for the .qvr format.
const (
	FlagHasMetadata   uint32 = 1 << 0 // custom metadata present
	FlagHasCheckpoint uint32 = 1 << 1 // checkpoint metadata present
)

// Header is the JSON header of a .qvr file.
type Header struct {
	FormatVersion  int               `json:"format_version"`
	QuiverVersion  string            `json:"quiver_version"`
	ModelType      string            `json:"model_type"`
	CreatedAt      time.Time         `json:"created_at"`
	Tensors        []TensorMeta      `json:"tensors"`
	Metadata       map[string]string `json:"metadata"`
	CheckpointMeta *CheckpointMeta   `json:"checkpoint,omitempty"`
}

// CheckpointMeta carries training-state information for checkpoint files.
type CheckpointMeta struct {
	IsCheckpoint bool           `json:"is_checkpoint"`
	Epoch        int            `json:"epoch"`
	Step         int64          `json:"step"`
	Loss         float64        `json:"loss"`
	TrainingMeta map[string]any `json:"training_meta,omitempty"`
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`
	DType  string `json:"dtype"`
	Shape  []int  `json:"shape"`
	Offset int64  `json:"offset"` // bytes from the start of the data section
	Size   int64  `json:"size"`   // bytes
}

// dtypeToString converts tensor.DataType to its serialized name.
func dtypeToString(dt tensor.DataType) string {
	return dt.String()
}

// stringToDtype converts a serialized name back to a tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case "float32":
		return tensor.Float32, true
	case "float64":
		return tensor.Float64, true
	case "int32":
		return tensor.Int32, true
	case "int64":
		return tensor.Int64, true
	case "uint8":
		return tensor.Uint8, true
	case "bool":
		return tensor.Bool, true
	default:
		return 0, false
	}
}
