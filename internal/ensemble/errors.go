package ensemble

import (
	"fmt"

	"github.com/quiver-ml/quiver/internal/tensor"
)

// InvalidShapeError reports a label/logit shape mismatch detected before
// any metric computation starts.
type InvalidShapeError struct {
	Op     string
	Labels tensor.Shape
	Logits tensor.Shape
	Reason string
}

// Error implements the error interface.
func (e *InvalidShapeError) Error() string {
	return fmt.Sprintf("%s: labels %v, logits %v: %s", e.Op, e.Labels, e.Logits, e.Reason)
}
