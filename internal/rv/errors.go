package rv

import "fmt"

// UnsupportedTransformError reports that a transform does not support the
// requested operation, e.g. it has no inverse or no tractable Jacobian.
// The operation fails immediately; nothing is approximated.
type UnsupportedTransformError struct {
	Transform string
	Op        string
	Reason    string
}

// Error implements the error interface.
func (e *UnsupportedTransformError) Error() string {
	return fmt.Sprintf("transform %q does not support %s: %s", e.Transform, e.Op, e.Reason)
}

// NotImplementedError reports that a statistic has no closed form for the
// given distribution or transform and no analytic shortcut was provided.
type NotImplementedError struct {
	Type string
	Op   string
}

// Error implements the error interface.
func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s is not implemented for %s", e.Op, e.Type)
}
