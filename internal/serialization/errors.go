package serialization

import "errors"

// Common errors.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrTensorNotFound     = errors.New("tensor not found in file")
	ErrOutOfBounds        = errors.New("tensor extends beyond data section")
	ErrWriterClosed       = errors.New("writer is closed")
)
