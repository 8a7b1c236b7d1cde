package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidMagic       = errors.New("invalid magic bytes")
	ErrUnsupportedVersion = errors.New("unsupported format version")
	ErrHeaderTooLarge     = errors.New("header exceeds maximum size")
	ErrTooManyTensors     = errors.New("too many tensors in file")
	ErrTensorNameTooLong  = errors.New("tensor name too long")
	ErrOutOfBounds        = errors.New("tensor extends beyond data section")
	ErrDuplicateTensor    = errors.New("duplicate tensor name")
	ErrTensorNotFound     = errors.New("tensor not found")
	ErrUnknownDType       = errors.New("unknown tensor dtype")
)

// ValidationError reports a malformed tensor entry in a file header.
type ValidationError struct {
	Tensor  string
	Details string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Tensor != "" {
		return fmt.Sprintf("invalid tensor %q: %s", e.Tensor, e.Details)
	}
	return fmt.Sprintf("invalid header: %s", e.Details)
}
