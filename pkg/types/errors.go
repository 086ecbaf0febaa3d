package types

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when a scan root is missing or is not a directory.
var ErrInvalidInput = errors.New("invalid input")

// ErrDeleteFailed is matched by every *DeleteError.
var ErrDeleteFailed = errors.New("delete failed")

// DeleteError reports a filesystem delete that was denied or failed.
type DeleteError struct {
	Path string
	Err  error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("failed to delete %s: %v", e.Path, e.Err)
}

func (e *DeleteError) Unwrap() []error {
	return []error{ErrDeleteFailed, e.Err}
}
