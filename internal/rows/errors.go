package rows

import (
	"errors"
	"fmt"
)

// ErrResourceNotFound matches any *ResourceNotFoundError via errors.Is.
var ErrResourceNotFound = errors.New("resource not found")

// ResourceNotFoundError indicates the input could not be opened because it
// does not exist.
type ResourceNotFoundError struct {
	Path string
	Err  error
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("input %s not found", e.Path)
}

func (e *ResourceNotFoundError) Unwrap() error { return e.Err }

func (e *ResourceNotFoundError) Is(target error) bool { return target == ErrResourceNotFound }
