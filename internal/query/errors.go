package query

import (
	"errors"
	"fmt"
)

var (
	ErrNoConnection = errors.New("no connection to the study store")
	ErrValidation   = errors.New("validation failed")
)

// MutationError is returned by every failed write. Message is the text shown
// to the user; Err is the underlying cause.
type MutationError struct {
	Op      string
	Message string
	Err     error
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
}

func (e *MutationError) Unwrap() error {
	return e.Err
}
