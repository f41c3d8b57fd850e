package internal

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input rejected before it reached the store
	ErrValidation = errors.New("invalid input")

	// ErrNotFound is returned when an operation needs a row that does not exist
	ErrNotFound = errors.New("testimonial not found")

	// ErrCannotMove is returned when a row is already first or last
	ErrCannotMove = errors.New("testimonial cannot move further")
)

// FetchError reports a failed read of the testimonial collection
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string { return e.Err.Error() }
func (e *FetchError) Unwrap() error { return e.Err }

// WriteError reports a rejected insert, update or delete
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string { return e.Err.Error() }
func (e *WriteError) Unwrap() error { return e.Err }

// UploadError reports a failed blob upload
type UploadError struct {
	Op  string
	Err error
}

func (e *UploadError) Error() string { return e.Err.Error() }
func (e *UploadError) Unwrap() error { return e.Err }

// SwapError reports which of the two writes of a display order swap failed.
// When Step is 2 the first write is already applied: both rows share one order
// value until the caller re-lists and repairs it.
type SwapError struct {
	Step int
	ID   string
	Err  error
}

func (e *SwapError) Error() string {
	return fmt.Sprintf("swap display order: step %d (id %s): %v", e.Step, e.ID, e.Err)
}

func (e *SwapError) Unwrap() error { return e.Err }

// Partial reports whether the first write was applied before the failure
func (e *SwapError) Partial() bool { return e.Step == 2 }
