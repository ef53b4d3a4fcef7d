package lead

import (
	"errors"
	"fmt"
)

// ErrExtraction reports that no JSON object could be recovered from model output.
var ErrExtraction = errors.New("no JSON object in model output")

// ServiceError wraps a failed completion call made for a visible turn.
type ServiceError struct {
	Err error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("completion service: %v", e.Err)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// StoreOp names the lead store operation that failed.
type StoreOp string

const (
	OpSave  StoreOp = "save"
	OpFetch StoreOp = "fetch"
)

// StoreError is a non-200 answer, timeout or transport failure from the lead store.
// It never implies local state was touched and is always retryable.
type StoreError struct {
	Op         StoreOp
	StatusCode int
	Err        error
}

func (e *StoreError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("lead store %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("lead store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Notice is the message shown to the person who triggered the operation.
func (e *StoreError) Notice() string {
	if e.Op == OpFetch {
		return "Failed to load leads."
	}
	return "Something went wrong. Please try again."
}
