package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoMatch signals that district or label resolution found nothing.
// It is an expected outcome, not a failure.
var ErrNoMatch = errors.New("no match")

// ErrMergeConflict is returned when a record changed between read and write.
var ErrMergeConflict = errors.New("p2v record merge conflict")

// ErrNotFound is returned by stores when a keyed row does not exist.
var ErrNotFound = errors.New("not found")

// UpstreamError wraps a failure of an external service call.
type UpstreamError struct {
	Service    string
	Operation  string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Service, e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Service, e.Operation, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// NewUpstreamError builds an UpstreamError.
func NewUpstreamError(service, operation string, statusCode int, err error) *UpstreamError {
	return &UpstreamError{Service: service, Operation: operation, StatusCode: statusCode, Err: err}
}

// IsUpstream reports whether err wraps an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// PreconditionError lists required inputs that were missing.
type PreconditionError struct {
	Operation string
	Missing   []string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: missing %s", e.Operation, strings.Join(e.Missing, ", "))
}

// IsPrecondition reports whether err wraps a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}
