package flow

import (
	"errors"
	"fmt"

	"engine/internal/schema"
)

// FailureKind classifies every way a node execution can fail. Nothing in
// this package returns a bare, unclassified error to callers.
type FailureKind string

const (
	FailureNotFound        FailureKind = "not_found"
	FailureInvalidInput    FailureKind = "invalid_input"
	FailureMissingSecret   FailureKind = "missing_secret"
	FailureExecutionFailed FailureKind = "execution_failed"
	FailureTimeout         FailureKind = "timeout"
	FailureTransportError  FailureKind = "transport_error"
	FailureInvalidOutput   FailureKind = "invalid_output"
)

type Failure struct {
	Kind    FailureKind         `json:"kind"`
	Message string              `json:"message"`
	Fields  []schema.FieldError `json:"fields,omitempty"`
	// Payload carries node-specific failure data, e.g. the code node's
	// partial logs or the HTTP node's configured timeout.
	Payload map[string]any `json:"payload,omitempty"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func NewFailure(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsFailure unwraps err into a *Failure when it is one.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// IsExecutionFailure reports whether the kind describes the node's own
// logic failing after dispatch checks passed. Timeout and TransportError
// are HTTP-node specializations of ExecutionFailed.
func (k FailureKind) IsExecutionFailure() bool {
	return k == FailureExecutionFailed || k == FailureTimeout || k == FailureTransportError
}

// Retryable reports whether the failure happened before any side-effecting
// call was made, so an immediate retry after correcting the input is safe.
func (f *Failure) Retryable() bool {
	switch f.Kind {
	case FailureNotFound, FailureInvalidInput, FailureMissingSecret:
		return true
	default:
		return false
	}
}
