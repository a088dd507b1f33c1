// Package assistanterrors provides sentinel and custom error types for the assistant core.
package assistanterrors

import (
	"errors"
	"fmt"
)

// EmbeddingErrorKind classifies embedding provider failures so callers can
// decide between retrying and rejecting the input.
type EmbeddingErrorKind string

const (
	// EmbeddingErrorTransient marks provider-availability failures (timeouts,
	// rate limiting, 5xx). The calling orchestrator may retry with backoff.
	EmbeddingErrorTransient EmbeddingErrorKind = "transient"
	// EmbeddingErrorInvalidInput marks malformed input (empty text, text the
	// provider rejects). Retrying the same input will not help.
	EmbeddingErrorInvalidInput EmbeddingErrorKind = "invalid_input"
	// EmbeddingErrorMalformedResponse marks provider responses the core cannot
	// use (missing data, wrong dimensionality).
	EmbeddingErrorMalformedResponse EmbeddingErrorKind = "malformed_response"
)

// ErrEmbedding is the sentinel for embedding generation failures.
var ErrEmbedding = &EmbeddingError{}

// EmbeddingError is returned when embedding generation fails. It is fatal for
// the current classify/search call and must propagate to the caller; falling
// back to the default intent would hide a system problem.
type EmbeddingError struct {
	Kind EmbeddingErrorKind
	Err  error
}

// NewEmbeddingError wraps err with the given kind.
func NewEmbeddingError(kind EmbeddingErrorKind, err error) *EmbeddingError {
	return &EmbeddingError{Kind: kind, Err: err}
}

// Error implements the error interface.
func (e *EmbeddingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("embedding generation failed (%s): %v", e.Kind, e.Err)
	}

	return "embedding generation failed"
}

// Unwrap returns the wrapped cause.
func (e *EmbeddingError) Unwrap() error { return e.Err }

// Is implements the error interface for error comparison.
func (e *EmbeddingError) Is(target error) bool {
	_, ok := target.(*EmbeddingError)

	return ok
}

// IsTransientEmbeddingError reports whether err is an EmbeddingError of the
// transient kind, i.e. worth retrying upstream.
func IsTransientEmbeddingError(err error) bool {
	var ee *EmbeddingError
	if !errors.As(err, &ee) {
		return false
	}

	return ee.Kind == EmbeddingErrorTransient
}

// ErrNotFound represents a "not found" error for a requested resource.
var ErrNotFound = &NotFoundError{}

// NotFoundError is a sentinel error for resources that are not found.
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a NotFoundError with a custom message.
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{Resource: resource, Message: message}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Resource != "" {
		return e.Resource + " not found"
	}

	return "resource not found"
}

// Is implements the error interface for error comparison.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}

// ErrMalformedExemplar is the sentinel for exemplar rows that cannot be loaded.
var ErrMalformedExemplar = &MalformedExemplarError{}

// MalformedExemplarError is returned for a single bad item during bulk exemplar
// loading (e.g. embedding dimension mismatch). Bulk operations skip and log the
// item; the batch continues.
type MalformedExemplarError struct {
	Intent string
	Phrase string
	Reason string
}

// NewMalformedExemplarError creates a MalformedExemplarError.
func NewMalformedExemplarError(intent, phrase, reason string) *MalformedExemplarError {
	return &MalformedExemplarError{Intent: intent, Phrase: phrase, Reason: reason}
}

// Error implements the error interface.
func (e *MalformedExemplarError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("malformed exemplar %s/%q: %s", e.Intent, e.Phrase, e.Reason)
	}

	return "malformed exemplar"
}

// Is implements the error interface for error comparison.
func (e *MalformedExemplarError) Is(target error) bool {
	_, ok := target.(*MalformedExemplarError)

	return ok
}
