package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caregraph/caregraph/internal/store"
)

// Error taxonomy. Every coordinator entry point reports failures as one of
// these synchronous typed errors; nothing is retried automatically.

// ValidationError means malformed input; no store mutation was attempted.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// NotFoundError means a referenced id did not resolve to an entity.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return e.Kind + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func notFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// asNotFound converts a store lookup error into the service taxonomy.
func asNotFound(err error, kind, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound(kind, id)
	}
	return fmt.Errorf("load %s %s: %w", kind, id, err)
}

// ConflictError means a uniqueness rule was violated.
type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

func conflictf(format string, args ...any) error {
	return &ConflictError{Msg: fmt.Sprintf(format, args...)}
}

// AuthorizationError means the actor lacks permission for the target entity.
type AuthorizationError struct {
	Msg string
}

func (e *AuthorizationError) Error() string { return e.Msg }

// UpstreamError means the external prediction service failed or returned an
// incomplete payload. Never retried.
type UpstreamError struct {
	Msg string
	Err error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// StepFailure records one cascade step that could not be applied.
type StepFailure struct {
	Kind string
	ID   string
	Op   string
	Err  error
}

func (f StepFailure) String() string {
	return fmt.Sprintf("%s %s %s: %v", f.Op, f.Kind, f.ID, f.Err)
}

// PartialCascadeError reports delete-side steps skipped because their target
// was already gone. The primary operation still succeeded; callers surface
// this as a warning, not a failure.
type PartialCascadeError struct {
	Failures []StepFailure
}

func (e *PartialCascadeError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.String())
	}
	return "cascade partially applied: " + strings.Join(parts, "; ")
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
