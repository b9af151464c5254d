package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrInternal is matched by every *InternalError.
	ErrInternal = errors.New("internal representation error")

	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("document key conflict")
	ErrReadOnly = errors.New("repository is in read-only mode")
)

// ValidationError reports a violated field contract. It is raised while a
// Document is being constructed and is never recovered locally.
type ValidationError struct {
	Schema string // schema name, empty for schemaless documents
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	prefix := "document"
	if e.Schema != "" {
		prefix = e.Schema
	}
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", prefix, e.Reason)
	}
	return fmt.Sprintf("%s: field %q: %s", prefix, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Missing builds the "must contain" validation error for a field.
func Missing(schema, field string) *ValidationError {
	return &ValidationError{Schema: schema, Field: field, Reason: "must contain " + field}
}

// Invalid builds a validation error for a present but unacceptable field.
func Invalid(schema, field, format string, args ...any) *ValidationError {
	return &ValidationError{Schema: schema, Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InternalError means a document could not produce its own canonical form.
// It indicates a broken serialization substrate, not bad caller input.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrInternal, e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

func (e *InternalError) Is(target error) bool { return target == ErrInternal }
