// Package cqserrors provides the structured error taxonomy used at every
// engine boundary (spec §7): Store, Io, Parse, Embedder, VectorIndex,
// Cancelled, Validation, Internal. Internal modules are free to use their
// own error types; they convert to *CQSError only when crossing into the
// engine/CLI boundary, per the "single taxonomy at the boundary" redesign
// flag in spec §9.
package cqserrors

import (
	"errors"
	"fmt"
)

// Kind is one of the closed set of error categories from spec §7.
type Kind string

const (
	KindStore       Kind = "Store"
	KindIO          Kind = "Io"
	KindParse       Kind = "Parse"
	KindEmbedder    Kind = "Embedder"
	KindVectorIndex Kind = "VectorIndex"
	KindCancelled   Kind = "Cancelled"
	KindValidation  Kind = "Validation"
	KindInternal    Kind = "Internal"
)

// CQSError is the structured error type surfaced at operation boundaries.
type CQSError struct {
	Kind    Kind
	Message string
	Cause   error

	// Details carries extra key/value context for --json error output.
	Details map[string]string
}

func (e *CQSError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *CQSError) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, &CQSError{Kind: KindCancelled}) style matching
// on Kind alone, independent of message/cause.
func (e *CQSError) Is(target error) bool {
	t, ok := target.(*CQSError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithDetail attaches a key/value detail and returns the receiver for
// chaining.
func (e *CQSError) WithDetail(key, value string) *CQSError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// New constructs a CQSError of the given kind.
func New(kind Kind, message string) *CQSError {
	return &CQSError{Kind: kind, Message: message}
}

// Wrap attaches kind and message to an existing cause, preserving the
// error chain (errors.Is/errors.As continue to work through Unwrap).
func Wrap(kind Kind, message string, cause error) *CQSError {
	if cause == nil {
		return nil
	}
	return &CQSError{Kind: kind, Message: message, Cause: cause}
}

// Cancelled is the sentinel returned by any operation that observed the
// pipeline or query cancellation token. Spec §5: "A cancelled query
// returns a typed cancelled error, never a partial success masquerading
// as complete."
func Cancelled(op string) *CQSError {
	return New(KindCancelled, op+" cancelled")
}

// KindOf extracts the Kind of err if it is (or wraps) a *CQSError, and
// KindInternal otherwise.
func KindOf(err error) Kind {
	var ce *CQSError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindInternal
}
