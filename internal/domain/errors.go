package domain

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound     = errors.New("domain: not found")
	ErrConflict     = errors.New("domain: conflict")
	ErrUnauthorized = errors.New("domain: unauthorized")
	ErrForbidden    = errors.New("domain: forbidden")
	ErrValidation   = errors.New("domain: validation failed")
	ErrRemote       = errors.New("domain: remote call failed")
	ErrAggregation  = errors.New("domain: malformed aggregation input")
)

// FieldError describes a single invalid field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError is returned before any remote call when a request has
// missing required fields or out-of-set enum values.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	names := e.FieldNames()
	return "validation failed: " + strings.Join(names, ", ")
}

// Is makes errors.Is(err, ErrValidation) hold.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// FieldNames returns the offending field names in reporting order.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return names
}

// Add appends a field failure.
func (e *ValidationError) Add(field, reason string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Reason: reason})
}

// OrNil returns nil when no field failed, so callers can write `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Reason: reason}}}
}

// NotFoundError reports that a referenced id does not resolve.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// RemoteError wraps a failed collaborator call (database, recommendation
// service, ...) with its upstream status, code and message. The core never
// retries; Retryable only classifies.
type RemoteError struct {
	Status  int
	Code    string
	Message string
	Cause   error
}

func (e *RemoteError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "remote error (status %d", e.Status)
	if e.Code != "" {
		fmt.Fprintf(&b, ", code %s", e.Code)
	}
	b.WriteString(")")
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *RemoteError) Unwrap() error {
	return e.Cause
}

// Is makes errors.Is(err, ErrRemote) hold.
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

// Retryable reports whether the upstream failure is transient: any 5xx,
// request timeout (408) or rate limiting (429).
func (e *RemoteError) Retryable() bool {
	return e.Status >= http.StatusInternalServerError ||
		e.Status == http.StatusRequestTimeout ||
		e.Status == http.StatusTooManyRequests
}

// AggregationError describes a gap record the aggregation engine skipped
// because one of its enum fields is outside the closed set.
type AggregationError struct {
	GapID string
	Field string
	Value string
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("gap %s: %s has unrecognized value %q", e.GapID, e.Field, e.Value)
}

// Is makes errors.Is(err, ErrAggregation) hold.
func (e *AggregationError) Is(target error) bool {
	return target == ErrAggregation
}
