// Package result defines the typed outcomes returned by validators and
// managers.  Expected failures are values of *Failure; handlers turn a
// Result into the {message, data} response envelope.
package result

import (
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	KindValidation   Kind = "VALIDATION_ERROR"
	KindNotFound     Kind = "NOT_FOUND"
	KindConflict     Kind = "CONFLICT"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindInternal     Kind = "INTERNAL"
)

// Args are the template arguments of a message key.
type Args map[string]any

// Failure is an expected, terminal rejection.  Key is a stable message key
// resolved by the i18n bundle at the transport edge.
type Failure struct {
	Kind Kind
	Key  string
	Args Args
}

func (f *Failure) Error() string {
	if len(f.Args) == 0 {
		return fmt.Sprintf("%s: %s", f.Kind, f.Key)
	}
	return fmt.Sprintf("%s: %s %v", f.Kind, f.Key, f.Args)
}

// Status maps the failure kind to its HTTP status.  CONFLICT is reported
// as 400 for compatibility with existing API consumers.
func (f *Failure) Status() int {
	switch f.Kind {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Invalid reports malformed or missing input.
func Invalid(key string, args Args) *Failure {
	return &Failure{Kind: KindValidation, Key: key, Args: args}
}

// NotFound reports a missing target or referenced entity.
func NotFound(key string) *Failure { return &Failure{Kind: KindNotFound, Key: key} }

// Conflict reports a uniqueness or quota violation.
func Conflict(key string) *Failure { return &Failure{Kind: KindConflict, Key: key} }

// Unauthorized reports an actor that may not perform the operation.
func Unauthorized(key string) *Failure { return &Failure{Kind: KindUnauthorized, Key: key} }

// Result is the outcome of a manager operation.
type Result struct {
	Status int
	Kind   Kind
	Key    string
	Args   Args
	Data   any
}

// OK builds a 200 result.
func OK(key string, data any) Result {
	return Result{Status: http.StatusOK, Key: key, Data: data}
}

// Created builds a 201 result.
func Created(key string, data any) Result {
	return Result{Status: http.StatusCreated, Key: key, Data: data}
}

// FromFailure passes an expected failure through unchanged.
func FromFailure(f *Failure) Result {
	return Result{Status: f.Status(), Kind: f.Kind, Key: f.Key, Args: f.Args}
}

// Internal is the generic 500 result.  It never carries error detail.
func Internal() Result {
	return Result{Status: http.StatusInternalServerError, Kind: KindInternal, Key: KeyServerError}
}

// Failed reports whether the result carries a failure.
func (r Result) Failed() bool { return r.Kind != "" }

// Shared message keys.
const (
	KeyServerError        = "server.serverError"
	KeyUnauthorizedAction = "server.unauthorizedAction"
)
