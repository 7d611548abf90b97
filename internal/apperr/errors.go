// internal/apperr/errors.go
// Structured failure values shared by services and the HTTP adapter.
// Every public service entry returns either success data or one of these;
// the gin layer maps codes to status codes.

package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies failures for propagation policy.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindPrecondition Kind = "precondition"
	KindConflict     Kind = "conflict"
	KindTransient    Kind = "transient"
	KindInternal     Kind = "internal"
)

// Stable error codes surfaced to callers.
const (
	CodePlanInvalid            = "PLAN_INVALID"
	CodeTemplateUnsupported    = "TEMPLATE_UNSUPPORTED"
	CodeInvalidTeamCount       = "INVALID_TEAM_COUNT"
	CodeSelfEdge               = "SELF_EDGE"
	CodeDuplicateEdge          = "DUPLICATE_EDGE"
	CodeGroupCapacityMismatch  = "GROUP_CAPACITY_MISMATCH"
	CodeVersionNotDraft        = "SCHEDULE_VERSION_NOT_DRAFT"
	CodeSourceVersionNotFinal  = "SOURCE_VERSION_NOT_FINAL"
	CodeTournamentNotFound     = "TOURNAMENT_NOT_FOUND"
	CodeEventNotFound          = "EVENT_NOT_FOUND"
	CodeVersionNotFound        = "SCHEDULE_VERSION_NOT_FOUND"
	CodeTeamNotFound           = "TEAM_NOT_FOUND"
	CodeAssignmentOverlap      = "ASSIGNMENT_OVERLAP"
	CodeValidationFailed       = "VALIDATION_FAILED"
	CodeSanityCheckFailed      = "SANITY_CHECK_FAILED"
	CodeInternal               = "INTERNAL_ERROR"
)

// Error is the structured failure value: a stable code, a human message and
// optional context naming the offending field, rule or entity.
type Error struct {
	Kind    Kind                   `json:"-"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// With attaches a context key/value and returns the error for chaining.
func (e *Error) With(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Validation builds a caller-correctable validation failure.
func Validation(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Precondition builds a precondition failure (wrong state, not found).
func Precondition(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindPrecondition, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a precondition failure rendered as 404.
func NotFound(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindPrecondition, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Conflict builds a conflict failure (duplicate, overlap).
func Conflict(code, format string, args ...interface{}) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps an unexpected error behind a stable code without leaking
// internals to the caller.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: "internal error", cause: cause}
}

// From extracts an *Error from err, or nil when err is not one.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// CodeOf returns the stable code of err, or CodeInternal for plain errors.
func CodeOf(err error) string {
	if e := From(err); e != nil {
		return e.Code
	}
	return CodeInternal
}

var notFoundCodes = map[string]bool{
	CodeTournamentNotFound: true,
	CodeEventNotFound:      true,
	CodeVersionNotFound:    true,
	CodeTeamNotFound:       true,
}

// StatusCode maps a failure to the HTTP status used by the adapter:
// 400 validation/precondition, 404 not-found codes, 409 conflicts,
// 503 transient, 500 otherwise.
func StatusCode(err error) int {
	e := From(err)
	if e == nil {
		return http.StatusInternalServerError
	}
	if notFoundCodes[e.Code] {
		return http.StatusNotFound
	}
	switch e.Kind {
	case KindValidation, KindPrecondition:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindTransient:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
