package errorutil

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Error codes rendered in the error envelope.
const (
	CodeValidation      = "VALIDATION_FAILED"
	CodeUnauthenticated = "UNAUTHENTICATED"
	CodeTokenMissing    = "TOKEN_MISSING"
	CodeTokenInvalid    = "TOKEN_INVALID"
	CodeRoleMismatch    = "ROLE_MISMATCH"
	CodeForbidden       = "FORBIDDEN"
	CodeConflict        = "CONFLICT"
	CodeNotFound        = "NOT_FOUND"
	CodeTooManyRequests = "TOO_MANY_REQUESTS"
	CodeInfrastructure  = "INFRASTRUCTURE_UNAVAILABLE"
	CodeInternal        = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Retryable  bool
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthenticated, message, http.StatusUnauthorized, nil)
}

// NewTokenMissing reports that no token was found in the slots of the named role.
func NewTokenMissing(role string) error {
	msg := "authentication token missing"
	if role != "" {
		msg = fmt.Sprintf("%s token missing", strings.ToLower(role))
	}
	return NewDomainError(CodeTokenMissing, msg, http.StatusUnauthorized, nil)
}

func NewTokenInvalid() error {
	return NewDomainError(CodeTokenInvalid, "invalid or expired token", http.StatusUnauthorized, nil)
}

// NewRoleMismatch reports a valid token presented for the wrong role.
func NewRoleMismatch(expected, actual string) error {
	return NewDomainError(CodeRoleMismatch, fmt.Sprintf("%s role required", strings.ToLower(expected)),
		http.StatusForbidden, map[string]any{"expected": expected, "actual": actual})
}

func NewForbidden(message string, details map[string]any) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, details)
}

// NewConflict reports a uniqueness violation. The platform answers these with 400.
func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusBadRequest, details)
}

func NewTooManyRequests(retryAfterSeconds int) error {
	return NewDomainError(CodeTooManyRequests, "too many requests, please try again later",
		http.StatusTooManyRequests, map[string]any{"retry_after": retryAfterSeconds})
}

// NewInfrastructure wraps a failure of an external dependency. The caller may retry.
func NewInfrastructure(err error) error {
	return &DomainError{
		Code:       CodeInfrastructure,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Retryable:  true,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsRetryable reports whether err carries a retryable infrastructure failure.
func IsRetryable(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Retryable
}

// HasCode reports whether err is a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}

// IsNotFound reports whether err means a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) || HasCode(err, CodeNotFound)
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}
