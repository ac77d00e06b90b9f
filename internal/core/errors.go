// AngelaMos | 2026
// errors.go

package core

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

var (
	ErrNotFound           = errors.New("resource not found")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenMalformed     = errors.New("token malformed")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrServiceUnavailable = errors.New("service unavailable")
)

var (
	ErrDuplicateEmail    = fmt.Errorf("email: %w", ErrDuplicateKey)
	ErrDuplicateUsername = fmt.Errorf("username: %w", ErrDuplicateKey)
)

// IsTokenError reports whether err is any of the token verification kinds.
func IsTokenError(err error) bool {
	return errors.Is(err, ErrTokenInvalid) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenMalformed) ||
		errors.Is(err, ErrTokenRevoked)
}

// TokenErrorKind names the internal failure class for logging.
func TokenErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, ErrTokenRevoked):
		return "revoked"
	case errors.Is(err, ErrTokenInvalid):
		return "invalid"
	default:
		return "unknown"
	}
}

type AppError struct {
	Err        error
	Message    string
	StatusCode int
	Code       string
	Details    []string
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, status int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: status,
		Code:       code,
	}
}

// ValidationError collects every violated input rule.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Add(msg string) {
	v.Errors = append(v.Errors, msg)
}

func (v *ValidationError) Error() string {
	return "validation failed: " + strings.Join(v.Errors, "; ")
}

func (v *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Err returns nil when no rule was violated.
func (v *ValidationError) Err() error {
	if v == nil || len(v.Errors) == 0 {
		return nil
	}
	return v
}

func NewValidationError(msgs ...string) *ValidationError {
	return &ValidationError{Errors: msgs}
}

// WrapStoreError marks connectivity failures as retryable.
func WrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}

	if isConnectivityError(err) {
		return fmt.Errorf("%s: %w: %w", op, ErrServiceUnavailable, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}

func isConnectivityError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = MsgForbidden
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}
