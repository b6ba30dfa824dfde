package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an AppError independently of its transport mapping.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindRateLimited  Kind = "rate_limited"
	KindInternal     Kind = "internal"
)

// AppError is a structured error that maps to HTTP responses.
type AppError struct {
	Code       string `json:"error_code"`
	Message    string `json:"message"`
	Kind       Kind   `json:"-"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError. The HTTP status is derived from kind.
func New(kind Kind, code string, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Kind:       kind,
		HTTPStatus: statusFor(kind),
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(kind Kind, code string, message string, err error) *AppError {
	e := New(kind, code, message)
	e.Err = err
	return e
}

// IsKind reports whether err is (or wraps) an AppError of the given kind.
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

func statusFor(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ---- Validation (VAL) ----

func ErrInvalidAmount() *AppError {
	return New(KindValidation, "VAL_001", "Invalid transaction value")
}

func ErrInvalidAccountReference() *AppError {
	return New(KindValidation, "VAL_002", "Invalid account number")
}

func ErrSameAccountTransfer() *AppError {
	return New(KindValidation, "VAL_003", "Source and destination accounts cannot be the same")
}

func ErrInvalidName() *AppError {
	return New(KindValidation, "VAL_004", "Name is required")
}

func ErrNameTooLong() *AppError {
	return New(KindValidation, "VAL_006", "Name must be at most 120 characters")
}

func ErrInvalidTaxID() *AppError {
	return New(KindValidation, "VAL_005", "Tax ID must contain exactly 11 digits")
}

// Validation returns a generic request validation error.
func Validation(message string) *AppError {
	return New(KindValidation, "VAL_000", message)
}

// ---- Not found (NF) ----

// ErrAccountNotFound is returned when an account number referenced by a
// transfer or reversal does not resolve.
func ErrAccountNotFound() *AppError {
	return New(KindNotFound, "NF_001", "Incorrect account number!")
}

// ErrHistoryAccountNotFound is returned by the history listing.
func ErrHistoryAccountNotFound() *AppError {
	return New(KindNotFound, "NF_002", "Account not found!")
}

func ErrTransactionNotFound() *AppError {
	return New(KindNotFound, "NF_003", "Transaction not found!")
}

// ErrAccountIDNotFound is returned by lookups on the internal account ID.
func ErrAccountIDNotFound() *AppError {
	return New(KindNotFound, "NF_004", "No account found for this ID!")
}

// ---- Ledger conflicts (CON) ----

func ErrInsufficientFunds() *AppError {
	return New(KindConflict, "CON_001", "Insufficient balance!")
}

func ErrTransactionNotReversible() *AppError {
	return New(KindConflict, "CON_002", "Transaction is not approved or already reversed.")
}

func ErrInsufficientFundsOnReversal() *AppError {
	return New(KindConflict, "CON_003", "Insufficient destination account balance!")
}

func ErrAccountNumberUnavailable() *AppError {
	return New(KindConflict, "CON_004", "Could not allocate a unique account number")
}

func ErrIdempotencyKeyReused() *AppError {
	return New(KindConflict, "CON_005", "Idempotency key reused with a different request")
}

// ---- Authentication (AUTH) ----

func ErrInvalidToken() *AppError {
	return New(KindUnauthorized, "AUTH_001", "Invalid or expired token")
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New(KindRateLimited, "RATE_001", "Rate limit exceeded")
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps an internal error as a SYS_001 error.
func InternalError(err error) *AppError {
	return Wrap(KindInternal, "SYS_001", "Internal server error", err)
}
