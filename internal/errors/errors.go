// Package errors provides custom error types for the expense tracker API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, optional details, and optional internal error.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	StatusCode int            `json:"-"`
	Internal   error          `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches AppErrors by code so sentinels compare equal to their derived copies.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// WithDetails creates a new AppError carrying a custom message and details.
func WithDetails(sentinel *AppError, message string, details map[string]any) *AppError {
	e := WithMessage(sentinel, message)
	e.Details = details
	return e
}

// InvalidField returns an ErrInvalidInput naming the offending field.
func InvalidField(field, message string) *AppError {
	return WithDetails(ErrInvalidInput, message, map[string]any{"field": field})
}

// InsufficientBalance returns an ErrInsufficientBalance quoting the required
// and available amounts.
func InsufficientBalance(required, available decimal.Decimal) *AppError {
	return WithDetails(ErrInsufficientBalance,
		fmt.Sprintf("Insufficient balance. Required: %s, Available: %s", required.StringFixed(2), available.StringFixed(2)),
		map[string]any{
			"required":  required.StringFixed(2),
			"available": available.StringFixed(2),
		})
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput     = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrInternalServer   = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrConcurrentUpdate = &AppError{Code: "CONCURRENT_UPDATE", Message: "The resource was modified concurrently, please retry", StatusCode: http.StatusConflict}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
	ErrInvalidRole    = &AppError{Code: "INVALID_ROLE", Message: "Unsupported role", StatusCode: http.StatusBadRequest}
)

// Category errors.
var (
	ErrCategoryNotFound       = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryInUse          = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing expenses", StatusCode: http.StatusConflict}
	ErrDuplicateCategory      = &AppError{Code: "DUPLICATE_CATEGORY", Message: "A category with this name already exists", StatusCode: http.StatusConflict}
	ErrCategoryReassignFailed = &AppError{Code: "CATEGORY_REASSIGN_FAILED", Message: "Failed to move expenses to the renamed category", StatusCode: http.StatusInternalServerError}
)

// Expense errors.
var (
	ErrExpenseNotFound      = &AppError{Code: "EXPENSE_NOT_FOUND", Message: "Expense not found", StatusCode: http.StatusNotFound}
	ErrInvalidPaymentMethod = &AppError{Code: "INVALID_PAYMENT_METHOD", Message: "Unsupported payment method", StatusCode: http.StatusBadRequest}
)

// Ledger errors.
var (
	ErrInvalidTransactionType = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Unsupported transaction type", StatusCode: http.StatusBadRequest}
	ErrInsufficientBalance    = &AppError{Code: "INSUFFICIENT_BALANCE", Message: "Insufficient balance", StatusCode: http.StatusBadRequest}
	ErrInvalidSource          = &AppError{Code: "INVALID_SOURCE", Message: "Unsupported deposit source", StatusCode: http.StatusBadRequest}
)
