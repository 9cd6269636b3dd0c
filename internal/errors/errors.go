// Package errors provides custom error types for the Budgeteer API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target carries the same error code, so sentinels
// compare equal to their wrapped copies.
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

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid username or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
	ErrNotOwner           = &AppError{Code: "NOT_OWNER", Message: "You do not own this record", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrInvalidAmount  = &AppError{Code: "INVALID_AMOUNT", Message: "Amount must be greater than zero", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound      = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail    = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
	ErrDuplicateUsername = &AppError{Code: "DUPLICATE_USERNAME", Message: "A user with this username already exists", StatusCode: http.StatusConflict}
)

// Income & expense errors.
var (
	ErrIncomeNotFound   = &AppError{Code: "INCOME_NOT_FOUND", Message: "Income not found", StatusCode: http.StatusNotFound}
	ErrExpenseNotFound  = &AppError{Code: "EXPENSE_NOT_FOUND", Message: "Expense not found", StatusCode: http.StatusNotFound}
	ErrInvalidFrequency = &AppError{Code: "INVALID_FREQUENCY", Message: "Unsupported frequency", StatusCode: http.StatusBadRequest}
)

// Group errors.
var (
	ErrGroupNotFound         = &AppError{Code: "GROUP_NOT_FOUND", Message: "Group not found", StatusCode: http.StatusNotFound}
	ErrSharedExpenseNotFound = &AppError{Code: "SHARED_EXPENSE_NOT_FOUND", Message: "Shared expense not found", StatusCode: http.StatusNotFound}
	ErrEmptyGroup            = &AppError{Code: "EMPTY_GROUP", Message: "Group has no members", StatusCode: http.StatusUnprocessableEntity}
	ErrNotGroupMember        = &AppError{Code: "NOT_GROUP_MEMBER", Message: "You are not a member of this group", StatusCode: http.StatusForbidden}
	ErrDuplicateMember       = &AppError{Code: "DUPLICATE_MEMBER", Message: "User is already a member of this group", StatusCode: http.StatusConflict}
	ErrPayerNotMember        = &AppError{Code: "PAYER_NOT_MEMBER", Message: "Payer must be a member of the group", StatusCode: http.StatusBadRequest}
	ErrInvalidParticipant    = &AppError{Code: "INVALID_PARTICIPANT", Message: "Participants must be members of the group", StatusCode: http.StatusBadRequest}
	ErrSelfSettlement        = &AppError{Code: "SELF_SETTLEMENT", Message: "Cannot settle with yourself", StatusCode: http.StatusBadRequest}
)

// Recurring transaction errors.
var (
	ErrRecurringNotFound = &AppError{Code: "RECURRING_NOT_FOUND", Message: "Recurring transaction not found", StatusCode: http.StatusNotFound}
	ErrNextDateBackward  = &AppError{Code: "NEXT_DATE_BACKWARD", Message: "next_date cannot move backward", StatusCode: http.StatusBadRequest}
	ErrSchedulerSkew     = &AppError{Code: "SCHEDULER_SKEW", Message: "Recurring transaction due date is implausibly old", StatusCode: http.StatusUnprocessableEntity}
)
