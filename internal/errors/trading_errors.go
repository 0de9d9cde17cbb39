package errors

import (
	"fmt"
	"strings"
)

// ErrorCategory classifies errors surfaced by the simulation core.
// Every category is recoverable: the caller decides whether to retry
// with adjusted parameters.
type ErrorCategory string

const (
	ErrorCategoryValidation          ErrorCategory = "VALIDATION"
	ErrorCategoryLimitExceeded       ErrorCategory = "LIMIT_EXCEEDED"
	ErrorCategoryInsufficientBalance ErrorCategory = "INSUFFICIENT_BALANCE"
	ErrorCategoryNotFound            ErrorCategory = "NOT_FOUND"
)

// TradingError is a categorized error with component and operation context.
type TradingError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
}

// Error implements the error interface
func (e *TradingError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *TradingError) Unwrap() error {
	return e.Underlying
}

// Is matches against another TradingError by category, so callers can
// test errors.Is(err, ErrNotFound) style sentinels.
func (e *TradingError) Is(target error) bool {
	t, ok := target.(*TradingError)
	if !ok {
		return false
	}
	return e.Category == t.Category
}

// Category sentinels for errors.Is checks.
var (
	ErrValidation          = &TradingError{Category: ErrorCategoryValidation}
	ErrLimitExceeded       = &TradingError{Category: ErrorCategoryLimitExceeded}
	ErrInsufficientBalance = &TradingError{Category: ErrorCategoryInsufficientBalance}
	ErrNotFound            = &TradingError{Category: ErrorCategoryNotFound}
)

// NewTradingError creates a new categorized error
func NewTradingError(category ErrorCategory, component, operation, message string) *TradingError {
	return &TradingError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
	}
}

// WrapError wraps an existing error with trading error context
func WrapError(err error, category ErrorCategory, component, operation string) *TradingError {
	if err == nil {
		return nil
	}
	return &TradingError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
	}
}

// NewNotFoundError reports an unknown position or order id.
func NewNotFoundError(component, kind, id string) *TradingError {
	return NewTradingError(ErrorCategoryNotFound, component, "lookup", fmt.Sprintf("%s %q not found", kind, id))
}

// NewInsufficientBalanceError reports a notional that exceeds available funds.
func NewInsufficientBalanceError(component string, required, available float64) *TradingError {
	return NewTradingError(ErrorCategoryInsufficientBalance, component, "debit",
		fmt.Sprintf("insufficient balance: required %.2f, available %.2f", required, available))
}

// NewLimitExceededError reports a risk-rule rejection.
func NewLimitExceededError(component, reason string) *TradingError {
	return NewTradingError(ErrorCategoryLimitExceeded, component, "check", reason)
}

// ValidationErrors aggregates every parameter violation found by a
// validation pass. Validation never mutates state; the full list is
// reported at once rather than failing on the first problem.
type ValidationErrors struct {
	Component string
	Problems  []string
}

// NewValidationErrors creates an empty validation error list for a component.
func NewValidationErrors(component string) *ValidationErrors {
	return &ValidationErrors{Component: component}
}

// Addf appends a formatted problem to the list.
func (v *ValidationErrors) Addf(format string, args ...interface{}) {
	v.Problems = append(v.Problems, fmt.Sprintf(format, args...))
}

// HasErrors reports whether any problem was recorded.
func (v *ValidationErrors) HasErrors() bool {
	return len(v.Problems) > 0
}

// ErrOrNil returns the list as an error, or nil when empty.
func (v *ValidationErrors) ErrOrNil() error {
	if !v.HasErrors() {
		return nil
	}
	return v
}

// Error implements the error interface
func (v *ValidationErrors) Error() string {
	return fmt.Sprintf("[%s:%s] %s", ErrorCategoryValidation, v.Component, strings.Join(v.Problems, "; "))
}

// Is matches the validation category sentinel.
func (v *ValidationErrors) Is(target error) bool {
	t, ok := target.(*TradingError)
	return ok && t.Category == ErrorCategoryValidation
}
