package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestTradingError_SentinelMatching matches errors by category through
// errors.Is.
func TestTradingError_SentinelMatching(t *testing.T) {
	err := NewNotFoundError("paper", "position", "abc")

	assert.True(t, stderrors.Is(err, ErrNotFound))
	assert.False(t, stderrors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), `position "abc" not found`)
	assert.Contains(t, err.Error(), "NOT_FOUND")
}

// TestTradingError_WrappedSentinel survives fmt.Errorf %w wrapping.
func TestTradingError_WrappedSentinel(t *testing.T) {
	err := fmt.Errorf("open failed: %w", NewLimitExceededError("risk", "too big"))

	assert.True(t, stderrors.Is(err, ErrLimitExceeded))
}

// TestWrapError keeps the underlying error reachable.
func TestWrapError(t *testing.T) {
	underlying := stderrors.New("disk full")
	err := WrapError(underlying, ErrorCategoryValidation, "config", "load")

	assert.True(t, stderrors.Is(err, underlying))
	assert.True(t, stderrors.Is(err, ErrValidation))
	assert.Nil(t, WrapError(nil, ErrorCategoryValidation, "config", "load"))
}

// TestValidationErrors_CollectsAll reports every problem in one error.
func TestValidationErrors_CollectsAll(t *testing.T) {
	v := NewValidationErrors("sizing")
	assert.NoError(t, v.ErrOrNil())

	v.Addf("balance must be greater than 0, got %.2f", -1.0)
	v.Addf("entry price must be greater than 0, got %.2f", 0.0)

	err := v.ErrOrNil()
	assert.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "balance")
	assert.Contains(t, err.Error(), "entry price")
}

// TestInsufficientBalanceError formats the amounts.
func TestInsufficientBalanceError(t *testing.T) {
	err := NewInsufficientBalanceError("paper", 5005.00, 4995.00)

	assert.True(t, stderrors.Is(err, ErrInsufficientBalance))
	assert.Contains(t, err.Error(), "required 5005.00")
	assert.Contains(t, err.Error(), "available 4995.00")
}
