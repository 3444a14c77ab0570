package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrInvalidAmount indicates a mutation was requested with a non-positive
// amount. Detected before any lock is taken; the call has no side effects.
var ErrInvalidAmount = fmt.Errorf("%w: amount must be greater than 0", ErrValidation)

// ErrInsufficientBalance indicates a deduction would bring the running
// balance below zero while negative balances are disallowed.
var ErrInsufficientBalance = errors.New("insufficient balance")

// ErrTransientConflict indicates storage-layer contention (deadlock, lock
// timeout, serialization failure). Mutations hitting it are retried a bounded
// number of times before it is surfaced to the caller.
var ErrTransientConflict = errors.New("transient storage conflict")

// InsufficientBalanceError carries the requested amount and the balance
// available at detection time. It unwraps to ErrInsufficientBalance.
type InsufficientBalanceError struct {
	Requested decimal.Decimal
	Available decimal.Decimal
}

func NewInsufficientBalanceError(requested, available decimal.Decimal) *InsufficientBalanceError {
	return &InsufficientBalanceError{Requested: requested, Available: available}
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %s, available %s",
		e.Requested.String(), e.Available.String())
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// IsTransient reports whether err warrants an automatic retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientConflict)
}
