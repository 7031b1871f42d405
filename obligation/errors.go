/*
errors.go - Centralized error types for the obligation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is / errors.As; the API layer maps these
  onto HTTP statuses.

ERROR CATEGORIES:
  1. Validation errors - Bad schedule or payment parameters
  2. State errors - Mutating a non-active obligation or paid installment
  3. Store errors - Persistence-level failures and write conflicts

USAGE:
  if errors.Is(err, obligation.ErrOverpayment) {
      // surface the specific rejection reason, never clamp
  }

SEE ALSO:
  - payment.go: Uses OverpaymentError / InactiveObligationError
  - schedule.go: Uses ValidationError
  - store.go: Uses ErrConcurrentModification, PersistenceError
*/
package obligation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned when schedule or payment parameters are
	// invalid. Surfaced before any write.
	ErrValidation = errors.New("validation failed")

	// ErrOverpayment is returned when a payment exceeds the installment's
	// remaining balance. The amount is rejected, never clamped.
	ErrOverpayment = errors.New("payment exceeds remaining balance")

	// ErrInactiveObligation is returned when mutating an obligation that is
	// not active (completed, defaulted, or cancelled).
	ErrInactiveObligation = errors.New("obligation is not active")

	// ErrNotFound is returned when a referenced obligation or installment
	// doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrPersistence is returned when the store fails at the database level.
	ErrPersistence = errors.New("persistence failure")

	// ErrConcurrentModification is returned when the installment version
	// check detects a conflicting write. Safe to retry after a re-read.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrDuplicatePayment is returned when a payment's idempotency key was
	// already used. This is expected behavior for retries.
	ErrDuplicatePayment = errors.New("duplicate payment attempt")

	// ErrInstallmentPaid is returned when paying or re-dating an
	// installment that is already settled.
	ErrInstallmentPaid = errors.New("installment already paid")

	// ErrDueDateEditNotAllowed is returned when the obligation variant does
	// not permit due-date edits (loans).
	ErrDueDateEditNotAllowed = errors.New("variant does not allow due date edits")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes a rejected parameter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// OverpaymentError details a payment that exceeds the remaining balance.
type OverpaymentError struct {
	InstallmentID InstallmentID
	Requested     decimal.Decimal
	Remaining     decimal.Decimal
}

func (e *OverpaymentError) Error() string {
	return fmt.Sprintf("payment of %s exceeds remaining %s on installment %s",
		e.Requested.StringFixed(2), e.Remaining.StringFixed(2), e.InstallmentID)
}

func (e *OverpaymentError) Unwrap() error { return ErrOverpayment }

// InactiveObligationError details a mutation attempt on a non-active obligation.
type InactiveObligationError struct {
	ObligationID ObligationID
	Status       ObligationStatus
}

func (e *InactiveObligationError) Error() string {
	return fmt.Sprintf("obligation %s is %s, not active", e.ObligationID, e.Status)
}

func (e *InactiveObligationError) Unwrap() error { return ErrInactiveObligation }

// NotFoundError identifies the missing record.
type NotFoundError struct {
	Kind string // "obligation" | "installment"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// PersistenceError wraps a database-level failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return ErrPersistence }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to invalid client input
// or a state precondition the client can observe.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrOverpayment) ||
		errors.Is(err, ErrInactiveObligation) ||
		errors.Is(err, ErrInstallmentPaid) ||
		errors.Is(err, ErrDueDateEditNotAllowed) ||
		errors.Is(err, ErrDuplicatePayment)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
