/*
Package obligation provides the core installment-debt engine.

PURPOSE:
  This package contains the domain types and algorithms for managing
  branch debt obligations repaid in installments. Whether the debt is a
  bank loan or a supplier payment plan, the same engine handles schedule
  generation, payment application, ledger posting, and completion.

KEY CONCEPTS IN THIS FILE (types.go):
  - Obligation: A debt instrument owed by a branch
  - Installment: One scheduled repayment, split into capital and interest
  - LedgerTransaction: An accounting entry emitted towards bookkeeping
  - Variant: Tagged obligation kind (loan vs payment plan)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Derived state: Installment status is a pure function of PaidAmount;
     "overdue" is computed, never stored
  3. Type Safety: Strong typing for IDs prevents mixing obligation and
     installment identifiers
  4. Auditability: Every ledger entry carries its actor and an
     idempotency key

USAGE:
  eng := obligation.NewEngine(store)
  ob, insts, err := eng.CreateObligation(ctx, params, "user-42")

SEE ALSO:
  - schedule.go: Repayment schedule generation
  - payment.go: Payment application and capital/interest splitting
  - posting.go: Ledger write path
*/
package obligation

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ObligationID string
type InstallmentID string
type LedgerTransactionID string

// =============================================================================
// VARIANT - Tagged obligation kind (loan | payment plan)
// =============================================================================

// Variant identifies what kind of obligation is being tracked.
// This is an interface so domain packages define their own concrete types.
// The obligation package has NO knowledge of specific variants.
//
// Domain packages implement this:
//
//	// In loan/loan.go
//	type Variant struct{}
//	func (Variant) VariantID() string { return "loan" }
type Variant interface {
	// VariantID returns the unique identifier for this variant.
	VariantID() string

	// CapitalCategoryGroup is the bookkeeping category for capital postings.
	CapitalCategoryGroup() string

	// InterestCategoryGroup is the bookkeeping category for interest postings.
	InterestCategoryGroup() string

	// CapitalConcept labels the capital posting for installment number/count.
	CapitalConcept(counterparty string, number, count int) string

	// InterestConcept labels the interest posting for installment number/count.
	InterestConcept(counterparty string, number, count int) string

	// DownPaymentConcept labels the optional down-payment posting.
	DownPaymentConcept(counterparty string) string

	// AllowsDueDateEdit reports whether pending installments of this
	// variant may have their due date changed after creation.
	AllowsDueDateEdit() bool
}

// =============================================================================
// OBLIGATION - A debt instrument repaid through installments
// =============================================================================

type ObligationStatus string

const (
	StatusActive    ObligationStatus = "active"
	StatusCompleted ObligationStatus = "completed"
	StatusDefaulted ObligationStatus = "defaulted"
	StatusCancelled ObligationStatus = "cancelled"
)

// Terminal reports whether the status never reverts automatically.
func (s ObligationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusDefaulted || s == StatusCancelled
}

type Obligation struct {
	ID               ObligationID
	BranchID         string
	Variant          Variant
	CounterpartyName string
	Description      string

	PrincipalAmount     decimal.Decimal
	DownPayment         decimal.Decimal
	InterestRatePercent decimal.Decimal // flat rate over the financed amount, total (not per period)
	InstallmentCount    int
	StartDate           time.Time

	Status    ObligationStatus
	Notes     string
	CreatedBy string
	CreatedAt time.Time
}

// FinancedAmount is the principal net of the down payment; it is the base
// for the schedule's capital and interest split.
func (o *Obligation) FinancedAmount() decimal.Decimal {
	return o.PrincipalAmount.Sub(o.DownPayment)
}

func (o *Obligation) IsActive() bool { return o.Status == StatusActive }

// =============================================================================
// INSTALLMENT - One scheduled repayment of an obligation
// =============================================================================

type InstallmentStatus string

const (
	InstallmentPending InstallmentStatus = "pending"
	InstallmentPartial InstallmentStatus = "partial"
	InstallmentPaid    InstallmentStatus = "paid"
)

type Installment struct {
	ID           InstallmentID
	ObligationID ObligationID

	// Number is 1..N, contiguous, fixed at creation.
	Number  int
	DueDate time.Time

	CapitalAmount  decimal.Decimal
	InterestAmount decimal.Decimal
	PaidAmount     decimal.Decimal

	Status InstallmentStatus
	PaidAt *time.Time

	// Version is the optimistic-concurrency token. Compared-and-swapped by
	// Store.UpdateInstallment so two concurrent payments cannot both apply
	// against the same read state.
	Version int64
}

// Total is the full amount owed for this installment.
func (i *Installment) Total() decimal.Decimal {
	return i.CapitalAmount.Add(i.InterestAmount)
}

// Remaining is what is still owed for this installment.
func (i *Installment) Remaining() decimal.Decimal {
	return i.Total().Sub(i.PaidAmount)
}

// IsOverdue is the derived view-state: pending or partial with a due date
// strictly before today. Never persisted.
func (i *Installment) IsOverdue(today time.Time) bool {
	return i.Status != InstallmentPaid && DateOf(i.DueDate).Before(DateOf(today))
}

// StatusFor computes the installment status from a paid amount. Status is
// always a pure function of PaidAmount vs Total.
func (i *Installment) StatusFor(paid decimal.Decimal) InstallmentStatus {
	switch {
	case paid.GreaterThanOrEqual(i.Total()):
		return InstallmentPaid
	case paid.IsPositive():
		return InstallmentPartial
	default:
		return InstallmentPending
	}
}

// =============================================================================
// LEDGER TRANSACTION - Accounting entry emitted towards bookkeeping
// =============================================================================

type LedgerType string

const (
	LedgerIncome  LedgerType = "income"
	LedgerExpense LedgerType = "expense"
)

// LedgerTransaction is the bookkeeping entry this engine produces but does
// not own. Fields beyond Amount are opaque pass-through for the external
// accounting collaborator.
type LedgerTransaction struct {
	ID                  LedgerTransactionID
	BranchID            string
	Type                LedgerType
	Amount              decimal.Decimal
	Concept             string
	CategoryGroup       string
	AccrualDate         time.Time
	PaymentDate         time.Time
	DocumentationStatus string
	PaymentOrigin       string
	RecordedBy          string

	// InstallmentID references the originating installment. Empty for the
	// down-payment posting made at obligation creation.
	InstallmentID InstallmentID

	IdempotencyKey string
	CreatedAt      time.Time
}

// =============================================================================
// MONEY HELPERS
// =============================================================================

// Epsilon is the rounding tolerance on sum invariants: per-installment
// amounts are rounded to cents, so schedule sums may drift by less than this.
var Epsilon = decimal.NewFromFloat(0.01)

func round2(d decimal.Decimal) decimal.Decimal { return d.Round(2) }

// DateOf truncates a timestamp to its calendar date in UTC. Due dates,
// accrual dates, and payment dates all live at day granularity.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
