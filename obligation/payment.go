/*
payment.go - Payment application with capital/interest splitting

PURPOSE:
  Validates and applies a payment to one installment, computes the
  capital/interest split, and emits the matching ledger postings. The
  installment update and its postings commit together or not at all.

SPLIT POLICY:
  capitalShare = capitalAmount / (capitalAmount + interestAmount),
  computed from the installment's ORIGINAL totals. Every partial payment
  against the installment is split with this same fixed ratio:

    capitalPaid  = round2(amount × capitalShare)
    interestPaid = amount − capitalPaid

  Not interest-first, not capital-first, and never recomputed against the
  remaining balance. Summing partial payments to the installment total
  therefore always lands on status=paid with paidAmount = capital+interest,
  regardless of how the total was split across calls.

PRECONDITIONS (violations are rejected, never clamped):
  - amount > 0
  - amount ≤ remaining balance            → OverpaymentError
  - obligation status is active           → InactiveObligationError
  - installment not already paid          → ErrInstallmentPaid

CONCURRENCY:
  The installment carries an optimistic version token. Two concurrent
  payments that both read the same remaining balance cannot both commit:
  the second write fails with ErrConcurrentModification and the caller
  re-reads and retries, so paidAmount can never exceed the total.

IDEMPOTENCY:
  Each payment attempt should carry an idempotency key. Posting keys are
  derived from it; a repeated request fails with ErrDuplicatePayment
  before any mutation.

SEE ALSO:
  - posting.go: The ledger write path used here
  - completion.go: Re-scan that runs after every successful payment
*/
package obligation

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAYMENT REQUEST / RESULT
// =============================================================================

type PaymentRequest struct {
	InstallmentID InstallmentID
	Amount        decimal.Decimal

	// PaymentDate defaults to today when zero.
	PaymentDate time.Time

	PaymentOrigin       string
	DocumentationStatus string

	// IdempotencyKey guards against double-applying a retried request.
	// Optional; when empty no duplicate detection is performed.
	IdempotencyKey string
}

type PaymentResult struct {
	Installment Installment
	Postings    []LedgerTransaction

	// ObligationCompleted is true when this payment settled the last open
	// installment and the obligation flipped to completed.
	ObligationCompleted bool
}

// =============================================================================
// SPLIT - Fixed-ratio capital/interest split
// =============================================================================

// SplitPayment splits an amount into its capital and interest components
// using the installment's original capital share. Pure.
func SplitPayment(inst *Installment, amount decimal.Decimal) (capitalPaid, interestPaid decimal.Decimal) {
	total := inst.Total()
	if total.IsZero() {
		return decimal.Zero, decimal.Zero
	}
	share := inst.CapitalAmount.Div(total)
	capitalPaid = round2(amount.Mul(share))
	interestPaid = amount.Sub(capitalPaid)
	return capitalPaid, interestPaid
}

// =============================================================================
// PAYMENT APPLICATION
// =============================================================================

// ApplyPayment applies one payment to one installment and re-checks
// obligation completion afterwards.
func (e *Engine) ApplyPayment(ctx context.Context, req PaymentRequest, actorID string) (*PaymentResult, error) {
	if !req.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if actorID == "" {
		return nil, &ValidationError{Field: "actorId", Reason: "required"}
	}

	inst, err := e.Store.GetInstallment(ctx, req.InstallmentID)
	if err != nil {
		return nil, err
	}
	rec, err := e.Store.GetObligation(ctx, inst.ObligationID)
	if err != nil {
		return nil, err
	}
	ob := rec.Obligation

	if !ob.IsActive() {
		return nil, &InactiveObligationError{ObligationID: ob.ID, Status: ob.Status}
	}
	if inst.Status == InstallmentPaid {
		return nil, ErrInstallmentPaid
	}
	if req.Amount.GreaterThan(inst.Remaining()) {
		return nil, &OverpaymentError{
			InstallmentID: inst.ID,
			Requested:     req.Amount,
			Remaining:     inst.Remaining(),
		}
	}

	capitalPaid, interestPaid := SplitPayment(inst, req.Amount)

	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = e.Now()
	}

	updated := *inst
	updated.PaidAmount = inst.PaidAmount.Add(req.Amount)
	updated.Status = inst.StatusFor(updated.PaidAmount)
	if updated.Status == InstallmentPaid && inst.PaidAt == nil {
		paidAt := e.Now()
		updated.PaidAt = &paidAt
	}

	var postings []LedgerTransaction
	err = e.Store.WithTx(ctx, func(s Store) error {
		if req.IdempotencyKey != "" {
			for _, key := range postingKeys(req.IdempotencyKey) {
				exists, err := s.LedgerKeyExists(ctx, key)
				if err != nil {
					return err
				}
				if exists {
					return ErrDuplicatePayment
				}
			}
		}

		if err := s.UpdateInstallment(ctx, &updated, inst.Version); err != nil {
			return err
		}

		poster := NewPoster(s)
		poster.Now = e.Now

		// One posting per nonzero component, both expenses against the
		// installment's due date.
		if capitalPaid.IsPositive() {
			txn, err := poster.Post(ctx, PostingRequest{
				BranchID:            ob.BranchID,
				Type:                LedgerExpense,
				Amount:              capitalPaid,
				Concept:             ob.Variant.CapitalConcept(ob.CounterpartyName, inst.Number, ob.InstallmentCount),
				CategoryGroup:       ob.Variant.CapitalCategoryGroup(),
				AccrualDate:         inst.DueDate,
				PaymentDate:         paymentDate,
				DocumentationStatus: req.DocumentationStatus,
				PaymentOrigin:       req.PaymentOrigin,
				RecordedBy:          actorID,
				InstallmentID:       inst.ID,
				IdempotencyKey:      derivedKey(req.IdempotencyKey, "capital"),
			})
			if err != nil {
				return err
			}
			postings = append(postings, *txn)
		}
		if interestPaid.IsPositive() {
			txn, err := poster.Post(ctx, PostingRequest{
				BranchID:            ob.BranchID,
				Type:                LedgerExpense,
				Amount:              interestPaid,
				Concept:             ob.Variant.InterestConcept(ob.CounterpartyName, inst.Number, ob.InstallmentCount),
				CategoryGroup:       ob.Variant.InterestCategoryGroup(),
				AccrualDate:         inst.DueDate,
				PaymentDate:         paymentDate,
				DocumentationStatus: req.DocumentationStatus,
				PaymentOrigin:       req.PaymentOrigin,
				RecordedBy:          actorID,
				InstallmentID:       inst.ID,
				IdempotencyKey:      derivedKey(req.IdempotencyKey, "interest"),
			})
			if err != nil {
				return err
			}
			postings = append(postings, *txn)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	completed, err := e.RecheckCompletion(ctx, ob.ID)
	if err != nil {
		return nil, err
	}

	return &PaymentResult{
		Installment:         updated,
		Postings:            postings,
		ObligationCompleted: completed,
	}, nil
}

func derivedKey(base, component string) string {
	if base == "" {
		return ""
	}
	return base + "/" + component
}

func postingKeys(base string) []string {
	return []string{derivedKey(base, "capital"), derivedKey(base, "interest")}
}
