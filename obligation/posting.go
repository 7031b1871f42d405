/*
posting.go - Ledger write path

PURPOSE:
  The Poster is the single write path for accounting entries produced by
  this engine. It is a thin adapter: it validates only that the amount is
  positive, stamps identity and creation time, and hands the entry to the
  external bookkeeping store. All other fields are opaque pass-through.

WHY A SINGLE WRITE PATH:
  - Every non-zero capital/interest component of a payment produces
    exactly one entry; routing all of them through one adapter keeps that
    invariant in one place.
  - Back-filled installments bypass the Poster entirely - the engine
    never builds postings for them, so historical books stay untouched.

SEE ALSO:
  - payment.go: Builds the posting requests for a payment
  - store.go: InsertLedgerTransaction
*/
package obligation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// POSTING REQUEST
// =============================================================================

// PostingRequest carries everything needed to write one ledger entry.
type PostingRequest struct {
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
	InstallmentID       InstallmentID
	IdempotencyKey      string
}

// =============================================================================
// POSTER - The single write path for ledger entries
// =============================================================================

type Poster interface {
	// Post writes one ledger transaction. Rejects non-positive amounts.
	Post(ctx context.Context, req PostingRequest) (*LedgerTransaction, error)
}

// StorePoster posts entries through a Store. Construct one over the
// transaction-scoped store inside WithTx so postings commit with the
// installment update they belong to.
type StorePoster struct {
	Store Store
	Now   func() time.Time
}

func NewPoster(store Store) *StorePoster {
	return &StorePoster{Store: store, Now: time.Now}
}

func (p *StorePoster) Post(ctx context.Context, req PostingRequest) (*LedgerTransaction, error) {
	if !req.Amount.IsPositive() {
		return nil, &ValidationError{Field: "amount", Reason: "posting amount must be positive"}
	}

	txn := &LedgerTransaction{
		ID:                  LedgerTransactionID(uuid.NewString()),
		BranchID:            req.BranchID,
		Type:                req.Type,
		Amount:              round2(req.Amount),
		Concept:             req.Concept,
		CategoryGroup:       req.CategoryGroup,
		AccrualDate:         DateOf(req.AccrualDate),
		PaymentDate:         DateOf(req.PaymentDate),
		DocumentationStatus: req.DocumentationStatus,
		PaymentOrigin:       req.PaymentOrigin,
		RecordedBy:          req.RecordedBy,
		InstallmentID:       req.InstallmentID,
		IdempotencyKey:      req.IdempotencyKey,
		CreatedAt:           p.Now(),
	}

	if err := p.Store.InsertLedgerTransaction(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}
