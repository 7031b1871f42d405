/*
engine.go - Engine facade: obligation lifecycle orchestration

PURPOSE:
  The Engine ties schedule generation, payment application, ledger
  posting, and completion checking to a TxStore. It is the only writer;
  request handlers call it and render the result.

CREATION FLOW:
  1. Validate parameters (fail fast, nothing written)
  2. Generate the installment schedule (pure)
  3. Inside one transaction: persist obligation + installments, and post
     the down payment (if any) to the ledger
  A failure partway rolls back entirely - a visible obligation always has
  its complete installment set.

STATUS FLAGS:
  Cancel and MarkDefaulted flip the obligation status; both are terminal
  and exclude the obligation from payment eligibility. Nothing is ever
  deleted.

ACTOR IDENTITY:
  Every mutating call takes an explicit actorID which lands in
  LedgerTransaction.RecordedBy. No ambient/global actor state.

SEE ALSO:
  - payment.go: ApplyPayment
  - completion.go: RecheckCompletion
  - duedate.go: EditDueDate
*/
package obligation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	Store TxStore

	// Now is injectable for deterministic tests.
	Now func() time.Time
}

func NewEngine(store TxStore) *Engine {
	return &Engine{Store: store, Now: time.Now}
}

// =============================================================================
// OBLIGATION CREATION
// =============================================================================

// CreateParams are the inputs to obligation creation.
type CreateParams struct {
	BranchID         string
	Variant          Variant
	CounterpartyName string
	Description      string
	Notes            string

	Schedule ScheduleParams

	// Metadata for the optional down-payment posting.
	PaymentOrigin       string
	DocumentationStatus string
}

// CreateObligation generates the schedule and persists the obligation with
// its full installment set as one atomic unit. A positive down payment
// additionally produces one ledger posting dated at the start date, inside
// the same transaction.
func (e *Engine) CreateObligation(ctx context.Context, p CreateParams, actorID string) (*ObligationRecord, error) {
	if p.BranchID == "" {
		return nil, &ValidationError{Field: "branchId", Reason: "required"}
	}
	if p.Variant == nil {
		return nil, &ValidationError{Field: "variant", Reason: "required"}
	}
	if p.CounterpartyName == "" {
		return nil, &ValidationError{Field: "counterpartyName", Reason: "required"}
	}
	if actorID == "" {
		return nil, &ValidationError{Field: "actorId", Reason: "required"}
	}

	now := e.Now()
	installments, err := GenerateSchedule(p.Schedule, now)
	if err != nil {
		return nil, err
	}

	ob := &Obligation{
		ID:                  ObligationID(uuid.NewString()),
		BranchID:            p.BranchID,
		Variant:             p.Variant,
		CounterpartyName:    p.CounterpartyName,
		Description:         p.Description,
		PrincipalAmount:     p.Schedule.Principal,
		DownPayment:         p.Schedule.DownPayment,
		InterestRatePercent: p.Schedule.RatePercent,
		InstallmentCount:    p.Schedule.Count,
		StartDate:           DateOf(p.Schedule.StartDate),
		Status:              StatusActive,
		Notes:               p.Notes,
		CreatedBy:           actorID,
		CreatedAt:           now,
	}

	for i := range installments {
		installments[i].ID = InstallmentID(uuid.NewString())
		installments[i].ObligationID = ob.ID
	}

	err = e.Store.WithTx(ctx, func(s Store) error {
		if err := s.CreateObligation(ctx, ob, installments); err != nil {
			return err
		}
		if ob.DownPayment.IsPositive() {
			poster := NewPoster(s)
			_, err := poster.Post(ctx, PostingRequest{
				BranchID:            ob.BranchID,
				Type:                LedgerExpense,
				Amount:              ob.DownPayment,
				Concept:             ob.Variant.DownPaymentConcept(ob.CounterpartyName),
				CategoryGroup:       ob.Variant.CapitalCategoryGroup(),
				AccrualDate:         ob.StartDate,
				PaymentDate:         ob.StartDate,
				DocumentationStatus: p.DocumentationStatus,
				PaymentOrigin:       p.PaymentOrigin,
				RecordedBy:          actorID,
				IdempotencyKey:      fmt.Sprintf("obligation/%s/down-payment", ob.ID),
			})
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &ObligationRecord{Obligation: ob, Installments: installments}, nil
}

// =============================================================================
// STATUS FLAGS
// =============================================================================

// Cancel flags an active obligation as cancelled. Terminal.
func (e *Engine) Cancel(ctx context.Context, id ObligationID, actorID string) error {
	return e.flagStatus(ctx, id, StatusCancelled)
}

// MarkDefaulted flags an active obligation as defaulted. Terminal.
func (e *Engine) MarkDefaulted(ctx context.Context, id ObligationID, actorID string) error {
	return e.flagStatus(ctx, id, StatusDefaulted)
}

func (e *Engine) flagStatus(ctx context.Context, id ObligationID, status ObligationStatus) error {
	rec, err := e.Store.GetObligation(ctx, id)
	if err != nil {
		return err
	}
	if !rec.Obligation.IsActive() {
		return &InactiveObligationError{ObligationID: id, Status: rec.Obligation.Status}
	}
	return e.Store.UpdateObligationStatus(ctx, id, status)
}
