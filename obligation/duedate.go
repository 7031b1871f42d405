/*
duedate.go - Due-date editor for pending installments

PURPOSE:
  Adjusts a single unpaid installment's due date. Only variants that
  allow renegotiation (payment plans) permit this; loans keep their
  schedule fixed.

SCOPE:
  Exactly one installment's dueDate changes. Neighboring installments are
  NOT reflowed and ordering against adjacent due dates is NOT enforced -
  a single renegotiated installment may legitimately fall out of order
  with its neighbors.
*/
package obligation

import (
	"context"
	"time"
)

// EditDueDate moves one installment's due date.
// Permitted only while the obligation is active, the installment is not
// paid, and the variant allows due-date edits.
func (e *Engine) EditDueDate(ctx context.Context, id InstallmentID, newDate time.Time, actorID string) (*Installment, error) {
	if newDate.IsZero() {
		return nil, &ValidationError{Field: "dueDate", Reason: "required"}
	}
	if actorID == "" {
		return nil, &ValidationError{Field: "actorId", Reason: "required"}
	}

	inst, err := e.Store.GetInstallment(ctx, id)
	if err != nil {
		return nil, err
	}
	rec, err := e.Store.GetObligation(ctx, inst.ObligationID)
	if err != nil {
		return nil, err
	}
	ob := rec.Obligation

	if !ob.Variant.AllowsDueDateEdit() {
		return nil, ErrDueDateEditNotAllowed
	}
	if !ob.IsActive() {
		return nil, &InactiveObligationError{ObligationID: ob.ID, Status: ob.Status}
	}
	if inst.Status == InstallmentPaid {
		return nil, ErrInstallmentPaid
	}

	updated := *inst
	updated.DueDate = DateOf(newDate)
	if err := e.Store.UpdateInstallment(ctx, &updated, inst.Version); err != nil {
		return nil, err
	}
	return &updated, nil
}
