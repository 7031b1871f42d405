/*
completion.go - Obligation completion watcher

PURPOSE:
  Decides, without ambiguity, when an obligation is fully settled. After
  every successful payment (and periodically from the API sweeper), the
  watcher re-reads every installment and flips the obligation to
  completed when all are paid.

WHY A FULL RE-SCAN:
  An incremental "N of M paid" counter is cheaper but fragile against
  missed or out-of-order updates. One extra read per payment buys a check
  that is correct no matter what happened before.

ONE-DIRECTIONAL:
  completed is terminal. The watcher never downgrades a terminal status,
  and obligations that are defaulted or cancelled are left alone.

SEE ALSO:
  - payment.go: Invokes the re-check after each payment
  - api/sweeper.go: Periodic safety-net re-scan
*/
package obligation

import "context"

// AllPaid reports whether every installment in the set is paid.
// False for an empty set: an obligation with no installments is never
// considered settled.
func AllPaid(installments []Installment) bool {
	if len(installments) == 0 {
		return false
	}
	for i := range installments {
		if installments[i].Status != InstallmentPaid {
			return false
		}
	}
	return true
}

// RecheckCompletion re-reads the obligation's installments and flips the
// status to completed when every one is paid. Returns whether the
// obligation is completed after the check. Terminal statuses are never
// changed.
func (e *Engine) RecheckCompletion(ctx context.Context, id ObligationID) (bool, error) {
	rec, err := e.Store.GetObligation(ctx, id)
	if err != nil {
		return false, err
	}
	ob := rec.Obligation

	if ob.Status.Terminal() {
		return ob.Status == StatusCompleted, nil
	}
	if !AllPaid(rec.Installments) {
		return false, nil
	}
	if err := e.Store.UpdateObligationStatus(ctx, id, StatusCompleted); err != nil {
		return false, err
	}
	return true, nil
}
