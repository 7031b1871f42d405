package obligation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoppiness/debt-engine/obligation"
)

func TestEditDueDate_PaymentPlanInstallment(t *testing.T) {
	// GIVEN: A payment plan (due-date edits allowed)
	eng, mem := newTestEngine()
	rec := newPlan(t, eng)
	ctx := context.Background()

	target := rec.Installments[2]
	newDate := time.Date(2025, time.December, 24, 15, 30, 0, 0, time.UTC)

	// WHEN: Moving the third installment's due date
	updated, err := eng.EditDueDate(ctx, target.ID, newDate, "maria")
	require.NoError(t, err)

	// THEN: The date is stored at day granularity
	assert.Equal(t, time.Date(2025, time.December, 24, 0, 0, 0, 0, time.UTC), updated.DueDate)

	// AND: Amounts, status and the neighbors are untouched
	assert.True(t, updated.CapitalAmount.Equal(target.CapitalAmount))
	assert.Equal(t, target.Status, updated.Status)

	after, err := mem.GetObligation(ctx, rec.Obligation.ID)
	require.NoError(t, err)
	for i, inst := range after.Installments {
		if inst.ID == target.ID {
			continue
		}
		assert.Equal(t, rec.Installments[i].DueDate, inst.DueDate, "installment %d", i+1)
	}
}

func TestEditDueDate_MayFallOutOfOrder(t *testing.T) {
	// A renegotiated installment may legitimately land before its
	// predecessor; ordering is not enforced.
	eng, _ := newTestEngine()
	rec := newPlan(t, eng)

	before := rec.Installments[0].DueDate.AddDate(0, 0, -10)
	updated, err := eng.EditDueDate(context.Background(), rec.Installments[3].ID, before, "maria")
	require.NoError(t, err)
	assert.True(t, updated.DueDate.Before(rec.Installments[0].DueDate))
}

func TestEditDueDate_LoanRejected(t *testing.T) {
	// GIVEN: A loan (fixed schedule)
	eng, _ := newTestEngine()
	rec := newLoan(t, eng)

	// WHEN/THEN: Due-date edits are refused
	_, err := eng.EditDueDate(context.Background(), rec.Installments[0].ID,
		time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), "maria")
	assert.ErrorIs(t, err, obligation.ErrDueDateEditNotAllowed)
}

func TestEditDueDate_PaidInstallmentRejected(t *testing.T) {
	eng, _ := newTestEngine()
	rec := newPlan(t, eng)
	ctx := context.Background()

	inst := rec.Installments[0]
	_, err := eng.ApplyPayment(ctx, obligation.PaymentRequest{
		InstallmentID: inst.ID,
		Amount:        inst.Total(),
	}, "maria")
	require.NoError(t, err)

	_, err = eng.EditDueDate(ctx, inst.ID, time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), "maria")
	assert.ErrorIs(t, err, obligation.ErrInstallmentPaid)
}

func TestEditDueDate_InactiveObligationRejected(t *testing.T) {
	eng, _ := newTestEngine()
	rec := newPlan(t, eng)
	ctx := context.Background()
	require.NoError(t, eng.Cancel(ctx, rec.Obligation.ID, "admin"))

	_, err := eng.EditDueDate(ctx, rec.Installments[0].ID,
		time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), "maria")
	assert.ErrorIs(t, err, obligation.ErrInactiveObligation)
}

func TestEditDueDate_Validation(t *testing.T) {
	eng, _ := newTestEngine()
	rec := newPlan(t, eng)

	_, err := eng.EditDueDate(context.Background(), rec.Installments[0].ID, time.Time{}, "maria")
	assert.ErrorIs(t, err, obligation.ErrValidation)

	_, err = eng.EditDueDate(context.Background(), rec.Installments[0].ID,
		time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), "")
	assert.ErrorIs(t, err, obligation.ErrValidation)
}
