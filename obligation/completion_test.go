package obligation_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoppiness/debt-engine/loan"
	"github.com/hoppiness/debt-engine/obligation"
)

// =============================================================================
// ALL-PAID SCAN
// =============================================================================

func TestAllPaid(t *testing.T) {
	paid := obligation.Installment{Status: obligation.InstallmentPaid}
	partial := obligation.Installment{Status: obligation.InstallmentPartial}
	pending := obligation.Installment{Status: obligation.InstallmentPending}

	assert.True(t, obligation.AllPaid([]obligation.Installment{paid, paid}))
	assert.False(t, obligation.AllPaid([]obligation.Installment{paid, partial}))
	assert.False(t, obligation.AllPaid([]obligation.Installment{pending}))

	// An empty set is never "all paid"; completion requires installments.
	assert.False(t, obligation.AllPaid(nil))
}

// =============================================================================
// COMPLETION TRANSITION
// =============================================================================

func TestCompletion_LastPaymentCompletesObligation(t *testing.T) {
	// GIVEN: A 3-installment obligation with two installments already paid
	eng, mem := newTestEngine()
	rec, err := eng.CreateObligation(context.Background(), obligation.CreateParams{
		BranchID:         "branch-1",
		Variant:          loan.Variant{},
		CounterpartyName: "Banco Provincia",
		Schedule:         scheduleParams(3000, 0, 10, 3),
	}, "admin")
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		inst := rec.Installments[i]
		result, err := eng.ApplyPayment(ctx, obligation.PaymentRequest{
			InstallmentID: inst.ID,
			Amount:        inst.Total(),
		}, "maria")
		require.NoError(t, err)
		assert.False(t, result.ObligationCompleted, "installment %d", i+1)
	}

	// WHEN: Paying the last one
	last := rec.Installments[2]
	result, err := eng.ApplyPayment(ctx, obligation.PaymentRequest{
		InstallmentID: last.ID,
		Amount:        last.Total(),
	}, "maria")
	require.NoError(t, err)

	// THEN: The payment reports completion and the status is persisted
	assert.True(t, result.ObligationCompleted)

	after, err := mem.GetObligation(ctx, rec.Obligation.ID)
	require.NoError(t, err)
	assert.Equal(t, obligation.StatusCompleted, after.Obligation.Status)
}

func TestCompletion_PartialLastInstallmentStaysActive(t *testing.T) {
	// GIVEN: A single-installment obligation
	eng, mem := newTestEngine()
	rec, err := eng.CreateObligation(context.Background(), obligation.CreateParams{
		BranchID:         "branch-1",
		Variant:          loan.Variant{},
		CounterpartyName: "Banco Provincia",
		Schedule:         scheduleParams(1000, 0, 0, 1),
	}, "admin")
	require.NoError(t, err)
	ctx := context.Background()

	// WHEN: Paying all but one cent
	result, err := eng.ApplyPayment(ctx, obligation.PaymentRequest{
		InstallmentID: rec.Installments[0].ID,
		Amount:        money(999.99),
	}, "maria")
	require.NoError(t, err)

	// THEN: Still active
	assert.False(t, result.ObligationCompleted)
	after, err := mem.GetObligation(ctx, rec.Obligation.ID)
	require.NoError(t, err)
	assert.Equal(t, obligation.StatusActive, after.Obligation.Status)
}

func TestRecheckCompletion_TerminalStatusesAreNeverRevisited(t *testing.T) {
	// GIVEN: A cancelled obligation whose installments are all paid (entered
	//        historically, then cancelled by hand in the store)
	eng, mem := newTestEngine()
	ctx := context.Background()

	rec, err := eng.CreateObligation(ctx, obligation.CreateParams{
		BranchID:         "branch-1",
		Variant:          loan.Variant{},
		CounterpartyName: "Banco Provincia",
		Schedule: func() obligation.ScheduleParams {
			p := scheduleParams(2000, 0, 0, 2)
			p.AlreadyPaidCount = 1
			return p
		}(),
	}, "admin")
	require.NoError(t, err)
	require.NoError(t, eng.Cancel(ctx, rec.Obligation.ID, "admin"))

	inst, err := mem.GetInstallment(ctx, rec.Installments[1].ID)
	require.NoError(t, err)
	inst.PaidAmount = inst.Total()
	inst.Status = obligation.InstallmentPaid
	require.NoError(t, mem.UpdateInstallment(ctx, inst, inst.Version))

	// WHEN: Re-checking completion
	completed, err := eng.RecheckCompletion(ctx, rec.Obligation.ID)
	require.NoError(t, err)

	// THEN: Cancelled never flips to completed
	assert.False(t, completed)
	after, err := mem.GetObligation(ctx, rec.Obligation.ID)
	require.NoError(t, err)
	assert.Equal(t, obligation.StatusCancelled, after.Obligation.Status)
}

func TestRecheckCompletion_AlreadyCompletedReportsTrue(t *testing.T) {
	eng, _ := newTestEngine()
	ctx := context.Background()

	rec, err := eng.CreateObligation(ctx, obligation.CreateParams{
		BranchID:         "branch-1",
		Variant:          loan.Variant{},
		CounterpartyName: "Banco Provincia",
		Schedule:         scheduleParams(1000, 0, 0, 1),
	}, "admin")
	require.NoError(t, err)

	_, err = eng.ApplyPayment(ctx, obligation.PaymentRequest{
		InstallmentID: rec.Installments[0].ID,
		Amount:        money(1000),
	}, "maria")
	require.NoError(t, err)

	completed, err := eng.RecheckCompletion(ctx, rec.Obligation.ID)
	require.NoError(t, err)
	assert.True(t, completed)
}
