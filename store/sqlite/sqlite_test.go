package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoppiness/debt-engine/loan"
	"github.com/hoppiness/debt-engine/obligation"
	_ "github.com/hoppiness/debt-engine/paymentplan"
)

// =============================================================================
// FIXTURES
// =============================================================================

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func money(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func seedObligation(t *testing.T, s *Store) *obligation.ObligationRecord {
	t.Helper()

	ob := &obligation.Obligation{
		ID:                  obligation.ObligationID(uuid.NewString()),
		BranchID:            "branch-1",
		Variant:             loan.Variant{},
		CounterpartyName:    "Banco Provincia",
		Description:         "kitchen refit",
		PrincipalAmount:     money(3000),
		DownPayment:         decimal.Zero,
		InterestRatePercent: money(10),
		InstallmentCount:    3,
		StartDate:           time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		Status:              obligation.StatusActive,
		Notes:               "entered from paper records",
		CreatedBy:           "admin",
		CreatedAt:           time.Date(2025, time.January, 2, 9, 30, 0, 0, time.UTC),
	}

	installments, err := obligation.GenerateSchedule(obligation.ScheduleParams{
		Principal:   ob.PrincipalAmount,
		RatePercent: ob.InterestRatePercent,
		Count:       ob.InstallmentCount,
		StartDate:   ob.StartDate,
	}, ob.CreatedAt)
	require.NoError(t, err)
	for i := range installments {
		installments[i].ID = obligation.InstallmentID(uuid.NewString())
		installments[i].ObligationID = ob.ID
	}

	require.NoError(t, s.CreateObligation(context.Background(), ob, installments))
	return &obligation.ObligationRecord{Obligation: ob, Installments: installments}
}

func seedLedger(t *testing.T, s *Store, key string) *obligation.LedgerTransaction {
	t.Helper()
	txn := &obligation.LedgerTransaction{
		ID:             obligation.LedgerTransactionID(uuid.NewString()),
		BranchID:       "branch-1",
		Type:           obligation.LedgerExpense,
		Amount:         money(1100),
		Concept:        "Loan Banco Provincia - installment 1/3 capital",
		CategoryGroup:  loan.CategoryCapital,
		AccrualDate:    time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		PaymentDate:    time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC),
		RecordedBy:     "maria",
		IdempotencyKey: key,
		CreatedAt:      time.Date(2025, time.February, 3, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.InsertLedgerTransaction(context.Background(), txn))
	return txn
}

// =============================================================================
// ROUND-TRIPS
// =============================================================================

func TestObligationRoundTrip(t *testing.T) {
	// GIVEN: A stored obligation with its schedule
	s := newTestStore(t)
	seeded := seedObligation(t, s)
	ctx := context.Background()

	// WHEN: Reading it back
	rec, err := s.GetObligation(ctx, seeded.Obligation.ID)
	require.NoError(t, err)

	// THEN: All fields survive, including the hydrated variant
	ob := rec.Obligation
	assert.Equal(t, seeded.Obligation.ID, ob.ID)
	assert.Equal(t, "loan", ob.Variant.VariantID())
	assert.Equal(t, "Banco Provincia", ob.CounterpartyName)
	assert.Equal(t, "kitchen refit", ob.Description)
	assert.True(t, ob.PrincipalAmount.Equal(money(3000)))
	assert.True(t, ob.InterestRatePercent.Equal(money(10)))
	assert.Equal(t, seeded.Obligation.StartDate, ob.StartDate)
	assert.Equal(t, obligation.StatusActive, ob.Status)
	assert.Equal(t, "admin", ob.CreatedBy)

	// AND: Installments come back ordered by number with identical amounts
	require.Len(t, rec.Installments, 3)
	for i, inst := range rec.Installments {
		assert.Equal(t, i+1, inst.Number)
		assert.True(t, inst.CapitalAmount.Equal(seeded.Installments[i].CapitalAmount))
		assert.True(t, inst.InterestAmount.Equal(seeded.Installments[i].InterestAmount))
		assert.Equal(t, seeded.Installments[i].DueDate, inst.DueDate)
		assert.Equal(t, int64(1), inst.Version)
	}
}

func TestLedgerRoundTrip(t *testing.T) {
	s := newTestStore(t)
	seeded := seedLedger(t, s, "pay-1/capital")

	txns, err := s.ListLedgerTransactions(context.Background(), "branch-1")
	require.NoError(t, err)
	require.Len(t, txns, 1)

	got := txns[0]
	assert.Equal(t, seeded.ID, got.ID)
	assert.Equal(t, obligation.LedgerExpense, got.Type)
	assert.True(t, got.Amount.Equal(money(1100)))
	assert.Equal(t, loan.CategoryCapital, got.CategoryGroup)
	assert.Equal(t, seeded.AccrualDate, got.AccrualDate)
	assert.Equal(t, seeded.PaymentDate, got.PaymentDate)
	assert.Equal(t, "maria", got.RecordedBy)
	assert.Equal(t, "pay-1/capital", got.IdempotencyKey)
}

func TestGetObligation_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetObligation(context.Background(), "missing")
	assert.True(t, obligation.IsNotFound(err))

	_, err = s.GetInstallment(context.Background(), "missing")
	assert.True(t, obligation.IsNotFound(err))
}

func TestListObligations_FiltersByBranch(t *testing.T) {
	s := newTestStore(t)
	seedObligation(t, s)
	ctx := context.Background()

	records, err := s.ListObligations(ctx, "branch-1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Len(t, records[0].Installments, 3)

	records, err = s.ListObligations(ctx, "branch-2")
	require.NoError(t, err)
	assert.Empty(t, records)
}

// =============================================================================
// OPTIMISTIC CONCURRENCY
// =============================================================================

func TestUpdateInstallment_VersionCAS(t *testing.T) {
	// GIVEN: A stored installment at version 1
	s := newTestStore(t)
	rec := seedObligation(t, s)
	ctx := context.Background()

	inst := rec.Installments[0]
	inst.PaidAmount = money(500)
	inst.Status = obligation.InstallmentPartial

	// WHEN: Writing with the matching version
	require.NoError(t, s.UpdateInstallment(ctx, &inst, 1))
	assert.Equal(t, int64(2), inst.Version)

	// THEN: The row is updated and re-writing with the old token fails
	stored, err := s.GetInstallment(ctx, inst.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.Equal(money(500)))
	assert.Equal(t, obligation.InstallmentPartial, stored.Status)
	assert.Equal(t, int64(2), stored.Version)

	stale := rec.Installments[0]
	stale.Version = 1
	err = s.UpdateInstallment(ctx, &stale, 1)
	assert.ErrorIs(t, err, obligation.ErrConcurrentModification)
}

func TestUpdateInstallment_MissingRowIsNotFound(t *testing.T) {
	s := newTestStore(t)

	inst := obligation.Installment{
		ID:             "missing",
		DueDate:        time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		CapitalAmount:  money(100),
		InterestAmount: money(10),
		PaidAmount:     decimal.Zero,
		Status:         obligation.InstallmentPending,
	}
	err := s.UpdateInstallment(context.Background(), &inst, 1)
	assert.True(t, obligation.IsNotFound(err))
}

// =============================================================================
// IDEMPOTENCY
// =============================================================================

func TestInsertLedger_DuplicateKeyRejected(t *testing.T) {
	// GIVEN: A posting under key "pay-1/capital"
	s := newTestStore(t)
	seedLedger(t, s, "pay-1/capital")
	ctx := context.Background()

	exists, err := s.LedgerKeyExists(ctx, "pay-1/capital")
	require.NoError(t, err)
	assert.True(t, exists)

	// WHEN: Inserting a second posting with the same key
	dup := &obligation.LedgerTransaction{
		ID:             obligation.LedgerTransactionID(uuid.NewString()),
		BranchID:       "branch-1",
		Type:           obligation.LedgerExpense,
		Amount:         money(1100),
		Concept:        "retry",
		CategoryGroup:  loan.CategoryCapital,
		AccrualDate:    time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		PaymentDate:    time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC),
		RecordedBy:     "maria",
		IdempotencyKey: "pay-1/capital",
		CreatedAt:      time.Now(),
	}
	err = s.InsertLedgerTransaction(ctx, dup)

	// THEN: The unique index rejects it as a duplicate payment
	assert.ErrorIs(t, err, obligation.ErrDuplicatePayment)
}

func TestInsertLedger_EmptyKeysDoNotCollide(t *testing.T) {
	// Postings without idempotency keys store NULL, which the unique index
	// does not treat as equal.
	s := newTestStore(t)
	seedLedger(t, s, "")
	seedLedger(t, s, "")

	txns, err := s.ListLedgerTransactions(context.Background(), "branch-1")
	require.NoError(t, err)
	assert.Len(t, txns, 2)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestWithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A transaction that updates an installment then fails
	s := newTestStore(t)
	rec := seedObligation(t, s)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx obligation.Store) error {
		inst := rec.Installments[0]
		inst.PaidAmount = money(1100)
		inst.Status = obligation.InstallmentPaid
		if err := tx.UpdateInstallment(ctx, &inst, 1); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	// THEN: The installment change never became visible
	stored, err := s.GetInstallment(ctx, rec.Installments[0].ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.IsZero())
	assert.Equal(t, int64(1), stored.Version)
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	s := newTestStore(t)
	rec := seedObligation(t, s)
	ctx := context.Background()

	err := s.WithTx(ctx, func(tx obligation.Store) error {
		inst := rec.Installments[0]
		inst.PaidAmount = money(500)
		inst.Status = obligation.InstallmentPartial
		if err := tx.UpdateInstallment(ctx, &inst, 1); err != nil {
			return err
		}
		return tx.InsertLedgerTransaction(ctx, &obligation.LedgerTransaction{
			ID:             obligation.LedgerTransactionID(uuid.NewString()),
			BranchID:       "branch-1",
			Type:           obligation.LedgerExpense,
			Amount:         money(500),
			Concept:        "Loan Banco Provincia - installment 1/3 capital",
			CategoryGroup:  loan.CategoryCapital,
			AccrualDate:    rec.Installments[0].DueDate,
			PaymentDate:    rec.Installments[0].DueDate,
			RecordedBy:     "maria",
			IdempotencyKey: "pay-1/capital",
			CreatedAt:      time.Now(),
		})
	})
	require.NoError(t, err)

	stored, err := s.GetInstallment(ctx, rec.Installments[0].ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.Equal(money(500)))

	txns, err := s.ListLedgerTransactions(ctx, "branch-1")
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

// =============================================================================
// STATUS / SWEEP SUPPORT
// =============================================================================

func TestUpdateObligationStatusAndActiveListing(t *testing.T) {
	s := newTestStore(t)
	first := seedObligation(t, s)
	second := seedObligation(t, s)
	ctx := context.Background()

	ids, err := s.ListActiveObligationIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	require.NoError(t, s.UpdateObligationStatus(ctx, first.Obligation.ID, obligation.StatusCompleted))

	ids, err = s.ListActiveObligationIDs(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, second.Obligation.ID, ids[0])

	err = s.UpdateObligationStatus(ctx, "missing", obligation.StatusCancelled)
	assert.True(t, obligation.IsNotFound(err))
}

// =============================================================================
// FULL ENGINE FLOW OVER SQLITE
// =============================================================================

func TestEngineFlowOverSQLite(t *testing.T) {
	// GIVEN: The engine running on the SQLite store
	s := newTestStore(t)
	eng := obligation.NewEngine(s)
	ctx := context.Background()

	rec, err := eng.CreateObligation(ctx, obligation.CreateParams{
		BranchID:         "branch-1",
		Variant:          loan.Variant{},
		CounterpartyName: "Banco Provincia",
		Schedule: obligation.ScheduleParams{
			Principal:   money(2000),
			RatePercent: money(10),
			Count:       2,
			StartDate:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
	}, "admin")
	require.NoError(t, err)

	// WHEN: Paying both installments
	for i, inst := range rec.Installments {
		result, err := eng.ApplyPayment(ctx, obligation.PaymentRequest{
			InstallmentID:  inst.ID,
			Amount:         inst.Total(),
			IdempotencyKey: fmt.Sprintf("pay-%d", inst.Number),
		}, "maria")
		require.NoError(t, err, "installment %d", i+1)
		assert.Equal(t, obligation.InstallmentPaid, result.Installment.Status)
	}

	// THEN: The obligation is completed and four postings exist
	after, err := s.GetObligation(ctx, rec.Obligation.ID)
	require.NoError(t, err)
	assert.Equal(t, obligation.StatusCompleted, after.Obligation.Status)

	txns, err := s.ListLedgerTransactions(ctx, "branch-1")
	require.NoError(t, err)
	assert.Len(t, txns, 4)
}
