package obligation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoppiness/debt-engine/obligation"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func money(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func scheduleParams(principal, down, rate float64, count int) obligation.ScheduleParams {
	return obligation.ScheduleParams{
		Principal:   money(principal),
		DownPayment: money(down),
		RatePercent: money(rate),
		Count:       count,
		StartDate:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func sumCapital(insts []obligation.Installment) decimal.Decimal {
	total := decimal.Zero
	for i := range insts {
		total = total.Add(insts[i].CapitalAmount)
	}
	return total
}

func sumInterest(insts []obligation.Installment) decimal.Decimal {
	total := decimal.Zero
	for i := range insts {
		total = total.Add(insts[i].InterestAmount)
	}
	return total
}

// =============================================================================
// SUM INVARIANTS
// =============================================================================

func TestGenerateSchedule_SumInvariants(t *testing.T) {
	// GIVEN: A grid of valid schedule parameters
	// WHEN: Generating schedules
	// THEN: Capital sums to principal − downPayment and interest sums to
	//       financed × rate/100, exactly (residual absorbed in the last row)

	cases := []struct {
		name                        string
		principal, down, rate       float64
		count                       int
	}{
		{"even split", 120000, 0, 10, 12},
		{"uneven thirds", 1000, 0, 10, 3},
		{"down payment", 60000, 12000, 5, 6},
		{"zero interest", 9000, 0, 0, 9},
		{"single installment", 500, 0, 21, 1},
		{"awkward sevenths", 10000, 0, 7.5, 7},
	}

	now := time.Now()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			insts, err := obligation.GenerateSchedule(scheduleParams(tc.principal, tc.down, tc.rate, tc.count), now)
			require.NoError(t, err)
			require.Len(t, insts, tc.count)

			financed := money(tc.principal).Sub(money(tc.down))
			wantInterest := financed.Mul(money(tc.rate)).Div(decimal.NewFromInt(100)).Round(2)

			assert.True(t, sumCapital(insts).Equal(financed),
				"capital sum %s != financed %s", sumCapital(insts), financed)
			assert.True(t, sumInterest(insts).Equal(wantInterest),
				"interest sum %s != total interest %s", sumInterest(insts), wantInterest)
		})
	}
}

func TestGenerateSchedule_ResidualAbsorbedInFinalInstallment(t *testing.T) {
	// GIVEN: 1000 split over 3 installments (333.33 each, residual 0.01)
	// WHEN: Generating the schedule
	// THEN: The first two get 333.33 and the last gets 333.34

	insts, err := obligation.GenerateSchedule(scheduleParams(1000, 0, 10, 3), time.Now())
	require.NoError(t, err)

	assert.True(t, insts[0].CapitalAmount.Equal(money(333.33)))
	assert.True(t, insts[1].CapitalAmount.Equal(money(333.33)))
	assert.True(t, insts[2].CapitalAmount.Equal(money(333.34)))

	assert.True(t, insts[0].InterestAmount.Equal(money(33.33)))
	assert.True(t, insts[2].InterestAmount.Equal(money(33.34)))
}

// =============================================================================
// DUE DATES
// =============================================================================

func TestGenerateSchedule_DueDates_MonthlyFromStart(t *testing.T) {
	// GIVEN: A schedule starting 2025-01-01 with 12 installments
	// WHEN: Generating
	// THEN: Due dates are start + 1..12 months, strictly increasing,
	//       and the first is one month after start (not on the start date)

	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	insts, err := obligation.GenerateSchedule(obligation.ScheduleParams{
		Principal:   money(120000),
		RatePercent: money(10),
		Count:       12,
		StartDate:   start,
	}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC), insts[0].DueDate)
	for i := range insts {
		assert.Equal(t, start.AddDate(0, i+1, 0), insts[i].DueDate, "installment %d", i+1)
		if i > 0 {
			assert.True(t, insts[i].DueDate.After(insts[i-1].DueDate), "due dates must increase")
		}
	}
}

func TestGenerateSchedule_NumbersContiguousFromOne(t *testing.T) {
	insts, err := obligation.GenerateSchedule(scheduleParams(120000, 0, 10, 12), time.Now())
	require.NoError(t, err)

	for i := range insts {
		assert.Equal(t, i+1, insts[i].Number)
		assert.Equal(t, obligation.InstallmentPending, insts[i].Status)
		assert.True(t, insts[i].PaidAmount.IsZero())
		assert.Nil(t, insts[i].PaidAt)
	}
}

// =============================================================================
// BACK-FILL
// =============================================================================

func TestGenerateSchedule_BackFill_MarksHistoricalInstallmentsPaid(t *testing.T) {
	// GIVEN: A 10-installment schedule with 4 already paid externally
	// WHEN: Generating with AlreadyPaidCount = 4
	// THEN: Exactly 4 installments are paid with full paidAmount and a
	//       paidAt stamp; the remaining 6 are pending

	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	p := scheduleParams(80000, 0, 8, 10)
	p.AlreadyPaidCount = 4

	insts, err := obligation.GenerateSchedule(p, now)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		assert.Equal(t, obligation.InstallmentPaid, insts[i].Status, "installment %d", i+1)
		assert.True(t, insts[i].PaidAmount.Equal(insts[i].Total()))
		require.NotNil(t, insts[i].PaidAt)
		assert.Equal(t, now, *insts[i].PaidAt)
	}
	for i := 4; i < 10; i++ {
		assert.Equal(t, obligation.InstallmentPending, insts[i].Status, "installment %d", i+1)
		assert.True(t, insts[i].PaidAmount.IsZero())
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestGenerateSchedule_Validation(t *testing.T) {
	now := time.Now()

	cases := []struct {
		name  string
		parms obligation.ScheduleParams
	}{
		{"zero count", scheduleParams(1000, 0, 10, 0)},
		{"negative count", scheduleParams(1000, 0, 10, -3)},
		{"zero principal", scheduleParams(0, 0, 10, 3)},
		{"negative principal", scheduleParams(-50, 0, 10, 3)},
		{"down payment exceeds principal", scheduleParams(1000, 1001, 10, 3)},
		{"negative rate", scheduleParams(1000, 0, -1, 3)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := obligation.GenerateSchedule(tc.parms, now)
			assert.ErrorIs(t, err, obligation.ErrValidation)

			var verr *obligation.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}
}

func TestGenerateSchedule_BackFillCountMustBeBelowCount(t *testing.T) {
	// Back-filling every installment would create an obligation that was
	// settled before it existed; that is rejected.
	p := scheduleParams(1000, 0, 10, 3)
	p.AlreadyPaidCount = 3

	_, err := obligation.GenerateSchedule(p, time.Now())
	assert.ErrorIs(t, err, obligation.ErrValidation)
}
