/*
schedule.go - Repayment schedule generation

PURPOSE:
  Turns a handful of financial parameters into a deterministic, ordered
  installment list. This is a pure function: persistence and the optional
  down-payment posting are the caller's (engine.go) responsibility.

SCHEDULE RULES:
  - Capital is the financed amount (principal − down payment) split
    equally across N installments.
  - Interest is FLAT: financed × rate/100 computed once, split equally.
    No compounding, no declining balance.
  - Due dates are startDate + 1..N months. The first installment is due
    one month after the start, never on the start date itself.
  - Per-installment amounts are rounded to cents; the final installment
    absorbs the rounding residual so the schedule sums exactly to the
    financed amount and the total interest.

BACK-FILL:
  AlreadyPaidCount > 0 enters pre-existing debt: the first k installments
  are created already paid, with PaidAmount = capital + interest and
  PaidAt = now. No ledger postings are produced for them - those payments
  are already in the historical books.

SEE ALSO:
  - engine.go: CreateObligation persists the generated schedule atomically
  - payment.go: Mutates installments after creation
*/
package obligation

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SCHEDULE PARAMETERS
// =============================================================================

// ScheduleParams are the inputs to schedule generation.
type ScheduleParams struct {
	Principal   decimal.Decimal
	DownPayment decimal.Decimal

	// RatePercent is the total flat interest rate over the financed
	// amount, e.g. 10 means financed × 0.10 of interest across the
	// whole schedule.
	RatePercent decimal.Decimal

	Count     int
	StartDate time.Time

	// AlreadyPaidCount back-fills the first k installments as paid
	// (historical obligation entered after some payments were made).
	AlreadyPaidCount int
}

// Validate checks the parameters without generating anything.
func (p ScheduleParams) Validate() error {
	if p.Count <= 0 {
		return &ValidationError{Field: "count", Reason: "must be positive"}
	}
	if !p.Principal.IsPositive() {
		return &ValidationError{Field: "principal", Reason: "must be positive"}
	}
	if p.DownPayment.IsNegative() {
		return &ValidationError{Field: "downPayment", Reason: "must not be negative"}
	}
	if p.DownPayment.GreaterThan(p.Principal) {
		return &ValidationError{Field: "downPayment", Reason: "exceeds principal"}
	}
	if p.RatePercent.IsNegative() {
		return &ValidationError{Field: "ratePercent", Reason: "must not be negative"}
	}
	if p.StartDate.IsZero() {
		return &ValidationError{Field: "startDate", Reason: "required"}
	}
	if p.AlreadyPaidCount < 0 {
		return &ValidationError{Field: "alreadyPaidCount", Reason: "must not be negative"}
	}
	if p.AlreadyPaidCount >= p.Count {
		return &ValidationError{Field: "alreadyPaidCount", Reason: "must be less than count"}
	}
	return nil
}

// =============================================================================
// SCHEDULE GENERATION
// =============================================================================

// GenerateSchedule produces the ordered installment list for the given
// parameters. Installments are returned without IDs or an obligation
// reference; the engine assigns those when it persists the set.
//
// now is only used as PaidAt for back-filled installments.
func GenerateSchedule(p ScheduleParams, now time.Time) ([]Installment, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	financed := p.Principal.Sub(p.DownPayment)
	count := decimal.NewFromInt(int64(p.Count))

	capitalEach := round2(financed.Div(count))
	totalInterest := round2(financed.Mul(p.RatePercent).Div(decimal.NewFromInt(100)))
	interestEach := round2(totalInterest.Div(count))

	installments := make([]Installment, p.Count)
	start := DateOf(p.StartDate)

	for i := 0; i < p.Count; i++ {
		capital := capitalEach
		interest := interestEach
		if i == p.Count-1 {
			// Final installment absorbs the rounding residual so the
			// schedule sums exactly.
			capital = financed.Sub(capitalEach.Mul(decimal.NewFromInt(int64(p.Count - 1))))
			interest = totalInterest.Sub(interestEach.Mul(decimal.NewFromInt(int64(p.Count - 1))))
		}

		inst := Installment{
			Number:         i + 1,
			DueDate:        start.AddDate(0, i+1, 0),
			CapitalAmount:  capital,
			InterestAmount: interest,
			PaidAmount:     decimal.Zero,
			Status:         InstallmentPending,
			Version:        1,
		}

		if i < p.AlreadyPaidCount {
			paidAt := now
			inst.PaidAmount = inst.Total()
			inst.Status = InstallmentPaid
			inst.PaidAt = &paidAt
		}

		installments[i] = inst
	}

	return installments, nil
}
