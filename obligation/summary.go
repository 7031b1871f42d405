/*
summary.go - Derived obligation totals

PURPOSE:
  Read-only rollup over an obligation's installments for the back-office
  screens: paid/remaining capital and interest, overdue count, and the
  next due installment. Everything here is derived; nothing is stored.
*/
package obligation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary is a derived snapshot of an obligation's repayment state.
type Summary struct {
	TotalCapital  decimal.Decimal
	TotalInterest decimal.Decimal
	TotalAmount   decimal.Decimal

	PaidAmount      decimal.Decimal
	RemainingAmount decimal.Decimal

	PaidInstallments    int
	OverdueInstallments int

	// NextDue is the lowest-numbered non-paid installment, nil when the
	// obligation is fully settled.
	NextDue *Installment
}

// Summarize computes the rollup as of today.
func Summarize(rec *ObligationRecord, today time.Time) Summary {
	s := Summary{
		TotalCapital:  decimal.Zero,
		TotalInterest: decimal.Zero,
		PaidAmount:    decimal.Zero,
	}

	for i := range rec.Installments {
		inst := &rec.Installments[i]
		s.TotalCapital = s.TotalCapital.Add(inst.CapitalAmount)
		s.TotalInterest = s.TotalInterest.Add(inst.InterestAmount)
		s.PaidAmount = s.PaidAmount.Add(inst.PaidAmount)

		if inst.Status == InstallmentPaid {
			s.PaidInstallments++
			continue
		}
		if inst.IsOverdue(today) {
			s.OverdueInstallments++
		}
		if s.NextDue == nil {
			s.NextDue = inst
		}
	}

	s.TotalAmount = s.TotalCapital.Add(s.TotalInterest)
	s.RemainingAmount = s.TotalAmount.Sub(s.PaidAmount)
	return s
}
