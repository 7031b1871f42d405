// Package loan implements the loan obligation variant.
// A loan is branch debt towards a lender: capital postings are booked
// under DEBT, interest under FINANCIAL_EXPENSE, and the repayment
// schedule is fixed at creation (no due-date edits).
package loan

import (
	"fmt"

	"github.com/hoppiness/debt-engine/obligation"
)

// Bookkeeping category groups for loan postings.
const (
	CategoryCapital  = "DEBT"
	CategoryInterest = "FINANCIAL_EXPENSE"
)

// Variant is the loan obligation kind.
// Implements obligation.Variant.
type Variant struct{}

// Compile-time check that Variant implements obligation.Variant
var _ obligation.Variant = Variant{}

func (Variant) VariantID() string             { return "loan" }
func (Variant) CapitalCategoryGroup() string  { return CategoryCapital }
func (Variant) InterestCategoryGroup() string { return CategoryInterest }
func (Variant) AllowsDueDateEdit() bool       { return false }

func (Variant) CapitalConcept(counterparty string, number, count int) string {
	return fmt.Sprintf("Loan %s - installment %d/%d capital", counterparty, number, count)
}

func (Variant) InterestConcept(counterparty string, number, count int) string {
	return fmt.Sprintf("Loan %s - installment %d/%d interest", counterparty, number, count)
}

func (Variant) DownPaymentConcept(counterparty string) string {
	return fmt.Sprintf("Loan %s - down payment", counterparty)
}

// Register the loan variant with the obligation registry
func init() {
	obligation.RegisterVariant(Variant{})
}
