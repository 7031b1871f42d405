// Package paymentplan implements the payment-plan obligation variant.
// A payment plan is branch debt towards a supplier, paid off in agreed
// installments. It shares the whole engine with loans; the differences
// are the bookkeeping category for capital and that a pending
// installment's due date may be renegotiated.
package paymentplan

import (
	"fmt"

	"github.com/hoppiness/debt-engine/obligation"
)

// Bookkeeping category groups for payment-plan postings.
const (
	CategoryCapital  = "SUPPLIER_DEBT"
	CategoryInterest = "FINANCIAL_EXPENSE"
)

// Variant is the payment-plan obligation kind.
// Implements obligation.Variant.
type Variant struct{}

// Compile-time check that Variant implements obligation.Variant
var _ obligation.Variant = Variant{}

func (Variant) VariantID() string             { return "payment_plan" }
func (Variant) CapitalCategoryGroup() string  { return CategoryCapital }
func (Variant) InterestCategoryGroup() string { return CategoryInterest }
func (Variant) AllowsDueDateEdit() bool       { return true }

func (Variant) CapitalConcept(counterparty string, number, count int) string {
	return fmt.Sprintf("Payment plan %s - installment %d/%d capital", counterparty, number, count)
}

func (Variant) InterestConcept(counterparty string, number, count int) string {
	return fmt.Sprintf("Payment plan %s - installment %d/%d interest", counterparty, number, count)
}

func (Variant) DownPaymentConcept(counterparty string) string {
	return fmt.Sprintf("Payment plan %s - down payment", counterparty)
}

// Register the payment-plan variant with the obligation registry
func init() {
	obligation.RegisterVariant(Variant{})
}
