/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  All amounts travel as strings with two decimals ("10000.00"). Clients
  never see floats; formatting/locale concerns stay outside this engine.

VALIDATION:
  Validation is done by the engine, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - obligation/types.go: The domain model behind them
*/
package api

import (
	"time"

	"github.com/hoppiness/debt-engine/obligation"
)

// =============================================================================
// REQUEST TYPES
// =============================================================================

// CreateObligationRequest creates a loan or payment plan together with its
// full installment schedule.
type CreateObligationRequest struct {
	BranchID         string `json:"branch_id"`
	Variant          string `json:"variant"` // "loan" | "payment_plan"
	CounterpartyName string `json:"counterparty_name"`
	Description      string `json:"description,omitempty"`
	Notes            string `json:"notes,omitempty"`

	PrincipalAmount     string `json:"principal_amount"`
	DownPayment         string `json:"down_payment,omitempty"`
	InterestRatePercent string `json:"interest_rate_percent,omitempty"`
	InstallmentCount    int    `json:"installment_count"`
	StartDate           string `json:"start_date"` // YYYY-MM-DD

	// AlreadyPaidCount back-fills historical installments as paid with no
	// ledger postings.
	AlreadyPaidCount int `json:"already_paid_count,omitempty"`

	PaymentOrigin       string `json:"payment_origin,omitempty"`
	DocumentationStatus string `json:"documentation_status,omitempty"`

	ActorID string `json:"actor_id,omitempty"`
}

// ApplyPaymentRequest applies one payment to one installment.
type ApplyPaymentRequest struct {
	Amount              string `json:"amount"`
	PaymentDate         string `json:"payment_date,omitempty"` // YYYY-MM-DD, defaults to today
	PaymentOrigin       string `json:"payment_origin,omitempty"`
	DocumentationStatus string `json:"documentation_status,omitempty"`
	IdempotencyKey      string `json:"idempotency_key,omitempty"`
	ActorID             string `json:"actor_id,omitempty"`
}

// EditDueDateRequest moves a pending installment's due date.
type EditDueDateRequest struct {
	DueDate string `json:"due_date"` // YYYY-MM-DD
	ActorID string `json:"actor_id,omitempty"`
}

// ActorRequest carries only the acting user (cancel/default).
type ActorRequest struct {
	ActorID string `json:"actor_id,omitempty"`
}

// LoadScenarioRequest loads a named demo scenario.
type LoadScenarioRequest struct {
	Name string `json:"name"`
}

// =============================================================================
// RESPONSE TYPES
// =============================================================================

type ObligationDTO struct {
	ID                  string           `json:"id"`
	BranchID            string           `json:"branch_id"`
	Variant             string           `json:"variant"`
	CounterpartyName    string           `json:"counterparty_name"`
	Description         string           `json:"description,omitempty"`
	PrincipalAmount     string           `json:"principal_amount"`
	DownPayment         string           `json:"down_payment"`
	InterestRatePercent string           `json:"interest_rate_percent"`
	InstallmentCount    int              `json:"installment_count"`
	StartDate           string           `json:"start_date"`
	Status              string           `json:"status"`
	Notes               string           `json:"notes,omitempty"`
	CreatedBy           string           `json:"created_by"`
	CreatedAt           string           `json:"created_at"`
	Installments        []InstallmentDTO `json:"installments"`
	Summary             *SummaryDTO      `json:"summary,omitempty"`
}

type InstallmentDTO struct {
	ID             string `json:"id"`
	Number         int    `json:"number"`
	DueDate        string `json:"due_date"`
	CapitalAmount  string `json:"capital_amount"`
	InterestAmount string `json:"interest_amount"`
	PaidAmount     string `json:"paid_amount"`
	Status         string `json:"status"`
	Overdue        bool   `json:"overdue"`
	PaidAt         string `json:"paid_at,omitempty"`
}

type SummaryDTO struct {
	TotalCapital        string `json:"total_capital"`
	TotalInterest       string `json:"total_interest"`
	TotalAmount         string `json:"total_amount"`
	PaidAmount          string `json:"paid_amount"`
	RemainingAmount     string `json:"remaining_amount"`
	PaidInstallments    int    `json:"paid_installments"`
	OverdueInstallments int    `json:"overdue_installments"`
	NextDueDate         string `json:"next_due_date,omitempty"`
}

type LedgerTransactionDTO struct {
	ID                  string `json:"id"`
	BranchID            string `json:"branch_id"`
	Type                string `json:"type"`
	Amount              string `json:"amount"`
	Concept             string `json:"concept"`
	CategoryGroup       string `json:"category_group"`
	AccrualDate         string `json:"accrual_date"`
	PaymentDate         string `json:"payment_date"`
	DocumentationStatus string `json:"documentation_status,omitempty"`
	PaymentOrigin       string `json:"payment_origin,omitempty"`
	RecordedBy          string `json:"recorded_by"`
	InstallmentID       string `json:"installment_id,omitempty"`
}

type PaymentResultDTO struct {
	Installment         InstallmentDTO         `json:"installment"`
	Postings            []LedgerTransactionDTO `json:"postings"`
	ObligationCompleted bool                   `json:"obligation_completed"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

const dateFormat = "2006-01-02"

func toObligationDTO(rec *obligation.ObligationRecord, today time.Time) ObligationDTO {
	ob := rec.Obligation
	dto := ObligationDTO{
		ID:                  string(ob.ID),
		BranchID:            ob.BranchID,
		Variant:             ob.Variant.VariantID(),
		CounterpartyName:    ob.CounterpartyName,
		Description:         ob.Description,
		PrincipalAmount:     ob.PrincipalAmount.StringFixed(2),
		DownPayment:         ob.DownPayment.StringFixed(2),
		InterestRatePercent: ob.InterestRatePercent.String(),
		InstallmentCount:    ob.InstallmentCount,
		StartDate:           ob.StartDate.Format(dateFormat),
		Status:              string(ob.Status),
		Notes:               ob.Notes,
		CreatedBy:           ob.CreatedBy,
		CreatedAt:           ob.CreatedAt.Format(time.RFC3339),
		Installments:        make([]InstallmentDTO, len(rec.Installments)),
	}
	for i := range rec.Installments {
		dto.Installments[i] = toInstallmentDTO(&rec.Installments[i], today)
	}

	summary := obligation.Summarize(rec, today)
	dto.Summary = toSummaryDTO(summary)
	return dto
}

func toInstallmentDTO(inst *obligation.Installment, today time.Time) InstallmentDTO {
	dto := InstallmentDTO{
		ID:             string(inst.ID),
		Number:         inst.Number,
		DueDate:        inst.DueDate.Format(dateFormat),
		CapitalAmount:  inst.CapitalAmount.StringFixed(2),
		InterestAmount: inst.InterestAmount.StringFixed(2),
		PaidAmount:     inst.PaidAmount.StringFixed(2),
		Status:         string(inst.Status),
		Overdue:        inst.IsOverdue(today),
	}
	if inst.PaidAt != nil {
		dto.PaidAt = inst.PaidAt.Format(time.RFC3339)
	}
	return dto
}

func toSummaryDTO(s obligation.Summary) *SummaryDTO {
	dto := &SummaryDTO{
		TotalCapital:        s.TotalCapital.StringFixed(2),
		TotalInterest:       s.TotalInterest.StringFixed(2),
		TotalAmount:         s.TotalAmount.StringFixed(2),
		PaidAmount:          s.PaidAmount.StringFixed(2),
		RemainingAmount:     s.RemainingAmount.StringFixed(2),
		PaidInstallments:    s.PaidInstallments,
		OverdueInstallments: s.OverdueInstallments,
	}
	if s.NextDue != nil {
		dto.NextDueDate = s.NextDue.DueDate.Format(dateFormat)
	}
	return dto
}

func toLedgerDTO(txn *obligation.LedgerTransaction) LedgerTransactionDTO {
	return LedgerTransactionDTO{
		ID:                  string(txn.ID),
		BranchID:            txn.BranchID,
		Type:                string(txn.Type),
		Amount:              txn.Amount.StringFixed(2),
		Concept:             txn.Concept,
		CategoryGroup:       txn.CategoryGroup,
		AccrualDate:         txn.AccrualDate.Format(dateFormat),
		PaymentDate:         txn.PaymentDate.Format(dateFormat),
		DocumentationStatus: txn.DocumentationStatus,
		PaymentOrigin:       txn.PaymentOrigin,
		RecordedBy:          txn.RecordedBy,
		InstallmentID:       string(txn.InstallmentID),
	}
}
