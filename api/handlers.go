/*
handlers.go - HTTP API handlers for the debt engine

PURPOSE:
  Exposes the obligation engine via REST. Handles HTTP request/response,
  JSON serialization, and delegates to the engine.

ENDPOINTS:
  Obligations:
    POST   /api/obligations                   Create loan / payment plan
    GET    /api/obligations?branch_id=X       List with installments
    GET    /api/obligations/{id}              Get with installments + summary
    POST   /api/obligations/{id}/cancel       Flag cancelled
    POST   /api/obligations/{id}/default      Flag defaulted

  Installments:
    POST   /api/installments/{id}/payments    Apply a payment
    PUT    /api/installments/{id}/due-date    Move a pending due date

  Ledger:
    GET    /api/branches/{branchID}/ledger    Bookkeeping entries read-back

  Scenarios:
    GET    /api/scenarios                     List demo scenarios
    POST   /api/scenarios/load                Load a demo scenario (dev)

ACTOR IDENTITY:
  Mutating endpoints require the acting user, from the request body's
  actor_id or the X-Actor-ID header. It is threaded explicitly into the
  engine, never ambient.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Obligation/installment not found
  - 409: Overpayment, inactive obligation, duplicate payment, write conflict
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - sweeper.go: Background completion sweep
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/hoppiness/debt-engine/obligation"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  obligation.TxStore
	Engine *obligation.Engine
	Log    *logrus.Logger
}

// NewHandler creates a new handler over the given store.
func NewHandler(store obligation.TxStore, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Store:  store,
		Engine: obligation.NewEngine(store),
		Log:    log,
	}
}

// =============================================================================
// OBLIGATION HANDLERS
// =============================================================================

// CreateObligation creates a loan or payment plan with its full schedule.
// POST /api/obligations
func (h *Handler) CreateObligation(w http.ResponseWriter, r *http.Request) {
	var req CreateObligationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	variant := obligation.LookupVariant(req.Variant)
	if variant == nil {
		writeError(w, http.StatusBadRequest, "Unknown variant", errors.New(req.Variant))
		return
	}

	principal, err := parseAmount(req.PrincipalAmount, "principal_amount")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	downPayment := decimal.Zero
	if req.DownPayment != "" {
		if downPayment, err = parseAmount(req.DownPayment, "down_payment"); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid amount", err)
			return
		}
	}
	rate := decimal.Zero
	if req.InterestRatePercent != "" {
		if rate, err = parseAmount(req.InterestRatePercent, "interest_rate_percent"); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid rate", err)
			return
		}
	}
	startDate, err := time.ParseInLocation(dateFormat, req.StartDate, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}

	rec, err := h.Engine.CreateObligation(r.Context(), obligation.CreateParams{
		BranchID:         req.BranchID,
		Variant:          variant,
		CounterpartyName: req.CounterpartyName,
		Description:      req.Description,
		Notes:            req.Notes,
		Schedule: obligation.ScheduleParams{
			Principal:        principal,
			DownPayment:      downPayment,
			RatePercent:      rate,
			Count:            req.InstallmentCount,
			StartDate:        startDate,
			AlreadyPaidCount: req.AlreadyPaidCount,
		},
		PaymentOrigin:       req.PaymentOrigin,
		DocumentationStatus: req.DocumentationStatus,
	}, actorID(r, req.ActorID))
	if err != nil {
		h.writeEngineError(w, "Failed to create obligation", err)
		return
	}

	h.Log.WithFields(logrus.Fields{
		"obligation_id": rec.Obligation.ID,
		"branch_id":     rec.Obligation.BranchID,
		"variant":       rec.Obligation.Variant.VariantID(),
		"installments":  len(rec.Installments),
	}).Info("obligation created")

	writeJSON(w, http.StatusCreated, toObligationDTO(rec, h.Engine.Now()))
}

// ListObligations returns all obligations for a branch.
// GET /api/obligations?branch_id=X
func (h *Handler) ListObligations(w http.ResponseWriter, r *http.Request) {
	branchID := r.URL.Query().Get("branch_id")
	if branchID == "" {
		writeError(w, http.StatusBadRequest, "branch_id is required", nil)
		return
	}

	records, err := h.Store.ListObligations(r.Context(), branchID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list obligations", err)
		return
	}

	today := h.Engine.Now()
	dtos := make([]ObligationDTO, len(records))
	for i := range records {
		dtos[i] = toObligationDTO(&records[i], today)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetObligation returns one obligation with installments and summary.
// GET /api/obligations/{id}
func (h *Handler) GetObligation(w http.ResponseWriter, r *http.Request) {
	id := obligation.ObligationID(chi.URLParam(r, "id"))

	rec, err := h.Store.GetObligation(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, "Failed to get obligation", err)
		return
	}
	writeJSON(w, http.StatusOK, toObligationDTO(rec, h.Engine.Now()))
}

// CancelObligation flags an active obligation as cancelled.
// POST /api/obligations/{id}/cancel
func (h *Handler) CancelObligation(w http.ResponseWriter, r *http.Request) {
	h.flagObligation(w, r, h.Engine.Cancel)
}

// DefaultObligation flags an active obligation as defaulted.
// POST /api/obligations/{id}/default
func (h *Handler) DefaultObligation(w http.ResponseWriter, r *http.Request) {
	h.flagObligation(w, r, h.Engine.MarkDefaulted)
}

func (h *Handler) flagObligation(w http.ResponseWriter, r *http.Request,
	flag func(ctx context.Context, id obligation.ObligationID, actorID string) error) {
	id := obligation.ObligationID(chi.URLParam(r, "id"))

	var req ActorRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	if err := flag(r.Context(), id, actorID(r, req.ActorID)); err != nil {
		h.writeEngineError(w, "Failed to update obligation status", err)
		return
	}

	rec, err := h.Store.GetObligation(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, "Failed to get obligation", err)
		return
	}
	writeJSON(w, http.StatusOK, toObligationDTO(rec, h.Engine.Now()))
}

// =============================================================================
// INSTALLMENT HANDLERS
// =============================================================================

// ApplyPayment applies one payment to one installment.
// POST /api/installments/{id}/payments
func (h *Handler) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	id := obligation.InstallmentID(chi.URLParam(r, "id"))

	var req ApplyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	amount, err := parseAmount(req.Amount, "amount")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}
	var paymentDate time.Time
	if req.PaymentDate != "" {
		if paymentDate, err = time.ParseInLocation(dateFormat, req.PaymentDate, time.UTC); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid payment_date", err)
			return
		}
	}

	result, err := h.Engine.ApplyPayment(r.Context(), obligation.PaymentRequest{
		InstallmentID:       id,
		Amount:              amount,
		PaymentDate:         paymentDate,
		PaymentOrigin:       req.PaymentOrigin,
		DocumentationStatus: req.DocumentationStatus,
		IdempotencyKey:      req.IdempotencyKey,
	}, actorID(r, req.ActorID))
	if err != nil {
		h.writeEngineError(w, "Failed to apply payment", err)
		return
	}

	h.Log.WithFields(logrus.Fields{
		"installment_id": id,
		"amount":         amount.StringFixed(2),
		"postings":       len(result.Postings),
		"completed":      result.ObligationCompleted,
	}).Info("payment applied")

	dto := PaymentResultDTO{
		Installment:         toInstallmentDTO(&result.Installment, h.Engine.Now()),
		Postings:            make([]LedgerTransactionDTO, len(result.Postings)),
		ObligationCompleted: result.ObligationCompleted,
	}
	for i := range result.Postings {
		dto.Postings[i] = toLedgerDTO(&result.Postings[i])
	}
	writeJSON(w, http.StatusOK, dto)
}

// EditDueDate moves a pending installment's due date.
// PUT /api/installments/{id}/due-date
func (h *Handler) EditDueDate(w http.ResponseWriter, r *http.Request) {
	id := obligation.InstallmentID(chi.URLParam(r, "id"))

	var req EditDueDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	newDate, err := time.ParseInLocation(dateFormat, req.DueDate, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid due_date", err)
		return
	}

	inst, err := h.Engine.EditDueDate(r.Context(), id, newDate, actorID(r, req.ActorID))
	if err != nil {
		h.writeEngineError(w, "Failed to edit due date", err)
		return
	}
	writeJSON(w, http.StatusOK, toInstallmentDTO(inst, h.Engine.Now()))
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// ListLedger returns the bookkeeping entries produced for a branch.
// GET /api/branches/{branchID}/ledger
func (h *Handler) ListLedger(w http.ResponseWriter, r *http.Request) {
	branchID := chi.URLParam(r, "branchID")

	txns, err := h.Store.ListLedgerTransactions(r.Context(), branchID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list ledger transactions", err)
		return
	}

	dtos := make([]LedgerTransactionDTO, len(txns))
	for i := range txns {
		dtos[i] = toLedgerDTO(&txns[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

// actorID resolves the acting user: explicit body field first, then the
// X-Actor-ID header. The engine rejects mutations with no actor.
func actorID(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return r.Header.Get("X-Actor-ID")
}

func parseAmount(s, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &obligation.ValidationError{Field: field, Reason: "not a decimal amount"}
	}
	return d, nil
}

// writeEngineError maps engine errors onto HTTP statuses.
func (h *Handler) writeEngineError(w http.ResponseWriter, message string, err error) {
	switch {
	case obligation.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, obligation.ErrValidation):
		writeError(w, http.StatusBadRequest, message, err)
	case obligation.IsClientError(err) || obligation.IsRetryable(err):
		writeError(w, http.StatusConflict, message, err)
	default:
		h.Log.WithError(err).Error(message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
