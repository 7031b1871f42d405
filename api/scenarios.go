/*
scenarios.go - Demo scenario loaders (dev only)

PURPOSE:
  Seeds an empty database with recognizable sample data so the
  back-office frontend has something to render during development.
  Each scenario is a named function that creates obligations through
  the real engine - the same code path production uses.

SCENARIOS:
  fresh-loan:      A 12-installment bank loan, nothing paid yet
  running-plan:    A supplier payment plan with a down payment and two
                   payments already applied
  historical-loan: A back-filled loan entered after 4 payments were made
                   outside the system (no ledger entries for those)

SEE ALSO:
  - handlers.go: ListScenarios / LoadScenario endpoints
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hoppiness/debt-engine/loan"
	"github.com/hoppiness/debt-engine/obligation"
	"github.com/hoppiness/debt-engine/paymentplan"
)

const scenarioActor = "demo-admin"

// ScenarioDTO describes an available demo scenario.
type ScenarioDTO struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var scenarios = []ScenarioDTO{
	{Name: "fresh-loan", Description: "A 12-installment bank loan with nothing paid yet"},
	{Name: "running-plan", Description: "A supplier payment plan with a down payment and two payments applied"},
	{Name: "historical-loan", Description: "A back-filled loan entered after 4 external payments"},
}

// ListScenarios returns the available demo scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario seeds the database with a named scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var (
		rec *obligation.ObligationRecord
		err error
	)
	switch req.Name {
	case "fresh-loan":
		rec, err = h.loadFreshLoan(r.Context())
	case "running-plan":
		rec, err = h.loadRunningPlan(r.Context())
	case "historical-loan":
		rec, err = h.loadHistoricalLoan(r.Context())
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("%q", req.Name))
		return
	}
	if err != nil {
		h.writeEngineError(w, "Failed to load scenario", err)
		return
	}

	h.Log.WithField("scenario", req.Name).Info("demo scenario loaded")
	writeJSON(w, http.StatusCreated, toObligationDTO(rec, h.Engine.Now()))
}

func (h *Handler) loadFreshLoan(ctx context.Context) (*obligation.ObligationRecord, error) {
	return h.Engine.CreateObligation(ctx, obligation.CreateParams{
		BranchID:         "branch-centro",
		Variant:          loan.Variant{},
		CounterpartyName: "Banco Provincia",
		Description:      "Kitchen refit loan",
		Schedule: obligation.ScheduleParams{
			Principal:   decimal.NewFromInt(120000),
			RatePercent: decimal.NewFromInt(10),
			Count:       12,
			StartDate:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		},
	}, scenarioActor)
}

func (h *Handler) loadRunningPlan(ctx context.Context) (*obligation.ObligationRecord, error) {
	rec, err := h.Engine.CreateObligation(ctx, obligation.CreateParams{
		BranchID:         "branch-centro",
		Variant:          paymentplan.Variant{},
		CounterpartyName: "Distribuidora Sur",
		Description:      "Beverage stock payment plan",
		Schedule: obligation.ScheduleParams{
			Principal:   decimal.NewFromInt(60000),
			DownPayment: decimal.NewFromInt(12000),
			RatePercent: decimal.NewFromInt(5),
			Count:       6,
			StartDate:   time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC),
		},
		PaymentOrigin: "bank_transfer",
	}, scenarioActor)
	if err != nil {
		return nil, err
	}

	// Pay the first installment in full and half of the second.
	first := rec.Installments[0]
	if _, err := h.Engine.ApplyPayment(ctx, obligation.PaymentRequest{
		InstallmentID:  first.ID,
		Amount:         first.Total(),
		PaymentOrigin:  "bank_transfer",
		IdempotencyKey: fmt.Sprintf("scenario/%s/1", rec.Obligation.ID),
	}, scenarioActor); err != nil {
		return nil, err
	}
	second := rec.Installments[1]
	if _, err := h.Engine.ApplyPayment(ctx, obligation.PaymentRequest{
		InstallmentID:  second.ID,
		Amount:         second.Total().Div(decimal.NewFromInt(2)).Round(2),
		PaymentOrigin:  "cash",
		IdempotencyKey: fmt.Sprintf("scenario/%s/2", rec.Obligation.ID),
	}, scenarioActor); err != nil {
		return nil, err
	}

	return h.Store.GetObligation(ctx, rec.Obligation.ID)
}

func (h *Handler) loadHistoricalLoan(ctx context.Context) (*obligation.ObligationRecord, error) {
	return h.Engine.CreateObligation(ctx, obligation.CreateParams{
		BranchID:         "branch-norte",
		Variant:          loan.Variant{},
		CounterpartyName: "Prestamista Díaz",
		Description:      "Working capital loan entered mid-life",
		Notes:            "First 4 installments paid before system adoption",
		Schedule: obligation.ScheduleParams{
			Principal:        decimal.NewFromInt(80000),
			RatePercent:      decimal.NewFromInt(8),
			Count:            10,
			StartDate:        time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC),
			AlreadyPaidCount: 4,
		},
	}, scenarioActor)
}
