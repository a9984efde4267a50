/*
scenarios.go - Demo datasets for trying the dashboard without real data

PURPOSE:
  Provides named, realistic portfolios that replace the contents of the
  caller's session: a financial context plus a set of debts. Each load
  assigns fresh debt IDs and sets next payment dates relative to today.

AVAILABLE SCENARIOS:
  classic:       Two cards, a personal loan and a car loan (default)
  card-heavy:    Four high-APR cards near their limits
  student-loans: Federal and private student loans plus one card
  underwater:    Minimums eat most of the income, poor credit

USAGE VIA API:
  GET  /api/demo/scenarios
  POST /api/demo/load
  {"scenario_id": "card-heavy"}

ADDING NEW SCENARIOS:
 1. Add an entry to demoScenarios with ID, name, description
 2. Fill in its context and debts

NOTE:
  Loading replaces the session's context and debts.

SEE ALSO:
  - handlers.go: Session-scoped handlers
*/
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pathlight/debt-engine/payoff"
	"github.com/pathlight/debt-engine/session"
	"github.com/shopspring/decimal"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

// DefaultDemoScenario is loaded when no scenario_id is given.
const DefaultDemoScenario = "classic"

type demoDebt struct {
	category  payoff.Category
	balance   string
	apr       string
	minimum   string
	limit     string // empty for no limit
	dueInDays int
}

type demoScenario struct {
	DemoScenarioDTO
	context payoff.FinancialContext
	debts   []demoDebt
}

func horizon(months int) *int { return &months }

var demoScenarios = []demoScenario{
	{
		DemoScenarioDTO: DemoScenarioDTO{
			ID:          "classic",
			Name:        "Classic Mix",
			Description: "Two credit cards, a personal loan and an auto loan on a steady income",
		},
		context: payoff.FinancialContext{
			ZipCode:           "10001",
			MonthlyIncome:     decimal.NewFromInt(5500),
			MonthlyExpenses:   decimal.NewFromInt(3500),
			LiquidSavings:     decimal.NewFromInt(5000),
			CreditScoreBand:   payoff.CreditGood,
			PrimaryGoal:       payoff.GoalPayFaster,
			TimeHorizonMonths: horizon(36),
		},
		debts: []demoDebt{
			{payoff.CategoryCreditCard, "8500", "22.5", "250", "10000", 15},
			{payoff.CategoryCreditCard, "3200", "19.9", "120", "5000", 20},
			{payoff.CategoryPersonalLoan, "12000", "15.5", "350", "", 10},
			{payoff.CategoryAutoLoan, "18500", "6.9", "420", "", 5},
		},
	},
	{
		DemoScenarioDTO: DemoScenarioDTO{
			ID:          "card-heavy",
			Name:        "Card Heavy",
			Description: "Four high-APR cards close to their limits",
		},
		context: payoff.FinancialContext{
			ZipCode:           "60614",
			MonthlyIncome:     decimal.NewFromInt(4800),
			MonthlyExpenses:   decimal.NewFromInt(3100),
			LiquidSavings:     decimal.NewFromInt(1500),
			CreditScoreBand:   payoff.CreditFair,
			PrimaryGoal:       payoff.GoalReduceInterest,
			TimeHorizonMonths: horizon(48),
		},
		debts: []demoDebt{
			{payoff.CategoryCreditCard, "6200", "26.99", "186", "7000", 3},
			{payoff.CategoryCreditCard, "4100", "24.49", "123", "4500", 9},
			{payoff.CategoryCreditCard, "2750", "21.99", "83", "3000", 14},
			{payoff.CategoryCreditCard, "980", "18.9", "35", "1500", 22},
		},
	},
	{
		DemoScenarioDTO: DemoScenarioDTO{
			ID:          "student-loans",
			Name:        "Student Loans",
			Description: "Recent graduate with federal and private student loans",
		},
		context: payoff.FinancialContext{
			ZipCode:           "94110",
			MonthlyIncome:     decimal.NewFromInt(6200),
			MonthlyExpenses:   decimal.NewFromInt(3900),
			LiquidSavings:     decimal.NewFromInt(8000),
			CreditScoreBand:   payoff.CreditExcellent,
			PrimaryGoal:       payoff.GoalLowerPayment,
			TimeHorizonMonths: horizon(120),
		},
		debts: []demoDebt{
			{payoff.CategoryStudentLoan, "27000", "5.5", "290", "", 12},
			{payoff.CategoryStudentLoan, "18000", "11.5", "260", "", 12},
			{payoff.CategoryCreditCard, "1400", "23.99", "45", "6000", 18},
		},
	},
	{
		DemoScenarioDTO: DemoScenarioDTO{
			ID:          "underwater",
			Name:        "Underwater",
			Description: "Minimum payments take most of the income; settlement territory",
		},
		context: payoff.FinancialContext{
			ZipCode:         "33101",
			MonthlyIncome:   decimal.NewFromInt(3200),
			MonthlyExpenses: decimal.NewFromInt(2600),
			LiquidSavings:   decimal.NewFromInt(300),
			CreditScoreBand: payoff.CreditPoor,
			PrimaryGoal:     payoff.GoalAvoidDefault,
		},
		debts: []demoDebt{
			{payoff.CategoryCreditCard, "9800", "29.99", "320", "10000", 2},
			{payoff.CategoryCreditCard, "5400", "27.49", "180", "5500", 7},
			{payoff.CategoryPersonalLoan, "7500", "24", "310", "", 11},
			{payoff.CategoryOther, "2100", "0", "150", "", 25},
		},
	},
}

func findDemoScenario(id string) (demoScenario, bool) {
	for _, s := range demoScenarios {
		if s.ID == id {
			return s, true
		}
	}
	return demoScenario{}, false
}

// build materializes the scenario with fresh IDs and due dates from today.
func (s demoScenario) build(now time.Time) (*payoff.FinancialContext, []payoff.DebtAccount) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	debts := make([]payoff.DebtAccount, len(s.debts))
	for i, d := range s.debts {
		due := today.AddDate(0, 0, d.dueInDays)
		debts[i] = payoff.DebtAccount{
			ID:              uuid.NewString(),
			Category:        d.category,
			Balance:         decimal.RequireFromString(d.balance),
			AnnualRate:      decimal.RequireFromString(d.apr),
			MinimumPayment:  decimal.RequireFromString(d.minimum),
			NextPaymentDate: &due,
		}
		if d.limit != "" {
			debts[i].CreditLimit = decimal.NewNullDecimal(decimal.RequireFromString(d.limit))
		}
	}
	return s.context.Clone(), debts
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListDemoScenarios lists the available datasets.
// GET /api/demo/scenarios
func (h *Handler) ListDemoScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]DemoScenarioDTO, len(demoScenarios))
	for i, s := range demoScenarios {
		dtos[i] = s.DemoScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadDemoScenario replaces the session's context and debts with a dataset.
// POST /api/demo/load
func (h *Handler) LoadDemoScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadDemoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ScenarioID == "" {
		req.ScenarioID = DefaultDemoScenario
	}

	scenario, ok := findDemoScenario(req.ScenarioID)
	if !ok {
		writeErrorMessage(w, http.StatusNotFound, "Scenario not found",
			"Unknown demo scenario: "+req.ScenarioID, nil)
		return
	}

	fc, debts := scenario.build(h.now())
	_, err := h.Sessions.Update(r.Context(), currentSession(r).ID, func(s *session.Session) error {
		s.FinancialContext = fc
		s.Debts = debts
		return nil
	})
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LoadDemoResponse{
		Message:          "Demo dataset loaded successfully",
		ScenarioID:       scenario.ID,
		FinancialContext: toFinancialContextDTO(fc),
		DebtsCount:       len(debts),
	})
}
