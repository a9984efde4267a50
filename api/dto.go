/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the domain model (payoff, recommend, session) from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

NUMBERS:
  Requests take decimal.Decimal / decimal.NullDecimal, which accept both
  JSON numbers and numeric strings and keep every digit the client sent.
  A NullDecimal that is not Valid was absent (or null) in the body.
  Responses carry float64 rounded to cents (rates to 2 decimals), which is
  what the dashboard charts and formats.

VALIDATION:
  Validation is done in handlers via payoff.ValidateAccount and
  payoff.ValidateContext, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/pathlight/debt-engine/analytics"
	"github.com/pathlight/debt-engine/charts"
	"github.com/pathlight/debt-engine/importer"
	"github.com/pathlight/debt-engine/payoff"
	"github.com/pathlight/debt-engine/recommend"
	"github.com/pathlight/debt-engine/session"
	"github.com/shopspring/decimal"
)

// =============================================================================
// SESSION
// =============================================================================

// CreateSessionResponse is returned by POST /api/session.
type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// SessionDTO summarizes a session without its contents.
type SessionDTO struct {
	SessionID           string `json:"session_id"`
	CreatedAt           string `json:"created_at"`
	LastAccessedAt      string `json:"last_accessed_at"`
	HasFinancialContext bool   `json:"has_financial_context"`
	DebtCount           int    `json:"debt_count"`
}

func toSessionDTO(s *session.Session) SessionDTO {
	return SessionDTO{
		SessionID:           s.ID,
		CreatedAt:           s.CreatedAt.Format(time.RFC3339),
		LastAccessedAt:      s.LastAccessedAt.Format(time.RFC3339),
		HasFinancialContext: s.FinancialContext != nil,
		DebtCount:           len(s.Debts),
	}
}

// =============================================================================
// FINANCIAL CONTEXT
// =============================================================================

// FinancialContextRequest is the body of POST /api/financial-context.
type FinancialContextRequest struct {
	ZipCode           string              `json:"zip_code"`
	MonthlyIncome     decimal.NullDecimal `json:"monthly_income"`
	MonthlyExpenses   decimal.NullDecimal `json:"monthly_expenses"`
	LiquidSavings     decimal.NullDecimal `json:"liquid_savings"`
	CreditScoreBand   string              `json:"credit_score_band"`
	PrimaryGoal       string              `json:"primary_goal"`
	TimeHorizonMonths *int                `json:"time_horizon_months"`
}

// FinancialContextDTO is the stored context.
type FinancialContextDTO struct {
	ZipCode           string  `json:"zip_code,omitempty"`
	MonthlyIncome     float64 `json:"monthly_income"`
	MonthlyExpenses   float64 `json:"monthly_expenses"`
	LiquidSavings     float64 `json:"liquid_savings"`
	CreditScoreBand   string  `json:"credit_score_band"`
	PrimaryGoal       string  `json:"primary_goal"`
	TimeHorizonMonths *int    `json:"time_horizon_months,omitempty"`
}

// FinancialContextResponse wraps the context; null when none was saved.
type FinancialContextResponse struct {
	Message          string               `json:"message,omitempty"`
	FinancialContext *FinancialContextDTO `json:"financial_context"`
}

func toFinancialContextDTO(fc *payoff.FinancialContext) *FinancialContextDTO {
	if fc == nil {
		return nil
	}
	return &FinancialContextDTO{
		ZipCode:           fc.ZipCode,
		MonthlyIncome:     money(fc.MonthlyIncome),
		MonthlyExpenses:   money(fc.MonthlyExpenses),
		LiquidSavings:     money(fc.LiquidSavings),
		CreditScoreBand:   string(fc.CreditScoreBand),
		PrimaryGoal:       string(fc.PrimaryGoal),
		TimeHorizonMonths: fc.TimeHorizonMonths,
	}
}

// =============================================================================
// DEBTS
// =============================================================================

// DebtRequest is the body of POST /api/debts and PUT /api/debts/{id}.
type DebtRequest struct {
	DebtType        string              `json:"debt_type"`
	Balance         decimal.NullDecimal `json:"balance"`
	APR             decimal.NullDecimal `json:"apr"`
	MinimumPayment  decimal.NullDecimal `json:"minimum_payment"`
	CreditLimit     decimal.NullDecimal `json:"credit_limit"`
	NextPaymentDate string              `json:"next_payment_date"` // YYYY-MM-DD
}

// DebtDTO is one debt in responses.
type DebtDTO struct {
	ID              string   `json:"id"`
	DebtType        string   `json:"debt_type"`
	Balance         float64  `json:"balance"`
	APR             float64  `json:"apr"`
	MinimumPayment  float64  `json:"minimum_payment"`
	CreditLimit     *float64 `json:"credit_limit,omitempty"`
	NextPaymentDate string   `json:"next_payment_date,omitempty"`
}

// AggregationDTO is payoff.Aggregate for display.
type AggregationDTO struct {
	TotalDebt           float64 `json:"total_debt"`
	AverageAPR          float64 `json:"average_apr"`
	DTI                 float64 `json:"dti"`
	TotalMinimumPayment float64 `json:"total_minimum_payment"`
	UtilizationRate     float64 `json:"utilization_rate"`
	NumberOfAccounts    int     `json:"number_of_accounts"`
}

// DebtsResponse is returned by GET /api/debts.
type DebtsResponse struct {
	Debts       []DebtDTO      `json:"debts"`
	Aggregation AggregationDTO `json:"aggregation"`
}

// DebtMutationResponse is returned after add, update or delete.
type DebtMutationResponse struct {
	Message     string         `json:"message"`
	Debt        *DebtDTO       `json:"debt,omitempty"`
	Aggregation AggregationDTO `json:"aggregation"`
}

// UploadResponse is returned by POST /api/debts/upload.
type UploadResponse struct {
	Message     string              `json:"message"`
	AddedCount  int                 `json:"added_count"`
	ErrorCount  int                 `json:"error_count"`
	Errors      []importer.RowError `json:"errors,omitempty"`
	Aggregation AggregationDTO      `json:"aggregation"`
}

func toDebtDTO(d payoff.DebtAccount) DebtDTO {
	dto := DebtDTO{
		ID:             d.ID,
		DebtType:       string(d.Category),
		Balance:        money(d.Balance),
		APR:            money(d.AnnualRate),
		MinimumPayment: money(d.MinimumPayment),
	}
	if d.CreditLimit.Valid {
		limit := money(d.CreditLimit.Decimal)
		dto.CreditLimit = &limit
	}
	if d.NextPaymentDate != nil {
		dto.NextPaymentDate = d.NextPaymentDate.Format(dateLayout)
	}
	return dto
}

func toDebtDTOs(debts []payoff.DebtAccount) []DebtDTO {
	dtos := make([]DebtDTO, len(debts))
	for i, d := range debts {
		dtos[i] = toDebtDTO(d)
	}
	return dtos
}

func toAggregationDTO(a payoff.Aggregate) AggregationDTO {
	return AggregationDTO{
		TotalDebt:           money(a.TotalDebt),
		AverageAPR:          money(a.AverageRate),
		DTI:                 money(a.DebtToIncome),
		TotalMinimumPayment: money(a.TotalMinimumPayment),
		UtilizationRate:     money(a.UtilizationRate),
		NumberOfAccounts:    a.NumberOfAccounts,
	}
}

// =============================================================================
// PAYOFF
// =============================================================================

// SimulateRequest is the body of POST /api/payoff/simulate.
type SimulateRequest struct {
	Strategy       string              `json:"strategy"`
	MonthlyPayment decimal.NullDecimal `json:"monthly_payment"`

	// Order lists debt IDs for the custom strategy. Debts not listed keep
	// their session order after the listed ones.
	Order []string `json:"order,omitempty"`
}

// CompareRequest is the body of POST /api/payoff/compare.
type CompareRequest struct {
	MonthlyPayment decimal.NullDecimal `json:"monthly_payment"`

	// WhatIfPayments are extra budgets to simulate with WhatIfStrategy
	// (default avalanche).
	WhatIfPayments []decimal.Decimal `json:"what_if_payments,omitempty"`
	WhatIfStrategy string            `json:"what_if_strategy,omitempty"`
}

// DebtMonthDTO is one debt in one month of the breakdown.
type DebtMonthDTO struct {
	ID      string  `json:"id"`
	Balance float64 `json:"balance"`
	Payment float64 `json:"payment"`
}

// MonthBreakdownDTO is one month of the breakdown.
type MonthBreakdownDTO struct {
	Month int            `json:"month"`
	Debts []DebtMonthDTO `json:"debts"`
}

// PayoffScenarioDTO is a full simulation result.
type PayoffScenarioDTO struct {
	PayoffInMonths    int                 `json:"payoff_in_months"`
	TotalInterestPaid float64             `json:"total_interest_paid"`
	PaidOff           bool                `json:"paid_off"`
	ChartData         []charts.Point      `json:"chart_data"`
	MonthlyBreakdown  []MonthBreakdownDTO `json:"monthly_breakdown"`
}

// SimulateResponse is returned by POST /api/payoff/simulate.
type SimulateResponse struct {
	Scenario       PayoffScenarioDTO `json:"scenario"`
	Strategy       string            `json:"strategy"`
	MonthlyPayment float64           `json:"monthly_payment"`
}

// StrategyComparisonDTO is one strategy's run in a comparison.
type StrategyComparisonDTO struct {
	Strategy          string  `json:"strategy"`
	PayoffInMonths    int     `json:"payoff_in_months"`
	TotalInterestPaid float64 `json:"total_interest_paid"`
	PaidOff           bool    `json:"paid_off"`
	InterestSaved     float64 `json:"interest_saved"`
	MonthsSaved       int     `json:"months_saved"`
}

// WhatIfDTO is one candidate budget's run.
type WhatIfDTO struct {
	MonthlyPayment    float64 `json:"monthly_payment"`
	PayoffInMonths    int     `json:"payoff_in_months"`
	TotalInterestPaid float64 `json:"total_interest_paid"`
	PaidOff           bool    `json:"paid_off"`
}

// CompareResponse is returned by POST /api/payoff/compare.
type CompareResponse struct {
	MonthlyPayment float64                 `json:"monthly_payment"`
	Strategies     []StrategyComparisonDTO `json:"strategies"`
	Cheapest       string                  `json:"cheapest,omitempty"`
	WhatIf         []WhatIfDTO             `json:"what_if,omitempty"`
}

func toPayoffScenarioDTO(r payoff.Result) PayoffScenarioDTO {
	breakdown := make([]MonthBreakdownDTO, len(r.Ledger))
	for i, m := range r.Ledger {
		debts := make([]DebtMonthDTO, len(m.Entries))
		for j, e := range m.Entries {
			debts[j] = DebtMonthDTO{
				ID:      e.AccountID,
				Balance: money(e.RemainingBalance),
				Payment: money(e.PaymentApplied),
			}
		}
		breakdown[i] = MonthBreakdownDTO{Month: m.Month, Debts: debts}
	}
	return PayoffScenarioDTO{
		PayoffInMonths:    r.MonthsToPayoff,
		TotalInterestPaid: money(r.TotalInterestPaid),
		PaidOff:           r.PaidOff,
		ChartData:         charts.Line(&r),
		MonthlyBreakdown:  breakdown,
	}
}

// =============================================================================
// RECOMMENDATIONS
// =============================================================================

// RecommendationDTO is one recommendation.
type RecommendationDTO struct {
	Type              string   `json:"type"`
	DebtIDs           []string `json:"debt_ids"`
	Description       string   `json:"description"`
	EstimatedSavings  float64  `json:"estimated_savings"`
	NewMonthlyPayment float64  `json:"new_monthly_payment"`
	FitScore          string   `json:"fit_score"`
	Reasoning         string   `json:"reasoning"`
}

// RecommendationsResponse is returned by GET /api/recommendations.
type RecommendationsResponse struct {
	Recommendations []RecommendationDTO `json:"recommendations"`
	Count           int                 `json:"count"`
	Message         string              `json:"message,omitempty"`
}

func toRecommendationDTO(r recommend.Recommendation) RecommendationDTO {
	return RecommendationDTO{
		Type:              string(r.Kind),
		DebtIDs:           r.AccountIDs,
		Description:       r.Description,
		EstimatedSavings:  money(r.EstimatedSavings),
		NewMonthlyPayment: money(r.NewMonthlyPayment),
		FitScore:          string(r.Fit),
		Reasoning:         r.Reasoning,
	}
}

// =============================================================================
// GUIDANCE
// =============================================================================

// GuidanceRequest is the body of POST /api/ai/guidance. Both fields are optional.
type GuidanceRequest struct {
	Action   string `json:"action"`
	Scenario *struct {
		Strategy       string          `json:"strategy"`
		MonthlyPayment decimal.Decimal `json:"monthly_payment"`
		PayoffMonths   int             `json:"payoff_months"`
	} `json:"scenario"`
}

// GuidanceResponse is returned by POST /api/ai/guidance.
type GuidanceResponse struct {
	Guidance  string `json:"guidance"`
	Timestamp string `json:"timestamp"`
}

// =============================================================================
// DEMO SCENARIOS
// =============================================================================

// DemoScenarioDTO describes a demo dataset.
type DemoScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadDemoRequest is the body of POST /api/demo/load. Empty loads the default dataset.
type LoadDemoRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// LoadDemoResponse is returned by POST /api/demo/load.
type LoadDemoResponse struct {
	Message          string               `json:"message"`
	ScenarioID       string               `json:"scenario_id"`
	FinancialContext *FinancialContextDTO `json:"financial_context"`
	DebtsCount       int                  `json:"debts_count"`
}

// =============================================================================
// ANALYTICS
// =============================================================================

// TrackEventRequest is the body of POST /api/analytics/track.
type TrackEventRequest struct {
	EventType string         `json:"event_type"`
	EventData map[string]any `json:"event_data"`
}

// TrackEventResponse is returned by POST /api/analytics/track.
type TrackEventResponse struct {
	Message string `json:"message"`
	EventID int64  `json:"event_id"`
}

// SessionEventsResponse is returned by GET /api/analytics/session.
type SessionEventsResponse struct {
	SessionID string            `json:"session_id"`
	Events    []analytics.Event `json:"events"`
	Count     int               `json:"count"`
}

// =============================================================================
// COMMON
// =============================================================================

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status         string `json:"status"`
	Timestamp      string `json:"timestamp"`
	ActiveSessions int    `json:"active_sessions"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// money rounds to cents for display.
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
