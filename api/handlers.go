/*
handlers.go - HTTP API handlers for the debt payoff service

PURPOSE:
  Exposes the payoff engine, recommendations, charts and guidance over a
  session-scoped REST API. Handles HTTP request/response, JSON
  serialization and validation, and delegates to the domain packages.

ENDPOINTS:
  Session:
    POST   /api/session                 Create session
    GET    /api/session/{sessionId}     Session summary

  Financial context:
    GET    /api/financial-context       Read
    POST   /api/financial-context       Validate and save

  Debts:
    GET    /api/debts                   List with aggregation
    POST   /api/debts                   Add one
    PUT    /api/debts/{id}              Replace one
    DELETE /api/debts/{id}              Remove one
    POST   /api/debts/upload            CSV import (multipart field "file")

  Payoff:
    POST   /api/payoff/simulate         One strategy at one budget
    POST   /api/payoff/compare          Every strategy, plus optional what-ifs

  Insight:
    GET    /api/recommendations         Sorted recommendations
    GET    /api/charts/data             Pie, line and bar datasets
    POST   /api/ai/guidance             Explanatory text

ARCHITECTURE:
  Handler holds every dependency; nothing is global:
  - Sessions:  session.Manager (expiry, serialized updates)
  - Rules:     recommend.Config loaded at startup
  - Guidance:  guidance.Provider (rules or Gemini)
  - Analytics: analytics.Tracker

REQUEST FLOW:
  1. requireSession loads the session into the request context
  2. Parse and validate input
  3. Reads use the loaded session; writes go through Sessions.Update
  4. Serialize response

ERROR HANDLING:
  Errors are returned as JSON {error, message, details} with status:
  - 400: Validation errors, invalid input
  - 401: Missing or expired session (middleware)
  - 404: Session or debt not found
  - 500: Internal errors (logged, details withheld)

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo datasets and their handlers
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pathlight/debt-engine/analytics"
	"github.com/pathlight/debt-engine/charts"
	"github.com/pathlight/debt-engine/guidance"
	"github.com/pathlight/debt-engine/importer"
	"github.com/pathlight/debt-engine/payoff"
	"github.com/pathlight/debt-engine/recommend"
	"github.com/pathlight/debt-engine/session"
	"github.com/shopspring/decimal"
)

const (
	dateLayout = "2006-01-02"

	// maxUploadSize bounds CSV uploads.
	maxUploadSize = 1 << 20
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Sessions  *session.Manager
	Rules     *recommend.Config
	Guidance  guidance.Provider
	Analytics *analytics.Tracker

	now func() time.Time
}

// NewHandler creates a handler. Nil rules, provider or tracker get defaults.
func NewHandler(sessions *session.Manager, rules *recommend.Config, provider guidance.Provider, tracker *analytics.Tracker) *Handler {
	if rules == nil {
		rules = recommend.Default()
	}
	if provider == nil {
		provider = guidance.Rules{}
	}
	if tracker == nil {
		tracker = analytics.NewTracker(analytics.DefaultCapacity)
	}
	return &Handler{
		Sessions:  sessions,
		Rules:     rules,
		Guidance:  provider,
		Analytics: tracker,
		now:       time.Now,
	}
}

// Health reports liveness and the number of stored sessions.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	n, err := h.Sessions.ActiveCount(r.Context())
	if err != nil {
		log.Printf("[API] health: counting sessions failed: %v", err)
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		Timestamp:      h.now().UTC().Format(time.RFC3339),
		ActiveSessions: n,
	})
}

// =============================================================================
// SESSION HANDLERS
// =============================================================================

// CreateSession starts a new anonymous session.
// POST /api/session
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.Create(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create session", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreateSessionResponse{
		SessionID: s.ID,
		Message:   "Session created successfully",
	})
}

// GetSession returns a session summary.
// GET /api/session/{sessionId}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.Sessions.Get(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		h.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(s))
}

// =============================================================================
// FINANCIAL CONTEXT HANDLERS
// =============================================================================

// GetFinancialContext returns the saved context, or null.
// GET /api/financial-context
func (h *Handler) GetFinancialContext(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)
	writeJSON(w, http.StatusOK, FinancialContextResponse{
		FinancialContext: toFinancialContextDTO(s.FinancialContext),
	})
}

// SaveFinancialContext validates and replaces the context.
// POST /api/financial-context
func (h *Handler) SaveFinancialContext(w http.ResponseWriter, r *http.Request) {
	var req FinancialContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	fc, err := parseFinancialContext(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid financial context data", err)
		return
	}

	_, err = h.Sessions.Update(r.Context(), currentSession(r).ID, func(s *session.Session) error {
		s.FinancialContext = fc
		return nil
	})
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, FinancialContextResponse{
		Message:          "Financial context saved successfully",
		FinancialContext: toFinancialContextDTO(fc),
	})
}

func parseFinancialContext(req FinancialContextRequest) (*payoff.FinancialContext, error) {
	if err := requireFields(
		namedValue{"monthly_income", req.MonthlyIncome},
		namedValue{"monthly_expenses", req.MonthlyExpenses},
		namedValue{"liquid_savings", req.LiquidSavings},
	); err != nil {
		return nil, err
	}

	fc := &payoff.FinancialContext{
		MonthlyIncome:     req.MonthlyIncome.Decimal,
		MonthlyExpenses:   req.MonthlyExpenses.Decimal,
		LiquidSavings:     req.LiquidSavings.Decimal,
		CreditScoreBand:   payoff.CreditBand(req.CreditScoreBand),
		PrimaryGoal:       payoff.Goal(req.PrimaryGoal),
		TimeHorizonMonths: req.TimeHorizonMonths,
		ZipCode:           req.ZipCode,
	}
	if err := payoff.ValidateContext(*fc); err != nil {
		return nil, err
	}
	return fc, nil
}

// =============================================================================
// DEBT HANDLERS
// =============================================================================

// ListDebts returns the session's debts with aggregate metrics.
// GET /api/debts
func (h *Handler) ListDebts(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)
	writeJSON(w, http.StatusOK, DebtsResponse{
		Debts:       toDebtDTOs(s.Debts),
		Aggregation: aggregation(s),
	})
}

// CreateDebt validates and appends a debt with a fresh ID.
// POST /api/debts
func (h *Handler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	debt, ok := decodeDebt(w, r)
	if !ok {
		return
	}
	debt.ID = uuid.NewString()

	s, err := h.Sessions.Update(r.Context(), currentSession(r).ID, func(s *session.Session) error {
		s.Debts = append(s.Debts, debt)
		return nil
	})
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	dto := toDebtDTO(debt)
	writeJSON(w, http.StatusCreated, DebtMutationResponse{
		Message:     "Debt added successfully",
		Debt:        &dto,
		Aggregation: aggregation(s),
	})
}

// UpdateDebt replaces a debt, keeping its ID and position.
// PUT /api/debts/{id}
func (h *Handler) UpdateDebt(w http.ResponseWriter, r *http.Request) {
	debt, ok := decodeDebt(w, r)
	if !ok {
		return
	}
	debt.ID = chi.URLParam(r, "id")

	s, err := h.Sessions.Update(r.Context(), currentSession(r).ID, func(s *session.Session) error {
		return s.ReplaceDebt(debt)
	})
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	dto := toDebtDTO(debt)
	writeJSON(w, http.StatusOK, DebtMutationResponse{
		Message:     "Debt updated successfully",
		Debt:        &dto,
		Aggregation: aggregation(s),
	})
}

// DeleteDebt removes a debt.
// DELETE /api/debts/{id}
func (h *Handler) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s, err := h.Sessions.Update(r.Context(), currentSession(r).ID, func(s *session.Session) error {
		return s.RemoveDebt(id)
	})
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DebtMutationResponse{
		Message:     "Debt deleted successfully",
		Aggregation: aggregation(s),
	})
}

// UploadDebts imports a CSV file. Valid rows are added, invalid rows are
// reported; a file with no valid row changes nothing and returns 400.
// POST /api/debts/upload
func (h *Handler) UploadDebts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "No file uploaded", "Please upload a CSV file", nil)
		return
	}
	defer file.Close()

	res, err := importer.Parse(file)
	if errors.Is(err, importer.ErrNoValidRows) {
		writeErrorMessage(w, http.StatusBadRequest, "No valid debts found",
			"The CSV file did not contain any valid debt records", res.Errors)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "CSV parsing error", err)
		return
	}

	s, err := h.Sessions.Update(r.Context(), currentSession(r).ID, func(s *session.Session) error {
		s.Debts = append(s.Debts, res.Accounts...)
		return nil
	})
	if err != nil {
		h.writeSessionError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		Message:     fmt.Sprintf("Successfully added %d debt(s)", len(res.Accounts)),
		AddedCount:  len(res.Accounts),
		ErrorCount:  len(res.Errors),
		Errors:      res.Errors,
		Aggregation: aggregation(s),
	})
}

// decodeDebt parses and validates a debt body, writing a 400 on failure.
func decodeDebt(w http.ResponseWriter, r *http.Request) (payoff.DebtAccount, bool) {
	var req DebtRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return payoff.DebtAccount{}, false
	}
	debt, err := parseDebt(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid debt data", err)
		return payoff.DebtAccount{}, false
	}
	return debt, true
}

func parseDebt(req DebtRequest) (payoff.DebtAccount, error) {
	if err := requireFields(
		namedValue{"balance", req.Balance},
		namedValue{"apr", req.APR},
		namedValue{"minimum_payment", req.MinimumPayment},
	); err != nil {
		return payoff.DebtAccount{}, err
	}

	debt := payoff.DebtAccount{
		Category:       payoff.Category(req.DebtType),
		Balance:        req.Balance.Decimal,
		AnnualRate:     req.APR.Decimal,
		MinimumPayment: req.MinimumPayment.Decimal,
		CreditLimit:    req.CreditLimit,
	}
	if req.NextPaymentDate != "" {
		due, err := time.Parse(dateLayout, req.NextPaymentDate)
		if err != nil {
			return payoff.DebtAccount{}, &payoff.FieldError{Field: "next_payment_date", Reason: "must be YYYY-MM-DD"}
		}
		debt.NextPaymentDate = &due
	}
	if err := payoff.ValidateAccount(debt); err != nil {
		return payoff.DebtAccount{}, err
	}
	return debt, nil
}

// =============================================================================
// PAYOFF HANDLERS
// =============================================================================

// SimulatePayoff runs one strategy at the requested budget.
// POST /api/payoff/simulate
func (h *Handler) SimulatePayoff(w http.ResponseWriter, r *http.Request) {
	var req SimulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	strategy, err := payoff.ParseStrategy(req.Strategy)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid simulation parameters", err)
		return
	}

	s := currentSession(r)
	debts, payment, ok := prepareRun(w, s, req.MonthlyPayment)
	if !ok {
		return
	}

	if strategy == payoff.Custom && len(req.Order) > 0 {
		debts, err = payoff.ApplyOrder(debts, req.Order)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid custom order", err)
			return
		}
	}

	result := payoff.Simulate(debts, payment, strategy)
	writeJSON(w, http.StatusOK, SimulateResponse{
		Scenario:       toPayoffScenarioDTO(result),
		Strategy:       string(strategy),
		MonthlyPayment: money(payment),
	})
}

// ComparePayoff runs every strategy at one budget, plus optional what-if budgets.
// POST /api/payoff/compare
func (h *Handler) ComparePayoff(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	whatIfStrategy := payoff.Avalanche
	if req.WhatIfStrategy != "" {
		st, err := payoff.ParseStrategy(req.WhatIfStrategy)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid comparison parameters", err)
			return
		}
		whatIfStrategy = st
	}

	s := currentSession(r)
	debts, payment, ok := prepareRun(w, s, req.MonthlyPayment)
	if !ok {
		return
	}
	for _, p := range req.WhatIfPayments {
		if err := payoff.ValidatePayment(debts, p); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid what-if payment", err)
			return
		}
	}

	comparisons := payoff.Compare(debts, payment, payoff.Strategies...)
	resp := CompareResponse{
		MonthlyPayment: money(payment),
		Strategies:     make([]StrategyComparisonDTO, len(comparisons)),
	}
	for i, c := range comparisons {
		resp.Strategies[i] = StrategyComparisonDTO{
			Strategy:          string(c.Strategy),
			PayoffInMonths:    c.Result.MonthsToPayoff,
			TotalInterestPaid: money(c.Result.TotalInterestPaid),
			PaidOff:           c.Result.PaidOff,
			InterestSaved:     money(c.InterestSaved),
			MonthsSaved:       c.MonthsSaved,
		}
	}
	if best, ok := payoff.Cheapest(comparisons); ok {
		resp.Cheapest = string(best.Strategy)
	}
	for _, sc := range payoff.WhatIf(debts, whatIfStrategy, req.WhatIfPayments...) {
		resp.WhatIf = append(resp.WhatIf, WhatIfDTO{
			MonthlyPayment:    money(sc.MonthlyPayment),
			PayoffInMonths:    sc.Result.MonthsToPayoff,
			TotalInterestPaid: money(sc.Result.TotalInterestPaid),
			PaidOff:           sc.Result.PaidOff,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// prepareRun checks the common preconditions of a simulation: a budget,
// at least one debt, and a budget covering every minimum payment.
func prepareRun(w http.ResponseWriter, s *session.Session, payment decimal.NullDecimal) ([]payoff.DebtAccount, decimal.Decimal, bool) {
	if !payment.Valid || payment.Decimal.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid simulation parameters",
			&payoff.FieldError{Field: "monthly_payment", Reason: "must be a number >= 0"})
		return nil, decimal.Zero, false
	}
	if len(s.Debts) == 0 {
		writeErrorMessage(w, http.StatusBadRequest, "No debts found",
			"Please add debts before running a simulation", nil)
		return nil, decimal.Zero, false
	}
	if err := payoff.ValidatePayment(s.Debts, payment.Decimal); err != nil {
		var ue *payoff.UnderfundedError
		errors.As(err, &ue)
		writeErrorMessage(w, http.StatusBadRequest, "Invalid monthly payment",
			fmt.Sprintf("Monthly payment must be at least $%s (total minimum payments)", ue.TotalMinimum.StringFixed(2)),
			errorDetails(err))
		return nil, decimal.Zero, false
	}
	return s.Debts, payment.Decimal, true
}

// =============================================================================
// INSIGHT HANDLERS
// =============================================================================

// GetRecommendations evaluates every rule against the session.
// GET /api/recommendations
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)
	if len(s.Debts) == 0 {
		writeJSON(w, http.StatusOK, RecommendationsResponse{
			Recommendations: []RecommendationDTO{},
			Message:         "Add debts to get personalized recommendations",
		})
		return
	}

	recs := recommend.Generate(s.Debts, s.FinancialContext, h.Rules)
	dtos := make([]RecommendationDTO, len(recs))
	for i, rec := range recs {
		dtos[i] = toRecommendationDTO(rec)
	}
	writeJSON(w, http.StatusOK, RecommendationsResponse{
		Recommendations: dtos,
		Count:           len(dtos),
	})
}

// GetChartData builds the dashboard datasets. With ?strategy= and
// ?monthly_payment= covering the minimums, the line and bar use that plan.
// GET /api/charts/data
func (h *Handler) GetChartData(w http.ResponseWriter, r *http.Request) {
	s := currentSession(r)

	var scenario *payoff.Result
	strategy, err := payoff.ParseStrategy(r.URL.Query().Get("strategy"))
	if err == nil {
		payment, perr := decimal.NewFromString(r.URL.Query().Get("monthly_payment"))
		if perr == nil && payment.IsPositive() && len(s.Debts) > 0 &&
			payoff.ValidatePayment(s.Debts, payment) == nil {
			result := payoff.Simulate(s.Debts, payment, strategy)
			scenario = &result
		}
	}

	writeJSON(w, http.StatusOK, charts.Build(s.Debts, scenario))
}

// GetGuidance returns explanatory text for the session.
// POST /api/ai/guidance
func (h *Handler) GetGuidance(w http.ResponseWriter, r *http.Request) {
	// Both fields are optional, so is the body.
	var req GuidanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	s := currentSession(r)
	greq := guidance.Request{
		Action:  req.Action,
		Debts:   s.Debts,
		Context: s.FinancialContext,
	}
	if sc := req.Scenario; sc != nil {
		greq.Scenario = &guidance.Scenario{
			Strategy:       sc.Strategy,
			MonthlyPayment: sc.MonthlyPayment,
			PayoffMonths:   sc.PayoffMonths,
		}
	}

	text, err := h.Guidance.Guidance(r.Context(), greq)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate guidance", err)
		return
	}
	writeJSON(w, http.StatusOK, GuidanceResponse{
		Guidance:  text,
		Timestamp: h.now().UTC().Format(time.RFC3339),
	})
}

// =============================================================================
// ANALYTICS HANDLERS
// =============================================================================

// TrackEvent records a dashboard event for the session.
// POST /api/analytics/track
func (h *Handler) TrackEvent(w http.ResponseWriter, r *http.Request) {
	var req TrackEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ev, err := h.Analytics.Track(currentSession(r).ID, req.EventType, req.EventData)
	if err != nil {
		writeError(w, http.StatusBadRequest, "event_type is required", err)
		return
	}
	writeJSON(w, http.StatusOK, TrackEventResponse{
		Message: "Event tracked successfully",
		EventID: ev.ID,
	})
}

// SessionEvents lists the events of the current session.
// GET /api/analytics/session
func (h *Handler) SessionEvents(w http.ResponseWriter, r *http.Request) {
	id := currentSession(r).ID
	events := h.Analytics.ForSession(id)
	writeJSON(w, http.StatusOK, SessionEventsResponse{
		SessionID: id,
		Events:    events,
		Count:     len(events),
	})
}

// AnalyticsSummary aggregates every retained event.
// GET /api/analytics/summary
func (h *Handler) AnalyticsSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Analytics.Summary())
}

// =============================================================================
// HELPERS
// =============================================================================

type namedValue struct {
	field string
	value decimal.NullDecimal
}

// requireFields reports the first absent field.
func requireFields(values ...namedValue) error {
	for _, v := range values {
		if !v.value.Valid {
			return &payoff.FieldError{Field: v.field, Reason: "is required"}
		}
	}
	return nil
}

func aggregation(s *session.Session) AggregationDTO {
	return toAggregationDTO(payoff.AggregateMetrics(s.Debts, s.FinancialContext.Income()))
}

// writeSessionError maps session and debt lookups to 404, invalid input to
// 400 and the rest to 500.
func (h *Handler) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case session.IsNotFound(err):
		writeErrorMessage(w, http.StatusNotFound, "Session not found",
			"Session does not exist or has expired", nil)
	case errors.Is(err, session.ErrDebtNotFound):
		writeErrorMessage(w, http.StatusNotFound, "Debt not found",
			"The debt you are trying to change does not exist", nil)
	case payoff.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Failed to save session", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes {error, message, details}. Client errors expose details;
// server errors are logged and answered without them.
func writeError(w http.ResponseWriter, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		log.Printf("[API] %s: %v", message, err)
		writeErrorMessage(w, status, http.StatusText(status), message, nil)
		return
	}
	var details any
	if err != nil {
		details = errorDetails(err)
	}
	writeErrorMessage(w, status, http.StatusText(status), message, details)
}

func writeErrorMessage(w http.ResponseWriter, status int, title, message string, details any) {
	writeJSON(w, status, ErrorResponse{Error: title, Message: message, Details: details})
}

// errorDetails turns known error types into structured JSON.
func errorDetails(err error) any {
	var fe *payoff.FieldError
	if errors.As(err, &fe) {
		return map[string]string{"field": fe.Field, "reason": fe.Reason}
	}
	var ue *payoff.UnderfundedError
	if errors.As(err, &ue) {
		return map[string]float64{
			"monthly_payment":       money(ue.Payment),
			"total_minimum_payment": money(ue.TotalMinimum),
		}
	}
	return err.Error()
}
