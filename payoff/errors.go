/*
errors.go - Validation errors for payoff inputs

PURPOSE:
  The engine itself never fails: Simulate is total over its input space.
  Malformed input (negative balances, rates above 100, unknown enums) is
  rejected BEFORE it reaches the simulator, by the API and CSV layers, using
  the validators in this file.

ERROR CATEGORIES:
  1. Field errors - one bad field on an account or context (FieldError)
  2. Payment errors - budget below the sum of minimum payments

USAGE:
  if err := payoff.ValidateAccount(acct); err != nil {
      var fe *payoff.FieldError
      if errors.As(err, &fe) { ... fe.Field ... }
  }

SEE ALSO:
  - api/handlers.go: Maps these errors to 400 responses
  - importer/csv.go: Uses them for row validation
*/
package payoff

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidAccount is returned when a debt account fails validation.
	ErrInvalidAccount = errors.New("invalid debt account")

	// ErrInvalidContext is returned when a financial context fails validation.
	ErrInvalidContext = errors.New("invalid financial context")

	// ErrUnderfunded is returned by ValidatePayment when the budget does not
	// cover every minimum payment.
	ErrUnderfunded = errors.New("monthly payment below total minimum payments")

	// ErrInvalidStrategy is returned for unknown strategy names.
	ErrInvalidStrategy = errors.New("invalid strategy")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// FieldError names the offending field.
type FieldError struct {
	Field  string
	Reason string
	kind   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return e.kind
}

// UnderfundedError carries the shortfall.
type UnderfundedError struct {
	Payment      decimal.Decimal
	TotalMinimum decimal.Decimal
}

func (e *UnderfundedError) Error() string {
	return fmt.Sprintf("monthly payment %s is below total minimum payments %s",
		e.Payment.StringFixed(2), e.TotalMinimum.StringFixed(2))
}

func (e *UnderfundedError) Unwrap() error {
	return ErrUnderfunded
}

// =============================================================================
// VALIDATORS
// =============================================================================

var hundred = decimal.NewFromInt(100)

// ValidateAccount checks ranges and enum membership of a debt account.
func ValidateAccount(a DebtAccount) error {
	bad := func(field, reason string) error {
		return &FieldError{Field: field, Reason: reason, kind: ErrInvalidAccount}
	}
	if !a.Category.Valid() {
		return bad("category", fmt.Sprintf("unknown category %q", a.Category))
	}
	if a.Balance.IsNegative() {
		return bad("balance", "must be >= 0")
	}
	if a.AnnualRate.IsNegative() || a.AnnualRate.GreaterThan(hundred) {
		return bad("annual_rate", "must be between 0 and 100")
	}
	if a.MinimumPayment.IsNegative() {
		return bad("minimum_payment", "must be >= 0")
	}
	if a.CreditLimit.Valid && a.CreditLimit.Decimal.IsNegative() {
		return bad("credit_limit", "must be >= 0")
	}
	return nil
}

// ValidateContext checks ranges and enum membership of a financial context.
func ValidateContext(fc FinancialContext) error {
	bad := func(field, reason string) error {
		return &FieldError{Field: field, Reason: reason, kind: ErrInvalidContext}
	}
	if fc.MonthlyIncome.IsNegative() {
		return bad("monthly_income", "must be >= 0")
	}
	if fc.MonthlyExpenses.IsNegative() {
		return bad("monthly_expenses", "must be >= 0")
	}
	if fc.LiquidSavings.IsNegative() {
		return bad("liquid_savings", "must be >= 0")
	}
	if !fc.CreditScoreBand.Valid() {
		return bad("credit_score_band", fmt.Sprintf("unknown band %q", fc.CreditScoreBand))
	}
	if !fc.PrimaryGoal.Valid() {
		return bad("primary_goal", fmt.Sprintf("unknown goal %q", fc.PrimaryGoal))
	}
	if fc.TimeHorizonMonths != nil && *fc.TimeHorizonMonths < 0 {
		return bad("time_horizon_months", "must be >= 0")
	}
	return nil
}

// ValidatePayment rejects a budget that cannot cover every minimum payment.
// Simulate accepts such budgets; callers that want strict behavior call this first.
func ValidatePayment(accounts []DebtAccount, monthlyPayment decimal.Decimal) error {
	total := TotalMinimumPayment(accounts)
	if monthlyPayment.LessThan(total) {
		return &UnderfundedError{Payment: monthlyPayment, TotalMinimum: total}
	}
	return nil
}

// ParseStrategy converts a name into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	st := Strategy(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStrategy, s)
	}
	return st, nil
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAccount) ||
		errors.Is(err, ErrInvalidContext) ||
		errors.Is(err, ErrUnderfunded) ||
		errors.Is(err, ErrInvalidStrategy)
}
