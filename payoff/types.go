/*
Package payoff provides the debt payoff engine.

PURPOSE:
  This package contains the domain types and algorithms for paying down a
  set of debts: aggregate metrics (total debt, weighted APR, DTI,
  utilization) and a month-by-month amortization simulator that allocates a
  fixed monthly budget across accounts under a prioritization strategy.

KEY CONCEPTS IN THIS FILE (types.go):
  - DebtAccount: One owed balance (card, loan, ...)
  - FinancialContext: Income, expenses and credit profile of the user
  - Strategy: Per-month prioritization rule (avalanche, snowball, custom)
  - Result: Schedule produced by Simulate

DESIGN PRINCIPLES:
  1. Precision: Money and rates use decimal.Decimal, never float64
  2. Ownership: The simulator clones its input and never mutates caller data
  3. Totality: Simulate always returns a Result, degenerate or not
  4. Reproducibility: Same input, same output, down to the last digit

USAGE:
  accounts := []payoff.DebtAccount{
      {ID: "card-1", Category: payoff.CategoryCreditCard,
       Balance: payoff.Money(1000), AnnualRate: payoff.Money(24),
       MinimumPayment: payoff.Money(50)},
  }
  result := payoff.Simulate(accounts, payoff.Money(200), payoff.Avalanche)

SEE ALSO:
  - metrics.go: Aggregate metrics
  - simulate.go: Amortization simulator
  - compare.go: Strategy and payment comparisons
*/
package payoff

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// Epsilon is the balance at or below which an account counts as paid off.
var Epsilon = decimal.New(1, -2)

// MaxMonths is the simulation ceiling (50 years).
const MaxMonths = 600

// Money converts a float literal into a decimal amount.
// Intended for constants and tests; parse user input with decimal.NewFromString.
func Money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// =============================================================================
// DEBT ACCOUNT
// =============================================================================

// Category is the closed set of debt kinds.
type Category string

const (
	CategoryCreditCard   Category = "credit_card"
	CategoryPersonalLoan Category = "personal_loan"
	CategoryStudentLoan  Category = "student_loan"
	CategoryAutoLoan     Category = "auto_loan"
	CategoryOther        Category = "other"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryCreditCard,
	CategoryPersonalLoan,
	CategoryStudentLoan,
	CategoryAutoLoan,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// DisplayName returns the human label used by charts and guidance.
func (c Category) DisplayName() string {
	switch c {
	case CategoryCreditCard:
		return "Credit Card"
	case CategoryPersonalLoan:
		return "Personal Loan"
	case CategoryStudentLoan:
		return "Student Loan"
	case CategoryAutoLoan:
		return "Auto Loan"
	case CategoryOther:
		return "Other"
	}
	return string(c)
}

// DebtAccount is one owed balance.
type DebtAccount struct {
	ID             string          `json:"id"`
	Category       Category        `json:"category"`
	Balance        decimal.Decimal `json:"balance"`
	AnnualRate     decimal.Decimal `json:"annual_rate"` // percent, 0-100
	MinimumPayment decimal.Decimal `json:"minimum_payment"`

	// CreditLimit is only meaningful for revolving accounts.
	CreditLimit decimal.NullDecimal `json:"credit_limit"`

	// NextPaymentDate is informational; the simulator ignores it.
	NextPaymentDate *time.Time `json:"next_payment_date,omitempty"`
}

// Clone returns a copy that shares no mutable state with a.
func (a DebtAccount) Clone() DebtAccount {
	c := a
	if a.NextPaymentDate != nil {
		d := *a.NextPaymentDate
		c.NextPaymentDate = &d
	}
	return c
}

// CloneAccounts copies a slice of accounts.
func CloneAccounts(accounts []DebtAccount) []DebtAccount {
	if accounts == nil {
		return nil
	}
	out := make([]DebtAccount, len(accounts))
	for i, a := range accounts {
		out[i] = a.Clone()
	}
	return out
}

// =============================================================================
// FINANCIAL CONTEXT
// =============================================================================

// CreditBand is a coarse credit score range.
type CreditBand string

const (
	CreditPoor      CreditBand = "poor"
	CreditFair      CreditBand = "fair"
	CreditGood      CreditBand = "good"
	CreditExcellent CreditBand = "excellent"
)

// Valid reports whether b is a known band.
func (b CreditBand) Valid() bool {
	switch b {
	case CreditPoor, CreditFair, CreditGood, CreditExcellent:
		return true
	}
	return false
}

// Goal is what the user wants out of a payoff plan.
type Goal string

const (
	GoalPayFaster      Goal = "pay_faster"
	GoalReduceInterest Goal = "reduce_interest"
	GoalLowerPayment   Goal = "lower_payment"
	GoalAvoidDefault   Goal = "avoid_default"
)

// Valid reports whether g is a known goal.
func (g Goal) Valid() bool {
	switch g {
	case GoalPayFaster, GoalReduceInterest, GoalLowerPayment, GoalAvoidDefault:
		return true
	}
	return false
}

// FinancialContext is the per-session picture of the user's finances.
type FinancialContext struct {
	MonthlyIncome     decimal.Decimal `json:"monthly_income"`
	MonthlyExpenses   decimal.Decimal `json:"monthly_expenses"`
	LiquidSavings     decimal.Decimal `json:"liquid_savings"`
	CreditScoreBand   CreditBand      `json:"credit_score_band"`
	PrimaryGoal       Goal            `json:"primary_goal"`
	TimeHorizonMonths *int            `json:"time_horizon_months,omitempty"`
	ZipCode           string          `json:"zip_code,omitempty"`
}

// Income returns the monthly income, or zero for a nil context.
func (fc *FinancialContext) Income() decimal.Decimal {
	if fc == nil {
		return decimal.Zero
	}
	return fc.MonthlyIncome
}

// Clone returns a deep copy of fc.
func (fc *FinancialContext) Clone() *FinancialContext {
	if fc == nil {
		return nil
	}
	c := *fc
	if fc.TimeHorizonMonths != nil {
		h := *fc.TimeHorizonMonths
		c.TimeHorizonMonths = &h
	}
	return &c
}

// =============================================================================
// STRATEGY
// =============================================================================

// Strategy decides which account gets paid first each month.
type Strategy string

const (
	Avalanche Strategy = "avalanche" // highest rate first
	Snowball  Strategy = "snowball"  // smallest balance first
	Custom    Strategy = "custom"    // caller order, never reordered
)

// Strategies lists every strategy.
var Strategies = []Strategy{Avalanche, Snowball, Custom}

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	switch s {
	case Avalanche, Snowball, Custom:
		return true
	}
	return false
}

// =============================================================================
// SIMULATION RESULT
// =============================================================================

// TimelinePoint is one monthly sample of the aggregate schedule.
type TimelinePoint struct {
	Month              int
	AggregateBalance   decimal.Decimal
	CumulativeInterest decimal.Decimal
}

// LedgerEntry is what happened to one account in one month.
type LedgerEntry struct {
	AccountID        string
	RemainingBalance decimal.Decimal
	PaymentApplied   decimal.Decimal
}

// MonthLedger groups the entries of a month in priority order.
type MonthLedger struct {
	Month   int
	Entries []LedgerEntry
}

// TotalPaid sums the payments applied this month.
func (m MonthLedger) TotalPaid() decimal.Decimal {
	total := decimal.Zero
	for _, e := range m.Entries {
		total = total.Add(e.PaymentApplied)
	}
	return total
}

// Entry returns the entry for an account, if present.
func (m MonthLedger) Entry(accountID string) (LedgerEntry, bool) {
	for _, e := range m.Entries {
		if e.AccountID == accountID {
			return e, true
		}
	}
	return LedgerEntry{}, false
}

// Result is the output of one simulation run.
type Result struct {
	MonthsToPayoff    int
	TotalInterestPaid decimal.Decimal
	Timeline          []TimelinePoint
	Ledger            []MonthLedger

	// PaidOff is false when the run hit MaxMonths with balance remaining,
	// and for degenerate runs that simulated nothing.
	PaidOff bool
}

// FinalBalance is the aggregate balance of the last timeline sample.
func (r Result) FinalBalance() decimal.Decimal {
	if len(r.Timeline) == 0 {
		return decimal.Zero
	}
	return r.Timeline[len(r.Timeline)-1].AggregateBalance
}

// PayoffMonth returns the month an account was retired, or 0 if it never was.
func (r Result) PayoffMonth(accountID string) int {
	for _, m := range r.Ledger {
		if e, ok := m.Entry(accountID); ok && e.RemainingBalance.LessThanOrEqual(Epsilon) {
			return m.Month
		}
	}
	return 0
}
