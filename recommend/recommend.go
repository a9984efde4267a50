/*
Package recommend produces debt-relief suggestions from a user's accounts.

PURPOSE:
  Looks at the debts and financial context of a session and proposes
  structural changes the payoff simulator cannot model on its own:
  consolidating cards into a loan, a promo balance transfer, negotiated
  settlement, or refinancing a large loan.

KEY CONCEPTS:
  - Evaluator: One rule. IsApplicable is the cheap gate, Evaluate builds
    the Recommendation (or nil when the detailed check fails)
  - Fit: low/medium/high classification of the estimated savings
  - Config: Every threshold, injected per call (see config.go)

ESTIMATED SAVINGS (simplified on purpose):
  (current monthly interest - projected monthly interest) * period months
  minus one-time fees, floored at zero.

ORDERING:
  Evaluators run independently of each other. Generate sorts the output by
  fit (high first), then by savings (largest first). Ties keep evaluator
  order.

USAGE:
  cfg, _, err := recommend.LoadOrDefault(path)
  recs := recommend.Generate(accounts, fc, cfg)

SEE ALSO:
  - rules.go: The four evaluators
  - config.go: Thresholds and YAML loading
*/
package recommend

import (
	"sort"

	"github.com/pathlight/debt-engine/payoff"
	"github.com/shopspring/decimal"
)

// Kind identifies the evaluator that produced a recommendation.
type Kind string

const (
	KindConsolidation   Kind = "consolidate"
	KindBalanceTransfer Kind = "balance_transfer"
	KindSettlement      Kind = "settle"
	KindRefinance       Kind = "refinance"
)

// Fit is how well a recommendation suits the user.
type Fit string

const (
	FitLow    Fit = "low"
	FitMedium Fit = "medium"
	FitHigh   Fit = "high"
)

func (f Fit) rank() int {
	switch f {
	case FitHigh:
		return 3
	case FitMedium:
		return 2
	case FitLow:
		return 1
	}
	return 0
}

// Recommendation is one suggestion.
type Recommendation struct {
	Kind              Kind
	AccountIDs        []string
	Description       string
	EstimatedSavings  decimal.Decimal
	NewMonthlyPayment decimal.Decimal
	Fit               Fit
	Reasoning         string
}

// Evaluator is one recommendation rule. fc may be nil; evaluators that need
// a financial context report not applicable.
type Evaluator interface {
	Kind() Kind
	IsApplicable(accounts []payoff.DebtAccount, fc *payoff.FinancialContext, cfg *Config) bool
	Evaluate(accounts []payoff.DebtAccount, fc *payoff.FinancialContext, cfg *Config) *Recommendation
}

// Evaluators returns the built-in rules in their tie-break order.
func Evaluators() []Evaluator {
	return []Evaluator{
		Consolidation{},
		BalanceTransfer{},
		Settlement{},
		Refinance{},
	}
}

// Generate runs every built-in evaluator. A nil cfg means Default().
func Generate(accounts []payoff.DebtAccount, fc *payoff.FinancialContext, cfg *Config) []Recommendation {
	return Run(Evaluators(), accounts, fc, cfg)
}

// Run evaluates a custom rule list and sorts the results.
func Run(evaluators []Evaluator, accounts []payoff.DebtAccount, fc *payoff.FinancialContext, cfg *Config) []Recommendation {
	if cfg == nil {
		cfg = Default()
	}

	out := []Recommendation{}
	for _, e := range evaluators {
		if !e.IsApplicable(accounts, fc, cfg) {
			continue
		}
		if rec := e.Evaluate(accounts, fc, cfg); rec != nil {
			out = append(out, *rec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].Fit.rank(), out[j].Fit.rank()
		if ri != rj {
			return ri > rj
		}
		return out[i].EstimatedSavings.GreaterThan(out[j].EstimatedSavings)
	})
	return out
}

// Classify maps estimated savings onto a fit. The high tier can be limited
// to one credit band; users outside it top out at medium.
func (t FitThresholds) Classify(savings decimal.Decimal, band payoff.CreditBand) Fit {
	if savings.GreaterThanOrEqual(t.High.SavingsMin) {
		req := t.High.CreditScoreRequirement
		if req == "" || req == band {
			return FitHigh
		}
		return FitMedium
	}
	if savings.GreaterThanOrEqual(t.Medium.SavingsMin) {
		return FitMedium
	}
	return FitLow
}
