/*
compare.go - Side-by-side simulations

PURPOSE:
  Answers "which strategy?" and "what if I paid more?" by running several
  independent simulations. Each run reads the shared input and owns its
  own working copy, so runs execute in parallel goroutines without locks.

WORST CASE:
  One run is bounded by MaxMonths * len(accounts) steps; a comparison
  spawns one goroutine per requested run.

SEE ALSO:
  - simulate.go: The simulator
  - api/handlers.go: POST /api/payoff/compare
  - cmd/server: `pathlight compare`
*/
package payoff

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Comparison is one strategy's run.
type Comparison struct {
	Strategy Strategy
	Result   Result

	// InterestSaved is relative to the most expensive run in the set.
	InterestSaved decimal.Decimal

	// MonthsSaved is relative to the slowest run in the set.
	MonthsSaved int
}

// Scenario is one candidate payment's run.
type Scenario struct {
	MonthlyPayment decimal.Decimal
	Result         Result
}

// Compare simulates each strategy at the same budget. With no strategies it
// compares avalanche and snowball. Results keep the order of strategies.
func Compare(accounts []DebtAccount, monthlyPayment decimal.Decimal, strategies ...Strategy) []Comparison {
	if len(strategies) == 0 {
		strategies = []Strategy{Avalanche, Snowball}
	}

	out := make([]Comparison, len(strategies))
	var wg sync.WaitGroup
	for i, s := range strategies {
		wg.Add(1)
		go func(i int, s Strategy) {
			defer wg.Done()
			out[i] = Comparison{Strategy: s, Result: Simulate(accounts, monthlyPayment, s)}
		}(i, s)
	}
	wg.Wait()

	worstInterest := decimal.Zero
	worstMonths := 0
	for _, c := range out {
		worstInterest = decimal.Max(worstInterest, c.Result.TotalInterestPaid)
		if c.Result.MonthsToPayoff > worstMonths {
			worstMonths = c.Result.MonthsToPayoff
		}
	}
	for i := range out {
		out[i].InterestSaved = worstInterest.Sub(out[i].Result.TotalInterestPaid)
		out[i].MonthsSaved = worstMonths - out[i].Result.MonthsToPayoff
	}
	return out
}

// Cheapest returns the comparison with the least interest. Ties go to the
// faster payoff, then to the earlier entry.
func Cheapest(comparisons []Comparison) (Comparison, bool) {
	if len(comparisons) == 0 {
		return Comparison{}, false
	}
	best := comparisons[0]
	for _, c := range comparisons[1:] {
		ci, bi := c.Result.TotalInterestPaid, best.Result.TotalInterestPaid
		if ci.LessThan(bi) || (ci.Equal(bi) && c.Result.MonthsToPayoff < best.Result.MonthsToPayoff) {
			best = c
		}
	}
	return best, true
}

// WhatIf simulates one strategy at several budgets. Results keep the order
// of payments.
func WhatIf(accounts []DebtAccount, strategy Strategy, payments ...decimal.Decimal) []Scenario {
	out := make([]Scenario, len(payments))
	var wg sync.WaitGroup
	for i, p := range payments {
		wg.Add(1)
		go func(i int, p decimal.Decimal) {
			defer wg.Done()
			out[i] = Scenario{MonthlyPayment: p, Result: Simulate(accounts, p, strategy)}
		}(i, p)
	}
	wg.Wait()
	return out
}
