/*
simulate.go - Multi-debt amortization simulator

PURPOSE:
  Amortizes several debts month by month under one monthly budget and a
  prioritization strategy. Produces the full schedule: per-month aggregate
  balance, cumulative interest, and a ledger of what each account received.

MONTHLY STEP (interest first, then payments):
  1. Accrue:   balance += balance * rate / 1200 on every active account
  2. Reorder:  avalanche = rate desc, snowball = balance asc, custom = as given
               (re-evaluated every month since balances change)
  3. Minimums: pay min(minimum, balance, budget) in priority order
  4. Extra:    pay min(balance, budget) in priority order to accounts
               still above Epsilon (the "waterfall")
  5. Retire:   accounts at or below Epsilon leave the active set
  6. Record:   timeline sample + ledger entries

TERMINATION:
  Stops when aggregate balance <= Epsilon (paid off) or after MaxMonths
  (600). Hitting the ceiling is not an error: the result carries
  MonthsToPayoff = 600 and PaidOff = false.

DEGENERATE INPUT:
  No accounts, or a budget <= 0, returns an empty Result immediately.

UNDERFUNDED BUDGETS:
  A budget below the sum of minimums is accepted. Later-priority accounts
  receive less than their minimum (or nothing) and may grow. Callers that
  want strict behavior call ValidatePayment first.

NUMERICS:
  decimal.Decimal throughout. Interest division rounds to
  decimal.DivisionPrecision digits, which keeps every balance at bounded
  precision and makes runs reproducible bit for bit.

EXAMPLE:
  A: 1000 @ 24% (min 50), B: 500 @ 12% (min 25), budget 200, avalanche
  Month 1: interest 20 + 5; A pays 50 + 125 = 175 -> 845; B pays 25 -> 480

SEE ALSO:
  - metrics.go: MonthlyInterest
  - compare.go: Runs several simulations side by side
*/
package payoff

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// ErrUnknownAccount is returned by ApplyOrder for IDs not in the account list.
var ErrUnknownAccount = errors.New("unknown account")

// Simulate runs the amortization loop. It never mutates accounts.
func Simulate(accounts []DebtAccount, monthlyPayment decimal.Decimal, strategy Strategy) Result {
	if len(accounts) == 0 || !monthlyPayment.IsPositive() {
		return Result{TotalInterestPaid: decimal.Zero}
	}

	// Private working copy. Anything already retired never enters the loop.
	working := CloneAccounts(accounts)
	active := make([]*DebtAccount, 0, len(working))
	for i := range working {
		if working[i].Balance.GreaterThan(Epsilon) {
			active = append(active, &working[i])
		}
	}

	totalInterest := decimal.Zero
	timeline := []TimelinePoint{{
		Month:              0,
		AggregateBalance:   sumBalances(active),
		CumulativeInterest: decimal.Zero,
	}}
	var ledger []MonthLedger

	month := 0
	for sumBalances(active).GreaterThan(Epsilon) && month < MaxMonths {
		month++

		// 1. Accrue
		for _, a := range active {
			interest := MonthlyInterest(a.Balance, a.AnnualRate)
			a.Balance = a.Balance.Add(interest)
			totalInterest = totalInterest.Add(interest)
		}

		// 2. Reorder
		prioritize(active, strategy)

		// 3. Minimums, then 4. extra to the top of the order
		paid := make([]decimal.Decimal, len(active))
		for i := range paid {
			paid[i] = decimal.Zero
		}
		budget := monthlyPayment
		for i, a := range active {
			if !budget.IsPositive() {
				break
			}
			pay := decimal.Min(a.MinimumPayment, a.Balance, budget)
			if !pay.IsPositive() {
				continue
			}
			a.Balance = a.Balance.Sub(pay)
			budget = budget.Sub(pay)
			paid[i] = paid[i].Add(pay)
		}
		for i, a := range active {
			if !budget.IsPositive() {
				break
			}
			if a.Balance.LessThanOrEqual(Epsilon) {
				continue
			}
			pay := decimal.Min(a.Balance, budget)
			a.Balance = a.Balance.Sub(pay)
			budget = budget.Sub(pay)
			paid[i] = paid[i].Add(pay)
		}

		// 6. Ledger covers every account active this month, including those
		// retired by this month's payments.
		entries := make([]LedgerEntry, len(active))
		for i, a := range active {
			entries[i] = LedgerEntry{
				AccountID:        a.ID,
				RemainingBalance: a.Balance,
				PaymentApplied:   paid[i],
			}
		}
		ledger = append(ledger, MonthLedger{Month: month, Entries: entries})

		// 5. Retire
		active = retire(active)

		timeline = append(timeline, TimelinePoint{
			Month:              month,
			AggregateBalance:   sumBalances(active),
			CumulativeInterest: totalInterest,
		})
	}

	return Result{
		MonthsToPayoff:    month,
		TotalInterestPaid: totalInterest,
		Timeline:          timeline,
		Ledger:            ledger,
		PaidOff:           sumBalances(active).LessThanOrEqual(Epsilon),
	}
}

// prioritize sorts active accounts in place. Stable, so ties keep the
// previous month's order.
func prioritize(active []*DebtAccount, strategy Strategy) {
	switch strategy {
	case Avalanche:
		sort.SliceStable(active, func(i, j int) bool {
			return active[i].AnnualRate.GreaterThan(active[j].AnnualRate)
		})
	case Snowball:
		sort.SliceStable(active, func(i, j int) bool {
			return active[i].Balance.LessThan(active[j].Balance)
		})
	}
}

func retire(active []*DebtAccount) []*DebtAccount {
	kept := active[:0]
	for _, a := range active {
		if a.Balance.GreaterThan(Epsilon) {
			kept = append(kept, a)
		}
	}
	return kept
}

func sumBalances(active []*DebtAccount) decimal.Decimal {
	total := decimal.Zero
	for _, a := range active {
		total = total.Add(a.Balance)
	}
	return total
}

// ApplyOrder returns a copy of accounts with the listed IDs first, in the
// given order, followed by the rest in their original order. Used to feed
// the Custom strategy.
func ApplyOrder(accounts []DebtAccount, ids []string) ([]DebtAccount, error) {
	byID := make(map[string]int, len(accounts))
	for i, a := range accounts {
		byID[a.ID] = i
	}

	used := make(map[int]bool, len(ids))
	out := make([]DebtAccount, 0, len(accounts))
	for _, id := range ids {
		i, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownAccount, id)
		}
		if used[i] {
			continue
		}
		used[i] = true
		out = append(out, accounts[i].Clone())
	}
	for i, a := range accounts {
		if !used[i] {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}
