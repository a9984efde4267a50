package payoff_test

import (
	"testing"

	"github.com/pathlight/debt-engine/payoff"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func acct(id string, cat payoff.Category, balance, rate, minimum float64) payoff.DebtAccount {
	return payoff.DebtAccount{
		ID:             id,
		Category:       cat,
		Balance:        payoff.Money(balance),
		AnnualRate:     payoff.Money(rate),
		MinimumPayment: payoff.Money(minimum),
	}
}

// seedAccounts is the two-account household used across the simulator tests.
func seedAccounts() []payoff.DebtAccount {
	return []payoff.DebtAccount{
		acct("A", payoff.CategoryCreditCard, 1000, 24, 50),
		acct("B", payoff.CategoryPersonalLoan, 500, 12, 25),
	}
}

func assertMoney(t *testing.T, want float64, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(payoff.Money(want)), "want %v, got %s", want, got.String())
}

func entry(t *testing.T, m payoff.MonthLedger, id string) payoff.LedgerEntry {
	t.Helper()
	e, ok := m.Entry(id)
	require.True(t, ok, "month %d has no entry for %s", m.Month, id)
	return e
}

// =============================================================================
// SEED SCENARIO
// =============================================================================

func TestSimulate_Avalanche_FirstMonth(t *testing.T) {
	// GIVEN: A(1000 @ 24%, min 50), B(500 @ 12%, min 25), budget 200
	// WHEN: Simulating with avalanche
	// THEN: Month 1 accrues 25 interest, A gets min + all extra, B gets min

	result := payoff.Simulate(seedAccounts(), payoff.Money(200), payoff.Avalanche)

	require.NotEmpty(t, result.Ledger)
	m1 := result.Ledger[0]
	assert.Equal(t, 1, m1.Month)
	require.Len(t, m1.Entries, 2)
	assert.Equal(t, "A", m1.Entries[0].AccountID, "highest rate first")

	a := entry(t, m1, "A")
	assertMoney(t, 175, a.PaymentApplied)
	assertMoney(t, 845, a.RemainingBalance)

	b := entry(t, m1, "B")
	assertMoney(t, 25, b.PaymentApplied)
	assertMoney(t, 480, b.RemainingBalance)

	require.GreaterOrEqual(t, len(result.Timeline), 2)
	assertMoney(t, 1500, result.Timeline[0].AggregateBalance)
	assertMoney(t, 0, result.Timeline[0].CumulativeInterest)
	assertMoney(t, 1325, result.Timeline[1].AggregateBalance)
	assertMoney(t, 25, result.Timeline[1].CumulativeInterest)

	assert.True(t, result.PaidOff)
	assert.Less(t, result.MonthsToPayoff, payoff.MaxMonths)
	assert.Len(t, result.Timeline, result.MonthsToPayoff+1)
	assert.Len(t, result.Ledger, result.MonthsToPayoff)
}

func TestSimulate_Snowball_SmallestBalanceFirst(t *testing.T) {
	// GIVEN: The seed accounts, budget 200
	// WHEN: Simulating with snowball
	// THEN: B (smaller balance) receives the extra in month 1

	result := payoff.Simulate(seedAccounts(), payoff.Money(200), payoff.Snowball)

	m1 := result.Ledger[0]
	assert.Equal(t, "B", m1.Entries[0].AccountID)

	b := entry(t, m1, "B")
	assertMoney(t, 150, b.PaymentApplied)
	assertMoney(t, 355, b.RemainingBalance)

	a := entry(t, m1, "A")
	assertMoney(t, 50, a.PaymentApplied)
	assertMoney(t, 970, a.RemainingBalance)

	assertMoney(t, 1325, result.Timeline[1].AggregateBalance)
}

func TestSimulate_Custom_KeepsCallerOrder(t *testing.T) {
	// GIVEN: Seed accounts reordered B, A
	// WHEN: Simulating with custom
	// THEN: B is paid first even though A has the higher rate

	ordered, err := payoff.ApplyOrder(seedAccounts(), []string{"B", "A"})
	require.NoError(t, err)

	result := payoff.Simulate(ordered, payoff.Money(200), payoff.Custom)

	for _, m := range result.Ledger {
		if len(m.Entries) == 2 {
			assert.Equal(t, "B", m.Entries[0].AccountID, "month %d", m.Month)
		}
	}
	assertMoney(t, 355, entry(t, result.Ledger[0], "B").RemainingBalance)
}

// =============================================================================
// ZERO CASES AND EDGES
// =============================================================================

func TestSimulate_ZeroCases(t *testing.T) {
	// GIVEN: No accounts, or a budget that is zero or negative
	// WHEN: Simulating
	// THEN: Empty result, no timeline, no ledger

	cases := []struct {
		name     string
		accounts []payoff.DebtAccount
		payment  decimal.Decimal
	}{
		{"no accounts", nil, payoff.Money(200)},
		{"zero payment", seedAccounts(), decimal.Zero},
		{"negative payment", seedAccounts(), payoff.Money(-50)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := payoff.Simulate(tc.accounts, tc.payment, payoff.Avalanche)
			assert.Equal(t, 0, result.MonthsToPayoff)
			assert.True(t, result.TotalInterestPaid.IsZero())
			assert.Empty(t, result.Timeline)
			assert.Empty(t, result.Ledger)
			assert.False(t, result.PaidOff)
		})
	}
}

func TestSimulate_AlreadyPaidAccountsAreSkipped(t *testing.T) {
	// GIVEN: One zero-balance account and one real debt
	// WHEN: Simulating
	// THEN: The zero-balance account never appears in the ledger

	accounts := []payoff.DebtAccount{
		acct("done", payoff.CategoryOther, 0, 10, 10),
		acct("open", payoff.CategoryOther, 100, 0, 10),
	}
	result := payoff.Simulate(accounts, payoff.Money(50), payoff.Avalanche)

	for _, m := range result.Ledger {
		_, ok := m.Entry("done")
		assert.False(t, ok, "month %d", m.Month)
	}
	assert.Equal(t, 2, result.MonthsToPayoff)
}

func TestSimulate_ZeroRate_NoInterest(t *testing.T) {
	// GIVEN: 1000 at 0%, min 100, budget 100
	// WHEN: Simulating
	// THEN: Exactly 10 months, no interest

	accounts := []payoff.DebtAccount{acct("x", payoff.CategoryPersonalLoan, 1000, 0, 100)}
	result := payoff.Simulate(accounts, payoff.Money(100), payoff.Snowball)

	assert.Equal(t, 10, result.MonthsToPayoff)
	assert.True(t, result.TotalInterestPaid.IsZero())
	assert.True(t, result.PaidOff)
	assert.Equal(t, 10, result.PayoffMonth("x"))
}

func TestSimulate_BudgetExceedsBalance_OneMonth(t *testing.T) {
	// GIVEN: 1000 at 12%, budget 2000
	// WHEN: Simulating
	// THEN: Paid in month 1, interest is exactly one month (10)

	accounts := []payoff.DebtAccount{acct("x", payoff.CategoryCreditCard, 1000, 12, 25)}
	result := payoff.Simulate(accounts, payoff.Money(2000), payoff.Avalanche)

	assert.Equal(t, 1, result.MonthsToPayoff)
	assertMoney(t, 10, result.TotalInterestPaid)
	assertMoney(t, 1010, result.Ledger[0].TotalPaid())
	assert.Equal(t, 1, result.PayoffMonth("x"))
	assert.True(t, result.FinalBalance().IsZero())
}

func TestSimulate_NonConvergent_HitsCeiling(t *testing.T) {
	// GIVEN: 10000 at 24% (200/month interest) with a budget of 10
	// WHEN: Simulating
	// THEN: Stops at 600 months, balance has grown, not paid off

	accounts := []payoff.DebtAccount{acct("x", payoff.CategoryCreditCard, 10000, 24, 10)}
	result := payoff.Simulate(accounts, payoff.Money(10), payoff.Avalanche)

	assert.Equal(t, payoff.MaxMonths, result.MonthsToPayoff)
	assert.False(t, result.PaidOff)
	assert.Len(t, result.Timeline, payoff.MaxMonths+1)
	assert.Len(t, result.Ledger, payoff.MaxMonths)
	assert.True(t, result.FinalBalance().GreaterThan(payoff.Money(10000)))
	assert.Equal(t, 0, result.PayoffMonth("x"))
}

func TestSimulate_Underfunded_LaterAccountsStarve(t *testing.T) {
	// GIVEN: Seed accounts (minimums total 75) with a budget of 40
	// WHEN: Simulating with avalanche
	// THEN: A takes the whole budget, B still gets a ledger entry with 0 paid

	result := payoff.Simulate(seedAccounts(), payoff.Money(40), payoff.Avalanche)

	m1 := result.Ledger[0]
	require.Len(t, m1.Entries, 2)
	assertMoney(t, 40, entry(t, m1, "A").PaymentApplied)
	assertMoney(t, 980, entry(t, m1, "A").RemainingBalance)
	assertMoney(t, 0, entry(t, m1, "B").PaymentApplied)
	assertMoney(t, 505, entry(t, m1, "B").RemainingBalance)
}

func TestSimulate_DoesNotMutateInput(t *testing.T) {
	// GIVEN: Seed accounts
	// WHEN: Simulating to payoff
	// THEN: Caller's balances and order are unchanged

	accounts := seedAccounts()
	payoff.Simulate(accounts, payoff.Money(200), payoff.Snowball)

	assert.Equal(t, "A", accounts[0].ID)
	assertMoney(t, 1000, accounts[0].Balance)
	assertMoney(t, 500, accounts[1].Balance)
}

func TestSimulate_Deterministic(t *testing.T) {
	r1 := payoff.Simulate(seedAccounts(), payoff.Money(137.37), payoff.Avalanche)
	r2 := payoff.Simulate(seedAccounts(), payoff.Money(137.37), payoff.Avalanche)

	assert.Equal(t, r1.MonthsToPayoff, r2.MonthsToPayoff)
	assert.True(t, r1.TotalInterestPaid.Equal(r2.TotalInterestPaid))
	assert.Equal(t, r1.TotalInterestPaid.String(), r2.TotalInterestPaid.String())
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestSimulate_MonotonicInPayment(t *testing.T) {
	// GIVEN: Increasing budgets above the total minimum
	// WHEN: Simulating each
	// THEN: Months and interest never increase

	prev := payoff.Simulate(seedAccounts(), payoff.Money(100), payoff.Avalanche)
	for _, p := range []float64{150, 200, 350, 800, 2000} {
		cur := payoff.Simulate(seedAccounts(), payoff.Money(p), payoff.Avalanche)
		assert.LessOrEqual(t, cur.MonthsToPayoff, prev.MonthsToPayoff, "payment %v", p)
		assert.True(t, cur.TotalInterestPaid.LessThanOrEqual(prev.TotalInterestPaid), "payment %v", p)
		prev = cur
	}
}

func TestSimulate_ConservesBalance(t *testing.T) {
	// GIVEN: A mixed portfolio
	// WHEN: Simulating
	// THEN: Every month, previous + interest - paid = remaining

	accounts := []payoff.DebtAccount{
		acct("card", payoff.CategoryCreditCard, 2450.55, 23.99, 75),
		acct("loan", payoff.CategoryPersonalLoan, 6000, 11.5, 180),
		acct("auto", payoff.CategoryAutoLoan, 9100, 6.9, 260),
	}
	result := payoff.Simulate(accounts, payoff.Money(700), payoff.Avalanche)
	require.True(t, result.PaidOff)

	for i, m := range result.Ledger {
		before := result.Timeline[i]
		after := result.Timeline[i+1]
		interest := after.CumulativeInterest.Sub(before.CumulativeInterest)

		remaining := decimal.Zero
		for _, e := range m.Entries {
			remaining = remaining.Add(e.RemainingBalance)
		}
		expected := before.AggregateBalance.Add(interest).Sub(m.TotalPaid())
		assert.True(t, expected.Equal(remaining), "month %d: %s != %s", m.Month, expected, remaining)
		assert.True(t, m.TotalPaid().LessThanOrEqual(payoff.Money(700)), "month %d overspent", m.Month)
	}
}

func TestSimulate_TerminatesWhenMinimumsCoverInterest(t *testing.T) {
	// GIVEN: Every minimum exceeds its account's first-month interest
	// WHEN: Budget covers all minimums
	// THEN: Paid off before the ceiling

	accounts := []payoff.DebtAccount{
		acct("a", payoff.CategoryCreditCard, 5000, 29.99, 130),
		acct("b", payoff.CategoryStudentLoan, 20000, 5.5, 100),
	}
	result := payoff.Simulate(accounts, payoff.Money(230), payoff.Snowball)

	assert.True(t, result.PaidOff)
	assert.Less(t, result.MonthsToPayoff, payoff.MaxMonths)
}

func TestSimulate_AvalancheNeverCostsMoreThanSnowball(t *testing.T) {
	portfolios := [][]payoff.DebtAccount{
		seedAccounts(),
		{
			acct("small-high", payoff.CategoryCreditCard, 800, 27, 30),
			acct("big-low", payoff.CategoryAutoLoan, 15000, 4.5, 300),
			acct("mid", payoff.CategoryPersonalLoan, 4000, 14, 120),
		},
	}
	for i, accounts := range portfolios {
		min := payoff.TotalMinimumPayment(accounts)
		for _, extra := range []float64{0, 50, 400} {
			budget := min.Add(payoff.Money(extra))
			av := payoff.Simulate(accounts, budget, payoff.Avalanche)
			sb := payoff.Simulate(accounts, budget, payoff.Snowball)
			assert.True(t, av.TotalInterestPaid.LessThanOrEqual(sb.TotalInterestPaid),
				"portfolio %d extra %v: avalanche %s > snowball %s", i, extra, av.TotalInterestPaid, sb.TotalInterestPaid)
		}
	}
}

// =============================================================================
// ORDERING
// =============================================================================

func TestApplyOrder(t *testing.T) {
	accounts := []payoff.DebtAccount{
		acct("a", payoff.CategoryOther, 1, 1, 1),
		acct("b", payoff.CategoryOther, 1, 1, 1),
		acct("c", payoff.CategoryOther, 1, 1, 1),
	}

	ordered, err := payoff.ApplyOrder(accounts, []string{"c", "a", "c"})
	require.NoError(t, err)
	ids := []string{ordered[0].ID, ordered[1].ID, ordered[2].ID}
	assert.Equal(t, []string{"c", "a", "b"}, ids, "listed first, rest keep original order")

	_, err = payoff.ApplyOrder(accounts, []string{"zzz"})
	assert.ErrorIs(t, err, payoff.ErrUnknownAccount)
}

func TestSimulate_RetirementOrderFollowsStrategy(t *testing.T) {
	// GIVEN: Seed accounts (A has the higher rate, B the smaller balance)
	// WHEN: Budget exceeds the combined minimums
	// THEN: Avalanche retires A no later than B; snowball retires B no later than A

	av := payoff.Simulate(seedAccounts(), payoff.Money(200), payoff.Avalanche)
	assert.LessOrEqual(t, av.PayoffMonth("A"), av.PayoffMonth("B"))

	sb := payoff.Simulate(seedAccounts(), payoff.Money(200), payoff.Snowball)
	assert.LessOrEqual(t, sb.PayoffMonth("B"), sb.PayoffMonth("A"))
}

func TestSimulate_SingleAccountBalanceStrictlyDecreases(t *testing.T) {
	// GIVEN: One account whose minimum exceeds its monthly interest
	// WHEN: Paying only the minimum
	// THEN: Balance falls every month and the run terminates

	accounts := []payoff.DebtAccount{acct("x", payoff.CategoryCreditCard, 3000, 21, 60)}
	result := payoff.Simulate(accounts, payoff.Money(60), payoff.Avalanche)

	require.True(t, result.PaidOff)
	for i := 1; i < len(result.Timeline); i++ {
		assert.True(t, result.Timeline[i].AggregateBalance.LessThan(result.Timeline[i-1].AggregateBalance),
			"month %d", result.Timeline[i].Month)
	}
}
