package charts_test

import (
	"testing"

	"github.com/pathlight/debt-engine/charts"
	"github.com/pathlight/debt-engine/payoff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accounts() []payoff.DebtAccount {
	return []payoff.DebtAccount{
		{ID: "a", Category: payoff.CategoryCreditCard, Balance: payoff.Money(1000), AnnualRate: payoff.Money(24), MinimumPayment: payoff.Money(50)},
		{ID: "b", Category: payoff.CategoryStudentLoan, Balance: payoff.Money(500.555), AnnualRate: payoff.Money(12), MinimumPayment: payoff.Money(25)},
		{ID: "c", Category: payoff.CategoryCreditCard, Balance: payoff.Money(250), AnnualRate: payoff.Money(18), MinimumPayment: payoff.Money(25)},
	}
}

func TestPie_GroupsByCategory(t *testing.T) {
	pie := charts.Pie(accounts())
	require.Len(t, pie, 2)
	assert.Equal(t, charts.Slice{Name: "Credit Card", Value: 1250}, pie[0])
	assert.Equal(t, charts.Slice{Name: "Student Loan", Value: 500.56}, pie[1])

	assert.Empty(t, charts.Pie(nil))
}

func TestLine_FollowsTimeline(t *testing.T) {
	assert.Empty(t, charts.Line(nil))

	result := payoff.Simulate(accounts()[:2], payoff.Money(200), payoff.Avalanche)
	line := charts.Line(&result)
	require.Len(t, line, len(result.Timeline))
	assert.Equal(t, 0, line[0].Month)
	assert.Equal(t, 1500.56, line[0].Balance)
	assert.Zero(t, line[0].InterestPaid)
	assert.Zero(t, line[len(line)-1].Balance)
}

func TestBars_WithoutScenario(t *testing.T) {
	// GIVEN: No payoff plan
	// WHEN: Bars are built
	// THEN: One bar with a year of current interest, negative

	// Monthly interest: 1000*24/1200 + 250*18/1200 = 20 + 3.75
	bars := charts.Bars([]payoff.DebtAccount{accounts()[0], accounts()[2]}, nil)
	require.Len(t, bars, 1)
	assert.Equal(t, "Projected Interest", bars[0].Name)
	assert.Equal(t, -285.0, bars[0].InterestSavings)
}

func TestBars_WithScenario(t *testing.T) {
	accts := []payoff.DebtAccount{accounts()[0]}
	result := payoff.Result{MonthsToPayoff: 10, TotalInterestPaid: payoff.Money(100), PaidOff: true}

	// current 20/month, plan averages 10/month over 10 months
	bars := charts.Bars(accts, &result)
	require.Len(t, bars, 2)
	assert.Equal(t, charts.Bar{Name: "Current Plan", InterestSavings: 0}, bars[0])
	assert.Equal(t, charts.Bar{Name: "Optimized Strategy", InterestSavings: 100}, bars[1])

	// A plan that costs more than today never shows negative savings
	result.TotalInterestPaid = payoff.Money(500)
	bars = charts.Bars(accts, &result)
	assert.Zero(t, bars[1].InterestSavings)
}

func TestBuild(t *testing.T) {
	data := charts.Build(accounts(), nil)
	assert.Len(t, data.Pie, 2)
	assert.Empty(t, data.Line)
	assert.Len(t, data.Bar, 1)
}
