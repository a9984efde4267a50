// Package charts turns debts and a simulation result into the three
// datasets the dashboard draws: composition pie, payoff line and interest bar.
//
// Values are rounded to cents and returned as float64; this is display
// data and is never fed back into the engine.
package charts

import (
	"github.com/pathlight/debt-engine/payoff"
	"github.com/shopspring/decimal"
)

// Slice is one pie segment.
type Slice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Point is one month of the payoff line.
type Point struct {
	Month        int     `json:"month"`
	Balance      float64 `json:"balance"`
	InterestPaid float64 `json:"interest_paid"`
}

// Bar is one interest comparison bar.
type Bar struct {
	Name            string  `json:"name"`
	InterestSavings float64 `json:"interest_savings"`
}

// Data groups every dataset.
type Data struct {
	Pie  []Slice `json:"pie"`
	Line []Point `json:"line"`
	Bar  []Bar   `json:"bar"`
}

// Build produces all datasets. scenario may be nil, in which case the line
// is empty and the bar shows a year of interest at current balances.
func Build(accounts []payoff.DebtAccount, scenario *payoff.Result) Data {
	return Data{
		Pie:  Pie(accounts),
		Line: Line(scenario),
		Bar:  Bars(accounts, scenario),
	}
}

// Pie sums balances per category, in order of first appearance.
func Pie(accounts []payoff.DebtAccount) []Slice {
	var order []payoff.Category
	totals := map[payoff.Category]decimal.Decimal{}
	for _, a := range accounts {
		if _, ok := totals[a.Category]; !ok {
			order = append(order, a.Category)
			totals[a.Category] = decimal.Zero
		}
		totals[a.Category] = totals[a.Category].Add(a.Balance)
	}

	slices := make([]Slice, 0, len(order))
	for _, c := range order {
		slices = append(slices, Slice{Name: c.DisplayName(), Value: cents(totals[c])})
	}
	return slices
}

// Line samples the aggregate balance and cumulative interest per month.
func Line(scenario *payoff.Result) []Point {
	if scenario == nil {
		return []Point{}
	}
	points := make([]Point, 0, len(scenario.Timeline))
	for _, p := range scenario.Timeline {
		points = append(points, Point{
			Month:        p.Month,
			Balance:      cents(p.AggregateBalance),
			InterestPaid: cents(p.CumulativeInterest),
		})
	}
	return points
}

// Bars compares today's monthly interest with the plan's average.
//
// With a plan that runs at least one month the chart shows the current plan
// as the zero baseline and the savings of the optimized plan:
//
//	max(0, (current monthly interest - plan interest / months) * months)
//
// Without one it shows a year of interest at current balances as a negative
// value, since it is a cost.
func Bars(accounts []payoff.DebtAccount, scenario *payoff.Result) []Bar {
	current := payoff.CurrentMonthlyInterest(accounts)

	if scenario != nil && scenario.MonthsToPayoff > 0 {
		months := decimal.NewFromInt(int64(scenario.MonthsToPayoff))
		avg := scenario.TotalInterestPaid.Div(months)
		savings := decimal.Max(decimal.Zero, current.Sub(avg).Mul(months))
		return []Bar{
			{Name: "Current Plan", InterestSavings: 0},
			{Name: "Optimized Strategy", InterestSavings: cents(savings)},
		}
	}

	return []Bar{
		{Name: "Projected Interest", InterestSavings: cents(current.Mul(decimal.NewFromInt(-12)))},
	}
}

func cents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
