package guidance

import (
	"context"
	"fmt"
	"strings"

	"github.com/pathlight/debt-engine/payoff"
)

var (
	dtiHigh = payoff.Money(40)
	aprHigh = payoff.Money(20)
)

// Rules is the template provider. It never fails.
type Rules struct{}

func (Rules) Guidance(_ context.Context, req Request) (string, error) {
	return ruleBased(req), nil
}

// ruleBased tries, in order: the requested action, an empty portfolio, a
// high DTI, a high average APR, the viewed scenario, then a summary.
func ruleBased(req Request) string {
	m := req.metrics()

	action := strings.ToLower(req.Action)
	switch {
	case strings.Contains(action, "snowball"):
		return "The Snowball method focuses on paying off your smallest debts first, regardless of interest rate. " +
			"This can give you quick wins and psychological motivation as you see debts disappear. " +
			"However, you might pay more in interest overall compared to the Avalanche method."
	case strings.Contains(action, "avalanche"):
		return "The Avalanche method focuses on paying off debts with the highest interest rates first. " +
			"This typically saves you the most money in interest over time, but it may take longer to see your first debt paid off. " +
			"It's mathematically the most efficient strategy."
	case strings.Contains(action, "dti") || strings.Contains(action, "debt-to-income"):
		return fmt.Sprintf("Your Debt-to-Income (DTI) ratio of %s%% shows how much of your monthly income goes toward minimum debt payments. "+
			"A DTI below 36%% is generally considered manageable. "+
			"If yours is higher, focusing on paying down debt can help improve your financial flexibility.",
			m.DebtToIncome.StringFixed(1))
	}

	if len(req.Debts) == 0 {
		return "Great start! Add your debts to see a complete picture of your financial situation. " +
			"Once you've added them, we'll help you calculate the best payoff strategy."
	}

	if m.DebtToIncome.GreaterThan(dtiHigh) {
		return fmt.Sprintf("Your Debt-to-Income ratio is %s%%, which is on the higher side. "+
			"This means a significant portion of your income goes to debt payments. "+
			"Consider strategies to either increase your income or reduce your debt payments.",
			m.DebtToIncome.StringFixed(1))
	}

	if m.AverageRate.GreaterThan(aprHigh) {
		return fmt.Sprintf("Your average interest rate is %s%%, which is quite high. "+
			"High-interest debt grows quickly, so focusing on paying it off faster can save you a lot of money. "+
			"The Avalanche method (paying highest APR first) might be particularly beneficial for you.",
			m.AverageRate.StringFixed(2))
	}

	if s := req.Scenario; s != nil {
		return fmt.Sprintf("With your %s strategy and $%s monthly payment, you'll be debt-free in about %s. "+
			"Stay consistent with your payments, and you'll reach your goal!",
			s.Strategy, formatMoney(s.MonthlyPayment), duration(s.PayoffMonths))
	}

	return fmt.Sprintf("You have %s totaling $%s. "+
		"Explore different payoff strategies to see which one works best for your situation and goals.",
		plural(len(req.Debts), "debt"), formatMoney(m.TotalDebt))
}

// duration renders a month count as "2 years 3 months".
func duration(months int) string {
	years, rest := months/12, months%12
	var parts []string
	if years > 0 {
		parts = append(parts, plural(years, "year"))
	}
	if rest > 0 {
		parts = append(parts, plural(rest, "month"))
	}
	if len(parts) == 0 {
		return "no time"
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
