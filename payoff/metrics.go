/*
metrics.go - Aggregate metrics over a list of debts

PURPOSE:
  Pure, stateless functions used by every other component for display and
  rule evaluation: total debt, balance-weighted APR, debt-to-income ratio
  and credit utilization.

ZERO GUARDS:
  Every ratio returns zero instead of dividing by zero:
  - WeightedAverageRate: total balance is 0
  - DebtToIncome:        income is 0 (or negative)
  - UtilizationRate:     no credit cards, or total credit limit is 0

UTILIZATION AND MISSING LIMITS:
  A credit card without a limit still counts toward the balance numerator
  but adds nothing to the limit denominator. This skews the ratio
  for users who skip the limit field; kept as-is until product decides
  otherwise.

SEE ALSO:
  - simulate.go: Uses MonthlyInterest
  - recommend/rules.go: Uses MonthlyInterest and TotalBalance
*/
package payoff

import "github.com/shopspring/decimal"

var twelveHundred = decimal.NewFromInt(1200)

// Aggregate is the combined metrics record.
type Aggregate struct {
	TotalDebt           decimal.Decimal
	AverageRate         decimal.Decimal // percent
	DebtToIncome        decimal.Decimal // percent
	TotalMinimumPayment decimal.Decimal
	UtilizationRate     decimal.Decimal // percent
	NumberOfAccounts    int
}

// AggregateMetrics computes every metric at once.
func AggregateMetrics(accounts []DebtAccount, monthlyIncome decimal.Decimal) Aggregate {
	return Aggregate{
		TotalDebt:           TotalBalance(accounts),
		AverageRate:         WeightedAverageRate(accounts),
		DebtToIncome:        DebtToIncome(accounts, monthlyIncome),
		TotalMinimumPayment: TotalMinimumPayment(accounts),
		UtilizationRate:     UtilizationRate(accounts),
		NumberOfAccounts:    len(accounts),
	}
}

// TotalBalance sums balances.
func TotalBalance(accounts []DebtAccount) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total
}

// TotalMinimumPayment sums contractual minimums.
func TotalMinimumPayment(accounts []DebtAccount) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.MinimumPayment)
	}
	return total
}

// WeightedAverageRate is the balance-weighted APR in percent.
func WeightedAverageRate(accounts []DebtAccount) decimal.Decimal {
	total := TotalBalance(accounts)
	if total.IsZero() {
		return decimal.Zero
	}
	weighted := decimal.Zero
	for _, a := range accounts {
		weighted = weighted.Add(a.Balance.Mul(a.AnnualRate))
	}
	return weighted.Div(total)
}

// DebtToIncome is total minimum payments as a percent of monthly income.
func DebtToIncome(accounts []DebtAccount, monthlyIncome decimal.Decimal) decimal.Decimal {
	if !monthlyIncome.IsPositive() {
		return decimal.Zero
	}
	return TotalMinimumPayment(accounts).Div(monthlyIncome).Mul(hundred)
}

// UtilizationRate is credit card balance as a percent of credit limit.
func UtilizationRate(accounts []DebtAccount) decimal.Decimal {
	balance := decimal.Zero
	limit := decimal.Zero
	cards := 0
	for _, a := range accounts {
		if a.Category != CategoryCreditCard {
			continue
		}
		cards++
		balance = balance.Add(a.Balance)
		if a.CreditLimit.Valid {
			limit = limit.Add(a.CreditLimit.Decimal)
		}
	}
	if cards == 0 || limit.IsZero() {
		return decimal.Zero
	}
	return balance.Div(limit).Mul(hundred)
}

// MonthlyInterest is one month of simple interest: balance * rate / 100 / 12.
func MonthlyInterest(balance, annualRate decimal.Decimal) decimal.Decimal {
	return balance.Mul(annualRate).Div(twelveHundred)
}

// CurrentMonthlyInterest sums MonthlyInterest over the accounts' current balances.
func CurrentMonthlyInterest(accounts []DebtAccount) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(MonthlyInterest(a.Balance, a.AnnualRate))
	}
	return total
}
