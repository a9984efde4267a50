/*
rules.go - The four recommendation evaluators

RULES:
  Consolidation    N eligible cards at >= min_apr, total debt under the
                   cap, eligible band. Savings over evaluation_period_months
                   at estimated_apr.
  BalanceTransfer  Same gate with its own thresholds. Fee is charged up
                   front, the promo rate applies to balance + fee, and the
                   fee is subtracted from savings.
  Settlement       Poor-credit users with small, expensive debts. Savings
                   are the forgiven share of the balance. Fit never exceeds
                   medium since settlement damages credit.
  Refinance        The largest non-excluded loan above min_balance and
                   min_apr. New rate is apr - improvement, floored at 5%.

SEE ALSO:
  - recommend.go: Evaluator interface, Generate, Classify
  - payoff/metrics.go: MonthlyInterest
*/
package recommend

import (
	"fmt"

	"github.com/pathlight/debt-engine/payoff"
	"github.com/shopspring/decimal"
)

var (
	refinanceFloorAPR = decimal.NewFromInt(5)
	refinancePayment  = decimal.New(9, -1)
	transferPayment   = decimal.New(2, -2)
)

// =============================================================================
// CONSOLIDATION
// =============================================================================

// Consolidation suggests rolling several expensive cards into one loan.
type Consolidation struct{}

func (Consolidation) Kind() Kind { return KindConsolidation }

func (Consolidation) IsApplicable(accounts []payoff.DebtAccount, fc *payoff.FinancialContext, cfg *Config) bool {
	c := cfg.Consolidation
	if !c.Enabled || fc == nil || len(accounts) < c.MinDebts {
		return false
	}
	eligible := byTypeAndRate(accounts, c.DebtTypes, c.MinAPR)
	return len(eligible) >= c.MinDebts &&
		payoff.TotalBalance(accounts).LessThan(c.MaxTotalDebt) &&
		hasBand(c.EligibleCreditScores, fc.CreditScoreBand)
}

func (Consolidation) Evaluate(accounts []payoff.DebtAccount, fc *payoff.FinancialContext, cfg *Config) *Recommendation {
	c := cfg.Consolidation
	if fc == nil {
		return nil
	}
	eligible := byTypeAndRate(accounts, c.DebtTypes, c.MinAPR)
	if len(eligible) < c.MinDebts {
		return nil
	}

	balance := payoff.TotalBalance(eligible)
	current := payoff.CurrentMonthlyInterest(eligible)
	projected := payoff.MonthlyInterest(balance, c.EstimatedAPR)
	savings := current.Sub(projected).Mul(decimal.NewFromInt(int64(c.EvaluationMonths)))

	return &Recommendation{
		Kind:              KindConsolidation,
		AccountIDs:        ids(eligible),
		Description:       fmt.Sprintf("Consolidate %d high-interest accounts into a single loan", len(eligible)),
		EstimatedSavings:  floorZero(savings),
		NewMonthlyPayment: balance.Mul(c.PaymentPercentage),
		Fit:               cfg.FitScoreThresholds.Classify(savings, fc.CreditScoreBand),
		Reasoning: fmt.Sprintf("You have %d accounts with APRs of %s%% or higher. "+
			"Consolidating them at around %s%% could reduce your monthly interest and simplify payments.",
			len(eligible), c.MinAPR.String(), c.EstimatedAPR.String()),
	}
}

// =============================================================================
// BALANCE TRANSFER
// =============================================================================

// BalanceTransfer suggests moving card balances to a promotional-rate card.
type BalanceTransfer struct{}

func (BalanceTransfer) Kind() Kind { return KindBalanceTransfer }

func (BalanceTransfer) IsApplicable(accounts []payoff.DebtAccount, fc *payoff.FinancialContext, cfg *Config) bool {
	c := cfg.BalanceTransfer
	if !c.Enabled || fc == nil || len(accounts) < c.MinDebts {
		return false
	}
	cards := byTypeAndRate(accounts, c.DebtTypes, c.MinAPR)
	return len(cards) >= c.MinDebts &&
		payoff.TotalBalance(cards).LessThan(c.MaxTotalDebt) &&
		hasBand(c.EligibleCreditScores, fc.CreditScoreBand)
}

func (BalanceTransfer) Evaluate(accounts []payoff.DebtAccount, fc *payoff.FinancialContext, cfg *Config) *Recommendation {
	c := cfg.BalanceTransfer
	if fc == nil {
		return nil
	}
	cards := byTypeAndRate(accounts, c.DebtTypes, c.MinAPR)
	if len(cards) < c.MinDebts {
		return nil
	}

	balance := payoff.TotalBalance(cards)
	fee := balance.Mul(c.TransferFeePercentage)
	current := payoff.CurrentMonthlyInterest(cards)
	projected := payoff.MonthlyInterest(balance.Add(fee), c.EstimatedPromoAPR)
	savings := current.Sub(projected).Mul(decimal.NewFromInt(int64(c.PromoPeriodMonths))).Sub(fee)

	return &Recommendation{
		Kind:              KindBalanceTransfer,
		AccountIDs:        ids(cards),
		Description:       fmt.Sprintf("Consider a balance transfer for %d high-interest credit cards", len(cards)),
		EstimatedSavings:  floorZero(savings),
		NewMonthlyPayment: balance.Mul(transferPayment),
		Fit:               cfg.FitScoreThresholds.Classify(savings, fc.CreditScoreBand),
		Reasoning: fmt.Sprintf("A promotional APR of about %s%% for %d months could save significant interest "+
			"with your %s credit. Transfers typically charge a %s%% fee up front.",
			c.EstimatedPromoAPR.String(), c.PromoPeriodMonths, fc.CreditScoreBand,
			c.TransferFeePercentage.Mul(decimal.NewFromInt(100)).String()),
	}
}

// =============================================================================
// SETTLEMENT
// =============================================================================

// Settlement suggests negotiating small, expensive debts down.
type Settlement struct{}

func (Settlement) Kind() Kind { return KindSettlement }

func (Settlement) settleable(accounts []payoff.DebtAccount, c SettlementConfig) []payoff.DebtAccount {
	var out []payoff.DebtAccount
	for _, a := range accounts {
		if a.AnnualRate.GreaterThanOrEqual(c.MinAPR) && a.Balance.LessThanOrEqual(c.MaxBalance) {
			out = append(out, a)
		}
	}
	return out
}

func (s Settlement) IsApplicable(accounts []payoff.DebtAccount, fc *payoff.FinancialContext, cfg *Config) bool {
	c := cfg.Settlement
	if !c.Enabled || fc == nil || !hasBand(c.EligibleCreditScores, fc.CreditScoreBand) {
		return false
	}
	return len(s.settleable(accounts, c)) > 0
}

func (s Settlement) Evaluate(accounts []payoff.DebtAccount, fc *payoff.FinancialContext, cfg *Config) *Recommendation {
	c := cfg.Settlement
	if fc == nil || !hasBand(c.EligibleCreditScores, fc.CreditScoreBand) {
		return nil
	}
	debts := s.settleable(accounts, c)
	if len(debts) == 0 {
		return nil
	}

	total := payoff.TotalBalance(debts)
	settled := total.Mul(c.EstimatedSettlementPercentage)
	savings := total.Sub(settled)

	fit := cfg.FitScoreThresholds.Classify(savings, fc.CreditScoreBand)
	if fit == FitHigh {
		fit = FitMedium
	}

	return &Recommendation{
		Kind:              KindSettlement,
		AccountIDs:        ids(debts),
		Description:       fmt.Sprintf("Consider debt settlement for %d high-interest, smaller debts", len(debts)),
		EstimatedSavings:  floorZero(savings),
		NewMonthlyPayment: settled.Div(decimal.NewFromInt(int64(c.SettlementPeriodMonths))),
		Fit:               fit,
		Reasoning: "Given your credit situation, you may be able to negotiate settlements on these " +
			"high-interest debts. This would reduce your total debt, though it will likely hurt your credit score.",
	}
}

// =============================================================================
// REFINANCE
// =============================================================================

// Refinance suggests a lower rate on the largest qualifying loan.
type Refinance struct{}

func (Refinance) Kind() Kind { return KindRefinance }

func (Refinance) candidates(accounts []payoff.DebtAccount, c RefinancingConfig) []payoff.DebtAccount {
	var out []payoff.DebtAccount
	for _, a := range accounts {
		if a.Balance.GreaterThanOrEqual(c.MinBalance) &&
			a.AnnualRate.GreaterThanOrEqual(c.MinAPR) &&
			!hasCategory(c.ExcludedDebtTypes, a.Category) {
			out = append(out, a)
		}
	}
	return out
}

func (r Refinance) IsApplicable(accounts []payoff.DebtAccount, fc *payoff.FinancialContext, cfg *Config) bool {
	c := cfg.Refinancing
	if !c.Enabled || fc == nil {
		return false
	}
	return len(r.candidates(accounts, c)) > 0 && hasBand(c.EligibleCreditScores, fc.CreditScoreBand)
}

func (r Refinance) Evaluate(accounts []payoff.DebtAccount, fc *payoff.FinancialContext, cfg *Config) *Recommendation {
	c := cfg.Refinancing
	if fc == nil {
		return nil
	}
	candidates := r.candidates(accounts, c)
	if len(candidates) == 0 {
		return nil
	}

	// Largest balance wins; first seen on ties.
	target := candidates[0]
	for _, a := range candidates[1:] {
		if a.Balance.GreaterThan(target.Balance) {
			target = a
		}
	}

	newRate := decimal.Max(refinanceFloorAPR, target.AnnualRate.Sub(c.APRImprovementEstimate))
	current := payoff.MonthlyInterest(target.Balance, target.AnnualRate)
	projected := payoff.MonthlyInterest(target.Balance, newRate)
	savings := current.Sub(projected).Mul(decimal.NewFromInt(int64(c.EvaluationPeriodMonths)))

	return &Recommendation{
		Kind:              KindRefinance,
		AccountIDs:        []string{target.ID},
		Description:       fmt.Sprintf("Refinance your %s to get a lower interest rate", target.Category.DisplayName()),
		EstimatedSavings:  floorZero(savings),
		NewMonthlyPayment: target.MinimumPayment.Mul(refinancePayment),
		Fit:               cfg.FitScoreThresholds.Classify(savings, fc.CreditScoreBand),
		Reasoning: fmt.Sprintf("With %s credit you may qualify for about %s%% instead of %s%% on this loan.",
			fc.CreditScoreBand, newRate.String(), target.AnnualRate.String()),
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func byTypeAndRate(accounts []payoff.DebtAccount, types []payoff.Category, minAPR decimal.Decimal) []payoff.DebtAccount {
	var out []payoff.DebtAccount
	for _, a := range accounts {
		if hasCategory(types, a.Category) && a.AnnualRate.GreaterThanOrEqual(minAPR) {
			out = append(out, a)
		}
	}
	return out
}

func hasBand(bands []payoff.CreditBand, b payoff.CreditBand) bool {
	for _, x := range bands {
		if x == b {
			return true
		}
	}
	return false
}

func hasCategory(cats []payoff.Category, c payoff.Category) bool {
	for _, x := range cats {
		if x == c {
			return true
		}
	}
	return false
}

func ids(accounts []payoff.DebtAccount) []string {
	out := make([]string, len(accounts))
	for i, a := range accounts {
		out[i] = a.ID
	}
	return out
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
