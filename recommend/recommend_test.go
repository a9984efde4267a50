package recommend_test

import (
	"testing"

	"github.com/pathlight/debt-engine/payoff"
	"github.com/pathlight/debt-engine/recommend"
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

func fctx(band payoff.CreditBand) *payoff.FinancialContext {
	return &payoff.FinancialContext{
		MonthlyIncome:   payoff.Money(5000),
		MonthlyExpenses: payoff.Money(3000),
		CreditScoreBand: band,
		PrimaryGoal:     payoff.GoalReduceInterest,
	}
}

func kinds(recs []recommend.Recommendation) []recommend.Kind {
	out := make([]recommend.Kind, len(recs))
	for i, r := range recs {
		out[i] = r.Kind
	}
	return out
}

// =============================================================================
// EVALUATORS
// =============================================================================

func TestGenerate_Consolidation_FairCredit(t *testing.T) {
	// GIVEN: Three cards at 19-25% and fair credit
	// WHEN: Generating recommendations
	// THEN: Only consolidation fires, 36 months of interest difference at 18%

	accounts := []payoff.DebtAccount{
		acct("c1", payoff.CategoryCreditCard, 2000, 22, 60),
		acct("c2", payoff.CategoryCreditCard, 3000, 19, 90),
		acct("c3", payoff.CategoryCreditCard, 1500, 25, 45),
	}

	recs := recommend.Generate(accounts, fctx(payoff.CreditFair), nil)

	require.Len(t, recs, 1)
	r := recs[0]
	assert.Equal(t, recommend.KindConsolidation, r.Kind)
	assert.Equal(t, []string{"c1", "c2", "c3"}, r.AccountIDs)
	// (115.4166 - 97.5) * 36
	assert.Equal(t, "645.00", r.EstimatedSavings.StringFixed(2))
	assert.Equal(t, "130.00", r.NewMonthlyPayment.StringFixed(2))
	assert.Equal(t, recommend.FitMedium, r.Fit)
}

func TestGenerate_GoodCredit_SortedByFitThenSavings(t *testing.T) {
	// GIVEN: Two expensive cards and a 15k auto loan at 12%, good credit
	// WHEN: Generating recommendations
	// THEN: Refinance (2250) before balance transfer (1850.55), both high fit

	accounts := []payoff.DebtAccount{
		acct("card-a", payoff.CategoryCreditCard, 4000, 24, 100),
		acct("card-b", payoff.CategoryCreditCard, 3000, 21, 80),
		acct("auto", payoff.CategoryAutoLoan, 15000, 12, 350),
	}

	recs := recommend.Generate(accounts, fctx(payoff.CreditGood), recommend.Default())

	require.Equal(t, []recommend.Kind{recommend.KindRefinance, recommend.KindBalanceTransfer}, kinds(recs))

	refi := recs[0]
	assert.Equal(t, []string{"auto"}, refi.AccountIDs)
	assert.Equal(t, "2250.00", refi.EstimatedSavings.StringFixed(2))
	assert.Equal(t, "315.00", refi.NewMonthlyPayment.StringFixed(2))
	assert.Equal(t, recommend.FitHigh, refi.Fit)

	bt := recs[1]
	assert.Equal(t, []string{"card-a", "card-b"}, bt.AccountIDs)
	// fee 210; (132.5 - 7210*3/1200) * 18 - 210
	assert.Equal(t, "1850.55", bt.EstimatedSavings.StringFixed(2))
	assert.Equal(t, "140.00", bt.NewMonthlyPayment.StringFixed(2))
	assert.Equal(t, recommend.FitHigh, bt.Fit)
}

func TestSettlement_FitCappedAtMedium(t *testing.T) {
	// GIVEN: Poor credit and a 3000 card at 26%
	// WHEN: Generating recommendations
	// THEN: Settlement saves 1500 (high tier) but is reported as medium

	accounts := []payoff.DebtAccount{
		acct("card", payoff.CategoryCreditCard, 3000, 26, 90),
		acct("student", payoff.CategoryStudentLoan, 20000, 8, 210),
	}

	recs := recommend.Generate(accounts, fctx(payoff.CreditPoor), nil)

	require.Len(t, recs, 1)
	r := recs[0]
	assert.Equal(t, recommend.KindSettlement, r.Kind)
	assert.Equal(t, []string{"card"}, r.AccountIDs)
	assert.Equal(t, "1500.00", r.EstimatedSavings.StringFixed(2))
	assert.Equal(t, "125.00", r.NewMonthlyPayment.StringFixed(2))
	assert.Equal(t, recommend.FitMedium, r.Fit)
}

func TestRefinance_RateFlooredAtFivePercent(t *testing.T) {
	// GIVEN: A 20k personal loan at 7% (improvement of 3 would go below 5)
	// WHEN: Evaluating refinance with min_apr lowered to 6
	// THEN: New rate is 5%: (116.67 - 83.33) * 60 = 2000

	cfg := recommend.Default()
	cfg.Refinancing.MinAPR = payoff.Money(6)
	accounts := []payoff.DebtAccount{acct("loan", payoff.CategoryPersonalLoan, 20000, 7, 400)}

	ev := recommend.Refinance{}
	require.True(t, ev.IsApplicable(accounts, fctx(payoff.CreditExcellent), cfg))
	r := ev.Evaluate(accounts, fctx(payoff.CreditExcellent), cfg)

	require.NotNil(t, r)
	assert.Equal(t, "2000.00", r.EstimatedSavings.StringFixed(2))
	assert.Contains(t, r.Reasoning, "5%")
}

func TestGenerate_NoContext_NoRecommendations(t *testing.T) {
	accounts := []payoff.DebtAccount{
		acct("c1", payoff.CategoryCreditCard, 2000, 22, 60),
		acct("c2", payoff.CategoryCreditCard, 3000, 19, 90),
		acct("c3", payoff.CategoryCreditCard, 1500, 25, 45),
	}
	recs := recommend.Generate(accounts, nil, nil)
	assert.Empty(t, recs)
	assert.NotNil(t, recs, "empty slice, not nil, so JSON renders []")
}

func TestGenerate_DisabledRuleSkipped(t *testing.T) {
	cfg := recommend.Default()
	cfg.Settlement.Enabled = false

	accounts := []payoff.DebtAccount{acct("card", payoff.CategoryCreditCard, 3000, 26, 90)}
	assert.Empty(t, recommend.Generate(accounts, fctx(payoff.CreditPoor), cfg))
}

func TestConsolidation_TotalDebtCap(t *testing.T) {
	// GIVEN: Three qualifying cards plus a mortgage-sized loan
	// WHEN: Total debt (all accounts) exceeds max_total_debt
	// THEN: Consolidation does not apply

	accounts := []payoff.DebtAccount{
		acct("c1", payoff.CategoryCreditCard, 2000, 22, 60),
		acct("c2", payoff.CategoryCreditCard, 3000, 19, 90),
		acct("c3", payoff.CategoryCreditCard, 1500, 25, 45),
		acct("big", payoff.CategoryOther, 60000, 4, 600),
	}
	ev := recommend.Consolidation{}
	assert.False(t, ev.IsApplicable(accounts, fctx(payoff.CreditFair), recommend.Default()))
}

// =============================================================================
// FIT CLASSIFICATION
// =============================================================================

func TestClassify(t *testing.T) {
	th := recommend.Default().FitScoreThresholds

	assert.Equal(t, recommend.FitHigh, th.Classify(payoff.Money(1500), payoff.CreditFair))
	assert.Equal(t, recommend.FitMedium, th.Classify(payoff.Money(1499.99), payoff.CreditFair))
	assert.Equal(t, recommend.FitMedium, th.Classify(payoff.Money(500), payoff.CreditFair))
	assert.Equal(t, recommend.FitLow, th.Classify(payoff.Money(499), payoff.CreditFair))
	assert.Equal(t, recommend.FitLow, th.Classify(payoff.Money(-20), payoff.CreditFair))

	// GIVEN: High tier restricted to excellent credit
	// THEN: Good credit with high savings tops out at medium
	th.High.CreditScoreRequirement = payoff.CreditExcellent
	assert.Equal(t, recommend.FitMedium, th.Classify(payoff.Money(5000), payoff.CreditGood))
	assert.Equal(t, recommend.FitHigh, th.Classify(payoff.Money(5000), payoff.CreditExcellent))
}

// stubEvaluator checks that Run works with rules outside the built-in set.
type stubEvaluator struct {
	kind    recommend.Kind
	savings float64
	fit     recommend.Fit
}

func (s stubEvaluator) Kind() recommend.Kind { return s.kind }

func (s stubEvaluator) IsApplicable([]payoff.DebtAccount, *payoff.FinancialContext, *recommend.Config) bool {
	return true
}

func (s stubEvaluator) Evaluate([]payoff.DebtAccount, *payoff.FinancialContext, *recommend.Config) *recommend.Recommendation {
	return &recommend.Recommendation{Kind: s.kind, EstimatedSavings: payoff.Money(s.savings), Fit: s.fit}
}

func TestRun_StableOrdering(t *testing.T) {
	evs := []recommend.Evaluator{
		stubEvaluator{"a", 100, recommend.FitLow},
		stubEvaluator{"b", 900, recommend.FitMedium},
		stubEvaluator{"c", 700, recommend.FitMedium},
		stubEvaluator{"d", 900, recommend.FitMedium},
		stubEvaluator{"e", 10, recommend.FitHigh},
	}

	recs := recommend.Run(evs, nil, nil, nil)

	assert.Equal(t, []recommend.Kind{"e", "b", "d", "c", "a"}, kinds(recs))
}
