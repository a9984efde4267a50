// Package storetest is the shared conformance suite for session.Store
// implementations. Each backend's tests call Run with a fresh store.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/pathlight/debt-engine/payoff"
	"github.com/pathlight/debt-engine/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Options relaxes checks a backend cannot honor.
type Options struct {
	// NoSweep is set for stores that expire entries natively (Redis TTL).
	NoSweep bool
}

// Sample returns a session with a context and two debts.
func Sample(id string, lastAccess time.Time) *session.Session {
	horizon := 36
	due := time.Date(2025, time.March, 15, 0, 0, 0, 0, time.UTC)
	return &session.Session{
		ID:             id,
		CreatedAt:      lastAccess.Add(-time.Hour).UTC(),
		LastAccessedAt: lastAccess.UTC(),
		FinancialContext: &payoff.FinancialContext{
			MonthlyIncome:     decimal.RequireFromString("5500"),
			MonthlyExpenses:   decimal.RequireFromString("3500"),
			LiquidSavings:     decimal.RequireFromString("5000"),
			CreditScoreBand:   payoff.CreditGood,
			PrimaryGoal:       payoff.GoalPayFaster,
			TimeHorizonMonths: &horizon,
			ZipCode:           "10001",
		},
		Debts: []payoff.DebtAccount{
			{
				ID:              "card",
				Category:        payoff.CategoryCreditCard,
				Balance:         decimal.RequireFromString("8500.25"),
				AnnualRate:      decimal.RequireFromString("22.5"),
				MinimumPayment:  decimal.RequireFromString("250"),
				CreditLimit:     decimal.NewNullDecimal(decimal.RequireFromString("10000")),
				NextPaymentDate: &due,
			},
			{
				ID:             "loan",
				Category:       payoff.CategoryPersonalLoan,
				Balance:        decimal.RequireFromString("12000"),
				AnnualRate:     decimal.RequireFromString("15.5"),
				MinimumPayment: decimal.RequireFromString("350"),
			},
		},
	}
}

// Run exercises the full Store contract against s. The store must be empty.
func Run(t *testing.T, s session.Store, opts Options) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, "missing")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("put then get round trips", func(t *testing.T) {
		in := Sample("round-trip", now)
		require.NoError(t, s.Put(ctx, in))

		got, err := s.Get(ctx, "round-trip")
		require.NoError(t, err)

		assert.Equal(t, in.ID, got.ID)
		assert.True(t, in.LastAccessedAt.Equal(got.LastAccessedAt))
		require.NotNil(t, got.FinancialContext)
		assert.Equal(t, payoff.CreditGood, got.FinancialContext.CreditScoreBand)
		assert.Equal(t, 36, *got.FinancialContext.TimeHorizonMonths)
		require.Len(t, got.Debts, 2)
		assert.Equal(t, "card", got.Debts[0].ID)
		assert.True(t, got.Debts[0].Balance.Equal(in.Debts[0].Balance))
		assert.True(t, got.Debts[0].CreditLimit.Valid)
		assert.False(t, got.Debts[1].CreditLimit.Valid)
		require.NotNil(t, got.Debts[0].NextPaymentDate)
		assert.True(t, got.Debts[0].NextPaymentDate.Equal(*in.Debts[0].NextPaymentDate))
	})

	t.Run("returned copies are detached", func(t *testing.T) {
		in := Sample("detached", now)
		require.NoError(t, s.Put(ctx, in))
		in.Debts[0].Balance = decimal.Zero

		got, err := s.Get(ctx, "detached")
		require.NoError(t, err)
		got.Debts = nil

		again, err := s.Get(ctx, "detached")
		require.NoError(t, err)
		require.Len(t, again.Debts, 2)
		assert.False(t, again.Debts[0].Balance.IsZero())
	})

	t.Run("put replaces", func(t *testing.T) {
		in := Sample("replace", now)
		require.NoError(t, s.Put(ctx, in))
		in.Debts = in.Debts[:1]
		in.FinancialContext = nil
		require.NoError(t, s.Put(ctx, in))

		got, err := s.Get(ctx, "replace")
		require.NoError(t, err)
		assert.Len(t, got.Debts, 1)
		assert.Nil(t, got.FinancialContext)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, Sample("delete-me", now)))
		require.NoError(t, s.Delete(ctx, "delete-me"))
		_, err := s.Get(ctx, "delete-me")
		assert.ErrorIs(t, err, session.ErrNotFound)
		assert.NoError(t, s.Delete(ctx, "delete-me"), "deleting twice is fine")
	})

	if opts.NoSweep {
		return
	}

	t.Run("sweep expired", func(t *testing.T) {
		before, err := s.Count(ctx)
		require.NoError(t, err)

		require.NoError(t, s.Put(ctx, Sample("stale", now.Add(-48*time.Hour))))
		require.NoError(t, s.Put(ctx, Sample("fresh", now)))

		n, err := s.SweepExpired(ctx, now.Add(-24*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		_, err = s.Get(ctx, "stale")
		assert.ErrorIs(t, err, session.ErrNotFound)
		_, err = s.Get(ctx, "fresh")
		assert.NoError(t, err)

		after, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, before+1, after)
	})
}
