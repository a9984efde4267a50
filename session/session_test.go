package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pathlight/debt-engine/payoff"
	"github.com/pathlight/debt-engine/session"
	"github.com/pathlight/debt-engine/session/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(t *testing.T) (*session.Manager, *session.Memory, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)}
	store := session.NewMemory()
	m := session.NewManager(store, session.WithTimeout(24*time.Hour), session.WithClock(clock.Now))
	return m, store, clock
}

// =============================================================================
// MEMORY STORE
// =============================================================================

func TestMemoryStore_Conformance(t *testing.T) {
	storetest.Run(t, session.NewMemory(), storetest.Options{})
}

// =============================================================================
// MANAGER
// =============================================================================

func TestManager_CreateAndGet(t *testing.T) {
	m, _, clock := newTestManager(t)
	ctx := context.Background()

	s, err := m.Create(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Empty(t, s.Debts)
	assert.Nil(t, s.FinancialContext)

	clock.Advance(time.Hour)
	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, clock.Now(), got.LastAccessedAt, "get touches the session")
}

func TestManager_Expiry(t *testing.T) {
	// GIVEN: A session created at T
	// WHEN: It is read again after more than 24h idle
	// THEN: ErrExpired, and the session is gone from the store

	m, store, clock := newTestManager(t)
	ctx := context.Background()

	s, err := m.Create(ctx)
	require.NoError(t, err)

	clock.Advance(24*time.Hour + time.Second)
	_, err = m.Get(ctx, s.ID)
	assert.ErrorIs(t, err, session.ErrExpired)
	assert.True(t, session.IsNotFound(err))

	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestManager_TouchExtendsLifetime(t *testing.T) {
	m, _, clock := newTestManager(t)
	ctx := context.Background()

	s, err := m.Create(ctx)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		clock.Advance(20 * time.Hour)
		_, err := m.Get(ctx, s.ID)
		require.NoError(t, err, "read %d", i)
	}
}

func TestManager_Update(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	s, err := m.Create(ctx)
	require.NoError(t, err)

	_, err = m.Update(ctx, s.ID, func(s *session.Session) error {
		s.Debts = append(s.Debts, payoff.DebtAccount{ID: "d1", Category: payoff.CategoryOther})
		return nil
	})
	require.NoError(t, err)

	// A failing update writes nothing
	boom := errors.New("boom")
	_, err = m.Update(ctx, s.ID, func(s *session.Session) error {
		s.Debts = nil
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, got.Debts, 1)
	assert.Equal(t, "d1", got.Debts[0].ID)
}

func TestManager_ConcurrentUpdatesAreNotLost(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	s, err := m.Create(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Update(ctx, s.ID, func(s *session.Session) error {
				s.Debts = append(s.Debts, payoff.DebtAccount{Category: payoff.CategoryOther})
				return nil
			})
			_, _ = m.Get(ctx, s.ID)
		}()
	}
	wg.Wait()

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, got.Debts, 50)
}

func TestManager_CreateSweepsExpired(t *testing.T) {
	m, store, clock := newTestManager(t)
	ctx := context.Background()

	_, err := m.Create(ctx)
	require.NoError(t, err)
	_, err = m.Create(ctx)
	require.NoError(t, err)

	clock.Advance(25 * time.Hour)
	_, err = m.Create(ctx)
	require.NoError(t, err)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the new session survives")
}

func TestManager_GetUnknown(t *testing.T) {
	m, _, _ := newTestManager(t)
	_, err := m.Get(context.Background(), "")
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, err = m.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

// =============================================================================
// SESSION HELPERS
// =============================================================================

func TestSession_DebtHelpers(t *testing.T) {
	s := storetest.Sample("s", time.Now())

	assert.Equal(t, 1, s.FindDebt("loan"))
	assert.Equal(t, -1, s.FindDebt("nope"))

	updated := s.Debts[1]
	updated.Balance = payoff.Money(11000)
	require.NoError(t, s.ReplaceDebt(updated))
	assert.True(t, s.Debts[1].Balance.Equal(payoff.Money(11000)))

	require.NoError(t, s.RemoveDebt("card"))
	require.Len(t, s.Debts, 1)
	assert.Equal(t, "loan", s.Debts[0].ID)

	assert.ErrorIs(t, s.RemoveDebt("card"), session.ErrDebtNotFound)
	assert.ErrorIs(t, s.ReplaceDebt(payoff.DebtAccount{ID: "ghost"}), session.ErrDebtNotFound)
}
