package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pathlight/debt-engine/payoff"
)

// DefaultTimeout is the idle time after which a session expires.
const DefaultTimeout = 24 * time.Hour

// Manager applies expiry rules on top of a Store. It is constructed once in
// main and shared by every handler.
type Manager struct {
	store   Store
	timeout time.Duration
	now     func() time.Time

	// Serializes read-modify-write cycles so concurrent requests on the
	// same session do not lose each other's changes.
	updateMu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithClock injects the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Timeout returns the idle timeout.
func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

// Create starts a new empty session. Expired sessions are swept first;
// a failed sweep is logged, not returned.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	if n, err := m.Sweep(ctx); err != nil {
		log.Printf("[Session] sweep before create failed: %v", err)
	} else if n > 0 {
		log.Printf("[Session] swept %d expired sessions", n)
	}

	now := m.now().UTC()
	s := &Session{
		ID:             uuid.NewString(),
		CreatedAt:      now,
		LastAccessedAt: now,
		Debts:          []payoff.DebtAccount{},
	}
	if err := m.store.Put(ctx, s); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}
	return s, nil
}

// Get returns a live session and refreshes its last-access time. The touch
// is a write, so it goes through the same path as Update.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	return m.Update(ctx, id, func(*Session) error { return nil })
}

// Update loads a live session, applies fn and stores the result. If fn
// returns an error nothing is written.
func (m *Manager) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	m.updateMu.Lock()
	defer m.updateMu.Unlock()

	s, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	if err := m.store.Put(ctx, s); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return s, nil
}

// Delete removes a session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.store.Delete(ctx, id)
}

// Sweep removes every expired session.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	return m.store.SweepExpired(ctx, m.now().Add(-m.timeout))
}

// ActiveCount returns the number of stored sessions, expired ones that
// have not been swept yet included.
func (m *Manager) ActiveCount(ctx context.Context) (int, error) {
	return m.store.Count(ctx)
}

// load fetches a session, enforces expiry and touches it in memory.
func (m *Manager) load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	if now.Sub(s.LastAccessedAt) > m.timeout {
		if err := m.store.Delete(ctx, id); err != nil {
			log.Printf("[Session] failed to delete expired session %s: %v", id, err)
		}
		return nil, ErrExpired
	}
	s.LastAccessedAt = now
	return s, nil
}
