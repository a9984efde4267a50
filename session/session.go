/*
Package session keeps the per-visitor working set: debts and financial
context, keyed by an opaque token.

PURPOSE:
  There are no user accounts. A visitor gets a random session ID, sends it
  back in the X-Session-Id header, and everything they enter lives under
  that ID until it goes idle for longer than the timeout.

KEY CONCEPTS:
  - Session: The data owned by one token
  - Store:   Persistence (memory, SQLite, PostgreSQL, Redis)
  - Manager: Expiry, touch-on-read, serialized updates

EXPIRY:
  A session expires when now - LastAccessedAt > timeout (default 24h).
  Every successful Get refreshes LastAccessedAt. Expired sessions are
  deleted lazily on Get and eagerly by Sweep (Create also sweeps).

COPY SEMANTICS:
  Stores never hand out pointers to their internal state. Get returns a
  deep copy; Put stores a deep copy. Callers mutate freely and Put back.

SEE ALSO:
  - manager.go: Manager
  - memory.go: In-memory Store
  - store/sqlite, store/postgres, store/redis: Durable stores
*/
package session

import (
	"context"
	"errors"
	"time"

	"github.com/pathlight/debt-engine/payoff"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned when no session exists for an ID.
	ErrNotFound = errors.New("session not found")

	// ErrExpired is returned by Manager.Get for a session past its timeout.
	// The session is deleted before returning.
	ErrExpired = errors.New("session expired")

	// ErrDebtNotFound is returned when a debt ID is not in the session.
	ErrDebtNotFound = errors.New("debt not found")
)

// IsNotFound reports whether err means the session is gone.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrExpired)
}

// =============================================================================
// SESSION
// =============================================================================

// Session is everything one visitor has entered.
type Session struct {
	ID               string                   `json:"id"`
	CreatedAt        time.Time                `json:"created_at"`
	LastAccessedAt   time.Time                `json:"last_accessed_at"`
	FinancialContext *payoff.FinancialContext `json:"financial_context,omitempty"`
	Debts            []payoff.DebtAccount     `json:"debts"`
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.FinancialContext = s.FinancialContext.Clone()
	c.Debts = payoff.CloneAccounts(s.Debts)
	if c.Debts == nil {
		c.Debts = []payoff.DebtAccount{}
	}
	return &c
}

// FindDebt returns the index of a debt, or -1.
func (s *Session) FindDebt(id string) int {
	for i, d := range s.Debts {
		if d.ID == id {
			return i
		}
	}
	return -1
}

// ReplaceDebt swaps in d for the debt with the same ID.
func (s *Session) ReplaceDebt(d payoff.DebtAccount) error {
	i := s.FindDebt(d.ID)
	if i < 0 {
		return ErrDebtNotFound
	}
	s.Debts[i] = d
	return nil
}

// RemoveDebt deletes a debt, keeping the order of the rest.
func (s *Session) RemoveDebt(id string) error {
	i := s.FindDebt(id)
	if i < 0 {
		return ErrDebtNotFound
	}
	s.Debts = append(s.Debts[:i], s.Debts[i+1:]...)
	return nil
}

// =============================================================================
// STORE
// =============================================================================

// Store persists sessions. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns a copy of the session, or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Put inserts or replaces a session.
	Put(ctx context.Context, s *Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// SweepExpired deletes sessions last accessed before cutoff and
	// returns how many were removed.
	SweepExpired(ctx context.Context, cutoff time.Time) (int, error)

	// Count returns the number of stored sessions.
	Count(ctx context.Context) (int, error)
}
