/*
Package redis provides a Redis-backed session.Store.

PURPOSE:
  Sessions are short-lived and idle out after a fixed timeout, which maps
  directly onto Redis key expiry. Selected with
  `pathlight serve --store redis --redis-addr localhost:6379`.

LAYOUT:
  One key per session, "<prefix><id>", holding the JSON-encoded session.
  Every Put resets the key TTL to the session timeout, so a touched
  session lives for another full timeout.

EXPIRY:
  Redis removes idle keys on its own. SweepExpired is a no-op returning 0;
  the Manager still checks LastAccessedAt on every Get.

SEE ALSO:
  - session/session.go: Store interface
*/
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pathlight/debt-engine/payoff"
	"github.com/pathlight/debt-engine/session"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces session keys.
const DefaultPrefix = "pathlight:session:"

// Store implements session.Store on a Redis client.
type Store struct {
	client *goredis.Client
	prefix string
	ttl    time.Duration
}

// New connects to addr and pings it. ttl should match the Manager timeout.
func New(ctx context.Context, addr string, ttl time.Duration) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr: addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return NewWithClient(client, DefaultPrefix, ttl), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *goredis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

// Close closes the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	raw, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var sess session.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	if sess.Debts == nil {
		sess.Debts = []payoff.DebtAccount{}
	}
	return &sess, nil
}

func (s *Store) Put(ctx context.Context, sess *session.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sess.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// SweepExpired relies on key TTLs and never removes anything itself.
func (s *Store) SweepExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Count scans the key prefix. O(keys); used by the health endpoint only.
func (s *Store) Count(ctx context.Context) (int, error) {
	n := 0
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		n++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}
