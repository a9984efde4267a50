// Package analytics records product events (page views, strategy switches,
// uploads) sent by the dashboard. Events are kept in memory only and the
// oldest are dropped once the tracker is full.
package analytics

import (
	"errors"
	"sync"
	"time"
)

// DefaultCapacity bounds memory use of the tracker.
const DefaultCapacity = 10000

// ErrMissingType is returned by Track when the event has no type.
var ErrMissingType = errors.New("event type is required")

// Event is one tracked event.
type Event struct {
	ID        int64          `json:"id"`
	SessionID string         `json:"session_id"`
	Type      string         `json:"event_type"`
	Data      map[string]any `json:"event_data"`
	Timestamp time.Time      `json:"timestamp"`
}

// Summary aggregates every retained event.
type Summary struct {
	TotalEvents     int            `json:"total_events"`
	UniqueSessions  int            `json:"unique_sessions"`
	EventTypeCounts map[string]int `json:"event_type_counts"`
}

// Tracker is a bounded, concurrency-safe event log.
type Tracker struct {
	mu       sync.RWMutex
	events   []Event
	capacity int
	nextID   int64
	now      func() time.Time
}

// NewTracker creates a tracker that keeps at most capacity events.
// Non-positive capacity means DefaultCapacity.
func NewTracker(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Tracker{capacity: capacity, now: time.Now}
}

// Track appends an event and returns it with its ID and timestamp set.
func (t *Tracker) Track(sessionID, eventType string, data map[string]any) (Event, error) {
	if eventType == "" {
		return Event{}, ErrMissingType
	}
	if data == nil {
		data = map[string]any{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	ev := Event{
		ID:        t.nextID,
		SessionID: sessionID,
		Type:      eventType,
		Data:      data,
		Timestamp: t.now().UTC(),
	}
	t.events = append(t.events, ev)
	if over := len(t.events) - t.capacity; over > 0 {
		// Copy down so the backing array does not grow without bound.
		n := copy(t.events, t.events[over:])
		t.events = t.events[:n]
	}
	return ev, nil
}

// ForSession returns the retained events of one session, oldest first.
func (t *Tracker) ForSession(sessionID string) []Event {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := []Event{}
	for _, ev := range t.events {
		if ev.SessionID == sessionID {
			out = append(out, ev)
		}
	}
	return out
}

// Summary counts retained events by type and session.
func (t *Tracker) Summary() Summary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := Summary{
		TotalEvents:     len(t.events),
		EventTypeCounts: map[string]int{},
	}
	sessions := map[string]struct{}{}
	for _, ev := range t.events {
		s.EventTypeCounts[ev.Type]++
		sessions[ev.SessionID] = struct{}{}
	}
	s.UniqueSessions = len(sessions)
	return s
}
