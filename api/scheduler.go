/*
scheduler.go - Periodic expired-session sweeper

PURPOSE:
  Sessions expire after a period of inactivity. Expired sessions are
  already rejected on access and swept opportunistically on create; this
  scheduler also removes them on a fixed interval so idle servers do not
  hold stale data.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Each tick calls Manager.Sweep and logs how many sessions went away
  - Stores with native expiry (redis) report zero and that is fine

CONFIGURATION:
  - CheckInterval: How often to sweep (default: 1 hour)
  - Enabled: Whether the sweeper is active (default: true)

USAGE:
  sweeper := NewSessionSweeper(manager)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - session/manager.go: Sweep
*/
package api

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/pathlight/debt-engine/session"
)

// SessionSweeper periodically deletes expired sessions.
type SessionSweeper struct {
	Sessions      *session.Manager
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewSessionSweeper creates a sweeper with the default interval.
func NewSessionSweeper(sessions *session.Manager) *SessionSweeper {
	return &SessionSweeper{
		Sessions:      sessions,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
	}
}

// Start begins the sweeper.
func (ss *SessionSweeper) Start() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if !ss.Enabled {
		log.Println("[Sweeper] Disabled, not starting")
		return
	}
	if ss.ticker != nil {
		return
	}

	ss.ticker = time.NewTicker(ss.CheckInterval)
	ss.stop = make(chan struct{})
	ss.wg.Add(1)

	go ss.run(ss.ticker, ss.stop)

	log.Printf("[Sweeper] Started with check interval: %v", ss.CheckInterval)
}

// Stop stops the sweeper and waits for an in-flight sweep to finish.
func (ss *SessionSweeper) Stop() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.ticker != nil {
		ss.ticker.Stop()
		close(ss.stop)
		ss.wg.Wait()
		ss.ticker = nil
		log.Println("[Sweeper] Stopped")
	}
}

func (ss *SessionSweeper) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer ss.wg.Done()

	for {
		select {
		case <-ticker.C:
			ss.RunNow()
		case <-stop:
			return
		}
	}
}

// RunNow performs one sweep immediately and returns the number removed.
func (ss *SessionSweeper) RunNow() int {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := ss.Sessions.Sweep(ctx)
	if err != nil {
		log.Printf("[Sweeper] Error sweeping sessions: %v", err)
		return 0
	}
	if removed > 0 {
		log.Printf("[Sweeper] Removed %d expired session(s)", removed)
	}
	return removed
}
