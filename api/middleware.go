/*
middleware.go - CORS policy, session gate and rate limiting

CORS:
  Origins come from FRONTEND_URL (comma separated) or a default list of
  local dev servers plus the hosted frontend. On top of that list:
  - production:  any https://*.onrender.com origin
  - development: any http://localhost:<port> or http://127.0.0.1:<port>
  Requests without an Origin header (curl, mobile apps) are not CORS
  requests and pass through.

SESSION GATE:
  requireSession reads X-Session-Id, loads the session through the Manager
  (which refreshes its last-access time) and stores it in the request
  context. Missing or expired sessions get 401. OPTIONS preflights skip the
  gate.

RATE LIMITING:
  Token bucket per client IP, used on endpoints that call paid external
  APIs (guidance).

SEE ALSO:
  - server.go: Where these are mounted
*/
package api

import (
	"context"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/cors"
	"github.com/pathlight/debt-engine/session"
)

// =============================================================================
// CORS
// =============================================================================

// DefaultOrigins is used when no FRONTEND_URL is configured.
var DefaultOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5137",
	"http://localhost:3000",
	"https://debt-payoff-optimizer.onrender.com",
}

// CORSConfig controls which browser origins may call the API.
type CORSConfig struct {
	AllowedOrigins []string
	Production     bool
}

// Allows reports whether origin may call the API.
func (c CORSConfig) Allows(origin string) bool {
	if origin == "" {
		return true
	}
	allowed := c.AllowedOrigins
	if len(allowed) == 0 {
		allowed = DefaultOrigins
	}
	for _, o := range allowed {
		if o == origin {
			return true
		}
	}

	if c.Production {
		if strings.HasPrefix(origin, "https://") && strings.HasSuffix(origin, ".onrender.com") {
			return true
		}
	} else {
		if strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:") {
			return true
		}
	}

	log.Printf("[CORS] origin %q not allowed", origin)
	return false
}

func corsHandler(c CORSConfig) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return c.Allows(origin)
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", sessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// ParseOrigins splits a comma separated origin list.
func ParseOrigins(raw string) []string {
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// =============================================================================
// SESSION GATE
// =============================================================================

const sessionHeader = "X-Session-Id"

type ctxKey int

const sessionKey ctxKey = iota

func requireSession(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			id := r.Header.Get(sessionHeader)
			if id == "" {
				writeErrorMessage(w, http.StatusUnauthorized, "Session ID required",
					"Please provide a session ID in the X-Session-Id header", nil)
				return
			}

			s, err := sessions.Get(r.Context(), id)
			if session.IsNotFound(err) {
				writeErrorMessage(w, http.StatusUnauthorized, "Invalid or expired session",
					"Your session has expired or is invalid. Please create a new session.", nil)
				return
			}
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to load session", err)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, s)))
		})
	}
}

// currentSession returns the session loaded by requireSession.
func currentSession(r *http.Request) *session.Session {
	s, _ := r.Context().Value(sessionKey).(*session.Session)
	return s
}

// =============================================================================
// RATE LIMITING
// =============================================================================

const (
	bucketCleanupThreshold = 1 * time.Hour
	cleanupInterval        = 30 * time.Minute
)

type clientBucket struct {
	tokens     int
	lastRefill time.Time
}

// RateLimiter grants each client capacity requests per refill window.
type RateLimiter struct {
	mu          sync.Mutex
	capacity    int
	refillDur   time.Duration
	clients     map[string]*clientBucket
	now         func() time.Time
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// NewRateLimiter starts a limiter and its cleanup goroutine. Call Stop on shutdown.
func NewRateLimiter(capacity int, refillDur time.Duration) *RateLimiter {
	rl := &RateLimiter{
		capacity:    capacity,
		refillDur:   refillDur,
		clients:     make(map[string]*clientBucket),
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for ip, bucket := range rl.clients {
		if now.Sub(bucket.lastRefill) > bucketCleanupThreshold {
			delete(rl.clients, ip)
		}
	}
}

// Stop ends the cleanup goroutine. Safe to call more than once.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

// Allow takes one token for client and reports whether one was available.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	bucket, exists := rl.clients[client]
	if !exists {
		rl.clients[client] = &clientBucket{tokens: rl.capacity - 1, lastRefill: now}
		return true
	}

	if now.Sub(bucket.lastRefill) >= rl.refillDur {
		bucket.tokens = rl.capacity
		bucket.lastRefill = now
	}
	if bucket.tokens <= 0 {
		return false
	}
	bucket.tokens--
	return true
}

// Middleware rejects over-limit clients with 429.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !rl.Allow(ip) {
			writeErrorMessage(w, http.StatusTooManyRequests, "Rate limit exceeded",
				"Too many requests, please wait a moment and try again", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
