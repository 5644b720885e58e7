// ABOUTME: Thread-safe registry of active sessions with idle-timeout eviction
// ABOUTME: Evicted sessions have their queued riddles purged from the store

package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ManishRShetty/atlast-gateway/internal/store"
)

// sweepInterval is how often the background sweep looks for idle sessions.
const sweepInterval = time.Minute

// Registry tracks last-activity timestamps for sessions and evicts sessions
// idle past the configured timeout, purging their queued riddles. Sessions
// otherwise exist implicitly: touching an unknown ID registers it, so a
// client that outlives an eviction simply starts a fresh buffer.
type Registry struct {
	mu       sync.RWMutex
	lastSeen map[string]time.Time

	idleTimeout time.Duration
	store       store.Store
	logger      *slog.Logger
	done        chan struct{}
	closed      bool
}

// NewRegistry creates a registry sweeping sessions idle longer than
// idleTimeout. A background goroutine runs the sweep until Close.
func NewRegistry(idleTimeout time.Duration, s store.Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		lastSeen:    make(map[string]time.Time),
		idleTimeout: idleTimeout,
		store:       s,
		logger:      logger.With("component", "session-registry"),
		done:        make(chan struct{}),
	}
	go r.sweep()
	return r
}

// Touch records activity for a session, registering it if unknown.
func (r *Registry) Touch(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSeen[sessionID] = time.Now()
}

// Active reports whether a session is currently registered.
func (r *Registry) Active(sessionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.lastSeen[sessionID]
	return ok
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lastSeen)
}

// sweep runs in a background goroutine, periodically evicting idle sessions.
func (r *Registry) sweep() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictIdle()
		case <-r.done:
			return
		}
	}
}

// evictIdle removes sessions idle past the timeout and purges their queues.
func (r *Registry) evictIdle() {
	now := time.Now()

	r.mu.Lock()
	var expired []string
	for id, seen := range r.lastSeen {
		if now.Sub(seen) > r.idleTimeout {
			expired = append(expired, id)
			delete(r.lastSeen, id)
		}
	}
	r.mu.Unlock()

	// Purge outside the lock: store I/O must not block Touch
	for _, id := range expired {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		purged, err := r.store.PurgeSession(ctx, id)
		cancel()
		if err != nil {
			r.logger.Warn("failed to purge evicted session", "session_id", id, "error", err)
			continue
		}
		r.logger.Info("evicted idle session", "session_id", id, "purged_riddles", purged)
	}
}

// Close stops the background sweep. It is safe to call multiple times.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.closed {
		close(r.done)
		r.closed = true
	}
}
