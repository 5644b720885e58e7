// ABOUTME: Store interface and data types for atlast-gateway persistence
// ABOUTME: Defines the Riddle struct and the per-session FIFO queue contract

package store

import (
	"context"
	"errors"
	"time"
)

// ErrQueueEmpty is returned by PopRiddle when a session has no queued riddles.
// It is a control-flow signal, not a failure: the HTTP layer translates it into
// a "still processing" response.
var ErrQueueEmpty = errors.New("riddle queue empty")

// ErrStoreUnavailable is returned (wrapped) when the backing store cannot be
// reached. Callers surface it as a service-unavailable condition and must not
// retry silently.
var ErrStoreUnavailable = errors.New("store unavailable")

// Riddle is one ready-to-serve content item. It is owned by its session's
// queue until popped; after a successful pop the row is gone and ownership
// transfers to the requesting client.
type Riddle struct {
	ID         string  `json:"id"`
	SessionID  string  `json:"session_id"`
	Question   string  `json:"question"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Difficulty string  `json:"difficulty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Store defines the per-session riddle queue. Push and Pop are atomic with
// respect to concurrent calls on the same session; QueueDepth is advisory
// only (the read-then-act refill sequence is deliberately not transactional).
type Store interface {
	// PushRiddle appends a riddle to the tail of the session's queue.
	PushRiddle(ctx context.Context, sessionID string, r *Riddle) error

	// PopRiddle atomically removes and returns the head of the session's
	// queue. Returns ErrQueueEmpty if there is nothing to serve. Never blocks
	// waiting for an item.
	PopRiddle(ctx context.Context, sessionID string) (*Riddle, error)

	// QueueDepth returns the current queue length for the session.
	QueueDepth(ctx context.Context, sessionID string) (int, error)

	// PurgeSession deletes every queued riddle for a session and returns the
	// number of rows removed. Used by idle-session eviction.
	PurgeSession(ctx context.Context, sessionID string) (int, error)

	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
