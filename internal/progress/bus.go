// ABOUTME: In-memory fan-out bus for riddle generation progress notifications
// ABOUTME: Publishes ephemeral per-session notes to all live stream subscribers

package progress

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// subscriberBufferSize is the channel buffer for each subscriber. A slow
	// SSE client can fall this far behind before notes start dropping.
	subscriberBufferSize = 64
)

// Note is one ephemeral progress notification. Notes are never persisted:
// a note exists only for the instant it is published.
type Note struct {
	SessionID string
	Message   string
	Timestamp time.Time
}

// Bus provides in-memory pub/sub for progress notes. Subscribers register for
// a session ID and receive every note published after their subscription
// returns. One bus instance serves the whole process: every stream connection
// gets its own listener channel multiplexed off the same session key.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]chan *Note // sessionID -> subID -> ch
	logger      *slog.Logger
}

// NewBus creates a bus. Pass nil logger for default.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		subscribers: make(map[string]map[string]chan *Note),
		logger:      logger.With("component", "progress-bus"),
	}
}

// Subscribe registers a subscriber for notes on the given session. Returns a
// channel that receives notes and a subscription ID for later unsubscription.
// The subscription is automatically cleaned up when ctx is cancelled.
func (b *Bus) Subscribe(ctx context.Context, sessionID string) (<-chan *Note, string) {
	subID := uuid.New().String()
	ch := make(chan *Note, subscriberBufferSize)

	b.mu.Lock()
	if _, ok := b.subscribers[sessionID]; !ok {
		b.subscribers[sessionID] = make(map[string]chan *Note)
	}
	b.subscribers[sessionID][subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added",
		"session_id", sessionID,
		"sub_id", subID)

	// Auto-cleanup on context cancellation
	go func() {
		<-ctx.Done()
		b.Unsubscribe(sessionID, subID)
	}()

	return ch, subID
}

// Publish sends a note to all subscribers of the given session.
// Non-blocking: notes are dropped for subscribers whose channels are full,
// and a publish with no subscribers is a no-op.
func (b *Bus) Publish(sessionID, message string) {
	// The read lock must span the sends: Unsubscribe closes channels under
	// the write lock, so sending after releasing the lock could hit a closed
	// channel. The sends never block, so holding the lock here is cheap.
	b.mu.RLock()
	defer b.mu.RUnlock()

	subs, ok := b.subscribers[sessionID]
	if !ok || len(subs) == 0 {
		return
	}

	note := &Note{
		SessionID: sessionID,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}

	for _, ch := range subs {
		select {
		case ch <- note:
			// Sent
		default:
			// Subscriber channel full — drop note for this subscriber
			b.logger.Debug("dropped note for slow subscriber",
				"session_id", sessionID)
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Bus) Unsubscribe(sessionID, subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subscribers[sessionID]
	if !ok {
		return
	}

	ch, exists := subs[subID]
	if !exists {
		return
	}

	delete(subs, subID)
	close(ch)

	// Clean up empty session entries
	if len(subs) == 0 {
		delete(b.subscribers, sessionID)
	}

	b.logger.Debug("subscriber removed",
		"session_id", sessionID,
		"sub_id", subID)
}

// SubscriberCount returns the number of live subscriptions for a session.
func (b *Bus) SubscriberCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[sessionID])
}

// Close shuts down the bus and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sessionID, subs := range b.subscribers {
		for subID, ch := range subs {
			close(ch)
			delete(subs, subID)
		}
		delete(b.subscribers, sessionID)
	}

	b.logger.Debug("bus closed")
}
