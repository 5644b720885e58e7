// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite and to inject store outages

package store

import (
	"context"
	"sync"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu     sync.RWMutex
	queues map[string][]*Riddle // keyed by session ID, head at index 0

	// Fail, when non-nil, is returned by every operation. Used to simulate
	// a store outage.
	Fail error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		queues: make(map[string][]*Riddle),
	}
}

// PushRiddle appends a riddle to the session's queue.
func (m *MockStore) PushRiddle(ctx context.Context, sessionID string, r *Riddle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail != nil {
		return m.Fail
	}

	// Copy to avoid external modification
	item := *r
	m.queues[sessionID] = append(m.queues[sessionID], &item)
	return nil
}

// PopRiddle removes and returns the head of the session's queue.
func (m *MockStore) PopRiddle(ctx context.Context, sessionID string) (*Riddle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail != nil {
		return nil, m.Fail
	}

	q := m.queues[sessionID]
	if len(q) == 0 {
		return nil, ErrQueueEmpty
	}

	head := q[0]
	m.queues[sessionID] = q[1:]

	result := *head
	return &result, nil
}

// QueueDepth returns the session's queue length.
func (m *MockStore) QueueDepth(ctx context.Context, sessionID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Fail != nil {
		return 0, m.Fail
	}
	return len(m.queues[sessionID]), nil
}

// PurgeSession deletes the session's queue.
func (m *MockStore) PurgeSession(ctx context.Context, sessionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail != nil {
		return 0, m.Fail
	}

	n := len(m.queues[sessionID])
	delete(m.queues, sessionID)
	return n, nil
}

// Ping reports the injected failure, if any.
func (m *MockStore) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.Fail
}

// Close is a no-op.
func (m *MockStore) Close() error {
	return nil
}

// SetFail atomically sets the injected failure for subsequent operations.
func (m *MockStore) SetFail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Fail = err
}
