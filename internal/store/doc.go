// Package store provides persistent storage for the riddle prefetch buffer
// using SQLite.
//
// # Queue Model
//
// Each session owns an ordered queue of ready-to-serve riddles. The queue is a
// single table keyed by an AUTOINCREMENT position column, so insertion order
// (generation-completion order) is the serving order:
//
//	PushRiddle(ctx, sessionID, r)  // append to tail
//	PopRiddle(ctx, sessionID)      // remove and return head, or ErrQueueEmpty
//	QueueDepth(ctx, sessionID)     // advisory length for refill sizing
//
// Pop runs its select and delete in one transaction, so concurrent pops on the
// same session never hand out the same riddle. QueueDepth is advisory only:
// the refill controller's read-then-act sequence is deliberately not
// transactional, trading strict depth bounds for simplicity and liveness.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// # Error Handling
//
//   - ErrQueueEmpty: the session has nothing to serve (control flow, not failure)
//   - ErrStoreUnavailable: wrapped into every I/O failure; mapped to 503 upstream
//
// All methods accept context.Context for cancellation support.
//
// # Testing
//
// Use NewMockStore() for unit tests; its Fail field injects outages. Use
// NewSQLiteStore(":memory:") for integration tests with real SQLite.
package store
