// ABOUTME: Refill controller that keeps each session's riddle queue at target depth
// ABOUTME: Spawns fire-and-forget refill tasks with a per-session concurrency bound

package buffer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ManishRShetty/atlast-gateway/internal/riddle"
	"github.com/ManishRShetty/atlast-gateway/internal/store"
)

// Refiller tops up per-session riddle queues toward a target depth. It is
// triggered on session start and after every pop; triggers are fire-and-forget
// and the caller never waits for generation.
//
// The depth check and the generate-push loop are deliberately not serialized:
// two near-simultaneous triggers can both observe the same deficit and jointly
// overshoot the target. That overshoot is benign and documented behavior; the
// only hard bound is on how many refill loops may run per session at once.
type Refiller struct {
	store       store.Store
	generator   riddle.Generator
	bus         riddle.Publisher
	targetDepth int
	maxPerSess  int
	logger      *slog.Logger

	mu       sync.Mutex
	inflight map[string]int

	tasks sync.WaitGroup
}

// Config holds Refiller construction parameters.
type Config struct {
	Store     store.Store
	Generator riddle.Generator
	Bus       riddle.Publisher
	// TargetDepth is the steady-state number of ready riddles per session.
	TargetDepth int
	// MaxConcurrentRefills bounds simultaneous refill loops per session.
	MaxConcurrentRefills int
	Logger               *slog.Logger
}

// New creates a Refiller. TargetDepth defaults to 3 and
// MaxConcurrentRefills to 2 when unset.
func New(cfg Config) *Refiller {
	if cfg.TargetDepth <= 0 {
		cfg.TargetDepth = 3
	}
	if cfg.MaxConcurrentRefills <= 0 {
		cfg.MaxConcurrentRefills = 2
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Refiller{
		store:       cfg.Store,
		generator:   cfg.Generator,
		bus:         cfg.Bus,
		targetDepth: cfg.TargetDepth,
		maxPerSess:  cfg.MaxConcurrentRefills,
		logger:      logger.With("component", "refiller"),
		inflight:    make(map[string]int),
	}
}

// TargetDepth returns the configured steady-state queue depth.
func (r *Refiller) TargetDepth() int {
	return r.targetDepth
}

// EnsureFilled schedules a background refill for the session and returns
// immediately. If the session already has the maximum number of refill loops
// in flight, the trigger is dropped: whatever is already running will cover
// the deficit those loops observed.
//
// Errors inside the background task are logged and swallowed; they never
// reach a client and never crash the host process.
func (r *Refiller) EnsureFilled(sessionID string) {
	if !r.acquire(sessionID) {
		r.logger.Debug("refill trigger dropped, session saturated", "session_id", sessionID)
		return
	}

	r.tasks.Add(1)
	go func() {
		defer r.tasks.Done()
		defer r.release(sessionID)
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error("refill task panicked", "session_id", sessionID, "panic", rec)
			}
		}()

		// Background context: refills are not cancellable once started
		r.fill(context.Background(), sessionID)
	}()
}

// Wait blocks until all in-flight refill tasks complete. Intended for
// graceful shutdown and tests.
func (r *Refiller) Wait() {
	r.tasks.Wait()
}

// acquire reserves a refill slot for the session, returning false at the bound.
func (r *Refiller) acquire(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.inflight[sessionID] >= r.maxPerSess {
		return false
	}
	r.inflight[sessionID]++
	return true
}

// release frees a refill slot for the session.
func (r *Refiller) release(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.inflight[sessionID]--
	if r.inflight[sessionID] <= 0 {
		delete(r.inflight, sessionID)
	}
}

// fill reads the current depth and generates enough riddles to cover the
// deficit observed at that instant.
func (r *Refiller) fill(ctx context.Context, sessionID string) {
	depth, err := r.store.QueueDepth(ctx, sessionID)
	if err != nil {
		r.logger.Warn("refill aborted, depth unavailable", "session_id", sessionID, "error", err)
		return
	}

	deficit := r.targetDepth - depth
	if deficit <= 0 {
		return
	}

	r.logger.Debug("refilling session", "session_id", sessionID, "depth", depth, "deficit", deficit)

	for i := 0; i < deficit; i++ {
		if err := r.fillSlot(ctx, sessionID); err != nil {
			// Skip the slot: the next pop re-triggers a refill, so the
			// buffer self-heals rather than permanently under-filling.
			r.logger.Warn("refill slot failed",
				"session_id", sessionID,
				"slot", i+1,
				"deficit", deficit,
				"error", err,
			)
			r.bus.Publish(sessionID, "riddle generation failed, will retry on next request")
		}
	}
}

// fillSlot generates one riddle and pushes it, retrying the generation once
// on failure. A riddle is only pushed whole: a failed generation never leaves
// a partial item in the queue.
func (r *Refiller) fillSlot(ctx context.Context, sessionID string) error {
	item, err := r.generator.Generate(ctx, sessionID)
	if err != nil {
		r.logger.Debug("generation failed, retrying slot", "session_id", sessionID, "error", err)
		item, err = r.generator.Generate(ctx, sessionID)
		if err != nil {
			return err
		}
	}

	return r.store.PushRiddle(ctx, sessionID, item)
}
