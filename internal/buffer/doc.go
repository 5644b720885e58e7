// Package buffer implements the per-session prefetch refill controller.
//
// # Overview
//
// Riddle generation is slow; serving should not be. The Refiller hides
// generation latency behind a small lookahead queue per session: it is
// triggered when a session starts and after every pop, and in the background
// it generates and enqueues enough riddles to bring the queue back to the
// target depth.
//
// # Refill Policy
//
// Each trigger runs read-then-act: observe the current depth, compute the
// deficit, generate and push that many riddles. The sequence holds no lock
// across the store, so two near-simultaneous triggers can both see the same
// deficit and jointly overfill the queue. That transient overshoot is accepted
// behavior, favoring liveness and simplicity over a strict depth ceiling.
//
// What is bounded is task fan-out: at most MaxConcurrentRefills refill loops
// run per session, so rapid repeated polling cannot pile up unbounded
// generation work.
//
// # Failure Policy
//
// A failed generation is retried once; if the retry fails the slot is skipped
// with a warning log and a progress note. The buffer self-heals because every
// subsequent pop triggers another refill. Background errors are never
// surfaced to clients and a failing task can never crash the process or leave
// a partially-written riddle in the queue.
package buffer
