// Package progress provides the per-session progress notification bus.
//
// # Overview
//
// Riddle generation takes wall-clock time; while a generator works it emits
// milestone notes ("charting coordinates", "sharpening the riddle") that
// clients watch in real time over the stream endpoint. The bus carries those
// notes from generator invocations to any number of live listeners.
//
// # Semantics
//
// Delivery is best-effort and at-most-once by design: a note is a liveness
// signal for UI feedback, not a correctness-critical message.
//
//   - No persistence, no replay: a subscriber sees only notes published after
//     Subscribe returns.
//   - No back-pressure: Publish never blocks; slow subscribers drop notes.
//   - Sessions are isolated: a note for session A is never seen by a
//     subscriber of session B.
//   - No cross-invocation ordering guarantee when several generations for one
//     session run concurrently.
//
// # Usage
//
//	bus := progress.NewBus(logger)
//	ch, subID := bus.Subscribe(ctx, sessionID)
//	defer bus.Unsubscribe(sessionID, subID)
//
//	bus.Publish(sessionID, "phase 1 of 3 complete")
package progress
