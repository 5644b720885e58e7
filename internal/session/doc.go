// Package session owns session identity and lifetime.
//
// A session is an isolated instance of the prefetch pipeline, identified by a
// UUID. It carries no stored record of its own: its state is the riddle queue
// in the store and its channel on the progress bus.
//
// The Registry makes session lifetime explicit where the rest of the system
// treats it as implicit: every request touches the registry, and sessions
// with no activity past the idle timeout are evicted, purging their queued
// riddles so abandoned buffers do not accumulate forever. Eviction is
// advisory — an evicted ID that comes back is simply re-registered and
// refilled, preserving the implicit-existence behavior clients observe.
package session
