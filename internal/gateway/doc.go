// Package gateway wires the riddle pipeline together and serves the HTTP API.
//
// # Overview
//
// The Gateway owns every long-lived component: the SQLite-backed riddle
// store, the in-memory progress bus, the buffer refiller, and the session
// registry. A single HTTP server exposes three game endpoints plus health
// checks.
//
// # Endpoints
//
//	POST /session/start        mint a session and start priming its buffer
//	GET  /question/{sessionId}  pop the next riddle (202 + Retry-After when empty)
//	GET  /stream/{sessionId}    SSE stream of generation progress notes
//	GET  /health               liveness
//	GET  /health/ready         readiness (store ping)
//
// # Request Flow
//
// Starting a session returns immediately with a fresh UUID while the
// refiller fills the session's queue in the background. Fetching a question
// pops the queue head and triggers an async top-up, so the buffer converges
// back to its target depth between requests. An empty queue is not an
// error: the client gets 202 with a Retry-After hint and the miss itself
// kicks off a refill.
//
// # Event Stream
//
// The stream endpoint relays progress notes as SSE "log" events:
//
//	event: log
//	data: {"event":"log","data":"running geography checks (2/3)"}
//
// Notes are ephemeral. Clients that connect late see only notes published
// after they subscribed; there is no replay.
//
// # Serving Modes
//
// The server listens on a plain TCP address by default. With
// tailscale.enabled the gateway joins a tailnet via tsnet instead, serving
// on :80, on :443 with provisioned certs, or publicly via Funnel.
package gateway
