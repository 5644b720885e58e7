// ABOUTME: HTTP API handlers for session start, question fetch, and SSE progress streaming.
// ABOUTME: Implements the pop-then-top-up flow and the live event stream endpoint.

package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ManishRShetty/atlast-gateway/internal/store"
)

// heartbeatInterval is how often an SSE comment is written to keep
// intermediaries from timing out an idle stream.
const heartbeatInterval = 15 * time.Second

// StartSessionResponse is the JSON response for POST /session/start.
type StartSessionResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// PendingResponse is the JSON response when a question is not yet ready.
type PendingResponse struct {
	Detail string `json:"detail"`
}

// SSEEvent represents a Server-Sent Event payload.
type SSEEvent struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

// handleStartSession handles POST /session/start requests.
// It mints a session ID, registers it, and kicks off buffer priming in the
// background. The response returns immediately; riddle generation continues
// behind the scenes.
func (g *Gateway) handleStartSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sessionID := g.sessions.Start()

	response := StartSessionResponse{
		SessionID: sessionID,
		Status:    "preparing",
		Message:   "session created, riddles are being prepared",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

// handleQuestion handles GET /question/{sessionId} requests.
//
// Responsibilities:
//  1. Extract and validate the session ID from the path
//  2. Touch the session so the idle clock resets
//  3. Pop the head riddle from the session queue
//  4. On an empty queue, trigger a refill and return 202 with Retry-After
//  5. On success, return the riddle and trigger a background top-up
func (g *Gateway) handleQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sessionID, ok := g.sessionIDFromPath(w, r.URL.Path, "/question/")
	if !ok {
		return
	}

	g.sessions.Touch(sessionID)

	riddle, err := g.store.PopRiddle(r.Context(), sessionID)
	if errors.Is(err, store.ErrQueueEmpty) {
		// Nothing ready yet. Kick a refill and tell the client when to retry.
		g.refiller.EnsureFilled(sessionID)
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(g.config.Buffer.RetryAfter.Seconds())))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(PendingResponse{Detail: "riddle not ready yet, retry shortly"})
		return
	}
	if errors.Is(err, store.ErrStoreUnavailable) {
		g.logger.Error("store unavailable", "error", err, "session_id", sessionID)
		g.sendJSONError(w, http.StatusServiceUnavailable, "riddle store unavailable")
		return
	}
	if err != nil {
		g.logger.Error("failed to pop riddle", "error", err, "session_id", sessionID)
		g.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Top up the buffer for the next request before this one even finishes.
	g.refiller.EnsureFilled(sessionID)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(riddle)
}

// handleStream handles GET /stream/{sessionId} requests.
// It subscribes the connection to the session's progress notes and relays
// each note as an SSE "log" event until the client disconnects. Notes are
// ephemeral: a client connecting late sees only notes published after it
// subscribed.
func (g *Gateway) handleStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	sessionID, ok := g.sessionIDFromPath(w, r.URL.Path, "/stream/")
	if !ok {
		return
	}

	flusher, flushable := w.(http.Flusher)
	if !flushable {
		g.logger.Error("streaming not supported")
		g.sendJSONError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	g.sessions.Touch(sessionID)

	notes, subID := g.bus.Subscribe(r.Context(), sessionID)
	defer g.bus.Unsubscribe(sessionID, subID)

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return

		case <-heartbeat.C:
			fmt.Fprint(w, ": heartbeat\n\n")
			flusher.Flush()

		case note, open := <-notes:
			if !open {
				return
			}
			g.writeSSEEvent(w, "log", SSEEvent{Event: "log", Data: note.Message})
			flusher.Flush()
		}
	}
}

// sessionIDFromPath extracts and validates the session ID from a request
// path with the given prefix. Writes an error response and returns false
// when the ID is missing or malformed.
func (g *Gateway) sessionIDFromPath(w http.ResponseWriter, path, prefix string) (string, bool) {
	sessionID := strings.TrimPrefix(path, prefix)
	if sessionID == "" || strings.Contains(sessionID, "/") {
		g.sendJSONError(w, http.StatusBadRequest, "session_id is required")
		return "", false
	}
	if _, err := uuid.Parse(sessionID); err != nil {
		g.sendJSONError(w, http.StatusBadRequest, "invalid session_id format")
		return "", false
	}
	return sessionID, true
}

// writeSSEEvent writes a single SSE event to the response writer.
func (g *Gateway) writeSSEEvent(w http.ResponseWriter, event string, data interface{}) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		g.logger.Error("failed to marshal SSE data", "error", err)
		return
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", dataJSON)
}

// sendJSONError writes a JSON error response.
func (g *Gateway) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
