// ABOUTME: Tests for HTTP API handlers covering session start, question fetch, and SSE.
// ABOUTME: Verifies the pop-then-top-up flow, pending responses, and stream cleanup.

package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"log/slog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManishRShetty/atlast-gateway/internal/buffer"
	"github.com/ManishRShetty/atlast-gateway/internal/config"
	"github.com/ManishRShetty/atlast-gateway/internal/progress"
	"github.com/ManishRShetty/atlast-gateway/internal/session"
	"github.com/ManishRShetty/atlast-gateway/internal/store"
)

// stubGenerator produces canned riddles instantly. The first failAfter calls
// can be made to fail for error-path tests.
type stubGenerator struct {
	bus   *progress.Bus
	calls atomic.Int64
	fail  atomic.Int64
}

func (s *stubGenerator) Generate(ctx context.Context, sessionID string) (*store.Riddle, error) {
	n := s.calls.Add(1)
	if n <= s.fail.Load() {
		return nil, errors.New("generation failed")
	}
	if s.bus != nil {
		s.bus.Publish(sessionID, "locating a city")
	}
	return &store.Riddle{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Question:   "I straddle two continents across a famous strait. Where am I?",
		Latitude:   41.0082,
		Longitude:  28.9784,
		Difficulty: "medium",
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func newTestGateway(t *testing.T) (*Gateway, *store.MockStore, *stubGenerator) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelError}))

	cfg := &config.Config{}
	cfg.Server.HTTPAddr = "127.0.0.1:0"
	cfg.Buffer.TargetDepth = 3
	cfg.Buffer.MaxConcurrentRefills = 2
	cfg.Buffer.RetryAfter = 2 * time.Second

	mock := store.NewMockStore()
	bus := progress.NewBus(logger)
	gen := &stubGenerator{bus: bus}

	refiller := buffer.New(buffer.Config{
		Store:                mock,
		Generator:            gen,
		Bus:                  bus,
		TargetDepth:          cfg.Buffer.TargetDepth,
		MaxConcurrentRefills: cfg.Buffer.MaxConcurrentRefills,
		Logger:               logger,
	})

	registry := session.NewRegistry(time.Hour, mock, logger)
	t.Cleanup(registry.Close)

	gw := &Gateway{
		config:   cfg,
		store:    mock,
		bus:      bus,
		refiller: refiller,
		registry: registry,
		sessions: session.NewService(registry, refiller, logger),
		logger:   logger,
	}
	return gw, mock, gen
}

// testWriter routes log output through t.Log so failures show context.
type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func TestHandleStartSession_CreatesSessionAndPrimesBuffer(t *testing.T) {
	gw, mock, _ := newTestGateway(t)

	req := httptest.NewRequest(http.MethodPost, "/session/start", nil)
	rec := httptest.NewRecorder()

	gw.handleStartSession(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp StartSessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "preparing", resp.Status)
	_, err := uuid.Parse(resp.SessionID)
	assert.NoError(t, err, "session_id should be a valid UUID")

	// Priming runs in the background; wait for it to finish.
	gw.refiller.Wait()

	depth, err := mock.QueueDepth(t.Context(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, 3, depth)
}

func TestHandleStartSession_MethodNotAllowed(t *testing.T) {
	gw, _, _ := newTestGateway(t)

	req := httptest.NewRequest(http.MethodGet, "/session/start", nil)
	rec := httptest.NewRecorder()

	gw.handleStartSession(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleQuestion_EmptyQueueReturns202ThenRiddle(t *testing.T) {
	gw, _, _ := newTestGateway(t)
	sessionID := uuid.New().String()

	req := httptest.NewRequest(http.MethodGet, "/question/"+sessionID, nil)
	rec := httptest.NewRecorder()

	gw.handleQuestion(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))

	var pending PendingResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pending))
	assert.NotEmpty(t, pending.Detail)

	// The miss triggered a refill; once it completes the retry succeeds.
	gw.refiller.Wait()

	rec = httptest.NewRecorder()
	gw.handleQuestion(rec, httptest.NewRequest(http.MethodGet, "/question/"+sessionID, nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var riddle store.Riddle
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&riddle))
	assert.NotEmpty(t, riddle.Question)
	assert.Equal(t, sessionID, riddle.SessionID)
}

func TestHandleQuestion_ReturnsRiddlesInOrder(t *testing.T) {
	gw, mock, _ := newTestGateway(t)
	sessionID := uuid.New().String()

	for _, id := range []string{"first", "second", "third"} {
		err := mock.PushRiddle(t.Context(), sessionID, &store.Riddle{
			ID:        id,
			SessionID: sessionID,
			Question:  "where?",
			CreatedAt: time.Now().UTC(),
		})
		require.NoError(t, err)
	}

	for _, want := range []string{"first", "second"} {
		rec := httptest.NewRecorder()
		gw.handleQuestion(rec, httptest.NewRequest(http.MethodGet, "/question/"+sessionID, nil))

		require.Equal(t, http.StatusOK, rec.Code)

		var riddle store.Riddle
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&riddle))
		assert.Equal(t, want, riddle.ID)
	}
}

func TestHandleQuestion_PopTriggersTopUp(t *testing.T) {
	gw, mock, _ := newTestGateway(t)
	sessionID := uuid.New().String()

	gw.refiller.EnsureFilled(sessionID)
	gw.refiller.Wait()

	rec := httptest.NewRecorder()
	gw.handleQuestion(rec, httptest.NewRequest(http.MethodGet, "/question/"+sessionID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	gw.refiller.Wait()

	depth, err := mock.QueueDepth(t.Context(), sessionID)
	require.NoError(t, err)
	assert.Equal(t, 3, depth, "buffer should be back at target depth after a pop")
}

func TestHandleQuestion_StoreOutageReturns503(t *testing.T) {
	gw, mock, _ := newTestGateway(t)
	sessionID := uuid.New().String()

	mock.SetFail(store.ErrStoreUnavailable)

	rec := httptest.NewRecorder()
	gw.handleQuestion(rec, httptest.NewRequest(http.MethodGet, "/question/"+sessionID, nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var errResp map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "riddle store unavailable", errResp["error"])
}

func TestHandleQuestion_InvalidSessionID(t *testing.T) {
	gw, _, _ := newTestGateway(t)

	tests := []struct {
		name string
		path string
	}{
		{name: "missing id", path: "/question/"},
		{name: "not a uuid", path: "/question/not-a-uuid"},
		{name: "nested path", path: "/question/abc/def"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			gw.handleQuestion(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleQuestion_MethodNotAllowed(t *testing.T) {
	gw, _, _ := newTestGateway(t)

	rec := httptest.NewRecorder()
	gw.handleQuestion(rec, httptest.NewRequest(http.MethodPost, "/question/"+uuid.New().String(), nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleStream_DeliversProgressNotes(t *testing.T) {
	gw, _, _ := newTestGateway(t)
	sessionID := uuid.New().String()

	srv := httptest.NewServer(gw.routes())
	defer srv.Close()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream/"+sessionID, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)

	// The handler writes a comment once the subscription is live.
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	gw.bus.Publish(sessionID, "checked the atlas")

	var eventLine, dataLine string
	for eventLine == "" || dataLine == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			eventLine = strings.TrimSpace(line)
		case strings.HasPrefix(line, "data: "):
			dataLine = strings.TrimSpace(line)
		}
	}

	assert.Equal(t, "event: log", eventLine)

	var payload SSEEvent
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(dataLine, "data: ")), &payload))
	assert.Equal(t, "log", payload.Event)
	assert.Equal(t, "checked the atlas", payload.Data)
}

func TestHandleStream_UnsubscribesOnDisconnect(t *testing.T) {
	gw, _, _ := newTestGateway(t)
	sessionID := uuid.New().String()

	srv := httptest.NewServer(gw.routes())
	defer srv.Close()

	ctx, cancel := context.WithCancel(t.Context())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/stream/"+sessionID, nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	// Confirm the subscription registered before disconnecting.
	require.Eventually(t, func() bool {
		return gw.bus.SubscriberCount(sessionID) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	resp.Body.Close()

	require.Eventually(t, func() bool {
		return gw.bus.SubscriberCount(sessionID) == 0
	}, time.Second, 10*time.Millisecond, "subscriber should be removed after disconnect")
}

func TestHandleStream_InvalidSessionID(t *testing.T) {
	gw, _, _ := newTestGateway(t)

	rec := httptest.NewRecorder()
	gw.handleStream(rec, httptest.NewRequest(http.MethodGet, "/stream/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	gw, _, _ := newTestGateway(t)

	rec := httptest.NewRecorder()
	gw.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleReady(t *testing.T) {
	gw, mock, _ := newTestGateway(t)

	rec := httptest.NewRecorder()
	gw.handleReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	mock.SetFail(store.ErrStoreUnavailable)

	rec = httptest.NewRecorder()
	gw.handleReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
