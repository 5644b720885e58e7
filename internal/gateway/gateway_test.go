// ABOUTME: Tests for gateway construction, lifecycle, and generator selection.
// ABOUTME: Verifies Run/Shutdown behavior with a real listener and in-memory store.

package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManishRShetty/atlast-gateway/internal/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.HTTPAddr = "127.0.0.1:0"
	cfg.Database.Path = ":memory:"
	cfg.Buffer.TargetDepth = 3
	cfg.Buffer.MaxConcurrentRefills = 2
	cfg.Buffer.RetryAfter = 2 * time.Second
	cfg.Generator.Mode = "phased"
	cfg.Generator.Phases = 1
	cfg.Generator.PhaseDelay = time.Millisecond
	cfg.Sessions.IdleTimeout = time.Hour
	return cfg
}

func TestNew_WiresComponents(t *testing.T) {
	gw, err := New(testConfig(), slog.Default())
	require.NoError(t, err)

	assert.NotNil(t, gw.store)
	assert.NotNil(t, gw.bus)
	assert.NotNil(t, gw.refiller)
	assert.NotNil(t, gw.sessions)
	assert.NotNil(t, gw.httpServer)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, gw.Shutdown(ctx))
}

func TestNew_UnknownGeneratorMode(t *testing.T) {
	cfg := testConfig()
	cfg.Generator.Mode = "psychic"

	_, err := New(cfg, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown generator mode")
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Server.HTTPAddr = "127.0.0.1:0"

	gw, err := New(cfg, slog.Default())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())

	done := make(chan error, 1)
	go func() {
		done <- gw.Run(ctx)
	}()

	// Give the server a moment to bind, then cancel.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err, "Run should return nil on graceful shutdown")
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}

func TestGameFlow_EndToEnd(t *testing.T) {
	gw, _, _ := newTestGateway(t)
	sessionID := gw.sessions.Start()

	srv := newTestServer(t, gw)

	// Wait for the buffer to prime.
	gw.refiller.Wait()

	resp, err := http.Get(fmt.Sprintf("%s/question/%s", srv, sessionID))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLateSubscriberSeesNoHistory(t *testing.T) {
	gw, _, _ := newTestGateway(t)
	sessionID := gw.sessions.Start()
	gw.refiller.Wait()

	// All priming notes were published before anyone subscribed; a fresh
	// subscriber must start with an empty channel.
	notes, subID := gw.bus.Subscribe(t.Context(), sessionID)
	defer gw.bus.Unsubscribe(sessionID, subID)

	select {
	case note := <-notes:
		t.Fatalf("expected no replayed notes, got %q", note.Message)
	case <-time.After(50 * time.Millisecond):
	}
}

// newTestServer starts an httptest server over the gateway routes and returns
// its base URL.
func newTestServer(t *testing.T, gw *Gateway) string {
	t.Helper()
	srv := httptest.NewServer(gw.routes())
	t.Cleanup(srv.Close)
	return srv.URL
}
