// ABOUTME: Tests for the phased placeholder generator
// ABOUTME: Covers milestone emission, phase timing, and cancellation

package riddle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher captures published messages for assertions.
type recordingPublisher struct {
	mu       sync.Mutex
	messages []string
	sessions []string
}

func (p *recordingPublisher) Publish(sessionID, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sessions = append(p.sessions, sessionID)
	p.messages = append(p.messages, message)
}

func (p *recordingPublisher) all() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.messages...)
}

func TestPhasedGenerator_ProducesRiddle(t *testing.T) {
	pub := &recordingPublisher{}
	g := NewPhasedGenerator(3, time.Millisecond, pub, nil)

	r, err := g.Generate(context.Background(), "session-1")
	require.NoError(t, err)

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "session-1", r.SessionID)
	assert.NotEmpty(t, r.Question)
	assert.NotZero(t, r.Latitude)
	assert.Contains(t, []string{"easy", "medium", "hard"}, r.Difficulty)
	assert.False(t, r.CreatedAt.IsZero())
}

func TestPhasedGenerator_EmitsOneMilestonePerPhase(t *testing.T) {
	pub := &recordingPublisher{}
	g := NewPhasedGenerator(4, time.Millisecond, pub, nil)

	_, err := g.Generate(context.Background(), "session-1")
	require.NoError(t, err)

	messages := pub.all()
	require.Len(t, messages, 4)
	assert.Contains(t, messages[0], "(1/4)")
	assert.Contains(t, messages[3], "(4/4)")
	for _, sid := range pub.sessions {
		assert.Equal(t, "session-1", sid)
	}
}

func TestPhasedGenerator_TakesAtLeastPhaseDelays(t *testing.T) {
	pub := &recordingPublisher{}
	delay := 20 * time.Millisecond
	g := NewPhasedGenerator(3, delay, pub, nil)

	start := time.Now()
	_, err := g.Generate(context.Background(), "session-1")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 3*delay)
}

func TestPhasedGenerator_HonorsCancellation(t *testing.T) {
	pub := &recordingPublisher{}
	g := NewPhasedGenerator(10, 50*time.Millisecond, pub, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Generate(ctx, "session-1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, pub.all(), "cancelled generation should not emit milestones")
}

func TestPhasedGenerator_MinimumOnePhase(t *testing.T) {
	pub := &recordingPublisher{}
	g := NewPhasedGenerator(0, time.Millisecond, pub, nil)

	_, err := g.Generate(context.Background(), "session-1")
	require.NoError(t, err)
	assert.Len(t, pub.all(), 1)
}

func TestNormalizeDifficulty(t *testing.T) {
	assert.Equal(t, "easy", normalizeDifficulty("Easy"))
	assert.Equal(t, "hard", normalizeDifficulty(" hard "))
	assert.Equal(t, "medium", normalizeDifficulty("fiendish"))
	assert.Equal(t, "medium", normalizeDifficulty(""))
}
