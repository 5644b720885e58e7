// ABOUTME: Riddle generator interface and the fixed-latency phased generator
// ABOUTME: Generators produce one riddle per call and emit progress milestones

package riddle

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/ManishRShetty/atlast-gateway/internal/store"
)

// Publisher receives progress milestones while a generation is in flight.
// *progress.Bus satisfies this interface.
type Publisher interface {
	Publish(sessionID, message string)
}

// Generator produces one riddle for a session. Implementations take
// non-trivial wall-clock time and may publish progress notes while running.
// A generator never touches the queue: producing and storing are separate
// concerns, and storing belongs to the refill controller.
type Generator interface {
	Generate(ctx context.Context, sessionID string) (*store.Riddle, error)
}

// city is one entry in the built-in riddle pool.
type city struct {
	riddle     string
	lat, lng   float64
	difficulty string
}

// cities is the placeholder riddle pool. In production the oracle generator
// replaces this entirely.
var cities = []city{
	{"Two continents share my streets, and a strait runs through my heart.", 41.0082, 28.9784, "easy"},
	{"I was a fishing village until a canal made me the gateway between two oceans.", 8.9824, -79.5199, "medium"},
	{"My opera house wears sails, though it has never left the harbour.", -33.8688, 151.2093, "easy"},
	{"Founded on a lake by an eagle eating a snake, I now sink a little each year.", 19.4326, -99.1332, "medium"},
	{"I am the highest capital, breathless at the roof of a continent.", -16.4897, -68.1193, "hard"},
	{"A wall once split me in two; a gate now stands where none could pass.", 52.5200, 13.4050, "easy"},
	{"Cherry blossoms crown my castle, and a fish market once fed my millions.", 35.6762, 139.6503, "easy"},
	{"I guard a golden gate, though my gate is painted red.", 37.7749, -122.4194, "easy"},
	{"Carved from rose-red stone, I hid from the world for centuries.", 30.3285, 35.4444, "hard"},
	{"My thousand islands freeze each winter into the world's largest skating rink.", 45.4215, -75.6972, "medium"},
}

// phaseMilestones are the messages published as each generation phase
// completes. The final phase always reports completion.
var phaseMilestones = []string{
	"consulting the atlas",
	"charting coordinates",
	"sharpening the riddle",
	"checking the map twice",
	"polishing the clue",
}

// PhasedGenerator is the placeholder riddle source: several sequential timed
// phases, each publishing one progress note, then a riddle drawn from the
// built-in pool. It simulates the latency profile of the production oracle
// without any external dependency.
type PhasedGenerator struct {
	phases     int
	phaseDelay time.Duration
	publisher  Publisher
	logger     *slog.Logger
}

// NewPhasedGenerator creates a phased generator. phases must be at least 1;
// phaseDelay is the wall-clock pause per phase.
func NewPhasedGenerator(phases int, phaseDelay time.Duration, publisher Publisher, logger *slog.Logger) *PhasedGenerator {
	if phases < 1 {
		phases = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PhasedGenerator{
		phases:     phases,
		phaseDelay: phaseDelay,
		publisher:  publisher,
		logger:     logger.With("component", "generator"),
	}
}

// Generate runs the timed phases and returns one riddle. It honors ctx
// cancellation between phases and publishes one milestone per phase.
func (g *PhasedGenerator) Generate(ctx context.Context, sessionID string) (*store.Riddle, error) {
	for phase := 1; phase <= g.phases; phase++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.phaseDelay):
		}

		g.publisher.Publish(sessionID, fmt.Sprintf("%s (%d/%d)", milestone(phase), phase, g.phases))
	}

	c := cities[rand.IntN(len(cities))]
	r := &store.Riddle{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Question:   c.riddle,
		Latitude:   c.lat,
		Longitude:  c.lng,
		Difficulty: c.difficulty,
		CreatedAt:  time.Now().UTC(),
	}

	g.logger.Debug("generated riddle",
		"riddle_id", r.ID,
		"session_id", sessionID,
		"difficulty", r.Difficulty,
	)
	return r, nil
}

// milestone returns the progress message for a phase, cycling through the
// pool for generators configured with more phases than messages.
func milestone(phase int) string {
	return phaseMilestones[(phase-1)%len(phaseMilestones)]
}
