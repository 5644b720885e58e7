// ABOUTME: Session lifecycle service that mints IDs and kicks off the first refill
// ABOUTME: Session state lives in the store and progress bus, never in this process

package session

import (
	"log/slog"

	"github.com/google/uuid"
)

// RefillTrigger schedules a background refill for a session.
// *buffer.Refiller satisfies this interface.
type RefillTrigger interface {
	EnsureFilled(sessionID string)
}

// Service creates sessions. Starting a session is cheap and synchronous: the
// expensive work (filling the buffer) happens in the background, so the ID is
// returned before any riddle is ready.
type Service struct {
	registry *Registry
	refiller RefillTrigger
	logger   *slog.Logger
}

// NewService creates a session service.
func NewService(registry *Registry, refiller RefillTrigger, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry: registry,
		refiller: refiller,
		logger:   logger.With("component", "session"),
	}
}

// Start mints a fresh session ID, registers it, triggers the first refill in
// the background, and returns immediately.
func (s *Service) Start() string {
	id := uuid.New().String()

	s.registry.Touch(id)
	s.refiller.EnsureFilled(id)

	s.logger.Info("session started", "session_id", id)
	return id
}

// Touch records client activity for a session.
func (s *Service) Touch(sessionID string) {
	s.registry.Touch(sessionID)
}
