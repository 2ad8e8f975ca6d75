package presence

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go planningpoker/internal/repositories/presence Repository

import (
	"context"

	"planningpoker/internal/models"
)

// Repository tracks per-participant liveness. Presence is best-effort and
// lives outside the session's consistency domain: online records carry a TTL
// so a client that vanishes without saying goodbye decays to offline on its
// own, and nothing here ever gates a session transition.
type Repository interface {
	// SetPresence marks a participant online or offline
	SetPresence(ctx context.Context, input *SetPresenceInput) error

	// Heartbeat extends an online participant's liveness window
	Heartbeat(ctx context.Context, input *HeartbeatInput) error

	// GetPresence returns the presence map for a session, keyed by user ID
	GetPresence(ctx context.Context, input *GetPresenceInput) (map[string]*models.Presence, error)

	// RemovePresence drops a participant's presence record entirely
	RemovePresence(ctx context.Context, input *RemovePresenceInput) error
}
