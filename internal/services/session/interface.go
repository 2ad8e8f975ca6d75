package session

//go:generate mockgen -package=mocks -destination=mocks/mock_service.go planningpoker/internal/services/session Service

import "context"

// Service defines the command surface the UI layer calls into
type Service interface {
	// CreateSession creates a session with its facilitator as the only user
	CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error)

	// JoinSession adds a participant, resolving the session by ID or room code
	JoinSession(ctx context.Context, input *JoinSessionInput) (*JoinSessionOutput, error)

	// LeaveSession removes a participant; a missing session counts as success
	LeaveSession(ctx context.Context, input *LeaveSessionInput) (*LeaveSessionOutput, error)

	// Vote records a participant's estimate
	Vote(ctx context.Context, input *VoteInput) (*VoteOutput, error)

	// RevealCards exposes all cast votes
	RevealCards(ctx context.Context, input *RevealCardsInput) (*RevealCardsOutput, error)

	// ResetRound clears votes and hides results for a new round
	ResetRound(ctx context.Context, input *ResetRoundInput) (*ResetRoundOutput, error)

	// GetSession fetches a snapshot by ID or room code
	GetSession(ctx context.Context, input *GetSessionInput) (*GetSessionOutput, error)

	// EndSession deletes the session; subscribers receive a gone signal
	EndSession(ctx context.Context, input *EndSessionInput) (*EndSessionOutput, error)

	// Subscribe registers for the session's snapshot feed
	Subscribe(ctx context.Context, input *SubscribeInput) (*SubscribeOutput, error)

	// SetPresence marks a participant online or offline
	SetPresence(ctx context.Context, input *SetPresenceInput) error

	// Heartbeat extends a participant's liveness window
	Heartbeat(ctx context.Context, input *HeartbeatInput) error

	// GetPresence returns the best-effort liveness map for a session
	GetPresence(ctx context.Context, input *GetPresenceInput) (*GetPresenceOutput, error)
}
