package session

import (
	"planningpoker/internal/common/roomcode"
	"planningpoker/internal/common/uuid"
	"planningpoker/internal/models"
	"planningpoker/internal/notifier"
	presenceRepo "planningpoker/internal/repositories/presence"
	sessionRepo "planningpoker/internal/repositories/session"
)

// Config holds configuration for the session service
type Config struct {
	// RoomCodeAttempts bounds unique-code generation; defaults to 10
	RoomCodeAttempts int

	// Repository dependencies
	SessionRepo  sessionRepo.Repository
	PresenceRepo presenceRepo.Repository

	// Service dependencies
	Notifier      notifier.Notifier
	UUIDGenerator uuid.UUID
	CodeGenerator roomcode.Generator
}

// CreateSessionInput contains parameters for creating a session
type CreateSessionInput struct {
	// Name is the session's display label
	Name string

	// DeckType fixes the legal vote values for the session's lifetime
	DeckType models.DeckType

	// FacilitatorName is the display name of the creating participant
	FacilitatorName string
}

// CreateSessionOutput contains the created session
type CreateSessionOutput struct {
	// Session is the snapshot as persisted
	Session *models.Session

	// Facilitator is the creating participant's user record
	Facilitator *models.User
}

// JoinSessionInput contains parameters for joining a session
type JoinSessionInput struct {
	// IDOrRoomCode is either the session ID or the 6-character room code;
	// code lookup is case-insensitive
	IDOrRoomCode string

	// UserName is the joining participant's display name
	UserName string

	// Role is voter or observer; facilitator is assigned only at creation
	Role models.UserRole
}

// JoinSessionOutput contains the result of joining
type JoinSessionOutput struct {
	// Session is the snapshot after the join
	Session *models.Session

	// User is the joining participant's user record
	User *models.User
}

// LeaveSessionInput contains parameters for leaving a session
type LeaveSessionInput struct {
	SessionID string
	UserID    string
}

// LeaveSessionOutput contains the result of leaving
type LeaveSessionOutput struct {
	// Success indicates the user is no longer in the session
	Success bool
}

// VoteInput contains parameters for casting a vote
type VoteInput struct {
	SessionID string
	UserID    string

	// Value must belong to the session's deck
	Value string
}

// VoteOutput contains the snapshot after the vote
type VoteOutput struct {
	Session *models.Session
}

// RevealCardsInput contains parameters for revealing votes
type RevealCardsInput struct {
	SessionID string
}

// RevealCardsOutput contains the snapshot after the reveal
type RevealCardsOutput struct {
	Session *models.Session
}

// ResetRoundInput contains parameters for starting a new round
type ResetRoundInput struct {
	SessionID string
}

// ResetRoundOutput contains the snapshot after the reset
type ResetRoundOutput struct {
	Session *models.Session
}

// GetSessionInput contains parameters for fetching a snapshot
type GetSessionInput struct {
	// IDOrRoomCode is either the session ID or the room code
	IDOrRoomCode string
}

// GetSessionOutput contains the fetched snapshot
type GetSessionOutput struct {
	Session *models.Session
}

// EndSessionInput contains parameters for deleting a session
type EndSessionInput struct {
	SessionID string
}

// EndSessionOutput contains the result of deleting a session
type EndSessionOutput struct {
	Success bool
}

// SubscribeInput contains parameters for subscribing to a session's feed
type SubscribeInput struct {
	SessionID string

	// OnChange receives each snapshot, and nil once if the session is deleted
	OnChange notifier.OnChange
}

// SubscribeOutput contains the subscription handle
type SubscribeOutput struct {
	// Unsubscribe stops deliveries; idempotent and safe from teardown paths
	Unsubscribe func()
}

// SetPresenceInput contains parameters for a presence update
type SetPresenceInput struct {
	SessionID string
	UserID    string
	Online    bool
}

// HeartbeatInput contains parameters for a liveness refresh
type HeartbeatInput struct {
	SessionID string
	UserID    string
}

// GetPresenceInput contains parameters for reading a session's presence map
type GetPresenceInput struct {
	SessionID string
}

// GetPresenceOutput contains the presence map keyed by user ID
type GetPresenceOutput struct {
	Presence map[string]*models.Presence
}
