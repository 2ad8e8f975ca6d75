package session

//go:generate mockgen -package=mocks -destination=mocks/mock_repository.go planningpoker/internal/repositories/session Repository

import (
	"context"

	"planningpoker/internal/models"
)

// Repository defines the interface for session persistence. Mutations are
// field-level: two writers touching different users cannot clobber each
// other. Every successful mutation publishes a change event for the session.
type Repository interface {
	// CreateSession persists a new session and its room code index entry
	CreateSession(ctx context.Context, input *CreateSessionInput) error

	// GetSession retrieves a session by ID
	GetSession(ctx context.Context, input *GetSessionInput) (*models.Session, error)

	// GetSessionByRoomCode retrieves a session by its room code
	GetSessionByRoomCode(ctx context.Context, input *GetSessionByRoomCodeInput) (*models.Session, error)

	// SessionExists reports whether a session exists
	SessionExists(ctx context.Context, input *SessionExistsInput) (bool, error)

	// RoomCodeExists reports whether a room code is held by a live session
	RoomCodeExists(ctx context.Context, input *RoomCodeExistsInput) (bool, error)

	// PutUser writes a single user entry (join, rejoin, or vote)
	PutUser(ctx context.Context, input *PutUserInput) error

	// RemoveUser deletes a single user entry
	RemoveUser(ctx context.Context, input *RemoveUserInput) error

	// SetRevealed flips the revealed flag
	SetRevealed(ctx context.Context, input *SetRevealedInput) error

	// ResetRound clears every user's vote and hides results
	ResetRound(ctx context.Context, input *ResetRoundInput) error

	// DeleteSession removes a session, its users, and its room code index
	DeleteSession(ctx context.Context, input *DeleteSessionInput) error
}
