package session

import "planningpoker/internal/models"

type CreateSessionInput struct {
	Session *models.Session
}

type GetSessionInput struct {
	SessionID string
}

type GetSessionByRoomCodeInput struct {
	RoomCode string
}

type SessionExistsInput struct {
	SessionID string
}

type RoomCodeExistsInput struct {
	RoomCode string
}

type PutUserInput struct {
	SessionID string
	User      *models.User
}

type RemoveUserInput struct {
	SessionID string
	UserID    string
}

type SetRevealedInput struct {
	SessionID  string
	IsRevealed bool
}

type ResetRoundInput struct {
	SessionID string
}

type DeleteSessionInput struct {
	SessionID string
}
