// Package machine holds the session state machine. Every function is pure:
// it takes a snapshot, returns a new snapshot, and performs no I/O. All
// persistence and fan-out happens in the layers around it.
package machine

import (
	"planningpoker/internal/deck"
	"planningpoker/internal/models"
)

// Error is a rejection returned by a state transition
type Error string

// Error implements the error interface
func (e Error) Error() string {
	return string(e)
}

const (
	ErrUserNotFound Error = "user not found in session"
	ErrInvalidVote  Error = "vote value is not in the session's deck"
)

// NewSession builds the initial snapshot for a freshly created session.
// The facilitator is the only user and votes are hidden.
func NewSession(id, roomCode, name string, deckType models.DeckType, facilitator *models.User) *models.Session {
	return &models.Session{
		ID:            id,
		RoomCode:      roomCode,
		Name:          name,
		DeckType:      deckType,
		FacilitatorID: facilitator.ID,
		IsRevealed:    false,
		Users:         []*models.User{facilitator},
	}
}

// Join appends the user to the session. If a user with the same ID already
// exists (a rejoin or a retried command), it is overwritten in place rather
// than duplicated.
func Join(s *models.Session, user *models.User) *models.Session {
	next := s.Clone()
	for i, u := range next.Users {
		if u.ID == user.ID {
			copied := *user
			next.Users[i] = &copied
			return next
		}
	}

	copied := *user
	next.Users = append(next.Users, &copied)
	return next
}

// Vote records a vote for the user. The value must belong to the session's
// deck. Voting is accepted even while votes are revealed; hiding the voting
// controls post-reveal is a UI affordance, not a rule enforced here.
func Vote(s *models.Session, userID, value string) (*models.Session, error) {
	if !deck.Contains(s.DeckType, value) {
		return nil, ErrInvalidVote
	}

	next := s.Clone()
	user := next.FindUser(userID)
	if user == nil {
		return nil, ErrUserNotFound
	}

	user.HasVoted = true
	user.Vote = value
	return next, nil
}

// Reveal exposes all cast votes. It succeeds unconditionally; whether every
// voter has voted is advisory and computed by CanReveal for the UI.
func Reveal(s *models.Session) *models.Session {
	next := s.Clone()
	next.IsRevealed = true
	return next
}

// Reset clears every user's vote and hides the results for a new round
func Reset(s *models.Session) *models.Session {
	next := s.Clone()
	next.IsRevealed = false
	for _, u := range next.Users {
		u.HasVoted = false
		u.Vote = ""
	}
	return next
}

// Leave removes the user from the session. A user that is already gone is
// treated as success. If the facilitator leaves, FacilitatorID keeps pointing
// at the departed user; there is no facilitator handoff.
func Leave(s *models.Session, userID string) *models.Session {
	next := s.Clone()
	users := make([]*models.User, 0, len(next.Users))
	for _, u := range next.Users {
		if u.ID != userID {
			users = append(users, u)
		}
	}
	next.Users = users
	return next
}

// CanReveal reports whether every non-observer has voted. This is the
// advisory signal the UI uses to enable the reveal control; Reveal itself
// never checks it.
func CanReveal(s *models.Session) bool {
	voters := 0
	for _, u := range s.Users {
		if u.Role == models.UserRoleObserver {
			continue
		}
		voters++
		if !u.HasVoted {
			return false
		}
	}
	return voters > 0
}
