package models

import (
	"time"
)

// DeckType identifies the set of legal vote values for a session
type DeckType string

const (
	// DeckTypeFibonacci is the fibonacci estimation deck
	DeckTypeFibonacci DeckType = "fibonacci"

	// DeckTypePowersOf2 is the powers-of-two estimation deck
	DeckTypePowersOf2 DeckType = "powersOf2"

	// DeckTypeTShirt is the t-shirt size estimation deck
	DeckTypeTShirt DeckType = "tshirt"
)

// Session represents one planning poker room
type Session struct {
	// ID is the unique identifier for the session
	ID string `json:"id"`

	// RoomCode is the 6-character human-shareable code for the session
	RoomCode string `json:"roomCode"`

	// Name is the display label for the session
	Name string `json:"name"`

	// DeckType determines the legal vote values, fixed at creation
	DeckType DeckType `json:"deckType"`

	// FacilitatorID is the user who created the session
	FacilitatorID string `json:"facilitatorId"`

	// IsRevealed reports whether votes are currently exposed
	IsRevealed bool `json:"isRevealed"`

	// Users contains the participants in join order
	Users []*User `json:"users"`

	// CreatedAt is when the session was created
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is when the session was last updated
	UpdatedAt time.Time `json:"updatedAt"`
}

// FindUser returns the user with the given ID, or nil if absent
func (s *Session) FindUser(userID string) *User {
	for _, u := range s.Users {
		if u.ID == userID {
			return u
		}
	}
	return nil
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	out := *s
	out.Users = make([]*User, len(s.Users))
	for i, u := range s.Users {
		copied := *u
		out.Users[i] = &copied
	}
	return &out
}
