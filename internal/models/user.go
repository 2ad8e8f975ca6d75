package models

// UserRole represents a participant's role within a session
type UserRole string

const (
	// UserRoleFacilitator is the session creator, exactly one per session
	UserRoleFacilitator UserRole = "facilitator"

	// UserRoleVoter is a participant who casts estimates
	UserRoleVoter UserRole = "voter"

	// UserRoleObserver is a participant who watches without estimating
	UserRoleObserver UserRole = "observer"
)

// User represents a participant in a single session
type User struct {
	// ID is unique within the session
	ID string `json:"id"`

	// Name is the display name, not required to be unique
	Name string `json:"name"`

	// Role is the participant's role, chosen at join time
	Role UserRole `json:"role"`

	// HasVoted reports whether a vote has been cast this round
	HasVoted bool `json:"hasVoted"`

	// Vote is the cast value; empty unless HasVoted is true
	Vote string `json:"vote,omitempty"`
}
