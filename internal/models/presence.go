package models

import (
	"time"
)

// Presence is the best-effort liveness record for one participant.
// It lives outside the session's consistency domain and may be stale.
type Presence struct {
	// Online reports whether the participant is currently connected
	Online bool `json:"online"`

	// LastSeen is when the participant was last heard from
	LastSeen time.Time `json:"lastSeen"`
}
