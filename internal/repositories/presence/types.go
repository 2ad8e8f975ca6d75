package presence

type SetPresenceInput struct {
	SessionID string
	UserID    string
	Online    bool
}

type HeartbeatInput struct {
	SessionID string
	UserID    string
}

type GetPresenceInput struct {
	SessionID string
}

type RemovePresenceInput struct {
	SessionID string
	UserID    string
}
