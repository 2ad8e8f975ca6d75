package session

// Error is a custom error type for session command failures
type Error string

// Error implements the error interface
func (e Error) Error() string {
	return string(e)
}

// Define errors
const (
	ErrSessionNotFound    Error = "session not found"
	ErrUserNotFound       Error = "user not found in session"
	ErrEmptySessionName   Error = "session name cannot be empty"
	ErrEmptyUserName      Error = "user name cannot be empty"
	ErrInvalidDeckType    Error = "unknown deck type"
	ErrInvalidRole        Error = "role must be voter or observer"
	ErrInvalidVote        Error = "vote value is not in the session's deck"
	ErrRoomCodesExhausted Error = "room code generation exhausted its retry budget"
	ErrNilConfig          Error = "config cannot be nil"
	ErrNilSessionRepo     Error = "session repository cannot be nil"
	ErrNilPresenceRepo    Error = "presence repository cannot be nil"
	ErrNilNotifier        Error = "notifier cannot be nil"
	ErrNilUUIDGenerator   Error = "UUID generator cannot be nil"
	ErrNilCodeGenerator   Error = "room code generator cannot be nil"
)
