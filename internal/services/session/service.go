package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"planningpoker/internal/common/roomcode"
	"planningpoker/internal/deck"
	"planningpoker/internal/machine"
	"planningpoker/internal/models"
	presenceRepo "planningpoker/internal/repositories/presence"
	sessionRepo "planningpoker/internal/repositories/session"
)

const defaultRoomCodeAttempts = 10

// service implements the Service interface
type service struct {
	config *Config
}

// New creates a new session service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}

	if cfg.SessionRepo == nil {
		return nil, ErrNilSessionRepo
	}

	if cfg.PresenceRepo == nil {
		return nil, ErrNilPresenceRepo
	}

	if cfg.Notifier == nil {
		return nil, ErrNilNotifier
	}

	if cfg.UUIDGenerator == nil {
		return nil, ErrNilUUIDGenerator
	}

	if cfg.CodeGenerator == nil {
		return nil, ErrNilCodeGenerator
	}

	if cfg.RoomCodeAttempts <= 0 {
		cfg.RoomCodeAttempts = defaultRoomCodeAttempts
	}

	return &service{
		config: cfg,
	}, nil
}

// CreateSession creates a new session with the facilitator as its only user
func (s *service) CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrEmptySessionName
	}

	if strings.TrimSpace(input.FacilitatorName) == "" {
		return nil, ErrEmptyUserName
	}

	if !deck.IsValidType(input.DeckType) {
		return nil, ErrInvalidDeckType
	}

	code, err := s.newUniqueRoomCode(ctx)
	if err != nil {
		return nil, err
	}

	facilitator := &models.User{
		ID:   s.config.UUIDGenerator.NewUUID(),
		Name: input.FacilitatorName,
		Role: models.UserRoleFacilitator,
	}

	snapshot := machine.NewSession(
		s.config.UUIDGenerator.NewUUID(),
		code,
		input.Name,
		input.DeckType,
		facilitator,
	)

	err = s.config.SessionRepo.CreateSession(ctx, &sessionRepo.CreateSessionInput{
		Session: snapshot,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	err = s.config.PresenceRepo.SetPresence(ctx, &presenceRepo.SetPresenceInput{
		SessionID: snapshot.ID,
		UserID:    facilitator.ID,
		Online:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set facilitator presence: %w", err)
	}

	// Re-read so the caller sees the store-stamped timestamps
	created, err := s.config.SessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{
		SessionID: snapshot.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read created session: %w", err)
	}

	return &CreateSessionOutput{
		Session:     created,
		Facilitator: facilitator,
	}, nil
}

// newUniqueRoomCode generates candidate codes until one is free, bounded by
// the configured attempt budget. The code space is small (24^3 * 8^3), so a
// saturated store must surface a capacity error rather than loop forever.
func (s *service) newUniqueRoomCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < s.config.RoomCodeAttempts; attempt++ {
		code := s.config.CodeGenerator.NewCode()

		exists, err := s.config.SessionRepo.RoomCodeExists(ctx, &sessionRepo.RoomCodeExistsInput{
			RoomCode: code,
		})
		if err != nil {
			return "", fmt.Errorf("failed to check room code: %w", err)
		}

		if !exists {
			return code, nil
		}
	}

	return "", ErrRoomCodesExhausted
}

// JoinSession adds a participant to a session found by ID or room code
func (s *service) JoinSession(ctx context.Context, input *JoinSessionInput) (*JoinSessionOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	if strings.TrimSpace(input.UserName) == "" {
		return nil, ErrEmptyUserName
	}

	if input.Role != models.UserRoleVoter && input.Role != models.UserRoleObserver {
		return nil, ErrInvalidRole
	}

	current, err := s.resolveSession(ctx, input.IDOrRoomCode)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:   s.config.UUIDGenerator.NewUUID(),
		Name: input.UserName,
		Role: input.Role,
	}

	next := machine.Join(current, user)

	err = s.config.SessionRepo.PutUser(ctx, &sessionRepo.PutUserInput{
		SessionID: current.ID,
		User:      user,
	})
	if err != nil {
		return nil, s.mapRepoError(err)
	}

	err = s.config.PresenceRepo.SetPresence(ctx, &presenceRepo.SetPresenceInput{
		SessionID: current.ID,
		UserID:    user.ID,
		Online:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set presence: %w", err)
	}

	return &JoinSessionOutput{
		Session: next,
		User:    user,
	}, nil
}

// LeaveSession removes a participant. A missing session, or a user that is
// already gone, both count as success: the intent is already achieved.
func (s *service) LeaveSession(ctx context.Context, input *LeaveSessionInput) (*LeaveSessionOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	err := s.config.SessionRepo.RemoveUser(ctx, &sessionRepo.RemoveUserInput{
		SessionID: input.SessionID,
		UserID:    input.UserID,
	})
	if err != nil && !errors.Is(err, sessionRepo.ErrSessionNotFound) {
		return nil, fmt.Errorf("failed to remove user: %w", err)
	}

	err = s.config.PresenceRepo.RemovePresence(ctx, &presenceRepo.RemovePresenceInput{
		SessionID: input.SessionID,
		UserID:    input.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to remove presence: %w", err)
	}

	return &LeaveSessionOutput{
		Success: true,
	}, nil
}

// Vote records a participant's estimate. The state machine validates the
// value against the deck and the user against the roster; the persisted
// write touches only that user's entry.
func (s *service) Vote(ctx context.Context, input *VoteInput) (*VoteOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	current, err := s.getByID(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	next, err := machine.Vote(current, input.UserID, input.Value)
	if err != nil {
		switch {
		case errors.Is(err, machine.ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, machine.ErrInvalidVote):
			return nil, ErrInvalidVote
		default:
			return nil, err
		}
	}

	err = s.config.SessionRepo.PutUser(ctx, &sessionRepo.PutUserInput{
		SessionID: input.SessionID,
		User:      next.FindUser(input.UserID),
	})
	if err != nil {
		return nil, s.mapRepoError(err)
	}

	return &VoteOutput{
		Session: next,
	}, nil
}

// RevealCards exposes all cast votes. Reveal succeeds even when nobody has
// voted; "everyone voted" is an advisory signal the UI computes, not a rule
// the server enforces.
func (s *service) RevealCards(ctx context.Context, input *RevealCardsInput) (*RevealCardsOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	current, err := s.getByID(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	next := machine.Reveal(current)

	err = s.config.SessionRepo.SetRevealed(ctx, &sessionRepo.SetRevealedInput{
		SessionID:  input.SessionID,
		IsRevealed: true,
	})
	if err != nil {
		return nil, s.mapRepoError(err)
	}

	return &RevealCardsOutput{
		Session: next,
	}, nil
}

// ResetRound clears every vote and hides results for a new round
func (s *service) ResetRound(ctx context.Context, input *ResetRoundInput) (*ResetRoundOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	current, err := s.getByID(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	next := machine.Reset(current)

	err = s.config.SessionRepo.ResetRound(ctx, &sessionRepo.ResetRoundInput{
		SessionID: input.SessionID,
	})
	if err != nil {
		return nil, s.mapRepoError(err)
	}

	return &ResetRoundOutput{
		Session: next,
	}, nil
}

// GetSession fetches a snapshot by ID or room code
func (s *service) GetSession(ctx context.Context, input *GetSessionInput) (*GetSessionOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	snapshot, err := s.resolveSession(ctx, input.IDOrRoomCode)
	if err != nil {
		return nil, err
	}

	return &GetSessionOutput{
		Session: snapshot,
	}, nil
}

// EndSession deletes the session record; subscribers are told it is gone
func (s *service) EndSession(ctx context.Context, input *EndSessionInput) (*EndSessionOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	err := s.config.SessionRepo.DeleteSession(ctx, &sessionRepo.DeleteSessionInput{
		SessionID: input.SessionID,
	})
	if err != nil {
		return nil, s.mapRepoError(err)
	}

	return &EndSessionOutput{
		Success: true,
	}, nil
}

// Subscribe delegates to the notifier
func (s *service) Subscribe(ctx context.Context, input *SubscribeInput) (*SubscribeOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	unsubscribe, err := s.config.Notifier.Subscribe(ctx, input.SessionID, input.OnChange)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	return &SubscribeOutput{
		Unsubscribe: unsubscribe,
	}, nil
}

// SetPresence marks a participant online or offline
func (s *service) SetPresence(ctx context.Context, input *SetPresenceInput) error {
	if input == nil {
		return errors.New("input cannot be nil")
	}

	return s.config.PresenceRepo.SetPresence(ctx, &presenceRepo.SetPresenceInput{
		SessionID: input.SessionID,
		UserID:    input.UserID,
		Online:    input.Online,
	})
}

// Heartbeat extends a participant's liveness window
func (s *service) Heartbeat(ctx context.Context, input *HeartbeatInput) error {
	if input == nil {
		return errors.New("input cannot be nil")
	}

	return s.config.PresenceRepo.Heartbeat(ctx, &presenceRepo.HeartbeatInput{
		SessionID: input.SessionID,
		UserID:    input.UserID,
	})
}

// GetPresence returns the liveness map for a session
func (s *service) GetPresence(ctx context.Context, input *GetPresenceInput) (*GetPresenceOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	result, err := s.config.PresenceRepo.GetPresence(ctx, &presenceRepo.GetPresenceInput{
		SessionID: input.SessionID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get presence: %w", err)
	}

	return &GetPresenceOutput{
		Presence: result,
	}, nil
}

// resolveSession accepts either the canonical session ID or the 6-character
// room code. Inputs shaped like a code try the code index first and fall
// back to an ID lookup; everything else goes straight to the ID lookup.
func (s *service) resolveSession(ctx context.Context, idOrRoomCode string) (*models.Session, error) {
	idOrRoomCode = strings.TrimSpace(idOrRoomCode)
	if idOrRoomCode == "" {
		return nil, ErrSessionNotFound
	}

	if roomcode.IsCode(idOrRoomCode) {
		snapshot, err := s.config.SessionRepo.GetSessionByRoomCode(ctx, &sessionRepo.GetSessionByRoomCodeInput{
			RoomCode: idOrRoomCode,
		})
		if err == nil {
			return snapshot, nil
		}
		if !errors.Is(err, sessionRepo.ErrSessionNotFound) {
			return nil, fmt.Errorf("failed to get session by room code: %w", err)
		}
	}

	return s.getByID(ctx, idOrRoomCode)
}

// getByID fetches a snapshot by session ID, mapping missing to NotFound
func (s *service) getByID(ctx context.Context, sessionID string) (*models.Session, error) {
	snapshot, err := s.config.SessionRepo.GetSession(ctx, &sessionRepo.GetSessionInput{
		SessionID: sessionID,
	})
	if err != nil {
		return nil, s.mapRepoError(err)
	}

	return snapshot, nil
}

// mapRepoError translates repository errors into the service's taxonomy;
// transport failures propagate unchanged so the caller can tell "not saved"
// from "not found"
func (s *service) mapRepoError(err error) error {
	if errors.Is(err, sessionRepo.ErrSessionNotFound) {
		return ErrSessionNotFound
	}
	return err
}
