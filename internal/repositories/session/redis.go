package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"planningpoker/internal/common/clock"
	"planningpoker/internal/common/roomcode"
	"planningpoker/internal/models"
)

const (
	// Key prefixes for Redis
	sessionKeyPrefix  = "session:"
	roomCodeKeyPrefix = "roomcode:"
	liveSessionsKey   = "sessions"

	// Per-session key suffixes
	usersKeySuffix     = ":users"
	joinOrderKeySuffix = ":joinorder"

	// eventsChannelPrefix is the pub/sub channel carrying change events
	eventsChannelPrefix = "session:events:"
)

// Change events published on a session's events channel
const (
	EventUpdated = "updated"
	EventGone    = "gone"
)

// ErrSessionNotFound is returned when a session is not found
var ErrSessionNotFound = errors.New("session not found")

// EventsChannel returns the pub/sub channel name for a session's change feed
func EventsChannel(sessionID string) string {
	return eventsChannelPrefix + sessionID
}

// Config holds configuration for the Redis session repository
type Config struct {
	// Redis client
	RedisClient *redis.Client

	// Clock is used for updatedAt stamps; defaults to the system clock
	Clock clock.Clock
}

// redisRepository implements the Repository interface using Redis.
//
// Layout per session:
//
//	session:<id>           hash of scalar fields
//	session:<id>:users     hash, field = user id, value = user JSON
//	session:<id>:joinorder sorted set of user ids, score = join time
//	roomcode:<CODE>        string -> session id
//	sessions               set of live session ids
//
// Keeping each user in its own hash field is what makes concurrent votes on
// different users merge instead of clobber.
type redisRepository struct {
	client *redis.Client
	clock  clock.Clock
}

// NewRedis creates a new Redis-backed session repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	clk := cfg.Clock
	if clk == nil {
		clk = &clock.DefaultClock{}
	}

	// Test connection
	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
		clock:  clk,
	}, nil
}

// CreateSession persists a new session to Redis
func (r *redisRepository) CreateSession(ctx context.Context, input *CreateSessionInput) error {
	if input == nil || input.Session == nil {
		return errors.New("input and session cannot be nil")
	}

	s := input.Session
	now := r.clock.Now()

	pipe := r.client.Pipeline()

	sessionKey := sessionKeyPrefix + s.ID
	pipe.HSet(ctx, sessionKey, map[string]interface{}{
		"id":            s.ID,
		"roomCode":      roomcode.Normalize(s.RoomCode),
		"name":          s.Name,
		"deckType":      string(s.DeckType),
		"facilitatorId": s.FacilitatorID,
		"isRevealed":    encodeBool(s.IsRevealed),
		"createdAt":     now.Format(time.RFC3339Nano),
		"updatedAt":     now.Format(time.RFC3339Nano),
	})

	for i, u := range s.Users {
		userJSON, err := json.Marshal(u)
		if err != nil {
			return fmt.Errorf("failed to marshal user %s: %w", u.ID, err)
		}
		pipe.HSet(ctx, sessionKey+usersKeySuffix, u.ID, userJSON)
		pipe.ZAdd(ctx, sessionKey+joinOrderKeySuffix, redis.Z{
			Score:  float64(now.UnixNano() + int64(i)),
			Member: u.ID,
		})
	}

	if s.RoomCode != "" {
		pipe.Set(ctx, roomCodeKeyPrefix+roomcode.Normalize(s.RoomCode), s.ID, 0)
	}

	pipe.SAdd(ctx, liveSessionsKey, s.ID)
	pipe.Publish(ctx, EventsChannel(s.ID), EventUpdated)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

// GetSession retrieves a session by ID from Redis
func (r *redisRepository) GetSession(ctx context.Context, input *GetSessionInput) (*models.Session, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	sessionKey := sessionKeyPrefix + input.SessionID

	fields, err := r.client.HGetAll(ctx, sessionKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrSessionNotFound
	}

	s := &models.Session{
		ID:            fields["id"],
		RoomCode:      fields["roomCode"],
		Name:          fields["name"],
		DeckType:      models.DeckType(fields["deckType"]),
		FacilitatorID: fields["facilitatorId"],
		IsRevealed:    fields["isRevealed"] == "1",
	}

	if s.CreatedAt, err = time.Parse(time.RFC3339Nano, fields["createdAt"]); err != nil {
		return nil, fmt.Errorf("failed to parse createdAt: %w", err)
	}
	if s.UpdatedAt, err = time.Parse(time.RFC3339Nano, fields["updatedAt"]); err != nil {
		return nil, fmt.Errorf("failed to parse updatedAt: %w", err)
	}

	userJSONs, err := r.client.HGetAll(ctx, sessionKey+usersKeySuffix).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session users: %w", err)
	}

	order, err := r.client.ZRange(ctx, sessionKey+joinOrderKeySuffix, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get join order: %w", err)
	}

	s.Users = make([]*models.User, 0, len(userJSONs))
	for _, userID := range order {
		userJSON, ok := userJSONs[userID]
		if !ok {
			// User removed between the two reads
			continue
		}
		var user models.User
		if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
			return nil, fmt.Errorf("failed to unmarshal user %s: %w", userID, err)
		}
		s.Users = append(s.Users, &user)
	}

	return s, nil
}

// GetSessionByRoomCode retrieves a session by room code from Redis
func (r *redisRepository) GetSessionByRoomCode(ctx context.Context, input *GetSessionByRoomCodeInput) (*models.Session, error) {
	if input == nil || input.RoomCode == "" {
		return nil, errors.New("input and room code cannot be empty")
	}

	sessionID, err := r.client.Get(ctx, roomCodeKeyPrefix+roomcode.Normalize(input.RoomCode)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session ID for room code: %w", err)
	}

	return r.GetSession(ctx, &GetSessionInput{
		SessionID: sessionID,
	})
}

// SessionExists reports whether a session exists in Redis
func (r *redisRepository) SessionExists(ctx context.Context, input *SessionExistsInput) (bool, error) {
	if input == nil || input.SessionID == "" {
		return false, errors.New("input and session ID cannot be empty")
	}

	n, err := r.client.Exists(ctx, sessionKeyPrefix+input.SessionID).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}

	return n > 0, nil
}

// RoomCodeExists reports whether a room code is held by a live session
func (r *redisRepository) RoomCodeExists(ctx context.Context, input *RoomCodeExistsInput) (bool, error) {
	if input == nil || input.RoomCode == "" {
		return false, errors.New("input and room code cannot be empty")
	}

	n, err := r.client.Exists(ctx, roomCodeKeyPrefix+roomcode.Normalize(input.RoomCode)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check room code existence: %w", err)
	}

	return n > 0, nil
}

// PutUser writes a single user entry. Join and vote both land here; the
// write touches only that user's hash field, so two users mutating
// concurrently cannot lose each other's update.
func (r *redisRepository) PutUser(ctx context.Context, input *PutUserInput) error {
	if input == nil || input.SessionID == "" || input.User == nil {
		return errors.New("input, session ID and user cannot be empty")
	}

	if err := r.requireSession(ctx, input.SessionID); err != nil {
		return err
	}

	userJSON, err := json.Marshal(input.User)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}

	sessionKey := sessionKeyPrefix + input.SessionID
	now := r.clock.Now()

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, sessionKey+usersKeySuffix, input.User.ID, userJSON)
	// NX keeps a rejoining user's original position in the join order
	pipe.ZAddNX(ctx, sessionKey+joinOrderKeySuffix, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: input.User.ID,
	})
	pipe.HSet(ctx, sessionKey, "updatedAt", now.Format(time.RFC3339Nano))
	pipe.Publish(ctx, EventsChannel(input.SessionID), EventUpdated)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to put user: %w", err)
	}

	return nil
}

// RemoveUser deletes a single user entry. Removing an absent user is a no-op.
func (r *redisRepository) RemoveUser(ctx context.Context, input *RemoveUserInput) error {
	if input == nil || input.SessionID == "" || input.UserID == "" {
		return errors.New("input, session ID and user ID cannot be empty")
	}

	if err := r.requireSession(ctx, input.SessionID); err != nil {
		return err
	}

	sessionKey := sessionKeyPrefix + input.SessionID
	now := r.clock.Now()

	pipe := r.client.Pipeline()
	pipe.HDel(ctx, sessionKey+usersKeySuffix, input.UserID)
	pipe.ZRem(ctx, sessionKey+joinOrderKeySuffix, input.UserID)
	pipe.HSet(ctx, sessionKey, "updatedAt", now.Format(time.RFC3339Nano))
	pipe.Publish(ctx, EventsChannel(input.SessionID), EventUpdated)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove user: %w", err)
	}

	return nil
}

// SetRevealed flips the revealed flag for a session
func (r *redisRepository) SetRevealed(ctx context.Context, input *SetRevealedInput) error {
	if input == nil || input.SessionID == "" {
		return errors.New("input and session ID cannot be empty")
	}

	if err := r.requireSession(ctx, input.SessionID); err != nil {
		return err
	}

	sessionKey := sessionKeyPrefix + input.SessionID
	now := r.clock.Now()

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, sessionKey, "isRevealed", encodeBool(input.IsRevealed))
	pipe.HSet(ctx, sessionKey, "updatedAt", now.Format(time.RFC3339Nano))
	pipe.Publish(ctx, EventsChannel(input.SessionID), EventUpdated)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set revealed: %w", err)
	}

	return nil
}

// ResetRound clears every user's vote and hides results
func (r *redisRepository) ResetRound(ctx context.Context, input *ResetRoundInput) error {
	if input == nil || input.SessionID == "" {
		return errors.New("input and session ID cannot be empty")
	}

	sessionKey := sessionKeyPrefix + input.SessionID

	userJSONs, err := r.client.HGetAll(ctx, sessionKey+usersKeySuffix).Result()
	if err != nil {
		return fmt.Errorf("failed to get session users: %w", err)
	}

	if err := r.requireSession(ctx, input.SessionID); err != nil {
		return err
	}

	now := r.clock.Now()
	pipe := r.client.Pipeline()

	for userID, userJSON := range userJSONs {
		var user models.User
		if err := json.Unmarshal([]byte(userJSON), &user); err != nil {
			return fmt.Errorf("failed to unmarshal user %s: %w", userID, err)
		}
		user.HasVoted = false
		user.Vote = ""

		cleared, err := json.Marshal(&user)
		if err != nil {
			return fmt.Errorf("failed to marshal user %s: %w", userID, err)
		}
		pipe.HSet(ctx, sessionKey+usersKeySuffix, userID, cleared)
	}

	pipe.HSet(ctx, sessionKey, "isRevealed", encodeBool(false))
	pipe.HSet(ctx, sessionKey, "updatedAt", now.Format(time.RFC3339Nano))
	pipe.Publish(ctx, EventsChannel(input.SessionID), EventUpdated)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to reset round: %w", err)
	}

	return nil
}

// DeleteSession removes a session from Redis
func (r *redisRepository) DeleteSession(ctx context.Context, input *DeleteSessionInput) error {
	if input == nil || input.SessionID == "" {
		return errors.New("input and session ID cannot be empty")
	}

	// Get the session first to find its room code
	s, err := r.GetSession(ctx, &GetSessionInput{
		SessionID: input.SessionID,
	})
	if err != nil {
		return err
	}

	sessionKey := sessionKeyPrefix + input.SessionID

	pipe := r.client.Pipeline()
	pipe.Del(ctx, sessionKey)
	pipe.Del(ctx, sessionKey+usersKeySuffix)
	pipe.Del(ctx, sessionKey+joinOrderKeySuffix)

	if s.RoomCode != "" {
		pipe.Del(ctx, roomCodeKeyPrefix+roomcode.Normalize(s.RoomCode))
	}

	pipe.SRem(ctx, liveSessionsKey, input.SessionID)
	pipe.Publish(ctx, EventsChannel(input.SessionID), EventGone)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// requireSession maps a missing session to ErrSessionNotFound
func (r *redisRepository) requireSession(ctx context.Context, sessionID string) error {
	exists, err := r.SessionExists(ctx, &SessionExistsInput{SessionID: sessionID})
	if err != nil {
		return err
	}
	if !exists {
		return ErrSessionNotFound
	}
	return nil
}

func encodeBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
