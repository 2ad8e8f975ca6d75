package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"planningpoker/internal/common/clock"
	"planningpoker/internal/models"
)

const (
	// Key prefixes for Redis
	presenceKeyPrefix = "presence:"
	membersKeySuffix  = ":members"

	// defaultTTL is how long an online record lives without a heartbeat
	defaultTTL = 60 * time.Second
)

// Config holds configuration for the Redis presence repository
type Config struct {
	// Redis client
	RedisClient *redis.Client

	// TTL for online records; expiry is the offline fallback for clients
	// that disconnect uncleanly. Defaults to 60s.
	TTL time.Duration

	// Clock is used for lastSeen stamps; defaults to the system clock
	Clock clock.Clock
}

// redisRepository implements the Repository interface using Redis.
//
//	presence:<sid>:<uid>      JSON presence record, TTL'd while online
//	presence:<sid>:members    set of user ids ever seen in the session
type redisRepository struct {
	client *redis.Client
	ttl    time.Duration
	clock  clock.Clock
}

// NewRedis creates a new Redis-backed presence repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	clk := cfg.Clock
	if clk == nil {
		clk = &clock.DefaultClock{}
	}

	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
		ttl:    ttl,
		clock:  clk,
	}, nil
}

func recordKey(sessionID, userID string) string {
	return presenceKeyPrefix + sessionID + ":" + userID
}

func membersKey(sessionID string) string {
	return presenceKeyPrefix + sessionID + membersKeySuffix
}

// SetPresence marks a participant online or offline. Online records expire
// after the TTL unless refreshed by Heartbeat; offline records are kept so
// lastSeen stays readable.
func (r *redisRepository) SetPresence(ctx context.Context, input *SetPresenceInput) error {
	if input == nil || input.SessionID == "" || input.UserID == "" {
		return errors.New("input, session ID and user ID cannot be empty")
	}

	record := &models.Presence{
		Online:   input.Online,
		LastSeen: r.clock.Now(),
	}

	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal presence record: %w", err)
	}

	var expiry time.Duration
	if input.Online {
		expiry = r.ttl
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, recordKey(input.SessionID, input.UserID), recordJSON, expiry)
	pipe.SAdd(ctx, membersKey(input.SessionID), input.UserID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set presence: %w", err)
	}

	return nil
}

// Heartbeat rewrites the online record, pushing its expiry out
func (r *redisRepository) Heartbeat(ctx context.Context, input *HeartbeatInput) error {
	if input == nil || input.SessionID == "" || input.UserID == "" {
		return errors.New("input, session ID and user ID cannot be empty")
	}

	return r.SetPresence(ctx, &SetPresenceInput{
		SessionID: input.SessionID,
		UserID:    input.UserID,
		Online:    true,
	})
}

// GetPresence returns the presence map for a session. Users whose online
// record has expired are reported offline.
func (r *redisRepository) GetPresence(ctx context.Context, input *GetPresenceInput) (map[string]*models.Presence, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	userIDs, err := r.client.SMembers(ctx, membersKey(input.SessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get presence members: %w", err)
	}

	result := make(map[string]*models.Presence, len(userIDs))
	for _, userID := range userIDs {
		recordJSON, err := r.client.Get(ctx, recordKey(input.SessionID, userID)).Result()
		if err != nil {
			if err == redis.Nil {
				// Record expired without an explicit goodbye
				result[userID] = &models.Presence{Online: false}
				continue
			}
			return nil, fmt.Errorf("failed to get presence for %s: %w", userID, err)
		}

		var record models.Presence
		if err := json.Unmarshal([]byte(recordJSON), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal presence for %s: %w", userID, err)
		}
		result[userID] = &record
	}

	return result, nil
}

// RemovePresence drops a participant's record, e.g. after a leave
func (r *redisRepository) RemovePresence(ctx context.Context, input *RemovePresenceInput) error {
	if input == nil || input.SessionID == "" || input.UserID == "" {
		return errors.New("input, session ID and user ID cannot be empty")
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, recordKey(input.SessionID, input.UserID))
	pipe.SRem(ctx, membersKey(input.SessionID), input.UserID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove presence: %w", err)
	}

	return nil
}
