// Package notifier fans session snapshots out to subscribers. It rides the
// change events the session repository publishes on Redis pub/sub: every
// event triggers a re-read of the latest snapshot, so a subscriber that falls
// behind skips straight to current state instead of replaying stale ones.
package notifier

import (
	"context"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"planningpoker/internal/models"
	sessionRepo "planningpoker/internal/repositories/session"
)

//go:generate mockgen -package=mocks -destination=mocks/mock_notifier.go planningpoker/internal/notifier Notifier

// OnChange receives each new snapshot. It is called with nil exactly once if
// the session is deleted, after which the subscription ends.
type OnChange func(s *models.Session)

// Notifier delivers session snapshots to subscribers
type Notifier interface {
	// Subscribe registers onChange for a session's change feed and returns
	// an idempotent unsubscribe function. The current snapshot is delivered
	// first. Delivery is at-least-once with coalescing: the latest state
	// supersedes any queued stale one.
	Subscribe(ctx context.Context, sessionID string, onChange OnChange) (func(), error)
}

// Config holds configuration for the Redis notifier
type Config struct {
	// Redis client
	RedisClient *redis.Client

	// SessionRepo is read for the latest snapshot on each change event
	SessionRepo sessionRepo.Repository

	// Logger records swallowed transient failures; defaults to a no-op
	Logger *zerolog.Logger
}

type redisNotifier struct {
	client *redis.Client
	repo   sessionRepo.Repository
	log    zerolog.Logger
}

// NewRedis creates a new Redis-backed notifier
func NewRedis(cfg *Config) (*redisNotifier, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	if cfg.SessionRepo == nil {
		return nil, errors.New("session repository cannot be nil")
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &redisNotifier{
		client: cfg.RedisClient,
		repo:   cfg.SessionRepo,
		log:    logger,
	}, nil
}

// Subscribe starts a per-subscription goroutine feeding onChange
func (n *redisNotifier) Subscribe(ctx context.Context, sessionID string, onChange OnChange) (func(), error) {
	if sessionID == "" {
		return nil, errors.New("session ID cannot be empty")
	}
	if onChange == nil {
		return nil, errors.New("onChange cannot be nil")
	}

	pubsub := n.client.Subscribe(ctx, sessionRepo.EventsChannel(sessionID))

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			// Closing the pubsub closes its channel, which ends the
			// delivery goroutine. Safe from any teardown path.
			_ = pubsub.Close()
		})
	}

	go n.deliver(ctx, pubsub, sessionID, onChange, unsubscribe)

	return unsubscribe, nil
}

func (n *redisNotifier) deliver(ctx context.Context, pubsub *redis.PubSub, sessionID string, onChange OnChange, unsubscribe func()) {
	defer unsubscribe()

	events := pubsub.Channel()

	// Deliver the snapshot as of subscription time
	if gone := n.push(ctx, sessionID, onChange); gone {
		return
	}

	for msg := range events {
		payload := msg.Payload

		// Coalesce: drain whatever queued up and keep only the newest event
	drain:
		for {
			select {
			case more, ok := <-events:
				if !ok {
					break drain
				}
				payload = more.Payload
			default:
				break drain
			}
		}

		if payload == sessionRepo.EventGone {
			onChange(nil)
			return
		}

		if gone := n.push(ctx, sessionID, onChange); gone {
			return
		}
	}
}

// push reads the latest snapshot and hands it to the subscriber. Returns
// true when the session turned out to be gone, which ends the subscription.
func (n *redisNotifier) push(ctx context.Context, sessionID string, onChange OnChange) bool {
	s, err := n.repo.GetSession(ctx, &sessionRepo.GetSessionInput{
		SessionID: sessionID,
	})
	if err != nil {
		if errors.Is(err, sessionRepo.ErrSessionNotFound) {
			onChange(nil)
			return true
		}
		// Transient read failure: skip this delivery, the next event
		// re-reads the latest state anyway
		n.log.Warn().Err(err).Str("session_id", sessionID).Msg("snapshot read failed")
		return false
	}

	onChange(s)
	return false
}
