package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"planningpoker/internal/common/roomcode"
	"planningpoker/internal/common/uuid"
	"planningpoker/internal/handlers/ws"
	"planningpoker/internal/notifier"
	presenceRepo "planningpoker/internal/repositories/presence"
	sessionRepo "planningpoker/internal/repositories/session"
	sessionService "planningpoker/internal/services/session"
)

func main() {
	// Load .env if present; real deployments set env vars directly
	_ = godotenv.Load()

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if getEnv("LOG_PRETTY", "") != "" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Initialize Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       0,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to Redis")
	}

	// Initialize repositories
	sessionRepository, err := sessionRepo.NewRedis(&sessionRepo.Config{
		RedisClient: redisClient,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session repository")
	}

	presenceRepository, err := presenceRepo.NewRedis(&presenceRepo.Config{
		RedisClient: redisClient,
		TTL:         getEnvDuration("PRESENCE_TTL", 60*time.Second),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create presence repository")
	}

	// Initialize change notifier
	changeNotifier, err := notifier.NewRedis(&notifier.Config{
		RedisClient: redisClient,
		SessionRepo: sessionRepository,
		Logger:      &logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create notifier")
	}

	// Initialize session service
	sessionSvc, err := sessionService.New(&sessionService.Config{
		SessionRepo:   sessionRepository,
		PresenceRepo:  presenceRepository,
		Notifier:      changeNotifier,
		UUIDGenerator: uuid.New(),
		CodeGenerator: roomcode.New(&roomcode.Config{}),
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create session service")
	}

	// Initialize HTTP handler
	handler, err := ws.New(&ws.Config{
		SessionService:    sessionSvc,
		HeartbeatInterval: getEnvDuration("HEARTBEAT_INTERVAL", 20*time.Second),
		Logger:            logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create handler")
	}

	server := &http.Server{
		Addr:              getEnv("LISTEN_ADDR", ":8080"),
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown failed")
	}

	logger.Info().Msg("server has been shut down")
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvDuration parses an environment variable as seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil || seconds <= 0 {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}
