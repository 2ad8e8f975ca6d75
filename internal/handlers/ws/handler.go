// Package ws exposes the session service over HTTP: a small JSON API for
// creating and inspecting sessions, and a websocket endpoint that joins a
// participant, streams snapshots, and relays their commands.
package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"planningpoker/internal/models"
	"planningpoker/internal/services/session"
)

const (
	defaultHeartbeatInterval = 20 * time.Second
	defaultWriteTimeout      = 10 * time.Second
	maxMessageSize           = 1024
)

// Handler serves the HTTP and websocket surface
type Handler struct {
	config   *Config
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// Config holds the configuration for the handler
type Config struct {
	// SessionService executes commands and owns subscriptions
	SessionService session.Service

	// HeartbeatInterval paces websocket pings and presence refreshes;
	// it must stay well under the presence TTL. Defaults to 20s.
	HeartbeatInterval time.Duration

	// WriteTimeout bounds each websocket write. Defaults to 10s.
	WriteTimeout time.Duration

	// CheckOrigin overrides the upgrader's origin policy; nil allows all
	CheckOrigin func(r *http.Request) bool

	Logger zerolog.Logger
}

// New creates a new handler
func New(cfg *Config) (*Handler, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.SessionService == nil {
		return nil, errors.New("session service cannot be nil")
	}

	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = defaultHeartbeatInterval
	}

	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}

	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	return &Handler{
		config: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		log: cfg.Logger,
	}, nil
}

// Routes returns the router for the handler's endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/api/sessions", h.handleCreateSession)
	r.Get("/api/sessions/{idOrCode}", h.handleGetSession)
	r.Get("/api/sessions/{idOrCode}/presence", h.handleGetPresence)
	r.Get("/ws/{idOrCode}", h.handleSocket)

	return r
}

type createSessionRequest struct {
	Name            string `json:"name"`
	DeckType        string `json:"deckType"`
	FacilitatorName string `json:"facilitatorName"`
}

type createSessionResponse struct {
	Session     *models.Session `json:"session"`
	Facilitator *models.User    `json:"facilitator"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	output, err := h.config.SessionService.CreateSession(r.Context(), &session.CreateSessionInput{
		Name:            req.Name,
		DeckType:        models.DeckType(req.DeckType),
		FacilitatorName: req.FacilitatorName,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.log.Info().
		Str("session_id", output.Session.ID).
		Str("room_code", output.Session.RoomCode).
		Msg("session created")

	h.respondJSON(w, http.StatusCreated, &createSessionResponse{
		Session:     output.Session,
		Facilitator: output.Facilitator,
	})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	output, err := h.config.SessionService.GetSession(r.Context(), &session.GetSessionInput{
		IDOrRoomCode: chi.URLParam(r, "idOrCode"),
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, output.Session)
}

func (h *Handler) handleGetPresence(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.config.SessionService.GetSession(r.Context(), &session.GetSessionInput{
		IDOrRoomCode: chi.URLParam(r, "idOrCode"),
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	output, err := h.config.SessionService.GetPresence(r.Context(), &session.GetPresenceInput{
		SessionID: snapshot.Session.ID,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, output.Presence)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error().Err(err).Msg("failed to write response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, &errorResponse{Error: message})
}

// respondServiceError maps the service's error taxonomy onto HTTP statuses
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrUserNotFound):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrRoomCodesExhausted):
		h.respondError(w, http.StatusServiceUnavailable, err.Error())
	default:
		var serviceErr session.Error
		if errors.As(err, &serviceErr) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("request failed")
		h.respondError(w, http.StatusInternalServerError, "internal error")
	}
}
