package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"planningpoker/internal/machine"
	"planningpoker/internal/models"
	"planningpoker/internal/services/session"
)

// serverFrame is a message pushed to the client
type serverFrame struct {
	Type    string          `json:"type"` // joined, session, gone, error
	Session *models.Session `json:"session,omitempty"`
	UserID  string          `json:"userId,omitempty"`
	Error   string          `json:"error,omitempty"`

	// CanReveal accompanies session-bearing frames: true when every
	// non-observer has voted. Advisory for the UI; reveal itself is never
	// gated on it.
	CanReveal bool `json:"canReveal"`
}

// clientFrame is a command received from the client
type clientFrame struct {
	Type  string `json:"type"` // vote, reveal, reset, leave, end
	Value string `json:"value,omitempty"`
}

// conn is one participant's live connection. The write pump is the only
// goroutine that touches the socket for writes; everything else enqueues
// frames through send.
type conn struct {
	handler *Handler
	ws      *websocket.Conn
	log     zerolog.Logger

	sessionID string
	userID    string

	send chan serverFrame
	done chan struct{}

	closeOnce sync.Once

	mu   sync.Mutex
	left bool // an explicit leave skips the mark-offline fallback
}

func (h *Handler) handleSocket(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")

	role := models.UserRole(r.URL.Query().Get("role"))
	if role == "" {
		role = models.UserRoleVoter
	}

	// Join before upgrading so a bad session or name comes back as a plain
	// HTTP error instead of an immediate websocket close
	joined, err := h.config.SessionService.JoinSession(r.Context(), &session.JoinSessionInput{
		IDOrRoomCode: chi.URLParam(r, "idOrCode"),
		UserName:     name,
		Role:         role,
	})
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error; undo the presence claim
		h.markOffline(joined.Session.ID, joined.User.ID)
		return
	}

	c := &conn{
		handler:   h,
		ws:        ws,
		log:       h.log.With().Str("session_id", joined.Session.ID).Str("user_id", joined.User.ID).Logger(),
		sessionID: joined.Session.ID,
		userID:    joined.User.ID,
		send:      make(chan serverFrame, 16),
		done:      make(chan struct{}),
	}

	c.enqueue(serverFrame{
		Type:      "joined",
		Session:   joined.Session,
		UserID:    joined.User.ID,
		CanReveal: machine.CanReveal(joined.Session),
	})

	sub, err := h.config.SessionService.Subscribe(r.Context(), &session.SubscribeInput{
		SessionID: joined.Session.ID,
		OnChange: func(snapshot *models.Session) {
			if snapshot == nil {
				c.enqueue(serverFrame{Type: "gone"})
				return
			}
			c.enqueue(serverFrame{
				Type:      "session",
				Session:   snapshot,
				CanReveal: machine.CanReveal(snapshot),
			})
		},
	})
	if err != nil {
		c.log.Error().Err(err).Msg("failed to subscribe")
		h.markOffline(joined.Session.ID, joined.User.ID)
		_ = ws.Close()
		return
	}

	go c.writePump()
	c.readPump(r.Context())
	c.teardown(sub.Unsubscribe)
}

// enqueue hands a frame to the write pump without blocking. If the client
// is slower than the snapshot stream, the oldest queued frame is dropped;
// every snapshot is a full state, so only the newest one matters.
func (c *conn) enqueue(frame serverFrame) {
	for {
		select {
		case c.send <- frame:
			return
		case <-c.done:
			return
		default:
		}

		select {
		case <-c.send:
		default:
		}
	}
}

// writePump owns all socket writes: queued frames, and the periodic ping
// that doubles as the presence heartbeat
func (c *conn) writePump() {
	ticker := time.NewTicker(c.handler.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case frame := <-c.send:
			deadline := time.Now().Add(c.handler.config.WriteTimeout)
			_ = c.ws.SetWriteDeadline(deadline)

			if err := c.ws.WriteJSON(frame); err != nil {
				c.log.Debug().Err(err).Msg("write failed")
				_ = c.ws.Close()
				return
			}

			if frame.Type == "gone" {
				_ = c.ws.WriteControl(
					websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "session ended"),
					deadline,
				)
				_ = c.ws.Close()
				return
			}

		case <-ticker.C:
			deadline := time.Now().Add(c.handler.config.WriteTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				_ = c.ws.Close()
				return
			}

			ctx, cancel := context.WithTimeout(context.Background(), c.handler.config.WriteTimeout)
			err := c.handler.config.SessionService.Heartbeat(ctx, &session.HeartbeatInput{
				SessionID: c.sessionID,
				UserID:    c.userID,
			})
			cancel()
			if err != nil {
				c.log.Debug().Err(err).Msg("heartbeat failed")
			}
		}
	}
}

// readPump reads command frames until the client goes away
func (c *conn) readPump(ctx context.Context) {
	pongWait := 3 * c.handler.config.HeartbeatInterval
	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame clientFrame
		if err := c.ws.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug().Err(err).Msg("connection dropped")
			}
			return
		}

		if done := c.dispatch(ctx, frame); done {
			return
		}
	}
}

// dispatch executes one command; it returns true when the connection
// should close
func (c *conn) dispatch(ctx context.Context, frame clientFrame) bool {
	var err error

	switch frame.Type {
	case "vote":
		_, err = c.handler.config.SessionService.Vote(ctx, &session.VoteInput{
			SessionID: c.sessionID,
			UserID:    c.userID,
			Value:     frame.Value,
		})

	case "reveal":
		_, err = c.handler.config.SessionService.RevealCards(ctx, &session.RevealCardsInput{
			SessionID: c.sessionID,
		})

	case "reset":
		_, err = c.handler.config.SessionService.ResetRound(ctx, &session.ResetRoundInput{
			SessionID: c.sessionID,
		})

	case "leave":
		_, err = c.handler.config.SessionService.LeaveSession(ctx, &session.LeaveSessionInput{
			SessionID: c.sessionID,
			UserID:    c.userID,
		})
		if err == nil {
			c.mu.Lock()
			c.left = true
			c.mu.Unlock()
			return true
		}

	case "end":
		// The gone frame arrives through the subscription
		_, err = c.handler.config.SessionService.EndSession(ctx, &session.EndSessionInput{
			SessionID: c.sessionID,
		})

	default:
		c.enqueue(serverFrame{Type: "error", Error: "unknown command: " + frame.Type})
		return false
	}

	if err != nil {
		c.enqueue(serverFrame{Type: "error", Error: c.commandError(err)})
	}

	return false
}

// commandError hides internals from the client while passing through the
// service's own rejections
func (c *conn) commandError(err error) string {
	var serviceErr session.Error
	if errors.As(err, &serviceErr) {
		return err.Error()
	}

	c.log.Error().Err(err).Msg("command failed")
	return "internal error"
}

// teardown runs once per connection. The user stays in the session roster;
// unless they left explicitly, only their presence flips to offline.
func (c *conn) teardown(unsubscribe func()) {
	c.closeOnce.Do(func() {
		close(c.done)
		unsubscribe()

		c.mu.Lock()
		left := c.left
		c.mu.Unlock()

		if !left {
			c.handler.markOffline(c.sessionID, c.userID)
		}

		_ = c.ws.Close()
		c.log.Debug().Msg("connection closed")
	})
}

// markOffline is the disconnect fallback. Presence is best effort; if this
// write never lands, the record's TTL expires it anyway.
func (h *Handler) markOffline(sessionID, userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := h.config.SessionService.SetPresence(ctx, &session.SetPresenceInput{
		SessionID: sessionID,
		UserID:    userID,
		Online:    false,
	})
	if err != nil {
		h.log.Debug().Err(err).Str("session_id", sessionID).Str("user_id", userID).Msg("mark offline failed")
	}
}
