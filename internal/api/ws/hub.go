package ws

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/auditor/internal/domain"
	"github.com/gosuda/auditor/internal/metrics"
	"github.com/gosuda/auditor/internal/server/middleware"
	redisstore "github.com/gosuda/auditor/internal/store/redis"
)

// Subscriber abstracts the Redis pub/sub subscribe operation.
// *redisstore.PubSub satisfies this interface.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func(), error)
}

// SessionGetter resolves an audit session before a stream is opened.
type SessionGetter interface {
	GetSession(ctx context.Context, id uuid.UUID) (*domain.AuditSession, error)
}

// Hub streams gap and session events from Redis to websocket clients.
type Hub struct {
	subscriber Subscriber
	sessions   SessionGetter
}

// NewHub creates a new WebSocket hub.
func NewHub(subscriber Subscriber, sessions SessionGetter) *Hub {
	return &Hub{subscriber: subscriber, sessions: sessions}
}

// ServeSession streams the events of one audit session.
// Subscribes to Redis channel "session:<sessionID>". Sessions are shared
// team workspaces, so any authenticated caller may follow any session.
func (h *Hub) ServeSession(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	if _, err := h.sessions.GetSession(r.Context(), sessionID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "audit session not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("session_id", sessionID.String()).Msg("websocket session lookup")
		http.Error(w, "failed to load audit session", http.StatusInternalServerError)
		return
	}

	h.stream(w, r, redisstore.SessionChannel(sessionID))
}

// ServeUser streams events about the caller's own gaps and sessions.
// Subscribes to Redis channel "user:<userID>".
func (h *Hub) ServeUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "missing user", http.StatusUnauthorized)
		return
	}

	h.stream(w, r, redisstore.UserChannel(userID))
}

// stream subscribes before the upgrade so no event published after the
// handshake is missed, then forwards payloads until either side goes away.
func (h *Hub) stream(w http.ResponseWriter, r *http.Request, channel string) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	messages, cleanup, err := h.subscriber.Subscribe(ctx, channel)
	if err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("websocket subscribe")
		http.Error(w, "subscribe failed", http.StatusServiceUnavailable)
		return
	}
	defer cleanup()

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("websocket accept")
		return
	}
	defer conn.CloseNow()

	metrics.StreamOpened()
	defer metrics.StreamClosed()

	// Clients only listen; CloseRead handles their control frames and
	// cancels ctx once they disconnect.
	ctx = conn.CloseRead(ctx)

	for {
		select {
		case <-ctx.Done():
			_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
			return
		case msg, msgOK := <-messages:
			if !msgOK {
				_ = conn.Close(websocket.StatusNormalClosure, "channel closed")
				return
			}
			if writeErr := conn.Write(ctx, websocket.MessageText, msg); writeErr != nil {
				log.Debug().Err(writeErr).Msg("websocket write")
				return
			}
		}
	}
}
