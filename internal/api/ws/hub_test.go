package ws_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/auditor/internal/api/ws"
	"github.com/gosuda/auditor/internal/domain"
	"github.com/gosuda/auditor/internal/server/middleware"
	redisstore "github.com/gosuda/auditor/internal/store/redis"
)

type sessionGetterFunc func(ctx context.Context, id uuid.UUID) (*domain.AuditSession, error)

func (f sessionGetterFunc) GetSession(ctx context.Context, id uuid.UUID) (*domain.AuditSession, error) {
	return f(ctx, id)
}

type failingSubscriber struct{}

func (failingSubscriber) Subscribe(context.Context, string) (<-chan []byte, func(), error) {
	return nil, nil, errors.New("redis down")
}

func anySession(_ context.Context, id uuid.UUID) (*domain.AuditSession, error) {
	return &domain.AuditSession{ID: id, IsActive: true}, nil
}

func newPubSub(t *testing.T) *redisstore.PubSub {
	t.Helper()

	mr := miniredis.RunT(t)
	ps, err := redisstore.New(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ps.Close() })
	return ps
}

func newRouter(hub *ws.Hub, userID uuid.UUID) http.Handler {
	r := chi.NewRouter()
	if userID != uuid.Nil {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithUser(req.Context(), userID, middleware.RoleViewer)))
			})
		})
	}
	r.Get("/audit-sessions/{sessionID}", hub.ServeSession)
	r.Get("/me", hub.ServeUser)
	return r
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	typ, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, websocket.MessageText, typ)
	return string(data)
}

func TestServeSession_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		getter     sessionGetterFunc
		subscriber ws.Subscriber
		wantCode   int
	}{
		{
			name:     "invalid_id",
			path:     "/audit-sessions/not-a-uuid",
			getter:   anySession,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "unknown_session",
			path: "/audit-sessions/" + uuid.NewString(),
			getter: func(_ context.Context, id uuid.UUID) (*domain.AuditSession, error) {
				return nil, &domain.NotFoundError{Resource: domain.ResourceSession, ID: id.String()}
			},
			wantCode: http.StatusNotFound,
		},
		{
			name: "lookup_failure",
			path: "/audit-sessions/" + uuid.NewString(),
			getter: func(context.Context, uuid.UUID) (*domain.AuditSession, error) {
				return nil, &domain.RemoteError{Status: http.StatusServiceUnavailable}
			},
			wantCode: http.StatusInternalServerError,
		},
		{
			name:       "subscribe_failure",
			path:       "/audit-sessions/" + uuid.NewString(),
			getter:     anySession,
			subscriber: failingSubscriber{},
			wantCode:   http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sub := tt.subscriber
			if sub == nil {
				sub = failingSubscriber{}
			}
			hub := ws.NewHub(sub, tt.getter)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			newRouter(hub, uuid.Nil).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestServeSession_StreamsPublishedEvents(t *testing.T) {
	t.Parallel()

	ps := newPubSub(t)
	sessionID := uuid.New()
	hub := ws.NewHub(ps, sessionGetterFunc(anySession))

	srv := httptest.NewServer(newRouter(hub, uuid.Nil))
	t.Cleanup(srv.Close)

	conn := dial(t, srv, "/audit-sessions/"+sessionID.String())

	ctx := context.Background()
	require.NoError(t, ps.Publish(ctx, redisstore.SessionChannel(uuid.New()), []byte(`{"type":"other"}`)))
	require.NoError(t, ps.Publish(ctx, redisstore.SessionChannel(sessionID), []byte(`{"type":"gap.created"}`)))
	require.NoError(t, ps.Publish(ctx, redisstore.SessionChannel(sessionID), []byte(`{"type":"session.closed"}`)))

	assert.JSONEq(t, `{"type":"gap.created"}`, readText(t, conn))
	assert.JSONEq(t, `{"type":"session.closed"}`, readText(t, conn))
}

func TestServeUser(t *testing.T) {
	t.Parallel()

	t.Run("missing_user", func(t *testing.T) {
		t.Parallel()

		hub := ws.NewHub(failingSubscriber{}, sessionGetterFunc(anySession))

		rec := httptest.NewRecorder()
		newRouter(hub, uuid.Nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("streams_user_channel", func(t *testing.T) {
		t.Parallel()

		ps := newPubSub(t)
		userID := uuid.New()
		hub := ws.NewHub(ps, sessionGetterFunc(anySession))

		srv := httptest.NewServer(newRouter(hub, userID))
		t.Cleanup(srv.Close)

		conn := dial(t, srv, "/me")

		require.NoError(t, ps.Publish(context.Background(), redisstore.UserChannel(userID), []byte(`{"type":"gap.assigned"}`)))

		assert.JSONEq(t, `{"type":"gap.assigned"}`, readText(t, conn))
	})
}

func TestServeSession_SharedAcrossUsers(t *testing.T) {
	t.Parallel()

	ps := newPubSub(t)
	owner := uuid.New()
	sessionID := uuid.New()
	hub := ws.NewHub(ps, sessionGetterFunc(func(_ context.Context, id uuid.UUID) (*domain.AuditSession, error) {
		return &domain.AuditSession{ID: id, UserID: owner, IsActive: true}, nil
	}))

	srv := httptest.NewServer(newRouter(hub, uuid.New()))
	t.Cleanup(srv.Close)

	conn := dial(t, srv, "/audit-sessions/"+sessionID.String())

	require.NoError(t, ps.Publish(context.Background(), redisstore.SessionChannel(sessionID), []byte(`{"type":"gap.reviewed"}`)))

	assert.JSONEq(t, `{"type":"gap.reviewed"}`, readText(t, conn))
}
