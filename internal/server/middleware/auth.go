package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/auditor/internal/auth"
)

// Auth verifies the bearer token and stores the caller's identity in the
// request context. Browsers cannot set headers on a websocket handshake, so
// upgrade requests may carry the token in the access_token query parameter.
func Auth(jwtSecret, issuer string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" && isWebSocketUpgrade(r) {
				tok = r.URL.Query().Get("access_token")
			}
			if tok == "" {
				unauthorized(w)
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, issuer, tok)
			if err != nil {
				log.Debug().Err(err).Str("path", r.URL.Path).Msg("auth: rejected token")
				unauthorized(w)
				return
			}

			userID, err := claims.UserUUID()
			if err != nil {
				unauthorized(w)
				return
			}

			role := claims.Role
			if role == "" {
				role = RoleViewer
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), userID, role)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	http.Error(w, `{"title":"Unauthorized","status":401,"detail":"missing or invalid credentials"}`, http.StatusUnauthorized)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return h[7:]
	}
	return ""
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
