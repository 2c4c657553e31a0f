package middleware

import "net/http"

// Role constants define the supported user roles.
const (
	RoleAdmin   = "admin"
	RoleAuditor = "auditor"
	RoleViewer  = "viewer"
)

// RequireRole returns middleware that checks if the authenticated user has one
// of the allowed roles. It must be chained after the Auth middleware, which
// stores the user role in the request context via ContextKeyUserRole.
//
// Returns 401 Unauthorized when no user is found in context (Auth middleware
// not applied or authentication failed). Returns 403 Forbidden when the user
// role does not match any of the allowed roles.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := roleSet(roles)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !checkRole(w, r, allowed) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireWriteRole lets any authenticated caller read, but only the given
// roles may use unsafe methods (POST, PUT, PATCH, DELETE).
func RequireWriteRole(roles ...string) func(http.Handler) http.Handler {
	allowed := roleSet(roles)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				if _, ok := RoleFromContext(r.Context()); !ok {
					http.Error(w, `{"title":"Unauthorized","status":401,"detail":"authentication required"}`, http.StatusUnauthorized)
					return
				}
			default:
				if !checkRole(w, r, allowed) {
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func roleSet(roles []string) map[string]struct{} {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return allowed
}

func checkRole(w http.ResponseWriter, r *http.Request, allowed map[string]struct{}) bool {
	role, ok := RoleFromContext(r.Context())
	if !ok || role == "" {
		http.Error(w, `{"title":"Unauthorized","status":401,"detail":"authentication required"}`, http.StatusUnauthorized)
		return false
	}

	if _, match := allowed[role]; !match {
		http.Error(w, `{"title":"Forbidden","status":403,"detail":"insufficient permissions"}`, http.StatusForbidden)
		return false
	}

	return true
}
