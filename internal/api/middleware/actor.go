package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/api/presenter"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

// The engine does not authenticate callers. A gateway in front of the
// server is expected to set these headers from the verified session.
const (
	ActorIDHeader   = "X-Actor-ID"
	ActorRoleHeader = "X-Actor-Role"
)

// ActorMiddleware stores the caller identity from the actor headers in the request context.
func ActorMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(ActorIDHeader))
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		actor := core.Actor{
			ID:   id,
			Role: strings.TrimSpace(r.Header.Get(ActorRoleHeader)),
		}
		next.ServeHTTP(w, r.WithContext(core.WithActor(r.Context(), actor)))
	})
}

// RequireActor rejects requests without an actor.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := core.ActorFromContext(r.Context()); !ok {
			presenter.Error(w, r, "missing "+ActorIDHeader+" header", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole only lets actors acting in one of the roles through.
// Without roles every actor is let through.
func RequireRole(roles ...string) func(handler http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return RequireActor(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(roles) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			actor, _ := core.ActorFromContext(r.Context())
			if !slices.Contains(roles, actor.Role) {
				presenter.Error(w, r, "insufficient privileges", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
