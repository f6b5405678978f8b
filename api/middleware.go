/*
middleware.go - Bearer-token authentication middleware

PURPOSE:
  Extracts and validates the Authorization header on every /api route
  (except token issuance), and stashes the owner ID in the request
  context. Handlers read it back with OwnerFromContext and never parse
  tokens themselves.
*/
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/warp/farm-engine/auth"
	"github.com/warp/farm-engine/engine"
)

type contextKey string

const ownerContextKey contextKey = "owner"

// RequireOwner validates the bearer token and injects the owner ID into
// the request context. Requests without a valid token get a 401.
func RequireOwner(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "missing bearer token"})
				return
			}

			ownerID, err := tokens.Validate(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid token"})
				return
			}

			ctx := context.WithValue(r.Context(), ownerContextKey, engine.OwnerID(ownerID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OwnerFromContext returns the authenticated owner set by RequireOwner.
func OwnerFromContext(ctx context.Context) engine.OwnerID {
	owner, _ := ctx.Value(ownerContextKey).(engine.OwnerID)
	return owner
}
