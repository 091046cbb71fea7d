package httpapi

import (
	"context"
	"net/http"
	"strings"

	"wellness-backend-go/internal/services"
)

type contextKey string

const (
	ctxUserID contextKey = "userID"
	ctxClaims contextKey = "claims"
)

// WithAuth requires a valid, unrevoked bearer access token.
func WithAuth(tokenService services.TokenService, revoker services.TokenRevoker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
				WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
				return
			}
			tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			claims, err := tokenService.Parse(tokenStr, services.TokenTypeAccess)
			if err != nil {
				WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
				return
			}
			revoked, err := revoker.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				WriteError(w, http.StatusServiceUnavailable, "Token store unavailable")
				return
			}
			if revoked {
				WriteError(w, http.StatusUnauthorized, "Unauthenticated.")
				return
			}
			ctx := context.WithValue(r.Context(), ctxUserID, claims.Subject)
			ctx = context.WithValue(ctx, ctxClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func CurrentUserID(r *http.Request) string {
	if value, ok := r.Context().Value(ctxUserID).(string); ok {
		return value
	}
	return ""
}

func CurrentClaims(r *http.Request) *services.Claims {
	if value, ok := r.Context().Value(ctxClaims).(*services.Claims); ok {
		return value
	}
	return nil
}
