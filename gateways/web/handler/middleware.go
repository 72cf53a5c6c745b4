package handler

import (
	"context"
	"net/http"

	"github.com/meetscribe/backend/pkg/apierr"
	"github.com/meetscribe/backend/pkg/json"
	"github.com/meetscribe/backend/pkg/jwt"
)

type ctxKey string

const userIDKey ctxKey = "userID"

// RequireAuth rejects requests without a valid bearer token and puts
// the token's user id on the request context. The user id is derived
// from the session exclusively, never from client-supplied fields.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := jwt.ParseTokenFromHeader(r)
		if err != nil {
			json.WriteError(w, apierr.Authentication("Unauthorized"))
			return
		}

		userID, err := jwt.ParseUserID(r.Context(), token, h.cfg.JWTSecret)
		if err != nil {
			json.WriteError(w, apierr.Authentication("Unauthorized"))
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFrom(r *http.Request) string {
	if id, ok := r.Context().Value(userIDKey).(string); ok {
		return id
	}
	return ""
}
