package handlers

import (
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/CrowderSoup/wekan-graphql/graph"
	"github.com/CrowderSoup/wekan-graphql/wekan"
)

// userIDHeader carries the Wekan user id alongside the bearer token. The
// token alone is not enough: the boards listing endpoint is addressed by
// user id.
const userIDHeader = "X-Wekan-User-Id"

type AuthMiddleware struct {
	log *logrus.Logger
}

func NewAuthMiddleware(log *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{log: log}
}

// Auth lifts bearer credentials from the request headers into the request
// context. Requests without credentials pass through untouched: the
// authorize query needs none, and every other resolver can still receive an
// explicit auth argument.
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			authParts := strings.Split(authHeader, " ")
			if len(authParts) != 2 || authParts[0] != "Bearer" {
				http.Error(w, "invalid authorization format", http.StatusUnauthorized)
				return
			}
			auth := wekan.Auth{
				UserID: r.Header.Get(userIDHeader),
				Token:  authParts[1],
			}
			r = r.WithContext(graph.WithAuth(r.Context(), auth))
		}
		next.ServeHTTP(w, r)
	})
}
