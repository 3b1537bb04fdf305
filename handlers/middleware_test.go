package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CrowderSoup/wekan-graphql/graph"
	"github.com/CrowderSoup/wekan-graphql/wekan"
)

func newAuthTestHandler(t *testing.T) (http.Handler, *wekan.Auth, *bool) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	var got wekan.Auth
	var present bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, present = graph.AuthFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return NewAuthMiddleware(log).Auth(next), &got, &present
}

func TestAuthLiftsBearerCredentials(t *testing.T) {
	handler, got, present := newAuthTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	req.Header.Set("Authorization", "Bearer token1")
	req.Header.Set("X-Wekan-User-Id", "id1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, *present)
	assert.Equal(t, wekan.Auth{UserID: "id1", Token: "token1"}, *got)
}

func TestAuthRejectsMalformedHeader(t *testing.T) {
	handler, _, present := newAuthTestHandler(t)

	for _, header := range []string{"token1", "Basic dXNlcjpwYXNz", "Bearer a b"} {
		req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
		assert.False(t, *present)
	}
}

func TestAuthPassesThroughWithoutHeader(t *testing.T) {
	handler, _, present := newAuthTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/graphql", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// no credentials is fine, authorize and auth arguments still work
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, *present)
}
