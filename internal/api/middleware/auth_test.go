package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/pirateclash/internal/model"
	"github.com/mcoot/pirateclash/internal/services/auth"
)

type stubSessions map[string]*auth.Session

func (s stubSessions) ValidateSession(ctx context.Context, token string) (*auth.Session, error) {
	if session, ok := s[token]; ok {
		return session, nil
	}
	return nil, auth.ErrInvalidSession
}

func testSessions() stubSessions {
	return stubSessions{
		"sess_ok": {
			Session: model.Session{Token: "sess_ok", PlayerID: "p1"},
			Player:  &model.Player{ID: "p1", DisplayName: "Alice"},
		},
	}
}

// echoPlayer writes the caller's player ID, or "anonymous"
var echoPlayer = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id := PlayerID(r.Context())
	if id == "" {
		id = "anonymous"
	}
	_, _ = w.Write([]byte(id))
})

func serve(h http.Handler, setup func(r *http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if setup != nil {
		setup(req)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestAuth(t *testing.T) {
	h := Auth(testSessions())(echoPlayer)

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{"bearer token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer sess_ok") }, http.StatusOK, "p1"},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "sess_ok"}) }, http.StatusOK, "p1"},
		{"missing token", nil, http.StatusUnauthorized, ""},
		{"unknown token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer sess_nope") }, http.StatusUnauthorized, ""},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic sess_ok") }, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(h, tt.setup)
			assert.Equal(t, tt.status, rr.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rr.Body.String())
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	h := OptionalAuth(testSessions())(echoPlayer)

	rr := serve(h, func(r *http.Request) { r.Header.Set("Authorization", "Bearer sess_ok") })
	assert.Equal(t, "p1", rr.Body.String())

	rr = serve(h, nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "anonymous", rr.Body.String())

	rr = serve(h, func(r *http.Request) { r.Header.Set("Authorization", "Bearer sess_nope") })
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "anonymous", rr.Body.String())
}

func TestContextAccessorsWithoutSession(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetSession(ctx))
	assert.Nil(t, GetPlayer(ctx))
	assert.Empty(t, PlayerID(ctx))
}
