package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/xhatsu/reminder-me-api/internal/app"
	"github.com/xhatsu/reminder-me-api/internal/ratelimit"
	"github.com/xhatsu/reminder-me-api/internal/store"
)

func newRateLimitedServer(t *testing.T, perWindow int) *httptest.Server {
	t.Helper()
	redis := miniredis.RunT(t)
	limiter, err := ratelimit.NewRedisFixedWindowLimiter(redis.Addr(), "", "test:ratelimit", perWindow, time.Minute)
	if err != nil {
		t.Fatalf("new limiter: %v", err)
	}
	sessions, err := store.NewJWTSessionStore("test-secret", time.Hour, store.NewMemoryTokenRevoker(), store.JWTOptions{})
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	appCore, err := app.New(app.Config{
		Store:    store.NewMemoryStore(),
		Sessions: sessions,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	srv := httptest.NewServer(New(Config{App: appCore, Limiter: limiter}).Router())
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	srv := newRateLimitedServer(t, 2)

	for i := 0; i < 2; i++ {
		resp, _ := doJSON(t, http.MethodPost, srv.URL+"/login", map[string]string{
			"username": "alice", "password_hash": "h",
		}, "")
		if resp.StatusCode == http.StatusTooManyRequests {
			t.Fatalf("request %d should be within quota", i+1)
		}
	}
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/login", map[string]string{
		"username": "alice", "password_hash": "h",
	}, "")
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after quota, got %d body %v", resp.StatusCode, body)
	}
}

func TestRateLimitDoesNotCoverUnlimitedRoutes(t *testing.T) {
	srv := newRateLimitedServer(t, 1)

	// Exhaust the auth quota.
	doJSON(t, http.MethodPost, srv.URL+"/login", map[string]string{
		"username": "alice", "password_hash": "h",
	}, "")

	resp, _ := doJSON(t, http.MethodGet, srv.URL+"/healthz", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz must not be rate limited, got %d", resp.StatusCode)
	}
}
