package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vxplore/Clinik-pe-sub000/internal/session"
	"github.com/vxplore/Clinik-pe-sub000/internal/tenancy"
	"github.com/vxplore/Clinik-pe-sub000/pkg/logging"
)

type fakeTokens map[string]string

func (f fakeTokens) Parse(token string) (string, error) {
	if id, ok := f[token]; ok {
		return id, nil
	}
	return "", session.ErrInvalidToken
}

type fakeSessions map[string]session.Session

func (f fakeSessions) Get(_ context.Context, id string) (session.Session, error) {
	if s, ok := f[id]; ok {
		return s, nil
	}
	return session.Session{}, session.ErrNotFound
}

type brokenSessions struct{}

func (brokenSessions) Get(context.Context, string) (session.Session, error) {
	return session.Session{}, errors.New("redis down")
}

func TestRequireSession(t *testing.T) {
	tokens := fakeTokens{"good": "s-1", "orphan": "s-404"}
	sessions := fakeSessions{"s-1": {ID: "s-1", Kind: session.KindAdmin, OrgID: "org-1", UpstreamToken: "up"}}

	var seen session.Session
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = session.FromContext(r.Context())
		org, _ := tenancy.OrgIDFromContext(r.Context())
		assert.Equal(t, "org-1", org)
		w.WriteHeader(http.StatusOK)
	})
	h := RequireSession(tokens, sessions, logging.New("error"))(next)

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "good"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "s-1", seen.ID)
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	for _, tc := range []struct{ name, token string }{
		{"missing", ""},
		{"forged", "forged"},
		{"expired session", "orphan"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/centers", nil)
			if tc.token != "" {
				req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tc.token})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			require.Equal(t, http.StatusUnauthorized, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "/login", body["redirect"])
			assert.Equal(t, false, body["success"])
		})
	}
}

func TestRequireSession_StoreFailure(t *testing.T) {
	var buf bytes.Buffer
	h := RequireSession(fakeTokens{"good": "s-1"}, brokenSessions{}, logging.NewWithWriter(&buf, "debug"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { t.Error("handler must not run") }))

	req := httptest.NewRequest(http.MethodGet, "/api/centers", nil)
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, buf.String(), "session lookup failed")
}

func TestRequireKind(t *testing.T) {
	h := RequireKind(session.KindDoctor)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/doctor/dashboard", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(session.WithSession(req.Context(), session.Session{ID: "s", Kind: session.KindAdmin})))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(session.WithSession(req.Context(), session.Session{ID: "s", Kind: session.KindDoctor})))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Stop()
	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
	assert.True(t, rl.Allow("10.0.0.2"), "buckets are per ip")

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(0, 1)
	defer rl.Stop()
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "203.0.113.9:51000"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many attempts")
}

func TestRateLimiterMiddleware_SameHostNewPorts(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	defer rl.Stop()
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	allowed := 0
	for port := 40000; port < 40005; port++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = fmt.Sprintf("203.0.113.7:%d", port)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}
	assert.Equal(t, 1, allowed)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "198.51.100.4:40000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, "other hosts keep their own bucket")
}

func TestClientIP(t *testing.T) {
	for _, tc := range []struct{ remote, want string }{
		{"203.0.113.7:40000", "203.0.113.7"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"203.0.113.7", "203.0.113.7"},
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remote
		assert.Equal(t, tc.want, clientIP(req), tc.remote)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	h := RequestLogger(logging.NewWithWriter(&buf, "info"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/centers", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))
	out := buf.String()
	assert.True(t, strings.Contains(out, `"status":201`), out)
	assert.Contains(t, out, `"request_id":"req-42"`)
}
