package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leasedesk/leasedesk/internal/auth"
	"github.com/leasedesk/leasedesk/internal/server/middleware"
)

func TestStaffKey(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("valid key", func(t *testing.T) {
		t.Parallel()

		handler := middleware.StaffKey("secret-key")(next)
		req := httptest.NewRequest(http.MethodPost, "/agreements", nil)
		req.Header.Set("X-API-Key", "secret-key")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("wrong key", func(t *testing.T) {
		t.Parallel()

		handler := middleware.StaffKey("secret-key")(next)
		req := httptest.NewRequest(http.MethodPost, "/agreements", nil)
		req.Header.Set("X-API-Key", "wrong")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()

		handler := middleware.StaffKey("secret-key")(next)
		req := httptest.NewRequest(http.MethodPost, "/agreements", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unconfigured key rejects everything", func(t *testing.T) {
		t.Parallel()

		handler := middleware.StaffKey("")(next)
		req := httptest.NewRequest(http.MethodPost, "/agreements", nil)
		req.Header.Set("X-API-Key", "")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestPortalAuth(t *testing.T) {
	t.Parallel()

	const secret = "test-jwt-secret"
	accountID := uuid.New()
	tenantID := uuid.New()

	t.Run("valid session", func(t *testing.T) {
		t.Parallel()

		token, err := auth.IssueSessionToken(secret, accountID, tenantID, time.Hour)
		require.NoError(t, err)

		var gotAccount, gotTenant uuid.UUID
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAccount, _ = middleware.AccountIDFromContext(r.Context())
			gotTenant, _ = middleware.TenantIDFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		})

		handler := middleware.PortalAuth(secret)(next)
		req := httptest.NewRequest(http.MethodGet, "/portal/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, accountID, gotAccount)
		assert.Equal(t, tenantID, gotTenant)
	})

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()

		handler := middleware.PortalAuth(secret)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest(http.MethodGet, "/portal/me", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()

		token, err := auth.IssueSessionToken("other-secret", accountID, tenantID, time.Hour)
		require.NoError(t, err)

		handler := middleware.PortalAuth(secret)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest(http.MethodGet, "/portal/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired session", func(t *testing.T) {
		t.Parallel()

		token, err := auth.IssueSessionToken(secret, accountID, tenantID, -time.Minute)
		require.NoError(t, err)

		handler := middleware.PortalAuth(secret)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest(http.MethodGet, "/portal/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	var got string
	handler := middleware.ClientIP()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = middleware.ClientIPFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/agreements/x/sign", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	assert.Equal(t, "203.0.113.9", got)
}

func TestRateLimitByIP(t *testing.T) {
	t.Parallel()

	handler := middleware.RateLimitByIP(t.Context(), 1, 2)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/agreements/x", nil)
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	// Burst of 2 allowed, third call throttled.
	assert.Equal(t, http.StatusOK, send("198.51.100.1:1000"))
	assert.Equal(t, http.StatusOK, send("198.51.100.1:1000"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1:1000"))

	// Other IPs are unaffected.
	assert.Equal(t, http.StatusOK, send("198.51.100.2:1000"))
}
