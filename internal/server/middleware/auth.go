package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/leasedesk/leasedesk/internal/auth"
)

// PortalAuth validates the Bearer session JWT on portal routes and places the
// account and tenant IDs in the request context.
func PortalAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := extractBearer(r)
			if tok == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			claims, err := auth.ValidateToken(jwtSecret, tok)
			if err != nil {
				unauthorized(w, "invalid or expired session")
				return
			}

			accountID, err := uuid.Parse(claims.AccountID)
			if err != nil {
				unauthorized(w, "invalid or expired session")
				return
			}
			tenantID, err := uuid.Parse(claims.TenantID)
			if err != nil {
				unauthorized(w, "invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyAccountID, accountID)
			ctx = context.WithValue(ctx, ContextKeyTenantID, tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// StaffKey guards back-office routes with a shared API key. The comparison is
// constant time so response timing leaks nothing about the configured key.
func StaffKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if key == "" {
				unauthorized(w, "staff API disabled")
				return
			}

			got := r.Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				unauthorized(w, "missing or invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func extractBearer(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return header[7:]
	}
	return ""
}

func unauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("Content-Type", "application/json")
	http.Error(w, `{"title":"Unauthorized","status":401,"detail":"`+detail+`"}`, http.StatusUnauthorized)
}
