package middleware

import (
	"context"
	"net"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	ContextKeyAccountID contextKey = "account_id"
	ContextKeyTenantID  contextKey = "tenant_id"
	ContextKeyClientIP  contextKey = "client_ip"
)

func AccountIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeyAccountID).(uuid.UUID)
	return v, ok
}

func TenantIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ContextKeyTenantID).(uuid.UUID)
	return v, ok
}

func ClientIPFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ContextKeyClientIP).(string)
	return v, ok
}

// ClientIP stores the request's client IP in the context so handlers behind
// the huma adapter can record it. Relies on chi's RealIP running first.
func ClientIP() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.RemoteAddr
			if host, _, err := net.SplitHostPort(ip); err == nil {
				ip = host
			}

			ctx := context.WithValue(r.Context(), ContextKeyClientIP, ip)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
