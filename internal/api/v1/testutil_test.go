package v1_test

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/leasedesk/leasedesk/internal/domain"
	"github.com/leasedesk/leasedesk/internal/esign"
	"github.com/leasedesk/leasedesk/internal/invite"
	"github.com/leasedesk/leasedesk/internal/server/middleware"
)

// ---------------------------------------------------------------------------
// Context helpers
// ---------------------------------------------------------------------------

func clientCtx(ip string) context.Context {
	return context.WithValue(context.Background(), middleware.ContextKeyClientIP, ip)
}

func sessionCtx(accountID, tenantID uuid.UUID) context.Context {
	ctx := context.WithValue(context.Background(), middleware.ContextKeyAccountID, accountID)
	ctx = context.WithValue(ctx, middleware.ContextKeyTenantID, tenantID)
	return ctx
}

// ---------------------------------------------------------------------------
// Mock EsignService
// ---------------------------------------------------------------------------

type mockEsignService struct {
	createFunc   func(ctx context.Context, leaseID uuid.UUID, templateContent string, expiresAt *time.Time) (*domain.Agreement, error)
	sendFunc     func(ctx context.Context, id uuid.UUID, tenantEmail string) (*domain.Agreement, error)
	signFunc     func(ctx context.Context, id uuid.UUID, info esign.SignerInfo) (*esign.SignResult, error)
	voidFunc     func(ctx context.Context, id uuid.UUID) (*domain.Agreement, error)
	getFunc      func(ctx context.Context, id uuid.UUID) (*domain.Agreement, []*domain.Signature, error)
	documentFunc func(ctx context.Context, id uuid.UUID) ([]byte, error)
}

func (m *mockEsignService) Create(ctx context.Context, leaseID uuid.UUID, templateContent string, expiresAt *time.Time) (*domain.Agreement, error) {
	return m.createFunc(ctx, leaseID, templateContent, expiresAt)
}

func (m *mockEsignService) Send(ctx context.Context, id uuid.UUID, tenantEmail string) (*domain.Agreement, error) {
	return m.sendFunc(ctx, id, tenantEmail)
}

func (m *mockEsignService) Sign(ctx context.Context, id uuid.UUID, info esign.SignerInfo) (*esign.SignResult, error) {
	return m.signFunc(ctx, id, info)
}

func (m *mockEsignService) Void(ctx context.Context, id uuid.UUID) (*domain.Agreement, error) {
	return m.voidFunc(ctx, id)
}

func (m *mockEsignService) Get(ctx context.Context, id uuid.UUID) (*domain.Agreement, []*domain.Signature, error) {
	return m.getFunc(ctx, id)
}

func (m *mockEsignService) Document(ctx context.Context, id uuid.UUID) ([]byte, error) {
	return m.documentFunc(ctx, id)
}

// ---------------------------------------------------------------------------
// Mock InviteService
// ---------------------------------------------------------------------------

type mockInviteService struct {
	validateTokenFunc func(ctx context.Context, token string) (*invite.Validation, error)
	acceptFunc        func(ctx context.Context, token, password string) (*domain.PortalAccount, string, error)
}

func (m *mockInviteService) ValidateToken(ctx context.Context, token string) (*invite.Validation, error) {
	return m.validateTokenFunc(ctx, token)
}

func (m *mockInviteService) Accept(ctx context.Context, token, password string) (*domain.PortalAccount, string, error) {
	return m.acceptFunc(ctx, token, password)
}

// ---------------------------------------------------------------------------
// Mock AuthService
// ---------------------------------------------------------------------------

type mockAuthService struct {
	loginFunc      func(ctx context.Context, email, password string) (string, *domain.PortalAccount, error)
	getAccountFunc func(ctx context.Context, id uuid.UUID) (*domain.PortalAccount, error)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (string, *domain.PortalAccount, error) {
	return m.loginFunc(ctx, email, password)
}

func (m *mockAuthService) GetAccount(ctx context.Context, id uuid.UUID) (*domain.PortalAccount, error) {
	return m.getAccountFunc(ctx, id)
}
