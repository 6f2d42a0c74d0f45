package v1

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/leasedesk/leasedesk/internal/domain"
	"github.com/leasedesk/leasedesk/internal/esign"
	"github.com/leasedesk/leasedesk/internal/invite"
)

// EsignService abstracts the agreement lifecycle for handler testing.
// *esign.Service satisfies this interface.
type EsignService interface {
	Create(ctx context.Context, leaseID uuid.UUID, templateContent string, expiresAt *time.Time) (*domain.Agreement, error)
	Send(ctx context.Context, id uuid.UUID, tenantEmail string) (*domain.Agreement, error)
	Sign(ctx context.Context, id uuid.UUID, info esign.SignerInfo) (*esign.SignResult, error)
	Void(ctx context.Context, id uuid.UUID) (*domain.Agreement, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Agreement, []*domain.Signature, error)
	Document(ctx context.Context, id uuid.UUID) ([]byte, error)
}

// InviteService abstracts invitation validation and redemption for handler
// testing. *invite.Service satisfies this interface.
type InviteService interface {
	ValidateToken(ctx context.Context, token string) (*invite.Validation, error)
	Accept(ctx context.Context, token, password string) (*domain.PortalAccount, string, error)
}

// AuthService abstracts portal login for handler testing. *auth.Service
// satisfies this interface.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, *domain.PortalAccount, error)
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.PortalAccount, error)
}
