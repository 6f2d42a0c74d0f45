package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PortalAccount is a tenant's login to the resident portal. Accounts are
// created by redeeming an invitation; there is no open signup.
type PortalAccount struct {
	ID           uuid.UUID
	TenantID     uuid.UUID
	Email        string
	PasswordHash string // argon2id
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PortalAccountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*PortalAccount, error)
	GetByEmail(ctx context.Context, email string) (*PortalAccount, error)
}
