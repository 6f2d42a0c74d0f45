package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Invitation is a single-use token that lets a tenant without a portal
// account create one. At most one unaccepted invitation exists per tenant;
// a partial unique index in the store enforces it.
type Invitation struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	Email      string
	Token      string
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	CreatedAt  time.Time
}

func (i *Invitation) Accepted() bool {
	return i.AcceptedAt != nil
}

func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}

// Active reports whether the invitation can still be redeemed.
func (i *Invitation) Active(now time.Time) bool {
	return !i.Accepted() && !i.Expired(now)
}

// InvitationRepository persists invitations.
type InvitationRepository interface {
	// Create inserts a new invitation. Returns ErrConflict when an
	// unaccepted invitation already exists for the tenant.
	Create(ctx context.Context, inv *Invitation) error
	GetByToken(ctx context.Context, token string) (*Invitation, error)
	// GetPendingByTenant returns the tenant's unaccepted invitation
	// regardless of expiry, or ErrNotFound.
	GetPendingByTenant(ctx context.Context, tenantID uuid.UUID) (*Invitation, error)
	// RotateToken replaces the token and expiry of the tenant's unaccepted
	// invitation in place and returns the updated row. Used when the
	// previous token lapsed before it was redeemed.
	RotateToken(ctx context.Context, tenantID uuid.UUID, token string, expiresAt time.Time) (*Invitation, error)
	// Redeem stamps accepted_at and creates the portal account in a single
	// transaction. Returns ErrAlreadyAccepted when the token was redeemed
	// concurrently and ErrConflict when an account already exists for the
	// email.
	Redeem(ctx context.Context, token string, account *PortalAccount) error
}
