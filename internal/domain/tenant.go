package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant is the renter. Tenant CRUD is handled elsewhere in the back office;
// the workflow reads tenants to address invitations.
type Tenant struct {
	ID        uuid.UUID
	FullName  string
	Email     string
	Phone     string
	CreatedAt time.Time
}

type TenantRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
}
