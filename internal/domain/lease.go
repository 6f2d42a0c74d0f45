package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Lease is the rental contract record the agreement workflow hangs off.
// Lease CRUD is handled elsewhere in the back office; the workflow only
// reads leases.
type Lease struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	PropertyAddress string
	UnitLabel       string
	LandlordName    string
	RentCents       int64
	StartDate       time.Time
	EndDate         time.Time
	CreatedAt       time.Time
}

type LeaseRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Lease, error)
}
