package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leasedesk/leasedesk/internal/domain"
)

type LeaseRepo struct {
	pool *pgxpool.Pool
}

func NewLeaseRepo(pool *pgxpool.Pool) *LeaseRepo {
	return &LeaseRepo{pool: pool}
}

func (r *LeaseRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lease, error) {
	var l domain.Lease

	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, property_address, unit_label, landlord_name, rent_cents, start_date, end_date, created_at
		 FROM leases WHERE id = $1`,
		id,
	).Scan(&l.ID, &l.TenantID, &l.PropertyAddress, &l.UnitLabel, &l.LandlordName,
		&l.RentCents, &l.StartDate, &l.EndDate, &l.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("leaseRepo.GetByID: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("leaseRepo.GetByID: %w", err)
	}

	return &l, nil
}
