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

type PortalAccountRepo struct {
	pool *pgxpool.Pool
}

func NewPortalAccountRepo(pool *pgxpool.Pool) *PortalAccountRepo {
	return &PortalAccountRepo{pool: pool}
}

const accountColumns = `id, tenant_id, email, password_hash, created_at, updated_at`

func (r *PortalAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PortalAccount, error) {
	acc, err := r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM portal_accounts WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("portalAccountRepo.GetByID: %w", err)
	}

	return acc, nil
}

func (r *PortalAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.PortalAccount, error) {
	acc, err := r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM portal_accounts WHERE email = $1`, email))
	if err != nil {
		return nil, fmt.Errorf("portalAccountRepo.GetByEmail: %w", err)
	}

	return acc, nil
}

func (r *PortalAccountRepo) scanOne(row pgx.Row) (*domain.PortalAccount, error) {
	var acc domain.PortalAccount

	err := row.Scan(&acc.ID, &acc.TenantID, &acc.Email, &acc.PasswordHash,
		&acc.CreatedAt, &acc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &acc, nil
}
