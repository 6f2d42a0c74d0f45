package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leasedesk/leasedesk/internal/domain"
)

type InvitationRepo struct {
	pool *pgxpool.Pool
}

func NewInvitationRepo(pool *pgxpool.Pool) *InvitationRepo {
	return &InvitationRepo{pool: pool}
}

const invitationColumns = `id, tenant_id, email, token, expires_at, accepted_at, created_at`

// Create inserts a new invitation. The partial unique index on
// (tenant_id) WHERE accepted_at IS NULL means two concurrent issuers race on
// the insert; the loser gets ErrConflict and re-fetches the winner's row.
func (r *InvitationRepo) Create(ctx context.Context, inv *domain.Invitation) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO invitations (id, tenant_id, email, token, expires_at, accepted_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		inv.ID, inv.TenantID, inv.Email, inv.Token, inv.ExpiresAt, inv.AcceptedAt, inv.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("invitationRepo.Create: tenant %s: %w", inv.TenantID, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("invitationRepo.Create: %w", err)
	}

	return nil
}

func (r *InvitationRepo) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	inv, err := r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE token = $1`, token))
	if err != nil {
		return nil, fmt.Errorf("invitationRepo.GetByToken: %w", err)
	}

	return inv, nil
}

func (r *InvitationRepo) GetPendingByTenant(ctx context.Context, tenantID uuid.UUID) (*domain.Invitation, error) {
	inv, err := r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations
		 WHERE tenant_id = $1 AND accepted_at IS NULL`, tenantID))
	if err != nil {
		return nil, fmt.Errorf("invitationRepo.GetPendingByTenant: %w", err)
	}

	return inv, nil
}

// RotateToken replaces the token and expiry of the tenant's unaccepted
// invitation. The accepted_at IS NULL guard keeps a concurrent redemption
// from being overwritten.
func (r *InvitationRepo) RotateToken(ctx context.Context, tenantID uuid.UUID, token string, expiresAt time.Time) (*domain.Invitation, error) {
	inv, err := r.scanOne(r.pool.QueryRow(ctx,
		`UPDATE invitations SET token = $1, expires_at = $2
		 WHERE tenant_id = $3 AND accepted_at IS NULL
		 RETURNING `+invitationColumns,
		token, expiresAt, tenantID))
	if err != nil {
		return nil, fmt.Errorf("invitationRepo.RotateToken: %w", err)
	}

	return inv, nil
}

// Redeem stamps accepted_at and creates the portal account in one
// transaction. Either both land or neither does: a failed account insert
// rolls back the accepted_at stamp, and a lost race on accepted_at surfaces
// as ErrAlreadyAccepted before the account is created.
func (r *InvitationRepo) Redeem(ctx context.Context, token string, account *domain.PortalAccount) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("invitationRepo.Redeem: begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	tag, err := tx.Exec(ctx,
		`UPDATE invitations SET accepted_at = now()
		 WHERE token = $1 AND accepted_at IS NULL`,
		token,
	)
	if err != nil {
		return fmt.Errorf("invitationRepo.Redeem: accept: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invitationRepo.Redeem: %w", domain.ErrAlreadyAccepted)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO portal_accounts (id, tenant_id, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		account.ID, account.TenantID, account.Email, account.PasswordHash,
		account.CreatedAt, account.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("invitationRepo.Redeem: account for %s: %w", account.Email, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("invitationRepo.Redeem: create account: %w", err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return fmt.Errorf("invitationRepo.Redeem: commit: %w", err)
	}

	return nil
}

func (r *InvitationRepo) scanOne(row pgx.Row) (*domain.Invitation, error) {
	var inv domain.Invitation

	err := row.Scan(&inv.ID, &inv.TenantID, &inv.Email, &inv.Token,
		&inv.ExpiresAt, &inv.AcceptedAt, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &inv, nil
}
