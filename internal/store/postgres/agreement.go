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

type AgreementRepo struct {
	pool *pgxpool.Pool
}

func NewAgreementRepo(pool *pgxpool.Pool) *AgreementRepo {
	return &AgreementRepo{pool: pool}
}

const agreementColumns = `id, lease_id, status, template_content, sent_at, signed_at, expires_at, created_at, updated_at`

func (r *AgreementRepo) Create(ctx context.Context, a *domain.Agreement) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO agreements (id, lease_id, status, template_content, sent_at, signed_at, expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.LeaseID, a.Status, a.TemplateContent,
		a.SentAt, a.SignedAt, a.ExpiresAt, a.CreatedAt, a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("agreementRepo.Create: lease %s: %w", a.LeaseID, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("agreementRepo.Create: %w", err)
	}

	return nil
}

func (r *AgreementRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Agreement, error) {
	a, err := r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+agreementColumns+` FROM agreements WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("agreementRepo.GetByID: %w", err)
	}

	return a, nil
}

func (r *AgreementRepo) GetByLeaseID(ctx context.Context, leaseID uuid.UUID) (*domain.Agreement, error) {
	a, err := r.scanOne(r.pool.QueryRow(ctx,
		`SELECT `+agreementColumns+` FROM agreements WHERE lease_id = $1`, leaseID))
	if err != nil {
		return nil, fmt.Errorf("agreementRepo.GetByLeaseID: %w", err)
	}

	return a, nil
}

// MarkPending moves draft -> pending. The status guard in the WHERE clause is
// the transition's authority; a false return means the row was not in draft.
func (r *AgreementRepo) MarkPending(ctx context.Context, id uuid.UUID, sentAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE agreements SET status = $1, sent_at = $2, updated_at = now()
		 WHERE id = $3 AND status = $4`,
		domain.AgreementStatusPending, sentAt, id, domain.AgreementStatusDraft,
	)
	if err != nil {
		return false, fmt.Errorf("agreementRepo.MarkPending: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// MarkSigned moves draft/pending -> signed. Two signers finishing at the same
// instant both attempt this update; the guard lets exactly one through.
func (r *AgreementRepo) MarkSigned(ctx context.Context, id uuid.UUID, signedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE agreements SET status = $1, signed_at = $2, updated_at = now()
		 WHERE id = $3 AND status IN ($4, $5)`,
		domain.AgreementStatusSigned, signedAt, id,
		domain.AgreementStatusDraft, domain.AgreementStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("agreementRepo.MarkSigned: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *AgreementRepo) MarkExpired(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE agreements SET status = $1, updated_at = now()
		 WHERE id = $2 AND status IN ($3, $4)`,
		domain.AgreementStatusExpired, id,
		domain.AgreementStatusDraft, domain.AgreementStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("agreementRepo.MarkExpired: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *AgreementRepo) MarkVoided(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE agreements SET status = $1, updated_at = now()
		 WHERE id = $2 AND status IN ($3, $4, $5)`,
		domain.AgreementStatusVoided, id,
		domain.AgreementStatusDraft, domain.AgreementStatusPending, domain.AgreementStatusExpired,
	)
	if err != nil {
		return false, fmt.Errorf("agreementRepo.MarkVoided: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

func (r *AgreementRepo) scanOne(row pgx.Row) (*domain.Agreement, error) {
	var a domain.Agreement

	err := row.Scan(&a.ID, &a.LeaseID, &a.Status, &a.TemplateContent,
		&a.SentAt, &a.SignedAt, &a.ExpiresAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &a, nil
}
