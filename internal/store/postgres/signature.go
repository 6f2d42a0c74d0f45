package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leasedesk/leasedesk/internal/domain"
)

type SignatureRepo struct {
	pool *pgxpool.Pool
}

func NewSignatureRepo(pool *pgxpool.Pool) *SignatureRepo {
	return &SignatureRepo{pool: pool}
}

// Create inserts the signature. The UNIQUE (agreement_id, signer_role)
// constraint is the one-signature-per-role invariant; a violation means this
// role already signed, however close the two submissions were.
func (r *SignatureRepo) Create(ctx context.Context, s *domain.Signature) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO signatures (id, agreement_id, signer_role, signer_name, signer_email, method, signature_data, ip_address, signed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.AgreementID, s.SignerRole, s.SignerName, s.SignerEmail,
		s.Method, nilIfEmpty(s.SignatureData), nilIfEmpty(s.IPAddress), s.SignedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("signatureRepo.Create: role %s: %w", s.SignerRole, domain.ErrAlreadySigned)
	}
	if err != nil {
		return fmt.Errorf("signatureRepo.Create: %w", err)
	}

	return nil
}

func (r *SignatureRepo) ListByAgreement(ctx context.Context, agreementID uuid.UUID) ([]*domain.Signature, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, agreement_id, signer_role, signer_name, signer_email, method, signature_data, ip_address, signed_at
		 FROM signatures WHERE agreement_id = $1 ORDER BY signed_at, id`,
		agreementID,
	)
	if err != nil {
		return nil, fmt.Errorf("signatureRepo.ListByAgreement: %w", err)
	}
	defer rows.Close()

	var sigs []*domain.Signature
	for rows.Next() {
		var s domain.Signature
		var data, ip *string

		err = rows.Scan(&s.ID, &s.AgreementID, &s.SignerRole, &s.SignerName, &s.SignerEmail,
			&s.Method, &data, &ip, &s.SignedAt)
		if err != nil {
			return nil, fmt.Errorf("signatureRepo.ListByAgreement: scan: %w", err)
		}

		s.SignatureData = derefStr(data)
		s.IPAddress = derefStr(ip)
		sigs = append(sigs, &s)
	}
	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("signatureRepo.ListByAgreement: rows: %w", err)
	}

	return sigs, nil
}
