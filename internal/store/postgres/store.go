package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leasedesk/leasedesk/internal/domain"
)

//go:embed schema.sql
var schema string

type Store struct {
	pool        *pgxpool.Pool
	agreements  *AgreementRepo
	signatures  *SignatureRepo
	invitations *InvitationRepo
	leases      *LeaseRepo
	tenants     *TenantRepo
	accounts    *PortalAccountRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:        pool,
		agreements:  NewAgreementRepo(pool),
		signatures:  NewSignatureRepo(pool),
		invitations: NewInvitationRepo(pool),
		leases:      NewLeaseRepo(pool),
		tenants:     NewTenantRepo(pool),
		accounts:    NewPortalAccountRepo(pool),
	}, nil
}

// Migrate applies the embedded schema. All statements are idempotent
// (CREATE ... IF NOT EXISTS), so running it on every startup is safe.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("postgres.Store.Migrate: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Agreements() domain.AgreementRepository         { return s.agreements }
func (s *Store) Signatures() domain.SignatureRepository         { return s.signatures }
func (s *Store) Invitations() domain.InvitationRepository       { return s.invitations }
func (s *Store) Leases() domain.LeaseRepository                 { return s.leases }
func (s *Store) Tenants() domain.TenantRepository               { return s.tenants }
func (s *Store) PortalAccounts() domain.PortalAccountRepository { return s.accounts }
