package esign_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leasedesk/leasedesk/internal/domain"
)

// ---------------------------------------------------------------------------
// In-memory agreement + signature store.
//
// Mirrors the semantics the postgres repos get from the database: uniqueness
// enforced at write time and guarded conditional status updates. That makes
// the race tests below meaningful — two goroutines really do contend on the
// same invariants.
// ---------------------------------------------------------------------------

type memStore struct {
	mu         sync.Mutex
	agreements map[uuid.UUID]*domain.Agreement
	byLease    map[uuid.UUID]uuid.UUID
	signatures map[uuid.UUID][]*domain.Signature
}

func newMemStore() *memStore {
	return &memStore{
		agreements: make(map[uuid.UUID]*domain.Agreement),
		byLease:    make(map[uuid.UUID]uuid.UUID),
		signatures: make(map[uuid.UUID][]*domain.Signature),
	}
}

func (m *memStore) Create(_ context.Context, a *domain.Agreement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byLease[a.LeaseID]; exists {
		return fmt.Errorf("memStore.Create: lease %s: %w", a.LeaseID, domain.ErrConflict)
	}

	cp := *a
	m.agreements[a.ID] = &cp
	m.byLease[a.LeaseID] = a.ID
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Agreement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.agreements[id]
	if !ok {
		return nil, domain.ErrNotFound
	}

	cp := *a
	return &cp, nil
}

func (m *memStore) GetByLeaseID(_ context.Context, leaseID uuid.UUID) (*domain.Agreement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byLease[leaseID]
	if !ok {
		return nil, domain.ErrNotFound
	}

	cp := *m.agreements[id]
	return &cp, nil
}

func (m *memStore) MarkPending(_ context.Context, id uuid.UUID, sentAt time.Time) (bool, error) {
	return m.transition(id, []domain.AgreementStatus{domain.AgreementStatusDraft}, func(a *domain.Agreement) {
		a.Status = domain.AgreementStatusPending
		a.SentAt = &sentAt
	}), nil
}

func (m *memStore) MarkSigned(_ context.Context, id uuid.UUID, signedAt time.Time) (bool, error) {
	return m.transition(id, []domain.AgreementStatus{domain.AgreementStatusDraft, domain.AgreementStatusPending}, func(a *domain.Agreement) {
		a.Status = domain.AgreementStatusSigned
		a.SignedAt = &signedAt
	}), nil
}

func (m *memStore) MarkExpired(_ context.Context, id uuid.UUID) (bool, error) {
	return m.transition(id, []domain.AgreementStatus{domain.AgreementStatusDraft, domain.AgreementStatusPending}, func(a *domain.Agreement) {
		a.Status = domain.AgreementStatusExpired
	}), nil
}

func (m *memStore) MarkVoided(_ context.Context, id uuid.UUID) (bool, error) {
	return m.transition(id, []domain.AgreementStatus{domain.AgreementStatusDraft, domain.AgreementStatusPending, domain.AgreementStatusExpired}, func(a *domain.Agreement) {
		a.Status = domain.AgreementStatusVoided
	}), nil
}

func (m *memStore) transition(id uuid.UUID, from []domain.AgreementStatus, apply func(*domain.Agreement)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.agreements[id]
	if !ok {
		return false
	}

	for _, st := range from {
		if a.Status == st {
			apply(a)
			a.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// CreateSignature implements domain.SignatureRepository.Create with the
// one-per-(agreement, role) constraint enforced under the lock.
func (m *memStore) CreateSignature(_ context.Context, s *domain.Signature) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.signatures[s.AgreementID] {
		if existing.SignerRole == s.SignerRole {
			return fmt.Errorf("memStore.CreateSignature: role %s: %w", s.SignerRole, domain.ErrAlreadySigned)
		}
	}

	cp := *s
	m.signatures[s.AgreementID] = append(m.signatures[s.AgreementID], &cp)
	return nil
}

func (m *memStore) ListByAgreement(_ context.Context, agreementID uuid.UUID) ([]*domain.Signature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sigs := m.signatures[agreementID]
	out := make([]*domain.Signature, 0, len(sigs))
	for _, s := range sigs {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

// sigRepo adapts memStore to domain.SignatureRepository (Create name clash
// with the agreement repo).
type sigRepo struct{ store *memStore }

func (r sigRepo) Create(ctx context.Context, s *domain.Signature) error {
	return r.store.CreateSignature(ctx, s)
}

func (r sigRepo) ListByAgreement(ctx context.Context, agreementID uuid.UUID) ([]*domain.Signature, error) {
	return r.store.ListByAgreement(ctx, agreementID)
}

// ---------------------------------------------------------------------------
// Collaborator mocks
// ---------------------------------------------------------------------------

type mockLeaseRepo struct {
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Lease, error)
}

func (m *mockLeaseRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lease, error) {
	return m.getByIDFunc(ctx, id)
}

type mockTenantRepo struct {
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Tenant, error)
}

func (m *mockTenantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	return m.getByIDFunc(ctx, id)
}

type mockAccountRepo struct {
	getByIDFunc    func(ctx context.Context, id uuid.UUID) (*domain.PortalAccount, error)
	getByEmailFunc func(ctx context.Context, email string) (*domain.PortalAccount, error)
}

func (m *mockAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PortalAccount, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.PortalAccount, error) {
	return m.getByEmailFunc(ctx, email)
}

type mockBroker struct {
	mu         sync.Mutex
	calls      int
	ensureFunc func(ctx context.Context, tenantID uuid.UUID, email string) (*domain.Invitation, error)
}

func (m *mockBroker) EnsureInvitation(ctx context.Context, tenantID uuid.UUID, email string) (*domain.Invitation, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.ensureFunc(ctx, tenantID, email)
}

func (m *mockBroker) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type sentEmail struct {
	to       string
	template string
}

type mockGateway struct {
	mu    sync.Mutex
	sends []sentEmail
	err   error
}

func (m *mockGateway) Send(_ context.Context, to, template string, _ map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, sentEmail{to: to, template: template})
	return m.err
}

func (m *mockGateway) sent(template string) []sentEmail {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []sentEmail
	for _, s := range m.sends {
		if s.template == template {
			out = append(out, s)
		}
	}
	return out
}

type mockRenderer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockRenderer) Render(_ context.Context, _ *domain.Lease, _ *domain.Agreement, _ []*domain.Signature) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return []byte("rendered agreement"), nil
}

func (m *mockRenderer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
