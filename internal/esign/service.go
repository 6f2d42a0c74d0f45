package esign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/leasedesk/leasedesk/internal/docrender"
	"github.com/leasedesk/leasedesk/internal/domain"
	"github.com/leasedesk/leasedesk/internal/notify"
)

// DefaultExpiry is applied when an agreement is created without an explicit
// expiry.
const DefaultExpiry = 7 * 24 * time.Hour

// InvitationBroker issues the portal invitation a tenant signer without an
// account needs. Implemented by the invite service.
type InvitationBroker interface {
	EnsureInvitation(ctx context.Context, tenantID uuid.UUID, email string) (*domain.Invitation, error)
}

// StaffAnnouncer posts back-office notifications. May be nil when no staff
// channel is configured.
type StaffAnnouncer interface {
	AgreementFullySigned(ctx context.Context, propertyAddress, unitLabel, tenantName string) error
}

// SignerInfo carries the signer-supplied fields of a signature request.
type SignerInfo struct {
	Role      domain.SignerRole
	Name      string
	Email     string
	Method    domain.SignatureMethod
	Data      string
	IPAddress string
}

// SignResult is the outcome of a successful Sign call. InvitationToken is
// non-empty only when a tenant signed without an existing portal account.
type SignResult struct {
	Agreement       *domain.Agreement
	Signature       *domain.Signature
	InvitationToken string
}

// Service owns the agreement state machine: creation, sending, signing with
// the signed-aggregation rule, lazy expiration, and voiding. It is stateless
// between calls; every decision is made against the store, so any number of
// handler instances can run it concurrently.
type Service struct {
	agreements    domain.AgreementRepository
	signatures    domain.SignatureRepository
	leases        domain.LeaseRepository
	tenants       domain.TenantRepository
	accounts      domain.PortalAccountRepository
	broker        InvitationBroker
	gateway       notify.Gateway
	renderer      docrender.Renderer
	staff         StaffAnnouncer // nil when Slack is not configured
	publisher     Publisher      // nil in tests that don't care about events
	signingURL    string         // base URL embedded in "ready to sign" emails
	defaultExpiry time.Duration
}

func NewService(
	agreements domain.AgreementRepository,
	signatures domain.SignatureRepository,
	leases domain.LeaseRepository,
	tenants domain.TenantRepository,
	accounts domain.PortalAccountRepository,
	broker InvitationBroker,
	gateway notify.Gateway,
	renderer docrender.Renderer,
	staff StaffAnnouncer,
	publisher Publisher,
	signingURL string,
	defaultExpiry time.Duration,
) *Service {
	if defaultExpiry <= 0 {
		defaultExpiry = DefaultExpiry
	}

	return &Service{
		agreements:    agreements,
		signatures:    signatures,
		leases:        leases,
		tenants:       tenants,
		accounts:      accounts,
		broker:        broker,
		gateway:       gateway,
		renderer:      renderer,
		staff:         staff,
		publisher:     publisher,
		signingURL:    signingURL,
		defaultExpiry: defaultExpiry,
	}
}

// Create starts a draft agreement for a lease. Fails with domain.ErrNotFound
// when the lease does not exist and domain.ErrConflict when the lease already
// has an agreement.
func (s *Service) Create(ctx context.Context, leaseID uuid.UUID, templateContent string, expiresAt *time.Time) (*domain.Agreement, error) {
	_, err := s.leases.GetByID(ctx, leaseID)
	if err != nil {
		return nil, fmt.Errorf("esign.Service.Create: get lease: %w", err)
	}

	now := time.Now()
	expiry := now.Add(s.defaultExpiry)
	if expiresAt != nil {
		expiry = *expiresAt
	}

	agreement := &domain.Agreement{
		ID:              uuid.New(),
		LeaseID:         leaseID,
		Status:          domain.AgreementStatusDraft,
		TemplateContent: templateContent,
		ExpiresAt:       &expiry,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.agreements.Create(ctx, agreement)
	if err != nil {
		return nil, fmt.Errorf("esign.Service.Create: %w", err)
	}

	s.publish(ctx, Event{Type: EventCreated, AgreementID: agreement.ID, Status: agreement.Status})

	return agreement, nil
}

// Send routes a draft agreement to the tenant for signature. Stamps sent_at,
// dispatches the "ready to sign" email, and moves the agreement to pending.
// Only legal from draft. An empty tenantEmail resolves to the email on the
// lease's tenant record.
func (s *Service) Send(ctx context.Context, id uuid.UUID, tenantEmail string) (*domain.Agreement, error) {
	agreement, err := s.checkedAgreement(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("esign.Service.Send: %w", err)
	}

	if agreement.Status == domain.AgreementStatusExpired {
		return nil, fmt.Errorf("esign.Service.Send: %w", domain.ErrExpired)
	}
	if agreement.Status != domain.AgreementStatusDraft {
		return nil, fmt.Errorf("esign.Service.Send: status %s: %w", agreement.Status, domain.ErrInvalidState)
	}

	if tenantEmail == "" {
		tenantEmail, err = s.tenantEmail(ctx, agreement.LeaseID)
		if err != nil {
			return nil, fmt.Errorf("esign.Service.Send: %w", err)
		}
	}

	sentAt := time.Now()

	ok, err := s.agreements.MarkPending(ctx, id, sentAt)
	if err != nil {
		return nil, fmt.Errorf("esign.Service.Send: %w", err)
	}
	if !ok {
		// Lost a race with another transition since the read above.
		return nil, fmt.Errorf("esign.Service.Send: %w", domain.ErrInvalidState)
	}

	agreement.Status = domain.AgreementStatusPending
	agreement.SentAt = &sentAt
	agreement.UpdatedAt = sentAt

	// Email dispatch is fire-and-forget: the pending transition is already
	// committed and stays authoritative whatever happens here.
	err = s.gateway.Send(ctx, tenantEmail, notify.TemplateReadyToSign, map[string]any{
		"signing_url": fmt.Sprintf("%s/sign/%s", s.signingURL, id),
		"expires_at":  agreement.ExpiresAt,
	})
	if err != nil {
		log.Warn().Err(err).Str("agreement_id", id.String()).Msg("esign: ready-to-sign email failed")
	}

	s.publish(ctx, Event{Type: EventSent, AgreementID: id, Status: agreement.Status})

	return agreement, nil
}

// Sign records one party's signature. On the insert that completes both
// roles, the agreement flips to signed and the confirmation side effects run.
// When a tenant signs without a portal account, an invitation token is
// returned so the UI can redirect to account setup.
func (s *Service) Sign(ctx context.Context, id uuid.UUID, info SignerInfo) (*SignResult, error) {
	agreement, err := s.checkedAgreement(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("esign.Service.Sign: %w", err)
	}

	switch agreement.Status {
	case domain.AgreementStatusSigned:
		return nil, fmt.Errorf("esign.Service.Sign: fully signed: %w", domain.ErrAlreadySigned)
	case domain.AgreementStatusExpired:
		return nil, fmt.Errorf("esign.Service.Sign: %w", domain.ErrExpired)
	case domain.AgreementStatusVoided:
		return nil, fmt.Errorf("esign.Service.Sign: status %s: %w", agreement.Status, domain.ErrInvalidState)
	}

	now := time.Now()
	sig := &domain.Signature{
		ID:            uuid.New(),
		AgreementID:   id,
		SignerRole:    info.Role,
		SignerName:    info.Name,
		SignerEmail:   info.Email,
		Method:        info.Method,
		SignatureData: info.Data,
		IPAddress:     info.IPAddress,
		SignedAt:      now,
	}

	// The uniqueness constraint on (agreement, role) decides the same-role
	// race; there is deliberately no pre-check here.
	err = s.signatures.Create(ctx, sig)
	if err != nil {
		return nil, fmt.Errorf("esign.Service.Sign: %w", err)
	}

	// Re-read the authoritative signature set after the insert. Under the
	// dual-signature race both callers may see both rows; the guarded
	// MarkSigned update lets exactly one of them flip the status.
	sigs, err := s.signatures.ListByAgreement(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("esign.Service.Sign: list signatures: %w", err)
	}

	if domain.RolesPresent(sigs) {
		flipped, markErr := s.agreements.MarkSigned(ctx, id, now)
		if markErr != nil {
			return nil, fmt.Errorf("esign.Service.Sign: mark signed: %w", markErr)
		}
		if flipped {
			agreement.Status = domain.AgreementStatusSigned
			agreement.SignedAt = &now
			s.completeSigning(ctx, agreement, sigs)
		}
	}

	invitationToken := ""
	if info.Role == domain.SignerRoleTenant {
		invitationToken = s.ensurePortalInvitation(ctx, agreement, info.Email)
	}

	s.publish(ctx, Event{
		Type:        EventSignatureRecorded,
		AgreementID: id,
		Status:      agreement.Status,
		SignerRole:  info.Role,
		Signatures:  len(sigs),
	})

	return &SignResult{
		Agreement:       agreement,
		Signature:       sig,
		InvitationToken: invitationToken,
	}, nil
}

// Void cancels an agreement that has not been fully signed. Signed agreements
// are immutable artifacts and re-voiding is rejected.
func (s *Service) Void(ctx context.Context, id uuid.UUID) (*domain.Agreement, error) {
	agreement, err := s.checkedAgreement(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("esign.Service.Void: %w", err)
	}

	if !agreement.Status.Voidable() {
		return nil, fmt.Errorf("esign.Service.Void: status %s: %w", agreement.Status, domain.ErrInvalidState)
	}

	ok, err := s.agreements.MarkVoided(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("esign.Service.Void: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("esign.Service.Void: %w", domain.ErrInvalidState)
	}

	agreement.Status = domain.AgreementStatusVoided
	agreement.UpdatedAt = time.Now()

	sigs, err := s.signatures.ListByAgreement(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("agreement_id", id.String()).Msg("esign: list signatures after void")
	}

	s.publish(ctx, Event{Type: EventVoided, AgreementID: id, Status: agreement.Status, Signatures: len(sigs)})

	return agreement, nil
}

// Get returns the agreement and its signatures, applying the lazy expiry
// check first so callers never see a stale non-terminal status.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Agreement, []*domain.Signature, error) {
	agreement, err := s.checkedAgreement(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("esign.Service.Get: %w", err)
	}

	sigs, err := s.signatures.ListByAgreement(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("esign.Service.Get: list signatures: %w", err)
	}

	return agreement, sigs, nil
}

// Document renders the durable artifact for a fully signed agreement.
func (s *Service) Document(ctx context.Context, id uuid.UUID) ([]byte, error) {
	agreement, sigs, err := s.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("esign.Service.Document: %w", err)
	}

	if agreement.Status != domain.AgreementStatusSigned {
		return nil, fmt.Errorf("esign.Service.Document: status %s: %w", agreement.Status, domain.ErrInvalidState)
	}

	lease, err := s.leases.GetByID(ctx, agreement.LeaseID)
	if err != nil {
		return nil, fmt.Errorf("esign.Service.Document: get lease: %w", err)
	}

	doc, err := s.renderer.Render(ctx, lease, agreement, sigs)
	if err != nil {
		return nil, fmt.Errorf("esign.Service.Document: %w", err)
	}

	return doc, nil
}

// tenantEmail resolves the email of the tenant on the lease.
func (s *Service) tenantEmail(ctx context.Context, leaseID uuid.UUID) (string, error) {
	lease, err := s.leases.GetByID(ctx, leaseID)
	if err != nil {
		return "", fmt.Errorf("get lease: %w", err)
	}

	tenant, err := s.tenants.GetByID(ctx, lease.TenantID)
	if err != nil {
		return "", fmt.Errorf("get tenant: %w", err)
	}

	return tenant.Email, nil
}

// checkedAgreement loads the agreement and applies the lazy expiry self-heal:
// a non-terminal agreement past its expiry flips to expired before the caller
// sees it. There is no background sweep; this runs on every entry point.
func (s *Service) checkedAgreement(ctx context.Context, id uuid.UUID) (*domain.Agreement, error) {
	agreement, err := s.agreements.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if agreement.ExpiryDue(time.Now()) {
		flipped, markErr := s.agreements.MarkExpired(ctx, id)
		if markErr != nil {
			return nil, fmt.Errorf("mark expired: %w", markErr)
		}
		if flipped {
			s.publish(ctx, Event{Type: EventExpired, AgreementID: id, Status: domain.AgreementStatusExpired})
		}
		agreement.Status = domain.AgreementStatusExpired
	}

	return agreement, nil
}

// completeSigning runs the side effects of the signed transition:
// confirmation emails, the staff announcement, and document rendering.
// All of them are fire-and-forget — the signed status is already committed
// and is the source of truth.
func (s *Service) completeSigning(ctx context.Context, agreement *domain.Agreement, sigs []*domain.Signature) {
	for _, sig := range sigs {
		err := s.gateway.Send(ctx, sig.SignerEmail, notify.TemplateFullySigned, map[string]any{
			"agreement_id": agreement.ID,
			"signed_at":    agreement.SignedAt,
		})
		if err != nil {
			log.Warn().Err(err).
				Str("agreement_id", agreement.ID.String()).
				Str("to", sig.SignerEmail).
				Msg("esign: fully-signed email failed")
		}
	}

	lease, err := s.leases.GetByID(ctx, agreement.LeaseID)
	if err != nil {
		log.Warn().Err(err).Str("agreement_id", agreement.ID.String()).Msg("esign: get lease after signing")
		return
	}

	if s.staff != nil {
		tenantName := ""
		tenant, tErr := s.tenants.GetByID(ctx, lease.TenantID)
		if tErr == nil {
			tenantName = tenant.FullName
		}

		err = s.staff.AgreementFullySigned(ctx, lease.PropertyAddress, lease.UnitLabel, tenantName)
		if err != nil {
			log.Warn().Err(err).Str("agreement_id", agreement.ID.String()).Msg("esign: staff announcement failed")
		}
	}

	doc, err := s.renderer.Render(ctx, lease, agreement, sigs)
	if err != nil {
		log.Warn().Err(err).Str("agreement_id", agreement.ID.String()).Msg("esign: document render failed")
		return
	}

	log.Info().
		Str("agreement_id", agreement.ID.String()).
		Int("bytes", len(doc)).
		Msg("esign: agreement fully signed, document rendered")

	s.publish(ctx, Event{Type: EventSigned, AgreementID: agreement.ID, Status: domain.AgreementStatusSigned, Signatures: len(sigs)})
}

// ensurePortalInvitation fetches or creates the invitation for a tenant
// signer without a portal account. Broker failures are logged, not
// propagated: the signature is already committed and the tenant can be
// re-invited later.
func (s *Service) ensurePortalInvitation(ctx context.Context, agreement *domain.Agreement, email string) string {
	_, err := s.accounts.GetByEmail(ctx, email)
	if err == nil {
		return "" // account already exists, nothing to do
	}
	if !errors.Is(err, domain.ErrNotFound) {
		log.Warn().Err(err).Str("agreement_id", agreement.ID.String()).Msg("esign: portal account lookup failed")
		return ""
	}

	lease, err := s.leases.GetByID(ctx, agreement.LeaseID)
	if err != nil {
		log.Warn().Err(err).Str("agreement_id", agreement.ID.String()).Msg("esign: get lease for invitation")
		return ""
	}

	inv, err := s.broker.EnsureInvitation(ctx, lease.TenantID, email)
	if err != nil {
		log.Warn().Err(err).Str("agreement_id", agreement.ID.String()).Msg("esign: invitation issuance failed")
		return ""
	}

	return inv.Token
}
