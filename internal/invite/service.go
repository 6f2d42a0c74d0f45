package invite

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/leasedesk/leasedesk/internal/auth"
	"github.com/leasedesk/leasedesk/internal/domain"
	"github.com/leasedesk/leasedesk/internal/notify"
)

// DefaultTTL is how long an invitation token stays redeemable.
const DefaultTTL = 7 * 24 * time.Hour

const tokenBytes = 32

// SessionIssuer mints a portal session for a freshly created account.
// Implemented by the auth service.
type SessionIssuer interface {
	SessionFor(account *domain.PortalAccount) (string, error)
}

// Validation is what a signer sees when they follow an invitation link,
// before committing to a password.
type Validation struct {
	TenantName string
	Email      string
	ExpiresAt  time.Time
}

// Service issues, validates, and redeems the single-use tokens that let a
// tenant without a portal account create one.
type Service struct {
	invitations domain.InvitationRepository
	tenants     domain.TenantRepository
	gateway     notify.Gateway
	sessions    SessionIssuer
	portalURL   string // base URL embedded in invitation emails
	ttl         time.Duration
}

func NewService(
	invitations domain.InvitationRepository,
	tenants domain.TenantRepository,
	gateway notify.Gateway,
	sessions SessionIssuer,
	portalURL string,
	ttl time.Duration,
) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Service{
		invitations: invitations,
		tenants:     tenants,
		gateway:     gateway,
		sessions:    sessions,
		portalURL:   portalURL,
		ttl:         ttl,
	}
}

// EnsureInvitation returns the tenant's active invitation, rotating the token
// of a lapsed one or creating a fresh one as needed. Idempotent with respect
// to repeated tenant-signing flows: concurrent callers converge on a single
// active token via the one-pending-per-tenant constraint in the store.
func (s *Service) EnsureInvitation(ctx context.Context, tenantID uuid.UUID, email string) (*domain.Invitation, error) {
	now := time.Now()

	inv, err := s.invitations.GetPendingByTenant(ctx, tenantID)
	if err == nil {
		if inv.Active(now) {
			return inv, nil
		}

		// Pending but lapsed: rotate the token in place rather than insert,
		// since the partial unique index still holds the row's slot.
		token, tokenErr := newToken()
		if tokenErr != nil {
			return nil, fmt.Errorf("invite.Service.EnsureInvitation: %w", tokenErr)
		}

		rotated, rotateErr := s.invitations.RotateToken(ctx, tenantID, token, now.Add(s.ttl))
		if rotateErr == nil {
			s.dispatch(ctx, rotated)
			return rotated, nil
		}
		if !errors.Is(rotateErr, domain.ErrNotFound) {
			return nil, fmt.Errorf("invite.Service.EnsureInvitation: rotate: %w", rotateErr)
		}
		// The pending row vanished (redeemed concurrently); fall through to
		// create a fresh invitation.
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("invite.Service.EnsureInvitation: %w", err)
	}

	token, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("invite.Service.EnsureInvitation: %w", err)
	}

	inv = &domain.Invitation{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Email:     email,
		Token:     token,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
	}

	err = s.invitations.Create(ctx, inv)
	if errors.Is(err, domain.ErrConflict) {
		// A concurrent issuer won the insert race; converge on its token.
		winner, getErr := s.invitations.GetPendingByTenant(ctx, tenantID)
		if getErr != nil {
			return nil, fmt.Errorf("invite.Service.EnsureInvitation: fetch winner: %w", getErr)
		}
		return winner, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invite.Service.EnsureInvitation: %w", err)
	}

	s.dispatch(ctx, inv)

	return inv, nil
}

// ValidateToken checks a token and returns what the accept screen shows.
// Fails with domain.ErrInvalidToken, domain.ErrAlreadyAccepted, or
// domain.ErrExpired.
func (s *Service) ValidateToken(ctx context.Context, token string) (*Validation, error) {
	inv, err := s.lookup(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("invite.Service.ValidateToken: %w", err)
	}

	tenant, err := s.tenants.GetByID(ctx, inv.TenantID)
	if err != nil {
		return nil, fmt.Errorf("invite.Service.ValidateToken: get tenant: %w", err)
	}

	return &Validation{
		TenantName: tenant.FullName,
		Email:      inv.Email,
		ExpiresAt:  inv.ExpiresAt,
	}, nil
}

// Accept redeems the token: creates the portal account bound to the tenant,
// stamps accepted_at (both in one transaction — a half-redeemed token must
// never stay reusable), and returns the account with a signed-in session.
func (s *Service) Accept(ctx context.Context, token, password string) (*domain.PortalAccount, string, error) {
	inv, err := s.lookup(ctx, token)
	if err != nil {
		return nil, "", fmt.Errorf("invite.Service.Accept: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("invite.Service.Accept: %w", err)
	}

	now := time.Now()
	account := &domain.PortalAccount{
		ID:           uuid.New(),
		TenantID:     inv.TenantID,
		Email:        inv.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.invitations.Redeem(ctx, token, account)
	if err != nil {
		return nil, "", fmt.Errorf("invite.Service.Accept: %w", err)
	}

	session, err := s.sessions.SessionFor(account)
	if err != nil {
		return nil, "", fmt.Errorf("invite.Service.Accept: %w", err)
	}

	return account, session, nil
}

// lookup resolves a token to its invitation, mapping the not-found case to
// ErrInvalidToken and rejecting redeemed or lapsed tokens.
func (s *Service) lookup(ctx context.Context, token string) (*domain.Invitation, error) {
	inv, err := s.invitations.GetByToken(ctx, token)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	if inv.Accepted() {
		return nil, domain.ErrAlreadyAccepted
	}
	if inv.Expired(time.Now()) {
		return nil, domain.ErrExpired
	}

	return inv, nil
}

// dispatch sends the invitation email. Non-fatal: the token is already
// persisted and can be re-sent, so a delivery failure only gets logged.
func (s *Service) dispatch(ctx context.Context, inv *domain.Invitation) {
	err := s.gateway.Send(ctx, inv.Email, notify.TemplatePortalInvitation, map[string]any{
		"invite_url": fmt.Sprintf("%s/invitations/%s", s.portalURL, inv.Token),
		"expires_at": inv.ExpiresAt,
	})
	if err != nil {
		log.Warn().Err(err).Str("tenant_id", inv.TenantID.String()).Msg("invite: invitation email failed")
	}
}

// newToken returns a cryptographically random, URL-safe token.
func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
