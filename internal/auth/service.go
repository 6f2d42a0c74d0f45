package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leasedesk/leasedesk/internal/domain"
)

// ErrInvalidCredentials is returned when login fails. The same error covers
// unknown email and wrong password so callers cannot probe for accounts.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// Service issues and validates portal account sessions. Accounts themselves
// are created by the invitation flow, not here.
type Service struct {
	accounts   domain.PortalAccountRepository
	jwtSecret  string
	sessionTTL time.Duration
}

func NewService(accounts domain.PortalAccountRepository, jwtSecret string, sessionTTL time.Duration) *Service {
	return &Service{
		accounts:   accounts,
		jwtSecret:  jwtSecret,
		sessionTTL: sessionTTL,
	}
}

// Login validates email/password and returns a session token plus the account.
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.PortalAccount, error) {
	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	if !VerifyPassword(password, account.PasswordHash) {
		return "", nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	token, err := s.SessionFor(account)
	if err != nil {
		return "", nil, fmt.Errorf("auth.Login: %w", err)
	}

	return token, account, nil
}

// SessionFor issues a session token for an already-authenticated account,
// e.g. right after an invitation is redeemed.
func (s *Service) SessionFor(account *domain.PortalAccount) (string, error) {
	token, err := IssueSessionToken(s.jwtSecret, account.ID, account.TenantID, s.sessionTTL)
	if err != nil {
		return "", fmt.Errorf("auth.SessionFor: %w", err)
	}

	return token, nil
}

// GetAccount returns an account by ID (for middleware use).
func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*domain.PortalAccount, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("auth.GetAccount: %w", err)
	}

	return account, nil
}
