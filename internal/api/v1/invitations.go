package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/leasedesk/leasedesk/internal/domain"
)

type ValidateInvitationInput struct {
	Token string `path:"token" minLength:"1" maxLength:"128" doc:"Invitation token"`
}

type ValidateInvitationOutput struct {
	Body struct {
		TenantName string    `json:"tenant_name"`
		Email      string    `json:"email"`
		ExpiresAt  time.Time `json:"expires_at"`
	}
}

type AcceptInvitationInput struct {
	Token string `path:"token" minLength:"1" maxLength:"128" doc:"Invitation token"`
	Body  struct {
		Password string `json:"password" minLength:"8" maxLength:"128" doc:"Password for the new portal account"` //nolint:gosec // G117: account setup DTO
	}
}

type AcceptInvitationOutput struct {
	Body struct {
		AccountID    uuid.UUID `json:"account_id"`
		TenantID     uuid.UUID `json:"tenant_id"`
		Email        string    `json:"email"`
		SessionToken string    `json:"session_token"` //nolint:gosec // G117: auth response DTO
	}
}

// invitationError maps token errors onto HTTP status codes. Unknown tokens
// and structurally invalid ones both come back 404 so the endpoint cannot be
// used to probe for live tokens.
func invitationError(err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrInvalidToken):
		return huma.Error404NotFound("invitation not found")
	case errors.Is(err, domain.ErrAlreadyAccepted):
		return huma.Error410Gone("invitation has already been used")
	case errors.Is(err, domain.ErrExpired):
		return huma.Error410Gone("invitation has expired")
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict("an account already exists for this email")
	default:
		return huma.Error500InternalServerError("failed to "+action, err)
	}
}

func RegisterInvitationRoutes(api huma.API, inviteSvc InviteService) {
	huma.Register(api, huma.Operation{
		OperationID: "validate-invitation",
		Method:      http.MethodGet,
		Path:        "/invitations/{token}",
		Summary:     "Validate an invitation token",
		Tags:        []string{"Invitations"},
	}, func(ctx context.Context, input *ValidateInvitationInput) (*ValidateInvitationOutput, error) {
		v, err := inviteSvc.ValidateToken(ctx, input.Token)
		if err != nil {
			return nil, invitationError(err, "validate invitation")
		}

		out := &ValidateInvitationOutput{}
		out.Body.TenantName = v.TenantName
		out.Body.Email = v.Email
		out.Body.ExpiresAt = v.ExpiresAt
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "accept-invitation",
		Method:        http.MethodPost,
		Path:          "/invitations/{token}/accept",
		Summary:       "Redeem an invitation and create a portal account",
		Tags:          []string{"Invitations"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *AcceptInvitationInput) (*AcceptInvitationOutput, error) {
		account, session, err := inviteSvc.Accept(ctx, input.Token, input.Body.Password)
		if err != nil {
			return nil, invitationError(err, "accept invitation")
		}

		out := &AcceptInvitationOutput{}
		out.Body.AccountID = account.ID
		out.Body.TenantID = account.TenantID
		out.Body.Email = account.Email
		out.Body.SessionToken = session
		return out, nil
	})
}
