package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/leasedesk/leasedesk/internal/auth"
	"github.com/leasedesk/leasedesk/internal/domain"
	"github.com/leasedesk/leasedesk/internal/server/middleware"
)

type PortalLoginInput struct {
	Body struct {
		Email    string `json:"email" minLength:"3" maxLength:"255" doc:"Portal account email"`
		Password string `json:"password" minLength:"1" maxLength:"128" doc:"Password"` //nolint:gosec // G117: login credential DTO
	}
}

type PortalLoginOutput struct {
	Body struct {
		AccountID    uuid.UUID `json:"account_id"`
		TenantID     uuid.UUID `json:"tenant_id"`
		SessionToken string    `json:"session_token"` //nolint:gosec // G117: auth response DTO
	}
}

func RegisterPortalRoutes(api huma.API, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "portal-login",
		Method:      http.MethodPost,
		Path:        "/portal/login",
		Summary:     "Login to the tenant portal",
		Tags:        []string{"Portal"},
	}, func(ctx context.Context, input *PortalLoginInput) (*PortalLoginOutput, error) {
		token, account, err := authSvc.Login(ctx, input.Body.Email, input.Body.Password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				return nil, huma.Error401Unauthorized("invalid email or password")
			}
			return nil, huma.Error500InternalServerError("login failed", err)
		}

		out := &PortalLoginOutput{}
		out.Body.AccountID = account.ID
		out.Body.TenantID = account.TenantID
		out.Body.SessionToken = token
		return out, nil
	})
}

type PortalMeInput struct{}

type PortalMeOutput struct {
	Body struct {
		AccountID uuid.UUID `json:"account_id"`
		TenantID  uuid.UUID `json:"tenant_id"`
		Email     string    `json:"email"`
	}
}

// RegisterPortalSessionRoutes mounts routes that require a valid portal
// session. The router guards this group with the PortalAuth middleware.
func RegisterPortalSessionRoutes(api huma.API, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "portal-me",
		Method:      http.MethodGet,
		Path:        "/portal/me",
		Summary:     "Get the signed-in portal account",
		Tags:        []string{"Portal"},
	}, func(ctx context.Context, _ *PortalMeInput) (*PortalMeOutput, error) {
		accountID, ok := middleware.AccountIDFromContext(ctx)
		if !ok {
			return nil, huma.Error401Unauthorized("missing session")
		}

		account, err := authSvc.GetAccount(ctx, accountID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error401Unauthorized("account no longer exists")
			}
			return nil, huma.Error500InternalServerError("failed to load account", err)
		}

		out := &PortalMeOutput{}
		out.Body.AccountID = account.ID
		out.Body.TenantID = account.TenantID
		out.Body.Email = account.Email
		return out, nil
	})
}
