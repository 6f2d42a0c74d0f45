package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/leasedesk/leasedesk/internal/api/v1"
	"github.com/leasedesk/leasedesk/internal/domain"
	"github.com/leasedesk/leasedesk/internal/invite"
)

// ---------------------------------------------------------------------------
// TestValidateInvitation
// ---------------------------------------------------------------------------

func TestValidateInvitation(t *testing.T) {
	t.Parallel()

	token := "f3a1c9d2e4b5a6f7c8d9e0a1b2c3d4e5"

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		expires := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Second)
		svc := &mockInviteService{
			validateTokenFunc: func(_ context.Context, tok string) (*invite.Validation, error) {
				assert.Equal(t, token, tok)
				return &invite.Validation{
					TenantName: "Dana Whitfield",
					Email:      "dana@example.com",
					ExpiresAt:  expires,
				}, nil
			},
		}
		v1.RegisterInvitationRoutes(api, svc)

		resp := api.Get("/invitations/" + token)

		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			TenantName string    `json:"tenant_name"`
			Email      string    `json:"email"`
			ExpiresAt  time.Time `json:"expires_at"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "Dana Whitfield", body.TenantName)
		assert.Equal(t, "dana@example.com", body.Email)
		assert.True(t, expires.Equal(body.ExpiresAt))
	})

	t.Run("unknown_token_is_404", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockInviteService{
			validateTokenFunc: func(_ context.Context, _ string) (*invite.Validation, error) {
				return nil, domain.ErrInvalidToken
			},
		}
		v1.RegisterInvitationRoutes(api, svc)

		resp := api.Get("/invitations/" + token)

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("already_used", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockInviteService{
			validateTokenFunc: func(_ context.Context, _ string) (*invite.Validation, error) {
				return nil, domain.ErrAlreadyAccepted
			},
		}
		v1.RegisterInvitationRoutes(api, svc)

		resp := api.Get("/invitations/" + token)

		assert.Equal(t, http.StatusGone, resp.Code)
	})

	t.Run("expired", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockInviteService{
			validateTokenFunc: func(_ context.Context, _ string) (*invite.Validation, error) {
				return nil, domain.ErrExpired
			},
		}
		v1.RegisterInvitationRoutes(api, svc)

		resp := api.Get("/invitations/" + token)

		assert.Equal(t, http.StatusGone, resp.Code)
	})
}

// ---------------------------------------------------------------------------
// TestAcceptInvitation
// ---------------------------------------------------------------------------

func TestAcceptInvitation(t *testing.T) {
	t.Parallel()

	token := "f3a1c9d2e4b5a6f7c8d9e0a1b2c3d4e5"

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		accountID := uuid.New()
		tenantID := uuid.New()
		svc := &mockInviteService{
			acceptFunc: func(_ context.Context, tok, password string) (*domain.PortalAccount, string, error) {
				assert.Equal(t, token, tok)
				assert.Equal(t, "correct horse battery", password)
				return &domain.PortalAccount{
					ID:       accountID,
					TenantID: tenantID,
					Email:    "dana@example.com",
				}, "session-token-1", nil
			},
		}
		v1.RegisterInvitationRoutes(api, svc)

		resp := api.Post("/invitations/"+token+"/accept", map[string]any{
			"password": "correct horse battery",
		})

		require.Equal(t, http.StatusCreated, resp.Code)

		var body struct {
			AccountID    uuid.UUID `json:"account_id"`
			TenantID     uuid.UUID `json:"tenant_id"`
			Email        string    `json:"email"`
			SessionToken string    `json:"session_token"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, accountID, body.AccountID)
		assert.Equal(t, tenantID, body.TenantID)
		assert.Equal(t, "dana@example.com", body.Email)
		assert.Equal(t, "session-token-1", body.SessionToken)
	})

	t.Run("short_password_rejected", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockInviteService{}
		v1.RegisterInvitationRoutes(api, svc)

		resp := api.Post("/invitations/"+token+"/accept", map[string]any{
			"password": "short",
		})

		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	})

	t.Run("second_redeem_is_gone", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockInviteService{
			acceptFunc: func(_ context.Context, _, _ string) (*domain.PortalAccount, string, error) {
				return nil, "", domain.ErrAlreadyAccepted
			},
		}
		v1.RegisterInvitationRoutes(api, svc)

		resp := api.Post("/invitations/"+token+"/accept", map[string]any{
			"password": "correct horse battery",
		})

		assert.Equal(t, http.StatusGone, resp.Code)
	})

	t.Run("unknown_token_is_404", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockInviteService{
			acceptFunc: func(_ context.Context, _, _ string) (*domain.PortalAccount, string, error) {
				return nil, "", domain.ErrInvalidToken
			},
		}
		v1.RegisterInvitationRoutes(api, svc)

		resp := api.Post("/invitations/"+token+"/accept", map[string]any{
			"password": "correct horse battery",
		})

		assert.Equal(t, http.StatusNotFound, resp.Code)
	})

	t.Run("store_error", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		svc := &mockInviteService{
			acceptFunc: func(_ context.Context, _, _ string) (*domain.PortalAccount, string, error) {
				return nil, "", errors.New("db connection refused")
			},
		}
		v1.RegisterInvitationRoutes(api, svc)

		resp := api.Post("/invitations/"+token+"/accept", map[string]any{
			"password": "correct horse battery",
		})

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}
