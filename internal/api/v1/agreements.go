package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/leasedesk/leasedesk/internal/domain"
	"github.com/leasedesk/leasedesk/internal/esign"
	"github.com/leasedesk/leasedesk/internal/server/middleware"
)

// AgreementBody is the wire representation of an agreement.
type AgreementBody struct {
	ID        uuid.UUID              `json:"id"`
	LeaseID   uuid.UUID              `json:"lease_id"`
	Status    domain.AgreementStatus `json:"status"`
	SentAt    *time.Time             `json:"sent_at,omitempty"`
	SignedAt  *time.Time             `json:"signed_at,omitempty"`
	ExpiresAt *time.Time             `json:"expires_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// SignatureBody is the wire representation of a signature. Signature image
// data and capture IPs stay server-side.
type SignatureBody struct {
	ID         uuid.UUID              `json:"id"`
	SignerRole domain.SignerRole      `json:"signer_role"`
	SignerName string                 `json:"signer_name"`
	Method     domain.SignatureMethod `json:"method"`
	SignedAt   time.Time              `json:"signed_at"`
}

func agreementBody(a *domain.Agreement) AgreementBody {
	return AgreementBody{
		ID:        a.ID,
		LeaseID:   a.LeaseID,
		Status:    a.Status,
		SentAt:    a.SentAt,
		SignedAt:  a.SignedAt,
		ExpiresAt: a.ExpiresAt,
		CreatedAt: a.CreatedAt,
	}
}

func signatureBodies(sigs []*domain.Signature) []SignatureBody {
	out := make([]SignatureBody, 0, len(sigs))
	for _, s := range sigs {
		out = append(out, SignatureBody{
			ID:         s.ID,
			SignerRole: s.SignerRole,
			SignerName: s.SignerName,
			Method:     s.Method,
			SignedAt:   s.SignedAt,
		})
	}
	return out
}

// agreementError maps the lifecycle error taxonomy onto HTTP status codes.
func agreementError(err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound("agreement not found")
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict("an agreement already exists for this lease")
	case errors.Is(err, domain.ErrAlreadySigned):
		return huma.Error409Conflict("already signed")
	case errors.Is(err, domain.ErrExpired):
		return huma.Error410Gone("agreement has expired")
	case errors.Is(err, domain.ErrInvalidState):
		return huma.Error409Conflict("agreement status does not permit this action")
	default:
		return huma.Error500InternalServerError("failed to "+action, err)
	}
}

type GetAgreementInput struct {
	ID uuid.UUID `path:"id" doc:"Agreement ID"`
}

type GetAgreementOutput struct {
	Body struct {
		Agreement  AgreementBody   `json:"agreement"`
		Signatures []SignatureBody `json:"signatures"`
	}
}

type SignAgreementInput struct {
	ID   uuid.UUID `path:"id" doc:"Agreement ID"`
	Body struct {
		Role          string `json:"role" enum:"landlord,tenant" doc:"Signer role"`
		Name          string `json:"name" minLength:"1" maxLength:"255" doc:"Signer legal name"`
		Email         string `json:"email" minLength:"3" maxLength:"255" doc:"Signer email"`
		Method        string `json:"method" enum:"typed,drawn" doc:"Signature capture method"`
		SignatureData string `json:"signature_data,omitempty" maxLength:"262144" doc:"Drawn signature image data"`
	}
}

type SignAgreementOutput struct {
	Body struct {
		Agreement       AgreementBody `json:"agreement"`
		Signature       SignatureBody `json:"signature"`
		InvitationToken string        `json:"invitation_token,omitempty"`
	}
}

// RegisterAgreementRoutes mounts the public signing surface: anyone holding
// an agreement link can view and sign it.
func RegisterAgreementRoutes(api huma.API, esignSvc EsignService) {
	huma.Register(api, huma.Operation{
		OperationID: "get-agreement",
		Method:      http.MethodGet,
		Path:        "/agreements/{id}",
		Summary:     "Get an agreement and its signatures",
		Tags:        []string{"Agreements"},
	}, func(ctx context.Context, input *GetAgreementInput) (*GetAgreementOutput, error) {
		agreement, sigs, err := esignSvc.Get(ctx, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("agreement not found")
			}
			return nil, huma.Error500InternalServerError("failed to get agreement", err)
		}

		out := &GetAgreementOutput{}
		out.Body.Agreement = agreementBody(agreement)
		out.Body.Signatures = signatureBodies(sigs)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "sign-agreement",
		Method:      http.MethodPost,
		Path:        "/agreements/{id}/sign",
		Summary:     "Record one party's signature",
		Tags:        []string{"Agreements"},
	}, func(ctx context.Context, input *SignAgreementInput) (*SignAgreementOutput, error) {
		ip, _ := middleware.ClientIPFromContext(ctx)

		res, err := esignSvc.Sign(ctx, input.ID, esign.SignerInfo{
			Role:      domain.SignerRole(input.Body.Role),
			Name:      input.Body.Name,
			Email:     input.Body.Email,
			Method:    domain.SignatureMethod(input.Body.Method),
			Data:      input.Body.SignatureData,
			IPAddress: ip,
		})
		if err != nil {
			return nil, agreementError(err, "sign agreement")
		}

		out := &SignAgreementOutput{}
		out.Body.Agreement = agreementBody(res.Agreement)
		out.Body.Signature = SignatureBody{
			ID:         res.Signature.ID,
			SignerRole: res.Signature.SignerRole,
			SignerName: res.Signature.SignerName,
			Method:     res.Signature.Method,
			SignedAt:   res.Signature.SignedAt,
		}
		out.Body.InvitationToken = res.InvitationToken
		return out, nil
	})
}

type CreateAgreementInput struct {
	Body struct {
		LeaseID         uuid.UUID  `json:"lease_id" doc:"Lease to attach the agreement to"`
		TemplateContent string     `json:"template_content,omitempty" maxLength:"1048576" doc:"Custom agreement template; empty uses the default"`
		ExpiresAt       *time.Time `json:"expires_at,omitempty" doc:"Signing deadline; defaults to 7 days out"`
	}
}

type CreateAgreementOutput struct {
	Body AgreementBody
}

type SendAgreementInput struct {
	ID   uuid.UUID `path:"id" doc:"Agreement ID"`
	Body struct {
		TenantEmail string `json:"tenant_email,omitempty" maxLength:"255" doc:"Override recipient; defaults to the lease tenant's email"`
	}
}

type SendAgreementOutput struct {
	Body AgreementBody
}

type VoidAgreementInput struct {
	ID uuid.UUID `path:"id" doc:"Agreement ID"`
}

type VoidAgreementOutput struct {
	Body AgreementBody
}

type GetDocumentInput struct {
	ID uuid.UUID `path:"id" doc:"Agreement ID"`
}

type GetDocumentOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

// RegisterStaffAgreementRoutes mounts the back-office lifecycle operations.
// The router guards this group with the staff API key middleware.
func RegisterStaffAgreementRoutes(api huma.API, esignSvc EsignService) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-agreement",
		Method:        http.MethodPost,
		Path:          "/agreements",
		Summary:       "Create a draft agreement for a lease",
		Tags:          []string{"Agreements"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CreateAgreementInput) (*CreateAgreementOutput, error) {
		agreement, err := esignSvc.Create(ctx, input.Body.LeaseID, input.Body.TemplateContent, input.Body.ExpiresAt)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("lease not found")
			}
			if errors.Is(err, domain.ErrConflict) {
				return nil, huma.Error409Conflict("an agreement already exists for this lease")
			}
			return nil, huma.Error500InternalServerError("failed to create agreement", err)
		}

		return &CreateAgreementOutput{Body: agreementBody(agreement)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "send-agreement",
		Method:      http.MethodPost,
		Path:        "/agreements/{id}/send",
		Summary:     "Route a draft agreement for signature",
		Tags:        []string{"Agreements"},
	}, func(ctx context.Context, input *SendAgreementInput) (*SendAgreementOutput, error) {
		agreement, err := esignSvc.Send(ctx, input.ID, input.Body.TenantEmail)
		if err != nil {
			return nil, agreementError(err, "send agreement")
		}

		return &SendAgreementOutput{Body: agreementBody(agreement)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "void-agreement",
		Method:      http.MethodPost,
		Path:        "/agreements/{id}/void",
		Summary:     "Void an agreement that is not fully signed",
		Tags:        []string{"Agreements"},
	}, func(ctx context.Context, input *VoidAgreementInput) (*VoidAgreementOutput, error) {
		agreement, err := esignSvc.Void(ctx, input.ID)
		if err != nil {
			return nil, agreementError(err, "void agreement")
		}

		return &VoidAgreementOutput{Body: agreementBody(agreement)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-agreement-document",
		Method:      http.MethodGet,
		Path:        "/agreements/{id}/document",
		Summary:     "Download the rendered document of a signed agreement",
		Tags:        []string{"Agreements"},
	}, func(ctx context.Context, input *GetDocumentInput) (*GetDocumentOutput, error) {
		doc, err := esignSvc.Document(ctx, input.ID)
		if err != nil {
			return nil, agreementError(err, "render document")
		}

		return &GetDocumentOutput{ContentType: "text/plain; charset=utf-8", Body: doc}, nil
	})
}
