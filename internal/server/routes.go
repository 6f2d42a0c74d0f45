package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/leasedesk/leasedesk/internal/api/v1"
	"github.com/leasedesk/leasedesk/internal/api/ws"
)

func registerPublicRoutes(api huma.API, esignSvc v1.EsignService, inviteSvc v1.InviteService, authSvc v1.AuthService) {
	v1.RegisterAgreementRoutes(api, esignSvc)
	v1.RegisterInvitationRoutes(api, inviteSvc)
	v1.RegisterPortalRoutes(api, authSvc)
}

func registerPortalRoutes(api huma.API, authSvc v1.AuthService) {
	v1.RegisterPortalSessionRoutes(api, authSvc)
}

func registerStaffRoutes(api huma.API, esignSvc v1.EsignService) {
	v1.RegisterStaffAgreementRoutes(api, esignSvc)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/agreements/{agreementID}", hub.ServeAgreement)
}
