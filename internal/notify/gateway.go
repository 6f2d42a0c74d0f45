package notify

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Template names for the emails the workflow dispatches.
const (
	TemplateReadyToSign      = "agreement_ready_to_sign"
	TemplateFullySigned      = "agreement_fully_signed"
	TemplatePortalInvitation = "portal_invitation"
)

// Gateway sends templated emails. The lifecycle manager only decides when to
// call it; delivery failures are logged by the caller and never roll back a
// state transition.
type Gateway interface {
	Send(ctx context.Context, to, template string, vars map[string]any) error
}

// LogGateway writes the would-be email to the log instead of sending it.
// Default gateway for development and tests; production wires a real
// provider behind the same interface.
type LogGateway struct{}

func (LogGateway) Send(_ context.Context, to, template string, vars map[string]any) error {
	log.Info().
		Str("to", to).
		Str("template", template).
		Interface("vars", vars).
		Msg("notify: email dispatch (log gateway)")
	return nil
}
