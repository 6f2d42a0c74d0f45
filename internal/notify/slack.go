package notify

import (
	"context"
	"fmt"

	slacklib "github.com/slack-go/slack"
)

// SlackAPI abstracts the subset of the Slack client used by StaffNotifier.
// This allows testing without real HTTP calls.
type SlackAPI interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slacklib.MsgOption) (string, string, error)
}

// StaffNotifier posts back-office notifications to a Slack channel. It is
// optional: when Slack is not configured the server simply does not build
// one, and staff events stay in the log only.
type StaffNotifier struct {
	api       SlackAPI
	channelID string
}

func NewStaffNotifier(api SlackAPI, channelID string) *StaffNotifier {
	return &StaffNotifier{api: api, channelID: channelID}
}

// AgreementFullySigned announces a completed signature workflow to the staff channel.
func (n *StaffNotifier) AgreementFullySigned(ctx context.Context, propertyAddress, unitLabel, tenantName string) error {
	text := fmt.Sprintf("Lease agreement fully signed: %s %s (tenant: %s)", propertyAddress, unitLabel, tenantName)

	_, _, err := n.api.PostMessageContext(ctx, n.channelID, slacklib.MsgOptionText(text, false))
	if err != nil {
		return fmt.Errorf("notify.StaffNotifier.AgreementFullySigned: %w", err)
	}

	return nil
}
