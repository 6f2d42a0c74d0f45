package notify_test

import (
	"context"
	"errors"
	"testing"

	slacklib "github.com/slack-go/slack"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leasedesk/leasedesk/internal/notify"
)

type fakeSlackAPI struct {
	channelID string
	calls     int
	err       error
}

func (f *fakeSlackAPI) PostMessageContext(_ context.Context, channelID string, _ ...slacklib.MsgOption) (string, string, error) {
	f.calls++
	f.channelID = channelID
	if f.err != nil {
		return "", "", f.err
	}
	return channelID, "1234567890.123456", nil
}

func TestLogGatewaySend(t *testing.T) {
	t.Parallel()

	gw := notify.LogGateway{}
	err := gw.Send(t.Context(), "tenant@example.com", notify.TemplateReadyToSign, map[string]any{
		"signing_url": "https://portal.example.com/sign/abc",
	})
	assert.NoError(t, err)
}

func TestStaffNotifierAgreementFullySigned(t *testing.T) {
	t.Parallel()

	t.Run("posts to the configured channel", func(t *testing.T) {
		t.Parallel()

		api := &fakeSlackAPI{}
		n := notify.NewStaffNotifier(api, "C012LEASING")

		err := n.AgreementFullySigned(t.Context(), "12 Elm St", "Unit 4B", "Dana Whitfield")
		require.NoError(t, err)
		assert.Equal(t, 1, api.calls)
		assert.Equal(t, "C012LEASING", api.channelID)
	})

	t.Run("wraps API errors", func(t *testing.T) {
		t.Parallel()

		api := &fakeSlackAPI{err: errors.New("channel_not_found")}
		n := notify.NewStaffNotifier(api, "C012LEASING")

		err := n.AgreementFullySigned(t.Context(), "12 Elm St", "Unit 4B", "Dana Whitfield")
		assert.ErrorContains(t, err, "channel_not_found")
	})
}
