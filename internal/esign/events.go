package esign

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/leasedesk/leasedesk/internal/domain"
	redisstore "github.com/leasedesk/leasedesk/internal/store/redis"
)

// Event types published on an agreement's channel.
const (
	EventCreated           = "created"
	EventSent              = "sent"
	EventSignatureRecorded = "signature_recorded"
	EventSigned            = "signed"
	EventExpired           = "expired"
	EventVoided            = "voided"
)

// Event is the payload pushed to subscribers (the signing UI) whenever an
// agreement changes.
type Event struct {
	Type        string                 `json:"type"`
	AgreementID uuid.UUID              `json:"agreement_id"`
	Status      domain.AgreementStatus `json:"status"`
	SignerRole  domain.SignerRole      `json:"signer_role,omitempty"`
	Signatures  int                    `json:"signatures"`
	OccurredAt  time.Time              `json:"occurred_at"`
}

// Publisher abstracts the Redis pub/sub publish operation.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// publish pushes an event to the agreement's channel. Event delivery is best
// effort; failures are logged and never affect the transition that fired them.
func (s *Service) publish(ctx context.Context, ev Event) {
	if s.publisher == nil {
		return
	}

	ev.OccurredAt = time.Now()

	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("agreement_id", ev.AgreementID.String()).Msg("esign: marshal event")
		return
	}

	err = s.publisher.Publish(ctx, redisstore.AgreementChannel(ev.AgreementID), payload)
	if err != nil {
		log.Warn().Err(err).Str("agreement_id", ev.AgreementID.String()).Str("type", ev.Type).Msg("esign: publish event")
	}
}
