package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AgreementStatus string

const (
	AgreementStatusDraft   AgreementStatus = "draft"
	AgreementStatusPending AgreementStatus = "pending"
	AgreementStatusSigned  AgreementStatus = "signed"
	AgreementStatusExpired AgreementStatus = "expired"
	AgreementStatusVoided  AgreementStatus = "voided"
)

// Terminal reports whether no further transitions are legal from this status.
// Expired is terminal except that it is reached lazily from draft/pending and
// may still be voided.
func (s AgreementStatus) Terminal() bool {
	return s == AgreementStatusSigned || s == AgreementStatusExpired || s == AgreementStatusVoided
}

// Signable reports whether a signature may be recorded in this status.
func (s AgreementStatus) Signable() bool {
	return s == AgreementStatusDraft || s == AgreementStatusPending
}

// Voidable reports whether the agreement may be voided from this status.
// Signed agreements are immutable artifacts; re-voiding is rejected.
func (s AgreementStatus) Voidable() bool {
	return s != AgreementStatusSigned && s != AgreementStatusVoided
}

// Agreement is the signature-workflow instance for a lease. At most one
// agreement exists per lease. Agreements are never deleted; terminal rows
// stay as the audit trail.
type Agreement struct {
	ID              uuid.UUID
	LeaseID         uuid.UUID
	Status          AgreementStatus
	TemplateContent string // empty means "render with the default template"
	SentAt          *time.Time
	SignedAt        *time.Time
	ExpiresAt       *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ExpiryDue reports whether the agreement should lazily flip to expired:
// it has an expiry in the past and is not already in a terminal status.
func (a *Agreement) ExpiryDue(now time.Time) bool {
	return a.ExpiresAt != nil && now.After(*a.ExpiresAt) && !a.Status.Terminal()
}

// AgreementRepository persists agreements. The Mark* methods are guarded
// conditional updates: they return false without error when the row exists
// but its current status does not permit the transition, so concurrent
// callers converge on exactly one winner.
type AgreementRepository interface {
	// Create inserts a draft agreement. Returns ErrConflict when an
	// agreement already exists for the lease.
	Create(ctx context.Context, a *Agreement) error
	GetByID(ctx context.Context, id uuid.UUID) (*Agreement, error)
	GetByLeaseID(ctx context.Context, leaseID uuid.UUID) (*Agreement, error)

	// MarkPending moves draft -> pending and stamps sent_at.
	MarkPending(ctx context.Context, id uuid.UUID, sentAt time.Time) (bool, error)
	// MarkSigned moves draft/pending -> signed and stamps signed_at.
	MarkSigned(ctx context.Context, id uuid.UUID, signedAt time.Time) (bool, error)
	// MarkExpired moves any non-terminal status -> expired.
	MarkExpired(ctx context.Context, id uuid.UUID) (bool, error)
	// MarkVoided moves any status except signed/voided -> voided.
	MarkVoided(ctx context.Context, id uuid.UUID) (bool, error)
}
