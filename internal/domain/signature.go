package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type SignerRole string

const (
	SignerRoleLandlord SignerRole = "landlord"
	SignerRoleTenant   SignerRole = "tenant"
)

// Valid reports whether the role is one of the two known signer roles.
func (r SignerRole) Valid() bool {
	return r == SignerRoleLandlord || r == SignerRoleTenant
}

type SignatureMethod string

const (
	SignatureMethodTyped SignatureMethod = "typed"
	SignatureMethodDrawn SignatureMethod = "drawn"
)

// Signature is one party's signature on an agreement. Exactly one signature
// may exist per (agreement, role); the constraint lives in the storage layer
// so concurrent submissions cannot both land. Signatures are written once and
// never updated.
type Signature struct {
	ID            uuid.UUID
	AgreementID   uuid.UUID
	SignerRole    SignerRole
	SignerName    string
	SignerEmail   string
	Method        SignatureMethod
	SignatureData string // empty for typed signatures that store only the name
	IPAddress     string // empty when not captured
	SignedAt      time.Time
}

// SignatureRepository persists signatures.
type SignatureRepository interface {
	// Create inserts the signature. Returns ErrAlreadySigned when a
	// signature for the same (agreement, role) already exists; the check
	// and the insert are a single atomic operation.
	Create(ctx context.Context, s *Signature) error
	ListByAgreement(ctx context.Context, agreementID uuid.UUID) ([]*Signature, error)
}

// RolesPresent reports whether the signature set contains both signer roles.
func RolesPresent(sigs []*Signature) bool {
	var landlord, tenant bool
	for _, s := range sigs {
		switch s.SignerRole {
		case SignerRoleLandlord:
			landlord = true
		case SignerRoleTenant:
			tenant = true
		}
	}
	return landlord && tenant
}
