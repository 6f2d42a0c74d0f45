package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound        = errors.New("domain: not found")
	ErrConflict        = errors.New("domain: conflict")
	ErrInvalidState    = errors.New("domain: invalid state")
	ErrExpired         = errors.New("domain: expired")
	ErrAlreadySigned   = errors.New("domain: already signed")
	ErrInvalidToken    = errors.New("domain: invalid token")
	ErrAlreadyAccepted = errors.New("domain: already accepted")
	ErrUnauthorized    = errors.New("domain: unauthorized")
)
