package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidPayload  = errors.New("invalid payload")
	ErrProviderFailure = errors.New("provider failure")
	ErrInvalidArtifact = errors.New("invalid artifact")
	ErrJobTerminal     = errors.New("job already terminal")
)
