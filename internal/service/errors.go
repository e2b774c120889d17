package service

import "errors"

var (
	// ErrValidation marks bad client input. Wrapped errors carry the detail.
	ErrValidation       = errors.New("validation failed")
	ErrNoDefaultWebhook = errors.New("no webhook specified and no default webhook configured")
)
