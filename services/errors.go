package services

import "errors"

// Errors shared across services and the HTTP error mapping.
var (
	// Business rules
	ErrInvalidCredentials = errors.New("invalid admin credentials")
	ErrNoSnapshot         = errors.New("no ranking snapshot available yet")
	ErrMirrorDisabled     = errors.New("content mirroring is not configured")
	ErrArchiveDisabled    = errors.New("award archive is not configured")

	// Authentication
	ErrAuthenticationFailed = errors.New("authentication failed")
)
