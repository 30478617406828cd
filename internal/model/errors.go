package model

import "errors"

var (
	// Authentication
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("could not validate credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrAlreadyLoggedOut   = errors.New("already logged out")

	// Authorization
	ErrForbidden = errors.New("forbidden")

	// Resources
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrValidationFailed = errors.New("validation failed")
	ErrTooManyTags      = errors.New("too many tags")

	// Image provider
	ErrUpstreamProvider = errors.New("upstream provider error")
)
