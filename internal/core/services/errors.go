package services

import "errors"

var (
	// ErrDecode is returned when stored bytes do not decode into the requested
	// shape. Fatal for that read, a retry cannot help.
	ErrDecode = errors.New("stored content does not match the requested shape")
	// ErrUnauthorized is returned when a caller attempts an action without the
	// required role or ownership
	ErrUnauthorized = errors.New("caller is not authorized for this action")
	// ErrRenewalNotAllowed is returned when a renewal is requested and the prior
	// request is not approved or expired
	ErrRenewalNotAllowed = errors.New("renewal requires a prior approved or expired request")
)
