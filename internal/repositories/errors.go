package repositories

import "errors"

var (
	// ErrNoMapping is returned when a business has never submitted a dossier
	ErrNoMapping = errors.New("no dossier mapping for business")
	// ErrRequestNotFound is returned when a verification request does not exist
	ErrRequestNotFound = errors.New("verification request not found")
	// ErrAlreadyPending is returned when the identity already has an open request
	ErrAlreadyPending = errors.New("business already has a pending verification request")
	// ErrRequestNotPending is returned when a mutation reaches a request that is
	// already in a terminal state
	ErrRequestNotPending = errors.New("verification request is not pending")
)
