// Package storage holds the document storage backends. One backend is selected
// at process start from configuration and used for the lifetime of the process.
package storage

import (
	"errors"
)

// Storage error taxonomy. ErrBackendUnavailable is transient and retryable by
// the caller, ErrNotFound is not.
var (
	// ErrNotFound is returned when the backend holds no data for a locator
	ErrNotFound = errors.New("content not found")
	// ErrBackendUnavailable is returned on network or auth failures against the
	// remote pinning node. Content is never at fault for this error.
	ErrBackendUnavailable = errors.New("storage backend unavailable")
)
