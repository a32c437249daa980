package asset

import "errors"

// Sentinel errors for asset operations.
// These errors enable reliable error classification using errors.Is().

var (
	// ErrHandleNotFound indicates the handle does not reference a live
	// payload: it was never minted, or has already been released.
	ErrHandleNotFound = errors.New("resource handle not found")
)
