package store

import "errors"

// Sentinel errors for durable storage operations.
// These errors enable reliable error classification using errors.Is().

var (
	// ErrStorage indicates the durable store could not be read or
	// written. Writes are retried once before this surfaces.
	ErrStorage = errors.New("durable storage failure")
)
