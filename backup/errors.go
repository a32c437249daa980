package backup

import "errors"

// Sentinel errors for backup import.
// These errors enable reliable error classification using errors.Is().

var (
	// ErrFormat indicates the document is malformed or not recognizable
	// as either backup shape. Import aborts entirely; no partial state
	// is ever applied from a bad file.
	ErrFormat = errors.New("unrecognized backup document")
)
