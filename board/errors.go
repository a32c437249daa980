package board

import "errors"

// Sentinel errors for board state operations.
// These errors enable reliable error classification using errors.Is().

var (
	// ErrLastToy indicates an attempt to remove the only remaining toy.
	ErrLastToy = errors.New("cannot remove the last remaining toy")

	// ErrToyNotFound indicates the toy id is not known to the state.
	ErrToyNotFound = errors.New("toy not found")

	// ErrButtonNotFound indicates the button id is not known to the toy.
	ErrButtonNotFound = errors.New("button not found")

	// ErrInvalidPosition indicates a reorder target outside the button list.
	ErrInvalidPosition = errors.New("invalid button position")
)
