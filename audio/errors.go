package audio

import "errors"

// Sentinel errors for audio operations.
// These errors enable reliable error classification using errors.Is().

// Decode errors.
var (
	// ErrDecode indicates the bytes are not a supported audio format.
	// Callers treat this as non-fatal: the affected button's sound is
	// simply absent.
	ErrDecode = errors.New("unsupported or corrupt audio data")

	// ErrEmptyBuffer indicates an encode or playback call received a
	// buffer with no samples.
	ErrEmptyBuffer = errors.New("audio buffer is empty")
)

// Capture errors.
var (
	// ErrPermission indicates the capture device was denied or is
	// unavailable. The caller must surface a user-facing notice and
	// abort; no state has been mutated.
	ErrPermission = errors.New("audio capture device unavailable")

	// ErrCaptureActive indicates a capture session is already running.
	// The capture device is exclusively held by at most one session;
	// starting a second one is rejected rather than queued.
	ErrCaptureActive = errors.New("a capture session is already active")
)
