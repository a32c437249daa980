package asset

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

// HandleID is an opaque session-scoped reference to one binary payload.
// The zero value means "no resource".
type HandleID string

// blob is one registered payload. The digest lets callers compare payload
// identity without holding the bytes.
type blob struct {
	data   []byte
	mime   string
	digest [blake2b.Size256]byte
}

// Registry is the session-wide resource-handle table. It is safe for
// concurrent use and lives for the whole session; there is no teardown.
type Registry struct {
	mu    sync.RWMutex
	blobs map[HandleID]*blob
}

// NewRegistry creates an empty handle registry.
func NewRegistry() *Registry {
	return &Registry{
		blobs: make(map[HandleID]*blob),
	}
}

// Mint registers a payload and returns a fresh handle for it. The registry
// keeps its own reference to data; callers must not mutate the slice after
// minting.
func (r *Registry) Mint(data []byte, mime string) HandleID {
	h := HandleID(uuid.New().String())
	digest := blake2b.Sum256(data)

	r.mu.Lock()
	r.blobs[h] = &blob{data: data, mime: mime, digest: digest}
	r.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"function": "Registry.Mint",
		"handle":   string(h),
		"mime":     mime,
		"size":     len(data),
	}).Debug("Minted resource handle")

	return h
}

// Fetch resolves a handle to its payload bytes and MIME type. A released or
// unknown handle fails with ErrHandleNotFound.
func (r *Registry) Fetch(h HandleID) ([]byte, string, error) {
	r.mu.RLock()
	b, ok := r.blobs[h]
	r.mu.RUnlock()

	if !ok {
		return nil, "", ErrHandleNotFound
	}
	return b.data, b.mime, nil
}

// Digest returns the content digest of the handle's payload. The second
// return value is false for unknown handles.
func (r *Registry) Digest(h HandleID) ([blake2b.Size256]byte, bool) {
	r.mu.RLock()
	b, ok := r.blobs[h]
	r.mu.RUnlock()

	if !ok {
		return [blake2b.Size256]byte{}, false
	}
	return b.digest, true
}

// Release discards the payload behind a handle. Releasing the zero handle
// or an already-released handle is a no-op.
func (r *Registry) Release(h HandleID) {
	if h == "" {
		return
	}

	r.mu.Lock()
	_, ok := r.blobs[h]
	delete(r.blobs, h)
	r.mu.Unlock()

	if ok {
		logrus.WithFields(logrus.Fields{
			"function": "Registry.Release",
			"handle":   string(h),
		}).Debug("Released resource handle")
	}
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}
