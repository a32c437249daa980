// Package asset manages binary audio and image payloads during a session.
//
// Registry is the authoritative table of session-scoped resource handles.
// A handle is an opaque id referencing exactly one payload; it is minted
// when bytes enter the system (recording, upload, load, import), resolved
// with Fetch, and must be released when the owning button's sound or image
// is replaced or removed so a long session does not accumulate dead blobs.
// Handles are never persisted: the store and backup layers embed the raw
// payload and mint fresh handles on the way back in.
//
// Cache keeps one decoded playable buffer per button that has a sound
// handle. Sync diffs each button's current handle against the last-synced
// record and only fetches and decodes what actually changed, so re-running
// it when nothing moved performs no work.
package asset
