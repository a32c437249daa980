// Package store persists the full soundboard state to a local document
// store on disk.
//
// One gob document holds everything, written atomically (temp file plus
// rename) under a key that embeds the schema version. When the stored shape
// changes the key changes with it, so old-shape data is never misread; data
// left at an abandoned key is not migrated. Binary audio and image payloads
// are embedded in the document as raw bytes, next to the button's scalar
// fields.
//
// The stored representation differs from the live one: live buttons carry
// session-scoped resource handles, stored buttons carry the payload itself.
// Save resolves each handle through the asset registry; Load mints a fresh
// handle for every stored payload. A payload whose handle cannot be
// resolved is saved as absent rather than failing the whole snapshot.
package store
