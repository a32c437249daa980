// Package backup serializes soundboard state to a portable JSON document
// and back.
//
// Two document shapes exist: a full backup carrying every toy plus the
// active toy id, and a single-toy backup carrying one toy. Binary audio and
// image payloads are embedded as self-describing data URIs
// (data:<mime>;base64,<payload>) so a backup file is one self-contained
// piece of text.
//
// Import never trusts identifiers from the file: every imported toy and
// button receives a freshly minted id, which guarantees no collision with
// existing state or within the file itself. A full backup replaces the toy
// list; a single-toy backup appends and becomes the active toy. A document
// that is not recognizable as either shape fails with ErrFormat and nothing
// is applied.
package backup
