// Package board defines the soundboard data model: toys (named button
// collections), buttons, per-toy settings, and the global state that ties
// them together.
//
// The package is pure data plus invariant enforcement. It knows nothing
// about audio decoding, persistence, or rendering; those concerns live in
// the audio, store, and backup packages and consume these types.
//
// Two invariants are enforced by State and never left to callers:
//
//   - At least one toy always exists. Removing the last toy fails with
//     ErrLastToy and leaves the state unchanged.
//   - ActiveToyID always refers to an existing toy. Removing the active
//     toy reassigns the active id to the first remaining toy.
package board
