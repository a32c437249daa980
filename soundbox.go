package soundbox

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/soundbox/asset"
	"github.com/opd-ai/soundbox/audio"
	"github.com/opd-ai/soundbox/backup"
	"github.com/opd-ai/soundbox/board"
	"github.com/opd-ai/soundbox/store"
)

// Options configures a Soundboard.
type Options struct {
	// DataDir is the directory backing the durable document store.
	DataDir string

	// Audio carries the engine's injectable dependencies. The zero
	// value selects the real speaker output and portaudio capture.
	Audio audio.Config
}

// Soundboard is the application core: it owns the global state, the shared
// audio engine, the session resource registry, the decoded-buffer cache,
// and the persistence layers, and it keeps them consistent across every
// mutation. All methods are safe for concurrent use.
type Soundboard struct {
	mu       sync.Mutex
	engine   *audio.Engine
	registry *asset.Registry
	cache    *asset.Cache
	store    *store.Store
	codec    *backup.Codec
	state    *board.State

	recording *audio.CaptureSession

	storageErrMu sync.Mutex
	onStorageErr func(error)
}

// New creates a soundboard, loading the persisted state when one exists
// and starting from the fresh-install default otherwise. A corrupt or
// unreadable store is logged and treated as absent; the soundboard always
// starts.
func New(opts Options) *Soundboard {
	registry := asset.NewRegistry()
	engine := audio.NewEngine(opts.Audio)

	sb := &Soundboard{
		engine:   engine,
		registry: registry,
		cache:    asset.NewCache(registry, engine),
		store:    store.New(opts.DataDir, registry),
		codec:    backup.NewCodec(registry),
	}

	state, ok, err := sb.store.Load()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "New",
			"error":    err.Error(),
		}).Error("Stored state unreadable, starting from defaults")
	}
	if !ok || err != nil {
		state = board.NewState()
	}
	sb.state = state
	sb.resyncLocked()

	logrus.WithFields(logrus.Fields{
		"function": "New",
		"toys":     len(state.Toys),
		"restored": ok && err == nil,
	}).Info("Soundboard ready")

	return sb
}

// OnStorageError registers a callback invoked when a background save
// fails. The mutation itself has already succeeded in memory; the callback
// exists so a frontend can surface a transient notification.
func (sb *Soundboard) OnStorageError(fn func(error)) {
	sb.storageErrMu.Lock()
	sb.onStorageErr = fn
	sb.storageErrMu.Unlock()
}

// State returns the live global state. Callers must treat it as read-only;
// all mutation goes through Soundboard methods so persistence and the
// buffer cache stay in sync.
func (sb *Soundboard) State() *board.State {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.state
}

// Engine exposes the shared audio engine, mainly for feedback tones.
func (sb *Soundboard) Engine() *audio.Engine {
	return sb.engine
}

// Registry exposes the session resource-handle table.
func (sb *Soundboard) Registry() *asset.Registry {
	return sb.registry
}

// AddToy appends a new empty toy and returns it.
func (sb *Soundboard) AddToy(name string) *board.Toy {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	t := sb.state.AddToy(name)
	sb.persistLocked()
	return t
}

// RemoveToy deletes a toy, releasing every resource handle its buttons
// still own. Removing the last remaining toy fails with board.ErrLastToy
// and changes nothing. If the removed toy was active, the first remaining
// toy becomes active and the cache resyncs to it.
func (sb *Soundboard) RemoveToy(id string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	t, err := sb.state.RemoveToy(id)
	if err != nil {
		return err
	}
	for _, b := range t.Buttons {
		sb.registry.Release(b.Sound)
		sb.registry.Release(b.Image)
		sb.cache.Evict(b.ID)
	}
	sb.persistLocked()
	sb.resyncLocked()
	return nil
}

// RenameToy changes a toy's display name.
func (sb *Soundboard) RenameToy(id, name string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	t, ok := sb.state.Toy(id)
	if !ok {
		return board.ErrToyNotFound
	}
	t.Name = name
	sb.persistLocked()
	return nil
}

// UpdateToySettings replaces a toy's settings.
func (sb *Soundboard) UpdateToySettings(id string, settings board.Settings) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	t, ok := sb.state.Toy(id)
	if !ok {
		return board.ErrToyNotFound
	}
	t.Settings = settings
	sb.persistLocked()
	return nil
}

// SetActiveToy switches the active toy and resyncs the buffer cache to its
// button list.
func (sb *Soundboard) SetActiveToy(id string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	if err := sb.state.SetActive(id); err != nil {
		return err
	}
	sb.persistLocked()
	sb.resyncLocked()
	return nil
}

// AddButton appends a new empty button (no text, default color, no sound)
// to a toy and returns it.
func (sb *Soundboard) AddButton(toyID string) (*board.Button, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	t, ok := sb.state.Toy(toyID)
	if !ok {
		return nil, board.ErrToyNotFound
	}
	b := t.AddButton()
	sb.persistLocked()
	return b, nil
}

// DuplicateButton inserts a full copy of a button with a fresh id right
// after the original. Sound and image payloads are re-minted so the copy
// owns its own handles and either button can be removed independently.
func (sb *Soundboard) DuplicateButton(toyID, buttonID string) (*board.Button, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	t, ok := sb.state.Toy(toyID)
	if !ok {
		return nil, board.ErrToyNotFound
	}
	dup, err := t.DuplicateButton(buttonID)
	if err != nil {
		return nil, err
	}
	dup.Sound = sb.remintLocked(dup.Sound)
	dup.Image = sb.remintLocked(dup.Image)

	sb.persistLocked()
	sb.resyncLocked()
	return dup, nil
}

// remintLocked copies the payload behind a handle into a fresh handle.
func (sb *Soundboard) remintLocked(h asset.HandleID) asset.HandleID {
	if h == "" {
		return ""
	}
	data, mime, err := sb.registry.Fetch(h)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Soundboard.remint",
			"handle":   string(h),
			"error":    err.Error(),
		}).Warn("Source handle unavailable, duplicate gets no asset")
		return ""
	}
	return sb.registry.Mint(data, mime)
}

// UpdateButton edits a button's scalar fields (text and colors).
func (sb *Soundboard) UpdateButton(toyID, buttonID, text string, color board.Color, textColor string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	b, err := sb.buttonLocked(toyID, buttonID)
	if err != nil {
		return err
	}
	b.Text = text
	if !color.IsZero() {
		b.Color = color
	}
	b.TextColor = textColor
	sb.persistLocked()
	return nil
}

// MoveButton repositions a button within its toy's grid order.
func (sb *Soundboard) MoveButton(toyID, buttonID string, index int) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	t, ok := sb.state.Toy(toyID)
	if !ok {
		return board.ErrToyNotFound
	}
	if err := t.MoveButton(buttonID, index); err != nil {
		return err
	}
	sb.persistLocked()
	return nil
}

// RemoveButton deletes a button, releasing its resource handles and
// evicting its cached buffer.
func (sb *Soundboard) RemoveButton(toyID, buttonID string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	t, ok := sb.state.Toy(toyID)
	if !ok {
		return board.ErrToyNotFound
	}
	b, err := t.RemoveButton(buttonID)
	if err != nil {
		return err
	}
	sb.registry.Release(b.Sound)
	sb.registry.Release(b.Image)
	sb.cache.Evict(b.ID)

	sb.persistLocked()
	sb.resyncLocked()
	return nil
}

// SetButtonSound attaches uploaded audio bytes to a button. The previous
// sound handle, if any, is released so replaced payloads never accumulate
// over a session. The cache resync decodes the new payload.
func (sb *Soundboard) SetButtonSound(toyID, buttonID string, data []byte, mime string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	b, err := sb.buttonLocked(toyID, buttonID)
	if err != nil {
		return err
	}
	sb.registry.Release(b.Sound)
	b.Sound = sb.registry.Mint(data, mime)

	sb.persistLocked()
	sb.resyncLocked()
	return nil
}

// ClearButtonSound removes a button's sound, releasing the handle and
// evicting the cached buffer.
func (sb *Soundboard) ClearButtonSound(toyID, buttonID string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	b, err := sb.buttonLocked(toyID, buttonID)
	if err != nil {
		return err
	}
	sb.registry.Release(b.Sound)
	b.Sound = ""
	sb.cache.Evict(buttonID)

	sb.persistLocked()
	sb.resyncLocked()
	return nil
}

// SetButtonImage attaches image bytes to a button, releasing any previous
// image handle.
func (sb *Soundboard) SetButtonImage(toyID, buttonID string, data []byte, mime string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	b, err := sb.buttonLocked(toyID, buttonID)
	if err != nil {
		return err
	}
	sb.registry.Release(b.Image)
	b.Image = sb.registry.Mint(data, mime)

	sb.persistLocked()
	return nil
}

// ClearButtonImage removes a button's image and releases its handle.
func (sb *Soundboard) ClearButtonImage(toyID, buttonID string) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	b, err := sb.buttonLocked(toyID, buttonID)
	if err != nil {
		return err
	}
	sb.registry.Release(b.Image)
	b.Image = ""

	sb.persistLocked()
	return nil
}

// PlayButton plays a button's sound. Cached buffers play with no decode
// latency; on a cache miss the payload is fetched and decoded inline, the
// slower but always-correct path. Overlapping calls play independently.
func (sb *Soundboard) PlayButton(buttonID string, volume float64) {
	if buf, ok := sb.cache.Lookup(buttonID); ok {
		sb.engine.Play(buf, volume)
		return
	}

	sb.mu.Lock()
	var handle asset.HandleID
	if t := sb.state.ActiveToy(); t != nil {
		if b, ok := t.Button(buttonID); ok {
			handle = b.Sound
		}
	}
	sb.mu.Unlock()

	if handle == "" {
		return
	}
	data, _, err := sb.registry.Fetch(handle)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Soundboard.PlayButton",
			"button":   buttonID,
			"error":    err.Error(),
		}).Warn("Button sound unavailable")
		return
	}
	buf, err := sb.engine.Decode(data)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Soundboard.PlayButton",
			"button":   buttonID,
			"error":    err.Error(),
		}).Warn("Button sound undecodable")
		return
	}
	sb.engine.Play(buf, volume)
}

// PressFeedback plays the active toy's configured feedback tone.
func (sb *Soundboard) PressFeedback() {
	sb.mu.Lock()
	profile := audio.ToneClick
	if t := sb.state.ActiveToy(); t != nil && t.Settings.SoundProfile != "" {
		profile = audio.ToneProfile(t.Settings.SoundProfile)
	}
	sb.mu.Unlock()

	sb.engine.PlayFeedbackTone(profile)
}

// StartRecording begins a microphone capture with live level reporting.
// Device denial fails with audio.ErrPermission; a second concurrent
// recording fails with audio.ErrCaptureActive.
func (sb *Soundboard) StartRecording(onLevel audio.LevelFunc) error {
	sess, err := sb.engine.StartCapture(onLevel)
	if err != nil {
		return err
	}

	sb.mu.Lock()
	sb.recording = sess
	sb.mu.Unlock()
	return nil
}

// FinishRecording stops the active capture, trims silence, normalizes the
// level, re-encodes the take as WAV, and attaches it to the given button,
// releasing any sound the button had before. Finishing when no recording
// is active is a no-op.
func (sb *Soundboard) FinishRecording(toyID, buttonID string) error {
	sb.mu.Lock()
	sess := sb.recording
	sb.recording = nil
	sb.mu.Unlock()

	if sess == nil {
		return nil
	}

	raw, err := sess.Stop()
	if err != nil {
		return fmt.Errorf("finishing recording: %w", err)
	}
	if len(raw) == 0 {
		return nil
	}

	buf, err := sb.engine.Decode(raw)
	if err != nil {
		return fmt.Errorf("finishing recording: %w", err)
	}
	processed := audio.TrimNormalize(buf, audio.DefaultSilenceThreshold)
	data, err := audio.EncodeWAV(processed)
	if err != nil {
		return fmt.Errorf("finishing recording: %w", err)
	}

	return sb.SetButtonSound(toyID, buttonID, data, "audio/wav")
}

// CancelRecording stops and discards the active capture. Safe to call when
// nothing is recording.
func (sb *Soundboard) CancelRecording() {
	sb.mu.Lock()
	sess := sb.recording
	sb.recording = nil
	sb.mu.Unlock()

	if sess != nil {
		sess.Stop()
	}
}

// ExportAll serializes the whole state to a portable JSON backup.
func (sb *Soundboard) ExportAll() ([]byte, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.codec.ExportAll(sb.state)
}

// ExportToy serializes one toy to a portable JSON backup.
func (sb *Soundboard) ExportToy(id string) ([]byte, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	t, ok := sb.state.Toy(id)
	if !ok {
		return nil, board.ErrToyNotFound
	}
	return sb.codec.ExportOne(t)
}

// Import applies a backup document. A full backup replaces every toy (the
// replaced toys' handles are released); a single-toy backup appends and
// becomes active. A malformed document fails with backup.ErrFormat and the
// current state is left untouched.
func (sb *Soundboard) Import(jsonText []byte) error {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	next, err := sb.codec.Import(jsonText, sb.state.Toys)
	if err != nil {
		return err
	}

	// The codec reuses the live toy values in the append case; any toy
	// absent from the new state has been replaced and its assets are
	// dead.
	kept := make(map[string]bool, len(next.Toys))
	for _, t := range next.Toys {
		kept[t.ID] = true
	}
	for _, t := range sb.state.Toys {
		if kept[t.ID] {
			continue
		}
		for _, b := range t.Buttons {
			sb.registry.Release(b.Sound)
			sb.registry.Release(b.Image)
			sb.cache.Evict(b.ID)
		}
	}

	sb.state = next.Repair()
	sb.persistLocked()
	sb.resyncLocked()
	return nil
}

// buttonLocked resolves a button inside a toy. Callers hold sb.mu.
func (sb *Soundboard) buttonLocked(toyID, buttonID string) (*board.Button, error) {
	t, ok := sb.state.Toy(toyID)
	if !ok {
		return nil, board.ErrToyNotFound
	}
	b, ok := t.Button(buttonID)
	if !ok {
		return nil, board.ErrButtonNotFound
	}
	return b, nil
}

// persistLocked saves the state after a mutation. The mutation has already
// succeeded; a failed save is reported through OnStorageError rather than
// unwinding it. Callers hold sb.mu.
func (sb *Soundboard) persistLocked() {
	if err := sb.store.Save(sb.state); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Soundboard.persist",
			"error":    err.Error(),
		}).Error("State save failed")

		sb.storageErrMu.Lock()
		fn := sb.onStorageErr
		sb.storageErrMu.Unlock()
		if fn != nil {
			fn(err)
		}
	}
}

// resyncLocked reconciles the buffer cache with the active toy's button
// list. Callers hold sb.mu.
func (sb *Soundboard) resyncLocked() {
	t := sb.state.ActiveToy()
	if t == nil {
		sb.cache.Sync(nil)
		return
	}
	sounds := make([]asset.ButtonSound, 0, len(t.Buttons))
	for _, b := range t.Buttons {
		sounds = append(sounds, asset.ButtonSound{ButtonID: b.ID, Handle: b.Sound})
	}
	sb.cache.Sync(sounds)
}
