package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/soundbox/asset"
	"github.com/opd-ai/soundbox/board"
)

// StateKey is the storage key for the full application state. The suffix
// is the schema version: adding image support bumped v1 to v2, and v1
// documents are left where they are.
const StateKey = "soundbox_state_v2"

// Default MIME types assumed for payloads stored before MIME tracking.
const (
	defaultAudioMIME = "audio/wav"
	defaultImageMIME = "image/png"
)

// storedState is the durable shape of the application state.
type storedState struct {
	Toys        []storedToy
	ActiveToyID string
}

type storedToy struct {
	ID       string
	Name     string
	Settings board.Settings
	Buttons  []storedButton
}

// storedButton embeds binary payloads directly; a button with no sound or
// image stores nil payloads.
type storedButton struct {
	ID           string
	Text         string
	Color        board.Color
	TextColor    string
	AudioPayload []byte
	AudioMIME    string
	ImagePayload []byte
	ImageMIME    string
}

// Store is the durable local document store for the soundboard state.
type Store struct {
	mu  sync.Mutex
	dir string
	reg *asset.Registry
}

// New creates a store rooted at dir. The registry resolves live handles on
// save and receives freshly minted ones on load.
func New(dir string, reg *asset.Registry) *Store {
	return &Store{dir: dir, reg: reg}
}

// Path returns the file backing the given storage key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key+".gob")
}

// Save converts the live state to its stored shape and writes it under the
// versioned key. Per-asset fetch failures are logged and stored as absent
// payloads; they never abort the snapshot. A failed write is retried once
// before surfacing ErrStorage.
func (s *Store) Save(state *board.State) error {
	doc := s.toStored(state)

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(doc); err != nil {
		return fmt.Errorf("%w: encoding state: %v", ErrStorage, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.writeAtomic(StateKey, buf.Bytes())
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Store.Save",
			"key":      StateKey,
			"error":    err.Error(),
		}).Warn("State write failed, retrying once")
		err = s.writeAtomic(StateKey, buf.Bytes())
	}
	if err != nil {
		return fmt.Errorf("%w: writing state: %v", ErrStorage, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Store.Save",
		"key":      StateKey,
		"toys":     len(doc.Toys),
		"bytes":    buf.Len(),
	}).Debug("State saved")

	return nil
}

// Load reads the state at the versioned key. An absent key is the
// fresh-install case and returns ok=false with no error; the caller
// supplies defaults. Every stored payload is minted into a fresh resource
// handle, and the returned state always satisfies the global invariants.
func (s *Store) Load() (*board.State, bool, error) {
	s.mu.Lock()
	data, err := os.ReadFile(s.Path(StateKey))
	s.mu.Unlock()

	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: reading state: %v", ErrStorage, err)
	}

	var doc storedState
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, false, fmt.Errorf("%w: decoding state: %v", ErrStorage, err)
	}

	state := s.toLive(&doc).Repair()

	logrus.WithFields(logrus.Fields{
		"function": "Store.Load",
		"key":      StateKey,
		"toys":     len(state.Toys),
	}).Info("State loaded")

	return state, true, nil
}

// toStored resolves every button's handles into embedded payloads.
func (s *Store) toStored(state *board.State) *storedState {
	doc := &storedState{ActiveToyID: state.ActiveToyID}
	for _, t := range state.Toys {
		st := storedToy{
			ID:       t.ID,
			Name:     t.Name,
			Settings: t.Settings,
			Buttons:  make([]storedButton, 0, len(t.Buttons)),
		}
		for _, b := range t.Buttons {
			sb := storedButton{
				ID:        b.ID,
				Text:      b.Text,
				Color:     b.Color,
				TextColor: b.TextColor,
			}
			sb.AudioPayload, sb.AudioMIME = s.fetchPayload(b.Sound, b.ID, "sound")
			sb.ImagePayload, sb.ImageMIME = s.fetchPayload(b.Image, b.ID, "image")
			st.Buttons = append(st.Buttons, sb)
		}
		doc.Toys = append(doc.Toys, st)
	}
	return doc
}

// fetchPayload resolves one handle, treating failures as "no payload" so a
// single broken asset never aborts the snapshot.
func (s *Store) fetchPayload(h asset.HandleID, buttonID, kind string) ([]byte, string) {
	if h == "" {
		return nil, ""
	}
	data, mime, err := s.reg.Fetch(h)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Store.fetchPayload",
			"button":   buttonID,
			"kind":     kind,
			"handle":   string(h),
			"error":    err.Error(),
		}).Warn("Asset unavailable at save time, stored as absent")
		return nil, ""
	}
	return data, mime
}

// toLive mints fresh handles for every stored payload.
func (s *Store) toLive(doc *storedState) *board.State {
	state := &board.State{ActiveToyID: doc.ActiveToyID}
	for _, st := range doc.Toys {
		t := &board.Toy{
			ID:       st.ID,
			Name:     st.Name,
			Settings: st.Settings,
		}
		for _, sb := range st.Buttons {
			b := &board.Button{
				ID:        sb.ID,
				Text:      sb.Text,
				Color:     sb.Color,
				TextColor: sb.TextColor,
			}
			if len(sb.AudioPayload) > 0 {
				mime := sb.AudioMIME
				if mime == "" {
					mime = defaultAudioMIME
				}
				b.Sound = s.reg.Mint(sb.AudioPayload, mime)
			}
			if len(sb.ImagePayload) > 0 {
				mime := sb.ImageMIME
				if mime == "" {
					mime = defaultImageMIME
				}
				b.Image = s.reg.Mint(sb.ImagePayload, mime)
			}
			t.Buttons = append(t.Buttons, b)
		}
		state.Toys = append(state.Toys, t)
	}
	return state
}

// writeAtomic writes the document to a temp file and renames it into
// place, so a crashed write never leaves a truncated document at the key.
func (s *Store) writeAtomic(key string, data []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	path := s.Path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
