package board

import (
	"github.com/google/uuid"

	"github.com/opd-ai/soundbox/asset"
)

// Button is a single virtual key on the grid. The Sound and Image handles
// are session-scoped references into the asset registry; they are never
// persisted directly and are re-minted when state is loaded or imported.
type Button struct {
	ID        string
	Text      string
	Color     Color
	TextColor string
	Sound     asset.HandleID
	Image     asset.HandleID
}

// Clone returns a deep copy of the button with a freshly minted id.
// Resource handles are shared with the original; callers that need an
// independent payload must re-mint them.
func (b *Button) Clone() *Button {
	dup := *b
	dup.ID = uuid.New().String()
	return &dup
}

// Settings holds the per-toy visual and audio preferences. All fields other
// than CaseColor are optional overrides; empty means "use the default".
type Settings struct {
	CaseColor    Color
	TitleColor   string
	SoundProfile string
	Glow         string
}

// DefaultSettings returns the settings assigned to freshly created toys.
func DefaultSettings() Settings {
	return Settings{CaseColor: DefaultCaseColor}
}

// Toy is a named, independently themed, ordered collection of buttons.
// Button order is meaningful: it determines grid position.
type Toy struct {
	ID       string
	Name     string
	Settings Settings
	Buttons  []*Button
}

// NewToy creates an empty toy with default settings and a fresh id.
func NewToy(name string) *Toy {
	return &Toy{
		ID:       uuid.New().String(),
		Name:     name,
		Settings: DefaultSettings(),
	}
}

// AddButton appends a new empty button (no text, default color, no sound)
// and returns it.
func (t *Toy) AddButton() *Button {
	b := &Button{
		ID:    uuid.New().String(),
		Color: DefaultButtonColor,
	}
	t.Buttons = append(t.Buttons, b)
	return b
}

// Button returns the button with the given id, if present.
func (t *Toy) Button(id string) (*Button, bool) {
	for _, b := range t.Buttons {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

// DuplicateButton inserts a full copy of the button with a fresh id
// immediately after the original and returns the copy.
func (t *Toy) DuplicateButton(id string) (*Button, error) {
	for i, b := range t.Buttons {
		if b.ID == id {
			dup := b.Clone()
			t.Buttons = append(t.Buttons, nil)
			copy(t.Buttons[i+2:], t.Buttons[i+1:])
			t.Buttons[i+1] = dup
			return dup, nil
		}
	}
	return nil, ErrButtonNotFound
}

// RemoveButton deletes the button with the given id and returns it so the
// caller can release any resource handles it still owns.
func (t *Toy) RemoveButton(id string) (*Button, error) {
	for i, b := range t.Buttons {
		if b.ID == id {
			t.Buttons = append(t.Buttons[:i], t.Buttons[i+1:]...)
			return b, nil
		}
	}
	return nil, ErrButtonNotFound
}

// MoveButton repositions the button with the given id to the target index.
// The index addresses the list after removal, so moving to len-1 places the
// button last.
func (t *Toy) MoveButton(id string, index int) error {
	pos := -1
	for i, b := range t.Buttons {
		if b.ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return ErrButtonNotFound
	}
	if index < 0 || index >= len(t.Buttons) {
		return ErrInvalidPosition
	}
	b := t.Buttons[pos]
	t.Buttons = append(t.Buttons[:pos], t.Buttons[pos+1:]...)
	t.Buttons = append(t.Buttons, nil)
	copy(t.Buttons[index+1:], t.Buttons[index:])
	t.Buttons[index] = b
	return nil
}
