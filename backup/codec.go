package backup

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/soundbox/asset"
	"github.com/opd-ai/soundbox/board"
)

// Backup document format tags.
const (
	// FormatVersion stamps every exported document.
	FormatVersion = "1.0"

	// TypeFull marks a document carrying all toys.
	TypeFull = "full_backup"

	// TypeSingle marks a document carrying one toy.
	TypeSingle = "single_toy"
)

// document is the on-disk JSON shape for both backup kinds.
type document struct {
	Version     string     `json:"version"`
	Type        string     `json:"type"`
	Timestamp   string     `json:"timestamp"`
	ActiveToyID string     `json:"activeToyId,omitempty"`
	Toys        []toyDoc   `json:"toys,omitempty"`
	Toy         *toyDoc    `json:"toy,omitempty"`
}

type toyDoc struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Settings *settingsDoc `json:"settings,omitempty"`
	Buttons  []buttonDoc  `json:"buttons"`
}

type settingsDoc struct {
	CaseColor    string `json:"caseColor,omitempty"`
	TitleColor   string `json:"titleColor,omitempty"`
	SoundProfile string `json:"soundProfile,omitempty"`
	Glow         string `json:"glow,omitempty"`
}

type buttonDoc struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Color       string `json:"color,omitempty"`
	TextColor   string `json:"textColor,omitempty"`
	AudioBase64 string `json:"audioBase64,omitempty"`
	ImageBase64 string `json:"imageBase64,omitempty"`
}

// Codec converts between live state and portable backup documents. Asset
// payloads are resolved through (and re-minted into) the given registry.
type Codec struct {
	reg *asset.Registry
	// now is the timestamp source, overridable in tests.
	now func() time.Time
}

// NewCodec creates a codec over the given registry.
func NewCodec(reg *asset.Registry) *Codec {
	return &Codec{reg: reg, now: time.Now}
}

// ExportAll serializes the entire state, assets included, to JSON text.
// An asset that cannot be fetched is omitted from the document; the export
// continues for the rest of the state.
func (c *Codec) ExportAll(state *board.State) ([]byte, error) {
	doc := document{
		Version:     FormatVersion,
		Type:        TypeFull,
		Timestamp:   c.now().UTC().Format(time.RFC3339),
		ActiveToyID: state.ActiveToyID,
		Toys:        make([]toyDoc, 0, len(state.Toys)),
	}
	for _, t := range state.Toys {
		doc.Toys = append(doc.Toys, c.exportToy(t))
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding backup: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Codec.ExportAll",
		"toys":     len(doc.Toys),
		"bytes":    len(data),
	}).Info("Exported full backup")

	return data, nil
}

// ExportOne serializes a single toy to JSON text, tagged so import can tell
// it apart from a full backup.
func (c *Codec) ExportOne(toy *board.Toy) ([]byte, error) {
	td := c.exportToy(toy)
	doc := document{
		Version:   FormatVersion,
		Type:      TypeSingle,
		Timestamp: c.now().UTC().Format(time.RFC3339),
		Toy:       &td,
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding backup: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Codec.ExportOne",
		"toy":      toy.ID,
		"buttons":  len(toy.Buttons),
	}).Info("Exported single-toy backup")

	return data, nil
}

func (c *Codec) exportToy(t *board.Toy) toyDoc {
	td := toyDoc{
		ID:   t.ID,
		Name: t.Name,
		Settings: &settingsDoc{
			CaseColor:    t.Settings.CaseColor.String(),
			TitleColor:   t.Settings.TitleColor,
			SoundProfile: t.Settings.SoundProfile,
			Glow:         t.Settings.Glow,
		},
		Buttons: make([]buttonDoc, 0, len(t.Buttons)),
	}
	for _, b := range t.Buttons {
		bd := buttonDoc{
			ID:        b.ID,
			Text:      b.Text,
			Color:     b.Color.String(),
			TextColor: b.TextColor,
		}
		bd.AudioBase64 = c.encodePayload(b.Sound, b.ID, "sound")
		bd.ImageBase64 = c.encodePayload(b.Image, b.ID, "image")
		td.Buttons = append(td.Buttons, bd)
	}
	return td
}

// encodePayload resolves a handle into a data URI. An unresolvable asset is
// omitted rather than failing the export.
func (c *Codec) encodePayload(h asset.HandleID, buttonID, kind string) string {
	if h == "" {
		return ""
	}
	data, mime, err := c.reg.Fetch(h)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Codec.encodePayload",
			"button":   buttonID,
			"kind":     kind,
			"handle":   string(h),
			"error":    err.Error(),
		}).Warn("Asset unavailable at export time, omitted from backup")
		return ""
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Import parses a backup document and builds the resulting state. Every
// imported toy and button gets a freshly minted id, and every embedded
// payload becomes a fresh resource handle. A full backup replaces the toy
// list entirely; a single-toy backup appends to current and the imported
// toy becomes active. Malformed documents fail with ErrFormat before any
// handle is minted into the caller-visible state.
func (c *Codec) Import(jsonText []byte, current []*board.Toy) (*board.State, error) {
	var doc document
	if err := json.Unmarshal(jsonText, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	kind := doc.Type
	if kind == "" {
		// Older exports carried no type tag; recognize by shape.
		switch {
		case doc.Toys != nil:
			kind = TypeFull
		case doc.Toy != nil:
			kind = TypeSingle
		}
	}

	switch kind {
	case TypeFull:
		if doc.Toys == nil {
			return nil, fmt.Errorf("%w: full backup missing toys", ErrFormat)
		}
		return c.importFull(&doc)
	case TypeSingle:
		if doc.Toy == nil {
			return nil, fmt.Errorf("%w: single-toy backup missing toy", ErrFormat)
		}
		return c.importSingle(&doc, current)
	default:
		return nil, fmt.Errorf("%w: unknown document type %q", ErrFormat, doc.Type)
	}
}

func (c *Codec) importFull(doc *document) (*board.State, error) {
	state := &board.State{}
	for i := range doc.Toys {
		t, err := c.importToy(&doc.Toys[i])
		if err != nil {
			// Nothing from a bad file may survive, including the
			// handles minted for toys parsed before the failure.
			for _, done := range state.Toys {
				releaseToyHandles(c.reg, done)
			}
			return nil, err
		}
		state.Toys = append(state.Toys, t)
		// The file's active id is stale by construction (ids are
		// re-minted); preserve the selection by position instead.
		if doc.Toys[i].ID == doc.ActiveToyID {
			state.ActiveToyID = t.ID
		}
	}
	state.Repair()

	logrus.WithFields(logrus.Fields{
		"function": "Codec.importFull",
		"toys":     len(state.Toys),
	}).Info("Imported full backup")

	return state, nil
}

func (c *Codec) importSingle(doc *document, current []*board.Toy) (*board.State, error) {
	t, err := c.importToy(doc.Toy)
	if err != nil {
		return nil, err
	}

	state := &board.State{
		Toys:        append(append([]*board.Toy{}, current...), t),
		ActiveToyID: t.ID,
	}

	logrus.WithFields(logrus.Fields{
		"function": "Codec.importSingle",
		"toy":      t.ID,
		"buttons":  len(t.Buttons),
		"existing": len(current),
	}).Info("Imported single-toy backup")

	return state, nil
}

// importToy rebuilds one toy with fresh identifiers and handles. Missing
// optional fields fall back to defaults rather than failing.
func (c *Codec) importToy(td *toyDoc) (*board.Toy, error) {
	t := &board.Toy{
		ID:       uuid.New().String(),
		Name:     td.Name,
		Settings: board.DefaultSettings(),
	}
	if td.Settings != nil {
		if td.Settings.CaseColor != "" {
			t.Settings.CaseColor = board.ParseColor(td.Settings.CaseColor)
		}
		t.Settings.TitleColor = td.Settings.TitleColor
		t.Settings.SoundProfile = td.Settings.SoundProfile
		t.Settings.Glow = td.Settings.Glow
	}

	for i := range td.Buttons {
		bd := &td.Buttons[i]
		b := &board.Button{
			ID:        uuid.New().String(),
			Text:      bd.Text,
			Color:     board.DefaultButtonColor,
			TextColor: bd.TextColor,
		}
		if bd.Color != "" {
			b.Color = board.ParseColor(bd.Color)
		}

		var err error
		if b.Sound, err = c.decodePayload(bd.AudioBase64); err != nil {
			releaseToyHandles(c.reg, t)
			return nil, err
		}
		if b.Image, err = c.decodePayload(bd.ImageBase64); err != nil {
			c.reg.Release(b.Sound)
			releaseToyHandles(c.reg, t)
			return nil, err
		}
		t.Buttons = append(t.Buttons, b)
	}
	return t, nil
}

// releaseToyHandles discards every handle minted for a toy whose import was
// abandoned.
func releaseToyHandles(reg *asset.Registry, t *board.Toy) {
	for _, b := range t.Buttons {
		reg.Release(b.Sound)
		reg.Release(b.Image)
	}
}

// decodePayload parses a data URI back into bytes and mints a fresh handle.
// An empty string means "no asset" and yields the zero handle.
func (c *Codec) decodePayload(uri string) (asset.HandleID, error) {
	if uri == "" {
		return "", nil
	}

	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", fmt.Errorf("%w: asset payload is not a data URI", ErrFormat)
	}
	mime, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", fmt.Errorf("%w: asset payload missing base64 marker", ErrFormat)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("%w: asset payload is not valid base64", ErrFormat)
	}

	return c.reg.Mint(data, mime), nil
}
