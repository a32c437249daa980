package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/soundbox/asset"
	"github.com/opd-ai/soundbox/board"
)

func testState(reg *asset.Registry, audio, image []byte) *board.State {
	state := board.NewState()
	toy := state.Toys[0]
	b := toy.AddButton()
	b.Text = "Honk"
	b.Color = board.Color{Custom: "#ff8800"}
	b.TextColor = "#000000"
	if audio != nil {
		b.Sound = reg.Mint(audio, "audio/wav")
	}
	if image != nil {
		b.Image = reg.Mint(image, "image/png")
	}
	toy.AddButton() // a second, empty button
	return state
}

func TestStore_FreshInstall(t *testing.T) {
	s := New(t.TempDir(), asset.NewRegistry())

	state, ok, err := s.Load()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, state)
}

func TestStore_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	reg := asset.NewRegistry()
	s := New(dir, reg)

	audio := []byte{0x00, 0x01, 0xfe, 0xff, 0x80, 0x7f} // raw binary, not text
	image := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff}
	in := testState(reg, audio, image)

	require.NoError(t, s.Save(in))

	// Loading mints fresh handles, so resolve through a new registry.
	reg2 := asset.NewRegistry()
	s2 := New(dir, reg2)
	out, ok, err := s2.Load()
	require.NoError(t, err)
	require.True(t, ok)

	require.Len(t, out.Toys, 1)
	toy := out.Toys[0]
	assert.Equal(t, in.Toys[0].ID, toy.ID)
	assert.Equal(t, in.Toys[0].Name, toy.Name)
	assert.Equal(t, in.Toys[0].Settings, toy.Settings)
	assert.Equal(t, in.ActiveToyID, out.ActiveToyID)

	require.Len(t, toy.Buttons, 2)
	b := toy.Buttons[0]
	assert.Equal(t, "Honk", b.Text)
	assert.Equal(t, board.Color{Custom: "#ff8800"}, b.Color)
	assert.Equal(t, "#000000", b.TextColor)

	require.NotEmpty(t, b.Sound)
	assert.NotEqual(t, in.Toys[0].Buttons[0].Sound, b.Sound, "handles are re-minted on load")
	gotAudio, mime, err := reg2.Fetch(b.Sound)
	require.NoError(t, err)
	assert.Equal(t, audio, gotAudio, "payload bytes survive bit-identically")
	assert.Equal(t, "audio/wav", mime)

	require.NotEmpty(t, b.Image)
	gotImage, mime, err := reg2.Fetch(b.Image)
	require.NoError(t, err)
	assert.Equal(t, image, gotImage)
	assert.Equal(t, "image/png", mime)

	assert.Empty(t, toy.Buttons[1].Sound)
	assert.Empty(t, toy.Buttons[1].Image)
}

func TestStore_PayloadStoredAsBinary(t *testing.T) {
	dir := t.TempDir()
	reg := asset.NewRegistry()
	s := New(dir, reg)

	audio := []byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01, 0x02}
	require.NoError(t, s.Save(testState(reg, audio, nil)))

	raw, err := os.ReadFile(s.Path(StateKey))
	require.NoError(t, err)
	assert.Contains(t, string(raw), string(audio), "payload embedded verbatim, not re-encoded")
}

func TestStore_SaveOverwritesPreviousSnapshot(t *testing.T) {
	dir := t.TempDir()
	reg := asset.NewRegistry()
	s := New(dir, reg)

	state := testState(reg, nil, nil)
	require.NoError(t, s.Save(state))

	state.Toys[0].Name = "Renamed"
	require.NoError(t, s.Save(state))

	out, ok, err := New(dir, asset.NewRegistry()).Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Renamed", out.Toys[0].Name)
}

func TestStore_CorruptDocument(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, asset.NewRegistry())

	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(s.Path(StateKey), []byte("not a gob stream"), 0o644))

	_, _, err := s.Load()
	assert.ErrorIs(t, err, ErrStorage)
}

func TestStore_UnfetchableHandleStoredAsAbsent(t *testing.T) {
	dir := t.TempDir()
	reg := asset.NewRegistry()
	s := New(dir, reg)

	state := testState(reg, []byte("payload"), nil)
	reg.Release(state.Toys[0].Buttons[0].Sound) // handle now dangles

	require.NoError(t, s.Save(state))

	out, ok, err := New(dir, asset.NewRegistry()).Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, out.Toys[0].Buttons[0].Sound)
}

func TestStore_LoadRepairsInvalidActive(t *testing.T) {
	dir := t.TempDir()
	reg := asset.NewRegistry()
	s := New(dir, reg)

	state := testState(reg, nil, nil)
	state.ActiveToyID = "no-such-toy"
	require.NoError(t, s.Save(state))

	out, ok, err := New(dir, asset.NewRegistry()).Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, out.Toys[0].ID, out.ActiveToyID)
}

func TestStore_NoStrayTempFileAfterSave(t *testing.T) {
	dir := t.TempDir()
	reg := asset.NewRegistry()
	s := New(dir, reg)

	require.NoError(t, s.Save(testState(reg, nil, nil)))

	_, err := os.Stat(filepath.Join(dir, StateKey+".gob.tmp"))
	assert.True(t, os.IsNotExist(err))
}
