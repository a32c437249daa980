package backup

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/soundbox/asset"
	"github.com/opd-ai/soundbox/board"
)

func testCodec(reg *asset.Registry) *Codec {
	c := NewCodec(reg)
	c.now = func() time.Time {
		return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	}
	return c
}

func testState(reg *asset.Registry, audio []byte) *board.State {
	state := board.NewState()
	toy := state.Toys[0]
	toy.Name = "Farm Animals"
	toy.Settings.CaseColor = board.CustomColor("#223344")
	toy.Settings.SoundProfile = "keyboard"

	b := toy.AddButton()
	b.Text = "Moo"
	b.Color = board.NamedColor(board.PaletteGreen)
	b.TextColor = "#ffffff"
	if audio != nil {
		b.Sound = reg.Mint(audio, "audio/wav")
	}
	toy.AddButton()
	return state
}

func TestExportAll_DocumentShape(t *testing.T) {
	reg := asset.NewRegistry()
	c := testCodec(reg)
	audio := []byte{1, 2, 3, 4}
	state := testState(reg, audio)

	data, err := c.ExportAll(state)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "1.0", doc["version"])
	assert.Equal(t, "full_backup", doc["type"])
	assert.Equal(t, "2026-03-14T09:26:53Z", doc["timestamp"])
	assert.Equal(t, state.ActiveToyID, doc["activeToyId"])

	toys, ok := doc["toys"].([]interface{})
	require.True(t, ok)
	require.Len(t, toys, 1)

	toy := toys[0].(map[string]interface{})
	assert.Equal(t, "Farm Animals", toy["name"])
	settings := toy["settings"].(map[string]interface{})
	assert.Equal(t, "#223344", settings["caseColor"])
	assert.Equal(t, "keyboard", settings["soundProfile"])

	buttons := toy["buttons"].([]interface{})
	require.Len(t, buttons, 2)
	first := buttons[0].(map[string]interface{})
	assert.Equal(t, "Moo", first["text"])
	assert.Equal(t, "green", first["color"])
	want := "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(audio)
	assert.Equal(t, want, first["audioBase64"])

	second := buttons[1].(map[string]interface{})
	_, hasAudio := second["audioBase64"]
	assert.False(t, hasAudio, "buttons without sound omit the field")
}

func TestExportImport_FullRoundTrip(t *testing.T) {
	reg := asset.NewRegistry()
	c := testCodec(reg)
	audio := []byte{0xca, 0xfe, 0x00, 0x01}
	state := testState(reg, audio)

	data, err := c.ExportAll(state)
	require.NoError(t, err)

	reg2 := asset.NewRegistry()
	c2 := testCodec(reg2)
	got, err := c2.Import(data, nil)
	require.NoError(t, err)

	require.Len(t, got.Toys, 1)
	toy := got.Toys[0]
	assert.NotEqual(t, state.Toys[0].ID, toy.ID, "imported toys get fresh ids")
	assert.Equal(t, "Farm Animals", toy.Name)
	assert.Equal(t, board.CustomColor("#223344"), toy.Settings.CaseColor)
	assert.Equal(t, "keyboard", toy.Settings.SoundProfile)
	assert.Equal(t, toy.ID, got.ActiveToyID, "active selection preserved by position")

	require.Len(t, toy.Buttons, 2)
	b := toy.Buttons[0]
	assert.NotEqual(t, state.Toys[0].Buttons[0].ID, b.ID)
	assert.Equal(t, "Moo", b.Text)
	assert.Equal(t, board.NamedColor(board.PaletteGreen), b.Color)

	require.NotEmpty(t, b.Sound)
	payload, mime, err := reg2.Fetch(b.Sound)
	require.NoError(t, err)
	assert.Equal(t, audio, payload)
	assert.Equal(t, "audio/wav", mime)

	assert.Empty(t, toy.Buttons[1].Sound)
}

func TestImport_SingleToyAppends(t *testing.T) {
	reg := asset.NewRegistry()
	c := testCodec(reg)

	exported := board.NewToy("Imported One")
	exported.AddButton().Text = "Beep"
	data, err := c.ExportOne(exported)
	require.NoError(t, err)

	current := []*board.Toy{board.NewToy("First"), board.NewToy("Second")}
	got, err := c.Import(data, current)
	require.NoError(t, err)

	require.Len(t, got.Toys, 3)
	assert.Same(t, current[0], got.Toys[0], "existing toys kept as-is")
	assert.Same(t, current[1], got.Toys[1])
	newToy := got.Toys[2]
	assert.Equal(t, "Imported One", newToy.Name)
	assert.NotEqual(t, exported.ID, newToy.ID)
	assert.Equal(t, newToy.ID, got.ActiveToyID, "imported toy becomes active")
}

func TestImport_TypeTagFallback(t *testing.T) {
	reg := asset.NewRegistry()
	c := testCodec(reg)

	// Documents without a type tag are recognized by shape.
	full := []byte(`{"version":"1.0","toys":[{"id":"x","name":"Old","buttons":[]}]}`)
	got, err := c.Import(full, nil)
	require.NoError(t, err)
	require.Len(t, got.Toys, 1)
	assert.Equal(t, "Old", got.Toys[0].Name)

	single := []byte(`{"version":"1.0","toy":{"id":"y","name":"Solo","buttons":[]}}`)
	got, err = c.Import(single, nil)
	require.NoError(t, err)
	require.Len(t, got.Toys, 1)
	assert.Equal(t, "Solo", got.Toys[0].Name)
}

func TestImport_DefaultsForMissingFields(t *testing.T) {
	reg := asset.NewRegistry()
	c := testCodec(reg)

	data := []byte(`{
		"version": "1.0",
		"type": "full_backup",
		"toys": [{"id": "x", "name": "Bare", "buttons": [{"id": "b", "text": "Hi"}]}]
	}`)

	got, err := c.Import(data, nil)
	require.NoError(t, err)

	toy := got.Toys[0]
	assert.Equal(t, board.DefaultSettings(), toy.Settings)
	require.Len(t, toy.Buttons, 1)
	assert.Equal(t, board.DefaultButtonColor, toy.Buttons[0].Color)
	assert.Empty(t, toy.Buttons[0].Sound)
}

func TestImport_MalformedDocuments(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `this is not json at all`},
		{"unknown type", `{"version":"1.0","type":"mystery"}`},
		{"full missing toys", `{"version":"1.0","type":"full_backup"}`},
		{"single missing toy", `{"version":"1.0","type":"single_toy"}`},
		{"no recognizable shape", `{"version":"1.0"}`},
		{"bad base64", `{"type":"full_backup","toys":[{"id":"x","name":"T","buttons":[{"id":"b","text":"","audioBase64":"data:audio/wav;base64,!!!not-base64!!!"}]}]}`},
		{"not a data uri", `{"type":"full_backup","toys":[{"id":"x","name":"T","buttons":[{"id":"b","text":"","audioBase64":"AAAA"}]}]}`},
		{"missing base64 marker", `{"type":"full_backup","toys":[{"id":"x","name":"T","buttons":[{"id":"b","text":"","audioBase64":"data:audio/wav,AAAA"}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := asset.NewRegistry()
			c := testCodec(reg)

			_, err := c.Import([]byte(tt.data), nil)
			assert.ErrorIs(t, err, ErrFormat)
			assert.Equal(t, 0, reg.Len(), "failed import leaks no handles")
		})
	}
}

func TestImport_FailureReleasesEarlierToys(t *testing.T) {
	reg := asset.NewRegistry()
	c := testCodec(reg)

	// First toy imports cleanly and mints a handle; the second fails.
	goodPayload := "data:audio/wav;base64," + base64.StdEncoding.EncodeToString([]byte{1, 2})
	data := []byte(`{
		"type": "full_backup",
		"toys": [
			{"id": "a", "name": "Good", "buttons": [{"id": "b1", "text": "", "audioBase64": "` + goodPayload + `"}]},
			{"id": "b", "name": "Bad", "buttons": [{"id": "b2", "text": "", "audioBase64": "garbage"}]}
		]
	}`)

	_, err := c.Import(data, nil)
	require.ErrorIs(t, err, ErrFormat)
	assert.Equal(t, 0, reg.Len())
}

func TestExport_UnfetchableAssetOmitted(t *testing.T) {
	reg := asset.NewRegistry()
	c := testCodec(reg)
	state := testState(reg, []byte{1, 2, 3})
	reg.Release(state.Toys[0].Buttons[0].Sound)

	data, err := c.ExportAll(state)
	require.NoError(t, err)

	var doc document
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Empty(t, doc.Toys[0].Buttons[0].AudioBase64)
}

func TestImport_FullBackupActiveFallsBackToFirst(t *testing.T) {
	reg := asset.NewRegistry()
	c := testCodec(reg)

	// Active id in the file matches no toy; import repairs to the first.
	data := []byte(`{
		"type": "full_backup",
		"activeToyId": "gone",
		"toys": [
			{"id": "a", "name": "One", "buttons": []},
			{"id": "b", "name": "Two", "buttons": []}
		]
	}`)

	got, err := c.Import(data, nil)
	require.NoError(t, err)
	require.Len(t, got.Toys, 2)
	assert.Equal(t, got.Toys[0].ID, got.ActiveToyID)
}
