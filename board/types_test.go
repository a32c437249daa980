package board

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToy_AddButton_Defaults(t *testing.T) {
	toy := NewToy("test")

	b := toy.AddButton()

	require.Len(t, toy.Buttons, 1)
	assert.NotEmpty(t, b.ID)
	assert.Empty(t, b.Text)
	assert.Equal(t, DefaultButtonColor, b.Color)
	assert.Empty(t, b.Sound)
	assert.Empty(t, b.Image)
}

func TestToy_DuplicateButton(t *testing.T) {
	toy := NewToy("test")
	first := toy.AddButton()
	first.Text = "boing"
	first.Color = CustomColor("#a1b2c3")
	last := toy.AddButton()

	dup, err := toy.DuplicateButton(first.ID)

	require.NoError(t, err)
	require.Len(t, toy.Buttons, 3)
	// Copy lands right after the original, before the old tail.
	assert.Equal(t, []*Button{first, dup, last}, toy.Buttons)
	assert.NotEqual(t, first.ID, dup.ID)
	assert.Equal(t, first.Text, dup.Text)
	assert.Equal(t, first.Color, dup.Color)

	_, err = toy.DuplicateButton("missing")
	assert.ErrorIs(t, err, ErrButtonNotFound)
}

func TestToy_RemoveButton(t *testing.T) {
	toy := NewToy("test")
	a := toy.AddButton()
	b := toy.AddButton()

	removed, err := toy.RemoveButton(a.ID)

	require.NoError(t, err)
	assert.Equal(t, a, removed)
	assert.Equal(t, []*Button{b}, toy.Buttons)

	_, err = toy.RemoveButton(a.ID)
	assert.ErrorIs(t, err, ErrButtonNotFound)
}

func TestToy_MoveButton(t *testing.T) {
	order := func(toy *Toy) []string {
		out := make([]string, len(toy.Buttons))
		for i, b := range toy.Buttons {
			out[i] = b.Text
		}
		return out
	}

	build := func() *Toy {
		toy := NewToy("test")
		for _, name := range []string{"a", "b", "c"} {
			toy.AddButton().Text = name
		}
		return toy
	}

	t.Run("move first to last", func(t *testing.T) {
		toy := build()
		require.NoError(t, toy.MoveButton(toy.Buttons[0].ID, 2))
		assert.Equal(t, []string{"b", "c", "a"}, order(toy))
	})

	t.Run("move last to first", func(t *testing.T) {
		toy := build()
		require.NoError(t, toy.MoveButton(toy.Buttons[2].ID, 0))
		assert.Equal(t, []string{"c", "a", "b"}, order(toy))
	})

	t.Run("out of range", func(t *testing.T) {
		toy := build()
		assert.ErrorIs(t, toy.MoveButton(toy.Buttons[0].ID, 3), ErrInvalidPosition)
		assert.ErrorIs(t, toy.MoveButton(toy.Buttons[0].ID, -1), ErrInvalidPosition)
	})

	t.Run("unknown button", func(t *testing.T) {
		toy := build()
		assert.ErrorIs(t, toy.MoveButton("missing", 0), ErrButtonNotFound)
	})
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		wantNamed bool
	}{
		{name: "palette name", value: "red", wantNamed: true},
		{name: "another palette name", value: "gray", wantNamed: true},
		{name: "hex triplet", value: "#ff8800", wantNamed: false},
		{name: "arbitrary string", value: "rebeccapurple", wantNamed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ParseColor(tt.value)
			assert.Equal(t, tt.wantNamed, c.IsNamed())
			assert.Equal(t, tt.value, c.String())
		})
	}
}

func TestColor_JSONRoundTrip(t *testing.T) {
	for _, value := range []string{"blue", "#123456"} {
		data, err := json.Marshal(ParseColor(value))
		require.NoError(t, err)
		assert.JSONEq(t, `"`+value+`"`, string(data))

		var back Color
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, ParseColor(value), back)
	}
}
