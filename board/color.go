package board

import (
	"encoding/json"
)

// Palette identifies one of the fixed named button colors.
type Palette string

// The fixed color palette. Buttons and toy cases may use these names or an
// arbitrary custom value; both shapes survive serialization unchanged.
const (
	PaletteRed    Palette = "red"
	PaletteOrange Palette = "orange"
	PaletteYellow Palette = "yellow"
	PaletteGreen  Palette = "green"
	PaletteBlue   Palette = "blue"
	PalettePurple Palette = "purple"
	PalettePink   Palette = "pink"
	PaletteWhite  Palette = "white"
	PaletteBlack  Palette = "black"
	PaletteGray   Palette = "gray"
)

var paletteNames = map[Palette]bool{
	PaletteRed:    true,
	PaletteOrange: true,
	PaletteYellow: true,
	PaletteGreen:  true,
	PaletteBlue:   true,
	PalettePurple: true,
	PalettePink:   true,
	PaletteWhite:  true,
	PaletteBlack:  true,
	PaletteGray:   true,
}

// Valid reports whether p is one of the fixed palette names.
func (p Palette) Valid() bool {
	return paletteNames[p]
}

// Color is a tagged variant: either a named palette entry or an arbitrary
// custom value such as a hex triplet. The variant is resolved once when the
// value enters the data model (ParseColor, UnmarshalJSON) so downstream code
// never re-checks the raw string.
type Color struct {
	Name   Palette
	Custom string
}

// NamedColor returns a Color for a fixed palette entry.
func NamedColor(p Palette) Color {
	return Color{Name: p}
}

// CustomColor returns a Color carrying an arbitrary value.
func CustomColor(value string) Color {
	return Color{Custom: value}
}

// ParseColor resolves a raw color string into the tagged variant. Known
// palette names become Named colors; everything else is carried as Custom.
func ParseColor(value string) Color {
	if p := Palette(value); p.Valid() {
		return NamedColor(p)
	}
	return CustomColor(value)
}

// IsNamed reports whether the color is a fixed palette entry.
func (c Color) IsNamed() bool {
	return c.Name != ""
}

// IsZero reports whether the color carries no value at all.
func (c Color) IsZero() bool {
	return c.Name == "" && c.Custom == ""
}

// String returns the raw color value: the palette name or the custom value.
func (c Color) String() string {
	if c.IsNamed() {
		return string(c.Name)
	}
	return c.Custom
}

// MarshalJSON encodes the color as its plain string value.
func (c Color) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a plain string value and resolves the variant.
func (c *Color) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*c = ParseColor(value)
	return nil
}

// DefaultButtonColor is the color assigned to freshly created buttons.
var DefaultButtonColor = NamedColor(PaletteBlue)

// DefaultCaseColor is the case color for freshly created toys.
var DefaultCaseColor = NamedColor(PaletteGray)
