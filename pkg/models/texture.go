package models

import (
	"fmt"
	"strings"
)

// TextureClass is one of the six soil texture classes the classifier knows.
// The numeric value is the canonical order used for probability vectors and
// tie-breaking.
type TextureClass int

const (
	ClayLoam TextureClass = iota
	Loam
	SandyLoam
	LoamySand
	Clay
	SandyClayLoam

	// NumTextureClasses is the size of the enumeration.
	NumTextureClasses = 6
)

type textureNames struct {
	name  string // dataset label, e.g. "Clay loam"
	code  string // machine identifier, e.g. "clay_loam"
	label string // bilingual display label
}

var textureTable = [NumTextureClasses]textureNames{
	ClayLoam:      {name: "Clay loam", code: "clay_loam", label: "Limon argileux - Clay loam"},
	Loam:          {name: "Loam", code: "loam", label: "Limon - Loam"},
	SandyLoam:     {name: "Sandy loam", code: "sandy_loam", label: "Limon sableux - Sandy loam"},
	LoamySand:     {name: "Loamy sand", code: "loamy_sand", label: "Sable limoneux - Loamy sand"},
	Clay:          {name: "Clay", code: "clay", label: "Argile - Clay"},
	SandyClayLoam: {name: "Sandy clay loam", code: "sandy_clay_loam", label: "Limon argilo-sableux - Sandy clay loam"},
}

// AllTextureClasses returns every class in canonical order.
func AllTextureClasses() []TextureClass {
	classes := make([]TextureClass, NumTextureClasses)
	for i := range classes {
		classes[i] = TextureClass(i)
	}
	return classes
}

// Valid reports whether t is a member of the enumeration.
func (t TextureClass) Valid() bool {
	return t >= 0 && t < NumTextureClasses
}

// String returns the English texture name as it appears in the dataset.
func (t TextureClass) String() string {
	if !t.Valid() {
		return fmt.Sprintf("TextureClass(%d)", int(t))
	}
	return textureTable[t].name
}

// Code returns the snake_case identifier used on the API.
func (t TextureClass) Code() string {
	if !t.Valid() {
		return ""
	}
	return textureTable[t].code
}

// Label returns the French/English display label.
func (t TextureClass) Label() string {
	if !t.Valid() {
		return ""
	}
	return textureTable[t].label
}

// MarshalText encodes the class as its code.
func (t TextureClass) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid texture class: %d", int(t))
	}
	return []byte(t.Code()), nil
}

// UnmarshalText accepts anything ParseTextureClass accepts.
func (t *TextureClass) UnmarshalText(text []byte) error {
	parsed, err := ParseTextureClass(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TextureFromLabel translates a raw dataset label into a TextureClass.
// Matching is exact after trimming surrounding whitespace.
func TextureFromLabel(raw string) (TextureClass, bool) {
	raw = strings.TrimSpace(raw)
	for i, names := range textureTable {
		if names.name == raw {
			return TextureClass(i), true
		}
	}
	return 0, false
}

// ParseTextureClass is the lenient parser for user input. It accepts the
// dataset name, the code or the display label, case-insensitively, with
// '-', '_' and spaces treated alike.
func ParseTextureClass(s string) (TextureClass, error) {
	key := normalizeTextureKey(s)
	for i, names := range textureTable {
		if key == normalizeTextureKey(names.name) ||
			key == normalizeTextureKey(names.code) ||
			strings.EqualFold(strings.TrimSpace(s), names.label) {
			return TextureClass(i), nil
		}
	}
	return 0, fmt.Errorf("unknown texture class: %q", s)
}

func normalizeTextureKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("_", " ", "-", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func init() {
	for i, names := range textureTable {
		if names.name == "" || names.code == "" || names.label == "" {
			panic(fmt.Sprintf("texture class %d has no names", i))
		}
	}
}
