package models

import (
	"encoding/json"
	"testing"
)

func TestTextureClassNames(t *testing.T) {
	classes := AllTextureClasses()
	if len(classes) != NumTextureClasses {
		t.Fatalf("expected %d classes, got %d", NumTextureClasses, len(classes))
	}

	seen := make(map[string]bool)
	for i, c := range classes {
		if int(c) != i {
			t.Errorf("class %v out of canonical order at %d", c, i)
		}
		if !c.Valid() {
			t.Errorf("class %d reported invalid", i)
		}
		if seen[c.Code()] {
			t.Errorf("duplicate code %s", c.Code())
		}
		seen[c.Code()] = true
	}

	if Clay.Label() != "Argile - Clay" {
		t.Errorf("unexpected Clay label %q", Clay.Label())
	}
	if ClayLoam.String() != "Clay loam" {
		t.Errorf("unexpected ClayLoam name %q", ClayLoam.String())
	}
	if TextureClass(6).Valid() || TextureClass(-1).Valid() {
		t.Error("out of range classes reported valid")
	}
}

func TestTextureFromLabel(t *testing.T) {
	got, ok := TextureFromLabel("  Sandy clay loam ")
	if !ok || got != SandyClayLoam {
		t.Errorf("expected SandyClayLoam, got %v (ok=%v)", got, ok)
	}

	// Dataset labels are matched exactly, not leniently.
	for _, raw := range []string{"sandy clay loam", "Sand", "Silty clay", ""} {
		if _, ok := TextureFromLabel(raw); ok {
			t.Errorf("label %q should not translate", raw)
		}
	}
}

func TestParseTextureClass(t *testing.T) {
	tests := map[string]TextureClass{
		"clay_loam":     ClayLoam,
		"Clay loam":     ClayLoam,
		"CLAY-LOAM":     ClayLoam,
		"loamy sand":    LoamySand,
		"Argile - Clay": Clay,
	}
	for input, want := range tests {
		got, err := ParseTextureClass(input)
		if err != nil {
			t.Errorf("ParseTextureClass(%q) failed: %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseTextureClass(%q) = %v, want %v", input, got, want)
		}
	}

	// Full labels match case-insensitively.
	if got, err := ParseTextureClass("limon argilo-sableux - sandy clay loam"); err != nil || got != SandyClayLoam {
		t.Errorf("expected SandyClayLoam from label, got %v (%v)", got, err)
	}

	if _, err := ParseTextureClass("silt"); err == nil {
		t.Error("expected error for unknown class")
	}
}

func TestTextureClassJSON(t *testing.T) {
	data, err := json.Marshal(map[string]TextureClass{"texture": SandyLoam})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"texture":"sandy_loam"}` {
		t.Errorf("unexpected JSON %s", data)
	}

	var decoded struct {
		Texture TextureClass `json:"texture"`
	}
	if err := json.Unmarshal([]byte(`{"texture":"Loam"}`), &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Texture != Loam {
		t.Errorf("expected Loam, got %v", decoded.Texture)
	}

	if _, err := json.Marshal(TextureClass(9)); err == nil {
		t.Error("expected error marshaling invalid class")
	}
}
