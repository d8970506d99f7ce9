package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMissingFileYieldsDefaults(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "settings.yaml"))

	if got := s.Get(); got != Defaults() {
		t.Errorf("Get() = %+v, want defaults %+v", got, Defaults())
	}
}

func TestCorruptFileYieldsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("{not yaml::"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := NewStore(path)
	if got := s.Get(); got != Defaults() {
		t.Errorf("Get() = %+v, want defaults", got)
	}
}

func TestUpdatePersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s := NewStore(path)

	err := s.Update(map[string]any{
		"overlayEnabled": false,
		"overlayOpacity": 0.5,
		"language":       "en",
		"overlayX":       float64(300), // JSON numbers decode as float64
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	reloaded := NewStore(path).Get()
	if reloaded.OverlayEnabled {
		t.Error("overlayEnabled should be false after reload")
	}
	if reloaded.OverlayOpacity != 0.5 {
		t.Errorf("overlayOpacity = %v, want 0.5", reloaded.OverlayOpacity)
	}
	if reloaded.Language != "en" {
		t.Errorf("language = %q, want en", reloaded.Language)
	}
	if reloaded.OverlayX != 300 {
		t.Errorf("overlayX = %d, want 300", reloaded.OverlayX)
	}
	// Untouched keys keep their defaults.
	if !reloaded.MinimizeToTray {
		t.Error("minimizeToTray should keep its default")
	}
}

func TestUpdateRejectsBadPatches(t *testing.T) {
	tests := []struct {
		name  string
		patch map[string]any
	}{
		{"unknown key", map[string]any{"nope": true}},
		{"wrong type bool", map[string]any{"overlayEnabled": "yes"}},
		{"wrong type string", map[string]any{"language": 12}},
		{"wrong type number", map[string]any{"overlayOpacity": "high"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(filepath.Join(t.TempDir(), "settings.yaml"))
			before := s.Get()

			if err := s.Update(tt.patch); err == nil {
				t.Fatal("Update should fail")
			}
			if s.Get() != before {
				t.Error("a rejected patch must not change anything")
			}
		})
	}
}

func TestRejectedPatchIsAtomic(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "settings.yaml"))

	// One valid key plus one unknown: nothing may be applied.
	err := s.Update(map[string]any{"language": "en", "bogus": 1})
	if err == nil {
		t.Fatal("Update should fail")
	}
	if s.Get().Language != "fr" {
		t.Errorf("language = %q, want untouched default fr", s.Get().Language)
	}
}
