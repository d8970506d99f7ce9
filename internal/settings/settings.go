package settings

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings are the user preferences shared by every window. Defaults apply
// for any key absent from the persisted file.
type Settings struct {
	AutoLaunch     bool    `yaml:"autoLaunch" json:"autoLaunch"`
	MinimizeToTray bool    `yaml:"minimizeToTray" json:"minimizeToTray"`
	OverlayEnabled bool    `yaml:"overlayEnabled" json:"overlayEnabled"`
	OverlayX       int     `yaml:"overlayX" json:"overlayX"`
	OverlayY       int     `yaml:"overlayY" json:"overlayY"`
	OverlayOpacity float64 `yaml:"overlayOpacity" json:"overlayOpacity"`
	Language       string  `yaml:"language" json:"language"`
}

func Defaults() Settings {
	return Settings{
		AutoLaunch:     false,
		MinimizeToTray: true,
		OverlayEnabled: true,
		OverlayX:       100,
		OverlayY:       100,
		OverlayOpacity: 0.9,
		Language:       "fr",
	}
}

// Store persists settings to a yaml file. Reads and writes are synchronous;
// writes are atomic (temp file + rename).
type Store struct {
	mu     sync.Mutex
	path   string
	values Settings
}

// NewStore loads the file at path, falling back to defaults when it is
// missing or unreadable. A corrupt file is logged and replaced by defaults
// rather than failing startup.
func NewStore(path string) *Store {
	s := &Store{path: path, values: Defaults()}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("settings: read %s: %v", path, err)
		}
		return s
	}
	if err := yaml.Unmarshal(data, &s.values); err != nil {
		log.Printf("settings: corrupt file %s, using defaults: %v", path, err)
		s.values = Defaults()
	}
	return s
}

// Get returns a copy of the current settings.
func (s *Store) Get() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values
}

// Update applies a partial patch keyed by the settings' json names and
// persists the result. Unknown keys and mistyped values are rejected before
// anything is applied.
func (s *Store) Update(patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.values
	for key, value := range patch {
		if err := applyField(&next, key, value); err != nil {
			return err
		}
	}

	if err := s.save(next); err != nil {
		return err
	}
	s.values = next
	return nil
}

func applyField(dst *Settings, key string, value any) error {
	switch key {
	case "autoLaunch":
		return setBool(&dst.AutoLaunch, key, value)
	case "minimizeToTray":
		return setBool(&dst.MinimizeToTray, key, value)
	case "overlayEnabled":
		return setBool(&dst.OverlayEnabled, key, value)
	case "overlayX":
		return setInt(&dst.OverlayX, key, value)
	case "overlayY":
		return setInt(&dst.OverlayY, key, value)
	case "overlayOpacity":
		f, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("settings: %s: expected number, got %T", key, value)
		}
		dst.OverlayOpacity = f
		return nil
	case "language":
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("settings: %s: expected string, got %T", key, value)
		}
		dst.Language = v
		return nil
	default:
		return fmt.Errorf("settings: unknown key %q", key)
	}
}

func setBool(dst *bool, key string, value any) error {
	v, ok := value.(bool)
	if !ok {
		return fmt.Errorf("settings: %s: expected bool, got %T", key, value)
	}
	*dst = v
	return nil
}

func setInt(dst *int, key string, value any) error {
	f, ok := toFloat(value)
	if !ok {
		return fmt.Errorf("settings: %s: expected number, got %T", key, value)
	}
	*dst = int(f)
	return nil
}

// toFloat accepts the numeric types a JSON or yaml decode can produce.
func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func (s *Store) save(values Settings) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
