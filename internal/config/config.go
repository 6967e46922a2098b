// Package config holds the persisted product settings. The file is plain
// JSON read and written through viper, so the same keys can also arrive via
// CLIPBRIDGE_* env vars or flags on the serve command.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"go.klb.dev/clipbridge/internal/history"
)

// Settings is the persisted key/value surface. refresh_interval and
// auto_start drive the browser frontend and are informational to the daemon
// itself; the rest are consumed by serve.
type Settings struct {
	AutoStart       bool `mapstructure:"auto_start" json:"auto_start"`
	RefreshInterval int  `mapstructure:"refresh_interval" json:"refresh_interval"`
	MaxHistory      int  `mapstructure:"max_history" json:"max_history"`
	Port            int  `mapstructure:"port" json:"port"`
	EnableHistory   bool `mapstructure:"enable_history" json:"enable_history"`
	MonitorInterval int  `mapstructure:"monitor_interval" json:"monitor_interval"`
}

// Defaults mirrors the shipped settings file.
func Defaults() Settings {
	return Settings{
		AutoStart:       true,
		RefreshInterval: 3,
		MaxHistory:      20,
		Port:            8765,
		EnableHistory:   false,
		MonitorInterval: 2,
	}
}

// settingsKeys are the keys accepted on save; anything else in an update is
// dropped silently so a stray frontend field can't pollute the file.
var settingsKeys = map[string]bool{
	"auto_start":       true,
	"refresh_interval": true,
	"max_history":      true,
	"port":             true,
	"enable_history":   true,
	"monitor_interval": true,
}

// DefaultPath returns the conventional settings file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "clipbridge-settings.json")
	}
	return filepath.Join(home, ".config", "clipbridge", "settings.json")
}

// Store loads and saves the settings file. Safe for concurrent use; the
// settings API handlers and the serve startup path share one instance.
type Store struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
}

// NewStore returns a store bound to path. The file need not exist yet;
// missing keys fall back to defaults.
func NewStore(path string) *Store {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	d := Defaults()
	v.SetDefault("auto_start", d.AutoStart)
	v.SetDefault("refresh_interval", d.RefreshInterval)
	v.SetDefault("max_history", d.MaxHistory)
	v.SetDefault("port", d.Port)
	v.SetDefault("enable_history", d.EnableHistory)
	v.SetDefault("monitor_interval", d.MonitorInterval)

	return &Store{v: v, path: path}
}

// Load reads the file (if present) and returns the merged settings.
// A malformed file is logged and treated as absent.
func (s *Store) Load() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.v.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		slog.Warn("settings file unreadable, using defaults", "path", s.path, "err", err)
	}
	return s.currentLocked()
}

// Current returns the in-memory settings without re-reading the file.
func (s *Store) Current() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

func (s *Store) currentLocked() Settings {
	var out Settings
	if err := s.v.Unmarshal(&out); err != nil {
		slog.Warn("settings unmarshal failed, using defaults", "err", err)
		return Defaults()
	}
	return sanitize(out)
}

// Save merges the recognised keys from updates and persists the file.
func (s *Store) Save(updates map[string]any) (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, val := range updates {
		if settingsKeys[k] {
			s.v.Set(k, val)
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return s.currentLocked(), fmt.Errorf("settings dir: %w", err)
	}
	if err := s.v.WriteConfigAs(s.path); err != nil {
		return s.currentLocked(), fmt.Errorf("write settings: %w", err)
	}
	return s.currentLocked(), nil
}

// sanitize keeps persisted garbage from propagating into running components.
func sanitize(in Settings) Settings {
	d := Defaults()
	if in.Port <= 0 || in.Port > 65535 {
		in.Port = d.Port
	}
	if in.MaxHistory <= 0 {
		in.MaxHistory = d.MaxHistory
	}
	if in.MaxHistory > history.DefaultCapacity {
		in.MaxHistory = history.DefaultCapacity
	}
	if in.MonitorInterval <= 0 {
		in.MonitorInterval = d.MonitorInterval
	}
	if in.RefreshInterval <= 0 {
		in.RefreshInterval = d.RefreshInterval
	}
	return in
}
