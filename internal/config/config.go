package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for a kanri workspace directory.
type Config struct {
	Version int     `yaml:"version"`
	Data    Data    `yaml:"data"`
	Undo    Undo    `yaml:"undo,omitempty"`
	Toasts  Toasts  `yaml:"toasts,omitempty"`
	Board   Board   `yaml:"board,omitempty"`
	Logging Logging `yaml:"logging,omitempty"`
}

// Data selects the persistence backend.
type Data struct {
	Backend        string `yaml:"backend"`                   // "sqlite" or "memory"
	Path           string `yaml:"path,omitempty"`            // database file for sqlite
	AttachmentsDir string `yaml:"attachments_dir,omitempty"` // blob storage root
}

// Undo tunes the soft-delete grace window.
type Undo struct {
	GraceMS  int `yaml:"grace_ms,omitempty"`  // 0 = default 5000
	BufferMS int `yaml:"buffer_ms,omitempty"` // 0 = default 200
}

// Toasts tunes the message queue.
type Toasts struct {
	DurationMS int `yaml:"duration_ms,omitempty"` // 0 = default 3000
}

// Board remembers the last opened project for the TUI.
type Board struct {
	DefaultProject string `yaml:"default_project,omitempty"`
}

// Logging selects the zap preset.
type Logging struct {
	Level string `yaml:"level,omitempty"` // debug, info, warn, error
	File  string `yaml:"file,omitempty"`  // empty = stderr
}

// Grace returns the undo grace window as a duration.
func (u Undo) Grace() time.Duration {
	if u.GraceMS <= 0 {
		return 5 * time.Second
	}
	return time.Duration(u.GraceMS) * time.Millisecond
}

// Buffer returns the commit-timer slack beyond the grace window.
func (u Undo) Buffer() time.Duration {
	if u.BufferMS <= 0 {
		return 200 * time.Millisecond
	}
	return time.Duration(u.BufferMS) * time.Millisecond
}

// Duration returns how long a toast stays visible.
func (t Toasts) Duration() time.Duration {
	if t.DurationMS <= 0 {
		return 3 * time.Second
	}
	return time.Duration(t.DurationMS) * time.Millisecond
}

// Load reads and parses the config file at the given path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the config to the given path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns a starter config rooted at dir.
func DefaultConfig(dir string) *Config {
	return &Config{
		Version: 1,
		Data: Data{
			Backend:        "sqlite",
			Path:           filepath.Join(dir, "kanri.db"),
			AttachmentsDir: filepath.Join(dir, "attachments"),
		},
		Logging: Logging{Level: "warn"},
	}
}

func (c *Config) validate() error {
	switch c.Data.Backend {
	case "sqlite":
		if c.Data.Path == "" {
			return fmt.Errorf("data: path is required for the sqlite backend")
		}
	case "memory":
	case "":
		return fmt.Errorf("data: backend is required (sqlite or memory)")
	default:
		return fmt.Errorf("data: backend must be 'sqlite' or 'memory', got %q", c.Data.Backend)
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging: unknown level %q", c.Logging.Level)
	}
	return nil
}
