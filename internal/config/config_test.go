package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Valid(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "kanri.yaml")
	data := `version: 1
data:
  backend: sqlite
  path: /tmp/kanri.db
undo:
  grace_ms: 2000
  buffer_ms: 100
toasts:
  duration_ms: 1500
board:
  default_project: Engine
`
	os.WriteFile(p, []byte(data), 0644)

	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Version != 1 {
		t.Fatalf("expected version 1, got %d", cfg.Version)
	}
	if cfg.Data.Backend != "sqlite" || cfg.Data.Path != "/tmp/kanri.db" {
		t.Fatalf("data section = %+v", cfg.Data)
	}
	if cfg.Undo.Grace() != 2*time.Second {
		t.Fatalf("grace = %v", cfg.Undo.Grace())
	}
	if cfg.Undo.Buffer() != 100*time.Millisecond {
		t.Fatalf("buffer = %v", cfg.Undo.Buffer())
	}
	if cfg.Toasts.Duration() != 1500*time.Millisecond {
		t.Fatalf("toast duration = %v", cfg.Toasts.Duration())
	}
	if cfg.Board.DefaultProject != "Engine" {
		t.Fatalf("default project = %q", cfg.Board.DefaultProject)
	}
}

func TestLoad_MemoryBackendNeedsNoPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "kanri.yaml")
	os.WriteFile(p, []byte("version: 1\ndata:\n  backend: memory\n"), 0644)

	if _, err := Load(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_MissingBackend(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "kanri.yaml")
	os.WriteFile(p, []byte("version: 1\n"), 0644)

	if _, err := Load(p); err == nil {
		t.Fatal("expected validation error for missing backend")
	}
}

func TestLoad_SQLiteWithoutPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "kanri.yaml")
	os.WriteFile(p, []byte("version: 1\ndata:\n  backend: sqlite\n"), 0644)

	if _, err := Load(p); err == nil {
		t.Fatal("expected validation error for sqlite without path")
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "kanri.yaml")
	os.WriteFile(p, []byte("version: 1\ndata:\n  backend: dynamo\n"), 0644)

	if _, err := Load(p); err == nil {
		t.Fatal("expected validation error for unknown backend")
	}
}

func TestLoad_UnknownLogLevel(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "kanri.yaml")
	os.WriteFile(p, []byte("version: 1\ndata:\n  backend: memory\nlogging:\n  level: loud\n"), 0644)

	if _, err := Load(p); err == nil {
		t.Fatal("expected validation error for unknown log level")
	}
}

func TestLoad_FileNotFound(t *testing.T) {
	if _, err := Load("/nonexistent/path/kanri.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSave_And_Reload(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "kanri.yaml")

	cfg := DefaultConfig(dir)
	cfg.Undo.GraceMS = 2500

	if err := Save(p, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(p)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if loaded.Data.Path != filepath.Join(dir, "kanri.db") {
		t.Fatalf("path lost after round-trip: %q", loaded.Data.Path)
	}
	if loaded.Undo.GraceMS != 2500 {
		t.Fatalf("grace lost after round-trip: %d", loaded.Undo.GraceMS)
	}
}

func TestDurationDefaults(t *testing.T) {
	var u Undo
	if u.Grace() != 5*time.Second {
		t.Fatalf("default grace = %v", u.Grace())
	}
	if u.Buffer() != 200*time.Millisecond {
		t.Fatalf("default buffer = %v", u.Buffer())
	}
	var toasts Toasts
	if toasts.Duration() != 3*time.Second {
		t.Fatalf("default toast duration = %v", toasts.Duration())
	}
}
