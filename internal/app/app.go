// Package app wires the session graph: persistence client, toast queue,
// undo coordinator, event bus and the three entity stores. The CLI and TUI
// both run on top of one App.
package app

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"kanri/internal/bus"
	"kanri/internal/config"
	"kanri/internal/remote"
	"kanri/internal/store"
	"kanri/internal/toast"
)

// App is one running session.
type App struct {
	Config *config.Config
	Log    *zap.Logger

	Remote remote.Client
	Blobs  *remote.DirBlobStore
	Bus    *bus.Bus
	Toasts *toast.Service
	Undo   *store.UndoCoordinator

	Tasks    *store.TaskStore
	Projects *store.ProjectStore
	Jobs     *store.JobHuntStore

	closer io.Closer
}

// New builds a session from config.
func New(cfg *config.Config) (*App, error) {
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}

	var client remote.Client
	var closer io.Closer
	switch cfg.Data.Backend {
	case "memory":
		client = remote.NewMemory()
	default:
		sqlite, err := remote.OpenSQLite(cfg.Data.Path)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		client = sqlite
		closer = sqlite
	}

	var blobs *remote.DirBlobStore
	if cfg.Data.AttachmentsDir != "" {
		blobs, err = remote.NewDirBlobStore(cfg.Data.AttachmentsDir)
		if err != nil {
			return nil, err
		}
	}

	toasts := toast.NewService()
	undo := store.NewUndoCoordinator(toasts, cfg.Undo.Grace(), cfg.Undo.Buffer())
	b := bus.New()

	a := &App{
		Config:   cfg,
		Log:      log,
		Remote:   client,
		Blobs:    blobs,
		Bus:      b,
		Toasts:   toasts,
		Undo:     undo,
		Tasks:    store.NewTaskStore(client, toasts, undo, log),
		Projects: store.NewProjectStore(client, toasts, undo, b, log),
		Jobs:     store.NewJobHuntStore(client, toasts, undo, log),
		closer:   closer,
	}
	a.Tasks.SetStatusLookup(a.Projects.StatusByID, a.Projects.DefaultStatus)
	a.Tasks.BindBus(b)
	return a, nil
}

// FetchAll loads every store from the backend.
func (a *App) FetchAll(ctx context.Context) error {
	if err := a.Projects.FetchAll(ctx); err != nil {
		return err
	}
	if err := a.Tasks.FetchAll(ctx); err != nil {
		return err
	}
	return a.Jobs.FetchAll(ctx)
}

// Close drains in-flight work and shuts the session down. Pending undo
// windows are committed immediately so a one-shot invocation cannot lose an
// archive.
func (a *App) Close() error {
	a.Undo.Flush()
	a.Undo.Wait()
	a.Tasks.Wait()
	a.Jobs.Wait()
	_ = a.Log.Sync()
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// newLogger builds a zap logger per the config. The production preset with
// console encoding keeps one-shot CLI output readable.
func newLogger(cfg config.Logging) (*zap.Logger, error) {
	level := zapcore.WarnLevel
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.Encoding = "console"
	zcfg.DisableStacktrace = true
	if cfg.File != "" {
		zcfg.OutputPaths = []string{cfg.File}
		zcfg.ErrorOutputPaths = []string{cfg.File}
	}
	log, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log, nil
}
