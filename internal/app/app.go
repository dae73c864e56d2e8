// Package app wires the configured storage, story, engine and editor into a
// runnable terminal application.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tatianab/mystic-stories/internal/authoring"
	"github.com/tatianab/mystic-stories/internal/config"
	"github.com/tatianab/mystic-stories/internal/drafter"
	"github.com/tatianab/mystic-stories/internal/engine"
	"github.com/tatianab/mystic-stories/internal/notify"
	"github.com/tatianab/mystic-stories/internal/storage"
	"github.com/tatianab/mystic-stories/internal/story"
	"github.com/tatianab/mystic-stories/internal/tui"
)

// App is a fully wired application.
type App struct {
	Engine *engine.Engine
	Panel  *authoring.Panel
	Toasts *notify.Center
	Logger *slog.Logger

	closers []io.Closer
	gemini  *drafter.Gemini
}

// New builds the application described by cfg. The caller must call Close.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	logger, err := a.openLogger(cfg)
	if err != nil {
		return nil, err
	}
	a.Logger = logger

	persister, err := a.openPersister(cfg)
	if err != nil {
		a.Close()
		return nil, err
	}

	store := story.NewStore(persister, logger)
	a.Engine = engine.NewEngine(store)
	a.Toasts = notify.NewCenter()

	opts := []authoring.Option{authoring.WithPDFFont(cfg.PDFFont)}
	if cfg.GeminiAPIKey != "" {
		g, err := drafter.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			// Drafting is optional; the rest of the editor still works.
			logger.Warn("scene drafting disabled", "err", err)
		} else {
			a.gemini = g
			opts = append(opts, authoring.WithDrafter(g))
		}
	}
	a.Panel = authoring.NewPanel(a.Engine, store, a.Toasts, opts...)

	logger.Info("mystic stories ready",
		"storage", cfg.Storage,
		"save_dir", cfg.SaveDir,
		"drafting", a.gemini != nil,
	)
	return a, nil
}

// Run blocks in the terminal UI until the player quits.
func (a *App) Run() error {
	return tui.Run(a.Engine, a.Panel, a.Toasts)
}

// Close releases the drafter, the storage backend and the log file.
func (a *App) Close() {
	if a.gemini != nil {
		a.gemini.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i].Close()
	}
}

// openLogger writes logs to the configured file, since the terminal belongs
// to the UI.
func (a *App) openLogger(cfg *config.Config) (*slog.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, fmt.Errorf("app: create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("app: open log file: %w", err)
	}
	a.closers = append(a.closers, f)
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)
	return logger, nil
}

func (a *App) openPersister(cfg *config.Config) (storage.Persister, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return storage.NewMemoryStore(), nil
	case config.StorageSQLite:
		db, err := storage.OpenSQLite(cfg.SQLitePath())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db)
		return db, nil
	default:
		return storage.NewFileStore(cfg.SaveDir), nil
	}
}
