package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config holds the application configuration.
type Config struct {
	SaveDir      string
	Storage      string
	LogLevel     slog.Level
	LogFile      string
	PDFFont      string
	GeminiAPIKey string
	GeminiModel  string
}

// LoadConfig loads the configuration from environment variables. Values in a
// .env file in the working directory are used when not already set.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		SaveDir:      getenv("NOVEL_SAVE_DIR"),
		Storage:      strings.ToLower(getenv("NOVEL_STORAGE")),
		LogFile:      getenv("NOVEL_LOG_FILE"),
		PDFFont:      getenv("NOVEL_PDF_FONT"),
		GeminiAPIKey: getenv("GEMINI_API_KEY"),
		GeminiModel:  getenv("NOVEL_GEMINI_MODEL"),
	}
	if cfg.SaveDir == "" {
		cfg.SaveDir = ".saves"
	}
	if cfg.Storage == "" {
		cfg.Storage = StorageFile
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.SaveDir, "novel.log")
	}
	if cfg.GeminiModel == "" {
		cfg.GeminiModel = "gemini-2.5-flash"
	}

	var errs []error
	switch cfg.Storage {
	case StorageFile, StorageSQLite, StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("NOVEL_STORAGE %q is invalid; valid values: file, sqlite, memory", cfg.Storage))
	}
	if lvl := getenv("NOVEL_LOG_LEVEL"); lvl != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			errs = append(errs, fmt.Errorf("NOVEL_LOG_LEVEL %q is invalid; valid values: debug, info, warn, error", lvl))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// SQLitePath is the database file used by the sqlite backend.
func (c *Config) SQLitePath() string {
	return filepath.Join(c.SaveDir, "stories.db")
}
