package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultSaveDir is where saves go when no directory is configured.
const DefaultSaveDir = ".saves"

// FileStore keeps the story as a JSON file inside a save directory.
type FileStore struct {
	Dir string
}

// NewFileStore returns a store writing under dir.
func NewFileStore(dir string) *FileStore {
	if dir == "" {
		dir = DefaultSaveDir
	}
	return &FileStore{Dir: dir}
}

// Path is the file holding the story.
func (f *FileStore) Path() string {
	return filepath.Join(f.Dir, StoryKey+".json")
}

func (f *FileStore) Load() ([]byte, error) {
	data, err := os.ReadFile(f.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read %q: %w", f.Path(), err)
	}
	return data, nil
}

func (f *FileStore) Save(data []byte) error {
	if err := os.MkdirAll(f.Dir, 0755); err != nil {
		return fmt.Errorf("storage: create %q: %w", f.Dir, err)
	}

	// Write to a temp file and rename it into place.
	tmp, err := os.CreateTemp(f.Dir, StoryKey+".*.tmp")
	if err != nil {
		return fmt.Errorf("storage: create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("storage: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("storage: close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.Path()); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("storage: replace %q: %w", f.Path(), err)
	}
	return nil
}
