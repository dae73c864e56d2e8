// Package storage holds the key-value persistence backends used to keep the
// authored story between sessions.
package storage

import (
	"errors"
	"sync"
)

// StoryKey is the key under which the current story document is kept.
const StoryKey = "mysticStories.story"

// ErrNotFound is returned by Load when nothing has been saved yet.
var ErrNotFound = errors.New("storage: nothing saved")

// Persister is a best-effort load/save hook for the serialized story.
type Persister interface {
	// Load returns the saved bytes, or [ErrNotFound] when nothing was saved.
	Load() ([]byte, error)
	// Save replaces the saved bytes.
	Save(data []byte) error
}

// MemoryStore keeps the story in memory. It is used by tests and when
// persistence is disabled.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
	ok   bool
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryStore) Save(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	m.ok = true
	return nil
}
