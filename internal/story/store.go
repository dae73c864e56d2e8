// Package story owns the authoritative story document and its persistence.
package story

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tatianab/mystic-stories/internal/models"
	"github.com/tatianab/mystic-stories/internal/storage"
	"gopkg.in/yaml.v3"
)

//go:embed default_story.yaml
var defaultStoryYAML []byte

var defaultStory = mustDecodeDefault(defaultStoryYAML)

func mustDecodeDefault(data []byte) *models.StoryDocument {
	var doc models.StoryDocument
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		panic(fmt.Sprintf("story: decode bundled default story: %v", err))
	}
	if doc.Nodes == nil {
		panic("story: bundled default story has no nodes")
	}
	return &doc
}

// Default returns a fresh deep copy of the bundled default story.
func Default() *models.StoryDocument {
	return defaultStory.Clone()
}

// Store holds the current story document and saves every replacement through
// a [storage.Persister].
type Store struct {
	persister storage.Persister
	logger    *slog.Logger
	doc       *models.StoryDocument
}

// NewStore creates a store and loads the current document from p.
func NewStore(p storage.Persister, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{persister: p, logger: logger}
	s.doc = s.Load()
	return s
}

// Load returns the persisted document when one exists and parses, otherwise a
// copy of the default story. Failures are logged, never returned.
func (s *Store) Load() *models.StoryDocument {
	data, err := s.persister.Load()
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn("failed to read saved story, using default", "err", err)
		}
		return Default()
	}
	doc, err := models.ParseDocument(data)
	if err != nil {
		s.logger.Warn("failed to parse saved story, using default", "err", err)
		return Default()
	}
	return doc
}

// Document returns the authoritative document. Callers must not mutate it.
func (s *Store) Document() *models.StoryDocument {
	return s.doc
}

// Replace saves doc and makes it authoritative. A failed save is logged and
// not retried.
func (s *Store) Replace(doc *models.StoryDocument) {
	s.doc = doc
	s.save(doc)
}

// ResetToDefault saves a copy of the default story and returns it.
func (s *Store) ResetToDefault() *models.StoryDocument {
	doc := Default()
	s.save(doc)
	return doc
}

// GetNode returns the node with the given id from the current document.
func (s *Store) GetNode(id string) (models.Node, bool) {
	if s.doc == nil {
		return models.Node{}, false
	}
	n, ok := s.doc.Nodes[id]
	return n, ok
}

func (s *Store) save(doc *models.StoryDocument) {
	data, err := models.MarshalDocument(doc)
	if err != nil {
		s.logger.Error("failed to encode story", "err", err)
		return
	}
	if err := s.persister.Save(data); err != nil {
		s.logger.Error("failed to save story", "err", err)
	}
}
