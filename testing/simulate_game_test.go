package main

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tatianab/mystic-stories/internal/engine"
	"github.com/tatianab/mystic-stories/internal/models"
	"github.com/tatianab/mystic-stories/internal/storage"
	"github.com/tatianab/mystic-stories/internal/story"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	store := story.NewStore(storage.NewMemoryStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	return engine.NewEngine(store)
}

func TestSimulateDefaultStory(t *testing.T) {
	eng := newEngine(t)
	r := simulate(eng, defaultMaxDepth, defaultMaxPaths)

	want := []string{"amulet_defense", "escape", "fight_shadow", "ritual_support", "star_room"}
	if diff := cmp.Diff(want, sortedKeys(r.Endings)); diff != "" {
		t.Errorf("reachable endings mismatch (-want +got):\n%s", diff)
	}
	if _, ok := r.Missing["light_path"]; !ok {
		t.Errorf("Missing = %v, want light_path", r.Missing)
	}
	if len(r.DeadEnds) != 0 {
		t.Errorf("DeadEnds = %v, want none", r.DeadEnds)
	}
	if got := r.unvisited(eng.Story()); len(got) != 0 {
		t.Errorf("unvisited = %v, want none", got)
	}
	if got := eng.CurrentNode(); got != "prologue" {
		t.Errorf("engine left at %q, want prologue", got)
	}

	var out bytes.Buffer
	printReport(&out, eng.Story(), r)
	for _, s := range []string{"star_room (mystic)", "Missing scenes:", "light_path"} {
		if !strings.Contains(out.String(), s) {
			t.Errorf("report missing %q:\n%s", s, out.String())
		}
	}
}

func TestSimulateDeadEndsAndDepth(t *testing.T) {
	doc, err := models.ParseDocument([]byte(`{
  "start": "a",
  "nodes": {
    "a": {"id": "a", "text": "A", "options": [
      {"text": "loop", "next": "a"},
      {"text": "locked", "next": "b", "requires": {"flags": {"key": true}}},
      {"text": "stuck", "next": "c"}
    ]},
    "b": {"id": "b", "text": "B", "ending": {"type": "good"}},
    "c": {"id": "c", "text": "C", "options": []}
  }
}`))
	if err != nil {
		t.Fatalf("ParseDocument: %v", err)
	}
	eng := newEngine(t)
	if err := eng.SetStory(doc); err != nil {
		t.Fatalf("SetStory: %v", err)
	}

	r := simulate(eng, 3, defaultMaxPaths)
	if r.DeadEnds["c"] == 0 {
		t.Errorf("DeadEnds = %v, want c", r.DeadEnds)
	}
	if r.Truncated != 1 {
		t.Errorf("Truncated = %d, want 1", r.Truncated)
	}
	if len(r.Endings) != 0 {
		t.Errorf("Endings = %v, want none", r.Endings)
	}
	if diff := cmp.Diff([]string{"b"}, r.unvisited(doc)); diff != "" {
		t.Errorf("unvisited mismatch (-want +got):\n%s", diff)
	}
}
