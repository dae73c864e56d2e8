package engine

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tatianab/mystic-stories/internal/models"
	"github.com/tatianab/mystic-stories/internal/story"
	"github.com/tatianab/mystic-stories/internal/storage"
)

func newTestEngine(t *testing.T, doc *models.StoryDocument) *Engine {
	t.Helper()
	store := story.NewStore(storage.NewMemoryStore(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	e := NewEngine(store)
	if doc != nil {
		if err := e.SetStory(doc); err != nil {
			t.Fatalf("SetStory: %v", err)
		}
	}
	return e
}

func twoNodeStory() *models.StoryDocument {
	return &models.StoryDocument{
		Metadata:         models.Metadata{Title: "Tiny"},
		InitialStats:     map[string]float64{"luck": 3, "courage": 0},
		InitialInventory: []string{"map"},
		StartNodeID:      "a",
		Nodes: map[string]models.Node{
			"a": {
				ID: "a",
				Options: []models.Option{
					{Text: "go", Next: "b", Effects: map[string]models.EffectValue{"luck": models.Number(1)}},
				},
			},
			"b": {ID: "b", Ending: &models.Ending{Type: "x", Summary: "s"}},
		},
	}
}

func boolPtr(b bool) *bool { return &b }

func TestEndToEnd(t *testing.T) {
	e := newTestEngine(t, twoNodeStory())

	node, ok := e.GetNode(e.CurrentNode())
	if !ok {
		t.Fatal("Start node missing")
	}
	e.ApplyOption(&node.Options[0])

	if e.CurrentNode() != "b" {
		t.Errorf("Expected current node b, got %q", e.CurrentNode())
	}
	if diff := cmp.Diff([]string{"a"}, e.History()); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
	if got := e.Player().Stats["luck"]; got != 4 {
		t.Errorf("Expected luck 4, got %v", got)
	}
	end, ok := e.GetNode("b")
	if !ok || !e.IsEnding(end) {
		t.Errorf("Expected b to be an ending, got %+v (found %v)", end, ok)
	}
}

func TestIsEnding(t *testing.T) {
	e := newTestEngine(t, nil)
	for id, n := range e.Story().Nodes {
		if got, want := e.IsEnding(n), n.Ending != nil; got != want {
			t.Errorf("IsEnding(%s) = %v, want %v", id, got, want)
		}
	}
}

func TestApplyNilOptionIsNoop(t *testing.T) {
	e := newTestEngine(t, twoNodeStory())
	e.ApplyOption(&models.Option{Effects: map[string]models.EffectValue{"brave": models.Flag(true)}, Inventory: []string{"+rope"}})

	before := e.Player()
	e.ApplyOption(nil)
	if diff := cmp.Diff(before, e.Player()); diff != "" {
		t.Errorf("ApplyOption(nil) changed state (-before +after):\n%s", diff)
	}
}

func TestApplyNumericEffectsAreAdditive(t *testing.T) {
	e := newTestEngine(t, twoNodeStory())
	opt := &models.Option{Effects: map[string]models.EffectValue{"courage": models.Number(1), "wit": models.Number(-2)}}

	before := e.Player().Stats["courage"]
	e.ApplyOption(opt)
	e.ApplyOption(opt)

	p := e.Player()
	if p.Stats["courage"] != before+2 {
		t.Errorf("Expected courage %v, got %v", before+2, p.Stats["courage"])
	}
	if p.Stats["wit"] != -4 {
		t.Errorf("Expected missing stat to start at 0, got wit %v", p.Stats["wit"])
	}
	if e.CurrentNode() != "a" || len(e.History()) != 0 {
		t.Errorf("Option without next must not move: at %q, history %v", e.CurrentNode(), e.History())
	}
}

func TestApplyFlagsOverwriteEffects(t *testing.T) {
	e := newTestEngine(t, twoNodeStory())
	e.ApplyOption(&models.Option{
		Effects: map[string]models.EffectValue{"brave": models.Flag(true), "seen": models.Flag(true)},
		Flags:   map[string]bool{"brave": false},
	})

	p := e.Player()
	if p.Flags["brave"] {
		t.Error("Expected flags to overwrite boolean effects")
	}
	if !p.Flags["seen"] {
		t.Error("Expected boolean effect to set flag")
	}
	if _, ok := p.Stats["brave"]; ok {
		t.Error("Boolean effect must not touch stats")
	}
}

func TestInventoryTokens(t *testing.T) {
	e := newTestEngine(t, twoNodeStory())

	add := &models.Option{Inventory: []string{"+amulet"}}
	e.ApplyOption(add)
	e.ApplyOption(add)
	if diff := cmp.Diff([]string{"map", "amulet"}, e.Player().Inventory); diff != "" {
		t.Errorf("inventory after double add (-want +got):\n%s", diff)
	}

	before := e.Player()
	e.ApplyOption(&models.Option{Inventory: []string{"-lantern", "", "?odd"}})
	if diff := cmp.Diff(before, e.Player()); diff != "" {
		t.Errorf("removing an absent item changed state (-before +after):\n%s", diff)
	}

	e.ApplyOption(&models.Option{Inventory: []string{"-amulet", "+rope"}})
	if diff := cmp.Diff([]string{"map", "rope"}, e.Player().Inventory); diff != "" {
		t.Errorf("inventory after remove (-want +got):\n%s", diff)
	}
}

func TestPhraseAlias(t *testing.T) {
	tests := []struct {
		name       string
		start      map[string]bool
		opt        models.Option
		wantPhrase bool
		wantSet    bool
	}{
		{
			name:       "flags phrase",
			opt:        models.Option{Flags: map[string]bool{"phrase": true}},
			wantPhrase: true,
			wantSet:    true,
		},
		{
			name:       "effects phrase",
			opt:        models.Option{Effects: map[string]models.EffectValue{"phrase": models.Flag(true)}},
			wantPhrase: true,
			wantSet:    true,
		},
		{
			name:       "flags phrase wins over effects phrase",
			opt:        models.Option{Effects: map[string]models.EffectValue{"phrase": models.Flag(true)}, Flags: map[string]bool{"phrase": false}},
			wantPhrase: false,
			wantSet:    true,
		},
		{
			name:       "other flags fall back to false effects phrase",
			start:      map[string]bool{"phrase": true},
			opt:        models.Option{Effects: map[string]models.EffectValue{"phrase": models.Flag(false)}, Flags: map[string]bool{"brave": true}},
			wantPhrase: false,
			wantSet:    true,
		},
		{
			name:    "other flags clear phrase",
			start:   map[string]bool{"phrase": true},
			opt:     models.Option{Flags: map[string]bool{"brave": true}},
			wantSet: false,
		},
		{
			name:    "empty flags clear phrase",
			start:   map[string]bool{"phrase": true},
			opt:     models.Option{Flags: map[string]bool{}},
			wantSet: false,
		},
		{
			name:       "numeric effects phrase",
			opt:        models.Option{Effects: map[string]models.EffectValue{"phrase": models.Number(2)}},
			wantPhrase: true,
			wantSet:    true,
		},
		{
			name:       "string effects phrase",
			opt:        models.Option{Effects: map[string]models.EffectValue{"phrase": {Raw: json.RawMessage(`"yes"`)}}},
			wantPhrase: true,
			wantSet:    true,
		},
		{
			name:       "empty string effects phrase with flags",
			start:      map[string]bool{"phrase": true},
			opt:        models.Option{Effects: map[string]models.EffectValue{"phrase": {Raw: json.RawMessage(`""`)}}, Flags: map[string]bool{}},
			wantPhrase: false,
			wantSet:    true,
		},
		{
			name:    "null effects phrase with flags clears phrase",
			start:   map[string]bool{"phrase": true},
			opt:     models.Option{Effects: map[string]models.EffectValue{"phrase": {}}, Flags: map[string]bool{}},
			wantSet: false,
		},
		{
			name:       "unrelated effects leave phrase alone",
			start:      map[string]bool{"phrase": true},
			opt:        models.Option{Effects: map[string]models.EffectValue{"luck": models.Number(1)}},
			wantPhrase: true,
			wantSet:    true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine(t, twoNodeStory())
			if tc.start != nil {
				e.ApplyOption(&models.Option{Flags: tc.start})
			}
			e.ApplyOption(&tc.opt)

			got, set := e.Player().Flags["phrase"]
			if set != tc.wantSet || got != tc.wantPhrase {
				t.Errorf("phrase = %v (set %v), want %v (set %v)", got, set, tc.wantPhrase, tc.wantSet)
			}
		})
	}
}

func TestCanUseOptionInventory(t *testing.T) {
	e := newTestEngine(t, twoNodeStory())
	opt := models.Option{Requires: &models.Requirement{Inventory: models.ItemList{"amulet"}}}

	if e.CanUseOption(opt) {
		t.Error("Expected option to be locked without the amulet")
	}
	e.ApplyOption(&models.Option{Inventory: []string{"+amulet"}})
	if !e.CanUseOption(opt) {
		t.Error("Expected option to unlock with the amulet")
	}
	e.ApplyOption(&models.Option{Inventory: []string{"-amulet"}})
	if e.CanUseOption(opt) {
		t.Error("Expected option to lock again after losing the amulet")
	}
}

func TestCanUseOptionPolicy(t *testing.T) {
	tests := []struct {
		name string
		req  *models.Requirement
		want bool
	}{
		{name: "no requirement", req: nil, want: true},
		{name: "empty requirement", req: &models.Requirement{}, want: true},
		{name: "stats met", req: &models.Requirement{Stats: map[string]float64{"courage": 2}}, want: true},
		{name: "stats not met", req: &models.Requirement{Stats: map[string]float64{"courage": 3}}, want: false},
		{name: "missing stat counts as zero", req: &models.Requirement{Stats: map[string]float64{"wit": 0}}, want: true},
		{name: "empty stats pass", req: &models.Requirement{Stats: map[string]float64{}}, want: true},
		{
			name: "stats shadow flags",
			req:  &models.Requirement{Stats: map[string]float64{"courage": 2}, Flags: map[string]bool{"brave": true}},
			want: true,
		},
		{
			name: "flags shadow phrase",
			req:  &models.Requirement{Flags: map[string]bool{"brave": false}, Phrase: boolPtr(true)},
			want: true,
		},
		{name: "flags mismatch", req: &models.Requirement{Flags: map[string]bool{"brave": true}}, want: false},
		{name: "missing flag is false", req: &models.Requirement{Flags: map[string]bool{"ghost": false}}, want: true},
		{name: "phrase required", req: &models.Requirement{Phrase: boolPtr(true)}, want: false},
		{name: "phrase absent", req: &models.Requirement{Phrase: boolPtr(false)}, want: true},
		{
			name: "inventory gates before stats",
			req:  &models.Requirement{Inventory: models.ItemList{"amulet"}, Stats: map[string]float64{"courage": 0}},
			want: false,
		},
		{
			name: "empty inventory list passes",
			req:  &models.Requirement{Inventory: models.ItemList{}, Phrase: boolPtr(false)},
			want: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestEngine(t, twoNodeStory())
			e.ApplyOption(&models.Option{
				Effects: map[string]models.EffectValue{"courage": models.Number(2)},
				Flags:   map[string]bool{"brave": false},
			})
			if got := e.CanUseOption(models.Option{Requires: tc.req}); got != tc.want {
				t.Errorf("CanUseOption = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestApplyOptionDoesNotCheckRequirements(t *testing.T) {
	e := newTestEngine(t, twoNodeStory())
	opt := &models.Option{Next: "b", Requires: &models.Requirement{Inventory: models.ItemList{"key"}}}

	e.ApplyOption(opt)
	if e.CurrentNode() != "b" {
		t.Errorf("Expected ApplyOption to follow the option regardless of requirements, at %q", e.CurrentNode())
	}
}

func TestDanglingNextIsLazy(t *testing.T) {
	e := newTestEngine(t, twoNodeStory())
	e.ApplyOption(&models.Option{Next: "nowhere"})

	if e.CurrentNode() != "nowhere" {
		t.Errorf("Expected current node nowhere, got %q", e.CurrentNode())
	}
	if _, ok := e.GetNode(e.CurrentNode()); ok {
		t.Error("Expected lookup of a dangling node to fail")
	}
}

func TestResetState(t *testing.T) {
	doc := twoNodeStory()
	e := newTestEngine(t, doc)
	node, _ := e.GetNode("a")
	e.ApplyOption(&node.Options[0])
	e.ApplyOption(&models.Option{Flags: map[string]bool{"brave": true}, Inventory: []string{"+amulet", "-map"}})

	e.ResetState()

	want := models.PlayerState{
		Stats:       map[string]float64{"luck": 3, "courage": 0},
		Inventory:   []string{"map"},
		Flags:       map[string]bool{},
		CurrentNode: "a",
		History:     []string{},
	}
	if diff := cmp.Diff(want, e.Player()); diff != "" {
		t.Errorf("state after reset (-want +got):\n%s", diff)
	}
	if doc.InitialStats["luck"] != 3 || len(doc.InitialInventory) != 1 {
		t.Errorf("playthrough mutated the document defaults: %v %v", doc.InitialStats, doc.InitialInventory)
	}
}

func TestSetStoryResets(t *testing.T) {
	e := newTestEngine(t, nil)
	e.ApplyOption(&models.Option{Next: "call_artem", Flags: map[string]bool{"phrase": true}})

	doc := twoNodeStory()
	if err := e.SetStory(doc); err != nil {
		t.Fatalf("SetStory: %v", err)
	}

	n, ok := e.GetNode(doc.StartNodeID)
	if !ok || n.ID != "a" {
		t.Fatalf("Expected start node a, got %+v (found %v)", n, ok)
	}
	if e.Story() != doc {
		t.Error("Expected engine to expose the new document")
	}

	fresh := newTestEngine(t, twoNodeStory())
	if diff := cmp.Diff(fresh.Player(), e.Player()); diff != "" {
		t.Errorf("state after SetStory differs from a fresh reset (-want +got):\n%s", diff)
	}
}

func TestSetStoryRejectsMissingNodes(t *testing.T) {
	e := newTestEngine(t, twoNodeStory())
	e.ApplyOption(&models.Option{Next: "b"})
	before := e.Story()

	for _, doc := range []*models.StoryDocument{nil, {StartNodeID: "a"}} {
		if err := e.SetStory(doc); !errors.Is(err, models.ErrMissingNodes) {
			t.Errorf("SetStory(%v) = %v, want ErrMissingNodes", doc, err)
		}
	}
	if e.Story() != before {
		t.Error("Expected the story to stay in place")
	}
	if got := e.CurrentNode(); got != "b" {
		t.Errorf("CurrentNode() = %q, want b", got)
	}
}

func TestPlayerIsSnapshot(t *testing.T) {
	e := newTestEngine(t, twoNodeStory())
	p := e.Player()
	p.Stats["luck"] = 100
	p.Inventory[0] = "stolen"

	if e.Player().Stats["luck"] != 3 || e.Player().Inventory[0] != "map" {
		t.Error("Player() must return a copy")
	}
}

func TestDefaultStoryPhraseRoute(t *testing.T) {
	e := newTestEngine(t, nil)
	choose := func(text string) {
		t.Helper()
		node, ok := e.GetNode(e.CurrentNode())
		if !ok {
			t.Fatalf("node %q missing", e.CurrentNode())
		}
		for i := range node.Options {
			if node.Options[i].Text == text {
				if !e.CanUseOption(node.Options[i]) {
					t.Fatalf("option %q at %q is locked", text, node.ID)
				}
				e.ApplyOption(&node.Options[i])
				return
			}
		}
		t.Fatalf("option %q not found at %q", text, node.ID)
	}

	choose("Сначала позвонить Артему и узнать детали")
	choose("Согласиться и взять амулет в библиотеке")
	choose("Осмотреть символ и попытаться понять его значение")
	choose("Использовать фразу при следующей встрече")
	choose("Прислушаться к шорохам внутри")
	choose("Сказать фразу из видения")
	choose("Следовать в комнату")

	end, ok := e.GetNode(e.CurrentNode())
	if !ok || !e.IsEnding(end) || end.Ending.Type != "mystic" {
		t.Fatalf("Expected the mystic ending, got %+v", end)
	}
	wantHistory := []string{"prologue", "call_artem", "library", "rune_vision", "observatory_entrance", "whispers_hall", "echo_response"}
	if diff := cmp.Diff(wantHistory, e.History()); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"амулет удачи"}, e.Player().Inventory); diff != "" {
		t.Errorf("inventory mismatch (-want +got):\n%s", diff)
	}
}
