// Package engine runs a playthrough of a story: it owns the player state and
// applies the player's choices to it.
package engine

import (
	"slices"

	"github.com/tatianab/mystic-stories/internal/models"
	"github.com/tatianab/mystic-stories/internal/story"
)

const phraseFlag = "phrase"

// Engine owns the live playthrough of the store's current document.
//
// Engine is not safe for concurrent use.
type Engine struct {
	store  *story.Store
	player models.PlayerState
}

// NewEngine creates an engine positioned at the start of the store's story.
func NewEngine(store *story.Store) *Engine {
	e := &Engine{store: store}
	e.ResetState()
	return e
}

// ResetState starts a new playthrough of the current document.
func (e *Engine) ResetState() {
	doc := e.store.Document()
	e.player = models.PlayerState{
		Stats:       cloneStats(doc.InitialStats),
		Inventory:   slices.Clone(doc.InitialInventory),
		Flags:       map[string]bool{},
		CurrentNode: doc.StartNodeID,
		History:     []string{},
	}
	if e.player.Inventory == nil {
		e.player.Inventory = []string{}
	}
}

// SetStory replaces the story and discards the current playthrough. A nil
// document or one without nodes is rejected and leaves the engine untouched.
func (e *Engine) SetStory(doc *models.StoryDocument) error {
	if doc == nil || doc.Nodes == nil {
		return models.ErrMissingNodes
	}
	e.store.Replace(doc)
	e.ResetState()
	return nil
}

// Story returns the current document.
func (e *Engine) Story() *models.StoryDocument {
	return e.store.Document()
}

// CurrentNode returns the id of the node the player is at.
func (e *Engine) CurrentNode() string {
	return e.player.CurrentNode
}

// History returns the ids of previously visited nodes, oldest first.
func (e *Engine) History() []string {
	return slices.Clone(e.player.History)
}

// Player returns a snapshot of the player state.
func (e *Engine) Player() models.PlayerState {
	return e.player.Clone()
}

// GetNode looks up a node in the current document. A false result for the
// current node means the story points at a scene that does not exist and
// cannot be shown.
func (e *Engine) GetNode(id string) (models.Node, bool) {
	return e.store.GetNode(id)
}

// IsEnding reports whether n is a terminal node.
func (e *Engine) IsEnding(n models.Node) bool {
	return n.Ending != nil
}

// ApplyOption applies the effects of opt and moves to its next node. A nil
// option is ignored. The option's requirements are not checked here; callers
// gate choices with CanUseOption.
func (e *Engine) ApplyOption(opt *models.Option) {
	if opt == nil {
		return
	}
	p := &e.player

	for key, v := range opt.Effects {
		switch v.Kind {
		case models.EffectNumber:
			p.Stats[key] += v.Number
		case models.EffectFlag:
			p.Flags[key] = v.Flag
		}
	}

	for key, v := range opt.Flags {
		p.Flags[key] = v
	}

	for _, token := range opt.Inventory {
		if token == "" {
			continue
		}
		item := token[1:]
		switch token[0] {
		case '+':
			if !p.HasItem(item) {
				p.Inventory = append(p.Inventory, item)
			}
		case '-':
			p.Inventory = slices.DeleteFunc(p.Inventory, func(have string) bool {
				return have == item
			})
		}
	}

	// "phrase" is a legacy alias: any option carrying flags, or a truthy
	// effects.phrase, rewrites it from flags.phrase, falling back to the
	// truthiness of a non-null effects.phrase, and clears it otherwise.
	effectPhrase, hasEffectPhrase := opt.Effects[phraseFlag]
	if opt.Flags != nil || effectPhrase.Truthy() {
		if v, ok := opt.Flags[phraseFlag]; ok {
			p.Flags[phraseFlag] = v
		} else if hasEffectPhrase && effectPhrase.Present() {
			p.Flags[phraseFlag] = effectPhrase.Truthy()
		} else {
			delete(p.Flags, phraseFlag)
		}
	}

	if opt.Next != "" {
		p.History = append(p.History, p.CurrentNode)
		p.CurrentNode = opt.Next
	}
}

// CanUseOption reports whether the player currently meets opt's requirements.
//
// Missing inventory always fails. After that only the first present condition
// among stats, flags and phrase decides; later ones are not consulted.
func (e *Engine) CanUseOption(opt models.Option) bool {
	req := opt.Requires
	if req == nil {
		return true
	}
	p := &e.player

	if req.Inventory != nil {
		for _, item := range req.Inventory {
			if !p.HasItem(item) {
				return false
			}
		}
	}

	if req.Stats != nil {
		for stat, min := range req.Stats {
			if p.Stats[stat] < min {
				return false
			}
		}
		return true
	}

	if req.Flags != nil {
		for flag, want := range req.Flags {
			if p.Flags[flag] != want {
				return false
			}
		}
		return true
	}

	if req.Phrase != nil {
		return p.Flags[phraseFlag] == *req.Phrase
	}

	return true
}

func cloneStats(stats map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(stats))
	for k, v := range stats {
		out[k] = v
	}
	return out
}
