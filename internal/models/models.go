package models

// Metadata holds the display strings describing a story.
type Metadata struct {
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Author      string `json:"author,omitempty" yaml:"author,omitempty"`
	Version     string `json:"version,omitempty" yaml:"version,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// StoryDocument is a complete story graph. It is treated as an immutable
// snapshot: edits build a new document and swap it in.
type StoryDocument struct {
	Metadata         Metadata           `json:"metadata" yaml:"metadata"`
	InitialStats     map[string]float64 `json:"stats" yaml:"stats"`
	InitialInventory []string           `json:"inventory" yaml:"inventory"`
	StartNodeID      string             `json:"start" yaml:"start"`
	Nodes            map[string]Node    `json:"nodes" yaml:"nodes"`
}

// Node is a single scene of the story.
type Node struct {
	ID      string   `json:"id" yaml:"id"`
	Title   string   `json:"title,omitempty" yaml:"title,omitempty"`
	Text    string   `json:"text,omitempty" yaml:"text,omitempty"`
	Options []Option `json:"options,omitzero" yaml:"options,omitempty"`
	Ending  *Ending  `json:"ending,omitempty" yaml:"ending,omitempty"`
}

// Ending marks a node as terminal.
type Ending struct {
	Type    string `json:"type" yaml:"type"`
	Summary string `json:"summary" yaml:"summary"`
}

// Option is a player-facing choice attached to a node.
//
// Maps and slices distinguish "absent" (nil) from "present but empty"; the
// engine's rules depend on presence, so decoders keep that distinction.
type Option struct {
	Text      string                 `json:"text" yaml:"text"`
	Next      string                 `json:"next,omitempty" yaml:"next,omitempty"`
	Effects   map[string]EffectValue `json:"effects,omitzero" yaml:"effects,omitempty"`
	Flags     map[string]bool        `json:"flags,omitzero" yaml:"flags,omitempty"`
	Inventory []string               `json:"inventory,omitzero" yaml:"inventory,omitempty"`
	Requires  *Requirement           `json:"requires,omitempty" yaml:"requires,omitempty"`
}

// Requirement gates the availability of an option.
type Requirement struct {
	Inventory ItemList           `json:"inventory,omitzero" yaml:"inventory,omitempty"`
	Stats     map[string]float64 `json:"stats,omitzero" yaml:"stats,omitempty"`
	Flags     map[string]bool    `json:"flags,omitzero" yaml:"flags,omitempty"`
	Phrase    *bool              `json:"phrase,omitempty" yaml:"phrase,omitempty"`
}

// PlayerState is the live state of a playthrough.
type PlayerState struct {
	Stats       map[string]float64 `json:"stats" yaml:"stats"`
	Inventory   []string           `json:"inventory" yaml:"inventory"`
	Flags       map[string]bool    `json:"flags" yaml:"flags"`
	CurrentNode string             `json:"current_node" yaml:"current_node"`
	History     []string           `json:"history" yaml:"history"`
}

// HasItem reports whether item is in the inventory.
func (p *PlayerState) HasItem(item string) bool {
	for _, have := range p.Inventory {
		if have == item {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the player state.
func (p PlayerState) Clone() PlayerState {
	return PlayerState{
		Stats:       cloneMap(p.Stats),
		Inventory:   cloneSlice(p.Inventory),
		Flags:       cloneMap(p.Flags),
		CurrentNode: p.CurrentNode,
		History:     cloneSlice(p.History),
	}
}
