package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
)

// ErrMissingNodes is returned when a story document has no "nodes" mapping.
var ErrMissingNodes = errors.New("story document has no nodes")

// ParseDocument decodes a JSON story document. The document must carry a
// "nodes" mapping; everything else is optional.
func ParseDocument(data []byte) (*StoryDocument, error) {
	var doc StoryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("models: decode story json: %w", err)
	}
	if doc.Nodes == nil {
		return nil, ErrMissingNodes
	}
	return &doc, nil
}

// MarshalDocument encodes doc as indented JSON, the exchange format used for
// persistence and export.
func MarshalDocument(doc *StoryDocument) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("models: encode story json: %w", err)
	}
	return data, nil
}

// Clone returns a deep copy of the document.
func (d *StoryDocument) Clone() *StoryDocument {
	if d == nil {
		return nil
	}
	out := &StoryDocument{
		Metadata:         d.Metadata,
		InitialStats:     cloneMap(d.InitialStats),
		InitialInventory: cloneSlice(d.InitialInventory),
		StartNodeID:      d.StartNodeID,
	}
	if d.Nodes != nil {
		out.Nodes = make(map[string]Node, len(d.Nodes))
		for id, n := range d.Nodes {
			out.Nodes[id] = n.Clone()
		}
	}
	return out
}

// WithNode returns a new document sharing every node of d except id, which is
// set to n. d is left untouched.
func (d *StoryDocument) WithNode(id string, n Node) *StoryDocument {
	out := *d
	out.Nodes = make(map[string]Node, len(d.Nodes)+1)
	maps.Copy(out.Nodes, d.Nodes)
	out.Nodes[id] = n
	return &out
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	if n.Options != nil {
		out.Options = make([]Option, len(n.Options))
		for i, o := range n.Options {
			out.Options[i] = o.Clone()
		}
	}
	if n.Ending != nil {
		e := *n.Ending
		out.Ending = &e
	}
	return out
}

// Clone returns a deep copy of the option.
func (o Option) Clone() Option {
	out := o
	out.Effects = cloneMap(o.Effects)
	out.Flags = cloneMap(o.Flags)
	out.Inventory = cloneSlice(o.Inventory)
	if o.Requires != nil {
		r := Requirement{
			Inventory: ItemList(cloneSlice([]string(o.Requires.Inventory))),
			Stats:     cloneMap(o.Requires.Stats),
			Flags:     cloneMap(o.Requires.Flags),
		}
		if o.Requires.Phrase != nil {
			p := *o.Requires.Phrase
			r.Phrase = &p
		}
		out.Requires = &r
	}
	return out
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	return maps.Clone(m)
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}
