package models

import (
	"bytes"
	"encoding/json"
	"strconv"

	"gopkg.in/yaml.v3"
)

// EffectKind tags the destination of an [EffectValue].
type EffectKind int

const (
	// EffectNone is a value of an unsupported type; it is ignored.
	EffectNone EffectKind = iota
	// EffectNumber is a delta added to a stat.
	EffectNumber
	// EffectFlag is assigned to a flag.
	EffectFlag
)

// EffectValue is a single entry of an option's effects: either a stat delta
// or a flag assignment.
type EffectValue struct {
	Kind   EffectKind
	Number float64
	Flag   bool
	// Raw keeps the JSON text of an EffectNone value so it survives export
	// and can still be read for truthiness.
	Raw json.RawMessage
}

// Number returns a stat delta effect.
func Number(v float64) EffectValue {
	return EffectValue{Kind: EffectNumber, Number: v}
}

// Flag returns a flag assignment effect.
func Flag(v bool) EffectValue {
	return EffectValue{Kind: EffectFlag, Flag: v}
}

// Truthy reports the boolean reading of the value: a set flag, a non-zero
// number, or an unsupported value that is a non-empty string, list or object.
func (v EffectValue) Truthy() bool {
	switch v.Kind {
	case EffectNumber:
		return v.Number != 0 && v.Number == v.Number
	case EffectFlag:
		return v.Flag
	}
	return truthyJSON(v.Raw)
}

// Present reports whether the value was given and is not null.
func (v EffectValue) Present() bool {
	return v.Kind != EffectNone || v.Raw != nil
}

// String renders the value the way authors type it.
func (v EffectValue) String() string {
	switch v.Kind {
	case EffectNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case EffectFlag:
		return strconv.FormatBool(v.Flag)
	}
	return ""
}

// MarshalJSON implements [json.Marshaler].
func (v EffectValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case EffectNumber:
		return json.Marshal(v.Number)
	case EffectFlag:
		return json.Marshal(v.Flag)
	}
	if v.Raw != nil {
		return v.Raw, nil
	}
	return []byte("null"), nil
}

// UnmarshalJSON implements [json.Unmarshaler]. Values that are neither numbers
// nor booleans decode to an inert [EffectNone] instead of failing the document.
func (v *EffectValue) UnmarshalJSON(data []byte) error {
	*v = EffectValue{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*v = Flag(b)
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*v = Number(n)
		return nil
	}
	v.Raw = json.RawMessage(bytes.Clone(bytes.TrimSpace(data)))
	return nil
}

// MarshalYAML implements [yaml.Marshaler].
func (v EffectValue) MarshalYAML() (any, error) {
	switch v.Kind {
	case EffectNumber:
		return v.Number, nil
	case EffectFlag:
		return v.Flag, nil
	}
	if v.Raw != nil {
		var out any
		if err := json.Unmarshal(v.Raw, &out); err == nil {
			return out, nil
		}
	}
	return nil, nil
}

// UnmarshalYAML implements [yaml.Unmarshaler].
func (v *EffectValue) UnmarshalYAML(node *yaml.Node) error {
	*v = EffectValue{}
	switch node.Tag {
	case "!!null":
		return nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err == nil {
			*v = Flag(b)
			return nil
		}
	case "!!int", "!!float":
		var n float64
		if err := node.Decode(&n); err == nil {
			*v = Number(n)
			return nil
		}
	}
	var out any
	if err := node.Decode(&out); err != nil {
		return nil
	}
	if raw, err := json.Marshal(out); err == nil {
		v.Raw = raw
	}
	return nil
}

// ItemList is a requirement's item set. Documents may spell it as a single
// item name or as a list of names. A single empty name is treated as absent.
type ItemList []string

// UnmarshalJSON implements [json.Unmarshaler]. Entries that are not strings
// are dropped and any other shape is treated as absent.
func (l *ItemList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = single(s)
		return nil
	}
	*l = ItemList(decodeStrings(data))
	return nil
}

// UnmarshalYAML implements [yaml.Unmarshaler].
func (l *ItemList) UnmarshalYAML(node *yaml.Node) error {
	*l = nil
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag != "!!str" {
			return nil
		}
		*l = single(node.Value)
	case yaml.SequenceNode:
		items := []string{}
		for _, item := range node.Content {
			if item.Kind == yaml.ScalarNode && item.Tag == "!!str" {
				items = append(items, item.Value)
			}
		}
		*l = items
	}
	return nil
}

func single(s string) ItemList {
	if s == "" {
		return nil
	}
	return ItemList{s}
}
