package models

import (
	"bytes"
	"encoding/json"
)

// Option, Requirement and ending data are decoded permissively: a value of
// the wrong type never fails the document. Wrongly typed entries are dropped
// and wrongly shaped containers are treated as absent, so a broken option
// has no effect and a broken requirement is satisfied.

// UnmarshalJSON implements [json.Unmarshaler].
func (n *Node) UnmarshalJSON(data []byte) error {
	type plain Node
	raw := struct {
		*plain
		Ending json.RawMessage `json:"ending"`
	}{plain: (*plain)(n)}

	*n = Node{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	n.Ending = decodeEnding(raw.Ending)
	return nil
}

// UnmarshalJSON implements [json.Unmarshaler]. A value that is not an object
// decodes to an option with no text, target or effects.
func (o *Option) UnmarshalJSON(data []byte) error {
	*o = Option{}
	fields, ok := decodeObject(data)
	if !ok {
		return nil
	}

	o.Text = decodeString(fields["text"])
	o.Next = decodeString(fields["next"])
	if isObject(fields["effects"]) {
		var effects map[string]EffectValue
		if err := json.Unmarshal(fields["effects"], &effects); err == nil {
			o.Effects = effects
		}
	}
	o.Flags = decodeFlags(fields["flags"])
	o.Inventory = decodeStrings(fields["inventory"])
	if isObject(fields["requires"]) {
		var req Requirement
		if err := json.Unmarshal(fields["requires"], &req); err == nil {
			o.Requires = &req
		}
	}
	return nil
}

// UnmarshalJSON implements [json.Unmarshaler]. A present phrase is read by
// truthiness, so null and "" require the phrase to be unset.
func (r *Requirement) UnmarshalJSON(data []byte) error {
	*r = Requirement{}
	fields, ok := decodeObject(data)
	if !ok {
		return nil
	}

	if raw, ok := fields["inventory"]; ok {
		_ = r.Inventory.UnmarshalJSON(raw)
	}
	r.Stats = decodeNumbers(fields["stats"])
	r.Flags = decodeFlags(fields["flags"])
	if raw, ok := fields["phrase"]; ok {
		phrase := truthyJSON(raw)
		r.Phrase = &phrase
	}
	return nil
}

func decodeEnding(data json.RawMessage) *Ending {
	fields, ok := decodeObject(data)
	if !ok {
		return nil
	}
	return &Ending{
		Type:    decodeString(fields["type"]),
		Summary: decodeString(fields["summary"]),
	}
}

// decodeObject splits a JSON object into its raw fields. ok is false for
// anything that is not an object, including null.
func decodeObject(data []byte) (map[string]json.RawMessage, bool) {
	if !isObject(data) {
		return nil, false
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, false
	}
	return fields, true
}

func isObject(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && data[0] == '{'
}

func decodeString(data []byte) string {
	var s string
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte(`"`)) {
		_ = json.Unmarshal(data, &s)
	}
	return s
}

// decodeStrings keeps the string entries of a JSON list. Anything but a list
// yields nil; a list yields a non-nil slice even when empty.
func decodeStrings(data []byte) []string {
	var items []json.RawMessage
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' || json.Unmarshal(data, &items) != nil {
		return nil
	}
	out := []string{}
	for _, item := range items {
		if bytes.HasPrefix(bytes.TrimSpace(item), []byte(`"`)) {
			out = append(out, decodeString(item))
		}
	}
	return out
}

// decodeFlags keeps the boolean entries of a JSON object.
func decodeFlags(data []byte) map[string]bool {
	fields, ok := decodeObject(data)
	if !ok {
		return nil
	}
	out := make(map[string]bool, len(fields))
	for k, v := range fields {
		switch string(bytes.TrimSpace(v)) {
		case "true":
			out[k] = true
		case "false":
			out[k] = false
		}
	}
	return out
}

// decodeNumbers keeps the numeric entries of a JSON object.
func decodeNumbers(data []byte) map[string]float64 {
	fields, ok := decodeObject(data)
	if !ok {
		return nil
	}
	out := make(map[string]float64, len(fields))
	for k, v := range fields {
		var n float64
		if isNumber(v) && json.Unmarshal(v, &n) == nil {
			out[k] = n
		}
	}
	return out
}

func isNumber(data []byte) bool {
	data = bytes.TrimSpace(data)
	return len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9'))
}

// truthyJSON reads a JSON value as a condition: null, false, 0 and "" are
// false, everything else is true.
func truthyJSON(data []byte) bool {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		return false
	case data[0] == 'n' || data[0] == 'f':
		return false
	case data[0] == 't' || data[0] == '[' || data[0] == '{':
		return true
	case data[0] == '"':
		return decodeString(data) != ""
	}
	var n float64
	return json.Unmarshal(data, &n) == nil && n != 0
}
