package pset

import (
	"encoding/json"
	"fmt"
)

type jsonEntry struct {
	Name  string `json:"name"`
	Type  Type   `json:"type"`
	Value any    `json:"value"`
}

type jsonSet struct {
	ID         string      `json:"id"`
	Label      string      `json:"label"`
	Plugin     string      `json:"plugin"`
	Parameters []jsonEntry `json:"parameters"`
}

// MarshalJSON renders the set for diagnostics, keeping entry order and
// native value types. It is not the canonical form.
func (s Set) MarshalJSON() ([]byte, error) {
	id, err := s.ID()
	if err != nil {
		return nil, err
	}
	out := jsonSet{
		ID:         id,
		Label:      s.Label,
		Plugin:     s.Plugin,
		Parameters: make([]jsonEntry, 0, len(s.Entries)),
	}
	for _, e := range s.Entries {
		out.Parameters = append(out.Parameters, jsonEntry{
			Name:  e.Name,
			Type:  e.Value.Type(),
			Value: e.Value.Native(),
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the output of MarshalJSON. The id field is
// ignored; it is recomputed from content.
func (s *Set) UnmarshalJSON(data []byte) error {
	var raw struct {
		Label      string `json:"label"`
		Plugin     string `json:"plugin"`
		Parameters []struct {
			Name  string          `json:"name"`
			Type  Type            `json:"type"`
			Value json.RawMessage `json:"value"`
		} `json:"parameters"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	set := Set{Label: raw.Label, Plugin: raw.Plugin, Entries: make([]Entry, 0, len(raw.Parameters))}
	for i, p := range raw.Parameters {
		text, err := rawText(p.Type, p.Value)
		if err != nil {
			return fmt.Errorf("parameters[%d] %q: %w", i, p.Name, err)
		}
		v, err := ParseValue(p.Type, text)
		if err != nil {
			return fmt.Errorf("parameters[%d] %q: %w", i, p.Name, err)
		}
		set.Entries = append(set.Entries, E(p.Name, v))
	}
	*s = set
	return nil
}

// rawText extracts the textual form of a JSON value so that ParseValue can
// apply the same range checks as the canonical decoder.
func rawText(t Type, raw json.RawMessage) (string, error) {
	if t == TypeString {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return "", err
		}
		return str, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
