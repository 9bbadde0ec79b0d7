package pset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// canonicalEntry is the stored form of one parameter.
type canonicalEntry struct {
	Type  Type   `json:"type"`
	Value string `json:"value"`
}

// canonicalSet is the decoded form of canonical JSON.
type canonicalSet struct {
	Label      string                    `json:"label"`
	Plugin     string                    `json:"plugin"`
	Parameters map[string]canonicalEntry `json:"parameters"`
}

// Canonical produces the canonical JSON form of the set, the only
// serialization that feeds ID.
//
// Rules:
//  1. Object keys sorted by UTF-16 code units
//  2. No HTML escaping, U+2028 and U+2029 emitted literally
//  3. Strings NFC normalized
//  4. Values carried as text with a type tag, never as JSON numbers
//  5. Insignificant whitespace omitted
func (s Set) Canonical() ([]byte, error) {
	params := make(map[string]map[string]string, len(s.Entries))
	for i, e := range s.Entries {
		if e.Value == nil {
			return nil, fmt.Errorf("entries[%d] %q: nil value", i, e.Name)
		}
		if _, dup := params[e.Name]; dup {
			return nil, fmt.Errorf("entries[%d]: duplicate parameter %q", i, e.Name)
		}
		params[e.Name] = map[string]string{
			"type":  string(e.Value.Type()),
			"value": e.Value.Text(),
		}
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeMember(&buf, "label", true); err != nil {
		return nil, err
	}
	if err := writeString(&buf, s.Label); err != nil {
		return nil, err
	}
	if err := writeMember(&buf, "parameters", false); err != nil {
		return nil, err
	}
	buf.WriteByte('{')
	for i, name := range sortedKeys(params) {
		if err := writeMember(&buf, name, i == 0); err != nil {
			return nil, err
		}
		if err := writeFlatObject(&buf, params[name]); err != nil {
			return nil, fmt.Errorf("parameter %q: %w", name, err)
		}
	}
	buf.WriteByte('}')
	if err := writeMember(&buf, "plugin", false); err != nil {
		return nil, err
	}
	if err := writeString(&buf, s.Plugin); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ParseCanonical decodes canonical JSON back into a Set.
// Entry order is not part of the canonical form, so entries come back
// sorted by name.
func ParseCanonical(data []byte) (Set, error) {
	var cs canonicalSet
	if err := json.Unmarshal(data, &cs); err != nil {
		return Set{}, fmt.Errorf("parse canonical parameter set: %w", err)
	}

	names := make([]string, 0, len(cs.Parameters))
	for name := range cs.Parameters {
		names = append(names, name)
	}
	sort.Strings(names)

	set := Set{Label: cs.Label, Plugin: cs.Plugin, Entries: make([]Entry, 0, len(names))}
	for _, name := range names {
		ce := cs.Parameters[name]
		v, err := ParseValue(ce.Type, ce.Value)
		if err != nil {
			return Set{}, fmt.Errorf("parameter %q: %w", name, err)
		}
		set.Entries = append(set.Entries, E(name, v))
	}
	return set, nil
}

func writeMember(buf *bytes.Buffer, key string, first bool) error {
	if !first {
		buf.WriteByte(',')
	}
	if err := writeString(buf, key); err != nil {
		return err
	}
	buf.WriteByte(':')
	return nil
}

func writeFlatObject(buf *bytes.Buffer, obj map[string]string) error {
	buf.WriteByte('{')
	for i, k := range sortedKeys(obj) {
		if err := writeMember(buf, k, i == 0); err != nil {
			return err
		}
		if err := writeString(buf, obj[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// writeString writes a canonical JSON string.
// Only control characters, backslash and quote are escaped.
func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})
	buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes emitted by
// encoding/json back into literal characters. Escape pairs are consumed
// whole, so an escaped backslash followed by "u2028" is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if data[i+1] == 'u' && i+6 <= len(data) {
			switch string(data[i+2 : i+6]) {
			case "2028":
				out = append(out, "\u2028"...)
				i += 5
				continue
			case "2029":
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}

// sortedKeys returns map keys in UTF-16 code unit order. Go string
// comparison is by UTF-8 bytes, which disagrees above U+FFFF.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareUTF16)
	return keys
}

func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}
