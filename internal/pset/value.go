package pset

import (
	"fmt"
	"math"
	"strconv"
)

// Type names a parameter type as it appears in configuration fragments.
type Type string

const (
	TypeInt32  Type = "int32"
	TypeDouble Type = "double"
	TypeString Type = "string"
)

// Value is a sealed interface over the supported parameter types.
type Value interface {
	Type() Type
	// Text is the canonical textual form used for hashing and storage.
	Text() string
	// Native returns the plain Go value (int32, float64 or string).
	Native() any
	pvalue()
}

// Int32 is an int32 parameter.
type Int32 int32

func (Int32) Type() Type     { return TypeInt32 }
func (v Int32) Text() string { return strconv.FormatInt(int64(v), 10) }
func (v Int32) Native() any  { return int32(v) }
func (Int32) pvalue()        {}

// Double is a double parameter.
type Double float64

func (Double) Type() Type { return TypeDouble }

// Text uses the shortest representation that round-trips.
func (v Double) Text() string { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v Double) Native() any  { return float64(v) }
func (Double) pvalue()        {}

// String is a string parameter.
type String string

func (String) Type() Type     { return TypeString }
func (v String) Text() string { return string(v) }
func (v String) Native() any  { return string(v) }
func (String) pvalue()        {}

// ParseValue is the inverse of Value.Text for the given type.
func ParseValue(t Type, text string) (Value, error) {
	switch t {
	case TypeInt32:
		n, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("parse int32 %q: %w", text, err)
		}
		return Int32(n), nil
	case TypeDouble:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("parse double %q: %w", text, err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("parse double %q: not finite", text)
		}
		return Double(f), nil
	case TypeString:
		return String(text), nil
	default:
		return nil, fmt.Errorf("unknown parameter type %q", t)
	}
}

// Entry is one named parameter.
type Entry struct {
	Name  string
	Value Value
}

// E is a shorthand for building entries.
func E(name string, v Value) Entry {
	return Entry{Name: name, Value: v}
}

// Set is the ordered, typed description of one configured computer.
type Set struct {
	Label   string
	Plugin  string
	Entries []Entry
}

// Lookup returns the entry value for name.
func (s Set) Lookup(name string) (Value, bool) {
	for _, e := range s.Entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return nil, false
}

// Values returns the parameters as plain Go values keyed by name.
func (s Set) Values() map[string]any {
	m := make(map[string]any, len(s.Entries))
	for _, e := range s.Entries {
		m[e.Name] = e.Value.Native()
	}
	return m
}
