package params

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/roach88/btagcfg/internal/pset"
)

// FromMap builds a record from a flat key-value map, the shape every
// configuration source reduces to. Beyond the domain checks of New it
// reports missing, unknown and mistyped keys.
//
// Integer parameters accept any Go integer type or an integral json.Number.
// Double parameters accept any Go number. The plugin key is optional.
func FromMap(name string, m map[string]any) (*Record, error) {
	var errs ValidationErrors
	failed := make(map[string]bool)
	f := Fields{}

	if raw, ok := m[KeyPlugin]; ok {
		s, ok := raw.(string)
		if !ok {
			errs = append(errs, wrongType(KeyPlugin, raw, "string"))
			failed[KeyPlugin] = true
		} else {
			f.Plugin = s
		}
	}

	for _, key := range ParameterNames {
		raw, ok := m[key]
		if !ok {
			errs = append(errs, ValidationError{
				Field:   key,
				Code:    ErrCodeMissing,
				Message: "required parameter is missing",
			})
			failed[key] = true
			continue
		}

		var err *ValidationError
		switch key {
		case KeyImpactParameterType:
			var n int32
			n, err = toInt32(key, raw)
			f.ImpactParameterType = ImpactParameterType(n)
		case KeyNthTrack:
			f.NthTrack, err = toInt32(key, raw)
		case KeyMaximumDistanceToJetAxis:
			f.MaximumDistanceToJetAxis, err = toDouble(key, raw)
		case KeyDeltaR:
			f.DeltaR, err = toDouble(key, raw)
		case KeyMaximumDecayLength:
			f.MaximumDecayLength, err = toDouble(key, raw)
		case KeyTrackQualityClass:
			var s string
			s, err = toString(key, raw)
			f.TrackQualityClass = TrackQuality(s)
		}
		if err != nil {
			errs = append(errs, *err)
			failed[key] = true
		}
	}

	if f.Plugin == "" && !failed[KeyPlugin] {
		f.Plugin = DefaultPlugin
	}
	for _, e := range validate(name, f) {
		if !failed[e.Field] {
			errs = append(errs, e)
		}
	}

	var unknown []string
	for key := range m {
		if key != KeyPlugin && !isParameter(key) {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	for _, key := range unknown {
		errs = append(errs, ValidationError{
			Field:   key,
			Code:    ErrCodeUnknown,
			Message: fmt.Sprintf("not a parameter of %s", f.Plugin),
		})
	}

	if err := errs.orNil(); err != nil {
		return nil, err
	}
	return &Record{name: name, fields: f}, nil
}

// FromSet rebuilds a record from its described view, re-validating every
// value. It is the inverse of Record.Describe.
func FromSet(s pset.Set) (*Record, error) {
	m := make(map[string]any, len(s.Entries)+1)
	for _, e := range s.Entries {
		if e.Value == nil {
			continue
		}
		m[e.Name] = e.Value.Native()
	}
	if s.Plugin != "" {
		m[KeyPlugin] = s.Plugin
	}
	return FromMap(s.Label, m)
}

func isParameter(key string) bool {
	for _, name := range ParameterNames {
		if name == key {
			return true
		}
	}
	return false
}

func wrongType(field string, raw any, want string) ValidationError {
	return ValidationError{
		Field:   field,
		Value:   raw,
		Code:    ErrCodeWrongType,
		Message: fmt.Sprintf("expected %s, got %T", want, raw),
	}
}

func toInt32(field string, raw any) (int32, *ValidationError) {
	var n int64
	switch v := raw.(type) {
	case int:
		n = int64(v)
	case int8:
		n = int64(v)
	case int16:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, outOfInt32(field, raw)
		}
		n = int64(v)
	case uint8:
		n = int64(v)
	case uint16:
		n = int64(v)
	case uint32:
		n = int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return 0, outOfInt32(field, raw)
		}
		n = int64(v)
	case ImpactParameterType:
		n = int64(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			e := wrongType(field, raw, "int32")
			return 0, &e
		}
		n = i
	default:
		e := wrongType(field, raw, "int32")
		return 0, &e
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, outOfInt32(field, raw)
	}
	return int32(n), nil
}

func outOfInt32(field string, raw any) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   raw,
		Code:    ErrCodeOutOfRange,
		Message: "does not fit in int32",
	}
}

func toDouble(field string, raw any) (float64, *ValidationError) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			e := wrongType(field, raw, "double")
			return 0, &e
		}
		return f, nil
	default:
		e := wrongType(field, raw, "double")
		return 0, &e
	}
}

func toString(field string, raw any) (string, *ValidationError) {
	switch v := raw.(type) {
	case string:
		return v, nil
	case TrackQuality:
		return string(v), nil
	default:
		e := wrongType(field, raw, "string")
		return "", &e
	}
}
