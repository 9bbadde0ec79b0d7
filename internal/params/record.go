// Package params defines the validated parameter record for the
// impact-parameter track-counting b-tag computer.
//
// A Record is built once when configuration is loaded and never changes
// afterwards, so it can be shared by any number of readers without locking.
// Every field is checked at construction; a Record that exists is valid.
package params

import (
	"fmt"
	"math"
	"regexp"

	"github.com/roach88/btagcfg/internal/pset"
)

// DefaultPlugin is the computer type a record binds to when none is given.
const DefaultPlugin = "TrackCountingESProducer"

// NoDeltaRCut is the deltaR sentinel: the cone cut is taken from the
// jet-track association instead.
const NoDeltaRCut = -1.0

// Parameter names as they appear in configuration sources.
const (
	KeyPlugin                   = "plugin"
	KeyImpactParameterType      = "impactParameterType"
	KeyMaximumDistanceToJetAxis = "maximumDistanceToJetAxis"
	KeyDeltaR                   = "deltaR"
	KeyMaximumDecayLength       = "maximumDecayLength"
	KeyNthTrack                 = "nthTrack"
	KeyTrackQualityClass        = "trackQualityClass"
)

// ParameterNames lists the parameters in declaration order.
var ParameterNames = []string{
	KeyImpactParameterType,
	KeyMaximumDistanceToJetAxis,
	KeyDeltaR,
	KeyMaximumDecayLength,
	KeyNthTrack,
	KeyTrackQualityClass,
}

// labelPattern matches module labels: a letter, then letters or digits.
var labelPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// Fields carries the raw values handed to New.
type Fields struct {
	// Plugin is the computer type; empty means DefaultPlugin.
	Plugin string

	ImpactParameterType ImpactParameterType
	// MaximumDistanceToJetAxis in cm.
	MaximumDistanceToJetAxis float64
	// DeltaR is the cone size, or NoDeltaRCut.
	DeltaR float64
	// MaximumDecayLength in cm.
	MaximumDecayLength float64
	NthTrack           int32
	TrackQualityClass  TrackQuality
}

// Record is an immutable, validated parameter set.
type Record struct {
	name   string
	fields Fields
}

// New validates f and returns the record registered under name.
// All violations are reported together as ValidationErrors.
func New(name string, f Fields) (*Record, error) {
	if f.Plugin == "" {
		f.Plugin = DefaultPlugin
	}
	if errs := validate(name, f); len(errs) > 0 {
		return nil, errs
	}
	return &Record{name: name, fields: f}, nil
}

// MustNew is like New but panics on error.
// Use only for records known to be valid, such as presets.
func MustNew(name string, f Fields) *Record {
	r, err := New(name, f)
	if err != nil {
		panic(err)
	}
	return r
}

func validate(name string, f Fields) ValidationErrors {
	var errs ValidationErrors

	switch {
	case name == "":
		errs = append(errs, ValidationError{
			Field:   "name",
			Code:    ErrCodeInvalidLabel,
			Message: "name is required",
		})
	case !labelPattern.MatchString(name):
		errs = append(errs, ValidationError{
			Field:   "name",
			Value:   name,
			Code:    ErrCodeInvalidLabel,
			Message: "must start with a letter and contain only letters and digits",
		})
	}

	if !labelPattern.MatchString(f.Plugin) {
		errs = append(errs, ValidationError{
			Field:   KeyPlugin,
			Value:   f.Plugin,
			Code:    ErrCodeInvalidLabel,
			Message: "must start with a letter and contain only letters and digits",
		})
	}

	if !f.ImpactParameterType.Valid() {
		errs = append(errs, ValidationError{
			Field:   KeyImpactParameterType,
			Value:   int32(f.ImpactParameterType),
			Code:    ErrCodeNotInDomain,
			Message: "must be 0 (3D) or 1 (2D)",
		})
	}

	errs = appendDistance(errs, KeyMaximumDistanceToJetAxis, f.MaximumDistanceToJetAxis)

	// -1 is the only negative value accepted.
	if f.DeltaR != NoDeltaRCut {
		errs = appendDistance(errs, KeyDeltaR, f.DeltaR)
	}

	errs = appendDistance(errs, KeyMaximumDecayLength, f.MaximumDecayLength)

	if f.NthTrack < 1 {
		errs = append(errs, ValidationError{
			Field:   KeyNthTrack,
			Value:   f.NthTrack,
			Code:    ErrCodeOutOfRange,
			Message: "must be at least 1",
		})
	}

	switch {
	case f.TrackQualityClass == "":
		errs = append(errs, ValidationError{
			Field:   KeyTrackQualityClass,
			Code:    ErrCodeMissing,
			Message: "quality class is required; use \"any\" for no filter",
		})
	case !f.TrackQualityClass.Valid():
		errs = append(errs, ValidationError{
			Field:   KeyTrackQualityClass,
			Value:   string(f.TrackQualityClass),
			Code:    ErrCodeNotInDomain,
			Message: fmt.Sprintf("must be one of %v", qualityClasses),
		})
	}

	return errs
}

// appendDistance checks a finite, non-negative length.
func appendDistance(errs ValidationErrors, field string, v float64) ValidationErrors {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return append(errs, ValidationError{
			Field:   field,
			Value:   v,
			Code:    ErrCodeOutOfRange,
			Message: "must be finite",
		})
	case v < 0:
		return append(errs, ValidationError{
			Field:   field,
			Value:   v,
			Code:    ErrCodeOutOfRange,
			Message: "must not be negative",
		})
	}
	return errs
}

// Name returns the registry label.
func (r *Record) Name() string { return r.name }

// Plugin returns the computer type the registry instantiates.
func (r *Record) Plugin() string { return r.fields.Plugin }

func (r *Record) ImpactParameterType() ImpactParameterType { return r.fields.ImpactParameterType }

func (r *Record) MaximumDistanceToJetAxis() float64 { return r.fields.MaximumDistanceToJetAxis }

// DeltaR returns the raw value, including the NoDeltaRCut sentinel.
func (r *Record) DeltaR() float64 { return r.fields.DeltaR }

// HasDeltaRCut reports whether DeltaR is an actual cone size rather than
// the sentinel.
func (r *Record) HasDeltaRCut() bool { return r.fields.DeltaR != NoDeltaRCut }

func (r *Record) MaximumDecayLength() float64 { return r.fields.MaximumDecayLength }

func (r *Record) NthTrack() int32 { return r.fields.NthTrack }

func (r *Record) TrackQualityClass() TrackQuality { return r.fields.TrackQualityClass }

// Fields returns a copy of the validated values.
func (r *Record) Fields() Fields { return r.fields }

// Describe returns the stable, serializable view of the record: the label,
// the plugin and the six parameters in declaration order, values unchanged.
func (r *Record) Describe() pset.Set {
	f := r.fields
	return pset.Set{
		Label:  r.name,
		Plugin: f.Plugin,
		Entries: []pset.Entry{
			pset.E(KeyImpactParameterType, pset.Int32(f.ImpactParameterType)),
			pset.E(KeyMaximumDistanceToJetAxis, pset.Double(f.MaximumDistanceToJetAxis)),
			pset.E(KeyDeltaR, pset.Double(f.DeltaR)),
			pset.E(KeyMaximumDecayLength, pset.Double(f.MaximumDecayLength)),
			pset.E(KeyNthTrack, pset.Int32(f.NthTrack)),
			pset.E(KeyTrackQualityClass, pset.String(f.TrackQualityClass)),
		},
	}
}

// ID returns the content-addressed parameter-set ID of the record.
func (r *Record) ID() string {
	// Describe always yields a well-formed set.
	return r.Describe().MustID()
}

// Equal reports whether two records carry the same label and values.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	return r.name == other.name && r.fields == other.fields
}

func (r *Record) String() string {
	return fmt.Sprintf("%s(%s)", r.name, r.fields.Plugin)
}
