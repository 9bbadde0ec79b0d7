package params

import (
	"fmt"
	"slices"
)

// ImpactParameterType selects how the impact parameter is measured.
type ImpactParameterType int32

const (
	IP3D ImpactParameterType = 0 // three-dimensional
	IP2D ImpactParameterType = 1 // transverse plane only
)

// Valid reports whether t is in {IP3D, IP2D}.
func (t ImpactParameterType) Valid() bool {
	return t == IP3D || t == IP2D
}

func (t ImpactParameterType) String() string {
	switch t {
	case IP3D:
		return "3D"
	case IP2D:
		return "2D"
	default:
		return fmt.Sprintf("ImpactParameterType(%d)", int32(t))
	}
}

// TrackQuality is a track-quality class label.
type TrackQuality string

// QualityAny disables the quality filter.
const QualityAny TrackQuality = "any"

// Track-quality labels understood by the track selector.
const (
	QualityLoose               TrackQuality = "loose"
	QualityTight               TrackQuality = "tight"
	QualityHighPurity          TrackQuality = "highPurity"
	QualityConfirmed           TrackQuality = "confirmed"
	QualityGoodIterative       TrackQuality = "goodIterative"
	QualityLooseSetWithPV      TrackQuality = "looseSetWithPV"
	QualityHighPuritySetWithPV TrackQuality = "highPuritySetWithPV"
	QualityDiscarded           TrackQuality = "discarded"
)

var qualityClasses = []TrackQuality{
	QualityAny,
	QualityLoose,
	QualityTight,
	QualityHighPurity,
	QualityConfirmed,
	QualityGoodIterative,
	QualityLooseSetWithPV,
	QualityHighPuritySetWithPV,
	QualityDiscarded,
}

// QualityClasses returns every accepted label, QualityAny first.
func QualityClasses() []TrackQuality {
	return slices.Clone(qualityClasses)
}

// Valid reports whether q is a known label. Labels are case-sensitive.
func (q TrackQuality) Valid() bool {
	return slices.Contains(qualityClasses, q)
}

// Filters reports whether q restricts tracks at all.
func (q TrackQuality) Filters() bool {
	return q != QualityAny
}
