package params

import "sort"

// Reference cuts shared by the 3D track-counting presets.
const (
	referenceMaxDistanceToJetAxis = 0.07 // cm
	referenceMaxDecayLength       = 5.0  // cm
)

// Preset labels.
const (
	TrackCounting3D1st = "trackCounting3D1st"
	TrackCounting3D2nd = "trackCounting3D2nd"
	TrackCounting3D3rd = "trackCounting3D3rd"
)

var presets = map[string]*Record{
	TrackCounting3D1st: trackCounting3D(TrackCounting3D1st, 1),
	TrackCounting3D2nd: trackCounting3D(TrackCounting3D2nd, 2),
	TrackCounting3D3rd: trackCounting3D(TrackCounting3D3rd, 3),
}

func trackCounting3D(label string, nth int32) *Record {
	return MustNew(label, Fields{
		Plugin:                   DefaultPlugin,
		ImpactParameterType:      IP3D,
		MaximumDistanceToJetAxis: referenceMaxDistanceToJetAxis,
		DeltaR:                   NoDeltaRCut,
		MaximumDecayLength:       referenceMaxDecayLength,
		NthTrack:                 nth,
		TrackQualityClass:        QualityAny,
	})
}

// Preset returns a built-in record by label.
func Preset(label string) (*Record, bool) {
	r, ok := presets[label]
	return r, ok
}

// PresetNames returns the built-in labels, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
