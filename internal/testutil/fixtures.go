package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// ReferenceCUE is the trackCounting3D1st configuration as a CUE source.
const ReferenceCUE = `esproducer: trackCounting3D1st: {
	plugin:                   "TrackCountingESProducer"
	impactParameterType:      0
	maximumDistanceToJetAxis: 0.07
	deltaR:                   -1.0
	maximumDecayLength:       5.0
	nthTrack:                 1
	trackQualityClass:        "any"
}
`

// ReferenceYAML is the trackCounting3D2nd configuration as a YAML source.
const ReferenceYAML = `esproducer:
  trackCounting3D2nd:
    impactParameterType: 0
    maximumDistanceToJetAxis: 0.07
    deltaR: -1.0
    maximumDecayLength: 5.0
    nthTrack: 2
    trackQualityClass: any
`

// WriteFile writes content to dir/name and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
