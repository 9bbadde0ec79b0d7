package params

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/btagcfg/internal/pset"
)

func referenceFields() Fields {
	return Fields{
		ImpactParameterType:      IP3D,
		MaximumDistanceToJetAxis: 0.07,
		DeltaR:                   -1.0,
		MaximumDecayLength:       5.0,
		NthTrack:                 1,
		TrackQualityClass:        QualityAny,
	}
}

// requireCodes asserts err is a ValidationErrors with exactly these
// field/code pairs, in order.
func requireCodes(t *testing.T, err error, want ...[2]string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)

	var errs ValidationErrors
	require.True(t, errors.As(err, &errs), "expected ValidationErrors, got %T", err)

	got := make([][2]string, len(errs))
	for i, e := range errs {
		got[i] = [2]string{e.Field, e.Code}
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("validation errors mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_Reference(t *testing.T) {
	r, err := New("trackCounting3D1st", referenceFields())
	require.NoError(t, err)

	assert.Equal(t, "trackCounting3D1st", r.Name())
	assert.Equal(t, "TrackCountingESProducer", r.Plugin())
	assert.Equal(t, IP3D, r.ImpactParameterType())
	assert.Equal(t, 0.07, r.MaximumDistanceToJetAxis())
	assert.Equal(t, -1.0, r.DeltaR())
	assert.Equal(t, 5.0, r.MaximumDecayLength())
	assert.Equal(t, int32(1), r.NthTrack())
	assert.Equal(t, QualityAny, r.TrackQualityClass())
	assert.False(t, r.HasDeltaRCut())
}

func TestNew_AccessorsReturnSuppliedValues(t *testing.T) {
	for _, q := range QualityClasses() {
		for _, ip := range []ImpactParameterType{IP3D, IP2D} {
			f := Fields{
				Plugin:                   "MyComputer",
				ImpactParameterType:      ip,
				MaximumDistanceToJetAxis: 0.2,
				DeltaR:                   0.3,
				MaximumDecayLength:       0,
				NthTrack:                 4,
				TrackQualityClass:        q,
			}
			r, err := New("custom2", f)
			require.NoError(t, err, "quality %q ip %v", q, ip)
			assert.Equal(t, f, r.Fields())
			assert.True(t, r.HasDeltaRCut())
		}
	}
}

func TestNew_NthTrackZero(t *testing.T) {
	f := referenceFields()
	f.NthTrack = 0
	_, err := New("x", f)
	requireCodes(t, err, [2]string{KeyNthTrack, ErrCodeOutOfRange})
}

func TestNew_NegativeDistanceToJetAxis(t *testing.T) {
	f := referenceFields()
	f.MaximumDistanceToJetAxis = -1.0
	_, err := New("x", f)
	requireCodes(t, err, [2]string{KeyMaximumDistanceToJetAxis, ErrCodeOutOfRange})

	var ve ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, -1.0, ve.Value)
}

func TestNew_DeltaRSentinel(t *testing.T) {
	sentinel, err := New("x", referenceFields())
	require.NoError(t, err)

	f := referenceFields()
	f.DeltaR = 0
	zero, err := New("x", f)
	require.NoError(t, err)

	assert.Equal(t, NoDeltaRCut, sentinel.DeltaR())
	assert.False(t, sentinel.HasDeltaRCut())
	assert.True(t, zero.HasDeltaRCut())
	assert.False(t, sentinel.Equal(zero))
	assert.NotEqual(t, sentinel.ID(), zero.ID())
}

func TestNew_DeltaROtherNegatives(t *testing.T) {
	for _, v := range []float64{-0.5, -2, math.Inf(-1), math.NaN()} {
		f := referenceFields()
		f.DeltaR = v
		_, err := New("x", f)
		requireCodes(t, err, [2]string{KeyDeltaR, ErrCodeOutOfRange})
	}
}

func TestNew_ImpactParameterTypeOutOfDomain(t *testing.T) {
	f := referenceFields()
	f.ImpactParameterType = 2
	_, err := New("x", f)
	requireCodes(t, err, [2]string{KeyImpactParameterType, ErrCodeNotInDomain})
}

func TestNew_NonFinite(t *testing.T) {
	f := referenceFields()
	f.MaximumDecayLength = math.Inf(1)
	f.MaximumDistanceToJetAxis = math.NaN()
	_, err := New("x", f)
	requireCodes(t, err,
		[2]string{KeyMaximumDistanceToJetAxis, ErrCodeOutOfRange},
		[2]string{KeyMaximumDecayLength, ErrCodeOutOfRange},
	)
}

func TestNew_QualityClass(t *testing.T) {
	f := referenceFields()
	f.TrackQualityClass = "HighPurity"
	_, err := New("x", f)
	requireCodes(t, err, [2]string{KeyTrackQualityClass, ErrCodeNotInDomain})

	f.TrackQualityClass = ""
	_, err = New("x", f)
	requireCodes(t, err, [2]string{KeyTrackQualityClass, ErrCodeMissing})
}

func TestNew_Labels(t *testing.T) {
	tests := []struct {
		name  string
		label string
		ok    bool
	}{
		{"reference", "trackCounting3D1st", true},
		{"empty", "", false},
		{"leading digit", "3DtrackCounting", false},
		{"underscore", "track_counting", false},
		{"dot", "track.counting", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.label, referenceFields())
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			requireCodes(t, err, [2]string{"name", ErrCodeInvalidLabel})
		})
	}
}

func TestNew_ReportsAllViolations(t *testing.T) {
	f := Fields{
		Plugin:                   "bad plugin",
		ImpactParameterType:      7,
		MaximumDistanceToJetAxis: -0.1,
		DeltaR:                   -3,
		MaximumDecayLength:       -5,
		NthTrack:                 -1,
		TrackQualityClass:        "excellent",
	}
	_, err := New("", f)
	requireCodes(t, err,
		[2]string{"name", ErrCodeInvalidLabel},
		[2]string{KeyPlugin, ErrCodeInvalidLabel},
		[2]string{KeyImpactParameterType, ErrCodeNotInDomain},
		[2]string{KeyMaximumDistanceToJetAxis, ErrCodeOutOfRange},
		[2]string{KeyDeltaR, ErrCodeOutOfRange},
		[2]string{KeyMaximumDecayLength, ErrCodeOutOfRange},
		[2]string{KeyNthTrack, ErrCodeOutOfRange},
		[2]string{KeyTrackQualityClass, ErrCodeNotInDomain},
	)
	assert.Contains(t, err.Error(), "8 validation errors")
}

func TestDescribe_Reference(t *testing.T) {
	r, err := New("trackCounting3D1st", referenceFields())
	require.NoError(t, err)

	got := r.Describe()
	want := pset.Set{
		Label:  "trackCounting3D1st",
		Plugin: "TrackCountingESProducer",
		Entries: []pset.Entry{
			pset.E("impactParameterType", pset.Int32(0)),
			pset.E("maximumDistanceToJetAxis", pset.Double(0.07)),
			pset.E("deltaR", pset.Double(-1.0)),
			pset.E("maximumDecayLength", pset.Double(5.0)),
			pset.E("nthTrack", pset.Int32(1)),
			pset.E("trackQualityClass", pset.String("any")),
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Describe() mismatch (-want +got):\n%s", diff)
	}
}

func TestDescribe_Stable(t *testing.T) {
	r := MustNew("trackCounting3D1st", referenceFields())
	first, err := r.Describe().Canonical()
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Describe().Canonical()
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDescribe_ReturnsCopy(t *testing.T) {
	r := MustNew("trackCounting3D1st", referenceFields())
	d := r.Describe()
	d.Entries[4] = pset.E(KeyNthTrack, pset.Int32(9))
	assert.Equal(t, int32(1), r.NthTrack())
}

func TestRecord_ConcurrentReaders(t *testing.T) {
	r := MustNew("trackCounting3D1st", referenceFields())
	want := r.ID()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, r.ID())
			assert.Equal(t, int32(1), r.NthTrack())
		}()
	}
	wg.Wait()
}

func TestMustNew_Panics(t *testing.T) {
	assert.Panics(t, func() { MustNew("", Fields{}) })
}

func TestPresets(t *testing.T) {
	assert.Equal(t, []string{TrackCounting3D1st, TrackCounting3D2nd, TrackCounting3D3rd}, PresetNames())

	r, ok := Preset(TrackCounting3D1st)
	require.True(t, ok)
	assert.True(t, r.Equal(MustNew("trackCounting3D1st", referenceFields())))

	second, ok := Preset(TrackCounting3D2nd)
	require.True(t, ok)
	assert.Equal(t, int32(2), second.NthTrack())

	_, ok = Preset("jetProbability")
	assert.False(t, ok)
}

func TestImpactParameterTypeString(t *testing.T) {
	assert.Equal(t, "3D", IP3D.String())
	assert.Equal(t, "2D", IP2D.String())
	assert.Equal(t, "ImpactParameterType(5)", ImpactParameterType(5).String())
}
