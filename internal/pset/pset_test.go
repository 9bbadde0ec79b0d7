package pset

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceSet() Set {
	return Set{
		Label:  "trackCounting3D1st",
		Plugin: "TrackCountingESProducer",
		Entries: []Entry{
			E("impactParameterType", Int32(0)),
			E("maximumDistanceToJetAxis", Double(0.07)),
			E("deltaR", Double(-1.0)),
			E("maximumDecayLength", Double(5.0)),
			E("nthTrack", Int32(1)),
			E("trackQualityClass", String("any")),
		},
	}
}

func TestCanonical_Reference(t *testing.T) {
	got, err := referenceSet().Canonical()
	require.NoError(t, err)

	want := `{"label":"trackCounting3D1st","parameters":{` +
		`"deltaR":{"type":"double","value":"-1"},` +
		`"impactParameterType":{"type":"int32","value":"0"},` +
		`"maximumDecayLength":{"type":"double","value":"5"},` +
		`"maximumDistanceToJetAxis":{"type":"double","value":"0.07"},` +
		`"nthTrack":{"type":"int32","value":"1"},` +
		`"trackQualityClass":{"type":"string","value":"any"}` +
		`},"plugin":"TrackCountingESProducer"}`
	assert.Equal(t, want, string(got))
}

func TestCanonical_DuplicateEntry(t *testing.T) {
	s := Set{Label: "x", Plugin: "P", Entries: []Entry{E("a", Int32(1)), E("a", Int32(2))}}
	_, err := s.Canonical()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate parameter")
}

func TestCanonical_NilValue(t *testing.T) {
	s := Set{Label: "x", Plugin: "P", Entries: []Entry{{Name: "a"}}}
	_, err := s.Canonical()
	require.Error(t, err)
}

func TestCanonical_NoHTMLEscaping(t *testing.T) {
	s := Set{Label: "x", Plugin: "P", Entries: []Entry{E("s", String("<a&b>"))}}
	got, err := s.Canonical()
	require.NoError(t, err)
	assert.Contains(t, string(got), `"value":"<a&b>"`)
}

func TestCanonical_LineSeparatorsLiteral(t *testing.T) {
	s := Set{Label: "x", Plugin: "P", Entries: []Entry{
		E("sep", String("a\u2028b\u2029c")),
		E("escaped", String(`a\u2028b`)),
	}}
	got, err := s.Canonical()
	require.NoError(t, err)
	assert.Contains(t, string(got), "\"value\":\"a\u2028b\u2029c\"")
	assert.Contains(t, string(got), `"value":"a\\u2028b"`)
}

func TestCanonical_NFCNormalized(t *testing.T) {
	decomposed := Set{Label: "x", Plugin: "P", Entries: []Entry{E("s", String("e\u0301"))}}
	composed := Set{Label: "x", Plugin: "P", Entries: []Entry{E("s", String("\u00e9"))}}
	assert.Equal(t, composed.MustID(), decomposed.MustID())
}

func TestID_IndependentOfEntryOrder(t *testing.T) {
	a := referenceSet()
	b := referenceSet()
	b.Entries[0], b.Entries[5] = b.Entries[5], b.Entries[0]

	assert.Equal(t, a.MustID(), b.MustID())
	assert.Len(t, a.MustID(), 64)
}

func TestID_SensitiveToValues(t *testing.T) {
	a := referenceSet()
	b := referenceSet()
	b.Entries[4] = E("nthTrack", Int32(2))
	assert.NotEqual(t, a.MustID(), b.MustID())

	c := referenceSet()
	c.Label = "trackCounting3D2nd"
	assert.NotEqual(t, a.MustID(), c.MustID())
}

func TestID_TypeIsPartOfIdentity(t *testing.T) {
	a := Set{Label: "x", Plugin: "P", Entries: []Entry{E("n", Int32(1))}}
	b := Set{Label: "x", Plugin: "P", Entries: []Entry{E("n", Double(1))}}
	assert.NotEqual(t, a.MustID(), b.MustID())
}

func TestParseCanonical_RoundTrip(t *testing.T) {
	orig := referenceSet()
	data, err := orig.Canonical()
	require.NoError(t, err)

	parsed, err := ParseCanonical(data)
	require.NoError(t, err)

	assert.Equal(t, orig.Label, parsed.Label)
	assert.Equal(t, orig.Plugin, parsed.Plugin)
	assert.Equal(t, orig.Values(), parsed.Values())
	assert.Equal(t, "deltaR", parsed.Entries[0].Name)
	assert.Equal(t, orig.MustID(), parsed.MustID())
}

func TestParseCanonical_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"unknown type", `{"label":"x","parameters":{"a":{"type":"bool","value":"true"}},"plugin":"P"}`},
		{"bad int32", `{"label":"x","parameters":{"a":{"type":"int32","value":"1.5"}},"plugin":"P"}`},
		{"int32 overflow", `{"label":"x","parameters":{"a":{"type":"int32","value":"4294967296"}},"plugin":"P"}`},
		{"non-finite double", `{"label":"x","parameters":{"a":{"type":"double","value":"NaN"}},"plugin":"P"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCanonical([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestDoubleText(t *testing.T) {
	assert.Equal(t, "0.07", Double(0.07).Text())
	assert.Equal(t, "-1", Double(-1.0).Text())
	assert.Equal(t, "5", Double(5.0).Text())
	assert.Equal(t, "1e-07", Double(1e-7).Text())
}

func TestSetLookupAndValues(t *testing.T) {
	s := referenceSet()

	v, ok := s.Lookup("deltaR")
	require.True(t, ok)
	assert.Equal(t, Double(-1.0), v)

	_, ok = s.Lookup("missing")
	assert.False(t, ok)

	values := s.Values()
	assert.Equal(t, int32(0), values["impactParameterType"])
	assert.Equal(t, 0.07, values["maximumDistanceToJetAxis"])
	assert.Equal(t, "any", values["trackQualityClass"])
}

func TestJSON_RoundTrip(t *testing.T) {
	orig := referenceSet()
	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, orig.MustID(), raw["id"])

	var back Set
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, orig, back)
}

func TestFragment_Golden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "trackCounting3D1st", []byte(FragmentHeader+"\n"+referenceSet().Fragment()))
}

func TestFragment_Empty(t *testing.T) {
	s := Set{Label: "empty", Plugin: "NoParams"}
	assert.Equal(t, "empty = cms.ESProducer(\"NoParams\")\n", s.Fragment())
}
