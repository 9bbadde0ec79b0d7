package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/btagcfg/internal/testutil"
)

func TestValidateValidSources(t *testing.T) {
	dir := validSources(t)

	out, _, err := runCommand(NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 2 parameter set(s) valid")
}

func TestValidateValidSourcesJSON(t *testing.T) {
	dir := validSources(t)

	out, _, err := runCommand(NewValidateCommand(&RootOptions{Format: "json"}), dir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, []string{"trackCounting3D1st", "trackCounting3D2nd"}, resp.Data.Labels)
	assert.Len(t, resp.Data.Files, 2)
}

func TestValidateSingleFile(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "btag.yml", testutil.ReferenceYAML)

	out, _, err := runCommand(NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 1 parameter set(s) valid")
}

func TestValidateNonExistentPath(t *testing.T) {
	out, _, err := runCommand(NewValidateCommand(&RootOptions{Format: "text"}), "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	_, _, err := runCommand(NewValidateCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNoFiles)
}

func TestValidateNoRecords(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "other.yaml", "unrelated: true\n")

	out, _, err := runCommand(NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, ErrCodeNoRecords)
}

func TestValidateUnsupportedFile(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "btag.txt", "x")

	_, _, err := runCommand(NewValidateCommand(&RootOptions{Format: "text"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "E214")
}

func TestValidateInvalidRecord(t *testing.T) {
	dir := validSources(t)
	testutil.WriteFile(t, dir, "bad.yaml", invalidYAML)

	out, _, err := runCommand(NewValidateCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "2 error(s)")

	assert.Contains(t, out, "✗ Validation failed")
	badFile := filepath.Join(dir, "bad.yaml")
	assert.Contains(t, out, badFile+":7: E204: badCounting.nthTrack:")
	assert.Contains(t, out, badFile+":8: E205: badCounting.trackQualityClass:")
}

func TestValidateInvalidRecordJSON(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "bad.yaml", invalidYAML)

	out, _, err := runCommand(NewValidateCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 2)

	var fields []string
	for _, e := range resp.Data.Errors {
		fields = append(fields, e.Field)
	}
	assert.ElementsMatch(t, []string{"nthTrack", "trackQualityClass"}, fields)
	require.NotNil(t, resp.Error)
	assert.Equal(t, resp.Data.Errors[0].Code, resp.Error.Code)
}

func TestValidateVerboseOutput(t *testing.T) {
	dir := validSources(t)

	out, errOut, err := runCommand(NewValidateCommand(&RootOptions{Format: "json", Verbose: true}), dir)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Read 2 source file(s)")
	assert.Contains(t, errOut, "Valid: trackCounting3D1st (TrackCountingESProducer)")

	// stdout stays pure JSON
	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
}

func TestLoadRecords_CollectsGoodAndBad(t *testing.T) {
	dir := validSources(t)
	testutil.WriteFile(t, dir, "bad.yaml", invalidYAML)

	result, errs := LoadRecords(dir)
	require.NotNil(t, result)
	assert.Len(t, result.Records, 2)
	assert.Len(t, errs, 2)
	for _, e := range errs {
		assert.Equal(t, "badCounting", e.Label)
		assert.NotZero(t, e.Line)
	}
}

func TestLoadError_Error(t *testing.T) {
	tests := []struct {
		err  LoadError
		want string
	}{
		{LoadError{Code: "E005", Message: "path not found: x"}, "E005: path not found: x"},
		{LoadError{Code: "E210", Message: "bad", File: "a.cue"}, "a.cue: E210: bad"},
		{
			LoadError{Code: "E204", Message: "must be at least 1", File: "a.yaml", Line: 7, Label: "tc", Field: "nthTrack"},
			"a.yaml:7: E204: tc.nthTrack: must be at least 1",
		},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}
