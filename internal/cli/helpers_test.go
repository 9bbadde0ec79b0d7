package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"

	"github.com/roach88/btagcfg/internal/testutil"
)

// runCommand executes cmd with args and returns stdout, stderr and the error.
func runCommand(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// validSources writes one CUE and one YAML source into a fresh directory.
func validSources(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "btag.cue", testutil.ReferenceCUE)
	testutil.WriteFile(t, dir, "more/btag.yaml", testutil.ReferenceYAML)
	return dir
}

const invalidYAML = `esproducer:
  badCounting:
    impactParameterType: 0
    maximumDistanceToJetAxis: 0.07
    deltaR: -1.0
    maximumDecayLength: 5.0
    nthTrack: 0
    trackQualityClass: bogus
`
