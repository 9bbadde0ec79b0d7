// Command btagcfg validates, describes and catalogs b-tag computer
// parameter sets.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/btagcfg/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	// Commands report their own failures as ExitErrors. Anything else came
	// from cobra itself (unknown command, bad flag, wrong arg count).
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
