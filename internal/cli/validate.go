package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Labels []string     `json:"labels,omitempty"`
	Files  []string     `json:"files,omitempty"`
	Errors []*LoadError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>",
		Short: "Validate parameter sets",
		Long: `Validate every parameter set defined in a CUE or YAML file, or in all
such files under a directory.

Every problem is reported, not just the first. Exit status is 0 when all
sets are valid, 1 when any set is invalid, and 2 when the path cannot be
read.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result, errs := LoadRecords(path)
	if result == nil {
		return outputLoadFailure(formatter, errs)
	}

	formatter.VerboseLog("Read %d source file(s) from %s", len(result.Files), path)
	labels := make([]string, len(result.Records))
	for i, rec := range result.Records {
		labels[i] = rec.Name()
		formatter.VerboseLog("Valid: %s (%s)", rec.Name(), rec.Plugin())
	}

	if len(errs) > 0 {
		return outputValidationErrors(formatter, ValidationResult{
			Valid:  false,
			Labels: labels,
			Files:  result.Files,
			Errors: errs,
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Labels: labels, Files: result.Files})
	}
	fmt.Fprintf(formatter.Writer, "✓ %d parameter set(s) valid\n", len(labels))
	return nil
}

// outputLoadFailure reports a load that produced nothing at all, which is a
// command error rather than a validation failure.
func outputLoadFailure(formatter *OutputFormatter, errs []*LoadError) error {
	first := errs[0]
	_ = formatter.Error(first.Code, first.Message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", first.Code, first.Message))
}

// outputValidationErrors outputs every validation error.
func outputValidationErrors(formatter *OutputFormatter, result ValidationResult) error {
	errs := result.Errors
	exitErr := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.Format == "json" {
		if err := formatter.Failure(errs[0].Code, errs[0].Message, result); err != nil {
			return err
		}
		return exitErr
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s\n", err.Error())
	}
	return exitErr
}
