package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/btagcfg/internal/params"
	"github.com/roach88/btagcfg/internal/pset"
)

// Describe styles.
const (
	StyleText = "text"
	StyleCFI  = "cfi" // cms.ESProducer configuration fragment
)

// DescribeOptions holds describe flags.
type DescribeOptions struct {
	Preset string
	Label  string
	Style  string
}

// FragmentResult is the JSON payload of describe --style cfi.
type FragmentResult struct {
	Fragment string `json:"fragment"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DescribeOptions{}

	cmd := &cobra.Command{
		Use:   "describe [path]",
		Short: "Show the typed parameter view of parameter sets",
		Long: `Show label, plugin and the six typed parameters of each parameter set.

Sets come from a CUE or YAML path, or from a built-in preset with --preset.
With neither, all presets are shown. --style cfi renders configuration
fragments instead of a table.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(rootOpts, opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Preset, "preset", "", "built-in preset ("+strings.Join(params.PresetNames(), "|")+")")
	cmd.Flags().StringVar(&opts.Label, "label", "", "only describe this label")
	cmd.Flags().StringVar(&opts.Style, "style", StyleText, "text rendering (text|cfi)")

	return cmd
}

func runDescribe(rootOpts *RootOptions, opts *DescribeOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	if opts.Style != StyleText && opts.Style != StyleCFI {
		return usageError(formatter, fmt.Sprintf("invalid style %q: must be %s or %s", opts.Style, StyleText, StyleCFI))
	}
	if len(args) == 1 && opts.Preset != "" {
		return usageError(formatter, "give a path or --preset, not both")
	}

	records, err := describeRecords(formatter, opts, args)
	if err != nil {
		return err
	}

	if opts.Label != "" {
		records = slices.DeleteFunc(records, func(r *params.Record) bool { return r.Name() != opts.Label })
		if len(records) == 0 {
			msg := fmt.Sprintf("label %q not found", opts.Label)
			_ = formatter.Error(ErrCodeNotFound, msg, nil)
			return NewExitError(ExitCommandError, ErrCodeNotFound+": "+msg)
		}
	}

	sets := make([]pset.Set, len(records))
	for i, rec := range records {
		sets[i] = rec.Describe()
	}

	if opts.Style == StyleCFI {
		fragment := renderFragments(sets)
		if formatter.Format == "json" {
			return formatter.Success(FragmentResult{Fragment: fragment})
		}
		_, err := io.WriteString(formatter.Writer, fragment)
		return err
	}

	if formatter.Format == "json" {
		return formatter.Success(sets)
	}
	for i, set := range sets {
		if i > 0 {
			fmt.Fprintln(formatter.Writer)
		}
		writeSetTable(formatter.Writer, set)
	}
	return nil
}

// describeRecords resolves the records named by a path or preset.
func describeRecords(formatter *OutputFormatter, opts *DescribeOptions, args []string) ([]*params.Record, error) {
	switch {
	case opts.Preset != "":
		rec, ok := params.Preset(opts.Preset)
		if !ok {
			msg := fmt.Sprintf("unknown preset %q (have %s)", opts.Preset, strings.Join(params.PresetNames(), ", "))
			_ = formatter.Error(ErrCodeNotFound, msg, nil)
			return nil, NewExitError(ExitCommandError, ErrCodeNotFound+": "+msg)
		}
		return []*params.Record{rec}, nil

	case len(args) == 1:
		result, errs := LoadRecords(args[0])
		if result == nil {
			return nil, outputLoadFailure(formatter, errs)
		}
		if len(errs) > 0 {
			return nil, outputValidationErrors(formatter, ValidationResult{
				Valid:  false,
				Files:  result.Files,
				Errors: errs,
			})
		}
		return result.Records, nil

	default:
		var records []*params.Record
		for _, name := range params.PresetNames() {
			rec, _ := params.Preset(name)
			records = append(records, rec)
		}
		return records, nil
	}
}

// renderFragments joins fragments under one import header.
func renderFragments(sets []pset.Set) string {
	var b strings.Builder
	b.WriteString(pset.FragmentHeader)
	for _, set := range sets {
		b.WriteByte('\n')
		b.WriteString(set.Fragment())
	}
	return b.String()
}

func writeSetTable(w io.Writer, set pset.Set) {
	fmt.Fprintf(w, "%s (%s)\n", set.Label, set.Plugin)
	fmt.Fprintf(w, "  %-26s %s\n", "id", set.MustID())
	for _, e := range set.Entries {
		fmt.Fprintf(w, "  %-26s %-7s %s\n", e.Name, e.Value.Type(), pset.Literal(e.Value))
	}
}

func usageError(formatter *OutputFormatter, msg string) error {
	_ = formatter.Error(ErrCodeUsage, msg, nil)
	return NewExitError(ExitCommandError, ErrCodeUsage+": "+msg)
}
