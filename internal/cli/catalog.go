package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/btagcfg/internal/params"
	"github.com/roach88/btagcfg/internal/store"
)

// CatalogOptions holds catalog flags.
type CatalogOptions struct {
	Database string
	Label    string
}

// CatalogEntry is one catalogued parameter set in command output.
type CatalogEntry struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Plugin string `json:"plugin"`
}

// JobResult is a registered job with its parameter sets in configuration
// order.
type JobResult struct {
	ID            string         `json:"id"`
	Source        string         `json:"source"`
	ParameterSets []CatalogEntry `json:"parameter_sets"`
}

// NewCatalogCommand creates the catalog command group.
func NewCatalogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CatalogOptions{}

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect catalogued parameter sets",
	}
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "btagcfg.db", "catalog database path")

	list := &cobra.Command{
		Use:           "list",
		Short:         "List catalogued parameter sets in registration order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogList(rootOpts, opts, cmd)
		},
	}
	list.Flags().StringVar(&opts.Label, "label", "", "only list this label")

	show := &cobra.Command{
		Use:           "show <id>",
		Short:         "Show one catalogued parameter set",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogShow(rootOpts, opts, args[0], cmd)
		},
	}

	job := &cobra.Command{
		Use:           "job <id>",
		Short:         "Show a registration job and the sets it configured",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCatalogJob(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.AddCommand(list, show, job)
	return cmd
}

// openCatalog opens an existing catalog. A missing file is a command error
// rather than an empty catalog.
func openCatalog(formatter *OutputFormatter, path string) (*store.Store, error) {
	if !fileExists(path) {
		msg := fmt.Sprintf("catalog not found: %s", path)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return nil, NewExitError(ExitCommandError, ErrCodeNotFound+": "+msg)
	}
	st, err := store.Open(path)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, ErrCodeStoreFailed, err)
	}
	return st, nil
}

func runCatalogList(rootOpts *RootOptions, opts *CatalogOptions, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	st, err := openCatalog(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.ListParameterSets(cmd.Context(), opts.Label)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeStoreFailed, err)
	}

	out := make([]CatalogEntry, len(entries))
	for i, e := range entries {
		out[i] = CatalogEntry{ID: e.ID, Label: e.Label, Plugin: e.Plugin}
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	if len(out) == 0 {
		fmt.Fprintln(formatter.Writer, "No parameter sets catalogued")
		return nil
	}
	for _, e := range out {
		fmt.Fprintf(formatter.Writer, "%s  %-24s %s\n", e.ID, e.Label, e.Plugin)
	}
	return nil
}

func runCatalogShow(rootOpts *RootOptions, opts *CatalogOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	st, err := openCatalog(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	entry, err := st.ReadParameterSet(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		msg := fmt.Sprintf("parameter set %s not in catalog", id)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, ErrCodeNotFound+": "+msg)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeStoreFailed, err)
	}

	// Stored sets come back sorted by name; rebuilding the record restores
	// declaration order and re-checks the values.
	rec, err := params.FromSet(entry.Set)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, fmt.Sprintf("catalogued set %s no longer validates: %v", id, err), nil)
		return WrapExitError(ExitFailure, ErrCodeStoreFailed, err)
	}
	set := rec.Describe()

	if formatter.Format == "json" {
		return formatter.Success(set)
	}
	writeSetTable(formatter.Writer, set)
	return nil
}

func runCatalogJob(rootOpts *RootOptions, opts *CatalogOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	st, err := openCatalog(formatter, opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	job, err := st.ReadJob(cmd.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		msg := fmt.Sprintf("job %s not in catalog", id)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, ErrCodeNotFound+": "+msg)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeStoreFailed, err)
	}

	out := JobResult{ID: job.ID, Source: job.Source, ParameterSets: make([]CatalogEntry, 0, len(job.ParameterSetIDs))}
	for _, psetID := range job.ParameterSetIDs {
		e, err := st.ReadParameterSet(cmd.Context(), psetID)
		if err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, ErrCodeStoreFailed, err)
		}
		out.ParameterSets = append(out.ParameterSets, CatalogEntry{ID: e.ID, Label: e.Label, Plugin: e.Plugin})
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	fmt.Fprintf(formatter.Writer, "Job %s: %d parameter set(s) from %s\n", out.ID, len(out.ParameterSets), out.Source)
	for _, e := range out.ParameterSets {
		fmt.Fprintf(formatter.Writer, "  %s  %-24s %s\n", e.ID, e.Label, e.Plugin)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
