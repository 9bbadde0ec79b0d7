package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/btagcfg/internal/jobid"
	"github.com/roach88/btagcfg/internal/params"
	"github.com/roach88/btagcfg/internal/pset"
	"github.com/roach88/btagcfg/internal/registry"
	"github.com/roach88/btagcfg/internal/store"
)

// RegisterOptions holds register flags.
type RegisterOptions struct {
	Database string
}

// Computer is a configured b-tag computer as the catalog sees it. The
// tagging algorithm lives outside this tool; the record is what it would
// be constructed with.
type Computer struct {
	Label  string
	Plugin string
	PSetID string
	Record *params.Record
}

// newComputer is the factory for TrackCountingESProducer.
func newComputer(_ context.Context, rec *params.Record) (Computer, error) {
	return Computer{
		Label:  rec.Name(),
		Plugin: rec.Plugin(),
		PSetID: rec.ID(),
		Record: rec,
	}, nil
}

// NewComputerRegistry returns a registry with every known plugin registered.
func NewComputerRegistry(logger *slog.Logger) *registry.Registry[Computer] {
	reg := registry.New[Computer](registry.WithLogger(logger))
	if err := reg.Register(params.DefaultPlugin, newComputer); err != nil {
		panic(err) // fresh registry, cannot collide
	}
	return reg
}

// RegisterResult is the outcome of one register run.
type RegisterResult struct {
	JobID         string          `json:"job_id"`
	Source        string          `json:"source"`
	ParameterSets []RegisteredSet `json:"parameter_sets"`
}

// RegisteredSet is one parameter set written by register.
type RegisteredSet struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Inserted bool   `json:"inserted"` // false when the catalog already held it
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	return newRegisterCommand(rootOpts, jobid.UUIDv7Generator{})
}

func newRegisterCommand(rootOpts *RootOptions, ids jobid.Generator) *cobra.Command {
	opts := &RegisterOptions{}

	cmd := &cobra.Command{
		Use:   "register <path>",
		Short: "Validate, configure and catalog parameter sets",
		Long: `Validate every parameter set under path, configure a computer for each
through the plugin registry, and record the sets and the job in the catalog.

Nothing is written unless every set is valid and every computer is
configured. Identical sets are stored once.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(cmd.Context(), rootOpts, opts, ids, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "btagcfg.db", "catalog database path")

	return cmd
}

func runRegister(ctx context.Context, rootOpts *RootOptions, opts *RegisterOptions, ids jobid.Generator, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	logger := newLogger(rootOpts, formatter.GetErrWriter())

	result, errs := LoadRecords(path)
	if result == nil {
		return outputLoadFailure(formatter, errs)
	}
	if len(errs) > 0 {
		return outputValidationErrors(formatter, ValidationResult{Valid: false, Files: result.Files, Errors: errs})
	}
	logger.Debug("records loaded", "path", path, "count", len(result.Records))

	reg := NewComputerRegistry(logger)
	for _, rec := range result.Records {
		if _, err := reg.Configure(ctx, rec); err != nil {
			details := map[string]string{"label": rec.Name(), "plugin": rec.Plugin()}
			if errors.Is(err, registry.ErrUnknownPlugin) {
				details["known_plugins"] = fmt.Sprint(reg.Plugins())
			}
			_ = formatter.Error(ErrCodeRegistry, err.Error(), details)
			return WrapExitError(ExitFailure, ErrCodeRegistry, err)
		}
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeStoreFailed, err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing catalog", "error", closeErr)
		}
	}()

	out := RegisterResult{
		JobID:         ids.Generate(),
		Source:        path,
		ParameterSets: make([]RegisteredSet, 0, len(result.Records)),
	}
	job := store.Job{ID: out.JobID, Source: path}
	labels := labelsInOrder(result.Records)
	sets := make([]pset.Set, 0, len(labels))
	for _, label := range labels {
		rec, _ := reg.Record(label)
		sets = append(sets, rec.Describe())
	}

	written, err := st.RegisterJob(ctx, job, sets)
	if err != nil {
		_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeStoreFailed, err)
	}
	for i, w := range written {
		logger.Debug("parameter set written", "label", labels[i], "pset_id", w.ID, "inserted", w.Inserted)
		out.ParameterSets = append(out.ParameterSets, RegisteredSet{ID: w.ID, Label: labels[i], Inserted: w.Inserted})
	}
	logger.Info("job registered", "job_id", job.ID, "parameter_sets", len(written))

	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	fmt.Fprintf(formatter.Writer, "Job %s: %d parameter set(s) from %s\n", out.JobID, len(out.ParameterSets), path)
	for _, ps := range out.ParameterSets {
		state := "new"
		if !ps.Inserted {
			state = "existing"
		}
		fmt.Fprintf(formatter.Writer, "  %-24s %s (%s)\n", ps.Label, ps.ID, state)
	}
	return nil
}

// labelsInOrder keeps the configuration order of the loaded records.
func labelsInOrder(records []*params.Record) []string {
	labels := make([]string, len(records))
	for i, rec := range records {
		labels[i] = rec.Name()
	}
	return labels
}
