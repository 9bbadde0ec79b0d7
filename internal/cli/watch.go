package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/btagcfg/internal/compiler"
	"github.com/roach88/btagcfg/internal/watch"
)

// WatchOptions holds watch flags.
type WatchOptions struct {
	Debounce time.Duration
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <path>",
		Short: "Revalidate parameter sets whenever their sources change",
		Long: `Validate path once, then again after every change to a .cue, .yaml or
.yml source under it, until interrupted.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().DurationVar(&opts.Debounce, "debounce", watch.DefaultDebounce, "quiet period before revalidating")

	return cmd
}

func runWatch(ctx context.Context, rootOpts *RootOptions, opts *WatchOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	logger := newLogger(rootOpts, formatter.GetErrWriter())

	if _, err := os.Stat(path); err != nil {
		msg := fmt.Sprintf("path not found: %s", path)
		_ = formatter.Error(ErrCodeNotFound, msg, nil)
		return NewExitError(ExitCommandError, ErrCodeNotFound+": "+msg)
	}

	check := func() {
		result, errs := LoadRecords(path)
		switch {
		case result == nil:
			_ = outputLoadFailure(formatter, errs)
		case len(errs) > 0:
			_ = outputValidationErrors(formatter, ValidationResult{Valid: false, Files: result.Files, Errors: errs})
		case formatter.Format == "json":
			labels := labelsInOrder(result.Records)
			_ = formatter.Success(ValidationResult{Valid: true, Labels: labels, Files: result.Files})
		default:
			fmt.Fprintf(formatter.Writer, "✓ %d parameter set(s) valid\n", len(result.Records))
		}
	}

	check()

	w, err := watch.New(path,
		func(_ context.Context, changed string) {
			logger.Debug("source changed", "path", changed)
			check()
		},
		watch.WithDebounce(opts.Debounce),
		watch.WithFilter(compiler.IsSource),
		watch.WithLogger(logger),
	)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeGeneric, err)
	}
	if err := w.Start(ctx); err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, ErrCodeGeneric, err)
	}
	logger.Info("watching", "path", path)

	<-ctx.Done()
	w.Stop()
	return nil
}
