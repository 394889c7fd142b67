package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/gnolang/splint/internal/watch"
	"github.com/gnolang/splint/lint"
	"github.com/gnolang/splint/scanner"
)

type lintOptions struct {
	schema    string
	strict    bool
	keepGoing bool
	jobs      int
	progress  bool
	watch     bool
}

func addLintFlags(fs *pflag.FlagSet, o *lintOptions) {
	fs.StringVarP(&o.schema, "schema", "s", "", "Schema path or URL applied to every file, bypassing the catalog")
	fs.BoolVar(&o.strict, "strict", true, "Check schemas against their meta-schema before use")
	fs.BoolVar(&o.keepGoing, "keep-going", false, "Continue with the remaining files after a fatal error")
	fs.IntVarP(&o.jobs, "jobs", "j", 1, "Number of files checked at once")
	fs.BoolVar(&o.progress, "progress", false, "Show a progress bar on stderr")
	fs.BoolVarP(&o.watch, "watch", "w", false, "Check files again whenever they change")
}

// apply overrides config with the flags set on the command line.
func (o *lintOptions) apply(fs *pflag.FlagSet, config *lint.Config) {
	if fs.Changed("schema") {
		config.Schema = o.schema
	}
	if fs.Changed("strict") {
		strict := o.strict
		config.Strict = &strict
	}
	if fs.Changed("keep-going") {
		config.KeepGoing = o.keepGoing
	}
	if fs.Changed("jobs") && o.jobs > 0 {
		config.Jobs = o.jobs
	}
	if timeout > 0 {
		config.Timeout = timeout
	}
}

func newLintCmd() *cobra.Command {
	opts := &lintOptions{}
	lintCmd := &cobra.Command{
		Use:   "lint [files...]",
		Short: "Check files against their schemas",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, opts, args)
		},
	}
	addLintFlags(lintCmd.Flags(), opts)
	return lintCmd
}

func loadConfig() (lint.Config, error) {
	return lint.LoadConfig(cfgFile, cfgFile != "")
}

func runLint(cmd *cobra.Command, opts *lintOptions, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	opts.apply(cmd.Flags(), &config)

	paths, err := scanner.Expand(args)
	if err != nil {
		return fmt.Errorf("failed to expand paths: %w", err)
	}

	ctx := cmd.Context()
	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	engine, err := lint.New(logger, config)
	if err != nil {
		return fmt.Errorf("failed to initialize lint engine: %w", err)
	}

	processOpts := lint.ProcessOptions{
		KeepGoing: config.KeepGoing,
		Jobs:      config.Jobs,
	}
	if opts.progress {
		processOpts.Progress = cmd.ErrOrStderr()
	}

	summary, err := lint.ProcessFiles(ctx, logger, engine, paths, cmd.OutOrStdout(), processOpts)
	logger.Debug("run finished",
		zap.Int("files", summary.Files),
		zap.Int("violations", summary.Violations),
		zap.Int("failed", len(summary.Failed)),
	)
	if opts.watch {
		return watchFiles(cmd.Context(), engine, args, cmd.OutOrStdout())
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("linter timed out after %s: %w", config.Timeout, err)
		}
		return err
	}

	if len(summary.Failed) > 0 {
		errs := make([]error, 0, len(summary.Failed))
		for _, fe := range summary.Failed {
			errs = append(errs, fe)
		}
		return errors.Join(errs...)
	}
	if summary.Violations > 0 {
		return fmt.Errorf("%w: %d", ErrViolations, summary.Violations)
	}
	return nil
}

// watchFiles checks every changed file again until interrupted.
func watchFiles(ctx context.Context, engine lint.LintEngine, paths []string, w io.Writer) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	watcher, err := watch.New(logger, watch.DefaultDebounce)
	if err != nil {
		return err
	}
	if err := watcher.Add(paths...); err != nil {
		_ = watcher.Close()
		return err
	}

	logger.Info("watching for changes", zap.Strings("paths", paths))
	return watcher.Run(ctx, func(path string) {
		n, err := engine.Run(ctx, path, w)
		if err != nil {
			logger.Error("check failed", zap.String("file", path), zap.Error(err))
			return
		}
		logger.Info("checked file", zap.String("file", path), zap.Int("violations", n))
	})
}
