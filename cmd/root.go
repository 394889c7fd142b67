package cmd

import (
	"errors"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ErrViolations is returned when the run completed but found violations.
var ErrViolations = errors.New("violations found")

var (
	cfgFile string
	timeout time.Duration
	verbose bool
	noColor bool

	logger = zap.NewNop()
)

func newRootCmd() *cobra.Command {
	opts := &lintOptions{}

	rootCmd := &cobra.Command{
		Use:   "splint [files...]",
		Short: "splint - check configuration files against their schemas",
		Long: `splint checks JSON and YAML files against a schema given with --schema,
or against every schema of the built-in catalog whose file patterns match
the file name.`,
		Args:          cobra.ArbitraryArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				color.NoColor = true
			}
			l, err := newLogger(verbose)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// no subcommand
			if len(args) == 0 {
				return cmd.Help()
			}
			// splint [file1 file2 ...] => behaves like the lint subcommand
			return runLint(cmd, opts, args)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "Path to the configuration file (default .splint.yaml)")
	flags.DurationVar(&timeout, "timeout", 0, "Timeout for the whole run (overrides the configuration)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")

	addLintFlags(rootCmd.Flags(), opts)

	rootCmd.AddCommand(newLintCmd())
	rootCmd.AddCommand(newCatalogCmd())
	rootCmd.AddCommand(newInitCmd())
	return rootCmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Execute runs the command line and returns the error that ended it.
func Execute() error {
	defer func() { _ = logger.Sync() }()
	return newRootCmd().Execute()
}
