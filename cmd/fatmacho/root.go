package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/turbokube/fatmacho/pkg/build"
	"go.uber.org/zap"
)

var (
	BUILD      = "development"
	debug      bool
	version    bool
	loggerMode string
	workdir    string
	// timing
	tStart = time.Now()
)

// newRootCmd binds flags to the package level vars, resetting them to defaults
func newRootCmd() *cobra.Command {
	c := &cobra.Command{
		Use:          "fatmacho",
		Short:        "Build, split and publish fat Mach-O binaries",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if version {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", BUILD)
				return nil
			}
			return cmd.Help()
		},
	}
	c.PersistentFlags().BoolVarP(&debug, "x", "x", false, "logs at debug level")
	c.PersistentFlags().BoolVar(&version, "version", false, "print build version and exit")
	c.PersistentFlags().StringVar(&loggerMode, "logger", "dev", "log format, dev or plain")
	c.PersistentFlags().StringVarP(&workdir, "C", "C", "", "change to this directory before resolving paths")

	c.AddCommand(newCreateCmd())
	c.AddCommand(newThinCmd())
	c.AddCommand(newExtractCmd())
	c.AddCommand(newRemoveCmd())
	c.AddCommand(newInfoCmd())
	c.AddCommand(newVerifyArchCmd())
	c.AddCommand(newExportCmd())
	c.AddCommand(newImportCmd())
	c.AddCommand(newSchemaCmd())
	return c
}

// withSetup installs the global logger and the -C working dir for the duration of run
func withSetup(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if version {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s\n", BUILD)
			return nil
		}

		logger := newLogger(cmd.ErrOrStderr())
		defer logger.Sync()
		undo := zap.ReplaceGlobals(logger)
		defer undo()

		if workdir != "" && workdir != "." && workdir != "./" {
			chdir, err := build.NewChdir(workdir)
			if err != nil {
				return fmt.Errorf("-C %s: %w", workdir, err)
			}
			defer chdir.Cleanup()
		}
		return run(cmd, args)
	}
}
