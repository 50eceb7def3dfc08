package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/chronodb/chronodb/catalog/mem"
	"github.com/chronodb/chronodb/compaction"
	"github.com/chronodb/chronodb/internal/logging"
)

func addLogFlags(cmd *cobra.Command, level, format *string) {
	cmd.Flags().StringVarP(level, "log-level", "l", "info", "set log level (debug, info, warn, error)")
	cmd.Flags().StringVar(format, "log-format", "json", "set log format (text, json, json-pretty)")
}

func newLogger(level, format string) (logging.Logger, error) {
	lvl, err := logging.GetLevel(level)
	if err != nil {
		return nil, err
	}
	logger := logging.NewStandardLoggerWithFormat(format, "")
	logger.SetLevel(lvl)
	return logger, nil
}

func init() {
	var logLevel, logFormat string

	compactCommand := &cobra.Command{
		Use:   "compact",
		Short: "Run the chronodb compactor against an in-memory catalog",
	}

	runCommand := &cobra.Command{
		Use:   "run",
		Short: "Run the compactor continuously, cycling hot and cold partitions",
		Long: `Start the long-running compactor. It repeats compaction cycles
following the configured hot/cold schedule until interrupted, selecting
candidate partitions from the catalog, packing their files within the
memory budget, and recording any partitions it had to skip.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(logLevel, logFormat)
			if err != nil {
				return err
			}
			v := viper.New()
			cfg := compaction.NewCompactorConfig(cmd.Flags(), v)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cat := mem.New(logger)
			runner, err := compaction.NewRunner(cfg.Config, cat, logger, nil, prometheus.DefaultRegisterer)
			if err != nil {
				return err
			}
			return runner.Run(ctx)
		},
	}

	runOnceCommand := &cobra.Command{
		Use:   "run-once",
		Short: "Run a single compaction cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(logLevel, logFormat)
			if err != nil {
				return err
			}
			v := viper.New()
			cfg := compaction.NewCompactorOnceConfig(cmd.Flags(), v)

			cat := mem.New(logger)
			runner, err := compaction.NewRunner(cfg.IntoCompactorConfig().Config, cat, logger, nil, nil)
			if err != nil {
				return err
			}
			if err := runner.RunOnce(context.Background()); err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}
			return nil
		},
	}

	addLogFlags(runCommand, &logLevel, &logFormat)
	addLogFlags(runOnceCommand, &logLevel, &logFormat)

	compactCommand.AddCommand(runCommand, runOnceCommand)
	rootCommand.AddCommand(compactCommand)
}
