package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"ptanalysis/internal/app"
	"ptanalysis/internal/config"
	"ptanalysis/internal/infrastructure"
)

// cli carries the state shared by every subcommand.
type cli struct {
	configPath string
	verbose    bool
	cfg        *config.Config
}

func newRootCommand() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "dashboard",
		Short:         config.AppName,
		Version:       config.AppVersion,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
		// serve is the default
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd, serveOptions{})
		},
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "config file (default: config.yaml or configs/config.yaml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log progress of batch commands to stderr")

	root.AddCommand(
		serveCommand(c),
		exportCommand(c),
		summaryCommand(c),
		snapshotCommand(c),
		publishCommand(c),
		hashPasswordCommand(),
	)
	return root
}

// batchLogger keeps stdout free for command output.
func (c *cli) batchLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelInfo
	}
	return infrastructure.NewJSONLogger(cmd.ErrOrStderr(), level)
}

// withApplication builds the application from base without starting the
// server or the watcher, runs fn and tears the application down.
func (c *cli) withApplication(cmd *cobra.Command, base *config.Config, fn func(ctx context.Context, a *app.Application) error) error {
	cfg := *base
	cfg.Data.Watch = false
	cfg.Telemetry.MetricExporter = "none"

	a, err := app.New(&cfg, c.batchLogger(cmd))
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		a.StopBackground(ctx)
		_ = a.OTel.Shutdown(ctx)
	}()
	return fn(ctx, a)
}
