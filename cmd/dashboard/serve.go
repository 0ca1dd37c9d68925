package main

import (
	"github.com/spf13/cobra"

	"ptanalysis/internal/app"
	"ptanalysis/internal/infrastructure"
)

type serveOptions struct {
	host    string
	port    int
	noWatch bool
}

func serveCommand(c *cli) *cobra.Command {
	var opts serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.host, "host", "", "listen host (overrides server.host)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "listen port (overrides server.port)")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "do not watch the data directory for changes")
	return cmd
}

func (c *cli) serve(cmd *cobra.Command, opts serveOptions) error {
	cfg := c.cfg
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}
	if opts.noWatch {
		cfg.Data.Watch = false
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer infrastructure.CloseLogFile()

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	return a.Run()
}
