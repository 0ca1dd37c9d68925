package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ptanalysis/internal/app"
	"ptanalysis/internal/report"
	"ptanalysis/internal/snapshot"
	"ptanalysis/internal/web"
)

type snapshotOptions struct {
	baseURL   string
	outDir    string
	landscape bool
}

func snapshotCommand(c *cli) *cobra.Command {
	var opts snapshotOptions
	cmd := &cobra.Command{
		Use:   "snapshot [page...]",
		Short: "Print dashboard pages to PDF with a headless Chrome",
		Long: "Print dashboard pages to PDF. Without --url the dashboard is served " +
			"in-process on a loopback port for the duration of the command. " +
			"Pages: " + strings.Join(report.Slugs, ", ") + " (default: all).",
		RunE: func(cmd *cobra.Command, args []string) error {
			slugs := args
			if len(slugs) == 0 {
				slugs = report.Slugs
			}
			for _, s := range slugs {
				if !slices.Contains(report.Slugs, s) {
					return fmt.Errorf("unknown page %q", s)
				}
			}
			return c.snapshot(cmd, opts, slugs)
		},
	}
	cmd.Flags().StringVar(&opts.baseURL, "url", "", "base URL of a running dashboard")
	cmd.Flags().StringVarP(&opts.outDir, "output-dir", "o", ".", "directory for the PDF files")
	cmd.Flags().BoolVar(&opts.landscape, "landscape", false, "landscape orientation (overrides snapshot.landscape)")
	return cmd
}

func (c *cli) snapshot(cmd *cobra.Command, opts snapshotOptions, slugs []string) error {
	cfg := c.cfg.Snapshot
	if opts.landscape {
		cfg.Landscape = true
	}
	printer := snapshot.New(cfg, c.batchLogger(cmd))
	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		return err
	}

	printPages := func(ctx context.Context, base string) error {
		base = strings.TrimSuffix(base, "/")
		for _, slug := range slugs {
			path := filepath.Join(opts.outDir, snapshot.FileName(slug, time.Now()))
			if err := printer.WriteFile(ctx, base+web.PageURL(slug), path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
		}
		return nil
	}

	if opts.baseURL != "" {
		if err := snapshot.ValidateURL(opts.baseURL); err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return printPages(ctx, opts.baseURL)
	}

	// the in-process server is loopback only, so the access gate is dropped
	local := *c.cfg
	local.Security.Access.Users = nil
	local.Security.RateLimit.Enabled = false
	return c.withApplication(cmd, &local, func(ctx context.Context, a *app.Application) error {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return err
		}
		srv := &http.Server{Handler: a.Router, ReadHeaderTimeout: 10 * time.Second}
		go func() {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.Logger.Error("Snapshot server stopped", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())

		return printPages(ctx, "http://"+ln.Addr().String())
	})
}
