package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ptanalysis/internal/app"
	"ptanalysis/internal/exporter"
	handlers "ptanalysis/internal/transport/http"
)

type exportOptions struct {
	output string
	csvDir string
}

func exportCommand(c *cli) *cobra.Command {
	var opts exportOptions
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every report table into one xlsx workbook",
		Long: `Write every report table into one xlsx workbook.

With --csv-dir each table is also written as a UTF-8 CSV file (with BOM)
named after its sheet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApplication(cmd, c.cfg, func(ctx context.Context, a *app.Application) error {
				if err := writeWorkbook(ctx, cmd, a, opts.output); err != nil {
					return err
				}
				if opts.csvDir == "" {
					return nil
				}
				return writeCSVTables(ctx, cmd, a, opts.csvDir)
			})
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", handlers.WorkbookFileName, "workbook path")
	cmd.Flags().StringVar(&opts.csvDir, "csv-dir", "", "also write one CSV file per table into this directory")
	return cmd
}

func writeWorkbook(ctx context.Context, cmd *cobra.Command, a *app.Application, output string) error {
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := a.Reports.WriteWorkbook(ctx, f); err != nil {
		f.Close()
		os.Remove(output)
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", output, humanize.Bytes(uint64(info.Size())))
	return nil
}

func writeCSVTables(ctx context.Context, cmd *cobra.Command, a *app.Application, dir string) error {
	sheets, err := a.Reports.WorkbookSheets(ctx)
	if err != nil {
		return err
	}
	for _, s := range sheets {
		path := filepath.Join(dir, exporter.SheetName(s.Name)+".csv")
		err := exporter.WriteCSVFile(path, exporter.WriteOptions{
			Headers:   s.Headers,
			Records:   s.Rows,
			BOMPrefix: true,
		})
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d csv files to %s\n", len(sheets), dir)
	return nil
}
