package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"ptanalysis/internal/app"
	"ptanalysis/internal/exporter"
)

func summaryCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print the usage-tier table and the feedback distribution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApplication(cmd, c.cfg, func(ctx context.Context, a *app.Application) error {
				sheets, err := a.Reports.SummarySheets(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for i, s := range sheets {
					if i > 0 {
						fmt.Fprintln(out)
					}
					printTable(out, s)
				}
				return nil
			})
		},
	}
}

// printTable aligns columns by display width so CJK cells line up.
func printTable(w io.Writer, s exporter.Sheet) {
	widths := make([]int, len(s.Headers))
	measure := func(row []string) {
		for i, v := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], exporter.DisplayWidth(v))
			}
		}
	}
	measure(s.Headers)
	for _, row := range s.Rows {
		measure(row)
	}

	line := func(row []string) {
		var b strings.Builder
		for i, v := range row {
			if i >= len(widths) {
				break
			}
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(v)
			if i < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[i]-exporter.DisplayWidth(v)))
			}
		}
		fmt.Fprintln(w, b.String())
	}

	fmt.Fprintln(w, s.Name)
	line(s.Headers)
	total := 0
	for _, n := range widths {
		total += n
	}
	fmt.Fprintln(w, strings.Repeat("-", total+2*(len(widths)-1)))
	for _, row := range s.Rows {
		line(row)
	}
}
