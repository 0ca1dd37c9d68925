package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ptanalysis/internal/app"
	"ptanalysis/internal/publish"
)

func publishCommand(c *cli) *cobra.Command {
	var spreadsheetID string
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Mirror the usage-tier table and feedback distribution to Google Sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if spreadsheetID != "" {
				c.cfg.Publish.SpreadsheetID = spreadsheetID
			}
			return c.withApplication(cmd, c.cfg, func(ctx context.Context, a *app.Application) error {
				p, err := publish.New(ctx, c.cfg.Publish, a.Logger)
				if err != nil {
					return err
				}
				sheets, err := a.Reports.SummarySheets(ctx)
				if err != nil {
					return err
				}
				res, err := p.Publish(ctx, sheets)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "published %d sheets (%d cells) to %s\n",
					len(res.Sheets), res.UpdatedCells, res.SpreadsheetID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&spreadsheetID, "spreadsheet", "", "spreadsheet ID (overrides publish.spreadsheet_id)")
	return cmd
}
