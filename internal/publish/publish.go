// Package publish mirrors report tables into a Google Sheets spreadsheet.
// Each table owns one tab named after it; a publish replaces the tab's
// contents and adds missing tabs.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"ptanalysis/internal/config"
	"ptanalysis/internal/exporter"
	"ptanalysis/internal/infrastructure"
)

// ErrNotConfigured is returned when no spreadsheet is configured.
var ErrNotConfigured = errors.New("publish.spreadsheet_id is not set")

// Result summarizes one publish.
type Result struct {
	SpreadsheetID string
	Sheets        []string
	AddedSheets   []string
	UpdatedCells  int64
	Duration      time.Duration
}

// Publisher writes tables to one spreadsheet.
type Publisher struct {
	service       *sheets.Service
	spreadsheetID string
	timeout       time.Duration
	logger        *slog.Logger
}

// New creates a publisher. cfg.CredentialsFile, when set, names a service
// account key; extra options are passed to the Sheets client.
func New(ctx context.Context, cfg config.PublishConfig, logger *slog.Logger, opts ...option.ClientOption) (*Publisher, error) {
	if cfg.SpreadsheetID == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if cfg.CredentialsFile != "" {
		opts = append([]option.ClientOption{
			option.WithCredentialsFile(cfg.CredentialsFile),
			option.WithScopes(sheets.SpreadsheetsScope),
		}, opts...)
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Publisher{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		timeout:       cfg.Timeout,
		logger:        logger.With(slog.String("component", "publish")),
	}, nil
}

// Publish replaces the contents of one tab per table.
func (p *Publisher) Publish(ctx context.Context, tables []exporter.Sheet) (*Result, error) {
	if len(tables) == 0 {
		return nil, exporter.ErrNoSheets
	}
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	start := time.Now()
	result := &Result{SpreadsheetID: p.spreadsheetID}

	existing, err := p.sheetTitles(ctx)
	if err != nil {
		return nil, err
	}

	var add []*sheets.Request
	ranges := make([]string, 0, len(tables))
	data := make([]*sheets.ValueRange, 0, len(tables))
	for _, t := range tables {
		title := exporter.SheetName(t.Name)
		result.Sheets = append(result.Sheets, title)
		if !existing[title] {
			existing[title] = true
			result.AddedSheets = append(result.AddedSheets, title)
			add = append(add, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: title}},
			})
		}
		ranges = append(ranges, quoteTitle(title))
		data = append(data, &sheets.ValueRange{
			Range:  quoteTitle(title) + "!A1",
			Values: Values(t),
		})
	}

	if len(add) > 0 {
		_, err := p.service.Spreadsheets.BatchUpdate(p.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: add}).
			Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to add sheets %v: %w", result.AddedSheets, err)
		}
	}

	_, err = p.service.Spreadsheets.Values.BatchClear(p.spreadsheetID, &sheets.BatchClearValuesRequest{Ranges: ranges}).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to clear sheets: %w", err)
	}

	resp, err := p.service.Spreadsheets.Values.BatchUpdate(p.spreadsheetID, &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "RAW",
		Data:             data,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to write sheets: %w", err)
	}

	result.UpdatedCells = resp.TotalUpdatedCells
	result.Duration = time.Since(start)
	p.logger.InfoContext(ctx, "Tables published",
		slog.String("spreadsheet_id", p.spreadsheetID),
		slog.Any("sheets", result.Sheets),
		slog.Any("added", result.AddedSheets),
		slog.Int64("updated_cells", result.UpdatedCells),
		slog.Duration("duration", result.Duration))
	return result, nil
}

func (p *Publisher) sheetTitles(ctx context.Context) (map[string]bool, error) {
	ss, err := p.service.Spreadsheets.Get(p.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet %s: %w", p.spreadsheetID, err)
	}
	titles := make(map[string]bool, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			titles[s.Properties.Title] = true
		}
	}
	return titles, nil
}

// Values lays a table out as spreadsheet rows, header first. Plain numbers
// become numeric cells.
func Values(t exporter.Sheet) [][]any {
	out := make([][]any, 0, len(t.Rows)+1)
	header := make([]any, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	out = append(out, header)
	for _, row := range t.Rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = exporter.CellValue(v)
		}
		out = append(out, cells)
	}
	return out
}

// quoteTitle quotes a tab name for A1 notation.
func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
