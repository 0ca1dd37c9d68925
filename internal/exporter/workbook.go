package exporter

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/width"
)

const (
	maxSheetName = 31
	minColWidth  = 8
	maxColWidth  = 60
)

// ErrNoSheets is returned when a workbook would be empty.
var ErrNoSheets = errors.New("workbook has no sheets")

// Sheet is one table of the workbook. Cells that parse as plain numbers are
// stored as numbers; everything else stays text.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// WriteWorkbook renders sheets as an xlsx document with a bold, frozen
// header row and columns sized to their content.
func WriteWorkbook(w io.Writer, sheets []Sheet) error {
	if len(sheets) == 0 {
		return ErrNoSheets
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E8EEF4"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	seen := make(map[string]bool, len(sheets))
	for i, s := range sheets {
		name := SheetName(s.Name)
		if seen[name] {
			return fmt.Errorf("duplicate sheet name %q", name)
		}
		seen[name] = true

		if i == 0 {
			err = f.SetSheetName(f.GetSheetName(0), name)
		} else {
			_, err = f.NewSheet(name)
		}
		if err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, s, headerStyle); err != nil {
			return fmt.Errorf("failed to write sheet %s: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, s Sheet, headerStyle int) error {
	header := make([]any, len(s.Headers))
	for i, h := range s.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}

	for r, row := range s.Rows {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = CellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &cells); err != nil {
			return err
		}
	}

	if len(s.Headers) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(s.Headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", last, headerStyle); err != nil {
		return err
	}
	for i, w := range columnWidths(s) {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(name, col, col, w); err != nil {
			return err
		}
	}
	return f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// CellValue returns v as a float64 when it is a plain number. Percentages,
// thousands-separated counts and dates stay text.
func CellValue(v string) any {
	if v == "" || strings.ContainsAny(v, "%,") {
		return v
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}

func columnWidths(s Sheet) []float64 {
	widths := make([]float64, len(s.Headers))
	measure := func(i int, v string) {
		if i >= len(widths) {
			return
		}
		if w := float64(DisplayWidth(v) + 2); w > widths[i] {
			widths[i] = w
		}
	}
	for i, h := range s.Headers {
		measure(i, h)
	}
	for _, row := range s.Rows {
		for i, v := range row {
			measure(i, v)
		}
	}
	for i, w := range widths {
		widths[i] = min(max(w, minColWidth), maxColWidth)
	}
	return widths
}

// DisplayWidth counts wide (CJK) runes as two columns.
func DisplayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

// SheetName makes name valid for Excel: no []:*?/\ and at most 31 runes.
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		name = "Sheet"
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}
