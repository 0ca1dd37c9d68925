package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrMissingColumn is wrapped when an export lacks a required column.
	ErrMissingColumn = errors.New("missing column")
	// ErrEmptyFile is returned for an export without a header row.
	ErrEmptyFile = errors.New("csv has no header row")
	// ErrBadNumber is wrapped when a numeric cell cannot be parsed.
	ErrBadNumber = errors.New("invalid number")
)

// Table is a parsed CSV export: a header row and string cells.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string

	index map[string]int
}

// ReadCSV opens path and parses it. The table is named after the path.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return ParseCSV(path, f)
}

// ParseCSV parses r as UTF-8 CSV, dropping a leading byte order mark.
// Short rows are padded to the header width and header names are trimmed.
func ParseCSV(name string, r io.Reader) (*Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	reader := csv.NewReader(decoded)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("parse %s: %w", name, ErrEmptyFile)
	}

	t := &Table{
		Name:    name,
		Headers: make([]string, len(records[0])),
		index:   make(map[string]int, len(records[0])),
	}
	for i, h := range records[0] {
		h = strings.TrimSpace(h)
		t.Headers[i] = h
		if _, dup := t.index[h]; !dup {
			t.index[h] = i
		}
	}

	width := len(t.Headers)
	t.Rows = make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < width {
			padded := make([]string, width)
			copy(padded, rec)
			rec = padded
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Has reports whether the table has the named column.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Require checks that every named column is present.
func (t *Table) Require(cols ...string) error {
	for _, c := range cols {
		if !t.Has(c) {
			return fmt.Errorf("%s: %w %q", t.Name, ErrMissingColumn, c)
		}
	}
	return nil
}

// Value returns the trimmed cell of row for col, or "" when the column is
// absent.
func (t *Table) Value(row int, col string) string {
	i, ok := t.index[col]
	if !ok || row < 0 || row >= len(t.Rows) || i >= len(t.Rows[row]) {
		return ""
	}
	return strings.TrimSpace(t.Rows[row][i])
}
