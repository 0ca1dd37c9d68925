package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses a plain or thousands-separated number such as
// "1,234" or "7.11".
func ParseNumber(s string) (float64, error) {
	clean := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if clean == "" {
		return 0, fmt.Errorf("%w: empty value", ErrBadNumber)
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrBadNumber, s)
	}
	return v, nil
}

// ParsePercent parses "11.46%" as 11.46. A bare number is taken as already
// being a percentage.
func ParsePercent(s string) (float64, error) {
	return ParseNumber(strings.TrimSuffix(strings.TrimSpace(s), "%"))
}

// Value is one numeric cell. Raw keeps the text as exported so tables can
// show it unchanged; Valid is false for blank cells and for text that is not
// a number, such as "-" or "#DIV/0!".
type Value struct {
	Raw   string  `json:"raw"`
	Num   float64 `json:"num"`
	Valid bool    `json:"valid"`
}

// String returns the exported text, or "-" for a blank cell.
func (v Value) String() string {
	if v.Raw == "" {
		return "-"
	}
	return v.Raw
}

// parseValue always returns the cell; the error reports text that did not
// parse, which callers may tolerate.
func parseValue(raw string, percent bool) (Value, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return Value{}, nil
	}
	parse := ParseNumber
	if percent {
		parse = ParsePercent
	}
	n, err := parse(raw)
	if err != nil {
		return Value{Raw: raw}, err
	}
	return Value{Raw: raw, Num: n, Valid: true}, nil
}
