package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.SimplifiedChinese)

// Count formats n with thousands separators, e.g. 8,000.
func Count(n int) string {
	return printer.Sprintf("%d", n)
}

// Pct formats a percentage with the given number of decimals.
func Pct(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64) + "%"
}

// trim prints v with at most two decimals and no trailing zeros.
func trim(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// oneDecimal prints v rounded to one decimal, without a trailing ".0".
func oneDecimal(v float64) string {
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}

// fill replaces {key} placeholders in a content template.
func fill(tmpl string, kv ...string) string {
	pairs := make([]string, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		pairs = append(pairs, "{"+kv[i]+"}", kv[i+1])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// cadence describes how often a user comes back every days days. A
// missing interval prints "-".
func cadence(days float64) string {
	if days <= 0 {
		return "-"
	}
	if days >= 6 && days < 9 {
		return "每周用1次"
	}
	return fmt.Sprintf("每%d天用1次", int(math.Round(days)))
}

// dayCount prints days with a 天 suffix, or "-" when no interval is known.
func dayCount(days float64) string {
	if days <= 0 {
		return "-"
	}
	return trim(days) + "天"
}

// demand labels the overall interval.
func demand(days float64) string {
	switch {
	case days < 6:
		return "高频需求"
	case days < 9:
		return "周频需求"
	default:
		return "低频需求"
	}
}
