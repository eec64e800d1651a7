package dataset

import (
	"strconv"
	"strings"
	"time"
)

// OutputDateLayout is the DD-MM-YYYY form the preparer writes.
const OutputDateLayout = "02-01-2006"

// Dash-separated dates are day-first, slash-separated dates month-first.
var dateLayouts = []string{
	"2-1-2006",
	"2006-1-2",
	"1/2/2006",
	"2006/1/2",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2-1-2006 15:04",
	"2-1-2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 15:04:05",
}

// ParseOrderDate parses the mixed date formats seen in order exports.
func ParseOrderDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var nullTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"null": {}, "NULL": {}, "None": {}, "#N/A": {}, "<NA>": {}, "#NA": {},
}

// IsNull reports whether a raw cell counts as missing.
func IsNull(s string) bool {
	_, ok := nullTokens[strings.TrimSpace(s)]
	return ok
}

// parseNumber accepts plain numbers, thousands separators and comma decimals.
func parseNumber(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.ReplaceAll(raw, "\u00A0", "")
	raw = strings.ReplaceAll(raw, " ", "")
	for _, sym := range []string{"$", "€", "£", "₹"} {
		raw = strings.ReplaceAll(raw, sym, "")
	}
	if raw == "" {
		return 0, false
	}
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0:
		if cpos > dpos {
			// 1.234,56
			raw = strings.ReplaceAll(raw, ".", "")
			raw = strings.Replace(raw, ",", ".", 1)
		} else {
			// 1,234.56
			raw = strings.ReplaceAll(raw, ",", "")
		}
	case cpos >= 0:
		// a single group of three digits after the last comma reads as thousands
		if len(raw)-cpos-1 == 3 {
			raw = strings.ReplaceAll(raw, ",", "")
		} else {
			raw = strings.ReplaceAll(raw, ",", ".")
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
