package session

import (
	"strconv"
	"strings"
	"time"
)

// FormatTime is the canonical form for every timestamp written to the store.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// legacyLayouts are the finite set of formats older rows were written in.
var legacyLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
}

// sheetEpoch is day zero of spreadsheet numeric date serials.
var sheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// ParseStoredTime accepts the documented legacy timestamp formats plus
// spreadsheet day serials and unix seconds. It never fails: an unparseable
// value degrades to the zero time, which sorts last in newest-first views.
func ParseStoredTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range legacyLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		// Unix seconds for plausibly-modern values, day serial otherwise.
		if f > 10_000_000 {
			return time.Unix(int64(f), 0).UTC()
		}
		return sheetEpoch.Add(time.Duration(f * float64(24*time.Hour))).UTC()
	}
	return time.Time{}
}

// ParseStoredBool reads a stringified completed flag. Rows written before the
// flag existed have no value and count as completed, as does garbage.
func ParseStoredBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "false", "0", "no":
		return false
	default:
		return true
	}
}
