package parser

import (
	"encoding/csv"
	"errors"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// layouts accepted for textual timestamps, tried in order
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// epoch values above this are treated as milliseconds
const epochMillisThreshold = 1e11

// ParseTimestamp parses the timestamp formats found in the telemetry sources.
// Numeric values are unix epoch seconds or milliseconds.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		if math.Abs(v) > epochMillisThreshold {
			return time.UnixMilli(int64(v)).UTC(), true
		}
		sec, frac := math.Modf(v)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
	}
	return time.Time{}, false
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseInt accepts integral text as well as decimals like "3.0"
func parseInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if v, err := strconv.Atoi(s); err == nil {
		return v, true
	}
	if v, ok := parseFloat(s); ok {
		return int(math.Trunc(v)), true
	}
	return 0, false
}

func floatAt(values []string, idx int) (float64, bool) {
	if idx < 0 || idx >= len(values) {
		return 0, false
	}
	return parseFloat(values[idx])
}

func stringAt(values []string, idx int) string {
	if idx < 0 || idx >= len(values) {
		return ""
	}
	return strings.TrimSpace(values[idx])
}

// readRecords splits text into CSV records. Records the csv reader rejects are
// counted as skipped. Blank lines are ignored.
func readRecords(text string, comma rune) (records [][]string, skipped int) {
	r := csv.NewReader(strings.NewReader(strings.TrimSpace(text)))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.ReuseRecord = false
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				skipped++
				continue
			}
			break
		}
		records = append(records, rec)
	}
	return records, skipped
}

func lowerHeader(header []string) []string {
	ret := make([]string, len(header))
	for i, h := range header {
		ret[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	return ret
}
