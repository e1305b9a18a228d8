package parser

import (
	"slices"
	"strings"
	"time"

	"github.com/aarondl/opt/omit"

	"github.com/mpapenbr/racetelemetry-analyzer/log"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
)

// column positions of the long format
const (
	longColLap       = 1
	longColName      = 8
	longColValue     = 9
	longColTimestamp = 10
	longColVehicle   = 12
	longMinColumns   = 13
)

type longEntry struct {
	raw model.RawPoint
	ts  time.Time
}

// ParseLongRaw parses the long format where each row carries one signal value.
// Rows sharing timestamp, lap and vehicle are merged into one point. Signals not
// present for a key stay absent. The result is sorted by timestamp.
func ParseLongRaw(text string, opts ...Option) ([]model.RawPoint, Stats) {
	o := newOptions(opts...)
	records, skipped := readRecords(text, ',')
	entries, stats := parseLong(records, o)
	stats.Skipped += skipped
	ret := make([]model.RawPoint, len(entries))
	for i := range entries {
		ret[i] = entries[i].raw
	}
	return ret, stats
}

//nolint:funlen // linear flow
func parseLong(records [][]string, o *options) ([]longEntry, Stats) {
	stats := Stats{}
	if len(records) < 2 {
		return []longEntry{}, stats
	}
	lookup := make(map[string]*longEntry)
	order := make([]string, 0)
	invalid := 0

	for _, values := range records[1:] {
		stats.Rows++
		if len(values) < longMinColumns {
			stats.Skipped++
			continue
		}
		tsText := strings.TrimSpace(values[longColTimestamp])
		lapText := strings.TrimSpace(values[longColLap])
		vehicleText := strings.TrimSpace(values[longColVehicle])
		key := tsText + "|" + lapText + "|" + vehicleText

		entry, ok := lookup[key]
		if !ok {
			entry = &longEntry{}
			if ts, ok := ParseTimestamp(tsText); ok {
				entry.raw.Timestamp = omit.From(tsText)
				entry.ts = ts
			}
			if lap, ok := parseInt(lapText); ok {
				entry.raw.Lap = omit.From(lap)
			}
			if vehicle, ok := parseInt(vehicleText); ok {
				entry.raw.VehicleNumber = omit.From(vehicle)
			}
			lookup[key] = entry
			order = append(order, key)
		}

		field, known := LongSignals[strings.TrimSpace(values[longColName])]
		if !known {
			continue
		}
		v, ok := parseFloat(values[longColValue])
		if !ok {
			invalid++
			continue
		}
		if field == model.FieldSpeed {
			v = o.speed(v)
		}
		entry.raw.Set(field, v)
	}

	ret := make([]longEntry, 0, len(order))
	for _, key := range order {
		e := lookup[key]
		if e.raw.Timestamp.IsUnset() || e.raw.Lap.IsUnset() {
			stats.Skipped++
			continue
		}
		ret = append(ret, *e)
	}
	slices.SortStableFunc(ret, func(a, b longEntry) int {
		return a.ts.Compare(b.ts)
	})
	stats.Points = len(ret)
	o.logger.Debug("parsed long format",
		log.Int("rows", stats.Rows),
		log.Int("skipped", stats.Skipped),
		log.Int("invalidValues", invalid),
		log.Int("points", stats.Points))
	return ret, stats
}
