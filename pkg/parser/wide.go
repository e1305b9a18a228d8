package parser

import (
	"time"

	"github.com/mpapenbr/racetelemetry-analyzer/log"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
)

const (
	wideMinColumns       = 3
	syntheticDistanceGap = 10.0                   // meters between rows without distance column
	syntheticSampleGap   = 100 * time.Millisecond // time between rows without timestamp column
)

// ParseWide parses the wide format with one sample per row.
// Missing numeric values default to 0. A single neighbour-average pass fills zero
// values of speed, throttle, front brake and the accelerations.
func ParseWide(text string, opts ...Option) ([]model.TelemetryPoint, Stats) {
	o := newOptions(opts...)
	records, skipped := readRecords(text, ',')
	ret, stats := parseWide(records, o)
	stats.Skipped += skipped
	return ret, stats
}

//nolint:funlen,cyclop // one branch per column
func parseWide(records [][]string, o *options) ([]model.TelemetryPoint, Stats) {
	stats := Stats{}
	if len(records) < 2 {
		return []model.TelemetryPoint{}, stats
	}
	cols := ResolveColumns(records[0], WideColumns)
	o.logger.Debug("resolved wide columns", log.Any("columns", cols))

	col := func(f model.Field) int {
		if idx, ok := cols[f]; ok {
			return idx
		}
		return -1
	}
	num := func(values []string, f model.Field) float64 {
		v, _ := floatAt(values, col(f))
		return v
	}

	ret := make([]model.TelemetryPoint, 0, len(records)-1)
	for row, values := range records[1:] {
		stats.Rows++
		if len(values) < wideMinColumns {
			stats.Skipped++
			continue
		}
		speed := 0.0
		if idx := col(model.FieldSpeed); idx >= 0 {
			v, ok := floatAt(values, idx)
			if !ok || v < 0 {
				stats.Skipped++
				continue
			}
			speed = o.speed(v)
		}

		p := model.TelemetryPoint{
			Lap:        1,
			Speed:      speed,
			Throttle:   num(values, model.FieldThrottle),
			BrakeFront: num(values, model.FieldBrakeFront),
			BrakeRear:  num(values, model.FieldBrakeRear),
			Steering:   num(values, model.FieldSteering),
			RPM:        num(values, model.FieldRPM),
			AccX:       num(values, model.FieldAccX),
			AccY:       num(values, model.FieldAccY),
			Latitude:   num(values, model.FieldLatitude),
			Longitude:  num(values, model.FieldLongitude),
		}
		if idx := col(model.FieldLap); idx >= 0 {
			if lap, ok := parseInt(stringAt(values, idx)); ok && lap > 0 {
				p.Lap = lap
			}
		}
		if idx := col(model.FieldGear); idx >= 0 {
			p.Gear, _ = parseInt(stringAt(values, idx))
		}
		if idx := col(model.FieldVehicleNumber); idx >= 0 {
			p.VehicleNumber, _ = parseInt(stringAt(values, idx))
		}
		if idx := col(model.FieldDistance); idx >= 0 {
			p.Distance, _ = floatAt(values, idx)
		} else {
			p.Distance = float64(row) * syntheticDistanceGap
		}
		synthetic := time.Unix(0, 0).UTC().Add(time.Duration(row) * syntheticSampleGap)
		p.Timestamp = synthetic
		if idx := col(model.FieldTimestamp); idx >= 0 {
			if ts, ok := ParseTimestamp(stringAt(values, idx)); ok {
				p.Timestamp = ts
			}
		}
		ret = append(ret, p)
	}
	interpolateZeros(ret)
	stats.Points = len(ret)
	o.logger.Debug("parsed wide format",
		log.Int("rows", stats.Rows),
		log.Int("skipped", stats.Skipped),
		log.Int("points", stats.Points))
	return ret, stats
}

// interpolateZeros replaces zero values flanked by two non-zero neighbours with
// their average. Points are modified in place from left to right.
func interpolateZeros(points []model.TelemetryPoint) {
	accessors := []func(p *model.TelemetryPoint) *float64{
		func(p *model.TelemetryPoint) *float64 { return &p.Speed },
		func(p *model.TelemetryPoint) *float64 { return &p.Throttle },
		func(p *model.TelemetryPoint) *float64 { return &p.BrakeFront },
		func(p *model.TelemetryPoint) *float64 { return &p.AccX },
		func(p *model.TelemetryPoint) *float64 { return &p.AccY },
	}
	for i := 1; i < len(points)-1; i++ {
		for _, field := range accessors {
			cur := field(&points[i])
			prev := *field(&points[i-1])
			next := *field(&points[i+1])
			if *cur == 0 && prev != 0 && next != 0 {
				*cur = (prev + next) / 2
			}
		}
	}
}
