// Package laps segments a telemetry stream into laps and derives lap summaries.
package laps

import (
	"slices"
	"strconv"
	"time"

	"github.com/samber/lo"

	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/units"
)

const sectors = 3

type Option func(*options)

type options struct {
	maxLapTime time.Duration
}

// WithMaxLapTime sets the bound at or above which lap times are discarded.
func WithMaxLapTime(d time.Duration) Option {
	return func(o *options) {
		o.maxLapTime = d
	}
}

// BackfillDistance returns the points ordered by timestamp.
// If no point carries a distance, the distance is integrated from the average speed
// of consecutive points. The integration restarts at 0 when the lap changes.
func BackfillDistance(points []model.TelemetryPoint) []model.TelemetryPoint {
	ret := slices.Clone(points)
	slices.SortStableFunc(ret, func(a, b model.TelemetryPoint) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	if slices.ContainsFunc(ret, func(p model.TelemetryPoint) bool { return p.Distance > 0 }) {
		return ret
	}
	dist := 0.0
	for i := 1; i < len(ret); i++ {
		prev, cur := &ret[i-1], &ret[i]
		if cur.Lap != prev.Lap {
			dist = 0
			cur.Distance = 0
			continue
		}
		if dt := cur.Timestamp.Sub(prev.Timestamp).Seconds(); dt > 0 {
			dist += units.KPHToMPS((prev.Speed+cur.Speed)/2) * dt
		}
		cur.Distance = dist
	}
	return ret
}

// GroupByLap partitions points by lap number keeping their order.
func GroupByLap(points []model.TelemetryPoint) map[int][]model.TelemetryPoint {
	return lo.GroupBy(points, func(p model.TelemetryPoint) int { return p.Lap })
}

// SortedLaps returns the lap numbers of byLap in ascending order.
func SortedLaps(byLap map[int][]model.TelemetryPoint) []int {
	ret := lo.Keys(byLap)
	slices.Sort(ret)
	return ret
}

// DeriveLapData computes a lap summary from the first and last timestamp of each lap.
// Laps with a lap time outside (0, max lap time) are dropped.
func DeriveLapData(byLap map[int][]model.TelemetryPoint, opts ...Option) []model.LapData {
	o := &options{maxLapTime: 300 * time.Second}
	for _, opt := range opts {
		opt(o)
	}
	ret := []model.LapData{}
	for _, lap := range SortedLaps(byLap) {
		pts := byLap[lap]
		if len(pts) == 0 {
			continue
		}
		first, last := pts[0], pts[len(pts)-1]
		lapTime := last.Timestamp.Sub(first.Timestamp).Seconds()
		if lapTime <= 0 || lapTime >= o.maxLapTime.Seconds() {
			continue
		}
		ld := model.LapData{
			Lap:           lap,
			LapTime:       lapTime,
			Valid:         true,
			VehicleNumber: first.VehicleNumber,
			VehicleID:     strconv.Itoa(first.VehicleNumber),
			Timestamp:     first.Timestamp,
		}
		if splits, ok := sectorTimes(pts); ok {
			ld.Sector1, ld.Sector2, ld.Sector3 = &splits[0], &splits[1], &splits[2]
		}
		ret = append(ret, ld)
	}
	return ret
}

// sectorTimes splits the lap at 1/3 and 2/3 of its covered distance.
func sectorTimes(pts []model.TelemetryPoint) ([sectors]float64, bool) {
	var ret [sectors]float64
	first, last := pts[0], pts[len(pts)-1]
	covered := last.Distance - first.Distance
	if covered <= 0 {
		return ret, false
	}
	prev := first.Timestamp
	for s := 1; s < sectors; s++ {
		limit := first.Distance + covered*float64(s)/sectors
		idx := slices.IndexFunc(pts, func(p model.TelemetryPoint) bool {
			return p.Distance >= limit
		})
		ts := pts[idx].Timestamp
		ret[s-1] = ts.Sub(prev).Seconds()
		prev = ts
	}
	ret[sectors-1] = last.Timestamp.Sub(prev).Seconds()
	return ret, true
}

// BestLap returns the lap with the lowest positive lap time.
func BestLap(laps []model.LapData) (model.LapData, bool) {
	valid := lo.Filter(laps, func(l model.LapData, _ int) bool { return l.LapTime > 0 })
	if len(valid) == 0 {
		return model.LapData{}, false
	}
	return lo.MinBy(valid, func(a, b model.LapData) bool { return a.LapTime < b.LapTime }), true
}

func FilterVehicle(points []model.TelemetryPoint, vehicle int) []model.TelemetryPoint {
	return lo.Filter(points, func(p model.TelemetryPoint, _ int) bool {
		return p.VehicleNumber == vehicle
	})
}

func FilterLapVehicle(laps []model.LapData, vehicle int) []model.LapData {
	return lo.Filter(laps, func(l model.LapData, _ int) bool {
		return l.VehicleNumber == vehicle
	})
}

// VehicleNumbers returns the distinct vehicle numbers of laps in ascending order.
func VehicleNumbers(laps []model.LapData) []int {
	ret := lo.Uniq(lo.Map(laps, func(l model.LapData, _ int) int { return l.VehicleNumber }))
	slices.Sort(ret)
	return ret
}

// TelemetryVehicles returns the distinct vehicle numbers of points in ascending order.
func TelemetryVehicles(points []model.TelemetryPoint) []int {
	ret := lo.Uniq(lo.Map(points, func(p model.TelemetryPoint, _ int) int { return p.VehicleNumber }))
	slices.Sort(ret)
	return ret
}

// Compare returns per sample index the difference of the elapsed lap time of
// lap1 and lap2 in seconds. Positive values mean lap1 is behind.
func Compare(lap1, lap2 []model.TelemetryPoint) []float64 {
	n := min(len(lap1), len(lap2))
	ret := make([]float64, n)
	for i := range n {
		e1 := lap1[i].Timestamp.Sub(lap1[0].Timestamp)
		e2 := lap2[i].Timestamp.Sub(lap2[0].Timestamp)
		ret[i] = (e1 - e2).Seconds()
	}
	return ret
}
