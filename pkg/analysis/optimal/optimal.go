// Package optimal constructs a theoretical best lap from the fastest samples
// of several laps.
package optimal

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"

	"github.com/mpapenbr/racetelemetry-analyzer/log"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/units"
)

const maxAreas = 3

type Option func(*options)

type options struct {
	bucketSize float64
	corners    []model.CornerData
	log        *log.Logger
}

// WithBucketSize sets the distance (m) of the buckets. Default is 10m.
func WithBucketSize(size float64) Option {
	return func(o *options) {
		if size > 0 {
			o.bucketSize = size
		}
	}
}

// WithCorners is used to name the improvement areas.
func WithCorners(corners []model.CornerData) Option {
	return func(o *options) {
		o.corners = corners
	}
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

type bucket struct {
	key   float64
	point model.TelemetryPoint
}

// Construct keeps the fastest sample per distance bucket over all laps.
// On equal speeds the sample seen first wins. Returns nil if there are no samples.
func Construct(laps [][]model.TelemetryPoint, opts ...Option) *model.OptimalLap {
	o := &options{bucketSize: 10}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = log.Default().Named("optimal")
	}

	best := fastestPerBucket(o.bucketSize, laps...)
	if len(best) == 0 {
		return nil
	}
	segments := lo.Map(best, func(b bucket, _ int) model.OptimalSegment {
		return model.OptimalSegment{
			Distance: b.point.Distance,
			Speed:    b.point.Speed,
			Throttle: b.point.Throttle,
			Brake:    b.point.BrakeFront,
			Steering: b.point.Steering,
			Source:   model.SourceOptimized,
		}
	})
	theoretical := integrate(segments)

	ret := &model.OptimalLap{
		TheoreticalBestTime: theoretical,
		Segments:            segments,
		ImprovementAreas:    []string{},
	}
	if ref, refTime, ok := fastestLap(laps); ok {
		ret.PotentialTimeGain = math.Max(0, refTime-theoretical)
		ret.ImprovementAreas = o.areas(best, fastestPerBucket(o.bucketSize, ref))
	}
	o.log.Debug("optimal lap constructed",
		log.Int("laps", len(laps)),
		log.Int("segments", len(segments)),
		log.Float64("time", ret.TheoreticalBestTime),
		log.Float64("gain", ret.PotentialTimeGain))
	return ret
}

// LapTime integrates the lap time (s) over the samples ordered by distance.
func LapTime(points []model.TelemetryPoint) float64 {
	return integrate(lo.Map(points, func(p model.TelemetryPoint, _ int) model.OptimalSegment {
		return model.OptimalSegment{Distance: p.Distance, Speed: p.Speed}
	}))
}

func fastestPerBucket(size float64, laps ...[]model.TelemetryPoint) []bucket {
	byKey := map[float64]int{}
	ret := []bucket{}
	for _, lap := range laps {
		for i := range lap {
			key := math.Round(lap[i].Distance/size) * size
			idx, ok := byKey[key]
			if !ok {
				byKey[key] = len(ret)
				ret = append(ret, bucket{key: key, point: lap[i]})
				continue
			}
			if lap[i].Speed > ret[idx].point.Speed {
				ret[idx].point = lap[i]
			}
		}
	}
	slices.SortStableFunc(ret, func(a, b bucket) int {
		return cmp.Compare(a.point.Distance, b.point.Distance)
	})
	return ret
}

// integrate uses the average speed of consecutive segments.
// Segments with an average speed <= 0 do not contribute.
func integrate(segments []model.OptimalSegment) float64 {
	ret := 0.0
	for i := 1; i < len(segments); i++ {
		d := segments[i].Distance - segments[i-1].Distance
		avg := (segments[i].Speed + segments[i-1].Speed) / 2
		if avg <= 0 {
			continue
		}
		ret += d / units.KPHToMPS(avg)
	}
	return ret
}

func fastestLap(laps [][]model.TelemetryPoint) (lap []model.TelemetryPoint, lapTime float64, ok bool) {
	for _, l := range laps {
		if len(l) < 2 {
			continue
		}
		sorted := slices.Clone(l)
		slices.SortStableFunc(sorted, func(a, b model.TelemetryPoint) int {
			return cmp.Compare(a.Distance, b.Distance)
		})
		t := LapTime(sorted)
		if !ok || t < lapTime {
			lap, lapTime, ok = sorted, t, true
		}
	}
	return lap, lapTime, ok
}

// areas returns the locations with the largest speed gap between the optimal
// and the fastest lap.
func (o *options) areas(best, ref []bucket) []string {
	refSpeed := lo.SliceToMap(ref, func(b bucket) (float64, float64) { return b.key, b.point.Speed })
	type gap struct {
		distance float64
		delta    float64
	}
	gaps := []gap{}
	for _, b := range best {
		if s, ok := refSpeed[b.key]; ok && b.point.Speed > s {
			gaps = append(gaps, gap{distance: b.point.Distance, delta: b.point.Speed - s})
		}
	}
	slices.SortStableFunc(gaps, func(a, b gap) int {
		return cmp.Compare(b.delta, a.delta)
	})
	names := lo.Uniq(lo.Map(gaps, func(g gap, _ int) string { return o.areaName(g.distance) }))
	return names[:min(maxAreas, len(names))]
}

func (o *options) areaName(distance float64) string {
	for i := range o.corners {
		c := &o.corners[i]
		if distance >= c.EntryDistance && distance <= c.ExitDistance {
			return c.Name
		}
	}
	return fmt.Sprintf("%.0f m", distance)
}
