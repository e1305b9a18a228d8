// Package corner detects corners in the telemetry of a single lap.
//
// The detector is a greedy single pass over the samples. After a corner is
// emitted the scan continues behind its exit, so two corners closer together
// than the skip window are reported as one.
package corner

import (
	"fmt"
	"math"

	"github.com/mpapenbr/racetelemetry-analyzer/log"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
)

// Thresholds configures the detector. Speeds are km/h, windows are sample counts.
type Thresholds struct {
	LateralG      float64 // |accx| triggering a corner
	Brake         float64 // brake pressure (%) considered as braking
	Throttle      float64 // throttle (%) marking the corner exit
	EntryWindow   int     // samples scanned before the trigger for the entry
	ApexWindow    int     // samples scanned around the trigger for the apex
	ExitWindow    int     // samples scanned from the trigger for the exit
	Skip          int     // samples skipped after an exit
	Margin        int     // samples ignored at both ends of the lap
	SlowCornerMax float64 // apex speed below this is a slow corner
	FastCornerMin float64 // apex speed above this is a fast corner
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		LateralG:      0.8,
		Brake:         20,
		Throttle:      80,
		EntryWindow:   10,
		ApexWindow:    5,
		ExitWindow:    10,
		Skip:          5,
		Margin:        10,
		SlowCornerMax: 80,
		FastCornerMin: 140,
	}
}

type Option func(*detector)

func WithThresholds(t Thresholds) Option {
	return func(d *detector) {
		d.t = t
	}
}

// WithSpeedLimits overrides the corner type classification limits.
func WithSpeedLimits(slowMax, fastMin float64) Option {
	return func(d *detector) {
		d.t.SlowCornerMax = slowMax
		d.t.FastCornerMin = fastMin
	}
}

func WithLogger(l *log.Logger) Option {
	return func(d *detector) {
		d.log = l
	}
}

type detector struct {
	t   Thresholds
	log *log.Logger
}

// Detect returns the corners of one lap in driving order.
// For consecutive corners c1, c2 the entry of c2 is never before the exit of c1.
func Detect(points []model.TelemetryPoint, opts ...Option) []model.CornerData {
	d := &detector{t: DefaultThresholds()}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = log.Default().Named("corner")
	}
	ret := []model.CornerData{}
	n := len(points)
	if n < 2*d.t.Margin+1 {
		return ret
	}
	lowerBound := 0
	for i := d.t.Margin; i < n-d.t.Margin; i++ {
		if math.Abs(points[i].AccX) <= d.t.LateralG {
			continue
		}
		entry := d.entry(points, i, lowerBound)
		apex := d.apex(points, i)
		exit := d.exit(points, i)

		id := len(ret) + 1
		c := model.CornerData{
			ID:            fmt.Sprintf("T%d", id),
			Name:          fmt.Sprintf("Turn %d", id),
			EntryDistance: points[entry].Distance,
			ApexDistance:  points[apex].Distance,
			ExitDistance:  points[exit].Distance,
			EntrySpeed:    points[entry].Speed,
			ApexSpeed:     points[apex].Speed,
			ExitSpeed:     points[exit].Speed,
			BrakePoint:    points[entry].Distance,
			BrakeDistance: d.brakeDistance(points, entry, apex),
			MaxLateralG:   maxLateralG(points, min(entry, i), max(exit, i)),
			Type:          d.classify(points[apex].Speed),
		}
		d.log.Debug("corner detected",
			log.String("id", c.ID),
			log.Int("entry", entry),
			log.Int("apex", apex),
			log.Int("exit", exit),
			log.Float64("apexSpeed", c.ApexSpeed))
		ret = append(ret, c)
		lowerBound = exit
		i = exit + d.t.Skip
	}
	return ret
}

// entry returns the first braking sample within the window before trigger.
// The search never goes below lowerBound.
func (d *detector) entry(points []model.TelemetryPoint, trigger, lowerBound int) int {
	for j := max(trigger-d.t.EntryWindow, lowerBound, 0); j < trigger; j++ {
		if points[j].Braking(d.t.Brake) {
			return j
		}
	}
	return trigger
}

// apex returns the sample with the lowest speed around trigger.
// On equal speeds the trigger wins, then the earliest sample.
func (d *detector) apex(points []model.TelemetryPoint, trigger int) int {
	ret := trigger
	for j := max(trigger-d.t.ApexWindow, 0); j <= trigger+d.t.ApexWindow && j < len(points); j++ {
		if points[j].Speed < points[ret].Speed {
			ret = j
		}
	}
	return ret
}

func (d *detector) exit(points []model.TelemetryPoint, trigger int) int {
	for j := trigger; j < trigger+d.t.ExitWindow && j < len(points); j++ {
		if points[j].Throttle > d.t.Throttle {
			return j
		}
	}
	return trigger
}

func (d *detector) brakeDistance(points []model.TelemetryPoint, entry, apex int) float64 {
	ret := 0.0
	for j := entry; j < apex; j++ {
		if points[j].Braking(d.t.Brake) {
			ret += points[j+1].Distance - points[j].Distance
		}
	}
	return ret
}

func (d *detector) classify(apexSpeed float64) model.CornerType {
	switch {
	case apexSpeed < d.t.SlowCornerMax:
		return model.CornerSlow
	case apexSpeed > d.t.FastCornerMin:
		return model.CornerFast
	default:
		return model.CornerMedium
	}
}

func maxLateralG(points []model.TelemetryPoint, from, to int) float64 {
	ret := 0.0
	for j := from; j <= to; j++ {
		ret = math.Max(ret, math.Abs(points[j].AccX))
	}
	return ret
}
