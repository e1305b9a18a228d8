// Package basedata provides synthetic telemetry for tests.
package basedata

import (
	"time"

	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
)

func TestTime() time.Time {
	t, _ := time.Parse(time.RFC3339, "2024-04-28T11:10:12Z")
	return t
}

// Corner describes a corner in a synthetic lap by sample indices.
type Corner struct {
	Brake    int     // first braking sample
	Trigger  int     // sample with peak lateral g and minimum speed
	Throttle int     // first full throttle sample after the corner
	MinSpeed float64 // km/h at Trigger
	LatG     float64 // lateral g at Trigger
}

// Lap describes a synthetic lap. Zero values are replaced by defaults.
type Lap struct {
	Lap      int
	Vehicle  int
	Samples  int           // default 200
	Start    time.Time     // default TestTime()
	Gap      time.Duration // default 100ms
	Spacing  float64       // meters between samples, default 10
	Speed    float64       // straight line speed in km/h, default 160
	LatG     float64       // lateral g outside corners, default 0.1
	Steering float64
	Corners  []Corner
}

const (
	cornerBrake     = 60.0
	cornerThrottle  = 40.0
	cornerLatG      = 0.6
	cornerSteering  = 15.0
	rearBrakeFactor = 0.6
)

func (l Lap) withDefaults() Lap {
	if l.Lap == 0 {
		l.Lap = 1
	}
	if l.Samples == 0 {
		l.Samples = 200
	}
	if l.Start.IsZero() {
		l.Start = TestTime()
	}
	if l.Gap == 0 {
		l.Gap = 100 * time.Millisecond
	}
	if l.Spacing == 0 {
		l.Spacing = 10
	}
	if l.Speed == 0 {
		l.Speed = 160
	}
	if l.LatG == 0 {
		l.LatG = 0.1
	}
	return l
}

// Points generates the samples of the lap.
func (l Lap) Points() []model.TelemetryPoint {
	l = l.withDefaults()
	ret := make([]model.TelemetryPoint, l.Samples)
	for i := range ret {
		ret[i] = model.TelemetryPoint{
			Timestamp:     l.Start.Add(time.Duration(i) * l.Gap),
			Lap:           l.Lap,
			Distance:      float64(i) * l.Spacing,
			Speed:         l.Speed,
			Throttle:      100,
			Steering:      l.Steering,
			Gear:          5,
			RPM:           7000,
			AccX:          l.LatG,
			VehicleNumber: l.Vehicle,
		}
	}
	for _, c := range l.Corners {
		l.applyCorner(ret, c)
	}
	return ret
}

func (l Lap) applyCorner(pts []model.TelemetryPoint, c Corner) {
	for i := c.Brake; i < c.Throttle && i < len(pts); i++ {
		p := &pts[i]
		p.AccX = cornerLatG
		p.Steering = cornerSteering
		p.Gear = 3
		if i <= c.Trigger {
			p.BrakeFront = cornerBrake
			p.BrakeRear = cornerBrake * rearBrakeFactor
			p.Throttle = 0
			p.Speed = lerp(l.Speed, c.MinSpeed, c.Brake, c.Trigger, i)
		} else {
			p.Throttle = cornerThrottle
			p.Speed = lerp(c.MinSpeed, l.Speed, c.Trigger, c.Throttle, i)
		}
	}
	if c.Trigger < len(pts) {
		pts[c.Trigger].AccX = c.LatG
		// full brake release at the apex
		pts[c.Trigger].BrakeFront = 0
		pts[c.Trigger].BrakeRear = 0
	}
}

func lerp(from, to float64, start, end, i int) float64 {
	if end <= start {
		return to
	}
	return from + (to-from)*float64(i-start)/float64(end-start)
}

// TwoCorners is a lap layout with a slow and a medium speed corner.
func TwoCorners() []Corner {
	return []Corner{
		{Brake: 44, Trigger: 50, Throttle: 58, MinSpeed: 70, LatG: 1.2},
		{Brake: 124, Trigger: 130, Throttle: 138, MinSpeed: 110, LatG: 1.1},
	}
}

// Session generates consecutive laps of the TwoCorners layout.
// slowdown is added to the lap gap for each lap to simulate degradation.
func Session(laps, vehicle int, slowdown time.Duration) []model.TelemetryPoint {
	ret := []model.TelemetryPoint{}
	start := TestTime()
	for lap := 1; lap <= laps; lap++ {
		l := Lap{
			Lap:     lap,
			Vehicle: vehicle,
			Start:   start,
			Gap:     100*time.Millisecond + time.Duration(lap-1)*slowdown,
			Speed:   160 - float64(lap-1),
			Corners: TwoCorners(),
		}
		pts := l.Points()
		ret = append(ret, pts...)
		start = pts[len(pts)-1].Timestamp.Add(l.withDefaults().Gap)
	}
	return ret
}
