package repair

import (
	"math"
	"slices"
	"time"

	"github.com/aarondl/opt/omit"

	"github.com/mpapenbr/racetelemetry-analyzer/log"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/parser"
)

const (
	sampleInterval   = 100 * time.Millisecond
	gravity          = 9.81
	kphPerMps        = 3.6
	brakeSpeedDrop   = 5.0  // km/h drop between samples that indicates braking
	brakePerSpeedRed = 10.0 // estimated brake pressure per km/h drop
	rearBrakeShare   = 0.6
	baseRPM          = 2000.0
	rpmPerKPH        = 50.0
)

// upper speed bounds (km/h) of gears 1-5, anything faster is 6th gear
var gearBands = []float64{30, 60, 90, 120, 150}

type CleanerOption func(*Cleaner)

// WithClock sets the time source used when the first record carries no timestamp.
func WithClock(now func() time.Time) CleanerOption {
	return func(c *Cleaner) {
		c.now = now
	}
}

func WithLogger(l *log.Logger) CleanerOption {
	return func(c *Cleaner) {
		c.log = l
	}
}

// Cleaner fills missing values of raw telemetry.
// It holds no per-call state and may be shared.
type Cleaner struct {
	now func() time.Time
	log *log.Logger
}

func NewCleaner(opts ...CleanerOption) Cleaner {
	c := Cleaner{now: time.Now}
	for _, opt := range opts {
		opt(&c)
	}
	if c.log == nil {
		c.log = log.Default().Named("repair")
	}
	return c
}

type rawEntry struct {
	raw   model.RawPoint
	ts    time.Time
	hasTS bool
}

// Clean returns a fully populated point for each input record.
// Values present in the input are never replaced. Missing values are estimated
// in one pass from the previous cleaned point and the next raw record.
func (c Cleaner) Clean(data []model.RawPoint) []model.TelemetryPoint {
	entries := make([]rawEntry, len(data))
	allParsed := true
	for i := range data {
		entries[i].raw = data[i]
		if s, ok := data[i].Timestamp.Get(); ok {
			entries[i].ts, entries[i].hasTS = parser.ParseTimestamp(s)
		}
		allParsed = allParsed && entries[i].hasTS
	}
	if allParsed {
		slices.SortStableFunc(entries, func(a, b rawEntry) int {
			return a.ts.Compare(b.ts)
		})
	} else {
		c.log.Debug("timestamps incomplete, keeping input order",
			log.Int("records", len(data)))
	}

	ret := make([]model.TelemetryPoint, 0, len(entries))
	for i := range entries {
		var prev *model.TelemetryPoint
		var next *rawEntry
		if i > 0 {
			prev = &ret[i-1]
		}
		if i < len(entries)-1 {
			next = &entries[i+1]
		}
		ret = append(ret, c.cleanPoint(&entries[i], prev, next))
	}
	return ret
}

//nolint:funlen // one block per field
func (c Cleaner) cleanPoint(cur *rawEntry, prev *model.TelemetryPoint, next *rawEntry) model.TelemetryPoint {
	raw := &cur.raw
	var nextRaw *model.RawPoint
	if next != nil {
		nextRaw = &next.raw
	}
	p := model.TelemetryPoint{}

	switch {
	case cur.hasTS:
		p.Timestamp = cur.ts
	case prev != nil && next != nil && next.hasTS:
		p.Timestamp = prev.Timestamp.Add(next.ts.Sub(prev.Timestamp) / 2)
	case prev != nil:
		p.Timestamp = prev.Timestamp.Add(sampleInterval)
	default:
		p.Timestamp = c.now().UTC()
	}

	p.Lap = raw.Lap.GetOr(prevOr(prev, func(x *model.TelemetryPoint) int { return x.Lap }, 1))
	p.VehicleNumber = raw.VehicleNumber.GetOr(
		prevOr(prev, func(x *model.TelemetryPoint) int { return x.VehicleNumber }, 0))

	p.Speed = orElse(raw.Speed, func() float64 { return estimateSpeed(prev, nextRaw, raw.AccY) })
	p.Distance = orElse(raw.Distance, func() float64 {
		if prev == nil {
			return 0
		}
		avg := (prev.Speed + p.Speed) / 2 / kphPerMps
		return prev.Distance + avg*sampleInterval.Seconds()
	})

	p.Throttle = orElse(raw.Throttle, func() float64 {
		return interpolate(prev, nextRaw,
			func(x *model.TelemetryPoint) float64 { return x.Throttle },
			func(x *model.RawPoint) omit.Val[float64] { return x.Throttle })
	})
	p.Steering = orElse(raw.Steering, func() float64 {
		return interpolate(prev, nextRaw,
			func(x *model.TelemetryPoint) float64 { return x.Steering },
			func(x *model.RawPoint) omit.Val[float64] { return x.Steering })
	})
	p.Latitude = orElse(raw.Latitude, func() float64 {
		return interpolate(prev, nextRaw,
			func(x *model.TelemetryPoint) float64 { return x.Latitude },
			func(x *model.RawPoint) omit.Val[float64] { return x.Latitude })
	})
	p.Longitude = orElse(raw.Longitude, func() float64 {
		return interpolate(prev, nextRaw,
			func(x *model.TelemetryPoint) float64 { return x.Longitude },
			func(x *model.RawPoint) omit.Val[float64] { return x.Longitude })
	})

	p.BrakeFront = orElse(raw.BrakeFront, func() float64 {
		if prev != nil && prev.Speed-p.Speed > brakeSpeedDrop {
			return math.Min(100, (prev.Speed-p.Speed)*brakePerSpeedRed)
		}
		return interpolate(prev, nextRaw,
			func(x *model.TelemetryPoint) float64 { return x.BrakeFront },
			func(x *model.RawPoint) omit.Val[float64] { return x.BrakeFront })
	})
	p.BrakeRear = orElse(raw.BrakeRear, func() float64 { return p.BrakeFront * rearBrakeShare })

	p.Gear = orElse(raw.Gear, func() int { return gearFor(p.Speed) })
	p.RPM = orElse(raw.RPM, func() float64 {
		gear := p.Gear
		if gear <= 0 {
			gear = gearFor(p.Speed)
		}
		return baseRPM + p.Speed/float64(gear)*rpmPerKPH
	})
	p.AccX = orElse(raw.AccX, func() float64 {
		speed, ok := raw.Speed.Get()
		if prev == nil || !ok {
			return 0
		}
		return (speed - prev.Speed) / kphPerMps / sampleInterval.Seconds() / gravity
	})
	p.AccY = raw.AccY.GetOrZero()
	return p
}

// orElse returns the value of v if set, else the result of estimate.
func orElse[T any](v omit.Val[T], estimate func() T) T {
	if x, ok := v.Get(); ok {
		return x
	}
	return estimate()
}

func prevOr[T any](prev *model.TelemetryPoint, get func(*model.TelemetryPoint) T, def T) T {
	if prev == nil {
		return def
	}
	return get(prev)
}

// estimateSpeed integrates the longitudinal acceleration if present, else uses
// the flanking speeds.
func estimateSpeed(prev *model.TelemetryPoint, next *model.RawPoint, accy omit.Val[float64]) float64 {
	if prev == nil {
		return 0
	}
	if a, ok := accy.Get(); ok {
		return math.Max(0, prev.Speed+a*gravity*sampleInterval.Seconds()*kphPerMps)
	}
	if next != nil {
		if v, ok := next.Speed.Get(); ok {
			return (prev.Speed + v) / 2
		}
	}
	return prev.Speed
}

// interpolate averages the previous cleaned value and the next raw value.
// If only one of them is known, it is used. Otherwise 0.
func interpolate(
	prev *model.TelemetryPoint,
	next *model.RawPoint,
	prevVal func(*model.TelemetryPoint) float64,
	nextVal func(*model.RawPoint) omit.Val[float64],
) float64 {
	var n omit.Val[float64]
	if next != nil {
		n = nextVal(next)
	}
	switch {
	case prev != nil && n.IsValue():
		return (prevVal(prev) + n.GetOrZero()) / 2
	case prev != nil:
		return prevVal(prev)
	default:
		return n.GetOrZero()
	}
}

func gearFor(speed float64) int {
	for i, limit := range gearBands {
		if speed < limit {
			return i + 1
		}
	}
	return len(gearBands) + 1
}
