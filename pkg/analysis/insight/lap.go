package insight

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"

	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
)

const (
	throttleApexWindow = 10.0 // meters
	throttleOn         = 50.0 // percent
	throttleDelayMin   = 2    // samples
	sampleSeconds      = 0.1
	throttleDelayMax   = 0.2 // seconds
	throttleDelayCost  = 0.15

	maxCorrections = 8
	steeringCost   = 0.08

	tyreImbalanceMax = 5.0 // degrees celsius
	tyreBalanceCost  = 0.05
)

// throttleDelay compares the samples between apex and throttle application.
// One aggregated insight is emitted for all corners with a delay.
func (g *generator) throttleDelay() {
	total := 0.0
	affected := []string{}
	for i := range g.corners {
		c := &g.corners[i]
		curApex := indexNear(g.current, c.ApexDistance, throttleApexWindow)
		refApex := indexNear(g.reference, c.ApexDistance, throttleApexWindow)
		if curApex < 0 || refApex < 0 {
			continue
		}
		delay := throttleSamples(g.current, curApex) - throttleSamples(g.reference, refApex)
		if delay > throttleDelayMin {
			total += float64(delay) * sampleSeconds
			affected = append(affected, c.ID)
		}
	}
	avg := total / float64(max(1, len(affected)))
	if avg <= throttleDelayMax {
		return
	}
	g.add(model.Insight{
		Category:    model.CategoryThrottle,
		Severity:    model.SeverityWarning,
		Title:       "Throttle Delay at Apex",
		Description: fmt.Sprintf("Average %.1fs delay in throttle application post-apex", avg),
		Evidence:    "Measured across " + strings.Join(affected, ", "),
		Suggestion:  "Earlier throttle application, progressive power delivery",
		TimeGain:    avg * throttleDelayCost,
	})
}

// throttleSamples counts the samples from apex until the throttle is applied.
func throttleSamples(points []model.TelemetryPoint, apex int) int {
	i := apex
	for i < len(points) && points[i].Throttle < throttleOn {
		i++
	}
	return i - apex
}

// steering counts steering direction reversals within each corner.
// Samples without a change of the steering angle are ignored.
func (g *generator) steering() {
	worst, worstCorner := 0, ""
	for i := range g.corners {
		c := &g.corners[i]
		pts := lo.Filter(g.current, func(p model.TelemetryPoint, _ int) bool {
			return p.Distance >= c.EntryDistance && p.Distance <= c.ExitDistance
		})
		if n := corrections(pts); n > worst {
			worst, worstCorner = n, c.ID
		}
	}
	if worst <= maxCorrections {
		return
	}
	rms := math.Sqrt(lo.SumBy(g.current, func(p model.TelemetryPoint) float64 {
		return p.Steering * p.Steering
	}) / float64(len(g.current)))
	g.add(model.Insight{
		Category:    model.CategorySteering,
		Severity:    model.SeverityInfo,
		Title:       "Excessive Steering Correction",
		Description: fmt.Sprintf("%d micro-corrections detected", worst),
		Evidence:    fmt.Sprintf("Steering angle variance: ±%.1f°", rms),
		Suggestion:  "Smoother initial turn-in, trust the grip",
		TimeGain:    steeringCost,
		Corner:      worstCorner,
	})
}

func corrections(pts []model.TelemetryPoint) int {
	ret := 0
	prevDir := 0.0
	for i := 1; i < len(pts); i++ {
		dir := sign(pts[i].Steering - pts[i-1].Steering)
		if dir == 0 {
			continue
		}
		if prevDir != 0 && dir != prevDir {
			ret++
		}
		prevDir = dir
	}
	return ret
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// TyreTemps models the front tyre temperatures (°C) from the average speed (km/h)
// and the average absolute lateral g of a lap. Both share the speed term, the
// right front runs 3° hotter and the left front reacts stronger on lateral load.
func TyreTemps(avgSpeed, avgLateralG float64) (fl, fr float64) {
	fl = 85 + 0.05*avgSpeed + 12*avgLateralG
	fr = 88 + 0.05*avgSpeed + 3*avgLateralG
	return fl, fr
}

func (g *generator) tyreBalance() {
	n := float64(len(g.current))
	avgSpeed := lo.SumBy(g.current, func(p model.TelemetryPoint) float64 { return p.Speed }) / n
	avgLatG := lo.SumBy(g.current, func(p model.TelemetryPoint) float64 { return math.Abs(p.AccX) }) / n
	fl, fr := TyreTemps(avgSpeed, avgLatG)
	imbalance := math.Abs(fl - fr)
	if imbalance <= tyreImbalanceMax {
		return
	}
	side, bias := "Front-right", "+2%"
	if fl > fr {
		side, bias = "Front-left", "-2%"
	}
	g.add(model.Insight{
		Category:    model.CategoryTyreBalance,
		Severity:    model.SeverityInfo,
		Title:       "Tyre Temperature Imbalance",
		Description: fmt.Sprintf("%s running %.0f°C hotter", side, imbalance),
		Evidence:    fmt.Sprintf("FL: %.0f°C, FR: %.0f°C", fl, fr),
		Suggestion:  fmt.Sprintf("Adjust brake bias %s, review suspension setup", bias),
		TimeGain:    tyreBalanceCost,
	})
}
