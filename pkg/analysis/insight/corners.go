package insight

import (
	"fmt"
	"math"

	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
)

const (
	brakeSearchWindow = 50.0 // meters before the corner entry
	brakeTolerance    = 10.0 // meters
	earlyBrakeCost    = 0.015
	lateBrakeCost     = 0.02

	apexWindow       = 20.0 // meters around the apex
	apexDeficitMin   = 5.0  // km/h
	apexDeficitCrit  = 10.0 // km/h
	apexDeficitCost  = 0.02
	understeerWindow = 10.0 // meters around the corner entry
)

// braking compares the first braking point near each corner entry.
func (g *generator) braking() {
	for i := range g.corners {
		c := &g.corners[i]
		cur, ok1 := findBrakePoint(g.current, c.EntryDistance)
		ref, ok2 := findBrakePoint(g.reference, c.EntryDistance)
		if !ok1 || !ok2 {
			continue
		}
		diff := cur.Distance - ref.Distance
		evidence := fmt.Sprintf("Brake at %.0fm vs optimal %.0fm", cur.Distance, ref.Distance)
		switch {
		case diff < -brakeTolerance:
			g.add(model.Insight{
				Category:    model.CategoryBraking,
				Severity:    model.SeverityWarning,
				Title:       "Early Braking - " + c.Name,
				Description: fmt.Sprintf("Brake point %.0fm earlier than optimal", -diff),
				Evidence:    evidence,
				Suggestion:  fmt.Sprintf("Delay brake by %.0fm, increase initial pressure", -diff),
				TimeGain:    -diff * earlyBrakeCost,
				Corner:      c.ID,
			})
		case diff > brakeTolerance:
			g.add(model.Insight{
				Category:    model.CategoryBraking,
				Severity:    model.SeverityCritical,
				Title:       "Late Braking - " + c.Name,
				Description: fmt.Sprintf("Brake point %.0fm later than optimal", diff),
				Evidence:    evidence,
				Suggestion:  fmt.Sprintf("Brake earlier by %.0fm to avoid lock-up", diff),
				TimeGain:    diff * lateBrakeCost,
				Corner:      c.ID,
			})
		}
	}
}

// apexSpeed compares the minimum speed around each apex.
func (g *generator) apexSpeed() {
	for i := range g.corners {
		c := &g.corners[i]
		cur, ok1 := findApexPoint(g.current, c.ApexDistance)
		ref, ok2 := findApexPoint(g.reference, c.ApexDistance)
		if !ok1 || !ok2 {
			continue
		}
		deficit := ref.Speed - cur.Speed
		if deficit <= apexDeficitMin {
			continue
		}
		severity := model.SeverityWarning
		if deficit > apexDeficitCrit {
			severity = model.SeverityCritical
		}
		g.add(model.Insight{
			Category:    model.CategoryApexSpeed,
			Severity:    severity,
			Title:       "Apex Speed Deficit - " + c.Name,
			Description: fmt.Sprintf("Carrying %.1f km/h less than optimal through apex", deficit),
			Evidence:    fmt.Sprintf("%.0f km/h vs ideal %.0f km/h", cur.Speed, ref.Speed),
			Suggestion:  "Later turn-in, smoother steering input, maintain throttle",
			TimeGain:    deficit * apexDeficitCost,
			Corner:      c.ID,
		})
	}
}

// understeer looks for large steering input with little lateral load at the entry.
func (g *generator) understeer() {
	const (
		steeringMin    = 30.0 // degrees
		lateralMax     = 0.5  // g
		optimalSlip    = 6.0  // degrees
		slipTolerance  = 2.0  // degrees
		steerPerSlip   = 3.0
		speedReduction = 3.0 // km/h
		cost           = 0.11
	)
	for i := range g.corners {
		c := &g.corners[i]
		idx := indexNear(g.current, c.EntryDistance, understeerWindow)
		if idx < 0 {
			continue
		}
		p := &g.current[idx]
		if math.Abs(p.Steering) <= steeringMin || math.Abs(p.AccX) >= lateralMax {
			continue
		}
		slip := math.Abs(p.Steering) / steerPerSlip
		if slip <= optimalSlip+slipTolerance {
			continue
		}
		g.add(model.Insight{
			Category:    model.CategoryUndersteer,
			Severity:    model.SeverityWarning,
			Title:       "Understeer Event Detected",
			Description: "Front tyre slip angle exceeded optimal range",
			Evidence: fmt.Sprintf("%s entry: %.1f° slip vs %.1f° optimal",
				c.ID, slip, optimalSlip),
			Suggestion: fmt.Sprintf("Reduce entry speed by %.0f km/h, earlier turn-in", speedReduction),
			TimeGain:   cost,
			Corner:     c.ID,
		})
	}
}

// findBrakePoint returns the first braking sample at most 50m before target.
func findBrakePoint(points []model.TelemetryPoint, target float64) (*model.TelemetryPoint, bool) {
	for i := range points {
		if points[i].Distance >= target-brakeSearchWindow && points[i].Braking(brakeActive) {
			return &points[i], true
		}
	}
	return nil, false
}

// findApexPoint returns the slowest sample within 20m of target.
func findApexPoint(points []model.TelemetryPoint, target float64) (*model.TelemetryPoint, bool) {
	var ret *model.TelemetryPoint
	for i := range points {
		if math.Abs(points[i].Distance-target) >= apexWindow {
			continue
		}
		if ret == nil || points[i].Speed < ret.Speed {
			ret = &points[i]
		}
	}
	return ret, ret != nil
}

// indexNear returns the index of the first sample closer than window to target or -1.
func indexNear(points []model.TelemetryPoint, target, window float64) int {
	for i := range points {
		if math.Abs(points[i].Distance-target) < window {
			return i
		}
	}
	return -1
}
