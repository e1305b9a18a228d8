// Package insight compares a lap against a reference lap and derives coaching
// insights with an estimated time cost.
package insight

import (
	"fmt"

	"github.com/mpapenbr/racetelemetry-analyzer/log"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
)

const brakeActive = 20.0

type generator struct {
	current   []model.TelemetryPoint
	reference []model.TelemetryPoint
	corners   []model.CornerData
	nextID    int
	insights  []model.Insight
	log       *log.Logger
}

// Generate compares current against reference at the corners detected on the
// reference lap. Insight IDs are numbered from 1 within each call.
func Generate(current, reference []model.TelemetryPoint, corners []model.CornerData) []model.Insight {
	if len(current) == 0 || len(reference) == 0 {
		return []model.Insight{}
	}
	g := &generator{
		current:   current,
		reference: reference,
		corners:   corners,
		nextID:    1,
		insights:  []model.Insight{},
		log:       log.Default().Named("insight"),
	}
	g.braking()
	g.apexSpeed()
	g.throttleDelay()
	g.steering()
	g.understeer()
	g.tyreBalance()
	g.log.Debug("insights generated",
		log.Int("lap", current[0].Lap),
		log.Int("reference", reference[0].Lap),
		log.Int("corners", len(corners)),
		log.Int("insights", len(g.insights)))
	return g.insights
}

func (g *generator) add(i model.Insight) {
	i.ID = fmt.Sprintf("insight-%d", g.nextID)
	i.LapNumber = g.current[0].Lap
	if i.TimeGain < 0 {
		i.TimeGain = 0
	}
	g.nextID++
	g.insights = append(g.insights, i)
}
