package repair

import (
	"github.com/samber/lo"

	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
)

// Metadata summarizes cleaned telemetry. missing lists the estimated fields.
func Metadata(data []model.TelemetryPoint, missing []string) model.UploadMetadata {
	ret := model.UploadMetadata{MissingDataHandled: []string{}}
	if len(missing) > 0 {
		ret.MissingDataHandled = append(ret.MissingDataHandled, missing...)
	}
	if len(data) == 0 {
		return ret
	}
	ret.TotalPoints = len(data)
	ret.Laps = len(lo.UniqBy(data, func(p model.TelemetryPoint) int { return p.Lap }))
	ret.Duration = data[len(data)-1].Timestamp.Sub(data[0].Timestamp).Seconds()
	ret.AverageSpeed = lo.SumBy(data, func(p model.TelemetryPoint) float64 {
		return p.Speed
	}) / float64(len(data))
	return ret
}
