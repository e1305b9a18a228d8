package parser

import (
	"github.com/mpapenbr/racetelemetry-analyzer/log"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
)

const (
	lapColLap           = 1
	lapColTimestamp     = 9
	lapColVehicleID     = 10
	lapColVehicleNumber = 11
	lapMinColumns       = 10
)

// ParseLapTimes reads the lap timing export. The lap time of a row is the delta
// to the previous row of the same vehicle; the first row of a vehicle carries no
// time. Only lap times within (0, max lap time) are returned.
func ParseLapTimes(text string, opts ...Option) []model.LapData {
	o := newOptions(opts...)
	records, _ := readRecords(text, ',')
	ret := []model.LapData{}
	if len(records) < 2 {
		return ret
	}
	type vehicleKey struct {
		id     string
		number int
	}
	previous := make(map[vehicleKey]model.LapData)
	skipped := 0
	for _, values := range records[1:] {
		if len(values) < lapMinColumns {
			skipped++
			continue
		}
		lap, ok := parseInt(values[lapColLap])
		if !ok {
			skipped++
			continue
		}
		ts, ok := ParseTimestamp(values[lapColTimestamp])
		if !ok {
			skipped++
			continue
		}
		cur := model.LapData{
			Lap:       lap,
			Valid:     true,
			VehicleID: stringAt(values, lapColVehicleID),
			Timestamp: ts,
		}
		cur.VehicleNumber, _ = parseInt(stringAt(values, lapColVehicleNumber))
		key := vehicleKey{cur.VehicleID, cur.VehicleNumber}

		if prev, ok := previous[key]; ok {
			cur.LapTime = ts.Sub(prev.Timestamp).Seconds()
			if o.validLapTime(cur.LapTime) {
				ret = append(ret, cur)
			}
		}
		previous[key] = cur
	}
	o.logger.Debug("parsed lap times",
		log.Int("rows", len(records)-1),
		log.Int("skipped", skipped),
		log.Int("laps", len(ret)))
	return ret
}
