package parser

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mpapenbr/racetelemetry-analyzer/log"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
)

const (
	weatherMinColumns  = 9
	bestLapsMinColumns = 24
	bestLapsPairs      = 10
	bestLapsFirstPair  = 4
	bestLapsAverageCol = 24
)

var sixty = decimal.NewFromInt(60)

// ParseWeather reads the semicolon separated weather report.
func ParseWeather(text string, opts ...Option) []model.WeatherData {
	o := newOptions(opts...)
	records, _ := readRecords(text, ';')
	ret := []model.WeatherData{}
	if len(records) < 2 {
		return ret
	}
	for _, values := range records[1:] {
		if len(values) < weatherMinColumns {
			continue
		}
		f := func(idx int) float64 {
			v, _ := floatAt(values, idx)
			return v
		}
		ret = append(ret, model.WeatherData{
			Timestamp:     stringAt(values, 1),
			AirTemp:       f(2),
			TrackTemp:     f(3),
			Humidity:      f(4),
			Pressure:      f(5),
			WindSpeed:     f(6),
			WindDirection: f(7),
			Rain:          f(8),
		})
	}
	o.logger.Debug("parsed weather", log.Int("entries", len(ret)))
	return ret
}

// ParseBestLaps reads the semicolon separated "best 10 laps by driver" report.
func ParseBestLaps(text string, opts ...Option) []model.DriverBestLaps {
	o := newOptions(opts...)
	records, _ := readRecords(text, ';')
	ret := []model.DriverBestLaps{}
	if len(records) < 2 {
		return ret
	}
	for _, values := range records[1:] {
		if len(values) < bestLapsMinColumns {
			continue
		}
		top := make([]model.LapTimeEntry, 0, bestLapsPairs)
		for j := range bestLapsPairs {
			t := ParseLapTime(stringAt(values, bestLapsFirstPair+j*2))
			if t <= 0 {
				continue
			}
			lapNum, _ := parseInt(stringAt(values, bestLapsFirstPair+j*2+1))
			top = append(top, model.LapTimeEntry{Time: t, LapNum: lapNum})
		}
		entry := model.DriverBestLaps{
			Vehicle:   stringAt(values, 1),
			Class:     stringAt(values, 2),
			Top10Laps: top,
			Average:   ParseLapTime(stringAt(values, bestLapsAverageCol)),
		}
		entry.Number, _ = parseInt(stringAt(values, 0))
		entry.TotalLaps, _ = parseInt(stringAt(values, 3))
		if len(top) > 0 {
			entry.BestLap = top[0].Time
			entry.BestLapNum = top[0].LapNum
		}
		ret = append(ret, entry)
	}
	o.logger.Debug("parsed best laps", log.Int("drivers", len(ret)))
	return ret
}

// ParseLapTime converts "MM:SS.mmm" into seconds. Invalid input yields 0.
func ParseLapTime(s string) float64 {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0
	}
	minutes, err := decimal.NewFromString(strings.TrimSpace(parts[0]))
	if err != nil {
		minutes = decimal.Zero
	}
	seconds, err := decimal.NewFromString(strings.TrimSpace(parts[1]))
	if err != nil {
		seconds = decimal.Zero
	}
	return minutes.Truncate(0).Mul(sixty).Add(seconds).InexactFloat64()
}
