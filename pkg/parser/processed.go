package parser

import (
	"slices"
	"strconv"
	"time"

	"github.com/mpapenbr/racetelemetry-analyzer/log"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/units"
)

// segments slower than this (m/s) do not contribute to integrated lap times
const minIntegrationSpeed = 1.0

// ProcessedSession is the content of a pre-processed telemetry file which is
// already mapped onto track distance.
type ProcessedSession struct {
	Telemetry      map[int][]model.TelemetryPoint
	LapTimes       []model.LapData
	VehicleNumbers []int // all vehicles of the file regardless of the filter
}

var processedColumns = map[model.Field]string{
	model.FieldVehicleNumber: "vehiclenumber",
	model.FieldLap:           "lap",
	model.FieldDistance:      "distance",
	model.FieldSpeed:         "speed",
	model.FieldThrottle:      "aps",
	model.FieldBrakeFront:    "pbrake_f",
	model.FieldBrakeRear:     "pbrake_r",
	model.FieldSteering:      "steering_angle",
	model.FieldGear:          "gear",
	model.FieldRPM:           "nmot",
	model.FieldAccX:          "accx_can",
	model.FieldAccY:          "accy_can",
	model.FieldLatitude:      "vbox_lat_min",
	model.FieldLongitude:     "vbox_long_minutes",
}

// ParseProcessed reads a pre-processed telemetry file. If vehicle is not nil only
// rows of that vehicle are used. VehicleNumbers lists all vehicles of the file. Lap times are computed by integrating distance
// over speed, each point receives the elapsed time within its lap.
// Timestamps are synthesized from the integrated times.
//
//nolint:funlen // linear flow
func ParseProcessed(text string, vehicle *int, opts ...Option) ProcessedSession {
	o := newOptions(opts...)
	ret := ProcessedSession{
		Telemetry:      map[int][]model.TelemetryPoint{},
		LapTimes:       []model.LapData{},
		VehicleNumbers: []int{},
	}
	records, _ := readRecords(text, ',')
	if len(records) < 2 {
		return ret
	}
	header := lowerHeader(records[0])
	idx := func(f model.Field) int {
		return slices.Index(header, processedColumns[f])
	}
	num := func(values []string, f model.Field) float64 {
		v, _ := floatAt(values, idx(f))
		return v
	}

	lapOrder := []int{}
	lapVehicle := map[int]int{}
	vehicles := map[int]struct{}{}
	for _, values := range records[1:] {
		vNum, ok := parseInt(stringAt(values, idx(model.FieldVehicleNumber)))
		if !ok {
			continue
		}
		vehicles[vNum] = struct{}{}
		if vehicle != nil && vNum != *vehicle {
			continue
		}
		lap, ok := parseInt(stringAt(values, idx(model.FieldLap)))
		if !ok {
			continue
		}
		p := model.TelemetryPoint{
			Lap:           lap,
			VehicleNumber: vNum,
			Distance:      num(values, model.FieldDistance),
			Speed:         o.speed(num(values, model.FieldSpeed)),
			Throttle:      num(values, model.FieldThrottle),
			BrakeFront:    num(values, model.FieldBrakeFront),
			BrakeRear:     num(values, model.FieldBrakeRear),
			Steering:      num(values, model.FieldSteering),
			RPM:           num(values, model.FieldRPM),
			AccX:          num(values, model.FieldAccX),
			AccY:          num(values, model.FieldAccY),
			Latitude:      num(values, model.FieldLatitude),
			Longitude:     num(values, model.FieldLongitude),
		}
		p.Gear, _ = parseInt(stringAt(values, idx(model.FieldGear)))
		if _, ok := ret.Telemetry[lap]; !ok {
			lapOrder = append(lapOrder, lap)
			lapVehicle[lap] = vNum
		}
		ret.Telemetry[lap] = append(ret.Telemetry[lap], p)
	}

	start := time.Unix(0, 0).UTC()
	for _, lap := range lapOrder {
		pts := ret.Telemetry[lap]
		elapsed := integrateTime(pts)
		for i := range pts {
			pts[i].Time = elapsed[i]
			pts[i].Timestamp = start.Add(time.Duration(elapsed[i] * float64(time.Second)))
		}
		lapTime := elapsed[len(elapsed)-1]
		ld := model.LapData{
			Lap:           lap,
			LapTime:       lapTime,
			Valid:         true,
			VehicleNumber: lapVehicle[lap],
			VehicleID:     strconv.Itoa(lapVehicle[lap]),
			Timestamp:     start,
		}
		// a lap without any movement gets at least one sample gap to keep timestamps ordered
		start = start.Add(time.Duration(lapTime*float64(time.Second)) + syntheticSampleGap)
		if o.validLapTime(lapTime) {
			ret.LapTimes = append(ret.LapTimes, ld)
		}
	}
	for v := range vehicles {
		ret.VehicleNumbers = append(ret.VehicleNumbers, v)
	}
	slices.Sort(ret.VehicleNumbers)
	o.logger.Debug("parsed processed telemetry",
		log.Int("laps", len(lapOrder)),
		log.Int("vehicles", len(ret.VehicleNumbers)))
	return ret
}

// integrateTime returns the elapsed seconds at each point.
// Speeds are km/h, segments slower than minIntegrationSpeed are ignored.
func integrateTime(pts []model.TelemetryPoint) []float64 {
	ret := make([]float64, len(pts))
	elapsed := 0.0
	for i := 1; i < len(pts); i++ {
		d := pts[i].Distance - pts[i-1].Distance
		v := units.KPHToMPS((pts[i].Speed + pts[i-1].Speed) / 2)
		if v > minIntegrationSpeed {
			elapsed += d / v
		}
		ret[i] = elapsed
	}
	return ret
}

// ParseIdealLap reads an externally computed ideal lap with the columns
// Distance and predicted_speed. Returns nil if the columns are missing.
func ParseIdealLap(text string, opts ...Option) *model.OptimalLap {
	o := newOptions(opts...)
	records, _ := readRecords(text, ',')
	if len(records) < 2 {
		return nil
	}
	header := lowerHeader(records[0])
	distIdx := slices.Index(header, "distance")
	speedIdx := slices.Index(header, "predicted_speed")
	if distIdx < 0 || speedIdx < 0 {
		o.logger.Debug("ideal lap columns not found", log.Strings("header", header))
		return nil
	}
	pts := make([]model.TelemetryPoint, 0, len(records)-1)
	for _, values := range records[1:] {
		d, ok := floatAt(values, distIdx)
		if !ok {
			continue
		}
		v, ok := floatAt(values, speedIdx)
		if !ok {
			continue
		}
		pts = append(pts, model.TelemetryPoint{Distance: d, Speed: o.speed(v)})
	}
	if len(pts) == 0 {
		return nil
	}
	elapsed := integrateTime(pts)
	ret := &model.OptimalLap{
		TheoreticalBestTime: elapsed[len(elapsed)-1],
		Segments:            make([]model.OptimalSegment, len(pts)),
		ImprovementAreas:    []string{"ML Optimized Speed Profile"},
	}
	for i, p := range pts {
		ret.Segments[i] = model.OptimalSegment{
			Distance: p.Distance,
			Speed:    p.Speed,
			Source:   model.SourceOptimized,
		}
	}
	return ret
}
