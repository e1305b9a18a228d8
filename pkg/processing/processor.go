// Package processing runs the analysis pipeline for one session.
package processing

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/aarondl/opt/omit"

	"github.com/mpapenbr/racetelemetry-analyzer/log"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/analysis/corner"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/analysis/insight"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/analysis/optimal"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/analysis/predict"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/config"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/parser"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/processing/laps"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/units"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/upload"
)

var (
	ErrNoTelemetry   = errors.New("no telemetry input given")
	ErrInvalidUpload = errors.New("uploaded telemetry is not valid")
	ErrNoValidLaps   = errors.New("no valid laps in uploaded telemetry")
)

// UploadVehicleID is the vehicle id of laps derived from uploaded telemetry.
const UploadVehicleID = "USER-UPLOAD"

// Inputs holds the file contents of one session. Empty strings are treated as
// absent files. Processed takes precedence over Upload, Upload over Telemetry.
type Inputs struct {
	Telemetry  string
	LapTimes   string
	Weather    string
	BestLaps   string
	Processed  string
	Upload     string // user provided telemetry, repaired before the analysis
	UploadName string // file name of Upload, a .json suffix selects JSON
	IdealLap   string
	Vehicle    *int
	External   predict.External
}

// collected holds the telemetry of a session before lap segmentation.
type collected struct {
	points   []model.TelemetryPoint
	lapTimes []model.LapData
	vehicles []int // all vehicles, independent of Inputs.Vehicle
	upload   *model.UploadSummary
}

// Processor holds configuration only. It may be used for concurrent calls of Process.
type Processor struct {
	cfg       config.Analysis
	speedUnit string
	log       *log.Logger
	uploads   *upload.Service
}

type ProcessorOption func(proc *Processor)

func WithAnalysis(cfg config.Analysis) ProcessorOption {
	return func(proc *Processor) {
		proc.cfg = cfg
	}
}

func WithSpeedUnit(unit string) ProcessorOption {
	return func(proc *Processor) {
		proc.speedUnit = unit
	}
}

func WithLogger(l *log.Logger) ProcessorOption {
	return func(proc *Processor) {
		proc.log = l
	}
}

func NewProcessor(opts ...ProcessorOption) *Processor {
	ret := &Processor{
		cfg:       config.DefaultAnalysis(),
		speedUnit: units.KPH,
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.log == nil {
		ret.log = log.Default().Named("processing")
	}
	ret.uploads = upload.NewService(
		upload.WithSpeedUnit(ret.speedUnit),
		upload.WithLogger(ret.log.Named("upload")))
	return ret
}

// Process analyzes one session. The context is only checked before the work
// starts, a running analysis is not interrupted.
func (p *Processor) Process(ctx context.Context, in Inputs) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if in.Telemetry == "" && in.Processed == "" && in.Upload == "" {
		return nil, ErrNoTelemetry
	}
	start := time.Now()
	s := &Session{
		weather:  []model.WeatherData{},
		bestLaps: []model.DriverBestLaps{},
	}
	popts := []parser.Option{
		parser.WithSpeedUnit(p.speedUnit),
		parser.WithMaxLapTime(p.cfg.MaxLapTime),
	}

	c, err := p.collect(in, popts)
	if err != nil {
		return nil, err
	}
	points, lapTimes := c.points, c.lapTimes
	s.vehicleNumbers = c.vehicles
	s.upload = c.upload
	if in.Vehicle != nil {
		points = laps.FilterVehicle(points, *in.Vehicle)
		lapTimes = laps.FilterLapVehicle(lapTimes, *in.Vehicle)
	}

	s.telemetry = laps.GroupByLap(laps.BackfillDistance(points))
	s.lapNumbers = laps.SortedLaps(s.telemetry)
	if len(lapTimes) == 0 {
		lapTimes = laps.DeriveLapData(s.telemetry, laps.WithMaxLapTime(p.cfg.MaxLapTime))
		if c.upload != nil {
			for i := range lapTimes {
				lapTimes[i].VehicleID = UploadVehicleID
			}
		}
	}
	if c.upload != nil && len(lapTimes) == 0 {
		return nil, ErrNoValidLaps
	}
	s.lapTimes = lapTimes
	if in.Weather != "" {
		s.weather = parser.ParseWeather(in.Weather, popts...)
	}
	if in.BestLaps != "" {
		s.bestLaps = parser.ParseBestLaps(in.BestLaps, popts...)
	}

	p.analyze(s, in)
	if in.IdealLap != "" {
		if ideal := parser.ParseIdealLap(in.IdealLap, popts...); ideal != nil {
			s.optimalLap = ideal
		}
	}

	p.log.Debug("session processed",
		log.Int("points", len(points)),
		log.Ints("laps", s.lapNumbers),
		log.Any("bestLap", s.bestLap),
		log.Int("corners", len(s.corners)),
		log.Int("insights", len(s.insights)),
		log.Duration("took", time.Since(start)))
	return s, nil
}

// collect returns the telemetry and the lap times of the session.
// Processed files are filtered by vehicle while parsing, their lap time
// integration must not mix vehicles.
func (p *Processor) collect(in Inputs, popts []parser.Option) (collected, error) {
	if in.Processed != "" {
		ps := parser.ParseProcessed(in.Processed, in.Vehicle, popts...)
		return collected{
			points:   flatten(ps.Telemetry),
			lapTimes: ps.LapTimes,
			vehicles: ps.VehicleNumbers,
		}, nil
	}

	ret := collected{lapTimes: []model.LapData{}}
	if in.Upload != "" {
		res := p.uploads.Process(in.UploadName, in.Upload)
		if !res.Validation.Valid {
			return ret, fmt.Errorf("%w: %s", ErrInvalidUpload,
				strings.Join(res.Validation.Errors, "; "))
		}
		ret.points = res.Telemetry
		ret.upload = &model.UploadSummary{Validation: res.Validation, Metadata: res.Metadata}
	} else {
		points, stats := parser.ParseTelemetry(in.Telemetry, popts...)
		p.log.Debug("telemetry parsed",
			log.Int("rows", stats.Rows),
			log.Int("skipped", stats.Skipped),
			log.Int("points", stats.Points))
		ret.points = points
	}
	if in.LapTimes != "" {
		ret.lapTimes = parser.ParseLapTimes(in.LapTimes, popts...)
	}
	ret.vehicles = laps.VehicleNumbers(ret.lapTimes)
	if len(ret.vehicles) == 0 {
		ret.vehicles = laps.TelemetryVehicles(ret.points)
	}
	return ret, nil
}

// analyze runs the analytics on the segmented session.
func (p *Processor) analyze(s *Session, in Inputs) {
	s.corners = []model.CornerData{}
	s.insights = []model.Insight{}
	if best, ok := laps.BestLap(s.lapTimes); ok {
		if pts := s.telemetry[best.Lap]; len(pts) > 0 {
			s.bestLap = omit.From(best.Lap)
			s.corners = corner.Detect(pts, corner.WithThresholds(p.thresholds()))
			s.trackLength = pts[len(pts)-1].Distance
		}
	}
	if len(s.lapNumbers) == 0 {
		return
	}

	current := s.telemetry[s.lapNumbers[len(s.lapNumbers)-1]]
	if best, ok := s.bestLap.Get(); ok && len(current) > 0 {
		s.insights = insight.Generate(current, s.telemetry[best], s.corners)
	}

	allLaps := make([][]model.TelemetryPoint, len(s.lapNumbers))
	for i, lap := range s.lapNumbers {
		allLaps[i] = s.telemetry[lap]
	}
	recent := allLaps[max(0, len(allLaps)-p.cfg.RecentLaps):]
	prediction := predict.NewPredictor(predict.WithExternal(in.External)).
		Predict(recent, s.lapTimes, len(allLaps))
	s.prediction = &prediction

	s.optimalLap = optimal.Construct(allLaps,
		optimal.WithBucketSize(p.cfg.BucketSize),
		optimal.WithCorners(s.corners))
}

func (p *Processor) thresholds() corner.Thresholds {
	t := corner.DefaultThresholds()
	t.LateralG = p.cfg.CornerLatG
	t.Brake = p.cfg.BrakeActive
	t.SlowCornerMax = p.cfg.SlowCorner
	t.FastCornerMin = p.cfg.FastCorner
	return t
}

// flatten concatenates the values of data ordered by key.
func flatten[E any](data map[int][]E) []E {
	arr := make([]E, 0, len(data))
	for _, k := range slices.Sorted(maps.Keys(data)) {
		arr = append(arr, data[k]...)
	}
	return arr
}
