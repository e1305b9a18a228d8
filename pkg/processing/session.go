package processing

import (
	"slices"

	"github.com/aarondl/opt/omit"
	"github.com/google/uuid"

	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/processing/laps"
)

// Session is the result of Processor.Process. It is not modified after creation.
type Session struct {
	telemetry      map[int][]model.TelemetryPoint
	lapNumbers     []int
	lapTimes       []model.LapData
	bestLap        omit.Val[int]
	trackLength    float64
	corners        []model.CornerData
	insights       []model.Insight
	prediction     *model.LapPrediction
	optimalLap     *model.OptimalLap
	weather        []model.WeatherData
	bestLaps       []model.DriverBestLaps
	vehicleNumbers []int
	upload         *model.UploadSummary
}

// Report is a serializable snapshot of a session.
type Report struct {
	ID             string                         `json:"id"`
	Laps           []int                          `json:"laps"`
	VehicleNumbers []int                          `json:"vehicleNumbers"`
	TrackLength    float64                        `json:"trackLength"`
	BestLap        omit.Val[int]                  `json:"bestLap,omitzero"`
	LapTimes       []model.LapData                `json:"lapTimes"`
	Corners        []model.CornerData             `json:"corners"`
	Insights       []model.Insight                `json:"insights"`
	Prediction     *model.LapPrediction           `json:"prediction"`
	OptimalLap     *model.OptimalLap              `json:"optimalLap"`
	Weather        []model.WeatherData            `json:"weather"`
	BestLaps       []model.DriverBestLaps         `json:"bestLaps"`
	Upload         *model.UploadSummary           `json:"upload,omitempty"`
	Telemetry      map[int][]model.TelemetryPoint `json:"telemetry,omitempty"`
}

type ReportOption func(r *Report, s *Session)

// WithTelemetry adds the telemetry by lap to the report.
func WithTelemetry() ReportOption {
	return func(r *Report, s *Session) {
		r.Telemetry = s.telemetry
	}
}

// Telemetry returns the points by lap number.
func (s *Session) Telemetry() map[int][]model.TelemetryPoint {
	return s.telemetry
}

// Laps returns the lap numbers in ascending order.
func (s *Session) Laps() []int {
	return s.lapNumbers
}

func (s *Session) Lap(n int) ([]model.TelemetryPoint, bool) {
	pts, ok := s.telemetry[n]
	return pts, ok
}

func (s *Session) LapTimes() []model.LapData {
	return s.lapTimes
}

// BestLap returns the lap number the corners were detected on.
func (s *Session) BestLap() (int, bool) {
	return s.bestLap.Get()
}

// BestLapTelemetry returns the points of the best lap or nil if there is none.
func (s *Session) BestLapTelemetry() []model.TelemetryPoint {
	if lap, ok := s.bestLap.Get(); ok {
		return s.telemetry[lap]
	}
	return nil
}

// TrackLength is the last distance of the best lap or 0.
func (s *Session) TrackLength() float64 {
	return s.trackLength
}

func (s *Session) Corners() []model.CornerData {
	return s.corners
}

func (s *Session) Insights() []model.Insight {
	return s.insights
}

// Prediction may be nil if the session has no laps.
func (s *Session) Prediction() *model.LapPrediction {
	return s.prediction
}

// OptimalLap may be nil if the session has no laps.
func (s *Session) OptimalLap() *model.OptimalLap {
	return s.optimalLap
}

func (s *Session) Weather() []model.WeatherData {
	return s.weather
}

func (s *Session) BestLaps() []model.DriverBestLaps {
	return s.bestLaps
}

func (s *Session) VehicleNumbers() []int {
	return s.vehicleNumbers
}

// Upload returns the validation outcome if the session was created from an upload.
func (s *Session) Upload() *model.UploadSummary {
	return s.upload
}

// Compare returns the elapsed time delta (s) per sample between two laps.
// Returns nil if one of the laps does not exist.
func (s *Session) Compare(lap1, lap2 int) []float64 {
	pts1, ok1 := s.telemetry[lap1]
	pts2, ok2 := s.telemetry[lap2]
	if !ok1 || !ok2 {
		return nil
	}
	return laps.Compare(pts1, pts2)
}

func (s *Session) Report(opts ...ReportOption) Report {
	ret := Report{
		ID:             uuid.NewString(),
		Laps:           slices.Clone(s.lapNumbers),
		VehicleNumbers: s.vehicleNumbers,
		TrackLength:    s.trackLength,
		BestLap:        s.bestLap,
		LapTimes:       s.lapTimes,
		Corners:        s.corners,
		Insights:       s.insights,
		Prediction:     s.prediction,
		OptimalLap:     s.optimalLap,
		Weather:        s.weather,
		BestLaps:       s.bestLaps,
		Upload:         s.upload,
	}
	for _, opt := range opts {
		opt(&ret, s)
	}
	return ret
}
