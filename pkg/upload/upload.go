// Package upload handles user provided telemetry files.
package upload

import (
	"strings"

	"github.com/mpapenbr/racetelemetry-analyzer/log"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/repair"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/units"
)

type Option func(*Service)

// WithSpeedUnit declares the unit of uploaded speed values.
func WithSpeedUnit(unit string) Option {
	return func(s *Service) {
		s.speedUnit = unit
	}
}

func WithCleaner(c repair.Cleaner) Option {
	return func(s *Service) {
		s.cleaner = &c
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		s.log = l
	}
}

// Service validates and repairs uploaded telemetry.
// It is configured once and holds no per-call state.
type Service struct {
	cleaner   *repair.Cleaner
	speedUnit string
	log       *log.Logger
}

func NewService(opts ...Option) *Service {
	s := &Service{speedUnit: units.KPH}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = log.Default().Named("upload")
	}
	if s.cleaner == nil {
		c := repair.NewCleaner(repair.WithLogger(s.log))
		s.cleaner = &c
	}
	return s
}

func (s *Service) speed(v float64) float64 {
	return units.ToKPH(v, s.speedUnit)
}

// Process parses content as JSON if name ends with .json, as CSV otherwise.
// The records are validated and repaired.
func (s *Service) Process(name, content string) model.CleanedTelemetry {
	var raw []model.RawPoint
	if strings.HasSuffix(strings.ToLower(name), ".json") {
		raw = s.ParseJSON(content)
	} else {
		raw = s.ParseCSV(content)
	}
	validation := repair.Validate(raw)
	cleaned := s.cleaner.Clean(raw)
	s.log.Debug("processed upload",
		log.String("name", name),
		log.Int("records", len(raw)),
		log.Bool("valid", validation.Valid))
	return model.CleanedTelemetry{
		Telemetry:  cleaned,
		Validation: validation,
		Metadata:   repair.Metadata(cleaned, validation.MissingFields),
	}
}
