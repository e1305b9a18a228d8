// Package parser converts the CSV encodings of the telemetry sources into
// canonical telemetry points and lap summaries.
package parser

import (
	"slices"
	"time"

	"github.com/mpapenbr/racetelemetry-analyzer/log"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/units"
)

type Encoding int

const (
	EncodingWide Encoding = iota
	EncodingLong
)

func (e Encoding) String() string {
	if e == EncodingLong {
		return "long"
	}
	return "wide"
}

// Stats counts the data rows read and the rows skipped as malformed.
type Stats struct {
	Rows    int
	Skipped int
	Points  int
}

type Option func(*options)

type options struct {
	speedUnit  string
	maxLapTime time.Duration
	logger     *log.Logger
}

// WithSpeedUnit declares the unit of the speed values in the input.
// Parsed speeds are converted to km/h.
func WithSpeedUnit(unit string) Option {
	return func(o *options) {
		o.speedUnit = unit
	}
}

// WithMaxLapTime sets the upper bound for derived lap times.
func WithMaxLapTime(d time.Duration) Option {
	return func(o *options) {
		o.maxLapTime = d
	}
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func newOptions(opts ...Option) *options {
	o := &options{speedUnit: units.KPH, maxLapTime: 300 * time.Second}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.Default().Named("parser")
	}
	return o
}

func (o *options) speed(v float64) float64 {
	return units.ToKPH(v, o.speedUnit)
}

func (o *options) validLapTime(secs float64) bool {
	return secs > 0 && secs < o.maxLapTime.Seconds()
}

// DetectEncoding returns EncodingLong if header carries the telemetry_name and
// telemetry_value columns.
func DetectEncoding(header []string) Encoding {
	h := lowerHeader(header)
	if slices.Contains(h, "telemetry_name") && slices.Contains(h, "telemetry_value") {
		return EncodingLong
	}
	return EncodingWide
}

// ParseTelemetry parses a telemetry CSV in either long or wide encoding.
// Empty input and header-only input yield no points.
func ParseTelemetry(text string, opts ...Option) ([]model.TelemetryPoint, Stats) {
	o := newOptions(opts...)
	records, skipped := readRecords(text, ',')
	if len(records) == 0 {
		return []model.TelemetryPoint{}, Stats{Skipped: skipped}
	}
	enc := DetectEncoding(records[0])
	o.logger.Debug("detected encoding", log.String("encoding", enc.String()))

	var ret []model.TelemetryPoint
	var stats Stats
	if enc == EncodingLong {
		entries, s := parseLong(records, o)
		ret = make([]model.TelemetryPoint, len(entries))
		for i := range entries {
			ret[i] = entries[i].raw.WithDefaults(entries[i].ts)
		}
		stats = s
	} else {
		ret, stats = parseWide(records, o)
	}
	stats.Skipped += skipped
	return ret, stats
}
