package config

import "time"

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	LogLevel    string // sets the log level (zap log level values)
	LogFormat   string // text vs json
	LogFilter   string // zapfilter rules, empty means no filtering
	SpeedUnit   string // unit of speed values in the input files (kph, mps, mph)
	NatsURL     string // if set, analysis reports are published to this NATS server
	NatsSubject string // subject used for publishing analysis reports
	NatsTimeout string // duration to wait for the NATS connection
)

// Analysis holds the tunables of the analytics pipeline.
// All speed related values are km/h.
type Analysis struct {
	MaxLapTime  time.Duration // laps at or above this duration are treated as corrupt data
	RecentLaps  int           // number of laps used as prediction context
	BucketSize  float64       // distance bucket (m) used for the optimal lap
	SlowCorner  float64       // apex speed below this is a slow corner
	FastCorner  float64       // apex speed above this is a fast corner
	CornerLatG  float64       // lateral g triggering a corner candidate
	BrakeActive float64       // brake pressure (%) considered as braking
}

func DefaultAnalysis() Analysis {
	return Analysis{
		MaxLapTime:  300 * time.Second,
		RecentLaps:  5,
		BucketSize:  10,
		SlowCorner:  80,
		FastCorner:  140,
		CornerLatG:  0.8,
		BrakeActive: 20,
	}
}
