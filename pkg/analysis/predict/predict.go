// Package predict forecasts the next lap from the recent laps of a session.
//
// The local forecast only uses the telemetry and lap times of the session.
// An External source may provide a model based forecast which is blended into
// the local one.
package predict

import (
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mpapenbr/racetelemetry-analyzer/log"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
)

const (
	trendLaps          = 5
	defaultLapTime     = 90.0 // seconds, used when no lap time is known
	degradationPerLap  = 2.5  // percent, used with less than two laps of context
	degradationWear    = 1.5  // percent per lap
	degradationScale   = 3.0
	fuelBurnPerLap     = 3.2 // percent
	defaultThrottle    = 70.0
	degradationPenalty = 0.5 // seconds at 100% degradation
	minConfidence      = 0.5
	maxConfidence      = 0.95
	externalConfidence = 0.7
	degradingTrend     = 0.1 // seconds per lap
	lowThrottle        = 60.0
)

// External provides forecasts computed outside of this package.
type External interface {
	Lookup(lap int) (model.ExternalPrediction, bool)
}

// Result is the local forecast.
// Degradation is the time (s) already included in the predicted lap time
// caused by tyre degradation.
type Result struct {
	Prediction  model.LapPrediction
	Degradation float64
}

type Option func(*Predictor)

func WithExternal(e External) Option {
	return func(p *Predictor) {
		p.external = e
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Predictor) {
		p.log = l
	}
}

// Predictor holds no per call state and may be shared.
type Predictor struct {
	external External
	log      *log.Logger
}

func NewPredictor(opts ...Option) *Predictor {
	ret := &Predictor{}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.log == nil {
		ret.log = log.Default().Named("predict")
	}
	return ret
}

// Predict forecasts the lap following currentLap.
// recentLaps contains the telemetry of the latest laps in driving order,
// lapTimes the complete lap time history.
func (p *Predictor) Predict(
	recentLaps [][]model.TelemetryPoint,
	lapTimes []model.LapData,
	currentLap int,
) model.LapPrediction {
	local := Local(recentLaps, lapTimes, currentLap)
	if p.external == nil {
		return local.Prediction
	}
	ext, ok := p.external.Lookup(currentLap)
	if !ok {
		return local.Prediction
	}
	p.log.Debug("external prediction",
		log.Int("lap", currentLap),
		log.Float64("lapTime", ext.PredictedLapTime),
		log.Float64("confidence", ext.Confidence))
	return Blend(local, &ext)
}

// Local computes the forecast from session data only.
func Local(recentLaps [][]model.TelemetryPoint, lapTimes []model.LapData, currentLap int) Result {
	times := lo.Map(lapTimes[max(0, len(lapTimes)-trendLaps):],
		func(l model.LapData, _ int) float64 { return l.LapTime })
	tr := trend(times)
	last := defaultLapTime
	if len(lapTimes) > 0 && lapTimes[len(lapTimes)-1].LapTime != 0 {
		last = lapTimes[len(lapTimes)-1].LapTime
	}

	deg := tyreDegradation(recentLaps, currentLap)
	penalty := deg / 100 * degradationPenalty
	var lastLap []model.TelemetryPoint
	if len(recentLaps) > 0 {
		lastLap = recentLaps[len(recentLaps)-1]
	}

	return Result{
		Prediction: model.LapPrediction{
			PredictedLapTime:       last + tr + penalty,
			Confidence:             confidence(times, last),
			TyreDegradation:        deg,
			FuelRemaining:          fuelRemaining(recentLaps, currentLap),
			BrakeTempForecast:      brakeTemps(lastLap),
			TyreTempForecast:       tyreTemps(deg),
			RecommendedAdjustments: recommendations(lastLap, tr),
		},
		Degradation: penalty,
	}
}

// Blend prefers a confident external forecast over the local one.
// The local degradation term is still applied and the confidence never exceeds
// the local confidence.
func Blend(local Result, ext *model.ExternalPrediction) model.LapPrediction {
	ret := local.Prediction
	ret.RecommendedAdjustments = append([]string{}, local.Prediction.RecommendedAdjustments...)
	if ext == nil || ext.Confidence <= externalConfidence {
		return ret
	}
	ret.PredictedLapTime = ext.PredictedLapTime + local.Degradation
	ret.Confidence = math.Min(ext.Confidence, local.Prediction.Confidence)
	ret.RecommendedAdjustments = append(
		append([]string{}, ext.RecommendedAdjustments...),
		local.Prediction.RecommendedAdjustments...)
	return ret
}

// trend is the mean lap time change between consecutive laps.
func trend(times []float64) float64 {
	if len(times) < 2 {
		return 0
	}
	diffs := floats.SubTo(make([]float64, len(times)-1), times[1:], times[:len(times)-1])
	return stat.Mean(diffs, nil)
}

// confidence is derived from the deviation of the lap times from the last lap.
func confidence(times []float64, last float64) float64 {
	dev := 0.0
	if len(times) > 1 {
		d := append([]float64{}, times...)
		floats.AddConst(-last, d)
		dev = math.Sqrt(floats.Dot(d, d) / float64(len(d)))
	}
	return math.Max(minConfidence, math.Min(maxConfidence, 1-dev/5))
}

func avgSpeed(lap []model.TelemetryPoint) float64 {
	if len(lap) == 0 {
		return 0
	}
	return stat.Mean(lo.Map(lap, func(p model.TelemetryPoint, _ int) float64 { return p.Speed }), nil)
}

// tyreDegradation estimates the tyre wear in percent.
func tyreDegradation(laps [][]model.TelemetryPoint, currentLap int) float64 {
	if len(laps) < 2 {
		return math.Min(100, float64(currentLap)*degradationPerLap)
	}
	first := avgSpeed(laps[0])
	loss := math.Max(0, first-avgSpeed(laps[len(laps)-1]))
	perc := 0.0
	if first > 0 {
		perc = loss / first * 100 * degradationScale
	}
	return math.Max(0, math.Min(100, perc+float64(currentLap)*degradationWear))
}

// fuelRemaining estimates the fuel level in percent.
func fuelRemaining(laps [][]model.TelemetryPoint, currentLap int) float64 {
	if len(laps) == 0 {
		return math.Max(0, 100-float64(currentLap)*fuelBurnPerLap)
	}
	throttle := lo.Flatten(lo.Map(laps, func(lap []model.TelemetryPoint, _ int) []float64 {
		return lo.Map(lap, func(p model.TelemetryPoint, _ int) float64 { return p.Throttle })
	}))
	avg := defaultThrottle
	if len(throttle) > 0 {
		avg = floats.Sum(throttle) / float64(len(throttle))
	}
	burn := fuelBurnPerLap * (0.7 + avg/100*0.6)
	return math.Max(0, 100-float64(currentLap)*burn)
}

// brakeTemps forecasts brake temperatures (°C) from the average front brake
// pressure of the last lap.
func brakeTemps(lastLap []model.TelemetryPoint) model.WheelValues {
	if len(lastLap) == 0 {
		return model.WheelValues{FL: 350, FR: 370, RL: 320, RR: 330}
	}
	avg := lo.SumBy(lastLap, func(p model.TelemetryPoint) float64 { return p.BrakeFront }) /
		float64(len(lastLap))
	base := 300 + avg*1.8
	return model.WheelValues{FL: base + 10, FR: base + 30, RL: base - 20, RR: base - 10}
}

// tyreTemps forecasts tyre temperatures (°C) from the degradation.
func tyreTemps(degradation float64) model.WheelValues {
	inc := degradation * 0.15
	return model.WheelValues{
		FL: 85 + inc,
		FR: 88 + inc,
		RL: 82 + inc*0.8,
		RR: 86 + inc*0.8,
	}
}

func recommendations(lastLap []model.TelemetryPoint, tr float64) []string {
	ret := []string{}
	if tr > degradingTrend {
		ret = append(ret,
			"Lap times degrading - check tyre pressures",
			"Consider pit stop within 3-5 laps")
	}
	if len(lastLap) > 0 {
		avg := lo.SumBy(lastLap, func(p model.TelemetryPoint) float64 { return p.Throttle }) /
			float64(len(lastLap))
		if avg < lowThrottle {
			ret = append(ret, "Increase throttle confidence in fast corners")
		}
	}
	return append(ret,
		"Focus on Turn 3 and Turn 7 improvements",
		"Maintain smooth steering inputs")
}
