package model

type CornerType string

const (
	CornerSlow   CornerType = "slow"
	CornerMedium CornerType = "medium"
	CornerFast   CornerType = "fast"
)

type CornerData struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	EntryDistance float64    `json:"entryDistance"`
	ApexDistance  float64    `json:"apexDistance"`
	ExitDistance  float64    `json:"exitDistance"`
	EntrySpeed    float64    `json:"entrySpeed"`
	ApexSpeed     float64    `json:"apexSpeed"`
	ExitSpeed     float64    `json:"exitSpeed"`
	BrakePoint    float64    `json:"brakePoint"`
	BrakeDistance float64    `json:"brakeDistance"`
	MaxLateralG   float64    `json:"maxLateralG"`
	Type          CornerType `json:"type"`
}

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
	SeveritySuccess  Severity = "success"
)

type Category string

const (
	CategoryBraking     Category = "BRAKING"
	CategoryApexSpeed   Category = "APEX SPEED"
	CategoryThrottle    Category = "THROTTLE"
	CategorySteering    Category = "STEERING"
	CategoryUndersteer  Category = "UNDERSTEER"
	CategoryTyreBalance Category = "TYRE BALANCE"
)

type Insight struct {
	ID          string   `json:"id"`
	Category    Category `json:"category"`
	Severity    Severity `json:"severity"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Evidence    string   `json:"evidence"`
	Suggestion  string   `json:"suggestion"`
	TimeGain    float64  `json:"timeGain"` // seconds
	Corner      string   `json:"corner,omitempty"`
	LapNumber   int      `json:"lapNumber,omitempty"`
}

type WheelValues struct {
	FL float64 `json:"FL"`
	FR float64 `json:"FR"`
	RL float64 `json:"RL"`
	RR float64 `json:"RR"`
}

type LapPrediction struct {
	PredictedLapTime       float64     `json:"predictedLapTime"`
	Confidence             float64     `json:"confidence"`
	TyreDegradation        float64     `json:"tyreDegradation"` // percent
	FuelRemaining          float64     `json:"fuelRemaining"`   // percent
	BrakeTempForecast      WheelValues `json:"brakeTempForecast"`
	TyreTempForecast       WheelValues `json:"tyreTempForecast"`
	RecommendedAdjustments []string    `json:"recommendedAdjustments"`
}

// ExternalPrediction is a lap time forecast computed outside of this module.
type ExternalPrediction struct {
	Lap                    int      `json:"lap"`
	PredictedLapTime       float64  `json:"predictedLapTime"`
	Confidence             float64  `json:"confidence"`
	RecommendedAdjustments []string `json:"recommendedAdjustments"`
}

type SegmentSource string

const (
	SourceActual    SegmentSource = "actual"
	SourceOptimized SegmentSource = "optimized"
)

type OptimalSegment struct {
	Distance float64       `json:"distance"`
	Speed    float64       `json:"speed"`
	Throttle float64       `json:"throttle"`
	Brake    float64       `json:"brake"`
	Steering float64       `json:"steering"`
	Source   SegmentSource `json:"source"`
}

type OptimalLap struct {
	TheoreticalBestTime float64          `json:"theoreticalBestTime"`
	Segments            []OptimalSegment `json:"segments"`
	ImprovementAreas    []string         `json:"improvementAreas"`
	PotentialTimeGain   float64          `json:"potentialTimeGain"`
}
