package model

type ValidationResult struct {
	Valid         bool     `json:"valid"`
	Errors        []string `json:"errors"`
	Warnings      []string `json:"warnings"`
	MissingFields []string `json:"missingFields"`
	RecordCount   int      `json:"recordCount"`
}

type UploadMetadata struct {
	TotalPoints        int      `json:"totalPoints"`
	Laps               int      `json:"laps"`
	Duration           float64  `json:"duration"` // seconds
	AverageSpeed       float64  `json:"averageSpeed"`
	MissingDataHandled []string `json:"missingDataHandled"`
}

type CleanedTelemetry struct {
	Telemetry  []TelemetryPoint `json:"telemetry"`
	Validation ValidationResult `json:"validation"`
	Metadata   UploadMetadata   `json:"metadata"`
}

// UploadSummary is the outcome of an upload without the telemetry itself.
type UploadSummary struct {
	Validation ValidationResult `json:"validation"`
	Metadata   UploadMetadata   `json:"metadata"`
}
