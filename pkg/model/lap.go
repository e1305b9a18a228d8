package model

import "time"

// LapData summarizes one completed lap.
type LapData struct {
	Lap           int       `json:"lap"`
	LapTime       float64   `json:"lapTime"` // seconds
	Sector1       *float64  `json:"sector1,omitempty"`
	Sector2       *float64  `json:"sector2,omitempty"`
	Sector3       *float64  `json:"sector3,omitempty"`
	Valid         bool      `json:"valid"`
	VehicleNumber int       `json:"vehicleNumber"`
	VehicleID     string    `json:"vehicleId"`
	Timestamp     time.Time `json:"timestamp"`
}

type WeatherData struct {
	Timestamp     string  `json:"timestamp"`
	AirTemp       float64 `json:"airTemp"`
	TrackTemp     float64 `json:"trackTemp"`
	Humidity      float64 `json:"humidity"`
	Pressure      float64 `json:"pressure"`
	WindSpeed     float64 `json:"windSpeed"`
	WindDirection float64 `json:"windDirection"`
	Rain          float64 `json:"rain"`
}

type LapTimeEntry struct {
	Time   float64 `json:"time"`
	LapNum int     `json:"lapNum"`
}

// DriverBestLaps is one row of the "best 10 laps by driver" report.
type DriverBestLaps struct {
	Number     int            `json:"number"`
	Vehicle    string         `json:"vehicle"`
	Class      string         `json:"class"`
	TotalLaps  int            `json:"totalLaps"`
	BestLap    float64        `json:"bestLap"`
	BestLapNum int            `json:"bestLapNum"`
	Top10Laps  []LapTimeEntry `json:"top10Laps"`
	Average    float64        `json:"average"`
}
