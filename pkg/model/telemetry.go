package model

import "time"

// Field names the canonical telemetry fields. The string value is the key used in
// upload JSON documents and in validation reports.
type Field string

const (
	FieldTimestamp     Field = "timestamp"
	FieldLap           Field = "lap"
	FieldDistance      Field = "distance"
	FieldSpeed         Field = "speed"
	FieldThrottle      Field = "throttle"
	FieldBrakeFront    Field = "brake_front"
	FieldBrakeRear     Field = "brake_rear"
	FieldSteering      Field = "steering"
	FieldGear          Field = "gear"
	FieldRPM           Field = "rpm"
	FieldAccX          Field = "accx"
	FieldAccY          Field = "accy"
	FieldLatitude      Field = "latitude"
	FieldLongitude     Field = "longitude"
	FieldVehicleNumber Field = "vehicleNumber"
)

// OptionalFields are the fields which get estimated when missing in uploads.
var OptionalFields = []Field{
	FieldSpeed, FieldThrottle, FieldBrakeFront, FieldBrakeRear, FieldSteering,
	FieldGear, FieldRPM, FieldAccX, FieldAccY, FieldLatitude, FieldLongitude, FieldDistance,
}

// TelemetryPoint is one sample of the vehicle state.
// Speed is always km/h.
type TelemetryPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	Lap           int       `json:"lap"`
	Distance      float64   `json:"distance"` // meters from lap start
	Speed         float64   `json:"speed"`
	Throttle      float64   `json:"throttle"`    // 0-100
	BrakeFront    float64   `json:"brake_front"` // 0-100
	BrakeRear     float64   `json:"brake_rear"`  // 0-100
	Steering      float64   `json:"steering"`    // degrees, signed
	Gear          int       `json:"gear"`
	RPM           float64   `json:"rpm"`
	AccX          float64   `json:"accx"` // lateral g
	AccY          float64   `json:"accy"` // longitudinal g
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	VehicleNumber int       `json:"vehicleNumber"`
	Time          float64   `json:"time,omitempty"` // elapsed seconds in lap (processed data only)
}

// Braking reports if either brake pressure exceeds threshold.
func (p *TelemetryPoint) Braking(threshold float64) bool {
	return p.BrakeFront > threshold || p.BrakeRear > threshold
}
