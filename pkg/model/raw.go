package model

import (
	"math"
	"time"

	"github.com/aarondl/opt/omit"
)

// RawPoint is a partially populated telemetry record.
// Unset values are absent in the source, which is different from a measured zero.
type RawPoint struct {
	Timestamp     omit.Val[string]
	Lap           omit.Val[int]
	Distance      omit.Val[float64]
	Speed         omit.Val[float64]
	Throttle      omit.Val[float64]
	BrakeFront    omit.Val[float64]
	BrakeRear     omit.Val[float64]
	Steering      omit.Val[float64]
	Gear          omit.Val[int]
	RPM           omit.Val[float64]
	AccX          omit.Val[float64]
	AccY          omit.Val[float64]
	Latitude      omit.Val[float64]
	Longitude     omit.Val[float64]
	VehicleNumber omit.Val[int]
}

// Set assigns a numeric value to field f. Integer fields are rounded.
// Returns false for fields that are not numeric.
func (r *RawPoint) Set(f Field, v float64) bool {
	switch f {
	case FieldLap:
		r.Lap = omit.From(int(math.Round(v)))
	case FieldDistance:
		r.Distance = omit.From(v)
	case FieldSpeed:
		r.Speed = omit.From(v)
	case FieldThrottle:
		r.Throttle = omit.From(v)
	case FieldBrakeFront:
		r.BrakeFront = omit.From(v)
	case FieldBrakeRear:
		r.BrakeRear = omit.From(v)
	case FieldSteering:
		r.Steering = omit.From(v)
	case FieldGear:
		r.Gear = omit.From(int(math.Round(v)))
	case FieldRPM:
		r.RPM = omit.From(v)
	case FieldAccX:
		r.AccX = omit.From(v)
	case FieldAccY:
		r.AccY = omit.From(v)
	case FieldLatitude:
		r.Latitude = omit.From(v)
	case FieldLongitude:
		r.Longitude = omit.From(v)
	case FieldVehicleNumber:
		r.VehicleNumber = omit.From(int(math.Round(v)))
	default:
		return false
	}
	return true
}

//nolint:cyclop // flat switch
func (r *RawPoint) Has(f Field) bool {
	switch f {
	case FieldTimestamp:
		return r.Timestamp.IsValue()
	case FieldLap:
		return r.Lap.IsValue()
	case FieldDistance:
		return r.Distance.IsValue()
	case FieldSpeed:
		return r.Speed.IsValue()
	case FieldThrottle:
		return r.Throttle.IsValue()
	case FieldBrakeFront:
		return r.BrakeFront.IsValue()
	case FieldBrakeRear:
		return r.BrakeRear.IsValue()
	case FieldSteering:
		return r.Steering.IsValue()
	case FieldGear:
		return r.Gear.IsValue()
	case FieldRPM:
		return r.RPM.IsValue()
	case FieldAccX:
		return r.AccX.IsValue()
	case FieldAccY:
		return r.AccY.IsValue()
	case FieldLatitude:
		return r.Latitude.IsValue()
	case FieldLongitude:
		return r.Longitude.IsValue()
	case FieldVehicleNumber:
		return r.VehicleNumber.IsValue()
	}
	return false
}

// Empty is true if no field is set at all.
func (r *RawPoint) Empty() bool {
	if r.Has(FieldTimestamp) {
		return false
	}
	for _, f := range append([]Field{FieldLap, FieldVehicleNumber}, OptionalFields...) {
		if r.Has(f) {
			return false
		}
	}
	return true
}

// WithDefaults resolves absent values to zero. ts is the parsed timestamp.
func (r *RawPoint) WithDefaults(ts time.Time) TelemetryPoint {
	return TelemetryPoint{
		Timestamp:     ts,
		Lap:           r.Lap.GetOrZero(),
		Distance:      r.Distance.GetOrZero(),
		Speed:         r.Speed.GetOrZero(),
		Throttle:      r.Throttle.GetOrZero(),
		BrakeFront:    r.BrakeFront.GetOrZero(),
		BrakeRear:     r.BrakeRear.GetOrZero(),
		Steering:      r.Steering.GetOrZero(),
		Gear:          r.Gear.GetOrZero(),
		RPM:           r.RPM.GetOrZero(),
		AccX:          r.AccX.GetOrZero(),
		AccY:          r.AccY.GetOrZero(),
		Latitude:      r.Latitude.GetOrZero(),
		Longitude:     r.Longitude.GetOrZero(),
		VehicleNumber: r.VehicleNumber.GetOrZero(),
	}
}
