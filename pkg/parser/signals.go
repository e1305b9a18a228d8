package parser

import (
	"strings"

	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
)

// LongSignals maps the telemetry_name values of long-format files to fields.
var LongSignals = map[string]model.Field{
	"speed":                  model.FieldSpeed,
	"aps":                    model.FieldThrottle,
	"pbrake_f":               model.FieldBrakeFront,
	"pbrake_r":               model.FieldBrakeRear,
	"Steering_Angle":         model.FieldSteering,
	"gear":                   model.FieldGear,
	"nmot":                   model.FieldRPM,
	"accx_can":               model.FieldAccX,
	"accy_can":               model.FieldAccY,
	"VBOX_Lat_Min":           model.FieldLatitude,
	"VBOX_Long_Minutes":      model.FieldLongitude,
	"Laptrigger_lapdist_dls": model.FieldDistance,
}

// ColumnRule lists header candidates for a field in priority order.
type ColumnRule struct {
	Field      model.Field
	Candidates []string
}

// WideColumns drives the header resolution of wide-format telemetry files.
var WideColumns = []ColumnRule{
	{model.FieldLap, []string{"lap"}},
	{model.FieldTimestamp, []string{"timestamp", "time", "expire_at"}},
	{model.FieldSpeed, []string{"speed", "velocity"}},
	{model.FieldThrottle, []string{"throttle", "aps", "ath"}},
	{model.FieldBrakeFront, []string{"brake_f", "pbrake_f", "brake_front"}},
	{model.FieldBrakeRear, []string{"brake_r", "pbrake_r", "brake_rear"}},
	{model.FieldSteering, []string{"steering", "steering_angle"}},
	{model.FieldGear, []string{"gear"}},
	{model.FieldRPM, []string{"rpm", "nmot"}},
	{model.FieldAccX, []string{"accx", "accx_can", "lateral_g"}},
	{model.FieldAccY, []string{"accy", "accy_can", "longitudinal_g"}},
	{model.FieldLatitude, []string{"lat", "latitude", "vbox_lat"}},
	{model.FieldLongitude, []string{"lon", "longitude", "vbox_long"}},
	{model.FieldDistance, []string{"distance", "lapdist", "laptrigger_lapdist"}},
	{model.FieldVehicleNumber, []string{"vehicle_number", "vehicle", "car"}},
}

// UploadColumns is the synonym list used for user uploaded CSV files.
// Upload headers are matched exactly, see ResolveExactColumns.
var UploadColumns = []ColumnRule{
	{model.FieldTimestamp, []string{"timestamp", "time", "datetime"}},
	{model.FieldLap, []string{"lap", "lap_number", "lapnumber"}},
	{model.FieldDistance, []string{"distance", "lap_distance", "lapdistance"}},
	{model.FieldSpeed, []string{"speed", "velocity", "vcar"}},
	{model.FieldThrottle, []string{"throttle", "aps", "throttle_position"}},
	{model.FieldBrakeFront, []string{"brake", "brake_front", "pbrake_f"}},
	{model.FieldBrakeRear, []string{"brake_rear", "pbrake_r"}},
	{model.FieldSteering, []string{"steering", "steering_angle"}},
	{model.FieldGear, []string{"gear"}},
	{model.FieldRPM, []string{"rpm", "nmot", "engine_rpm"}},
	{model.FieldAccX, []string{"accx", "accx_can", "lateral_g", "lat_g"}},
	{model.FieldAccY, []string{"accy", "accy_can", "long_g", "longitudinal_g"}},
	{model.FieldLatitude, []string{"latitude", "lat", "gps_lat"}},
	{model.FieldLongitude, []string{"longitude", "long", "lon", "gps_long"}},
	{model.FieldVehicleNumber, []string{"vehicle_number", "vehiclenumber", "vehicle"}},
}

// ResolveColumns maps fields to column indices of header.
// Header names are compared case-insensitive. An exact match on any candidate wins over
// a substring match; substring matches are tried in candidate order.
// Fields without a matching column are not part of the result.
func ResolveColumns(header []string, rules []ColumnRule) map[model.Field]int {
	normalized := normalizeHeader(header)
	ret := make(map[model.Field]int, len(rules))
	for _, rule := range rules {
		if idx := exactIndex(normalized, rule.Candidates); idx >= 0 {
			ret[rule.Field] = idx
			continue
		}
		if idx := substringIndex(normalized, rule.Candidates); idx >= 0 {
			ret[rule.Field] = idx
		}
	}
	return ret
}

// ResolveExactColumns maps fields to column indices of header using only
// case-insensitive exact matches. Used for upload files where substrings like
// "lat" would also hit g-force columns such as "lat_g".
func ResolveExactColumns(header []string, rules []ColumnRule) map[model.Field]int {
	normalized := normalizeHeader(header)
	ret := make(map[model.Field]int, len(rules))
	for _, rule := range rules {
		if idx := exactIndex(normalized, rule.Candidates); idx >= 0 {
			ret[rule.Field] = idx
		}
	}
	return ret
}

func normalizeHeader(header []string) []string {
	ret := make([]string, len(header))
	for i, h := range header {
		ret[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return ret
}

func exactIndex(header, candidates []string) int {
	for _, c := range candidates {
		for i, h := range header {
			if h == c {
				return i
			}
		}
	}
	return -1
}

func substringIndex(header, candidates []string) int {
	for _, c := range candidates {
		for i, h := range header {
			if strings.Contains(h, c) {
				return i
			}
		}
	}
	return -1
}
