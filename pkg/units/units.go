// Package units holds the speed unit convention of the analyzer.
// Telemetry speeds are stored in km/h once they passed the parser.
package units

import (
	"fmt"
	"slices"
	"strings"
)

const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

const (
	kphPerMps = 3.6
	kphPerMph = 1.609344
)

var ValidUnits = []string{MPS, MPH, KMPH, KPH}

func IsValid(unit string) bool {
	return slices.Contains(ValidUnits, strings.ToLower(unit))
}

// Parse normalizes unit. An empty unit is treated as KPH.
func Parse(unit string) (string, error) {
	if unit == "" {
		return KPH, nil
	}
	u := strings.ToLower(unit)
	if !IsValid(u) {
		return "", fmt.Errorf("unknown speed unit %q (valid: %s)", unit,
			strings.Join(ValidUnits, ", "))
	}
	if u == KMPH {
		return KPH, nil
	}
	return u, nil
}

// ToKPH converts speed given in unit to km/h. Unknown units are returned unchanged.
func ToKPH(speed float64, unit string) float64 {
	switch strings.ToLower(unit) {
	case MPS:
		return speed * kphPerMps
	case MPH:
		return speed * kphPerMph
	default:
		return speed
	}
}

// KPHToMPS converts km/h to m/s
func KPHToMPS(speed float64) float64 {
	return speed / kphPerMps
}
