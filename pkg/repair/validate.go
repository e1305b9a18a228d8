// Package repair validates partially populated telemetry and fills the missing
// values with estimates.
package repair

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
)

const (
	sampleSize          = 10
	minTimestampQuality = 0.9
)

var requiredFields = []model.Field{model.FieldTimestamp, model.FieldLap}

// Validate checks the presence of the required fields in the first records and
// reports optional fields which will be estimated.
func Validate(data []model.RawPoint) model.ValidationResult {
	ret := model.ValidationResult{
		Errors:        []string{},
		Warnings:      []string{},
		MissingFields: []string{},
		RecordCount:   len(data),
	}
	if len(data) == 0 {
		ret.Errors = append(ret.Errors, "No telemetry data found")
		return ret
	}
	sample := data[:min(sampleSize, len(data))]
	present := func(f model.Field) int {
		return lo.CountBy(sample, func(p model.RawPoint) bool { return p.Has(f) })
	}

	for _, f := range requiredFields {
		if n := present(f); n*2 < len(sample) {
			ret.Errors = append(ret.Errors,
				fmt.Sprintf("Required field missing: %s (present in %d/%d sampled records)",
					f, n, len(sample)))
		}
	}
	for _, f := range model.OptionalFields {
		if present(f) == 0 {
			ret.MissingFields = append(ret.MissingFields, string(f))
			ret.Warnings = append(ret.Warnings,
				fmt.Sprintf("Optional field missing: %s (will be estimated)", f))
		}
	}

	withTimestamp := lo.CountBy(data, func(p model.RawPoint) bool {
		return p.Has(model.FieldTimestamp)
	})
	if float64(withTimestamp) < float64(len(data))*minTimestampQuality {
		ret.Warnings = append(ret.Warnings,
			fmt.Sprintf("Only %d/%d records have valid timestamps", withTimestamp, len(data)))
	}
	ret.Valid = len(ret.Errors) == 0
	return ret
}
