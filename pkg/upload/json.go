package upload

import (
	"strconv"
	"strings"

	"github.com/aarondl/opt/omit"
	"github.com/ohler55/ojg/oj"

	"github.com/mpapenbr/racetelemetry-analyzer/log"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
)

// ParseJSON decodes an array of telemetry objects. A single object is treated as
// an array with one element. Only canonical keys are used, null values are absent.
// Undecodable content yields an empty result.
func (s *Service) ParseJSON(content string) []model.RawPoint {
	ret := []model.RawPoint{}
	doc, err := oj.ParseString(content)
	if err != nil {
		s.log.Warn("could not decode upload json", log.ErrorField(err))
		return ret
	}
	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		items = []any{v}
	default:
		s.log.Warn("upload json is neither array nor object")
		return ret
	}
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		p := s.fromObject(obj)
		if !p.Empty() {
			ret = append(ret, p)
		}
	}
	return ret
}

func (s *Service) fromObject(obj map[string]any) model.RawPoint {
	p := model.RawPoint{}
	for key, val := range obj {
		field := model.Field(key)
		if field == model.FieldTimestamp {
			if ts, ok := timestampValue(val); ok {
				p.Timestamp = omit.From(ts)
			}
			continue
		}
		v, ok := numericValue(val)
		if !ok {
			continue
		}
		if field == model.FieldSpeed {
			v = s.speed(v)
		}
		p.Set(field, v)
	}
	return p
}

func timestampValue(val any) (string, bool) {
	switch v := val.(type) {
	case string:
		if blank(v) {
			return "", false
		}
		return v, true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	}
	return "", false
}

func numericValue(val any) (float64, bool) {
	switch v := val.(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case string:
		if blank(v) {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// blank reports cell values treated as absent
func blank(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "null", "undefined":
		return true
	}
	return false
}
