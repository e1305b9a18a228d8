package predict

import (
	"errors"
	"fmt"
	"io"

	"github.com/ohler55/ojg/oj"

	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
)

const defaultExternalConfidence = 0.9

var ErrNoPredictions = errors.New("no predictions array found")

// FileSource serves forecasts read from a predictions file.
//
//	{"predictions": [{"lap": 3, "predictedLapTime": 92.1, "confidence": 0.8}]}
//
// Entries without a lap are numbered by their position in the array.
type FileSource struct {
	entries []model.ExternalPrediction
}

// LoadExternal reads a predictions file.
func LoadExternal(r io.Reader) (*FileSource, error) {
	data, err := oj.Load(r)
	if err != nil {
		return nil, fmt.Errorf("could not parse predictions: %w", err)
	}
	obj, ok := data.(map[string]any)
	if !ok {
		return nil, ErrNoPredictions
	}
	items, ok := obj["predictions"].([]any)
	if !ok {
		return nil, ErrNoPredictions
	}
	ret := &FileSource{entries: []model.ExternalPrediction{}}
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		lapTime, ok := number(m["predictedLapTime"])
		if !ok {
			continue
		}
		e := model.ExternalPrediction{
			Lap:                    i,
			PredictedLapTime:       lapTime,
			Confidence:             defaultExternalConfidence,
			RecommendedAdjustments: []string{},
		}
		if lap, ok := number(m["lap"]); ok {
			e.Lap = int(lap)
		}
		if c, ok := number(m["confidence"]); ok {
			e.Confidence = c
		}
		if adj, ok := m["recommendedAdjustments"].([]any); ok {
			for _, a := range adj {
				if s, ok := a.(string); ok {
					e.RecommendedAdjustments = append(e.RecommendedAdjustments, s)
				}
			}
		}
		ret.entries = append(ret.entries, e)
	}
	return ret, nil
}

// Lookup returns the forecast for lap or the last forecast of the file.
func (f *FileSource) Lookup(lap int) (model.ExternalPrediction, bool) {
	if len(f.entries) == 0 {
		return model.ExternalPrediction{}, false
	}
	for i := range f.entries {
		if f.entries[i].Lap == lap {
			return f.entries[i], true
		}
	}
	return f.entries[len(f.entries)-1], true
}

func (f *FileSource) Len() int {
	return len(f.entries)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
