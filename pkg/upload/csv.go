package upload

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/aarondl/opt/omit"

	"github.com/mpapenbr/racetelemetry-analyzer/log"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/parser"
)

// ParseCSV reads an uploaded CSV file. Columns are resolved by the upload synonym
// table. Empty, "null" and "undefined" cells are absent.
func (s *Service) ParseCSV(content string) []model.RawPoint {
	ret := []model.RawPoint{}
	r := csv.NewReader(strings.NewReader(strings.TrimSpace(content)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.log.Warn("could not read upload csv header", log.ErrorField(err))
		}
		return ret
	}
	cols := parser.ResolveExactColumns(header, parser.UploadColumns)
	s.log.Debug("resolved upload columns", log.Any("columns", cols))

	for {
		values, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.log.Debug("skipping malformed upload row", log.ErrorField(err))
			continue
		}
		p := model.RawPoint{}
		for field, idx := range cols {
			if idx >= len(values) || blank(values[idx]) {
				continue
			}
			cell := strings.TrimSpace(values[idx])
			if field == model.FieldTimestamp {
				p.Timestamp = omit.From(cell)
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				continue
			}
			if field == model.FieldSpeed {
				v = s.speed(v)
			}
			p.Set(field, v)
		}
		if !p.Empty() {
			ret = append(ret, p)
		}
	}
	return ret
}
