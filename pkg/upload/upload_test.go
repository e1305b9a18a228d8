//nolint:thelper,whitespace,lll,funlen // ok for tests
package upload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racetelemetry-analyzer/pkg/repair"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/units"
)

var fixedNow = time.Date(2025, 5, 17, 12, 0, 0, 0, time.UTC)

func testService(opts ...Option) *Service {
	return NewService(append([]Option{
		WithCleaner(repair.NewCleaner(repair.WithClock(func() time.Time { return fixedNow }))),
	}, opts...)...)
}

func TestProcessJSONPartialRecords(t *testing.T) {
	content := `[{"timestamp":"t0","lap":1},{"timestamp":"t1","lap":1,"speed":50}]`
	got := testService().Process("session.JSON", content)

	assert.True(t, got.Validation.Valid)
	assert.Empty(t, got.Validation.Errors)
	assert.Equal(t, 2, got.Validation.RecordCount)
	assert.Contains(t, got.Validation.MissingFields, "throttle")
	assert.Contains(t, got.Validation.MissingFields, "brake_front")
	assert.NotContains(t, got.Validation.MissingFields, "speed")

	require.Len(t, got.Telemetry, 2)
	assert.Equal(t, 0.0, got.Telemetry[0].Speed)
	assert.Equal(t, 50.0, got.Telemetry[1].Speed)
	assert.Equal(t, 2, got.Metadata.TotalPoints)
	assert.Equal(t, 1, got.Metadata.Laps)
	assert.Equal(t, got.Validation.MissingFields, got.Metadata.MissingDataHandled)
}

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantLen   int
		checkLast func(t *testing.T, s *Service, content string)
	}{
		{
			name:    "lone object is wrapped",
			content: `{"timestamp":"2024-01-01T00:00:00Z","lap":2,"speed":"120.5","Speed":1}`,
			wantLen: 1,
			checkLast: func(t *testing.T, s *Service, content string) {
				got := s.ParseJSON(content)
				assert.Equal(t, 2, got[0].Lap.GetOrZero())
				assert.Equal(t, 120.5, got[0].Speed.GetOrZero())
			},
		},
		{
			name:    "null and unknown keys",
			content: `[{"timestamp":"2024-01-01T00:00:00Z","lap":1,"throttle":null,"foo":"bar"},{"foo":1}]`,
			wantLen: 1,
			checkLast: func(t *testing.T, s *Service, content string) {
				got := s.ParseJSON(content)
				assert.True(t, got[0].Throttle.IsUnset())
			},
		},
		{
			name:    "numeric timestamp",
			content: `[{"timestamp":1704067200000,"lap":1}]`,
			wantLen: 1,
			checkLast: func(t *testing.T, s *Service, content string) {
				got := s.ParseJSON(content)
				assert.Equal(t, "1704067200000", got[0].Timestamp.GetOrZero())
			},
		},
		{
			name:    "invalid json",
			content: `[{"timestamp":`,
			wantLen: 0,
		},
		{
			name:    "scalar",
			content: `42`,
			wantLen: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testService()
			assert.Len(t, s.ParseJSON(tt.content), tt.wantLen)
			if tt.checkLast != nil {
				tt.checkLast(t, s, tt.content)
			}
		})
	}
}

func TestProcessInvalidJSON(t *testing.T) {
	got := testService().Process("x.json", "not json at all")
	assert.False(t, got.Validation.Valid)
	assert.Equal(t, []string{"No telemetry data found"}, got.Validation.Errors)
	assert.Empty(t, got.Telemetry)
}

func TestParseCSV(t *testing.T) {
	content := "Time,Lap_Number,vCar,nmot,Lat_G,comment\n" +
		"2024-01-01T00:00:00Z,1,30,6000,0.5,first\n" +
		"2024-01-01T00:00:00.1Z,1,null,undefined,,second\n" +
		",,,,,\n"
	s := testService(WithSpeedUnit(units.MPS))
	got := s.ParseCSV(content)
	require.Len(t, got, 2)

	assert.Equal(t, "2024-01-01T00:00:00Z", got[0].Timestamp.GetOrZero())
	assert.Equal(t, 1, got[0].Lap.GetOrZero())
	assert.InDelta(t, 108.0, got[0].Speed.GetOrZero(), 1e-9)
	assert.Equal(t, 6000.0, got[0].RPM.GetOrZero())
	assert.Equal(t, 0.5, got[0].AccX.GetOrZero())

	assert.True(t, got[0].Latitude.IsUnset())

	assert.True(t, got[1].Speed.IsUnset())
	assert.True(t, got[1].RPM.IsUnset())
	assert.True(t, got[1].AccX.IsUnset())
}

func TestProcessCSVFillsGaps(t *testing.T) {
	content := "timestamp,lap,speed,throttle\n" +
		"2024-01-01T00:00:00.0Z,1,100,40\n" +
		"2024-01-01T00:00:00.1Z,1,,\n" +
		"2024-01-01T00:00:00.2Z,1,120,60\n"
	got := testService().Process("lap.csv", content)
	require.Len(t, got.Telemetry, 3)
	assert.Equal(t, 110.0, got.Telemetry[1].Speed)
	assert.Equal(t, 50.0, got.Telemetry[1].Throttle)
	assert.InDelta(t, 0.2, got.Metadata.Duration, 1e-9)
}

func TestProcessCSVGForceColumns(t *testing.T) {
	content := "timestamp,lap,speed,lat_g,long_g\n" +
		"2024-01-01T00:00:00.0Z,1,100,1.3,-0.7\n" +
		"2024-01-01T00:00:00.1Z,1,101,1.2,-0.6\n"
	got := testService().Process("lap.csv", content)

	require.Len(t, got.Telemetry, 2)
	assert.Equal(t, 1.3, got.Telemetry[0].AccX)
	assert.Equal(t, -0.7, got.Telemetry[0].AccY)
	assert.Equal(t, 0.0, got.Telemetry[0].Latitude)
	assert.Equal(t, 0.0, got.Telemetry[0].Longitude)
	assert.Contains(t, got.Validation.MissingFields, "latitude")
	assert.Contains(t, got.Validation.MissingFields, "longitude")
	assert.NotContains(t, got.Validation.MissingFields, "accx")
}
