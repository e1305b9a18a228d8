//nolint:thelper,whitespace,lll,funlen // ok for tests
package processing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
	"github.com/mpapenbr/racetelemetry-analyzer/testsupport/basedata"
)

const wideHeader = "lap,timestamp,distance,speed,throttle,brake_f,brake_r,steering,gear,rpm,accx,accy,vehicle_number"

func wideCSV(points ...[]model.TelemetryPoint) string {
	rows := []string{wideHeader}
	for _, pts := range points {
		for _, p := range pts {
			rows = append(rows, fmt.Sprintf("%d,%s,%g,%g,%g,%g,%g,%g,%d,%g,%g,%g,%d",
				p.Lap, p.Timestamp.Format(time.RFC3339Nano), p.Distance, p.Speed, p.Throttle,
				p.BrakeFront, p.BrakeRear, p.Steering, p.Gear, p.RPM, p.AccX, p.AccY, p.VehicleNumber))
		}
	}
	return strings.Join(rows, "\n")
}

// twoLaps returns a reference lap and a slower lap braking late into the first corner.
func twoLaps(vehicle int) ([]model.TelemetryPoint, []model.TelemetryPoint) {
	lap1 := basedata.Lap{Lap: 1, Vehicle: vehicle, Corners: basedata.TwoCorners()}.Points()
	lap2 := basedata.Lap{
		Lap:     2,
		Vehicle: vehicle,
		Start:   basedata.TestTime().Add(20 * time.Second),
		Gap:     101 * time.Millisecond,
		Corners: []basedata.Corner{
			{Brake: 47, Trigger: 50, Throttle: 58, MinSpeed: 70, LatG: 1.2},
			basedata.TwoCorners()[1],
		},
	}.Points()
	return lap1, lap2
}

func TestProcess(t *testing.T) {
	lap1, lap2 := twoLaps(7)
	s, err := NewProcessor().Process(context.Background(), Inputs{Telemetry: wideCSV(lap1, lap2)})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, s.Laps())
	assert.Equal(t, []int{7}, s.VehicleNumbers())
	require.Len(t, s.LapTimes(), 2)
	assert.InDelta(t, 19.9, s.LapTimes()[0].LapTime, 1e-9)
	assert.InDelta(t, 199*0.101, s.LapTimes()[1].LapTime, 1e-9)

	best, ok := s.BestLap()
	require.True(t, ok)
	assert.Equal(t, 1, best)
	assert.Len(t, s.BestLapTelemetry(), 200)
	assert.Equal(t, 1990.0, s.TrackLength())
	assert.Equal(t, []string{"T1", "T2"}, lo.Map(s.Corners(), func(c model.CornerData, _ int) string { return c.ID }))

	braking := lo.Filter(s.Insights(), func(i model.Insight, _ int) bool { return i.Category == model.CategoryBraking })
	require.Len(t, braking, 1)
	assert.Equal(t, "Late Braking - Turn 1", braking[0].Title)
	assert.Equal(t, 2, braking[0].LapNumber)

	require.NotNil(t, s.Prediction())
	// two laps, speed unchanged: degradation only from the lap count
	assert.InDelta(t, 3.0, s.Prediction().TyreDegradation, 1e-9)
	require.NotNil(t, s.OptimalLap())
	assert.Len(t, s.OptimalLap().Segments, 200)
	assert.GreaterOrEqual(t, s.OptimalLap().PotentialTimeGain, 0.0)

	assert.Len(t, s.Compare(1, 2), 200)
	assert.InDelta(t, -199*0.001, s.Compare(1, 2)[199], 1e-9)
	assert.Nil(t, s.Compare(1, 5))

	pts, ok := s.Lap(2)
	assert.True(t, ok)
	assert.Len(t, pts, 200)
	_, ok = s.Lap(3)
	assert.False(t, ok)
}

func TestProcessVehicleFilter(t *testing.T) {
	a1, a2 := twoLaps(7)
	b1, b2 := twoLaps(9)
	vehicle := 9
	s, err := NewProcessor().Process(context.Background(), Inputs{
		Telemetry: wideCSV(a1, a2, b1, b2),
		Vehicle:   &vehicle,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{7, 9}, s.VehicleNumbers())
	for _, pts := range s.Telemetry() {
		for _, p := range pts {
			assert.Equal(t, 9, p.VehicleNumber)
		}
	}
	assert.Len(t, s.Telemetry()[1], 200)
}

func TestProcessLapTimeFile(t *testing.T) {
	lap1, lap2 := twoLaps(7)
	header := "expire_at,lap,meta_event,meta_session,meta_source,meta_time,original_vehicle_id,outing,value,timestamp,vehicle_id,vehicle_number"
	row := func(lap int, ts time.Time, num int) string {
		return fmt.Sprintf(",%d,ev,R1,src,,GR86-%03d,0,0,%s,GR86-%03d,%d", lap, num, ts.Format(time.RFC3339), num, num)
	}
	start := basedata.TestTime()
	lapTimes := strings.Join([]string{
		header,
		row(1, start, 7),
		row(2, start.Add(95*time.Second), 7),
		row(3, start.Add(185*time.Second), 7),
		row(1, start, 13),
	}, "\n")

	s, err := NewProcessor().Process(context.Background(), Inputs{
		Telemetry: wideCSV(lap1, lap2),
		LapTimes:  lapTimes,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{7}, s.VehicleNumbers())
	assert.Equal(t, []float64{95, 90}, lo.Map(s.LapTimes(), func(l model.LapData, _ int) float64 { return l.LapTime }))
	// the fastest timed lap (3) has no telemetry
	_, ok := s.BestLap()
	assert.False(t, ok)
	assert.Empty(t, s.Corners())
	assert.Empty(t, s.Insights())
	assert.NotNil(t, s.Prediction())
}

func TestProcessEmpty(t *testing.T) {
	s, err := NewProcessor().Process(context.Background(), Inputs{Telemetry: wideHeader})
	require.NoError(t, err)
	assert.Empty(t, s.Laps())
	assert.Empty(t, s.LapTimes())
	assert.Empty(t, s.Corners())
	assert.Empty(t, s.Insights())
	assert.Nil(t, s.Prediction())
	assert.Nil(t, s.OptimalLap())
	assert.Equal(t, 0.0, s.TrackLength())
}

func TestProcessErrors(t *testing.T) {
	_, err := NewProcessor().Process(context.Background(), Inputs{})
	assert.ErrorIs(t, err, ErrNoTelemetry)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewProcessor().Process(ctx, Inputs{Telemetry: wideHeader})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessSideFiles(t *testing.T) {
	lap1, lap2 := twoLaps(7)
	s, err := NewProcessor().Process(context.Background(), Inputs{
		Telemetry: wideCSV(lap1, lap2),
		Weather: "TIME_UTC_SECONDS;TIME_UTC_STR;AIR_TEMP;TRACK_TEMP;HUMIDITY;PRESSURE;WIND_SPEED;WIND_DIRECTION;RAIN\n" +
			"1747510000;5/17/2025 7:26:40 PM;28.1;41.5;55;1012.3;7.2;270;0",
		IdealLap: "Distance,predicted_speed\n0,100\n100,100",
	})
	require.NoError(t, err)
	require.Len(t, s.Weather(), 1)
	assert.Equal(t, 41.5, s.Weather()[0].TrackTemp)
	assert.Empty(t, s.BestLaps())
	require.NotNil(t, s.OptimalLap())
	assert.Equal(t, []string{"ML Optimized Speed Profile"}, s.OptimalLap().ImprovementAreas)
	assert.Len(t, s.OptimalLap().Segments, 2)
}

type confidentSource struct{}

func (confidentSource) Lookup(lap int) (model.ExternalPrediction, bool) {
	return model.ExternalPrediction{
		Lap:                    lap,
		PredictedLapTime:       18,
		Confidence:             0.99,
		RecommendedAdjustments: []string{"external"},
	}, true
}

func TestProcessExternalPrediction(t *testing.T) {
	lap1, lap2 := twoLaps(7)
	s, err := NewProcessor().Process(context.Background(), Inputs{
		Telemetry: wideCSV(lap1, lap2),
		External:  confidentSource{},
	})
	require.NoError(t, err)
	require.NotNil(t, s.Prediction())
	assert.Equal(t, "external", s.Prediction().RecommendedAdjustments[0])
	assert.InDelta(t, 18+3.0/100*0.5, s.Prediction().PredictedLapTime, 1e-9)
}

func TestReport(t *testing.T) {
	lap1, lap2 := twoLaps(7)
	s, err := NewProcessor().Process(context.Background(), Inputs{Telemetry: wideCSV(lap1, lap2)})
	require.NoError(t, err)

	r := s.Report()
	_, err = uuid.Parse(r.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, r.Laps)
	assert.Nil(t, r.Telemetry)
	assert.NotEqual(t, r.ID, s.Report().ID)

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"telemetry"`)
	assert.Contains(t, string(data), `"bestLap":1`)

	withTelemetry := s.Report(WithTelemetry())
	assert.Len(t, withTelemetry.Telemetry, 2)
}

func TestProcessConcurrent(t *testing.T) {
	lap1, lap2 := twoLaps(7)
	in := Inputs{Telemetry: wideCSV(lap1, lap2)}
	p := NewProcessor()
	want, err := p.Process(context.Background(), in)
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*Session, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = p.Process(context.Background(), in)
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		require.NotNil(t, got)
		if diff := cmp.Diff(want.Insights(), got.Insights()); diff != "" {
			t.Errorf("Insights mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(want.Corners(), got.Corners()); diff != "" {
			t.Errorf("Corners mismatch (-want +got):\n%s", diff)
		}
	}
}

// uploadJSON encodes points the way user uploads provide them.
func uploadJSON(t *testing.T, points ...[]model.TelemetryPoint) string {
	items := []map[string]any{}
	for _, pts := range points {
		for _, p := range pts {
			items = append(items, map[string]any{
				"timestamp":     p.Timestamp.Format(time.RFC3339Nano),
				"lap":           p.Lap,
				"distance":      p.Distance,
				"speed":         p.Speed,
				"throttle":      p.Throttle,
				"brake_front":   p.BrakeFront,
				"brake_rear":    p.BrakeRear,
				"steering":      p.Steering,
				"gear":          p.Gear,
				"rpm":           p.RPM,
				"accx":          p.AccX,
				"accy":          p.AccY,
				"vehicleNumber": p.VehicleNumber,
			})
		}
	}
	data, err := json.Marshal(items)
	require.NoError(t, err)
	return string(data)
}

func TestProcessUpload(t *testing.T) {
	lap1, lap2 := twoLaps(7)
	s, err := NewProcessor().Process(context.Background(), Inputs{
		Upload:     uploadJSON(t, lap1, lap2),
		UploadName: "session.json",
	})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, s.Laps())
	assert.Equal(t, []int{7}, s.VehicleNumbers())
	require.Len(t, s.LapTimes(), 2)
	assert.InDelta(t, 19.9, s.LapTimes()[0].LapTime, 1e-9)
	assert.InDelta(t, 199*0.101, s.LapTimes()[1].LapTime, 1e-9)
	for _, l := range s.LapTimes() {
		assert.Equal(t, UploadVehicleID, l.VehicleID)
	}
	assert.Equal(t, []string{"T1", "T2"}, lo.Map(s.Corners(), func(c model.CornerData, _ int) string { return c.ID }))
	assert.NotEmpty(t, s.Insights())
	assert.NotNil(t, s.Prediction())
	assert.NotNil(t, s.OptimalLap())

	require.NotNil(t, s.Upload())
	assert.True(t, s.Upload().Validation.Valid)
	assert.Equal(t, 400, s.Upload().Validation.RecordCount)
	assert.Equal(t, 2, s.Upload().Metadata.Laps)
	assert.Contains(t, s.Upload().Validation.MissingFields, "latitude")
	assert.Same(t, s.Upload(), s.Report().Upload)
}

func TestProcessUploadCSV(t *testing.T) {
	lap1, lap2 := twoLaps(7)
	rows := []string{"timestamp,lap,speed"}
	for _, pts := range [][]model.TelemetryPoint{lap1, lap2} {
		for _, p := range pts {
			rows = append(rows, fmt.Sprintf("%s,%d,%g", p.Timestamp.Format(time.RFC3339Nano), p.Lap, p.Speed))
		}
	}
	s, err := NewProcessor().Process(context.Background(), Inputs{
		Upload:     strings.Join(rows, "\n"),
		UploadName: "session.csv",
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, s.Laps())
	require.Len(t, s.LapTimes(), 2)
	assert.InDelta(t, 19.9, s.LapTimes()[0].LapTime, 1e-9)
	// distance is estimated from the speed
	assert.Greater(t, s.TrackLength(), 0.0)
}

func TestProcessUploadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "required fields missing",
			content: `[{"speed":100},{"speed":110}]`,
			wantErr: ErrInvalidUpload,
		},
		{
			name:    "not decodable",
			content: `[{"lap":`,
			wantErr: ErrInvalidUpload,
		},
		{
			name: "single sample per lap",
			content: `[{"timestamp":"2024-01-01T00:00:00Z","lap":1,"speed":100},` +
				`{"timestamp":"2024-01-01T00:00:01Z","lap":2,"speed":100}]`,
			wantErr: ErrNoValidLaps,
		},
		{
			name: "lap too long",
			content: `[{"timestamp":"2024-01-01T00:00:00Z","lap":1,"speed":100},` +
				`{"timestamp":"2024-01-01T00:05:00Z","lap":1,"speed":100}]`,
			wantErr: ErrNoValidLaps,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewProcessor().Process(context.Background(), Inputs{
				Upload:     tt.content,
				UploadName: "upload.json",
			})
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, s)
		})
	}
}

type processedLap struct {
	vehicle int
	lap     int
	speed   float64
}

// processedCSV returns a pre-processed file with one lap per entry at constant speed.
// Each lap covers 1990 m in 10 m steps.
func processedCSV(entries ...processedLap) string {
	rows := []string{"VehicleNumber,Lap,Distance,speed,aps"}
	for _, l := range entries {
		for i := range 200 {
			rows = append(rows, fmt.Sprintf("%d,%d,%d,%g,100", l.vehicle, l.lap, i*10, l.speed))
		}
	}
	return strings.Join(rows, "\n")
}

func TestProcessLapZero(t *testing.T) {
	s, err := NewProcessor().Process(context.Background(), Inputs{
		Processed: processedCSV(processedLap{7, 0, 180}, processedLap{7, 1, 90}),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, s.Laps())
	require.Len(t, s.LapTimes(), 2)
	// 199 segments of 10 m at 50 m/s
	assert.InDelta(t, 39.8, s.LapTimes()[0].LapTime, 1e-9)

	best, ok := s.BestLap()
	require.True(t, ok)
	assert.Equal(t, 0, best)
	assert.Len(t, s.BestLapTelemetry(), 200)
	assert.Equal(t, 1990.0, s.TrackLength())

	data, err := json.Marshal(s.Report())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"bestLap":0`)
}

func TestProcessNoBestLap(t *testing.T) {
	s, err := NewProcessor().Process(context.Background(), Inputs{Telemetry: wideHeader})
	require.NoError(t, err)
	_, ok := s.BestLap()
	assert.False(t, ok)
	assert.Nil(t, s.BestLapTelemetry())

	data, err := json.Marshal(s.Report())
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"bestLap"`)
}

func TestProcessProcessedVehicle(t *testing.T) {
	// both vehicles share the lap number
	text := processedCSV(processedLap{2, 1, 180}, processedLap{13, 1, 90})
	vehicle := 13
	s, err := NewProcessor().Process(context.Background(), Inputs{Processed: text, Vehicle: &vehicle})
	require.NoError(t, err)

	assert.Equal(t, []int{2, 13}, s.VehicleNumbers())
	assert.Equal(t, []int{1}, s.Laps())
	require.Len(t, s.LapTimes(), 1)
	assert.Equal(t, "13", s.LapTimes()[0].VehicleID)
	// 199 segments of 10 m at 25 m/s
	assert.InDelta(t, 79.6, s.LapTimes()[0].LapTime, 1e-9)

	pts, ok := s.Lap(1)
	require.True(t, ok)
	require.Len(t, pts, 200)
	assert.InDelta(t, 0.0, pts[0].Time, 1e-9)
	assert.InDelta(t, 79.6, pts[199].Time, 1e-9)
	for _, p := range pts {
		assert.Equal(t, 13, p.VehicleNumber)
	}
}
