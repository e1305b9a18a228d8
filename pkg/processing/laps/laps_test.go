//nolint:thelper,whitespace,lll,funlen // ok for tests
package laps

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
	"github.com/mpapenbr/racetelemetry-analyzer/testsupport/basedata"
)

func point(lap int, offset time.Duration, speed float64) model.TelemetryPoint {
	return model.TelemetryPoint{Timestamp: basedata.TestTime().Add(offset), Lap: lap, Speed: speed}
}

func TestBackfillDistance(t *testing.T) {
	pts := []model.TelemetryPoint{
		point(1, 200*time.Millisecond, 36),
		point(1, 0, 36),
		point(1, 100*time.Millisecond, 36),
		point(1, 100*time.Millisecond, 0),
		point(2, 300*time.Millisecond, 72),
		point(2, 400*time.Millisecond, 72),
	}
	got := BackfillDistance(pts)
	dist := make([]float64, len(got))
	for i := range got {
		dist[i] = got[i].Distance
	}
	// 36 km/h = 10 m/s, the duplicate timestamp contributes nothing
	want := []float64{0, 1, 1, 1.5, 0, 2}
	if diff := cmp.Diff(want, dist, cmp.Comparer(func(a, b float64) bool {
		return a-b < 1e-9 && b-a < 1e-9
	})); diff != "" {
		t.Errorf("BackfillDistance() mismatch (-want +got):\n%s", diff)
	}
	// input is not modified
	assert.Equal(t, 0.0, pts[0].Distance)
}

func TestBackfillDistanceKeepsExisting(t *testing.T) {
	pts := []model.TelemetryPoint{point(1, 100*time.Millisecond, 50), point(1, 0, 50)}
	pts[0].Distance = 5
	got := BackfillDistance(pts)
	assert.Equal(t, 0.0, got[0].Distance)
	assert.Equal(t, 5.0, got[1].Distance)
}

func TestBackfillDistanceMonotonic(t *testing.T) {
	pts := basedata.Session(3, 1, 0)
	for i := range pts {
		pts[i].Distance = 0
	}
	byLap := GroupByLap(BackfillDistance(pts))
	require.Len(t, byLap, 3)
	for lap, lp := range byLap {
		for i := 1; i < len(lp); i++ {
			assert.GreaterOrEqual(t, lp[i].Distance, lp[i-1].Distance, "lap %d idx %d", lap, i)
		}
	}
}

func TestGroupByLap(t *testing.T) {
	pts := basedata.Session(3, 1, 0)
	got := GroupByLap(pts)
	assert.Equal(t, []int{1, 2, 3}, SortedLaps(got))
	for lap, lp := range got {
		assert.Len(t, lp, 200)
		for i := 1; i < len(lp); i++ {
			assert.True(t, lp[i].Timestamp.After(lp[i-1].Timestamp), "lap %d", lap)
		}
	}
}

func TestDeriveLapData(t *testing.T) {
	short := basedata.Lap{Lap: 1, Vehicle: 7, Samples: 301, Gap: 300 * time.Millisecond}.Points() // 90s
	long := basedata.Lap{Lap: 2, Vehicle: 7, Samples: 1501, Gap: 300 * time.Millisecond}.Points() // 450s
	single := basedata.Lap{Lap: 3, Vehicle: 7, Samples: 1}.Points()

	byLap := map[int][]model.TelemetryPoint{1: short, 2: long, 3: single}
	got := DeriveLapData(byLap)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Lap)
	assert.InDelta(t, 90.0, got[0].LapTime, 1e-9)
	assert.True(t, got[0].Valid)
	assert.Equal(t, 7, got[0].VehicleNumber)
	assert.Equal(t, "7", got[0].VehicleID)
	require.NotNil(t, got[0].Sector1)
	assert.InDelta(t, 30.0, *got[0].Sector1, 1e-9)
	assert.InDelta(t, 30.0, *got[0].Sector2, 1e-9)
	assert.InDelta(t, 30.0, *got[0].Sector3, 1e-9)

	assert.Len(t, DeriveLapData(byLap, WithMaxLapTime(500*time.Second)), 2)
	assert.Empty(t, DeriveLapData(byLap, WithMaxLapTime(60*time.Second)))
	for _, l := range DeriveLapData(byLap) {
		assert.True(t, l.LapTime > 0 && l.LapTime < 300)
	}
}

func TestDeriveLapDataNoDistance(t *testing.T) {
	pts := []model.TelemetryPoint{point(1, 0, 10), point(1, time.Second, 10)}
	got := DeriveLapData(GroupByLap(pts))
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Sector1)
}

func TestBestLap(t *testing.T) {
	tests := []struct {
		name   string
		laps   []model.LapData
		want   int
		wantOk bool
	}{
		{"empty", nil, 0, false},
		{"only invalid", []model.LapData{{Lap: 1, LapTime: 0}}, 0, false},
		{"min", []model.LapData{{Lap: 1, LapTime: 101}, {Lap: 2, LapTime: 99.5}, {Lap: 3, LapTime: 100}}, 2, true},
		{"first on tie", []model.LapData{{Lap: 4, LapTime: 99}, {Lap: 5, LapTime: 99}}, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := BestLap(tt.laps)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got.Lap)
		})
	}
}

func TestVehicles(t *testing.T) {
	pts := append(basedata.Session(1, 13, 0), basedata.Session(1, 2, 0)...)
	assert.Equal(t, []int{2, 13}, TelemetryVehicles(pts))
	assert.Len(t, FilterVehicle(pts, 13), 200)
	assert.Empty(t, FilterVehicle(pts, 99))

	laps := []model.LapData{{Lap: 1, VehicleNumber: 13}, {Lap: 1, VehicleNumber: 2}, {Lap: 2, VehicleNumber: 13}}
	assert.Equal(t, []int{2, 13}, VehicleNumbers(laps))
	assert.Len(t, FilterLapVehicle(laps, 13), 2)
}

func TestCompare(t *testing.T) {
	lap1 := basedata.Lap{Lap: 1, Samples: 5, Gap: 110 * time.Millisecond}.Points()
	lap2 := basedata.Lap{Lap: 2, Samples: 4, Gap: 100 * time.Millisecond, Start: basedata.TestTime().Add(time.Minute)}.Points()
	got := Compare(lap1, lap2)
	require.Len(t, got, 4)
	assert.InDelta(t, 0.0, got[0], 1e-9)
	assert.InDelta(t, 0.03, got[3], 1e-9)
	assert.Empty(t, Compare(nil, lap2))
}
