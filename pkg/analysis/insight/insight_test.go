//nolint:thelper,whitespace,lll,funlen // ok for tests
package insight

import (
	"fmt"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racetelemetry-analyzer/pkg/analysis/corner"
	"github.com/mpapenbr/racetelemetry-analyzer/pkg/model"
	"github.com/mpapenbr/racetelemetry-analyzer/testsupport/basedata"
)

func referenceLap() ([]model.TelemetryPoint, []model.CornerData) {
	pts := basedata.Lap{Lap: 1, Corners: basedata.TwoCorners()}.Points()
	return pts, corner.Detect(pts)
}

func currentLap(corners ...basedata.Corner) []model.TelemetryPoint {
	return basedata.Lap{Lap: 2, Corners: corners}.Points()
}

func byCategory(insights []model.Insight, c model.Category) []model.Insight {
	return lo.Filter(insights, func(i model.Insight, _ int) bool { return i.Category == c })
}

func TestGenerateIdenticalLaps(t *testing.T) {
	ref, corners := referenceLap()
	require.Len(t, corners, 2)
	got := Generate(currentLap(basedata.TwoCorners()...), ref, corners)
	assert.Empty(t, got)
}

func TestGenerateEmpty(t *testing.T) {
	ref, corners := referenceLap()
	assert.Empty(t, Generate(nil, ref, corners))
	assert.Empty(t, Generate(ref, nil, corners))
	assert.NotNil(t, Generate(nil, nil, nil))
}

func TestGenerateBraking(t *testing.T) {
	ref, corners := referenceLap()
	second := basedata.TwoCorners()[1]
	tests := []struct {
		name     string
		brake    int
		severity model.Severity
		title    string
		gain     float64
	}{
		{"early", 40, model.SeverityWarning, "Early Braking - Turn 1", 40 * 0.015},
		{"late", 47, model.SeverityCritical, "Late Braking - Turn 1", 30 * 0.02},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := currentLap(
				basedata.Corner{Brake: tt.brake, Trigger: 50, Throttle: 58, MinSpeed: 70, LatG: 1.2},
				second)
			got := byCategory(Generate(cur, ref, corners), model.CategoryBraking)
			require.Len(t, got, 1)
			assert.Equal(t, tt.severity, got[0].Severity)
			assert.Equal(t, tt.title, got[0].Title)
			assert.Equal(t, "T1", got[0].Corner)
			assert.Equal(t, 2, got[0].LapNumber)
			assert.InDelta(t, tt.gain, got[0].TimeGain, 1e-9)
		})
	}
}

func TestGenerateApexSpeed(t *testing.T) {
	ref, corners := referenceLap()
	tests := []struct {
		name     string
		minSpeed float64
		want     []model.Severity
	}{
		{"critical", 58, []model.Severity{model.SeverityCritical}},
		{"warning", 63, []model.Severity{model.SeverityWarning}},
		{"within tolerance", 66, []model.Severity{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := currentLap(
				basedata.Corner{Brake: 44, Trigger: 50, Throttle: 58, MinSpeed: tt.minSpeed, LatG: 1.2},
				basedata.TwoCorners()[1])
			got := byCategory(Generate(cur, ref, corners), model.CategoryApexSpeed)
			assert.Equal(t, tt.want, lo.Map(got, func(i model.Insight, _ int) model.Severity { return i.Severity }))
			for _, i := range got {
				assert.InDelta(t, (70-tt.minSpeed)*0.02, i.TimeGain, 1e-9)
			}
		})
	}
}

func TestGenerateThrottleDelay(t *testing.T) {
	ref, corners := referenceLap()
	cur := currentLap(
		basedata.Corner{Brake: 44, Trigger: 50, Throttle: 62, MinSpeed: 70, LatG: 1.2},
		basedata.Corner{Brake: 124, Trigger: 130, Throttle: 142, MinSpeed: 110, LatG: 1.1},
	)
	got := byCategory(Generate(cur, ref, corners), model.CategoryThrottle)
	require.Len(t, got, 1)
	assert.Equal(t, "Measured across T1, T2", got[0].Evidence)
	assert.Equal(t, "Average 0.4s delay in throttle application post-apex", got[0].Description)
	assert.InDelta(t, 0.4*0.15, got[0].TimeGain, 1e-9)
	assert.Empty(t, got[0].Corner)
}

func TestGenerateSteering(t *testing.T) {
	ref, corners := referenceLap()
	cur := currentLap(basedata.TwoCorners()...)
	for i := 44; i <= 58; i++ {
		cur[i].Steering = 10 + float64(5*(i%2))
	}
	got := byCategory(Generate(cur, ref, corners), model.CategorySteering)
	require.Len(t, got, 1)
	assert.Equal(t, "T1", got[0].Corner)
	assert.Equal(t, "13 micro-corrections detected", got[0].Description)
	assert.Equal(t, 0.08, got[0].TimeGain)
}

func TestCorrections(t *testing.T) {
	steer := func(values ...float64) []model.TelemetryPoint {
		return lo.Map(values, func(v float64, _ int) model.TelemetryPoint { return model.TelemetryPoint{Steering: v} })
	}
	tests := []struct {
		name   string
		values []float64
		want   int
	}{
		{"monotonic", []float64{1, 2, 3, 4}, 0},
		{"one reversal", []float64{1, 2, 1}, 1},
		{"flat runs ignored", []float64{1, 2, 2, 2, 1, 1, 2}, 2},
		{"zigzag", []float64{0, 1, 0, 1, 0}, 3},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, corrections(steer(tt.values...)))
		})
	}
}

func TestGenerateUndersteer(t *testing.T) {
	ref, corners := referenceLap()
	cur := currentLap(basedata.TwoCorners()...)
	cur[44].Steering = 45
	cur[44].AccX = 0.3
	got := byCategory(Generate(cur, ref, corners), model.CategoryUndersteer)
	require.Len(t, got, 1)
	assert.Equal(t, "T1 entry: 15.0° slip vs 6.0° optimal", got[0].Evidence)
	assert.Equal(t, "Reduce entry speed by 3 km/h, earlier turn-in", got[0].Suggestion)
	assert.Equal(t, 0.11, got[0].TimeGain)

	// slip angle within the tolerance
	cur[44].Steering = 24
	assert.Empty(t, byCategory(Generate(cur, ref, corners), model.CategoryUndersteer))
}

func TestGenerateTyreBalance(t *testing.T) {
	ref := basedata.Lap{Lap: 1, Speed: 100, LatG: 0.5}.Points()
	hot := basedata.Lap{Lap: 2, Speed: 100, LatG: 1.2}.Points()

	got := Generate(hot, ref, nil)
	require.Len(t, got, 1)
	assert.Equal(t, model.CategoryTyreBalance, got[0].Category)
	assert.Equal(t, "Front-left running 8°C hotter", got[0].Description)
	assert.Equal(t, "Adjust brake bias -2%, review suspension setup", got[0].Suggestion)
	assert.Equal(t, 0.05, got[0].TimeGain)

	assert.Empty(t, Generate(ref, hot, nil))
}

func TestTyreTemps(t *testing.T) {
	tests := []struct {
		name   string
		speed  float64
		latG   float64
		wantFL float64
		wantFR float64
	}{
		{name: "cornering load", speed: 100, latG: 1.2, wantFL: 104.4, wantFR: 96.6},
		{name: "straight line", speed: 200, latG: 0, wantFL: 95, wantFR: 98},
		{name: "speed does not change the difference", speed: 300, latG: 1.2, wantFL: 114.4, wantFR: 106.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fl, fr := TyreTemps(tt.speed, tt.latG)
			assert.InDelta(t, tt.wantFL, fl, 1e-9)
			assert.InDelta(t, tt.wantFR, fr, 1e-9)
		})
	}
}

func TestGenerateIDsAndGains(t *testing.T) {
	ref, corners := referenceLap()
	for brake := 38; brake <= 48; brake++ {
		t.Run(fmt.Sprintf("brake %d", brake), func(t *testing.T) {
			cur := currentLap(
				basedata.Corner{Brake: brake, Trigger: 50, Throttle: 63, MinSpeed: 55, LatG: 1.2},
				basedata.Corner{Brake: 124, Trigger: 130, Throttle: 145, MinSpeed: 90, LatG: 1.1},
			)
			for i := 44; i <= 60; i++ {
				cur[i].Steering = float64(20 * (i % 2))
			}
			got := Generate(cur, ref, corners)
			require.NotEmpty(t, got)
			for i, insight := range got {
				assert.Equal(t, fmt.Sprintf("insight-%d", i+1), insight.ID)
				assert.GreaterOrEqual(t, insight.TimeGain, 0.0)
			}
		})
	}
}
