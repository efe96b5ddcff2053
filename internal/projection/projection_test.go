package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProject_ThirteenWeeks(t *testing.T) {
	c, err := Project(Input{
		TargetTotal:    115_000_000,
		ProjectedTotal: 56_700_000,
		WeeksTotal:     13,
		WeeksElapsed:   1,
		ActualToDate:   Actuals(8_000_000),
	})
	require.NoError(t, err)
	require.Len(t, c.Points, 13)
	assert.Equal(t, 12, c.WeeksRemaining)
	assert.InDelta(t, 56_700_000.0/12, c.ProjectedIncrement, 1e-6)

	first := c.Points[0]
	assert.Equal(t, "Week 1", first.Label)
	assert.True(t, first.Actual.Defined)
	assert.InDelta(t, 8_000_000.0, first.Actual.Value, 1e-6)
	assert.InDelta(t, 8_000_000.0, first.Projected.Value, 1e-6)

	for _, p := range c.Points[1:] {
		assert.False(t, p.Actual.Defined, p.Label)
		assert.True(t, p.Projected.Defined, p.Label)
	}

	last := c.Points[12]
	assert.Equal(t, "Week 13", last.Label)
	assert.InDelta(t, 64_700_000.0, last.Projected.Value, 1e-3)
	assert.InDelta(t, 115_000_000.0, last.Target, 1e-3)
	assert.InDelta(t, 64_700_000.0, c.Final().Value, 1e-3)
}

func TestProject_TargetIsLinear(t *testing.T) {
	c, err := Project(Input{TargetTotal: 130, WeeksTotal: 13})
	require.NoError(t, err)
	for i, p := range c.Points {
		assert.InDelta(t, float64(10*(i+1)), p.Target, 1e-9)
	}
}

func TestProject_NoActuals(t *testing.T) {
	c, err := Project(Input{TargetTotal: 100, ProjectedTotal: 40, WeeksTotal: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, c.WeeksRemaining)
	assert.InDelta(t, 10.0, c.Points[0].Projected.Value, 1e-9)
	assert.InDelta(t, 40.0, c.Final().Value, 1e-9)
}

func TestProject_NoWeeksRemaining(t *testing.T) {
	c, err := Project(Input{
		TargetTotal:    100,
		ProjectedTotal: 50,
		WeeksTotal:     3,
		WeeksElapsed:   5,
		ActualToDate:   Actuals(10, 20, 30),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, c.WeeksRemaining)
	assert.Equal(t, 0.0, c.ProjectedIncrement)
	assert.InDelta(t, 30.0, c.Final().Value, 1e-9)
	for _, p := range c.Points {
		assert.True(t, p.Actual.Defined)
	}
}

func TestProject_ElapsedWithoutActuals(t *testing.T) {
	c, err := Project(Input{
		ProjectedTotal: 20,
		WeeksTotal:     4,
		WeeksElapsed:   2,
		ActualToDate:   Actuals(5),
	})
	require.NoError(t, err)
	assert.True(t, c.Points[0].Actual.Defined)
	assert.False(t, c.Points[1].Actual.Defined)
	assert.False(t, c.Points[1].Projected.Defined)
	assert.InDelta(t, 15.0, c.Points[2].Projected.Value, 1e-9)
	assert.InDelta(t, 25.0, c.Final().Value, 1e-9)
}

func TestProject_LatestActual(t *testing.T) {
	c, err := Project(Input{
		ProjectedTotal: 10,
		WeeksTotal:     5,
		WeeksElapsed:   3,
		ActualToDate:   LatestActual(30, 3),
	})
	require.NoError(t, err)
	assert.False(t, c.Points[0].Actual.Defined)
	assert.False(t, c.Points[1].Actual.Defined)
	assert.InDelta(t, 30.0, c.Points[2].Actual.Value, 1e-9)
	assert.InDelta(t, 35.0, c.Points[3].Projected.Value, 1e-9)
	assert.InDelta(t, 40.0, c.Final().Value, 1e-9)
}

func TestProject_IgnoresExtraActuals(t *testing.T) {
	c, err := Project(Input{ProjectedTotal: 10, WeeksTotal: 3, WeeksElapsed: 1, ActualToDate: Actuals(1, 2, 3)})
	require.NoError(t, err)
	assert.False(t, c.Points[1].Actual.Defined)
	assert.InDelta(t, 11.0, c.Final().Value, 1e-9)
}

func TestProject_InvalidWeeks(t *testing.T) {
	_, err := Project(Input{WeeksTotal: 0})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weeks total")
}

func TestGap(t *testing.T) {
	tests := []struct {
		name      string
		target    float64
		projected float64
		avg       float64
		remaining int
		units     float64
		unitsOK   bool
		perWeekOK bool
	}{
		{name: "standard", target: 115_000_000, projected: 56_700_000, avg: 250_000, remaining: 12, units: 233, unitsOK: true, perWeekOK: true},
		{name: "covered", target: 100, projected: 150, avg: 10, remaining: 2, units: -5, unitsOK: true, perWeekOK: true},
		{name: "covered rounds down", target: 100_000_000, projected: 110_000_000, avg: 250_000, remaining: 4, units: -40, unitsOK: true, perWeekOK: true},
		{name: "partial surplus", target: 100, projected: 105, avg: 10, remaining: 1, units: -1, unitsOK: true, perWeekOK: true},
		{name: "zero avg", target: 100, projected: 0, avg: 0, remaining: 2, unitsOK: false, perWeekOK: true},
		{name: "no weeks left", target: 100, projected: 0, avg: 10, remaining: 0, units: 10, unitsOK: true, perWeekOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Gap(tt.target, tt.projected, tt.avg, tt.remaining)
			assert.InDelta(t, tt.target-tt.projected, g.Amount, 1e-6)
			assert.Equal(t, tt.unitsOK, g.UnitsNeeded.Defined)
			if tt.unitsOK {
				assert.Equal(t, tt.units, g.UnitsNeeded.Value)
			}
			assert.Equal(t, tt.perWeekOK, g.PerWeek.Defined)
		})
	}
}

func TestGap_UnitsNeeded233(t *testing.T) {
	g := Gap(58_300_000, 0, 250_000, 12)
	assert.Equal(t, 233.0, g.UnitsNeeded.Value)
}
