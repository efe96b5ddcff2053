// Package projection builds the cumulative target, actual and projected
// curves for a quarter and sizes the remaining gap.
package projection

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/pipeline-predict/internal/model"
)

// Defaults for a fiscal quarter.
const (
	DefaultWeeksTotal  = 13
	DefaultAvgUnitSize = 250_000
)

// Input describes one projection.
type Input struct {
	TargetTotal    float64
	ProjectedTotal float64
	WeeksTotal     int
	WeeksElapsed   int
	// ActualToDate holds the cumulative actual per elapsed week, starting at
	// week 1. Undefined entries mark weeks without a reading. Values beyond
	// WeeksElapsed are ignored.
	ActualToDate []model.Number
}

// Point is one period of the curve. Actual is undefined for periods that
// have not elapsed.
type Point struct {
	Label     string       `json:"label" yaml:"label"`
	Target    float64      `json:"target" yaml:"target"`
	Actual    model.Number `json:"actual" yaml:"actual"`
	Projected model.Number `json:"projected" yaml:"projected"`
}

// Curve is the per-period projection.
type Curve struct {
	Points             []Point `json:"points" yaml:"points"`
	WeeksRemaining     int     `json:"weeks_remaining" yaml:"weeks_remaining"`
	TargetIncrement    float64 `json:"target_increment" yaml:"target_increment"`
	ProjectedIncrement float64 `json:"projected_increment" yaml:"projected_increment"`
}

// Final returns the last projected value, undefined for an empty curve.
func (c *Curve) Final() model.Number {
	if c == nil || len(c.Points) == 0 {
		return model.Undefined
	}
	return c.Points[len(c.Points)-1].Projected
}

// Project spreads the projected total evenly over the remaining weeks,
// starting from the last known actual. With no weeks remaining the
// projection holds flat at the last actual.
func Project(in Input) (*Curve, error) {
	if in.WeeksTotal <= 0 {
		return nil, eris.Errorf("projection: weeks total must be positive (got %d)", in.WeeksTotal)
	}

	elapsed := min(max(in.WeeksElapsed, 0), in.WeeksTotal)
	actuals := in.ActualToDate
	if len(actuals) > elapsed {
		actuals = actuals[:elapsed]
	}

	var last float64
	for _, a := range actuals {
		if a.Defined {
			last = a.Value
		}
	}

	c := &Curve{
		Points:          make([]Point, in.WeeksTotal),
		WeeksRemaining:  in.WeeksTotal - elapsed,
		TargetIncrement: in.TargetTotal / float64(in.WeeksTotal),
	}
	if c.WeeksRemaining > 0 {
		c.ProjectedIncrement = in.ProjectedTotal / float64(c.WeeksRemaining)
	}

	for i := range c.Points {
		p := Point{
			Label:  fmt.Sprintf("Week %d", i+1),
			Target: c.TargetIncrement * float64(i+1),
		}
		switch {
		case i < len(actuals):
			p.Actual = actuals[i]
			p.Projected = p.Actual
		case i < elapsed:
			p.Actual, p.Projected = model.Undefined, model.Undefined
		default:
			p.Projected = model.DefinedNumber(last + c.ProjectedIncrement*float64(i-elapsed+1))
		}
		c.Points[i] = p
	}
	return c, nil
}

// Actuals wraps cumulative readings for consecutive weeks from week 1.
func Actuals(values ...float64) []model.Number {
	out := make([]model.Number, len(values))
	for i, v := range values {
		out[i] = model.DefinedNumber(v)
	}
	return out
}

// LatestActual places a single cumulative reading at week, leaving earlier
// weeks undefined. week values below 1 are treated as 1.
func LatestActual(value float64, week int) []model.Number {
	week = max(week, 1)
	out := make([]model.Number, week)
	out[week-1] = model.DefinedNumber(value)
	return out
}

// GapResult sizes the shortfall between target and projection.
type GapResult struct {
	Target      float64      `json:"target" yaml:"target"`
	Projected   float64      `json:"projected" yaml:"projected"`
	Amount      float64      `json:"amount" yaml:"amount"`
	AvgUnitSize float64      `json:"avg_unit_size" yaml:"avg_unit_size"`
	UnitsNeeded model.Number `json:"units_needed" yaml:"units_needed"`
	PerWeek     model.Number `json:"per_week" yaml:"per_week"`
}

// Gap computes target - projected and the number of average-sized units
// needed to close it. UnitsNeeded goes negative when the projection already
// exceeds the target and is undefined when avgUnitSize is not positive.
func Gap(target, projected, avgUnitSize float64, weeksRemaining int) GapResult {
	g := GapResult{
		Target:      target,
		Projected:   projected,
		Amount:      target - projected,
		AvgUnitSize: avgUnitSize,
		UnitsNeeded: model.Undefined,
		PerWeek:     model.Undefined,
	}
	if avgUnitSize > 0 {
		g.UnitsNeeded = model.DefinedNumber(math.Floor(g.Amount / avgUnitSize))
	}
	if weeksRemaining > 0 {
		g.PerWeek = model.Ratio(g.Amount, float64(weeksRemaining))
	}
	return g
}
