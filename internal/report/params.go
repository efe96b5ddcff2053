package report

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/pipeline-predict/internal/forecast"
	"github.com/sells-group/pipeline-predict/internal/opportunity"
	"github.com/sells-group/pipeline-predict/internal/pacing"
	"github.com/sells-group/pipeline-predict/internal/projection"
)

// Params is the full parameter set for one report. A report is a pure
// function of its inputs and Params.
type Params struct {
	Rates forecast.RateTable `json:"rates" yaml:"rates"`
	// Selection is the active filter. A nil Selection, or a nil dimension
	// within it, selects everything offered.
	Selection            *opportunity.Selection `json:"selection,omitempty" yaml:"selection,omitempty"`
	AllowedSegmentations []string               `json:"allowed_segmentations,omitempty" yaml:"allowed_segmentations,omitempty"`

	Pacing pacing.Options `json:"-" yaml:"-"`

	WeeksTotal  int     `json:"weeks_total" yaml:"weeks_total"`
	AvgUnitSize float64 `json:"avg_unit_size" yaml:"avg_unit_size"`

	// Overrides for figures otherwise read from the pacing table or the
	// filtered pipeline.
	WeeksElapsed   *int      `json:"weeks_elapsed,omitempty" yaml:"weeks_elapsed,omitempty"`
	TargetTotal    *float64  `json:"target_total,omitempty" yaml:"target_total,omitempty"`
	ProjectedTotal *float64  `json:"projected_total,omitempty" yaml:"projected_total,omitempty"`
	ActualToDate   []float64 `json:"actual_to_date,omitempty" yaml:"actual_to_date,omitempty"`
}

// DefaultParams returns the starting parameters.
func DefaultParams() Params {
	return Params{
		Rates:                forecast.DefaultRates(),
		AllowedSegmentations: opportunity.DefaultSegmentations,
		Pacing:               pacing.DefaultOptions(),
		WeeksTotal:           projection.DefaultWeeksTotal,
		AvgUnitSize:          projection.DefaultAvgUnitSize,
	}
}

// Validate checks the parameters that cannot degrade gracefully.
func (p Params) Validate() error {
	if err := p.Rates.Validate(); err != nil {
		return eris.Wrap(err, "report: invalid params")
	}
	if p.WeeksTotal <= 0 {
		return eris.Errorf("report: weeks total must be positive (got %d)", p.WeeksTotal)
	}
	if p.WeeksElapsed != nil && *p.WeeksElapsed < 0 {
		return eris.Errorf("report: weeks elapsed must not be negative (got %d)", *p.WeeksElapsed)
	}
	return nil
}
