// Package report runs the forecast pipeline for one parameter set and
// renders the result.
package report

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/pipeline-predict/internal/aggregate"
	"github.com/sells-group/pipeline-predict/internal/fetcher"
	"github.com/sells-group/pipeline-predict/internal/forecast"
	"github.com/sells-group/pipeline-predict/internal/model"
	"github.com/sells-group/pipeline-predict/internal/opportunity"
	"github.com/sells-group/pipeline-predict/internal/pacing"
	"github.com/sells-group/pipeline-predict/internal/projection"
)

// Section names for failures raised by the report itself.
const (
	SectionProjection = "projection"
)

// Inputs are the raw tables a report is built from. Either may be nil.
type Inputs struct {
	Pipeline *fetcher.Table
	Pacing   *fetcher.Table
}

// Breakdown is one grouped table.
type Breakdown struct {
	Title   string          `json:"title" yaml:"title"`
	Columns []string        `json:"columns" yaml:"columns"`
	Rows    []aggregate.Row `json:"rows" yaml:"rows"`
}

// Report holds every derived section. Sections that could not be computed
// are nil and explained in Warnings.
type Report struct {
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`

	Summary    *aggregate.Summary `json:"summary,omitempty" yaml:"summary,omitempty"`
	Unfiltered *aggregate.Summary `json:"unfiltered,omitempty" yaml:"unfiltered,omitempty"`

	Forecast     *Breakdown `json:"forecast_breakdown,omitempty" yaml:"forecast_breakdown,omitempty"`
	Segmentation *Breakdown `json:"segmentation_breakdown,omitempty" yaml:"segmentation_breakdown,omitempty"`
	OwnerLine    *Breakdown `json:"owner_line_breakdown,omitempty" yaml:"owner_line_breakdown,omitempty"`
	Quarter      *Breakdown `json:"quarter_breakdown,omitempty" yaml:"quarter_breakdown,omitempty"`

	Opportunities []model.Opportunity `json:"opportunities,omitempty" yaml:"opportunities,omitempty"`

	Pacing     *pacing.Snapshot      `json:"pacing,omitempty" yaml:"pacing,omitempty"`
	Projection *projection.Curve     `json:"projection,omitempty" yaml:"projection,omitempty"`
	Gap        *projection.GapResult `json:"gap,omitempty" yaml:"gap,omitempty"`

	Rates     forecast.RateTable         `json:"rates" yaml:"rates"`
	Selection *opportunity.Selection     `json:"selection,omitempty" yaml:"selection,omitempty"`
	Options   *opportunity.FilterOptions `json:"options,omitempty" yaml:"options,omitempty"`

	Dropped  []opportunity.DroppedRow   `json:"dropped,omitempty" yaml:"dropped,omitempty"`
	Failures []*model.ExtractionFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
	Warnings []string                   `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func (r *Report) fail(err error) {
	var ef *model.ExtractionFailure
	if !errors.As(err, &ef) {
		ef = &model.ExtractionFailure{Section: "report", Cause: err.Error()}
	}
	zap.L().Warn("report: section omitted", zap.String("section", ef.Section), zap.String("cause", ef.Cause))
	r.Failures = append(r.Failures, ef)
	r.Warnings = append(r.Warnings, ef.Error())
}

func (r *Report) warn(format string, args ...any) {
	msg := SectionProjection + ": " + fmt.Sprintf(format, args...)
	zap.L().Warn("report: "+msg)
	r.Warnings = append(r.Warnings, msg)
}

// Build runs the pipeline. The error is non-nil only for invalid params;
// problems with the inputs degrade single sections.
func Build(in Inputs, p Params) (*Report, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	r := &Report{GeneratedAt: time.Now().UTC(), Rates: p.Rates}

	r.buildOpportunities(in.Pipeline, p)
	r.buildPacing(in.Pacing, p)
	r.buildProjection(p)

	return r, nil
}

func (r *Report) buildOpportunities(t *fetcher.Table, p Params) {
	if t == nil {
		r.fail(model.Failf(opportunity.Section, "no pipeline table provided"))
		return
	}

	res, err := opportunity.Normalize(t, p.Rates)
	if err != nil {
		r.fail(err)
		return
	}
	r.Dropped = res.Dropped

	all := aggregate.Totals(res.Records)
	r.Unfiltered = &all

	opts := opportunity.Options(res.Records, p.AllowedSegmentations)
	r.Options = &opts

	sel := opts.Selection()
	if p.Selection != nil {
		sel = p.Selection.Or(sel)
	}
	r.Selection = &sel

	filtered := opportunity.Filter(res.Records, sel)
	sum := aggregate.Totals(filtered)
	r.Summary = &sum
	r.Opportunities = filtered

	r.Forecast = breakdown("GAAP vs. Predicted Value by Forecast", filtered, aggregate.Query{
		GroupBy: []model.Field{model.FieldForecast},
		Order:   aggregate.OrderLabel,
	})

	seg := aggregate.GroupBy(filtered, aggregate.Query{
		GroupBy: []model.Field{model.FieldSegmentation},
		Sums:    aggregate.SumPredicted,
		Order:   aggregate.OrderLabel,
	})
	allowed := p.AllowedSegmentations
	if allowed == nil {
		allowed = opportunity.DefaultSegmentations
	}
	seg = aggregate.Restrict(seg, 0, allowed)
	r.Segmentation = &Breakdown{Title: "Predicted Value by Segmentation", Columns: seg.Columns(), Rows: seg.Rows}

	r.OwnerLine = breakdown("Predicted Value by 1st Line CRO", filtered, aggregate.Query{
		GroupBy: []model.Field{model.FieldOwnerLine},
		Sums:    aggregate.SumPredicted,
		Order:   aggregate.OrderLabel,
	})
	r.Quarter = breakdown("Predicted Value by Close Quarter", filtered, aggregate.Query{
		GroupBy: []model.Field{model.FieldCloseQuarter},
		Sums:    aggregate.SumPredicted,
		Order:   aggregate.OrderQuarterKey,
	})
}

func breakdown(title string, records []model.Opportunity, q aggregate.Query) *Breakdown {
	res := aggregate.GroupBy(records, q)
	return &Breakdown{Title: title, Columns: res.Columns(), Rows: res.Rows}
}

func (r *Report) buildPacing(t *fetcher.Table, p Params) {
	if t == nil {
		r.fail(model.Failf(pacing.Section, "no pacing table provided"))
		return
	}

	snap, err := pacing.Reconcile(t, p.Pacing)
	if err != nil {
		r.fail(err)
		return
	}
	r.Pacing = snap
	r.Warnings = append(r.Warnings, snap.Warnings...)
}

func (r *Report) buildProjection(p Params) {
	all, hasAll := r.Pacing.Segment(pacing.SegmentAll)

	var target float64
	switch {
	case p.TargetTotal != nil:
		target = *p.TargetTotal
	case hasAll && all.Target.Defined:
		target = all.Target.Value
	default:
		r.fail(model.Failf(SectionProjection, "no target total available"))
		return
	}

	var projected float64
	switch {
	case p.ProjectedTotal != nil:
		projected = *p.ProjectedTotal
	case r.Summary != nil:
		projected = r.Summary.Predicted
	default:
		r.fail(model.Failf(SectionProjection, "no projected total available"))
		return
	}

	in := projection.Input{
		TargetTotal:    target,
		ProjectedTotal: projected,
		WeeksTotal:     p.WeeksTotal,
	}

	switch {
	case len(p.ActualToDate) > 0:
		in.ActualToDate = projection.Actuals(p.ActualToDate...)
		in.WeeksElapsed = len(p.ActualToDate)
		if p.WeeksElapsed != nil {
			in.WeeksElapsed = *p.WeeksElapsed
			if extra := len(p.ActualToDate) - in.WeeksElapsed; extra > 0 {
				r.warn("%d actual(s) after week %d ignored", extra, in.WeeksElapsed)
			}
		}
	case hasAll && all.Current.Defined:
		week := max(r.Pacing.WeeksElapsed, 1)
		in.WeeksElapsed = week
		if p.WeeksElapsed != nil && *p.WeeksElapsed < week {
			in.WeeksElapsed = *p.WeeksElapsed
			if in.WeeksElapsed == 0 {
				r.warn("pacing actual from week %d ignored with no weeks elapsed", week)
				break
			}
			r.warn("pacing actual from week %d placed at week %d", week, in.WeeksElapsed)
			week = in.WeeksElapsed
		} else if p.WeeksElapsed != nil {
			in.WeeksElapsed = *p.WeeksElapsed
		}
		in.ActualToDate = projection.LatestActual(all.Current.Value, week)
	default:
		if p.WeeksElapsed != nil {
			in.WeeksElapsed = *p.WeeksElapsed
		}
	}

	curve, err := projection.Project(in)
	if err != nil {
		r.fail(model.Failf(SectionProjection, "%s", err.Error()))
		return
	}
	r.Projection = curve

	gap := projection.Gap(target, projected, p.AvgUnitSize, curve.WeeksRemaining)
	r.Gap = &gap
}
