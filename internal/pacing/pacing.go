// Package pacing extracts target and current-progress figures from a pacing
// export. Two sheet layouts are supported: a positional tracker where the
// figures sit at fixed offsets from a marker cell, and a labeled table
// filtered by Source, Metric Group and Metric Type.
package pacing

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/pipeline-predict/internal/fetcher"
	"github.com/sells-group/pipeline-predict/internal/model"
)

// Section names used in extraction failures and warnings.
const (
	Section       = "pacing"
	WeeklySection = "weekly pacing"
)

// Labeled table columns.
const (
	ColSource      = "Source"
	ColMetricGroup = "Metric Group"
	ColMetricType  = "Metric Type"
)

// SegmentAll is the segment that carries company-wide totals.
const SegmentAll = "ALL"

// Shape is the detected layout of a pacing table.
type Shape int

const (
	Positional Shape = iota
	Labeled
)

func (s Shape) String() string {
	if s == Labeled {
		return "labeled"
	}
	return "positional"
}

// MarshalText renders the shape name.
func (s Shape) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Options holds the labels and offsets used to locate pacing figures.
type Options struct {
	// Positional layout. Columns are 0-based.
	MarkerColumn  int
	CurrentColumn int
	MarkerValue   string
	WeeklyMarker  string
	WeeklyRows    int

	// Labeled layout.
	TargetSource  string
	CurrentSource string // matched as a substring
	MetricGroup   string
	MetricType    string
	Segments      []string
}

// DefaultOptions returns the layout of the standard quarterly tracker.
func DefaultOptions() Options {
	return Options{
		MarkerColumn:  18,
		CurrentColumn: 19,
		MarkerValue:   "Target",
		WeeklyMarker:  "Enterprise",
		WeeklyRows:    4,
		TargetSource:  "Q2 Target",
		CurrentSource: "Week",
		MetricGroup:   "Creation",
		MetricType:    "$",
		Segments:      []string{SegmentAll, "Enterprise", "Commercial", "Global"},
	}
}

// SegmentPacing is the target and current amount of one segment.
type SegmentPacing struct {
	Segment string       `json:"segment" yaml:"segment"`
	Target  model.Number `json:"target" yaml:"target"`
	Current model.Number `json:"current" yaml:"current"`
	Percent model.Number `json:"percent_to_target" yaml:"percent_to_target"`
}

func newSegmentPacing(segment string, target, current model.Number) SegmentPacing {
	return SegmentPacing{
		Segment: segment,
		Target:  target,
		Current: current,
		Percent: PercentToTarget(target, current),
	}
}

// PercentToTarget returns current / target * 100, undefined when either
// side is undefined or the target is zero.
func PercentToTarget(target, current model.Number) model.Number {
	if !target.Defined || !current.Defined {
		return model.Undefined
	}
	r := model.Ratio(current.Value, target.Value)
	if !r.Defined {
		return r
	}
	return model.DefinedNumber(r.Value * 100)
}

// Snapshot is the pacing state read from one table.
type Snapshot struct {
	Shape        Shape           `json:"shape" yaml:"shape"`
	Segments     []SegmentPacing `json:"segments" yaml:"segments"`
	Count        *SegmentPacing  `json:"count,omitempty" yaml:"count,omitempty"`
	CurrentLabel string          `json:"current_label,omitempty" yaml:"current_label,omitempty"`
	WeeksElapsed int             `json:"weeks_elapsed" yaml:"weeks_elapsed"`
	Weekly       [][]string      `json:"weekly,omitempty" yaml:"weekly,omitempty"`
	Warnings     []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Segment returns the pacing of the named segment.
func (s *Snapshot) Segment(name string) (SegmentPacing, bool) {
	if s == nil {
		return SegmentPacing{}, false
	}
	for _, sp := range s.Segments {
		if sp.Segment == name {
			return sp, true
		}
	}
	return SegmentPacing{}, false
}

func (s *Snapshot) warn(section, msg string, fields ...zap.Field) {
	zap.L().Warn("pacing: "+msg, append(fields, zap.String("section", section))...)
	s.Warnings = append(s.Warnings, section+": "+msg)
}

// Detect sniffs the layout of t. A table whose header (or first row, for a
// raw grid) names Source, Metric Group and Metric Type is Labeled.
func Detect(t *fetcher.Table) Shape {
	if t == nil {
		return Positional
	}
	head := t.Header
	if len(head) == 0 && len(t.Rows) > 0 {
		head = t.Rows[0]
	}

	need := map[string]bool{ColSource: false, ColMetricGroup: false, ColMetricType: false}
	for _, h := range head {
		h = strings.TrimSpace(h)
		if _, ok := need[h]; ok {
			need[h] = true
		}
	}
	for _, ok := range need {
		if !ok {
			return Positional
		}
	}
	return Labeled
}

// Reconcile detects the layout of t and extracts a Snapshot. The only error
// returned is an *model.ExtractionFailure; warnings for optional parts are
// carried on the Snapshot.
func Reconcile(t *fetcher.Table, opts Options) (*Snapshot, error) {
	if t == nil || (len(t.Header) == 0 && len(t.Rows) == 0) {
		return nil, model.Failf(Section, "pacing table is empty")
	}

	shape := Detect(t)
	zap.L().Debug("pacing: detected table shape", zap.Stringer("shape", shape))

	if shape == Labeled {
		return extractLabeled(t, opts)
	}
	return extractPositional(t, opts)
}
