package pacing

import (
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/pipeline-predict/internal/fetcher"
	"github.com/sells-group/pipeline-predict/internal/model"
)

var weekNumber = regexp.MustCompile(`(?i)week\s*(\d+)`)

// extractLabeled reads one target row and one current row, matched on
// Source, Metric Group and Metric Type, with one amount per segment column.
func extractLabeled(t *fetcher.Table, opts Options) (*Snapshot, error) {
	p := t.Promote()

	src, grp, typ := p.Column(ColSource), p.Column(ColMetricGroup), p.Column(ColMetricType)
	if src < 0 || grp < 0 || typ < 0 {
		return nil, model.Failf(Section, "missing %s, %s or %s column", ColSource, ColMetricGroup, ColMetricType)
	}

	segCols := make([]int, len(opts.Segments))
	var missing []string
	for i, seg := range opts.Segments {
		segCols[i] = p.Column(seg)
		if segCols[i] < 0 {
			missing = append(missing, seg)
		}
	}
	if len(missing) > 0 {
		return nil, model.Failf(Section, "missing segment column(s) %s", strings.Join(missing, ", "))
	}

	var targets, currents []int
	for r := range p.Rows {
		if p.Cell(r, grp) != opts.MetricGroup || p.Cell(r, typ) != opts.MetricType {
			continue
		}
		s := p.Cell(r, src)
		if s == opts.TargetSource {
			targets = append(targets, r)
		} else if strings.Contains(s, opts.CurrentSource) {
			currents = append(currents, r)
		}
	}

	if len(targets) == 0 {
		return nil, model.Failf(Section, "no %q row for %s %s", opts.TargetSource, opts.MetricGroup, opts.MetricType)
	}
	if len(currents) == 0 {
		return nil, model.Failf(Section, "no %q row for %s %s", opts.CurrentSource, opts.MetricGroup, opts.MetricType)
	}

	snap := &Snapshot{Shape: Labeled}
	if len(targets) > 1 {
		snap.warn(Section, "multiple target rows, using the first", zap.String("source", opts.TargetSource), zap.Int("matches", len(targets)))
	}
	if len(currents) > 1 {
		snap.warn(Section, "multiple current rows, using the first", zap.String("source", opts.CurrentSource), zap.Int("matches", len(currents)))
	}

	tr, cr := targets[0], currents[0]
	snap.CurrentLabel = p.Cell(cr, src)
	if m := weekNumber.FindStringSubmatch(snap.CurrentLabel); m != nil {
		snap.WeeksElapsed, _ = strconv.Atoi(m[1])
	}

	for i, seg := range opts.Segments {
		target := cellNumber(p, tr, segCols[i])
		current := cellNumber(p, cr, segCols[i])
		if !target.Defined || !current.Defined {
			snap.warn(Section, "non-numeric amount for segment "+seg)
		}
		snap.Segments = append(snap.Segments, newSegmentPacing(seg, target, current))
	}
	return snap, nil
}

func cellNumber(t *fetcher.Table, row, col int) model.Number {
	v, ok := model.ParseAmount(t.Cell(row, col))
	if !ok {
		return model.Undefined
	}
	return model.DefinedNumber(v)
}
