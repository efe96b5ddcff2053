package pacing

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/pipeline-predict/internal/fetcher"
	"github.com/sells-group/pipeline-predict/internal/model"
)

// extractPositional reads a tracker sheet: the row after the marker holds
// the target and current amounts, the row after that the counts.
func extractPositional(t *fetcher.Table, opts Options) (*Snapshot, error) {
	grid := t.Rows
	if len(t.Header) > 0 {
		grid = append([][]string{t.Header}, t.Rows...)
	}
	g := &fetcher.Table{Rows: grid}

	var markers []int
	for r := range g.Rows {
		if g.Cell(r, opts.MarkerColumn) == opts.MarkerValue {
			markers = append(markers, r)
		}
	}
	if len(markers) == 0 {
		return nil, model.Failf(Section, "no %q marker in column %d", opts.MarkerValue, opts.MarkerColumn)
	}

	snap := &Snapshot{Shape: Positional}
	if len(markers) > 1 {
		snap.warn(Section, "multiple marker rows, using the first", zap.Ints("rows", markers))
	}

	row := markers[0] + 1
	target, ok := amountAt(g, row, opts.MarkerColumn)
	if !ok {
		return nil, model.Failf(Section, "target amount at row %d column %d is not a number", row+1, opts.MarkerColumn)
	}
	current, ok := amountAt(g, row, opts.CurrentColumn)
	if !ok {
		return nil, model.Failf(Section, "current amount at row %d column %d is not a number", row+1, opts.CurrentColumn)
	}
	snap.Segments = []SegmentPacing{newSegmentPacing(SegmentAll, target, current)}

	tc, okT := amountAt(g, row+1, opts.MarkerColumn)
	cc, okC := amountAt(g, row+1, opts.CurrentColumn)
	if okT && okC {
		c := newSegmentPacing(SegmentAll, tc, cc)
		snap.Count = &c
	} else {
		snap.warn(Section, "count row missing or not numeric", zap.Int("row", row+2))
	}

	snap.Weekly = weeklyBlock(g, opts)
	if snap.Weekly == nil {
		snap.warn(WeeklySection, "no "+opts.WeeklyMarker+" row found")
	}
	return snap, nil
}

func amountAt(g *fetcher.Table, row, col int) (model.Number, bool) {
	v, ok := model.ParseAmount(g.Cell(row, col))
	if !ok {
		return model.Undefined, false
	}
	return model.DefinedNumber(v), true
}

// weeklyBlock returns the rows starting one above the first row that
// mentions the weekly marker.
func weeklyBlock(g *fetcher.Table, opts Options) [][]string {
	if opts.WeeklyMarker == "" || opts.WeeklyRows <= 0 {
		return nil
	}

	first := -1
	for r, cells := range g.Rows {
		for _, c := range cells {
			if strings.Contains(c, opts.WeeklyMarker) {
				first = r
				break
			}
		}
		if first >= 0 {
			break
		}
	}
	if first < 0 {
		return nil
	}

	start := max(first-1, 0)
	end := min(start+opts.WeeklyRows, len(g.Rows))
	out := make([][]string, 0, end-start)
	for _, cells := range g.Rows[start:end] {
		out = append(out, append([]string(nil), cells...))
	}
	return out
}
