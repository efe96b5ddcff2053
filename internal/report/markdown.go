package report

import (
	"fmt"
	"strings"
)

// Markdown renders the report as a text summary.
func Markdown(r *Report) string {
	var b strings.Builder

	b.WriteString("# Pipeline Predict Summary\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", r.GeneratedAt.Format("2006-01-02 15:04 MST"))

	if r.Summary != nil {
		b.WriteString("## Metrics Overview\n")
		fmt.Fprintf(&b, "- Total Opportunities: %d\n", r.Summary.Opportunities)
		fmt.Fprintf(&b, "- Total Pipeline Value: %s\n", Currency(r.Summary.Pipeline))
		fmt.Fprintf(&b, "- Predicted Closed Value: %s\n", Currency(r.Summary.Predicted))
		if r.Unfiltered != nil && r.Unfiltered.Opportunities != r.Summary.Opportunities {
			fmt.Fprintf(&b, "- Before filters: %d opportunities, %s pipeline\n",
				r.Unfiltered.Opportunities, Currency(r.Unfiltered.Pipeline))
		}
		if len(r.Dropped) > 0 {
			fmt.Fprintf(&b, "- Rows dropped (missing GAAP or Forecast): %d\n", len(r.Dropped))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Conversion Rates\n")
	for _, c := range r.Rates.Categories() {
		fmt.Fprintf(&b, "- %s: %.0f%%\n", c, r.Rates.Rate(c)*100)
	}
	b.WriteString("\n")

	if r.Selection != nil {
		segs, owners, quarters := r.Selection.Labels()
		b.WriteString("## Filters\n")
		fmt.Fprintf(&b, "- Coverage Segmentation: %s\n", listOrNone(segs))
		fmt.Fprintf(&b, "- 1st Line from CRO: %s\n", listOrNone(owners))
		fmt.Fprintf(&b, "- Close Quarter: %s\n\n", listOrNone(quarters))
	}

	for _, bd := range []*Breakdown{r.Forecast, r.Segmentation, r.OwnerLine, r.Quarter} {
		writeBreakdown(&b, bd)
	}

	if r.Pacing != nil {
		writePacing(&b, r)
	}

	if r.Projection != nil {
		b.WriteString("## Forecast vs Target\n")
		b.WriteString("| Week | Target | Actual | Projected |\n|---|---:|---:|---:|\n")
		for _, p := range r.Projection.Points {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				p.Label, Currency(p.Target), CurrencyOf(p.Actual), CurrencyOf(p.Projected))
		}
		b.WriteString("\n")
	}

	if r.Gap != nil {
		b.WriteString("## Gap Closure\n")
		fmt.Fprintf(&b, "- Target: %s\n", Currency(r.Gap.Target))
		fmt.Fprintf(&b, "- Projected from Pipeline: %s\n", Currency(r.Gap.Projected))
		fmt.Fprintf(&b, "- Gap Remaining: %s\n", Currency(r.Gap.Amount))
		fmt.Fprintf(&b, "- Average Opportunity Size: %s\n", Currency(r.Gap.AvgUnitSize))
		fmt.Fprintf(&b, "- Opportunities Needed to Close Gap: %s\n", CountOf(r.Gap.UnitsNeeded))
		fmt.Fprintf(&b, "- Needed per Remaining Week: %s\n\n", CurrencyOf(r.Gap.PerWeek))
	}

	if len(r.Warnings) > 0 {
		b.WriteString("## Warnings\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeBreakdown(b *strings.Builder, bd *Breakdown) {
	if bd == nil {
		return
	}
	fmt.Fprintf(b, "## %s\n", bd.Title)
	if len(bd.Rows) == 0 {
		b.WriteString("No matching opportunities.\n\n")
		return
	}

	withGAAP := bd.Rows[0].GAAP.Defined
	fmt.Fprintf(b, "| %s | Count |", strings.Join(bd.Columns, " | "))
	if withGAAP {
		b.WriteString(" GAAP |")
	}
	b.WriteString(" Predicted |\n|")
	for range bd.Columns {
		b.WriteString("---|")
	}
	b.WriteString("---:|")
	if withGAAP {
		b.WriteString("---:|")
	}
	b.WriteString("---:|\n")

	for _, row := range bd.Rows {
		cells := make([]string, len(row.Key))
		for i, k := range row.Key {
			cells[i] = "(none)"
			if k.Valid {
				cells[i] = escapeCell(k.Value)
			}
		}
		fmt.Fprintf(b, "| %s | %d |", strings.Join(cells, " | "), row.Count)
		if withGAAP {
			fmt.Fprintf(b, " %s |", CurrencyOf(row.GAAP))
		}
		fmt.Fprintf(b, " %s |\n", CurrencyOf(row.Predicted))
	}
	b.WriteString("\n")
}

func writePacing(b *strings.Builder, r *Report) {
	p := r.Pacing
	current := "Current"
	if p.CurrentLabel != "" {
		current = p.CurrentLabel
	}

	fmt.Fprintf(b, "## Target vs %s Pacing\n", current)
	fmt.Fprintf(b, "| Segment | Target | %s | %% to Target |\n|---|---:|---:|---:|\n", current)
	for _, s := range p.Segments {
		fmt.Fprintf(b, "| %s | %s | %s | %s |\n",
			s.Segment, CurrencyOf(s.Target), CurrencyOf(s.Current), Percent(s.Percent))
	}
	if p.Count != nil {
		fmt.Fprintf(b, "| Count | %s | %s | %s |\n",
			CountOf(p.Count.Target), CountOf(p.Count.Current), Percent(p.Count.Percent))
	}
	b.WriteString("\n")

	if len(p.Weekly) > 0 {
		b.WriteString("### Weekly Pacing\n")
		for _, row := range p.Weekly {
			cells := make([]string, 0, len(row))
			for _, c := range row {
				if c = strings.TrimSpace(c); c != "" {
					cells = append(cells, escapeCell(c))
				}
			}
			if len(cells) > 0 {
				fmt.Fprintf(b, "- %s\n", strings.Join(cells, " | "))
			}
		}
		b.WriteString("\n")
	}
}
