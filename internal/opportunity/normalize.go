package opportunity

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/sells-group/pipeline-predict/internal/fetcher"
	"github.com/sells-group/pipeline-predict/internal/forecast"
	"github.com/sells-group/pipeline-predict/internal/model"
	"github.com/sells-group/pipeline-predict/internal/quarter"
)

// DroppedRow records an input row that was excluded during normalization.
// Line is 1-based and counts the header row, so it matches a spreadsheet.
type DroppedRow struct {
	Line   int    `json:"line" yaml:"line"`
	Reason string `json:"reason" yaml:"reason"`
}

// Result is the outcome of normalizing an opportunity table.
type Result struct {
	Records []model.Opportunity `json:"records" yaml:"records"`
	Dropped []DroppedRow        `json:"dropped,omitempty" yaml:"dropped,omitempty"`
}

// Normalize converts t into opportunity records, dropping rows without a
// numeric GAAP value or a forecast category. t is not modified. The only
// error returned is an *model.ExtractionFailure for a schema mismatch.
func Normalize(t *fetcher.Table, rates forecast.RateTable) (*Result, error) {
	if t == nil || len(t.Header) == 0 {
		return nil, model.Failf(Section, "table has no header row")
	}

	schema, err := BindSchema(t.Header)
	if err != nil {
		return nil, err
	}

	res := &Result{Records: make([]model.Opportunity, 0, t.Len())}
	for i := range t.Rows {
		line := i + 2

		gaap, ok := model.ParseAmount(t.Cell(i, schema.GAAP))
		if !ok {
			res.Dropped = append(res.Dropped, DroppedRow{Line: line, Reason: fmt.Sprintf("GAAP %q is not a number", t.Cell(i, schema.GAAP))})
			continue
		}
		fc := t.Cell(i, schema.Forecast)
		if model.IsNull(fc) {
			res.Dropped = append(res.Dropped, DroppedRow{Line: line, Reason: "forecast category is missing"})
			continue
		}

		rec := model.Opportunity{
			ForecastCategory: forecast.TitleCase(fc),
			GAAP:             gaap,
			CloseQuarter:     model.ParseText(t.Cell(i, schema.CloseQuarter)).String(),
			Segmentation:     optional(t, i, schema.Segmentation),
			OwnerLine:        optional(t, i, schema.OwnerLine),
		}
		if schema.AccountName >= 0 {
			rec.AccountName = t.Cell(i, schema.AccountName)
		}
		rec.CloseQuarterKey = quarter.SortKey(rec.CloseQuarter)
		rec.ConversionRate = rates.Rate(rec.ForecastCategory)
		rec.PredictedValue = rec.GAAP * rec.ConversionRate

		res.Records = append(res.Records, rec)
	}

	zap.L().Info("opportunity: normalized table",
		zap.Int("rows", t.Len()),
		zap.Int("records", len(res.Records)),
		zap.Int("dropped", len(res.Dropped)),
	)
	return res, nil
}

// Reprice returns copies of records with rates and predicted values
// recomputed from rates. Used when only the rate table changes.
func Reprice(records []model.Opportunity, rates forecast.RateTable) []model.Opportunity {
	out := make([]model.Opportunity, len(records))
	for i, r := range records {
		r.ConversionRate = rates.Rate(r.ForecastCategory)
		r.PredictedValue = r.GAAP * r.ConversionRate
		out[i] = r
	}
	return out
}

func optional(t *fetcher.Table, row, col int) model.Text {
	if col < 0 {
		return model.Null
	}
	return model.ParseText(t.Cell(row, col))
}
