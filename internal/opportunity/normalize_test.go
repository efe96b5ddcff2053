package opportunity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pipeline-predict/internal/fetcher"
	"github.com/sells-group/pipeline-predict/internal/forecast"
	"github.com/sells-group/pipeline-predict/internal/model"
	"github.com/sells-group/pipeline-predict/internal/quarter"
)

var testHeader = []string{ColAccountName, ColForecast, ColGAAP, ColSegmentation, ColOwnerLine, ColCloseQuarter}

func table(rows ...[]string) *fetcher.Table {
	return &fetcher.Table{Header: testHeader, Rows: rows}
}

func TestNormalize_PredictedValues(t *testing.T) {
	tbl := table(
		[]string{"Acme", "commit", "100", "Enterprise", "East", "Q1-25"},
		[]string{"Beta", "upside", "200", "Commercial", "West", "Q2-25"},
		[]string{"Gamma", "unknown", "50", "Global", "East", "Q3-25"},
	)

	res, err := Normalize(tbl, forecast.DefaultRates())
	require.NoError(t, err)
	require.Len(t, res.Records, 3)
	assert.Empty(t, res.Dropped)

	var total float64
	got := make([]float64, 0, 3)
	for _, r := range res.Records {
		got = append(got, r.PredictedValue)
		total += r.PredictedValue
		assert.Equal(t, r.GAAP*forecast.DefaultRates().Rate(r.ForecastCategory), r.PredictedValue)
	}
	assert.InDeltaSlice(t, []float64{80, 100, 0}, got, 1e-9)
	assert.InDelta(t, 180.0, total, 1e-9)

	assert.Equal(t, "Commit", res.Records[0].ForecastCategory)
	assert.Equal(t, "Upside", res.Records[1].ForecastCategory)
	assert.Equal(t, "Unknown", res.Records[2].ForecastCategory)
	assert.Equal(t, 0.0, res.Records[2].ConversionRate)
}

func TestNormalize_Fields(t *testing.T) {
	tbl := table([]string{" Acme ", "COMMIT", "$1,250,000.50", "", "N/A", "Q3-2025"})

	res, err := Normalize(tbl, forecast.DefaultRates())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)

	r := res.Records[0]
	assert.Equal(t, "Acme", r.AccountName)
	assert.Equal(t, "Commit", r.ForecastCategory)
	assert.InDelta(t, 1250000.50, r.GAAP, 1e-9)
	assert.False(t, r.Segmentation.Valid)
	assert.False(t, r.OwnerLine.Valid)
	assert.Equal(t, "Q3-2025", r.CloseQuarter)
	assert.Equal(t, 253, r.CloseQuarterKey)
	assert.InDelta(t, 0.8, r.ConversionRate, 1e-9)
}

func TestNormalize_DropsRows(t *testing.T) {
	tbl := table(
		[]string{"Keep", "Commit", "100", "Enterprise", "East", "Q1-25"},
		[]string{"NoGAAP", "Commit", "", "Enterprise", "East", "Q1-25"},
		[]string{"NaNGAAP", "Commit", "NaN", "Enterprise", "East", "Q1-25"},
		[]string{"TextGAAP", "Commit", "tbd", "Enterprise", "East", "Q1-25"},
		[]string{"NoForecast", "", "100", "Enterprise", "East", "Q1-25"},
		[]string{"NullForecast", "None", "100", "Enterprise", "East", "Q1-25"},
	)

	res, err := Normalize(tbl, forecast.DefaultRates())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "Keep", res.Records[0].AccountName)

	require.Len(t, res.Dropped, 5)
	lines := make([]int, 0, len(res.Dropped))
	for _, d := range res.Dropped {
		lines = append(lines, d.Line)
		assert.NotEmpty(t, d.Reason)
	}
	assert.Equal(t, []int{3, 4, 5, 6, 7}, lines)
}

func TestNormalize_MalformedQuarter(t *testing.T) {
	tbl := table(
		[]string{"A", "Commit", "10", "Enterprise", "East", "garbage"},
		[]string{"B", "Commit", "10", "Enterprise", "East", ""},
	)

	res, err := Normalize(tbl, forecast.DefaultRates())
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	for _, r := range res.Records {
		assert.Equal(t, quarter.Unknown, r.CloseQuarterKey)
	}
	assert.False(t, res.Records[1].Value(model.FieldCloseQuarter).Valid)
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	tbl := table([]string{"Acme", "commit", " 100 ", "Enterprise", "East", "Q1-25"})
	before := append([]string(nil), tbl.Rows[0]...)

	_, err := Normalize(tbl, forecast.DefaultRates())
	require.NoError(t, err)
	assert.Equal(t, before, tbl.Rows[0])
}

func TestNormalize_MissingColumn(t *testing.T) {
	tbl := &fetcher.Table{
		Header: []string{ColAccountName, ColForecast, ColCloseQuarter},
		Rows:   [][]string{{"Acme", "Commit", "Q1-25"}},
	}

	_, err := Normalize(tbl, forecast.DefaultRates())
	require.Error(t, err)

	var ef *model.ExtractionFailure
	require.True(t, errors.As(err, &ef))
	assert.Equal(t, Section, ef.Section)
	assert.Contains(t, ef.Cause, ColGAAP)
}

func TestNormalize_NoHeader(t *testing.T) {
	_, err := Normalize(&fetcher.Table{Rows: [][]string{{"x"}}}, forecast.DefaultRates())
	var ef *model.ExtractionFailure
	require.True(t, errors.As(err, &ef))
}

func TestNormalize_OptionalColumnsAbsent(t *testing.T) {
	tbl := &fetcher.Table{
		Header: []string{"gaap", "forecast", "close quarter"},
		Rows:   [][]string{{"100", "Pipeline", "Q2-25"}},
	}

	res, err := Normalize(tbl, forecast.DefaultRates())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "", res.Records[0].AccountName)
	assert.False(t, res.Records[0].Segmentation.Valid)
	assert.InDelta(t, 30.0, res.Records[0].PredictedValue, 1e-9)
}

func TestReprice(t *testing.T) {
	in := []model.Opportunity{{ForecastCategory: "Commit", GAAP: 100, ConversionRate: 0.8, PredictedValue: 80}}
	out := Reprice(in, forecast.DefaultRates().With("Commit", 0.5))

	assert.InDelta(t, 50.0, out[0].PredictedValue, 1e-9)
	assert.InDelta(t, 80.0, in[0].PredictedValue, 1e-9)
}
