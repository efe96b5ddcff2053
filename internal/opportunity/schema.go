// Package opportunity normalizes raw pipeline exports into typed records and
// filters them by the user's selection.
package opportunity

import (
	"strings"

	"github.com/sells-group/pipeline-predict/internal/model"
)

// Column headers of the opportunity export.
const (
	ColGAAP         = "GAAP"
	ColForecast     = "Forecast"
	ColCloseQuarter = "Close Quarter"
	ColSegmentation = "Coverage Segmentation"
	ColOwnerLine    = "1st Line from CRO"
	ColAccountName  = "Account Name"
)

// Section is the name used when the opportunity table cannot be read.
const Section = "opportunities"

// Schema holds the column index of each known field; -1 marks an absent
// optional column.
type Schema struct {
	GAAP         int
	Forecast     int
	CloseQuarter int
	Segmentation int
	OwnerLine    int
	AccountName  int
}

// BindSchema locates the known columns in header. Header cells are compared
// after trimming, case-insensitively. A missing required column yields an
// ExtractionFailure.
func BindSchema(header []string) (Schema, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		k := strings.ToLower(strings.TrimSpace(h))
		if _, dup := idx[k]; !dup {
			idx[k] = i
		}
	}
	col := func(name string) int {
		if i, ok := idx[strings.ToLower(name)]; ok {
			return i
		}
		return -1
	}

	s := Schema{
		GAAP:         col(ColGAAP),
		Forecast:     col(ColForecast),
		CloseQuarter: col(ColCloseQuarter),
		Segmentation: col(ColSegmentation),
		OwnerLine:    col(ColOwnerLine),
		AccountName:  col(ColAccountName),
	}

	var missing []string
	if s.GAAP < 0 {
		missing = append(missing, ColGAAP)
	}
	if s.Forecast < 0 {
		missing = append(missing, ColForecast)
	}
	if s.CloseQuarter < 0 {
		missing = append(missing, ColCloseQuarter)
	}
	if len(missing) > 0 {
		return s, model.Failf(Section, "missing required column(s) %s", strings.Join(missing, ", "))
	}
	return s, nil
}
