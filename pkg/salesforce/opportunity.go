package salesforce

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/pipeline-predict/internal/fetcher"
	"github.com/sells-group/pipeline-predict/internal/opportunity"
)

// FieldMap names the Opportunity fields read into each pipeline column.
// Segmentation and OwnerLine are org-specific custom fields; an empty name
// leaves the column blank.
type FieldMap struct {
	Amount       string
	Forecast     string
	CloseDate    string
	Segmentation string
	OwnerLine    string
	// ForecastAliases renames forecast category values, e.g. the standard
	// "Best Case" category to "Upside".
	ForecastAliases map[string]string
}

// DefaultFieldMap returns the standard field names.
func DefaultFieldMap() FieldMap {
	return FieldMap{
		Amount:          "Amount",
		Forecast:        "ForecastCategoryName",
		CloseDate:       "CloseDate",
		Segmentation:    "Coverage_Segmentation__c",
		OwnerLine:       "First_Line_from_CRO__c",
		ForecastAliases: map[string]string{"Best Case": "Upside"},
	}
}

// OpportunityQuery selects which opportunities are pulled.
type OpportunityQuery struct {
	// Where is a trusted SOQL condition from configuration.
	Where  string
	Limit  int
	Fields FieldMap
}

// opportunityHeader is the pipeline column order produced by FetchOpportunities.
var opportunityHeader = []string{
	opportunity.ColAccountName,
	opportunity.ColForecast,
	opportunity.ColGAAP,
	opportunity.ColSegmentation,
	opportunity.ColOwnerLine,
	opportunity.ColCloseQuarter,
}

// BuildOpportunitySOQL renders the query for q.
func BuildOpportunitySOQL(q OpportunityQuery) string {
	f := q.Fields
	fields := []string{"Id", "Account.Name", f.Forecast, f.Amount, f.CloseDate}
	if f.Segmentation != "" {
		fields = append(fields, f.Segmentation)
	}
	if f.OwnerLine != "" {
		fields = append(fields, f.OwnerLine)
	}

	soql := fmt.Sprintf("SELECT %s FROM Opportunity", strings.Join(fields, ", "))
	if w := strings.TrimSpace(q.Where); w != "" {
		soql += " WHERE " + w
	}
	soql += " ORDER BY " + f.CloseDate
	if q.Limit > 0 {
		soql += fmt.Sprintf(" LIMIT %d", q.Limit)
	}
	return soql
}

// FetchOpportunities pulls opportunities and returns them as a pipeline
// table with the standard export headers.
func FetchOpportunities(ctx context.Context, c Client, q OpportunityQuery) (*fetcher.Table, error) {
	soql := BuildOpportunitySOQL(q)

	var records []map[string]any
	if err := c.Query(ctx, soql, &records); err != nil {
		return nil, eris.Wrap(err, "sf: fetch opportunities")
	}

	f := q.Fields
	t := &fetcher.Table{
		Header: append([]string(nil), opportunityHeader...),
		Rows:   make([][]string, 0, len(records)),
	}
	for _, r := range records {
		fc := stringField(r, f.Forecast)
		if alias, ok := f.ForecastAliases[fc]; ok {
			fc = alias
		}
		t.Rows = append(t.Rows, []string{
			accountName(r),
			fc,
			stringField(r, f.Amount),
			stringField(r, f.Segmentation),
			stringField(r, f.OwnerLine),
			QuarterLabel(stringField(r, f.CloseDate)),
		})
	}

	zap.L().Info("sf: fetched opportunities", zap.Int("count", len(t.Rows)))
	return t, nil
}

// CheckFields reports which mapped fields the Opportunity object lacks.
func CheckFields(ctx context.Context, c Client, f FieldMap) ([]string, error) {
	desc, err := c.DescribeSObject(ctx, "Opportunity")
	if err != nil {
		return nil, err
	}

	var missing []string
	for _, name := range []string{f.Amount, f.Forecast, f.CloseDate, f.Segmentation, f.OwnerLine} {
		if name != "" && !desc.HasField(name) {
			missing = append(missing, name)
		}
	}
	return missing, nil
}

// QuarterLabel converts a YYYY-MM-DD close date into a calendar quarter
// label such as "Q3-25". Unparseable dates yield "".
func QuarterLabel(date string) string {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return ""
	}
	q := (int(d.Month())-1)/3 + 1
	return fmt.Sprintf("Q%d-%02d", q, d.Year()%100)
}

func accountName(r map[string]any) string {
	acct, ok := r["Account"].(map[string]any)
	if !ok {
		return ""
	}
	return stringField(acct, "Name")
}

func stringField(r map[string]any, name string) string {
	if name == "" {
		return ""
	}
	switch v := r[name].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
