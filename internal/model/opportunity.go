package model

// Field identifies a canonical opportunity column.
type Field int

const (
	FieldAccountName Field = iota
	FieldForecast
	FieldSegmentation
	FieldOwnerLine
	FieldCloseQuarter
)

var fieldNames = map[Field]string{
	FieldAccountName:  "Account Name",
	FieldForecast:     "Forecast",
	FieldSegmentation: "Coverage Segmentation",
	FieldOwnerLine:    "1st Line from CRO",
	FieldCloseQuarter: "Close Quarter",
}

// String returns the column header the field is read from.
func (f Field) String() string {
	if n, ok := fieldNames[f]; ok {
		return n
	}
	return "unknown"
}

// Text is a nullable categorical value.
type Text struct {
	Value string
	Valid bool
}

// Some returns a non-null Text.
func Some(s string) Text { return Text{Value: s, Valid: true} }

// Null is the missing value.
var Null = Text{}

// String renders null as an empty string.
func (t Text) String() string {
	if !t.Valid {
		return ""
	}
	return t.Value
}

// MarshalJSON renders null as a JSON null.
func (t Text) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return jsonString(t.Value), nil
}

// MarshalYAML renders null as a YAML null.
func (t Text) MarshalYAML() (any, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.Value, nil
}

// Opportunity is one normalized pipeline row.
type Opportunity struct {
	AccountName      string  `json:"account_name" yaml:"account_name"`
	ForecastCategory string  `json:"forecast" yaml:"forecast"`
	GAAP             float64 `json:"gaap" yaml:"gaap"`
	Segmentation     Text    `json:"coverage_segmentation" yaml:"coverage_segmentation"`
	OwnerLine        Text    `json:"owner_line" yaml:"owner_line"`
	CloseQuarter     string  `json:"close_quarter" yaml:"close_quarter"`
	CloseQuarterKey  int     `json:"close_quarter_key" yaml:"close_quarter_key"`
	ConversionRate   float64 `json:"conversion_rate" yaml:"conversion_rate"`
	PredictedValue   float64 `json:"predicted_value" yaml:"predicted_value"`
}

// Value returns the categorical value of f for this record.
func (o Opportunity) Value(f Field) Text {
	switch f {
	case FieldAccountName:
		return Some(o.AccountName)
	case FieldForecast:
		return Some(o.ForecastCategory)
	case FieldSegmentation:
		return o.Segmentation
	case FieldOwnerLine:
		return o.OwnerLine
	case FieldCloseQuarter:
		if o.CloseQuarter == "" {
			return Null
		}
		return Some(o.CloseQuarter)
	default:
		return Null
	}
}
