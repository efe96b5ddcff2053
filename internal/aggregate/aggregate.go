// Package aggregate groups opportunity records by categorical fields and
// sums their values.
package aggregate

import (
	"sort"
	"strings"

	"github.com/sells-group/pipeline-predict/internal/model"
)

// Sums selects which amounts are reduced. Zero means both.
type Sums uint8

const (
	SumGAAP Sums = 1 << iota
	SumPredicted
)

func (s Sums) has(f Sums) bool {
	return s == 0 || s&f != 0
}

// Order controls the order of rows in a Result.
type Order int

const (
	// OrderDiscovery keeps groups in the order their first record appears.
	OrderDiscovery Order = iota
	// OrderQuarterKey sorts groups by the smallest close quarter key among
	// their members. Ties keep discovery order.
	OrderQuarterKey
	// OrderLabel sorts groups by their key values; null sorts last.
	OrderLabel
)

// Query describes one grouping.
type Query struct {
	GroupBy []model.Field
	Sums    Sums
	Order   Order
}

// Row is one group.
type Row struct {
	Key        []model.Text `json:"key" yaml:"key"`
	Count      int          `json:"count" yaml:"count"`
	GAAP       model.Number `json:"gaap" yaml:"gaap"`
	Predicted  model.Number `json:"predicted" yaml:"predicted"`
	QuarterKey int          `json:"quarter_key" yaml:"quarter_key"`
}

// Label joins the key values for display. Null renders as "(none)".
func (r Row) Label() string {
	parts := make([]string, len(r.Key))
	for i, k := range r.Key {
		if k.Valid {
			parts[i] = k.Value
		} else {
			parts[i] = "(none)"
		}
	}
	return strings.Join(parts, " / ")
}

// Result is an ordered list of groups with unique keys.
type Result struct {
	Fields []model.Field `json:"-" yaml:"-"`
	Rows   []Row         `json:"rows" yaml:"rows"`
}

// Columns returns the header names of the grouping fields.
func (r Result) Columns() []string {
	out := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		out[i] = f.String()
	}
	return out
}

type groupKey string

func makeKey(vals []model.Text) groupKey {
	var b strings.Builder
	for _, v := range vals {
		if v.Valid {
			b.WriteByte('s')
			b.WriteString(v.Value)
		} else {
			b.WriteByte('n')
		}
		b.WriteByte(0)
	}
	return groupKey(b.String())
}

// GroupBy groups records by the query fields. Null is a group of its own.
// Every record lands in exactly one group.
func GroupBy(records []model.Opportunity, q Query) Result {
	res := Result{Fields: q.GroupBy}
	index := make(map[groupKey]int)

	for _, r := range records {
		vals := make([]model.Text, len(q.GroupBy))
		for i, f := range q.GroupBy {
			vals[i] = r.Value(f)
		}
		k := makeKey(vals)

		i, ok := index[k]
		if !ok {
			i = len(res.Rows)
			index[k] = i
			row := Row{Key: vals, QuarterKey: r.CloseQuarterKey}
			if q.Sums.has(SumGAAP) {
				row.GAAP = model.DefinedNumber(0)
			}
			if q.Sums.has(SumPredicted) {
				row.Predicted = model.DefinedNumber(0)
			}
			res.Rows = append(res.Rows, row)
		}

		row := &res.Rows[i]
		row.Count++
		if q.Sums.has(SumGAAP) {
			row.GAAP.Value += r.GAAP
		}
		if q.Sums.has(SumPredicted) {
			row.Predicted.Value += r.PredictedValue
		}
		if r.CloseQuarterKey < row.QuarterKey {
			row.QuarterKey = r.CloseQuarterKey
		}
	}

	switch q.Order {
	case OrderQuarterKey:
		sort.SliceStable(res.Rows, func(i, j int) bool {
			return res.Rows[i].QuarterKey < res.Rows[j].QuarterKey
		})
	case OrderLabel:
		sort.SliceStable(res.Rows, func(i, j int) bool {
			return lessKey(res.Rows[i].Key, res.Rows[j].Key)
		})
	}
	return res
}

func lessKey(a, b []model.Text) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		switch {
		case a[i].Valid && !b[i].Valid:
			return true
		case !a[i].Valid && b[i].Valid:
			return false
		case a[i].Value != b[i].Value:
			return a[i].Value < b[i].Value
		}
	}
	return len(a) < len(b)
}

// Restrict returns a copy of res without the groups whose key at field
// index is not in allowed. Null keys are always removed.
func Restrict(res Result, field int, allowed []string) Result {
	allow := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		allow[a] = true
	}

	out := Result{Fields: res.Fields, Rows: make([]Row, 0, len(res.Rows))}
	for _, row := range res.Rows {
		if field < 0 || field >= len(row.Key) {
			continue
		}
		if k := row.Key[field]; k.Valid && allow[k.Value] {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Summary holds the headline scalars of a record set.
type Summary struct {
	Opportunities int     `json:"opportunities" yaml:"opportunities"`
	Pipeline      float64 `json:"pipeline" yaml:"pipeline"`
	Predicted     float64 `json:"predicted" yaml:"predicted"`
}

// Totals sums every record.
func Totals(records []model.Opportunity) Summary {
	s := Summary{Opportunities: len(records)}
	for _, r := range records {
		s.Pipeline += r.GAAP
		s.Predicted += r.PredictedValue
	}
	return s
}
