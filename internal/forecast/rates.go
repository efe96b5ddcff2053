// Package forecast maps forecast categories to conversion rates.
package forecast

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Recognised forecast categories.
const (
	Commit   = "Commit"
	Upside   = "Upside"
	Pipeline = "Pipeline"
)

// RateTable maps a title-cased forecast category to a conversion rate in [0,1].
type RateTable map[string]float64

// DefaultRates returns the rates the tool starts with.
func DefaultRates() RateTable {
	return RateTable{
		Commit:   0.80,
		Upside:   0.50,
		Pipeline: 0.30,
	}
}

// Rate returns the conversion rate for category. Categories without a
// configured rate contribute nothing, so the lookup miss is 0.
func (t RateTable) Rate(category string) float64 {
	return t[category]
}

// With returns a copy of t with category set to rate.
func (t RateTable) With(category string, rate float64) RateTable {
	out := t.clone()
	out[TitleCase(category)] = rate
	return out
}

func (t RateTable) clone() RateTable {
	out := make(RateTable, len(t)+1)
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Categories returns the configured categories in a stable order.
func (t RateTable) Categories() []string {
	out := make([]string, 0, len(t))
	for k := range t {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Validate checks every rate lies within [0,1].
func (t RateTable) Validate() error {
	for _, k := range t.Categories() {
		v := t[k]
		if v < 0 || v > 1 {
			return eris.Errorf("forecast: rate for %q must be within [0,1] (got %g)", k, v)
		}
	}
	return nil
}

// TitleCase normalizes a forecast label the way the pipeline export expects:
// "commit" and "COMMIT" both become "Commit".
func TitleCase(s string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(s))
}

// ParseRate accepts a fraction ("0.8") or a percentage ("80", "80%").
// Values above 1 are read as percentages.
func ParseRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	pct := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")

	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, eris.Wrapf(err, "forecast: parse rate %q", s)
	}
	if pct || v > 1 {
		v /= 100
	}
	if v < 0 || v > 1 {
		return 0, eris.Errorf("forecast: rate %q out of range", s)
	}
	return v, nil
}

// ParseRates overlays category=rate pairs onto base.
func ParseRates(base RateTable, pairs map[string]string) (RateTable, error) {
	out := base.clone()
	for cat, raw := range pairs {
		r, err := ParseRate(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "forecast: category %s", cat)
		}
		out[TitleCase(cat)] = r
	}
	return out, nil
}
