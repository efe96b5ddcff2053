package model

import (
	"math"
	"strconv"
)

// Number is a float that may be undefined, e.g. a ratio over a zero base.
// Undefined numbers encode as null instead of NaN or Inf.
type Number struct {
	Value   float64
	Defined bool
}

// DefinedNumber wraps v. NaN and infinities are treated as undefined.
func DefinedNumber(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Number{Value: v, Defined: true}
}

// Undefined is the undefined Number.
var Undefined = Number{}

// Ratio returns num/den, undefined when den is zero.
func Ratio(num, den float64) Number {
	if den == 0 {
		return Undefined
	}
	return DefinedNumber(num / den)
}

// Or returns the value, or def when undefined.
func (n Number) Or(def float64) float64 {
	if !n.Defined {
		return def
	}
	return n.Value
}

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Defined {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, n.Value, 'f', -1, 64), nil
}

// MarshalYAML implements yaml.Marshaler.
func (n Number) MarshalYAML() (any, error) {
	if !n.Defined {
		return nil, nil
	}
	return n.Value, nil
}
