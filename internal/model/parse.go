package model

import (
	"math"
	"strconv"
	"strings"
)

// nullTokens are the cell values treated as missing, in addition to "".
var nullTokens = map[string]bool{
	"nan":  true,
	"na":   true,
	"n/a":  true,
	"#n/a": true,
	"null": true,
	"none": true,
}

// IsNull reports whether a raw cell is a missing value.
func IsNull(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || nullTokens[strings.ToLower(s)]
}

// ParseText converts a raw cell into a nullable value.
func ParseText(s string) Text {
	if IsNull(s) {
		return Null
	}
	return Some(strings.TrimSpace(s))
}

// ParseAmount parses a currency cell such as "$1,250,000.00" or "(500)".
// ok is false for null and non-numeric cells.
func ParseAmount(s string) (float64, bool) {
	if IsNull(s) {
		return 0, false
	}
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}
