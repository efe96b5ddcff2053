package report

import (
	"math"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/pipeline-predict/internal/model"
)

var printer = message.NewPrinter(language.English)

// Currency renders v as whole dollars with thousands separators.
func Currency(v float64) string {
	s := printer.Sprintf("%.0f", math.Abs(v))
	if math.Round(v) < 0 {
		return "-$" + s
	}
	return "$" + s
}

// CurrencyOf renders a Number, "n/a" when undefined.
func CurrencyOf(n model.Number) string {
	if !n.Defined {
		return "n/a"
	}
	return Currency(n.Value)
}

// Percent renders a percentage with one decimal, "n/a" when undefined.
func Percent(n model.Number) string {
	if !n.Defined {
		return "n/a"
	}
	return printer.Sprintf("%.1f%%", n.Value)
}

// Count renders an integer quantity with thousands separators.
func Count(v float64) string {
	return printer.Sprintf("%.0f", v)
}

// CountOf renders a Number as a count, "n/a" when undefined.
func CountOf(n model.Number) string {
	if !n.Defined {
		return "n/a"
	}
	return Count(n.Value)
}

func listOrNone(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
