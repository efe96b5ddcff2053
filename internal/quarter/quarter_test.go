package quarter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSortKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		label string
		want  int
	}{
		{name: "two digit year", label: "Q1-25", want: 251},
		{name: "fourth quarter", label: "Q4-24", want: 244},
		{name: "four digit year", label: "Q3-2025", want: 253},
		{name: "lowercase prefix", label: "q2-26", want: 262},
		{name: "surrounding space", label: "  Q2-25 ", want: 252},
		{name: "garbage", label: "garbage", want: Unknown},
		{name: "empty", label: "", want: Unknown},
		{name: "missing prefix", label: "1-25", want: Unknown},
		{name: "quarter out of range", label: "Q5-25", want: Unknown},
		{name: "quarter zero", label: "Q0-25", want: Unknown},
		{name: "non numeric year", label: "Q1-xx", want: Unknown},
		{name: "three parts", label: "Q1-25-01", want: Unknown},
		{name: "three digit year", label: "Q1-025", want: Unknown},
		{name: "nan from a spreadsheet", label: "nan", want: Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SortKey(tt.label))
		})
	}
}

func TestSortKey_Monotonic(t *testing.T) {
	t.Parallel()

	var prev int
	for year := 20; year <= 30; year++ {
		for q := 1; q <= 4; q++ {
			key := SortKey(Label(year*10 + q))
			assert.Greater(t, key, prev, "Q%d-%d should sort after the previous quarter", q, year)
			assert.Less(t, key, Unknown)
			prev = key
		}
	}
}

func TestSort(t *testing.T) {
	t.Parallel()

	in := []string{"Q3-25", "Q1-25", "garbage", "Q4-24"}
	got := Sort(in)

	assert.Equal(t, []string{"Q4-24", "Q1-25", "Q3-25", "garbage"}, got)
	assert.Equal(t, []int{244, 251, 253, Unknown}, []int{SortKey(got[0]), SortKey(got[1]), SortKey(got[2]), SortKey(got[3])})
	// input untouched
	assert.Equal(t, []string{"Q3-25", "Q1-25", "garbage", "Q4-24"}, in)
}

func TestSort_StableForUnknown(t *testing.T) {
	t.Parallel()

	got := Sort([]string{"b", "Q1-25", "a"})
	assert.Equal(t, []string{"Q1-25", "b", "a"}, got)
}

func TestLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Q1-25", Label(251))
	assert.Equal(t, "Q4-05", Label(54))
	assert.Equal(t, "", Label(Unknown))
}

func TestLess(t *testing.T) {
	t.Parallel()

	assert.True(t, Less("Q4-24", "Q1-25"))
	assert.False(t, Less("garbage", "Q1-25"))
}
