// Package quarter turns free-text fiscal quarter labels such as "Q1-25" into
// totally ordered integer keys.
package quarter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Unknown is the key assigned to labels that cannot be parsed. It sorts
// after every valid key.
const Unknown = 9999

// SortKey parses a label of the form Q<n>-<yy> (or Q<n>-<yyyy>) and returns
// yy*10 + n. Anything else yields Unknown.
func SortKey(label string) int {
	parts := strings.Split(strings.TrimSpace(label), "-")
	if len(parts) != 2 {
		return Unknown
	}

	q := strings.TrimSpace(parts[0])
	if len(q) != 2 || (q[0] != 'Q' && q[0] != 'q') {
		return Unknown
	}
	n := int(q[1] - '0')
	if n < 1 || n > 4 {
		return Unknown
	}

	yy := strings.TrimSpace(parts[1])
	switch len(yy) {
	case 2:
	case 4:
		yy = yy[2:]
	default:
		return Unknown
	}
	year, err := strconv.Atoi(yy)
	if err != nil || year < 0 {
		return Unknown
	}
	return year*10 + n
}

// Label renders a key back into Q<n>-<yy> form. Unknown renders as "".
func Label(key int) string {
	if key == Unknown || key < 0 {
		return ""
	}
	return fmt.Sprintf("Q%d-%02d", key%10, key/10)
}

// Sort returns a copy of labels ordered by SortKey. Labels with equal keys
// keep their input order.
func Sort(labels []string) []string {
	out := make([]string, len(labels))
	copy(out, labels)
	sort.SliceStable(out, func(i, j int) bool {
		return SortKey(out[i]) < SortKey(out[j])
	})
	return out
}

// Less reports whether label a sorts before label b.
func Less(a, b string) bool {
	return SortKey(a) < SortKey(b)
}
