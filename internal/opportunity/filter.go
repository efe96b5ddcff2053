package opportunity

import (
	"encoding/json"
	"sort"

	"github.com/sells-group/pipeline-predict/internal/model"
	"github.com/sells-group/pipeline-predict/internal/quarter"
)

// Set is a membership set of categorical values.
type Set map[string]struct{}

// NewSet builds a set from values.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports whether v is a member. Null is never a member.
func (s Set) Has(v model.Text) bool {
	if !v.Valid {
		return false
	}
	_, ok := s[v.Value]
	return ok
}

// Values returns the members sorted lexicographically.
func (s Set) Values() []string {
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// MarshalJSON encodes the set as a sorted list. A nil set encodes as null
// so that it decodes back to nil.
func (s Set) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	return json.Marshal(s.Values())
}

// UnmarshalJSON decodes a list of values.
func (s *Set) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	if values == nil {
		*s = nil
		return nil
	}
	*s = NewSet(values...)
	return nil
}

// MarshalYAML encodes the set as a sorted list, null when nil.
func (s Set) MarshalYAML() (any, error) {
	if s == nil {
		return nil, nil
	}
	return s.Values(), nil
}

// Selection is the active filter: a record passes when its segmentation,
// owner line and close quarter are all selected.
type Selection struct {
	Segmentations Set `json:"segmentations" yaml:"segmentations"`
	OwnerLines    Set `json:"owner_lines" yaml:"owner_lines"`
	Quarters      Set `json:"quarters" yaml:"quarters"`
}

// Or fills dimensions left nil in s from def. An empty, non-nil set is
// kept and selects nothing.
func (s Selection) Or(def Selection) Selection {
	if s.Segmentations == nil {
		s.Segmentations = def.Segmentations
	}
	if s.OwnerLines == nil {
		s.OwnerLines = def.OwnerLines
	}
	if s.Quarters == nil {
		s.Quarters = def.Quarters
	}
	return s
}

// Matches reports whether r passes the selection.
func (s Selection) Matches(r model.Opportunity) bool {
	return s.Segmentations.Has(r.Segmentation) &&
		s.OwnerLines.Has(r.OwnerLine) &&
		s.Quarters.Has(r.Value(model.FieldCloseQuarter))
}

// Labels returns the selected values for display, quarters in quarter order.
func (s Selection) Labels() (segmentations, ownerLines, quarters []string) {
	return s.Segmentations.Values(), s.OwnerLines.Values(), quarter.Sort(s.Quarters.Values())
}

// Filter returns the records matching sel in their original order.
func Filter(records []model.Opportunity, sel Selection) []model.Opportunity {
	out := make([]model.Opportunity, 0, len(records))
	for _, r := range records {
		if sel.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}
