package opportunity

import (
	"github.com/sells-group/pipeline-predict/internal/model"
	"github.com/sells-group/pipeline-predict/internal/quarter"
)

// DefaultSegmentations is the segmentation allow-list offered for filtering.
var DefaultSegmentations = []string{"Enterprise", "Commercial", "Global"}

// FilterOptions lists the values a user may choose from.
type FilterOptions struct {
	Segmentations []string `json:"segmentations" yaml:"segmentations"`
	OwnerLines    []string `json:"owner_lines" yaml:"owner_lines"`
	Quarters      []string `json:"quarters" yaml:"quarters"`
}

// Options collects the distinct non-null values present in records.
// Segmentations are restricted to allowed; a nil allowed uses
// DefaultSegmentations.
func Options(records []model.Opportunity, allowed []string) FilterOptions {
	if allowed == nil {
		allowed = DefaultSegmentations
	}
	allow := NewSet(allowed...)

	segs, owners, quarters := Set{}, Set{}, Set{}
	for _, r := range records {
		if allow.Has(r.Segmentation) {
			segs[r.Segmentation.Value] = struct{}{}
		}
		if r.OwnerLine.Valid {
			owners[r.OwnerLine.Value] = struct{}{}
		}
		if q := r.Value(model.FieldCloseQuarter); q.Valid {
			quarters[q.Value] = struct{}{}
		}
	}

	return FilterOptions{
		Segmentations: segs.Values(),
		OwnerLines:    owners.Values(),
		Quarters:      quarter.Sort(quarters.Values()),
	}
}

// Selection returns the default selection: everything offered.
func (o FilterOptions) Selection() Selection {
	return Selection{
		Segmentations: NewSet(o.Segmentations...),
		OwnerLines:    NewSet(o.OwnerLines...),
		Quarters:      NewSet(o.Quarters...),
	}
}
